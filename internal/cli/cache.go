package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscout/pkg/cache"
	"github.com/matzehuels/stackscout/pkg/config"
)

// cacheFlags maps configuration keys to the cache command flags.
var cacheFlags = map[string]string{
	"cache.backend": "cache",
}

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP response cache",
	}
	cmd.PersistentFlags().String("cache", "", "cache backend: file or redis")

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached HTTP responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, cacheFlags)
			if err != nil {
				return err
			}
			return clearCache(cmd.Context(), cfg.Cache)
		},
	}
}

func clearCache(ctx context.Context, cfg config.Cache) error {
	switch cfg.Backend {
	case config.CacheNone:
		printInfo("Caching is disabled")
		return nil
	case config.CacheRedis:
		store, err := cache.NewRedisCache(ctx, redisOptions(cfg))
		if err != nil {
			return fmt.Errorf("connect cache: %w", err)
		}
		defer store.Close()
		count, err := store.Clear(ctx)
		if err != nil {
			return err
		}
		printSuccess("Cleared %d cached entries", count)
		printDetail("Redis: %s (prefix %q)", cfg.RedisAddr, cfg.RedisPrefix)
		return nil
	}

	dir, err := fileCacheDir(cfg)
	if err != nil {
		return fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("Cache is empty")
		return nil
	}
	store, err := cache.NewFileCache(dir)
	if err != nil {
		return err
	}
	count, err := store.Clear()
	if err != nil {
		return err
	}
	printSuccess("Cleared %d cached entries", count)
	printDetail("Directory: %s", dir)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			dir, err := fileCacheDir(cfg.Cache)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
