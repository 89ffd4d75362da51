// Package cli implements the stackscout command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscout/pkg/buildinfo"
	"github.com/matzehuels/stackscout/pkg/cache"
	"github.com/matzehuels/stackscout/pkg/config"
	errs "github.com/matzehuels/stackscout/pkg/errors"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "stackscout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag value.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stackscout collects and scores npm packages",
		Long:         `Stackscout searches the npm registry with a list of seed keywords, enriches every hit with download counts, bundle sizes and GitHub repository statistics, scores documentation and maintenance activity, and exports the result as a dataset.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/stackscout/config.toml)")

	root.AddCommand(c.collectCommand())
	root.AddCommand(c.summaryCommand())
	root.AddCommand(c.topCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig merges defaults, the config file, the environment and the
// flags of cmd named in flags (config key to flag name).
func (c *CLI) loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	loader := config.NewLoader()
	for key, name := range flags {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache opens the response cache selected by cfg.
func newCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		store, err := cache.NewRedisCache(ctx, redisOptions(cfg))
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect cache")
		}
		return store, nil
	}
	dir, err := fileCacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// redisOptions builds the connection settings. The password comes from
// STACKSCOUT_REDIS_PASSWORD only.
func redisOptions(cfg config.Cache) cache.RedisOptions {
	return cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: os.Getenv(config.EnvPrefix + "_REDIS_PASSWORD"),
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
	}
}

// =============================================================================
// Paths
// =============================================================================

// fileCacheDir returns the configured cache directory or the default.
func fileCacheDir(cfg config.Cache) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stackscout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
