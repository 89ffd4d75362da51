package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscout/pkg/cache"
	"github.com/matzehuels/stackscout/pkg/config"
	"github.com/matzehuels/stackscout/pkg/dataset"
	"github.com/matzehuels/stackscout/pkg/httputil"
	"github.com/matzehuels/stackscout/pkg/integrations"
	"github.com/matzehuels/stackscout/pkg/integrations/bundlephobia"
	"github.com/matzehuels/stackscout/pkg/integrations/github"
	"github.com/matzehuels/stackscout/pkg/integrations/npm"
	pkgio "github.com/matzehuels/stackscout/pkg/io"
	"github.com/matzehuels/stackscout/pkg/observability"
	"github.com/matzehuels/stackscout/pkg/pipeline"
)

// exportTimeout bounds the export step, which also runs after an interrupt.
const exportTimeout = 2 * time.Minute

// collectFlags maps configuration keys to the collect flags overriding them.
var collectFlags = map[string]string{
	"collect.target":       "target",
	"collect.workers":      "workers",
	"collect.seeds":        "seeds",
	"collect.search_limit": "search-limit",
	"collect.refresh":      "refresh",
	"cache.backend":        "cache",
	"export.dir":           "output",
	"export.basename":      "basename",
	"export.formats":       "formats",
	"mongo.uri":            "mongo-uri",
	"metrics.file":         "metrics-file",
}

// collectCommand creates the collect command.
func (c *CLI) collectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect, score and export npm packages",
		Long: `Collect searches npm with the seed keywords, enriches each package with
downloads, bundle size and GitHub statistics, scores it, and writes the
dataset in every configured format.

Set GITHUB_TOKEN to raise the GitHub rate limit from 60 to 5000 requests
per hour. Press Ctrl-C to stop early: everything collected so far is still
exported.`,
		Example: `  # Collect 100 packages into ./out
  stackscout collect --target 100 --output out

  # Two workers, Redis cache, JSON only
  stackscout collect --workers 2 --cache redis --formats json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, collectFlags)
			if err != nil {
				return err
			}
			return c.runCollect(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.Int("target", 0, "number of packages to collect (default 500)")
	f.Int("workers", 0, "candidates processed concurrently (default 1)")
	f.StringSlice("seeds", nil, "search keywords (default built-in list)")
	f.Int("search-limit", 0, "search hits per keyword (default 100)")
	f.Bool("refresh", false, "ignore cached responses")
	f.String("cache", "", "cache backend: file, redis or none")
	f.StringP("output", "o", "", "output directory")
	f.String("basename", "", "output file name without extension")
	f.StringSlice("formats", nil, "export formats: csv, json, yaml, xlsx")
	f.String("mongo-uri", "", "also upsert records into MongoDB")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile")

	return cmd
}

func (c *CLI) runCollect(ctx context.Context, cfg *config.Config) error {
	var prom *observability.PrometheusHooks
	if cfg.Metrics.File != "" {
		prom = observability.NewPrometheusHooks()
		observability.SetCollectHooks(prom)
		observability.SetCacheHooks(prom)
		observability.SetHTTPHooks(prom)
		defer observability.Reset()
	}

	store, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	clients := newClients(cfg, store)
	if clients.github.Authenticated() {
		c.Logger.Info("GitHub token detected, using authenticated rate limits")
	} else {
		c.Logger.Warn("no GitHub token, limited to 60 requests per hour; set GITHUB_TOKEN")
	}

	runner := pipeline.NewRunner(clients.npm, clients.github, clients.sizes)
	run, collectErr := runner.Collect(ctx, collectOptions(cfg, c.Logger))
	if run == nil {
		return collectErr
	}
	if collectErr != nil {
		c.Logger.Warn("interrupted, exporting partial results", "recorded", run.Stats().Processed)
	}

	records := run.Records()
	printNewline()
	printInfo("Run %s", StyleHighlight.Render(run.ID))
	fmt.Println(runStatsLine(run.Stats()))

	if len(records) == 0 {
		printWarning("No packages collected, nothing to export")
		return collectErr
	}

	exportErr := c.export(ctx, cfg, run.ID, records)

	renderSummary(os.Stdout, dataset.Summarize(records, time.Now()))

	if prom != nil {
		if err := prom.WriteTextfile(cfg.Metrics.File); err != nil {
			c.Logger.Warn("write metrics", "file", cfg.Metrics.File, "err", err)
		} else {
			c.Logger.Debug("wrote metrics", "file", cfg.Metrics.File)
		}
	}

	if collectErr != nil {
		return collectErr
	}
	return exportErr
}

// export writes every configured file format and, if configured, the
// document store. It keeps going after a failed target.
func (c *CLI) export(ctx context.Context, cfg *config.Config, runID string, records []dataset.Record) error {
	prog := newProgress(c.Logger)

	// Still write what was collected when ctx was interrupted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
	defer cancel()

	sp := newSpinnerWithContext(ctx, "Exporting...")
	sp.Start()
	paths, err := writeFiles(cfg, records, func(path string) {
		sp.SetMessage("Writing " + path)
	})
	var stored int
	if cfg.Mongo.URI != "" {
		sp.SetMessage("Writing to MongoDB...")
		var merr error
		stored, merr = writeMongo(ctx, cfg.Mongo, runID, records)
		err = errors.Join(err, merr)
	}
	sp.Stop()

	if len(paths) > 0 {
		printSuccess("Exported %d packages", len(records))
		for _, p := range paths {
			printFile(p)
		}
	}
	if stored > 0 {
		printSuccess("Upserted %d documents into %s.%s", stored, cfg.Mongo.Database, cfg.Mongo.Collection)
	}
	if err != nil {
		printError("Export incomplete")
	}

	prog.done("export finished")
	return err
}

// writeFiles exports records in each configured format and returns the
// paths written. before is called with each path ahead of writing it.
func writeFiles(cfg *config.Config, records []dataset.Record, before func(path string)) ([]string, error) {
	formats, err := cfg.ExportFormats()
	if err != nil {
		return nil, err
	}
	var (
		paths []string
		errs  []error
	)
	for _, f := range formats {
		path := pkgio.Path(cfg.Export.Dir, cfg.Export.Basename, f)
		if before != nil {
			before(path)
		}
		if err := pkgio.Export(records, f, path); err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func writeMongo(ctx context.Context, cfg config.Mongo, runID string, records []dataset.Record) (int, error) {
	sink, err := pkgio.NewMongoSink(ctx, pkgio.MongoOptions{
		URI:        cfg.URI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
	})
	if err != nil {
		return 0, err
	}
	defer sink.Close(ctx)
	return sink.Write(ctx, runID, records)
}

// =============================================================================
// Wiring
// =============================================================================

type clients struct {
	npm    *npm.Client
	github *github.Client
	sizes  *bundlephobia.Client
}

// newClients builds the upstream clients. They share one cache and one set
// of per-host breakers.
func newClients(cfg *config.Config, store cache.Cache) clients {
	ttl := cfg.Cache.TTL.Duration
	breakers := integrations.WithBreakers(httputil.NewBreakers(0, 0))

	registry := npm.NewClient(store, ttl, breakers)
	registry.PageDelay = cfg.Pacing.Page.Duration
	registry.Refresh = cfg.Collect.Refresh

	repos := github.NewClient(store, cfg.GitHub.Token, ttl, breakers)
	repos.SecondaryDelay = cfg.Pacing.Secondary.Duration
	repos.Refresh = cfg.Collect.Refresh

	sizes := bundlephobia.NewClient(store, ttl, breakers)
	sizes.Refresh = cfg.Collect.Refresh

	return clients{npm: registry, github: repos, sizes: sizes}
}

// collectOptions translates the configuration into run options.
func collectOptions(cfg *config.Config, logger *log.Logger) pipeline.Options {
	return pipeline.Options{
		Target:         cfg.Collect.Target,
		Overshoot:      cfg.Collect.Overshoot,
		Seeds:          cfg.Collect.Seeds,
		SearchLimit:    cfg.Collect.SearchLimit,
		Workers:        cfg.Collect.Workers,
		SeedDelay:      cfg.Pacing.Seed.Duration,
		CandidateDelay: cfg.CandidateDelay(),
		Logger:         logger,
	}
}
