// Package pkg provides the core libraries for stackscout, an npm package
// metadata collector.
//
// # Overview
//
// Stackscout searches the npm registry with a list of seed keywords, enriches
// every hit from several upstream APIs, scores it, and exports the result as
// a flat dataset. The pkg directory is organized into four main areas:
//
//  1. [integrations] - Upstream API clients (npm registry, GitHub, bundlephobia)
//  2. [score] - Documentation, activity, release cadence and categorization
//  3. [pipeline] - Orchestration (seed → process → done)
//  4. [dataset] and [io] - The record type, its slices and summary, and exporters
//
// Supporting packages: [cache] (file, Redis or no-op response cache),
// [httputil] (retry, per-host circuit breakers, DNS-caching transport),
// [config] (layered TOML, environment and flag settings), [observability]
// (hooks and Prometheus metrics), [errors] (structured error codes) and
// [buildinfo].
//
// # Architecture
//
//	npm search (seed keywords)
//	         ↓
//	    [pipeline] dedup, first Target candidates
//	         ↓
//	    [integrations] registry document, downloads, GitHub stats, size
//	         ↓
//	    [score] documentation 0–5, activity 0–100, categories
//	         ↓
//	    [dataset.Record] → CSV / JSON / YAML / XLSX / MongoDB
//
// # Quick Start
//
//	store, _ := cache.NewFileCache(dir)
//	runner := pipeline.NewRunner(
//	    npm.NewClient(store, 24*time.Hour),
//	    github.NewClient(store, os.Getenv("GITHUB_TOKEN"), 24*time.Hour),
//	    bundlephobia.NewClient(store, 24*time.Hour),
//	)
//	run, err := runner.Collect(ctx, pipeline.Options{Target: 100})
//	if run != nil {
//	    _ = io.ExportCSV(run.Records(), "npm_packages.csv")
//	}
//
// [integrations]: github.com/matzehuels/stackscout/pkg/integrations
// [score]: github.com/matzehuels/stackscout/pkg/score
// [pipeline]: github.com/matzehuels/stackscout/pkg/pipeline
// [dataset]: github.com/matzehuels/stackscout/pkg/dataset
// [dataset.Record]: github.com/matzehuels/stackscout/pkg/dataset#Record
// [io]: github.com/matzehuels/stackscout/pkg/io
// [cache]: github.com/matzehuels/stackscout/pkg/cache
// [httputil]: github.com/matzehuels/stackscout/pkg/httputil
// [config]: github.com/matzehuels/stackscout/pkg/config
// [observability]: github.com/matzehuels/stackscout/pkg/observability
// [errors]: github.com/matzehuels/stackscout/pkg/errors
// [buildinfo]: github.com/matzehuels/stackscout/pkg/buildinfo
package pkg
