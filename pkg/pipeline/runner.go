package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackscout/pkg/integrations"
	"github.com/matzehuels/stackscout/pkg/integrations/bundlephobia"
	"github.com/matzehuels/stackscout/pkg/integrations/github"
	"github.com/matzehuels/stackscout/pkg/integrations/npm"
	"github.com/matzehuels/stackscout/pkg/observability"
)

// Registry searches packages and fetches their documents.
type Registry interface {
	Search(ctx context.Context, keyword string, limit int) iter.Seq[npm.Candidate]
	FetchPackage(ctx context.Context, name string) integrations.Result[*npm.PackageDetail]
	FetchDownloads(ctx context.Context, name string) integrations.Result[int]
}

// RepoStatsFetcher fetches source repository statistics.
type RepoStatsFetcher interface {
	FetchRepoStats(ctx context.Context, repoURL string) integrations.Result[*github.RepoStats]
}

// SizeFetcher fetches published bundle sizes.
type SizeFetcher interface {
	FetchSize(ctx context.Context, name string) integrations.Result[bundlephobia.Size]
}

// Runner executes collection runs. It holds no run state, so one Runner
// can serve several runs.
type Runner struct {
	Registry Registry
	Repos    RepoStatsFetcher
	Sizes    SizeFetcher
}

// NewRunner creates a runner. repos and sizes may be nil, in which case the
// corresponding record fields stay zero.
func NewRunner(registry Registry, repos RepoStatsFetcher, sizes SizeFetcher) *Runner {
	return &Runner{Registry: registry, Repos: repos, Sizes: sizes}
}

// Collect seeds, processes and finalizes one run.
//
// Only invalid options make Collect fail before starting. Once started, it
// always returns the run. The error is non-nil only when ctx was cancelled,
// and the run then holds whatever was recorded before that.
func (r *Runner) Collect(ctx context.Context, opts Options) (*Run, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if r.Registry == nil {
		return nil, fmt.Errorf("pipeline: no registry configured")
	}

	run := newRun(opts.Now())
	logger := opts.Logger.With("run", run.ID[:8])

	r.seed(ctx, run, &opts)
	batch := run.startProcessing(opts.Target)
	logger.Info("processing candidates", "queued", len(batch), "found", run.Stats().Candidates)

	if opts.Workers > 1 {
		r.processParallel(ctx, run, batch, &opts)
	} else {
		r.processSequential(ctx, run, batch, &opts)
	}

	run.done(opts.Now())
	st := run.Stats()
	logger.Info("collection finished",
		"recorded", st.Processed,
		"skipped", st.Skipped,
		"failed", st.Failed,
		"duration", run.FinishedAt().Sub(run.StartedAt).Round(time.Millisecond))
	return run, ctx.Err()
}

func (r *Runner) seed(ctx context.Context, run *Run, opts *Options) {
	hooks := observability.Collect()
	for i, keyword := range opts.Seeds {
		if ctx.Err() != nil {
			return
		}
		hooks.OnSeedStart(ctx, keyword)

		var found []npm.Candidate
		for c := range r.Registry.Search(ctx, keyword, opts.SearchLimit) {
			found = append(found, c)
		}
		added := run.merge(found)
		run.seeded()
		total := run.Stats().Candidates

		opts.Logger.Info("searched seed",
			"seed", fmt.Sprintf("%d/%d", i+1, len(opts.Seeds)),
			"keyword", keyword,
			"new", added,
			"total", total)
		hooks.OnSeedComplete(ctx, keyword, len(found), added, nil)

		if float64(total) >= opts.seedQuota() || i == len(opts.Seeds)-1 {
			return
		}
		if !sleep(ctx, opts.SeedDelay) {
			return
		}
	}
}

func (r *Runner) processSequential(ctx context.Context, run *Run, batch []npm.Candidate, opts *Options) {
	for i, c := range batch {
		if ctx.Err() != nil {
			return
		}
		if r.process(ctx, run, i, len(batch), c, opts) == OutcomeRecorded {
			if !sleep(ctx, opts.CandidateDelay) {
				return
			}
		}
	}
}

func (r *Runner) processParallel(ctx context.Context, run *Run, batch []npm.Candidate, opts *Options) {
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, c := range batch {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if r.process(ctx, run, i, len(batch), c, opts) == OutcomeRecorded {
				sleep(ctx, opts.CandidateDelay)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// process handles one candidate. Panics are recovered and counted as
// failures.
func (r *Runner) process(ctx context.Context, run *Run, i, total int, c npm.Candidate, opts *Options) (outcome string) {
	if !run.claim(c.Name) {
		opts.Logger.Debug("already processed", "package", c.Name)
		return OutcomeSkipped
	}

	hooks := observability.Collect()
	hooks.OnCandidateStart(ctx, c.Name)
	start := time.Now()
	logger := opts.Logger.With("package", c.Name, "n", fmt.Sprintf("%d/%d", i+1, total))

	defer func() {
		if p := recover(); p != nil {
			logger.Error("candidate panicked", "panic", p)
			logger.Debug("stack", "trace", string(debug.Stack()))
			run.finish(i, OutcomeFailed, nil)
			outcome = OutcomeFailed
		}
		hooks.OnCandidateComplete(ctx, c.Name, outcome, time.Since(start))
	}()

	rec, err := r.collectOne(ctx, c, opts, logger)
	switch {
	case err != nil && ctx.Err() != nil:
		return OutcomeCancelled
	case errors.Is(err, errSkipped):
		run.finish(i, OutcomeSkipped, nil)
		return OutcomeSkipped
	case err != nil:
		logger.Warn("candidate failed", "err", err)
		run.finish(i, OutcomeFailed, nil)
		return OutcomeFailed
	}
	run.finish(i, OutcomeRecorded, rec)
	logger.Info("recorded",
		"downloads", rec.DownloadsLastMonth,
		"stars", rec.GitHubStars,
		"activity", rec.ActivityScore,
		"doc", rec.DocumentationScore)
	return OutcomeRecorded
}
