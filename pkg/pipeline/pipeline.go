// Package pipeline runs a collection: it searches the registry with a list
// of seed keywords, deduplicates the hits, and turns each candidate into a
// scored [dataset.Record].
//
// # Phases
//
// A run moves through three states:
//
//  1. Seeding: each seed is searched in order. New names are appended to
//     the candidate list, first-seen wins. Seeding stops early once the list
//     holds Overshoot × Target names.
//  2. Processing: the first Target candidates are fetched and scored. A
//     package is processed at most once per run.
//  3. Done: the run's records are final.
//
// # Failure isolation
//
// Nothing a single candidate does can end the run. Missing registry
// documents skip the candidate, failed secondary fetches fall back to zero
// values, and errors or panics are logged and counted as failures.
//
// # Usage
//
//	runner := pipeline.NewRunner(npmClient, githubClient, sizeClient)
//	run, err := runner.Collect(ctx, pipeline.Options{Target: 100, Logger: logger})
//	if run != nil {
//	    records := run.Records()
//	}
//
// Collect returns the run together with ctx.Err() when cancelled, so
// everything collected before the interruption can still be exported.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/score"
)

const (
	// DefaultTarget is the number of packages a run collects.
	DefaultTarget = 500

	// DefaultOvershoot is how far seeding may run past the target before
	// processing starts.
	DefaultOvershoot = 1.5

	// DefaultSearchLimit is the number of search hits taken per seed.
	DefaultSearchLimit = 100

	// DefaultSeedDelay is the pause between seeds.
	DefaultSeedDelay = 500 * time.Millisecond

	// DefaultCandidateDelay is the pause after each recorded candidate when
	// GitHub requests are unauthenticated.
	DefaultCandidateDelay = 800 * time.Millisecond

	// AuthenticatedCandidateDelay is the pause with a GitHub token.
	AuthenticatedCandidateDelay = 300 * time.Millisecond

	// MaxDescription and MaxKeywords bound the record text fields.
	MaxDescription = 500
	MaxKeywords    = 10
)

// DefaultSeeds are the search keywords used when none are configured.
var DefaultSeeds = []string{
	"nodejs framework", "express framework", "web framework nodejs",
	"api framework node", "rest framework", "graphql framework",
	"http server nodejs", "web server node", "nestjs koa fastify",
	"hapi restify loopback", "sails meteor adonis", "next nuxt remix",
	"microservices framework", "real-time framework", "socket framework",
	"websocket node", "authentication framework", "orm framework node",
	"testing framework nodejs", "test framework node", "build tool node",
	"bundler nodejs", "database framework node", "orm nodejs",
	"mongodb framework", "sequelize typeorm", "nodejs utility",
	"node helper", "nodejs tools", "middleware nodejs", "node server",
	"nodejs runtime", "node application", "backend framework",
	"serverless framework", "jamstack node", "edge framework",
	"headless cms node", "logging framework node", "validation framework",
	"routing framework", "template engine node", "view engine nodejs",
	"cli framework node", "command line tool", "ecommerce framework",
	"cms framework node", "blog framework", "api gateway node",
	"proxy server node",
}

// Options configures one collection run. Zero values take defaults.
type Options struct {
	Target      int
	Overshoot   float64
	Seeds       []string
	SearchLimit int

	// Workers bounds concurrent candidate processing. Records keep
	// candidate order whatever the value.
	Workers int

	SeedDelay      time.Duration
	CandidateDelay time.Duration

	// Thresholds overrides the scoring bands.
	Thresholds *score.Thresholds

	// Logger receives progress. Nil discards it.
	Logger *log.Logger

	// Now is the clock used for scoring. Nil means time.Now.
	Now func() time.Time
}

// SetDefaults fills unset fields. Delays stay as given: a zero delay is a
// valid choice for tests and cached reruns.
func (o *Options) SetDefaults() {
	if o.Target == 0 {
		o.Target = DefaultTarget
	}
	if o.Overshoot == 0 {
		o.Overshoot = DefaultOvershoot
	}
	if len(o.Seeds) == 0 {
		o.Seeds = DefaultSeeds
	}
	if o.SearchLimit == 0 {
		o.SearchLimit = DefaultSearchLimit
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if o.Thresholds == nil {
		t := score.DefaultThresholds
		o.Thresholds = &t
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Validate checks the options after defaults are applied.
func (o *Options) Validate() error {
	if o.Target < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "target must be positive, got %d", o.Target)
	}
	if o.Overshoot < 1 {
		return errs.New(errs.ErrCodeInvalidInput, "overshoot must be at least 1, got %g", o.Overshoot)
	}
	if o.SearchLimit < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "search limit must be positive, got %d", o.SearchLimit)
	}
	if o.Workers < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "workers must be positive, got %d", o.Workers)
	}
	if o.SeedDelay < 0 || o.CandidateDelay < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "delays cannot be negative")
	}
	for _, s := range o.Seeds {
		if err := errs.ValidateKeyword(s); err != nil {
			return err
		}
	}
	return nil
}

// seedQuota is the candidate count at which seeding stops.
func (o *Options) seedQuota() float64 {
	return o.Overshoot * float64(o.Target)
}
