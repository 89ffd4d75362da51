// Package config loads collector settings.
//
// Settings are layered. Built-in defaults come first, then an optional TOML
// file, then STACKSCOUT_* environment variables (plus GITHUB_TOKEN), then
// command-line flags. Environment and flags are read through one viper
// instance, so a flag bound with [Loader.BindFlag] wins over the
// environment only when it was set explicitly.
//
//	[collect]
//	target = 500
//	seeds = ["express", "fastify"]
//
//	[pacing]
//	candidate = "300ms"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"time"

	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/io"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete collector configuration.
type Config struct {
	Collect Collect `toml:"collect"`
	Pacing  Pacing  `toml:"pacing"`
	GitHub  GitHub  `toml:"github"`
	Cache   Cache   `toml:"cache"`
	Export  Export  `toml:"export"`
	Mongo   Mongo   `toml:"mongo"`
	Metrics Metrics `toml:"metrics"`
}

// Collect controls the size and shape of a run.
type Collect struct {
	Target      int      `toml:"target"`
	Overshoot   float64  `toml:"overshoot"`
	Seeds       []string `toml:"seeds"` // empty means the built-in seed list
	SearchLimit int      `toml:"search_limit"`
	Workers     int      `toml:"workers"`
	Refresh     bool     `toml:"refresh"`
}

// Pacing holds the pauses between upstream requests.
type Pacing struct {
	Page                   Duration `toml:"page"`
	Seed                   Duration `toml:"seed"`
	Secondary              Duration `toml:"secondary"`
	Candidate              Duration `toml:"candidate"`
	CandidateAuthenticated Duration `toml:"candidate_authenticated"`
}

// GitHub holds API credentials.
type GitHub struct {
	Token string `toml:"token"`
}

// Cache selects where HTTP responses are kept.
type Cache struct {
	Backend     string   `toml:"backend"`
	Dir         string   `toml:"dir"`
	TTL         Duration `toml:"ttl"`
	RedisAddr   string   `toml:"redis_addr"`
	RedisDB     int      `toml:"redis_db"`
	RedisPrefix string   `toml:"redis_prefix"`
}

// Export names the output files.
type Export struct {
	Dir      string   `toml:"dir"`
	Basename string   `toml:"basename"`
	Formats  []string `toml:"formats"`
}

// Mongo configures the optional document store sink. An empty URI
// disables it.
type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Metrics configures the Prometheus textfile. An empty file disables it.
type Metrics struct {
	File string `toml:"file"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

// UnmarshalText parses strings such as "300ms" or "24h".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Collect: Collect{
			Target:      500,
			Overshoot:   1.5,
			SearchLimit: 100,
			Workers:     1,
		},
		Pacing: Pacing{
			Page:                   Duration{300 * time.Millisecond},
			Seed:                   Duration{500 * time.Millisecond},
			Secondary:              Duration{200 * time.Millisecond},
			Candidate:              Duration{800 * time.Millisecond},
			CandidateAuthenticated: Duration{300 * time.Millisecond},
		},
		Cache: Cache{
			Backend:     CacheFile,
			TTL:         Duration{24 * time.Hour},
			RedisPrefix: "stackscout:",
		},
		Export: Export{
			Dir:      ".",
			Basename: "npm_packages",
			Formats:  []string{"csv", "json", "xlsx"},
		},
		Mongo: Mongo{
			Database:   "stackscout",
			Collection: "packages",
		},
	}
}

// CandidateDelay returns the pause between candidates, which is shorter
// when a GitHub token is configured.
func (c *Config) CandidateDelay() time.Duration {
	if c.GitHub.Token != "" {
		return c.Pacing.CandidateAuthenticated.Duration
	}
	return c.Pacing.Candidate.Duration
}

// ExportFormats parses the configured formats.
func (c *Config) ExportFormats() ([]io.Format, error) {
	formats := make([]io.Format, 0, len(c.Export.Formats))
	seen := map[io.Format]bool{}
	for _, s := range c.Export.Formats {
		f, err := io.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	col := c.Collect
	if col.Target <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "collect.target must be positive, got %d", col.Target)
	}
	if col.Overshoot < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "collect.overshoot must be at least 1, got %g", col.Overshoot)
	}
	if col.SearchLimit <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "collect.search_limit must be positive, got %d", col.SearchLimit)
	}
	if col.Workers <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "collect.workers must be positive, got %d", col.Workers)
	}
	for _, s := range col.Seeds {
		if err := errs.ValidateKeyword(s); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "collect.seeds")
		}
	}

	p := c.Pacing
	for name, d := range map[string]Duration{
		"page": p.Page, "seed": p.Seed, "secondary": p.Secondary,
		"candidate": p.Candidate, "candidate_authenticated": p.CandidateAuthenticated,
	} {
		if d.Duration < 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "pacing.%s cannot be negative", name)
		}
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}

	if err := errs.ValidateBasename(c.Export.Basename); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "export.basename")
	}
	if len(c.Export.Formats) == 0 && c.Mongo.URI == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "no export formats and no mongo sink configured")
	}
	if _, err := c.ExportFormats(); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "export.formats")
	}

	if c.Mongo.URI != "" && (c.Mongo.Database == "" || c.Mongo.Collection == "") {
		return errs.New(errs.ErrCodeInvalidConfig, "mongo.database and mongo.collection are required with mongo.uri")
	}
	return nil
}
