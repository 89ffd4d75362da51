package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errs "github.com/matzehuels/stackscout/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. STACKSCOUT_COLLECT_TARGET.
const EnvPrefix = "STACKSCOUT"

// Loader merges the configuration layers.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader reading STACKSCOUT_* variables. GITHUB_TOKEN
// is accepted as a fallback for the token.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	return &Loader{v: v}
}

// BindFlag makes a command-line flag override the setting at key. Only
// flags the user actually set take effect.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return errs.New(errs.ErrCodeInternal, "no flag for %s", key)
	}
	if _, ok := (&Config{}).fields()[key]; !ok {
		return errs.New(errs.ErrCodeInternal, "unknown config key %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load builds the configuration from the defaults, the TOML file at path
// (skipped when path is empty), the environment and bound flags, then
// validates it.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := l.apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is shorthand for NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(errs.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// fields maps every dotted key to the setting it controls.
func (c *Config) fields() map[string]any {
	return map[string]any{
		"collect.target":                 &c.Collect.Target,
		"collect.overshoot":              &c.Collect.Overshoot,
		"collect.seeds":                  &c.Collect.Seeds,
		"collect.search_limit":           &c.Collect.SearchLimit,
		"collect.workers":                &c.Collect.Workers,
		"collect.refresh":                &c.Collect.Refresh,
		"pacing.page":                    &c.Pacing.Page,
		"pacing.seed":                    &c.Pacing.Seed,
		"pacing.secondary":               &c.Pacing.Secondary,
		"pacing.candidate":               &c.Pacing.Candidate,
		"pacing.candidate_authenticated": &c.Pacing.CandidateAuthenticated,
		"github.token":                   &c.GitHub.Token,
		"cache.backend":                  &c.Cache.Backend,
		"cache.dir":                      &c.Cache.Dir,
		"cache.ttl":                      &c.Cache.TTL,
		"cache.redis_addr":               &c.Cache.RedisAddr,
		"cache.redis_db":                 &c.Cache.RedisDB,
		"cache.redis_prefix":             &c.Cache.RedisPrefix,
		"export.dir":                     &c.Export.Dir,
		"export.basename":                &c.Export.Basename,
		"export.formats":                 &c.Export.Formats,
		"mongo.uri":                      &c.Mongo.URI,
		"mongo.database":                 &c.Mongo.Database,
		"mongo.collection":               &c.Mongo.Collection,
		"metrics.file":                   &c.Metrics.File,
	}
}

// Keys lists every configuration key, sorted.
func Keys() []string {
	fields := (&Config{}).fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Loader) apply(cfg *Config) error {
	for key, ptr := range cfg.fields() {
		if !l.v.IsSet(key) {
			continue
		}
		raw := l.v.GetString(key)
		var err error
		switch p := ptr.(type) {
		case *string:
			*p = raw
		case *int:
			*p, err = strconv.Atoi(strings.TrimSpace(raw))
		case *float64:
			*p, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		case *bool:
			*p, err = strconv.ParseBool(strings.TrimSpace(raw))
		case *Duration:
			p.Duration, err = time.ParseDuration(strings.TrimSpace(raw))
		case *[]string:
			if list, ok := l.v.Get(key).([]string); ok {
				*p = list
			} else {
				*p = splitList(raw)
			}
		}
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s", key)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Path returns the default config file location, or "" when there is none.
func Path() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "stackscout", "config.toml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
