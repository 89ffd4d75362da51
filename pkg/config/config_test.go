package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"

	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/io"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[collect]
target = 50
seeds = ["express", "koa"]
workers = 4

[pacing]
candidate = "1s"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "2h"

[export]
formats = ["json", "yml"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Collect.Target != 50 || cfg.Collect.Workers != 4 {
		t.Errorf("collect = %+v", cfg.Collect)
	}
	if !reflect.DeepEqual(cfg.Collect.Seeds, []string{"express", "koa"}) {
		t.Errorf("seeds = %v", cfg.Collect.Seeds)
	}
	if cfg.Pacing.Candidate.Duration != time.Second {
		t.Errorf("pacing.candidate = %v", cfg.Pacing.Candidate)
	}
	if cfg.Pacing.Seed.Duration != 500*time.Millisecond {
		t.Errorf("unset pacing.seed lost its default: %v", cfg.Pacing.Seed)
	}
	if cfg.Cache.TTL.Duration != 2*time.Hour {
		t.Errorf("cache.ttl = %v", cfg.Cache.TTL)
	}
	formats, err := cfg.ExportFormats()
	if err != nil || !reflect.DeepEqual(formats, []io.Format{io.FormatJSON, io.FormatYAML}) {
		t.Errorf("ExportFormats() = %v, %v", formats, err)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errs.Code
	}{
		{"unknown key", "[collect]\ntargett = 5\n", errs.ErrCodeInvalidConfig},
		{"unknown section", "[server]\nport = 1\n", errs.ErrCodeInvalidConfig},
		{"bad toml", "[collect\n", errs.ErrCodeInvalidConfig},
		{"bad duration", "[pacing]\nseed = \"soon\"\n", errs.ErrCodeInvalidConfig},
		{"zero target", "[collect]\ntarget = 0\n", errs.ErrCodeInvalidConfig},
		{"small overshoot", "[collect]\novershoot = 0.5\n", errs.ErrCodeInvalidConfig},
		{"empty seed", "[collect]\nseeds = [\" \"]\n", errs.ErrCodeInvalidConfig},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", errs.ErrCodeInvalidConfig},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n", errs.ErrCodeInvalidConfig},
		{"bad format", "[export]\nformats = [\"pdf\"]\n", errs.ErrCodeInvalidConfig},
		{"basename with path", "[export]\nbasename = \"../out\"\n", errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errs.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STACKSCOUT_COLLECT_TARGET", "25")
	t.Setenv("STACKSCOUT_PACING_SEED", "2s")
	t.Setenv("STACKSCOUT_EXPORT_FORMATS", "csv, xlsx")
	t.Setenv("GITHUB_TOKEN", "ghp_test")

	path := writeConfig(t, "[collect]\ntarget = 50\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Collect.Target != 25 {
		t.Errorf("env should beat file: target = %d", cfg.Collect.Target)
	}
	if cfg.Pacing.Seed.Duration != 2*time.Second {
		t.Errorf("pacing.seed = %v", cfg.Pacing.Seed)
	}
	if !reflect.DeepEqual(cfg.Export.Formats, []string{"csv", "xlsx"}) {
		t.Errorf("export.formats = %v", cfg.Export.Formats)
	}
	if cfg.GitHub.Token != "ghp_test" {
		t.Errorf("github.token = %q", cfg.GitHub.Token)
	}
	if cfg.CandidateDelay() != 300*time.Millisecond {
		t.Errorf("CandidateDelay() with token = %v", cfg.CandidateDelay())
	}
}

func TestEnvInvalidNumber(t *testing.T) {
	t.Setenv("STACKSCOUT_COLLECT_WORKERS", "many")
	if _, err := Load(""); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
	}
}

func TestFlagOverrides(t *testing.T) {
	t.Setenv("STACKSCOUT_COLLECT_TARGET", "25")

	flags := pflag.NewFlagSet("collect", pflag.ContinueOnError)
	flags.Int("target", 500, "")
	flags.Int("workers", 1, "")
	flags.Bool("refresh", false, "")

	l := NewLoader()
	for key, name := range map[string]string{
		"collect.target":  "target",
		"collect.workers": "workers",
		"collect.refresh": "refresh",
	} {
		if err := l.BindFlag(key, flags.Lookup(name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := flags.Parse([]string{"--target", "10", "--refresh"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := l.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Collect.Target != 10 {
		t.Errorf("flag should beat env: target = %d", cfg.Collect.Target)
	}
	if !cfg.Collect.Refresh {
		t.Error("refresh flag not applied")
	}
	if cfg.Collect.Workers != 1 {
		t.Errorf("unset flag overrode default: workers = %d", cfg.Collect.Workers)
	}
}

func TestBindFlagUnknownKey(t *testing.T) {
	flags := pflag.NewFlagSet("x", pflag.ContinueOnError)
	flags.Int("n", 0, "")
	if err := NewLoader().BindFlag("collect.nope", flags.Lookup("n")); err == nil {
		t.Error("BindFlag() should reject unknown keys")
	}
	if err := NewLoader().BindFlag("collect.target", nil); err == nil {
		t.Error("BindFlag() should reject a nil flag")
	}
}

func TestCandidateDelayWithoutToken(t *testing.T) {
	cfg := Default()
	if cfg.CandidateDelay() != 800*time.Millisecond {
		t.Errorf("CandidateDelay() = %v", cfg.CandidateDelay())
	}
}

func TestKeysCoverFields(t *testing.T) {
	keys := Keys()
	if len(keys) != len((&Config{}).fields()) || keys[0] != "cache.backend" {
		t.Errorf("Keys() = %v", keys)
	}
}
