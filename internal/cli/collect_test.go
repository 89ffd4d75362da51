package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackscout/pkg/cache"
	"github.com/matzehuels/stackscout/pkg/config"
	"github.com/matzehuels/stackscout/pkg/dataset"
	pkgio "github.com/matzehuels/stackscout/pkg/io"
)

func testRecords() []dataset.Record {
	return []dataset.Record{
		{
			Name: "express", Version: "4.21.2", License: "MIT",
			Categories:         []string{"Web Framework"},
			DownloadsLastMonth: 150_000_000, GitHubStars: 65_000, ContributorsCount: 300,
			HasTests: true, HasCI: true, DocumentationScore: 5, ActivityScore: 80,
		},
		{
			Name: "fastify", Version: "5.2.0", License: "MIT",
			Categories:         []string{"Web Framework", "API"},
			DownloadsLastMonth: 9_000_000, GitHubStars: 32_000, ContributorsCount: 700,
			HasTests: true, HasCI: true, DocumentationScore: 4.5, ActivityScore: 90,
		},
		{
			Name: "left-pad", Version: "1.3.0", License: "WTFPL",
			Categories:         []string{"Utility"},
			DownloadsLastMonth: 2_000_000, DocumentationScore: 1.5, ActivityScore: 10,
		},
	}
}

func TestCollectOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Collect.Target = 40
	cfg.Collect.Workers = 3
	cfg.Collect.Seeds = []string{"express"}

	opts := collectOptions(cfg, log.New(&bytes.Buffer{}))
	if opts.Target != 40 || opts.Workers != 3 || len(opts.Seeds) != 1 {
		t.Errorf("options = %+v", opts)
	}
	if opts.Overshoot != 1.5 || opts.SearchLimit != 100 {
		t.Errorf("overshoot/search limit = %v/%d", opts.Overshoot, opts.SearchLimit)
	}
	if opts.SeedDelay != 500*time.Millisecond {
		t.Errorf("SeedDelay = %v", opts.SeedDelay)
	}
	if opts.CandidateDelay != 800*time.Millisecond {
		t.Errorf("CandidateDelay = %v, want unauthenticated pause", opts.CandidateDelay)
	}

	cfg.GitHub.Token = "ghp_test"
	if got := collectOptions(cfg, nil).CandidateDelay; got != 300*time.Millisecond {
		t.Errorf("CandidateDelay with token = %v", got)
	}
}

func TestNewClients(t *testing.T) {
	cfg := config.Default()
	cfg.Collect.Refresh = true
	cfg.Pacing.Page = config.Duration{Duration: 10 * time.Millisecond}
	cfg.Pacing.Secondary = config.Duration{Duration: 20 * time.Millisecond}

	c := newClients(cfg, cache.NewNullCache())
	if c.npm.PageDelay != 10*time.Millisecond || !c.npm.Refresh {
		t.Errorf("npm client: delay %v refresh %v", c.npm.PageDelay, c.npm.Refresh)
	}
	if c.github.SecondaryDelay != 20*time.Millisecond || !c.github.Refresh {
		t.Errorf("github client: delay %v refresh %v", c.github.SecondaryDelay, c.github.Refresh)
	}
	if c.github.Authenticated() {
		t.Error("github client authenticated without token")
	}
	if !c.sizes.Refresh {
		t.Error("bundlephobia client ignores refresh")
	}
}

func TestWriteFiles(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()
	cfg.Export.Formats = []string{"csv", "json", "yml", "xlsx"}

	var announced []string
	paths, err := writeFiles(cfg, testRecords(), func(p string) { announced = append(announced, p) })
	if err != nil {
		t.Fatalf("writeFiles() error: %v", err)
	}
	if len(paths) != 4 || len(announced) != 4 {
		t.Fatalf("wrote %d files, announced %d, want 4", len(paths), len(announced))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing export %s", p)
		}
	}

	records, err := pkgio.ImportJSON(filepath.Join(cfg.Export.Dir, "npm_packages.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0].Name != "express" {
		t.Errorf("round trip = %d records", len(records))
	}
}

func TestWriteFilesContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Export.Dir = dir
	cfg.Export.Formats = []string{"csv", "json"}

	// A directory where the CSV file should go makes that export fail.
	if err := os.Mkdir(filepath.Join(dir, "npm_packages.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := writeFiles(cfg, testRecords(), nil)
	if err == nil {
		t.Fatal("writeFiles() should report the failed format")
	}
	if len(paths) != 1 || filepath.Ext(paths[0]) != ".json" {
		t.Errorf("paths = %v, want only the JSON export", paths)
	}
}

func TestExportWithoutMongo(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()
	cfg.Export.Formats = []string{"json"}

	var logs bytes.Buffer
	c := New(&logs, LogInfo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // exports still run after an interrupt

	if err := c.export(ctx, cfg, "run-1", testRecords()); err != nil {
		t.Fatalf("export() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.Dir, "npm_packages.json")); err != nil {
		t.Error("JSON export missing")
	}
	if !bytes.Contains(logs.Bytes(), []byte("export finished")) {
		t.Error("export progress not logged")
	}
}
