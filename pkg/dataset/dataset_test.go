package dataset

import (
	"reflect"
	"strings"
	"testing"
	"time"

	errs "github.com/matzehuels/stackscout/pkg/errors"
)

func sample() []Record {
	return []Record{
		{Name: "express", License: "MIT", Categories: []string{"Web Framework", "API Framework"},
			DownloadsLastMonth: 1000, GitHubStars: 60000, GitHubForks: 10, ActivityScore: 80,
			DocumentationScore: 5, HasTests: true, HasCI: true, PackageSizeKB: 50, ReleasesPerYear: 4,
			ContributorsCount: 100, OpenPullRequests: 20, Dependencies: 30,
			LastCommitDate: "2024-05-20T00:00:00Z"},
		{Name: "koa", License: "MIT", Categories: []string{"Web Framework"},
			DownloadsLastMonth: 500, GitHubStars: 30000, ActivityScore: 65,
			DocumentationScore: 4, HasTests: true, HasCI: true, PackageSizeKB: 20,
			ContributorsCount: 50, Dependencies: 10, LastCommitDate: "2023-01-01T00:00:00Z"},
		{Name: "leftpad", Categories: []string{"Utility"},
			DownloadsLastMonth: 2000, ActivityScore: 10, DocumentationScore: 1},
		{Name: "jest", License: "MIT", Categories: []string{"Testing"},
			DownloadsLastMonth: 1500, GitHubStars: 40000, ActivityScore: 80,
			DocumentationScore: 3.5, HasTests: true, ReleasesPerYear: 12},
	}
}

func names(rs []Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestColumnsMatchTags(t *testing.T) {
	typ := reflect.TypeOf(Record{})
	cols := Columns()
	if typ.NumField() != len(cols) {
		t.Fatalf("Record has %d fields, Columns() has %d", typ.NumField(), len(cols))
	}
	for i, col := range cols {
		tag := typ.Field(i).Tag.Get("json")
		if tag != col {
			t.Errorf("column %d = %q, json tag %q", i, col, tag)
		}
	}
	if got := len(Record{}.Row()); got != len(cols) {
		t.Errorf("Row() has %d cells, want %d", got, len(cols))
	}
}

func TestValues(t *testing.T) {
	r := Record{
		Name:            "express",
		Keywords:        []string{"web", "http"},
		PackageSizeKB:   12.5,
		HasTests:        true,
		ReleasesPerYear: 0,
	}
	v := r.Values()
	idx := func(col string) int {
		for i, c := range Columns() {
			if c == col {
				return i
			}
		}
		t.Fatalf("no column %q", col)
		return -1
	}

	tests := []struct {
		col, want string
	}{
		{"name", "express"},
		{"keywords", "web, http"},
		{"package_size_kb", "12.5"},
		{"has_tests", "True"},
		{"has_ci", "False"},
		{"releases_per_year", "0"},
		{"github_stars", "0"},
	}
	for _, tt := range tests {
		if got := v[idx(tt.col)]; got != tt.want {
			t.Errorf("%s = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestLastCommit(t *testing.T) {
	if !(Record{}).LastCommit().IsZero() {
		t.Error("empty date should be zero")
	}
	if !(Record{LastCommitDate: "yesterday"}).LastCommit().IsZero() {
		t.Error("bad date should be zero")
	}
	got := Record{LastCommitDate: "2024-05-20T10:00:00Z"}.LastCommit()
	if got.Year() != 2024 || got.Hour() != 10 {
		t.Errorf("LastCommit() = %v", got)
	}
}

func TestTopN(t *testing.T) {
	tests := []struct {
		field string
		n     int
		want  []string
	}{
		{"downloads_last_month", 2, []string{"leftpad", "jest"}},
		{"github_stars", 0, []string{"express", "jest", "koa", "leftpad"}},
		{"activity_score", 3, []string{"express", "jest", "koa"}}, // ties keep input order
		{"documentation_score", 10, []string{"express", "koa", "jest", "leftpad"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := TopN(sample(), tt.field, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Errorf("TopN() = %v, want %v", names(got), tt.want)
			}
		})
	}
}

func TestTopNUnknownField(t *testing.T) {
	_, err := TopN(sample(), "name", 5)
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("TopN(name) error = %v, want INVALID_INPUT", err)
	}
}

func TestTopByDoesNotMutate(t *testing.T) {
	in := sample()
	_ = TopBy(in, ByDownloads, 0)
	if in[0].Name != "express" {
		t.Error("TopBy reordered its input")
	}
}

func TestProductionReady(t *testing.T) {
	tests := []struct {
		doc      float64
		activity int
		want     []string
	}{
		{3, 50, []string{"express", "koa"}},
		{4, 70, []string{"express"}},
		{5.5, 0, nil},
	}
	for _, tt := range tests {
		got := names(ProductionReady(sample(), tt.doc, tt.activity))
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ProductionReady(%v, %d) = %v, want %v", tt.doc, tt.activity, got, tt.want)
		}
	}
}

func TestCategoryCounts(t *testing.T) {
	got := CategoryCounts(sample())
	want := []Count{
		{"Web Framework", 2, 50},
		{"API Framework", 1, 25},
		{"Utility", 1, 25},
		{"Testing", 1, 25},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CategoryCounts() = %+v, want %+v", got, want)
	}
}

func TestLicenseCounts(t *testing.T) {
	got := LicenseCounts(sample(), 0)
	if len(got) != 2 || got[0].Label != "MIT" || got[0].Count != 3 {
		t.Fatalf("LicenseCounts() = %+v", got)
	}
	if got[1].Label != "Unknown" || got[1].Count != 1 {
		t.Errorf("empty license should count as Unknown, got %+v", got[1])
	}
	if got := LicenseCounts(sample(), 1); len(got) != 1 {
		t.Errorf("limit 1 returned %d entries", len(got))
	}
}

func TestCategoryMatrix(t *testing.T) {
	rows := CategoryMatrix(sample())
	if len(rows) != 4 {
		t.Fatalf("got %d rows", len(rows))
	}
	web := rows[0]
	want := CategoryRow{
		Category:         "Web Framework",
		Packages:         2,
		AvgActivity:      72.5,
		AvgDocumentation: 4.5,
		TotalDownloads:   1500,
		AvgStars:         45000,
		WithTests:        2,
		WithCI:           2,
	}
	if web != want {
		t.Errorf("Web Framework row = %+v, want %+v", web, want)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := Summarize(sample(), now)

	checks := []struct {
		name      string
		got, want any
	}{
		{"total", s.Total, 4},
		{"with tests", s.WithTests, 3},
		{"with ci", s.WithCI, 2},
		{"with both", s.WithBoth, 2},
		{"perfect docs", s.PerfectDocs, 1},
		{"good docs", s.GoodDocs, 2},
		{"poor docs", s.PoorDocs, 1},
		{"recently active", s.RecentlyActive, 1},
		{"highly active", s.HighlyActive, 2},
		{"total downloads", s.TotalDownloads, 5000},
		{"total stars", s.TotalStars, 130000},
		{"with repository", s.WithRepository, 3},
		{"total contributors", s.TotalContributors, 150},
		{"avg dependencies", s.AvgDependencies, 10.0},
		{"size count", s.Size.Count, 2},
		{"size median", s.Size.Median, 35.0},
		{"size min", s.Size.Min, 20.0},
		{"cadence max", s.Cadence.Max, 12.0},
		{"top activity", names(s.TopActivity)[0], "express"},
		{"top downloads", names(s.TopDownloads)[0], "leftpad"},
		{"ready", names(s.ProductionReady), []string{"express", "koa"}},
		{"licenses", s.Licenses[0].Label, "MIT"},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if p := s.Percent(s.WithTests); p != 75 {
		t.Errorf("Percent(WithTests) = %v, want 75", p)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())
	if s.Total != 0 || s.TopActivity != nil || s.Percent(3) != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestMetricNames(t *testing.T) {
	ns := MetricNames()
	if !strings.Contains(strings.Join(ns, ","), "activity_score") {
		t.Errorf("MetricNames() = %v", ns)
	}
	for _, n := range ns {
		if _, ok := MetricByName(n); !ok {
			t.Errorf("MetricByName(%q) not found", n)
		}
	}
}
