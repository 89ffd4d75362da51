package dataset

import (
	"cmp"
	"slices"
	"sort"

	errs "github.com/matzehuels/stackscout/pkg/errors"
)

// Metric extracts a sortable number from a record.
type Metric func(Record) float64

// Common metrics.
var (
	ByDownloads     Metric = func(r Record) float64 { return float64(r.DownloadsLastMonth) }
	ByStars         Metric = func(r Record) float64 { return float64(r.GitHubStars) }
	ByActivity      Metric = func(r Record) float64 { return float64(r.ActivityScore) }
	ByDocumentation Metric = func(r Record) float64 { return r.DocumentationScore }
)

var metrics = map[string]Metric{
	"downloads_last_month":   ByDownloads,
	"github_stars":           ByStars,
	"github_forks":           func(r Record) float64 { return float64(r.GitHubForks) },
	"github_watchers":        func(r Record) float64 { return float64(r.GitHubWatchers) },
	"activity_score":         ByActivity,
	"documentation_score":    ByDocumentation,
	"package_size_kb":        func(r Record) float64 { return r.PackageSizeKB },
	"gzip_size_kb":           func(r Record) float64 { return r.GzipSizeKB },
	"release_frequency_days": func(r Record) float64 { return r.ReleaseFrequencyDays },
	"releases_per_year":      func(r Record) float64 { return r.ReleasesPerYear },
	"total_releases":         func(r Record) float64 { return float64(r.TotalReleases) },
	"contributors_count":     func(r Record) float64 { return float64(r.ContributorsCount) },
	"open_pull_requests":     func(r Record) float64 { return float64(r.OpenPullRequests) },
	"github_open_issues":     func(r Record) float64 { return float64(r.GitHubOpenIssues) },
	"dependencies":           func(r Record) float64 { return float64(r.Dependencies) },
	"dev_dependencies":       func(r Record) float64 { return float64(r.DevDependencies) },
	"maintainers":            func(r Record) float64 { return float64(r.Maintainers) },
}

// MetricByName looks up a numeric column by its export name.
func MetricByName(name string) (Metric, bool) {
	m, ok := metrics[name]
	return m, ok
}

// MetricNames lists the columns accepted by [TopN], sorted.
func MetricNames() []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TopN returns the n records with the highest value in the named column.
func TopN(records []Record, field string, n int) ([]Record, error) {
	m, ok := MetricByName(field)
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown numeric column %q", field)
	}
	return TopBy(records, m, n), nil
}

// TopBy sorts a copy of records by m descending, ties keeping input order,
// and returns at most n of them. n <= 0 means no limit.
func TopBy(records []Record, m Metric, n int) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		return cmp.Compare(m(b), m(a))
	})
	return limit(out, n)
}

// Filter returns the records for which keep is true, in input order.
func Filter(records []Record, keep func(Record) bool) []Record {
	var out []Record
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ProductionReady returns records with tests, CI, a documentation score of
// at least docMin and an activity score of at least activityMin, most active
// first.
func ProductionReady(records []Record, docMin float64, activityMin int) []Record {
	ready := Filter(records, func(r Record) bool {
		return r.HasTests && r.HasCI && r.DocumentationScore >= docMin && r.ActivityScore >= activityMin
	})
	return TopBy(ready, ByActivity, 0)
}

// Count is a label with its frequency.
type Count struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// CategoryCounts counts how many records carry each category, most common
// first. Ties keep first-seen order. Percent is relative to len(records).
func CategoryCounts(records []Record) []Count {
	return countLabels(records, func(r Record) []string { return r.Categories })
}

// LicenseCounts counts license strings, most common first, at most n
// entries (n <= 0 means all). An empty license counts as "Unknown".
func LicenseCounts(records []Record, n int) []Count {
	return limit(countLabels(records, func(r Record) []string {
		if r.License == "" {
			return []string{"Unknown"}
		}
		return []string{r.License}
	}), n)
}

func countLabels(records []Record, labels func(Record) []string) []Count {
	index := map[string]int{}
	var out []Count
	for _, r := range records {
		for _, l := range labels(r) {
			i, ok := index[l]
			if !ok {
				i = len(out)
				index[l] = i
				out = append(out, Count{Label: l})
			}
			out[i].Count++
		}
	}
	for i := range out {
		out[i].Percent = percent(out[i].Count, len(records))
	}
	slices.SortStableFunc(out, func(a, b Count) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

// CategoryRow aggregates the records of one category.
type CategoryRow struct {
	Category         string  `json:"category"`
	Packages         int     `json:"packages"`
	AvgActivity      float64 `json:"avg_activity"`
	AvgDocumentation float64 `json:"avg_documentation"`
	TotalDownloads   int     `json:"total_downloads"`
	AvgStars         float64 `json:"avg_stars"`
	WithTests        int     `json:"with_tests"`
	WithCI           int     `json:"with_ci"`
}

// CategoryMatrix cross-tabulates records by category in [CategoryCounts]
// order. A record with several categories contributes to each of them.
func CategoryMatrix(records []Record) []CategoryRow {
	counts := CategoryCounts(records)
	rows := make([]CategoryRow, len(counts))
	index := make(map[string]int, len(counts))
	for i, c := range counts {
		rows[i].Category = c.Label
		index[c.Label] = i
	}

	type sums struct{ activity, doc, stars float64 }
	acc := make([]sums, len(rows))
	for _, r := range records {
		for _, cat := range r.Categories {
			i := index[cat]
			row := &rows[i]
			row.Packages++
			row.TotalDownloads += r.DownloadsLastMonth
			if r.HasTests {
				row.WithTests++
			}
			if r.HasCI {
				row.WithCI++
			}
			acc[i].activity += float64(r.ActivityScore)
			acc[i].doc += r.DocumentationScore
			acc[i].stars += float64(r.GitHubStars)
		}
	}
	for i := range rows {
		n := float64(rows[i].Packages)
		rows[i].AvgActivity = round1(acc[i].activity / n)
		rows[i].AvgDocumentation = round1(acc[i].doc / n)
		rows[i].AvgStars = round1(acc[i].stars / n)
	}
	return rows
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
