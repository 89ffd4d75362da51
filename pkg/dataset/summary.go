package dataset

import (
	"math"
	"slices"
	"time"
)

// Summary thresholds.
const (
	SummaryTopN          = 10
	RecentCommitWindow   = 90 * 24 * time.Hour
	HighActivity         = 70
	SummaryReadyDoc      = 4.0
	SummaryReadyActivity = 60
	SummaryReadyLimit    = 15
	SummaryLicenseLimit  = 10
)

// Stats describes the distribution of one numeric column.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary is the end-of-run report over a set of records.
type Summary struct {
	Total int `json:"total"`

	TopActivity  []Record `json:"top_activity"`
	TopDownloads []Record `json:"top_downloads"`
	TopStars     []Record `json:"top_stars"`

	WithVulnerabilities int `json:"with_vulnerabilities"`

	// Size covers packages with a known size only.
	Size Stats `json:"size_kb"`
	// Cadence covers packages with releases_per_year > 0.
	Cadence Stats `json:"releases_per_year"`

	WithTests int `json:"with_tests"`
	WithCI    int `json:"with_ci"`
	WithBoth  int `json:"with_tests_and_ci"`

	AvgDocumentation float64 `json:"avg_documentation"`
	PerfectDocs      int     `json:"perfect_docs"`
	GoodDocs         int     `json:"good_docs"`
	PoorDocs         int     `json:"poor_docs"`

	RecentlyActive int     `json:"recently_active"`
	AvgActivity    float64 `json:"avg_activity"`
	HighlyActive   int     `json:"highly_active"`

	AvgContributors   float64 `json:"avg_contributors"`
	TotalContributors int     `json:"total_contributors"`
	AvgOpenPRs        float64 `json:"avg_open_prs"`
	TotalOpenPRs      int     `json:"total_open_prs"`

	Categories      []Count  `json:"categories"`
	ProductionReady []Record `json:"production_ready"`
	Licenses        []Count  `json:"licenses"`

	TotalDownloads  int     `json:"total_downloads"`
	TotalStars      int     `json:"total_stars"`
	TotalForks      int     `json:"total_forks"`
	WithRepository  int     `json:"with_repository"`
	AvgDependencies float64 `json:"avg_dependencies"`
}

// Percent returns n as a percentage of the summary total.
func (s *Summary) Percent(n int) float64 {
	return percent(n, s.Total)
}

// Summarize computes the run report. now anchors the recent-commit window.
// An empty input gives a zero Summary.
func Summarize(records []Record, now time.Time) *Summary {
	s := &Summary{Total: len(records)}
	if len(records) == 0 {
		return s
	}

	s.TopActivity = TopBy(records, ByActivity, SummaryTopN)
	s.TopDownloads = TopBy(records, ByDownloads, SummaryTopN)
	s.TopStars = TopBy(records, ByStars, SummaryTopN)

	var sizes, cadences []float64
	var docSum, activitySum, depSum float64
	for _, r := range records {
		if r.Vulnerabilities > 0 {
			s.WithVulnerabilities++
		}
		if r.PackageSizeKB > 0 {
			sizes = append(sizes, r.PackageSizeKB)
		}
		if r.ReleasesPerYear > 0 {
			cadences = append(cadences, r.ReleasesPerYear)
		}
		if r.HasTests {
			s.WithTests++
		}
		if r.HasCI {
			s.WithCI++
		}
		if r.HasTests && r.HasCI {
			s.WithBoth++
		}

		docSum += r.DocumentationScore
		switch d := r.DocumentationScore; {
		case d == 5:
			s.PerfectDocs++
			s.GoodDocs++
		case d >= 4:
			s.GoodDocs++
		case d < 2:
			s.PoorDocs++
		}

		if c := r.LastCommit(); !c.IsZero() && now.Sub(c) < RecentCommitWindow {
			s.RecentlyActive++
		}
		activitySum += float64(r.ActivityScore)
		if r.ActivityScore >= HighActivity {
			s.HighlyActive++
		}

		s.TotalContributors += r.ContributorsCount
		s.TotalOpenPRs += r.OpenPullRequests
		s.TotalDownloads += r.DownloadsLastMonth
		s.TotalStars += r.GitHubStars
		s.TotalForks += r.GitHubForks
		if r.HasRepository() {
			s.WithRepository++
		}
		depSum += float64(r.Dependencies)
	}

	n := float64(len(records))
	s.Size = describe(sizes)
	s.Cadence = describe(cadences)
	s.AvgDocumentation = docSum / n
	s.AvgActivity = activitySum / n
	s.AvgContributors = float64(s.TotalContributors) / n
	s.AvgOpenPRs = float64(s.TotalOpenPRs) / n
	s.AvgDependencies = depSum / n

	s.Categories = CategoryCounts(records)
	s.ProductionReady = limit(ProductionReady(records, SummaryReadyDoc, SummaryReadyActivity), SummaryReadyLimit)
	s.Licenses = LicenseCounts(records, SummaryLicenseLimit)
	return s
}

func describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return Stats{
		Count:  n,
		Mean:   sum / float64(n),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
