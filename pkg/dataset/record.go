package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Record is one collected package. Field order is the export column order.
type Record struct {
	Name                 string   `json:"name" yaml:"name" bson:"name"`
	Version              string   `json:"version" yaml:"version" bson:"version"`
	Description          string   `json:"description" yaml:"description" bson:"description"`
	Author               string   `json:"author" yaml:"author" bson:"author"`
	License              string   `json:"license" yaml:"license" bson:"license"`
	Keywords             []string `json:"keywords" yaml:"keywords" bson:"keywords"`
	Categories           []string `json:"categories" yaml:"categories" bson:"categories"`
	DownloadsLastMonth   int      `json:"downloads_last_month" yaml:"downloads_last_month" bson:"downloads_last_month"`
	GitHubStars          int      `json:"github_stars" yaml:"github_stars" bson:"github_stars"`
	GitHubForks          int      `json:"github_forks" yaml:"github_forks" bson:"github_forks"`
	GitHubWatchers       int      `json:"github_watchers" yaml:"github_watchers" bson:"github_watchers"`
	Vulnerabilities      int      `json:"vulnerabilities" yaml:"vulnerabilities" bson:"vulnerabilities"`
	HasVulnerabilities   bool     `json:"has_vulnerabilities" yaml:"has_vulnerabilities" bson:"has_vulnerabilities"`
	PackageSizeKB        float64  `json:"package_size_kb" yaml:"package_size_kb" bson:"package_size_kb"`
	GzipSizeKB           float64  `json:"gzip_size_kb" yaml:"gzip_size_kb" bson:"gzip_size_kb"`
	ReleaseFrequencyDays float64  `json:"release_frequency_days" yaml:"release_frequency_days" bson:"release_frequency_days"`
	ReleasesPerYear      float64  `json:"releases_per_year" yaml:"releases_per_year" bson:"releases_per_year"`
	TotalReleases        int      `json:"total_releases" yaml:"total_releases" bson:"total_releases"`
	HasTests             bool     `json:"has_tests" yaml:"has_tests" bson:"has_tests"`
	HasCI                bool     `json:"has_ci" yaml:"has_ci" bson:"has_ci"`
	CIWorkflowsCount     int      `json:"ci_workflows_count" yaml:"ci_workflows_count" bson:"ci_workflows_count"`
	DocumentationScore   float64  `json:"documentation_score" yaml:"documentation_score" bson:"documentation_score"`
	HasWiki              bool     `json:"has_wiki" yaml:"has_wiki" bson:"has_wiki"`
	HasPages             bool     `json:"has_pages" yaml:"has_pages" bson:"has_pages"`
	LastCommitDate       string   `json:"last_commit_date" yaml:"last_commit_date" bson:"last_commit_date"`
	LastUpdated          string   `json:"last_updated" yaml:"last_updated" bson:"last_updated"`
	GitHubOpenIssues     int      `json:"github_open_issues" yaml:"github_open_issues" bson:"github_open_issues"`
	OpenPullRequests     int      `json:"open_pull_requests" yaml:"open_pull_requests" bson:"open_pull_requests"`
	ContributorsCount    int      `json:"contributors_count" yaml:"contributors_count" bson:"contributors_count"`
	ActivityScore        int      `json:"activity_score" yaml:"activity_score" bson:"activity_score"`
	Repository           string   `json:"repository" yaml:"repository" bson:"repository"`
	Homepage             string   `json:"homepage" yaml:"homepage" bson:"homepage"`
	NPMURL               string   `json:"npm_url" yaml:"npm_url" bson:"npm_url"`
	CreatedDate          string   `json:"created_date" yaml:"created_date" bson:"created_date"`
	ModifiedDate         string   `json:"modified_date" yaml:"modified_date" bson:"modified_date"`
	GitHubLanguage       string   `json:"github_language" yaml:"github_language" bson:"github_language"`
	Maintainers          int      `json:"maintainers" yaml:"maintainers" bson:"maintainers"`
	Dependencies         int      `json:"dependencies" yaml:"dependencies" bson:"dependencies"`
	DevDependencies      int      `json:"dev_dependencies" yaml:"dev_dependencies" bson:"dev_dependencies"`
	PURL                 string   `json:"purl" yaml:"purl" bson:"purl"`
	LicenseSPDX          bool     `json:"license_spdx" yaml:"license_spdx" bson:"license_spdx"`
}

// ListSeparator joins keywords and categories in flat exports.
const ListSeparator = ", "

var columns = []string{
	"name", "version", "description", "author", "license", "keywords", "categories",
	"downloads_last_month", "github_stars", "github_forks", "github_watchers",
	"vulnerabilities", "has_vulnerabilities", "package_size_kb", "gzip_size_kb",
	"release_frequency_days", "releases_per_year", "total_releases", "has_tests", "has_ci",
	"ci_workflows_count", "documentation_score", "has_wiki", "has_pages",
	"last_commit_date", "last_updated", "github_open_issues", "open_pull_requests",
	"contributors_count", "activity_score", "repository", "homepage", "npm_url",
	"created_date", "modified_date", "github_language", "maintainers", "dependencies",
	"dev_dependencies", "purl", "license_spdx",
}

// Columns returns the export column names in order.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Row returns the record's cells in column order. Lists are joined with
// [ListSeparator]; everything else keeps its native type.
func (r Record) Row() []any {
	return []any{
		r.Name, r.Version, r.Description, r.Author, r.License,
		strings.Join(r.Keywords, ListSeparator), strings.Join(r.Categories, ListSeparator),
		r.DownloadsLastMonth, r.GitHubStars, r.GitHubForks, r.GitHubWatchers,
		r.Vulnerabilities, r.HasVulnerabilities, r.PackageSizeKB, r.GzipSizeKB,
		r.ReleaseFrequencyDays, r.ReleasesPerYear, r.TotalReleases, r.HasTests, r.HasCI,
		r.CIWorkflowsCount, r.DocumentationScore, r.HasWiki, r.HasPages,
		r.LastCommitDate, r.LastUpdated, r.GitHubOpenIssues, r.OpenPullRequests,
		r.ContributorsCount, r.ActivityScore, r.Repository, r.Homepage, r.NPMURL,
		r.CreatedDate, r.ModifiedDate, r.GitHubLanguage, r.Maintainers, r.Dependencies,
		r.DevDependencies, r.PURL, r.LicenseSPDX,
	}
}

// Values returns the record's cells formatted as strings.
func (r Record) Values() []string {
	row := r.Row()
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = FormatCell(v)
	}
	return out
}

// FormatCell renders one cell the way flat exports write it.
func FormatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// LastCommit parses LastCommitDate. The zero time means unknown.
func (r Record) LastCommit() time.Time {
	if r.LastCommitDate == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, r.LastCommitDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HasRepository reports whether GitHub statistics were found.
func (r Record) HasRepository() bool {
	return r.GitHubStars > 0
}
