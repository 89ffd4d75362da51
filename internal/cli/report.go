package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/matzehuels/stackscout/pkg/dataset"
)

var numbers = message.NewPrinter(language.English)

// renderSummary writes the end-of-run report.
func renderSummary(w io.Writer, s *dataset.Summary) {
	section(w, "Summary")
	if s.Total == 0 {
		fmt.Fprintln(w, StyleDim.Render("  no packages"))
		return
	}
	fmt.Fprintf(w, "  %s packages collected\n", StyleNumber.Render(count(s.Total)))

	section(w, fmt.Sprintf("Top %d by activity", dataset.SummaryTopN))
	fmt.Fprintln(w, newTable(
		[]string{"Package", "Activity", "Stars", "Downloads"},
		recordRows(s.TopActivity, func(r dataset.Record) []string {
			return []string{r.Name, score100(r.ActivityScore), count(r.GitHubStars), count(r.DownloadsLastMonth)}
		}), 1, 2, 3))

	section(w, fmt.Sprintf("Top %d by downloads", dataset.SummaryTopN))
	fmt.Fprintln(w, newTable(
		[]string{"Package", "Downloads", "Activity"},
		recordRows(s.TopDownloads, func(r dataset.Record) []string {
			return []string{r.Name, count(r.DownloadsLastMonth), score100(r.ActivityScore)}
		}), 1, 2))

	section(w, fmt.Sprintf("Top %d by stars", dataset.SummaryTopN))
	fmt.Fprintln(w, newTable(
		[]string{"Package", "Stars", "Contributors"},
		recordRows(s.TopStars, func(r dataset.Record) []string {
			return []string{r.Name, count(r.GitHubStars), count(r.ContributorsCount)}
		}), 1, 2))

	section(w, "Quality signals")
	fmt.Fprintln(w, newTable([]string{"Signal", "Value"}, qualityRows(s), 1))

	section(w, "Categories")
	rows := make([][]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		rows = append(rows, []string{c.Label, strconv.Itoa(c.Count), share(c.Percent), bar(c.Percent)})
	}
	fmt.Fprintln(w, newTable([]string{"Category", "Packages", "Share", ""}, rows, 1, 2))

	section(w, "Recommended for production")
	if len(s.ProductionReady) == 0 {
		fmt.Fprintln(w, StyleDim.Render("  none with tests, CI, good docs and recent activity"))
	} else {
		fmt.Fprintln(w, newTable(
			[]string{"Package", "Activity", "Docs", "Stars"},
			recordRows(s.ProductionReady, func(r dataset.Record) []string {
				return []string{r.Name, strconv.Itoa(r.ActivityScore), doc5(r.DocumentationScore), count(r.GitHubStars)}
			}), 1, 2, 3))
	}

	section(w, "Licenses")
	rows = rows[:0]
	for _, c := range s.Licenses {
		rows = append(rows, []string{c.Label, strconv.Itoa(c.Count), share(c.Percent)})
	}
	fmt.Fprintln(w, newTable([]string{"License", "Packages", "Share"}, rows, 1, 2))

	section(w, "Overall")
	fmt.Fprintln(w, newTable([]string{"Metric", "Value"}, [][]string{
		{"Downloads last month", count(s.TotalDownloads)},
		{"GitHub stars", count(s.TotalStars)},
		{"Forks", count(s.TotalForks)},
		{"With GitHub repository", withShare(s, s.WithRepository)},
		{"Average dependencies", fmt.Sprintf("%.1f", s.AvgDependencies)},
	}, 1))
}

func qualityRows(s *dataset.Summary) [][]string {
	return [][]string{
		{"With vulnerabilities", withShare(s, s.WithVulnerabilities)},
		{"Without vulnerabilities", withShare(s, s.Total-s.WithVulnerabilities)},
		{"Size avg / median", fmt.Sprintf("%.2f / %.2f KB", s.Size.Mean, s.Size.Median)},
		{"Size min / max", fmt.Sprintf("%.2f / %.2f KB", s.Size.Min, s.Size.Max)},
		{"Releases/year avg / median", fmt.Sprintf("%.2f / %.2f", s.Cadence.Mean, s.Cadence.Median)},
		{"Releases/year max", fmt.Sprintf("%.2f", s.Cadence.Max)},
		{"With tests", withShare(s, s.WithTests)},
		{"With CI", withShare(s, s.WithCI)},
		{"Tests and CI", count(s.WithBoth)},
		{"Average docs", fmt.Sprintf("%.2f/5", s.AvgDocumentation)},
		{"Docs 5/5", count(s.PerfectDocs)},
		{"Docs ≥ 4/5", count(s.GoodDocs)},
		{"Docs < 2/5", count(s.PoorDocs)},
		{"Commit in last 90 days", withShare(s, s.RecentlyActive)},
		{"Average activity", fmt.Sprintf("%.1f/100", s.AvgActivity)},
		{"Activity ≥ 70", count(s.HighlyActive)},
		{"Average contributors", fmt.Sprintf("%.1f", s.AvgContributors)},
		{"Total contributors", count(s.TotalContributors)},
		{"Average open PRs", fmt.Sprintf("%.1f", s.AvgOpenPRs)},
		{"Total open PRs", count(s.TotalOpenPRs)},
	}
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render(title))
}

func recordRows(records []dataset.Record, row func(dataset.Record) []string) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = row(r)
	}
	return rows
}

func count(n int) string { return numbers.Sprintf("%d", n) }

func score100(n int) string { return strconv.Itoa(n) + "/100" }

func doc5(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "/5" }

func share(p float64) string { return fmt.Sprintf("%.1f%%", p) }

func withShare(s *dataset.Summary, n int) string {
	return fmt.Sprintf("%s (%s)", count(n), share(s.Percent(n)))
}

// bar draws one block per two percent.
func bar(p float64) string {
	return StyleHighlight.Render(strings.Repeat("█", int(p/2)))
}
