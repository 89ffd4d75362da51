package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/github/go-spdx/v2/spdxexp"
	"github.com/package-url/packageurl-go"

	"github.com/matzehuels/stackscout/pkg/dataset"
	"github.com/matzehuels/stackscout/pkg/integrations"
	"github.com/matzehuels/stackscout/pkg/integrations/bundlephobia"
	"github.com/matzehuels/stackscout/pkg/integrations/github"
	"github.com/matzehuels/stackscout/pkg/integrations/npm"
	"github.com/matzehuels/stackscout/pkg/score"
)

var errSkipped = errors.New("no registry document")

// collectOne fetches everything known about c and scores it.
func (r *Runner) collectOne(ctx context.Context, c npm.Candidate, opts *Options, logger *log.Logger) (*dataset.Record, error) {
	detail := r.Registry.FetchPackage(ctx, c.Name)
	if !detail.Present() || detail.Value == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("skipped: no registry document", "err", detail.Err)
		return nil, errSkipped
	}

	in := Inputs{Candidate: c, Detail: detail.Value}

	downloads := r.Registry.FetchDownloads(ctx, c.Name)
	logDegraded(logger, "downloads", downloads.Outcome, downloads.Err)
	in.Downloads = downloads.Value

	if repoURL := integrations.NormalizeRepoURL(detail.Value.RepositoryURL()); repoURL != "" && r.Repos != nil {
		stats := r.Repos.FetchRepoStats(ctx, repoURL)
		switch {
		case stats.Present():
			in.Repo = stats.Value
			if stats.Partial() {
				logger.Debug("repository stats degraded", "fields", stats.Degraded, "err", stats.Err)
			}
		case stats.Err != nil:
			logger.Debug("no repository stats", "repo", repoURL, "err", stats.Err)
		}
	}

	if r.Sizes != nil {
		size := r.Sizes.FetchSize(ctx, c.Name)
		logDegraded(logger, "size", size.Outcome, size.Err)
		in.Size = size.Value
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in.Now = opts.Now()
	in.Thresholds = *opts.Thresholds
	rec := BuildRecord(in)
	return &rec, nil
}

func logDegraded(logger *log.Logger, what string, o integrations.Outcome, err error) {
	if o != integrations.OutcomeOK {
		logger.Debug(what+" unavailable", "outcome", o, "err", err)
	}
}

// Inputs are the fetched facts about one package.
type Inputs struct {
	Candidate  npm.Candidate
	Detail     *npm.PackageDetail
	Downloads  int
	Repo       *github.RepoStats // nil without repository stats
	Size       bundlephobia.Size
	Now        time.Time
	Thresholds score.Thresholds
}

// BuildRecord scores in and assembles the record.
//
// Description and keywords come from the search hit, categories and
// documentation signals from the latest manifest.
func BuildRecord(in Inputs) dataset.Record {
	d := in.Detail
	latest := d.LatestVersion()
	cadence := score.ReleaseCadence(d.Time)

	version := d.Latest()
	if version == "" {
		version = in.Candidate.Version()
	}
	keywords := in.Candidate.Keywords()
	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	license := string(latest.License)
	if license == "" {
		license = string(d.License)
	}
	npmURL := in.Candidate.NPMURL()
	if npmURL == "" {
		npmURL = "https://www.npmjs.com/package/" + in.Candidate.Name
	}

	rec := dataset.Record{
		Name:                 in.Candidate.Name,
		Version:              version,
		Description:          truncate(in.Candidate.Description(), MaxDescription),
		Author:               d.AuthorName(),
		License:              license,
		Keywords:             keywords,
		Categories:           score.Categorize(in.Candidate.Name, latest.Description, latest.Keywords),
		DownloadsLastMonth:   in.Downloads,
		PackageSizeKB:        in.Size.SizeKB,
		GzipSizeKB:           in.Size.GzipKB,
		ReleaseFrequencyDays: cadence.MeanDays,
		ReleasesPerYear:      cadence.PerYear,
		TotalReleases:        cadence.TotalReleases,
		Repository:           integrations.NormalizeRepoURL(d.RepositoryURL()),
		Homepage:             in.Candidate.Homepage(),
		NPMURL:               npmURL,
		CreatedDate:          d.Time["created"],
		ModifiedDate:         d.Time["modified"],
		Maintainers:          len(d.Maintainers),
		Dependencies:         len(latest.Dependencies),
		DevDependencies:      len(latest.DevDependencies),
		PURL:                 purl(in.Candidate.Name, version),
		LicenseSPDX:          validSPDX(license),
		// Vulnerabilities stay zero: no advisory source is wired in.
	}

	doc := score.DocInput{
		Readme:   d.ReadmeText(),
		Homepage: latest.Homepage,
		Keywords: len(latest.Keywords),
	}

	var signals *score.RepoSignals
	if s := in.Repo; s != nil {
		rec.GitHubStars = s.Stars
		rec.GitHubForks = s.Forks
		rec.GitHubWatchers = s.Watchers
		rec.GitHubOpenIssues = s.OpenIssues
		rec.GitHubLanguage = s.Language
		rec.HasTests = s.HasTests
		rec.HasCI = s.HasCI
		rec.CIWorkflowsCount = s.WorkflowCount
		rec.HasWiki = s.HasWiki
		rec.HasPages = s.HasPages
		rec.LastCommitDate = s.LastCommitAt
		rec.LastUpdated = s.UpdatedAt
		rec.OpenPullRequests = s.OpenPullRequests
		rec.ContributorsCount = s.Contributors

		doc.HasWiki = s.HasWiki
		doc.HasPages = s.HasPages

		signals = &score.RepoSignals{
			Contributors:     s.Contributors,
			OpenPullRequests: s.OpenPullRequests,
			Stars:            s.Stars,
		}
		if t, ok := s.LastCommitTime(); ok {
			signals.LastCommit = t
		}
	}

	rec.DocumentationScore = in.Thresholds.Documentation(doc)
	rec.ActivityScore = in.Thresholds.Activity(signals, cadence, in.Now)
	return rec
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// purl builds the package URL, splitting a scope into the namespace.
func purl(name, version string) string {
	namespace := ""
	if strings.HasPrefix(name, "@") {
		if scope, rest, ok := strings.Cut(name, "/"); ok {
			namespace, name = scope, rest
		}
	}
	return packageurl.NewPackageURL(packageurl.TypeNPM, namespace, name, version, nil, "").ToString()
}

func validSPDX(license string) bool {
	if license == "" {
		return false
	}
	ok, _ := spdxexp.ValidateLicenses([]string{license})
	return ok
}

// sleep pauses for d or until ctx is done. It reports whether the full
// pause elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
