package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/stackscout/pkg/cache"
	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/integrations"
)

const (
	// DefaultSecondaryDelay is the pause after each secondary request.
	DefaultSecondaryDelay = 200 * time.Millisecond

	requestTimeout = 10 * time.Second
)

var (
	repoURLPattern  = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/]+)/([^/?#]+)`)
	lastPagePattern = regexp.MustCompile(`[?&]page=(\d+)>;\s*rel="last"`)
)

// Secondary field names reported in [RepoStats.Degraded].
const (
	FieldLastCommit   = "last_commit"
	FieldPullRequests = "open_pull_requests"
	FieldContributors = "contributors"
	FieldWorkflows    = "workflows"
	FieldTests        = "has_tests"
)

// testDirNames are top-level directory names that indicate a test suite.
var testDirNames = []string{"test", "tests", "__tests__", "spec", "specs"}

// Client provides access to the GitHub API for repository metadata enrichment.
// It handles HTTP requests with caching, automatic retries, and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
	token   string

	// SecondaryDelay is the pause after each secondary request.
	SecondaryDelay time.Duration
	// Refresh bypasses cached statistics.
	Refresh bool
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate limits).
func NewClient(c cache.Cache, token string, ttl time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	opts = append([]integrations.Option{integrations.WithTimeout(requestTimeout)}, opts...)
	return &Client{
		Client:         integrations.NewClient(c, "github", ttl, headers, opts...),
		baseURL:        "https://api.github.com",
		token:          token,
		SecondaryDelay: DefaultSecondaryDelay,
	}
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool { return c.token != "" }

// ParseRepoURL extracts owner and repository name from any of the URL forms
// npm packages publish for GitHub repositories.
func ParseRepoURL(raw string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(integrations.NormalizeRepoURL(raw))
	if m == nil {
		return "", "", false
	}
	owner, repo = m[1], strings.TrimSuffix(m[2], ".git")
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}

// FetchRepoStats collects repository statistics. Empty and non-GitHub URLs
// are skipped without a request. A failed primary request skips the result;
// each failed secondary request only zeroes its own fields and is listed in
// the result's Degraded names. Only complete statistics are cached.
func (c *Client) FetchRepoStats(ctx context.Context, repoURL string) integrations.Result[*RepoStats] {
	if strings.TrimSpace(repoURL) == "" {
		return integrations.Skip[*RepoStats](nil)
	}
	owner, repo, ok := ParseRepoURL(repoURL)
	if !ok {
		return integrations.Skip[*RepoStats](errs.New(errs.ErrCodeUnsupportedHost, "not a GitHub repository: %s", repoURL))
	}

	key := "repo:" + strings.ToLower(owner+"/"+repo)
	var cached RepoStats
	if !c.Refresh && c.Lookup(ctx, key, &cached) {
		return integrations.Success(&cached)
	}

	stats, err := c.fetchRepo(ctx, owner, repo)
	if err != nil {
		return integrations.Skip[*RepoStats](err)
	}

	var failures []error
	secondary := func(field string, fetch func(context.Context) error) {
		if ctx.Err() != nil {
			stats.Degraded = append(stats.Degraded, field)
			failures = append(failures, ctx.Err())
			return
		}
		err := c.Retry(ctx, func() error {
			ctx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			return fetch(ctx)
		})
		if err != nil {
			stats.Degraded = append(stats.Degraded, field)
			failures = append(failures, fmt.Errorf("%s: %w", field, err))
		}
		sleep(ctx, c.SecondaryDelay)
	}

	base := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))
	secondary(FieldLastCommit, func(ctx context.Context) error {
		return c.fetchLastCommit(ctx, base, stats)
	})
	secondary(FieldPullRequests, func(ctx context.Context) error {
		return c.fetchPullRequests(ctx, base, stats)
	})
	secondary(FieldContributors, func(ctx context.Context) error {
		return c.fetchContributors(ctx, base, stats)
	})
	secondary(FieldWorkflows, func(ctx context.Context) error {
		return c.fetchWorkflows(ctx, base, stats)
	})
	secondary(FieldTests, func(ctx context.Context) error {
		return c.fetchContents(ctx, base, stats)
	})

	if len(failures) > 0 {
		res := integrations.Degrade(stats, errors.Join(failures...))
		res.Degraded = stats.Degraded
		return res
	}
	c.Store(ctx, key, stats)
	return integrations.Success(stats)
}

func (c *Client) fetchRepo(ctx context.Context, owner, repo string) (*RepoStats, error) {
	var data repoResponse
	endpoint := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))
	err := c.Retry(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return c.Get(ctx, endpoint, &data)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
		}
		return nil, err
	}
	return &RepoStats{
		Owner:      owner,
		Name:       repo,
		Stars:      data.Stars,
		Forks:      data.Forks,
		Watchers:   data.Watchers,
		OpenIssues: data.OpenIssues,
		UpdatedAt:  data.UpdatedAt,
		Language:   data.Language,
		SizeKB:     data.Size,
		HasWiki:    data.HasWiki,
		HasPages:   data.HasPages,
		Archived:   data.Archived,
	}, nil
}

func (c *Client) fetchLastCommit(ctx context.Context, base string, stats *RepoStats) error {
	var data []commitResponse
	if err := c.Get(ctx, base+"/commits?per_page=1", &data); err != nil {
		return err
	}
	if len(data) > 0 {
		stats.LastCommitAt = data[0].Commit.Committer.Date
	}
	return nil
}

func (c *Client) fetchPullRequests(ctx context.Context, base string, stats *RepoStats) error {
	var data []json.RawMessage
	if err := c.Get(ctx, base+"/pulls?state=open&per_page=100", &data); err != nil {
		return err
	}
	stats.OpenPullRequests = len(data)
	return nil
}

func (c *Client) fetchContributors(ctx context.Context, base string, stats *RepoStats) error {
	body, header, err := c.GetRaw(ctx, base+"/contributors?per_page=1", nil)
	if err != nil {
		return err
	}
	if n, ok := lastPage(header.Get("Link")); ok {
		stats.Contributors = n
		return nil
	}
	// Empty repositories answer 204 with no body.
	if len(strings.TrimSpace(string(body))) == 0 {
		stats.Contributors = 0
		return nil
	}
	var data []json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("decode contributors: %w", err)
	}
	stats.Contributors = len(data)
	return nil
}

func (c *Client) fetchWorkflows(ctx context.Context, base string, stats *RepoStats) error {
	var data workflowsResponse
	if err := c.Get(ctx, base+"/actions/workflows", &data); err != nil {
		return err
	}
	stats.WorkflowCount = data.TotalCount
	stats.HasCI = data.TotalCount > 0
	return nil
}

func (c *Client) fetchContents(ctx context.Context, base string, stats *RepoStats) error {
	var data []contentEntry
	if err := c.Get(ctx, base+"/contents", &data); err != nil {
		return err
	}
	stats.HasTests = hasTestDir(data)
	return nil
}

// hasTestDir reports whether any top-level directory looks like a test suite.
func hasTestDir(entries []contentEntry) bool {
	for _, e := range entries {
		if e.Type != "dir" {
			continue
		}
		name := strings.ToLower(e.Name)
		if strings.Contains(name, "test") {
			return true
		}
		for _, t := range testDirNames {
			if name == t {
				return true
			}
		}
	}
	return false
}

func lastPage(link string) (int, bool) {
	m := lastPagePattern.FindStringSubmatch(link)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
