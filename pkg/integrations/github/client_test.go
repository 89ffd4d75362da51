package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stackscout/pkg/cache"
	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/httputil"
	"github.com/matzehuels/stackscout/pkg/integrations"
)

func testClient(t *testing.T, server *httptest.Server, token string, c cache.Cache) *Client {
	t.Helper()
	client := NewClient(c, token, time.Hour,
		integrations.WithHTTPClient(server.Client()),
		integrations.WithRetryPolicy(httputil.NoRetry),
	)
	client.baseURL = server.URL
	client.SecondaryDelay = 0
	return client
}

// fakeGitHub serves a healthy repository and records every request path.
type fakeGitHub struct {
	mu       sync.Mutex
	paths    []string
	auth     []string
	failures map[string]int
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	status := f.failures[r.URL.Path]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/repos/owner/repo":
		json.NewEncoder(w).Encode(repoResponse{
			Stars: 12000, Forks: 900, Watchers: 12000, OpenIssues: 40,
			UpdatedAt: "2024-05-01T00:00:00Z", Language: "JavaScript",
			Size: 2048, HasWiki: true, HasPages: false,
		})
	case "/repos/owner/repo/commits":
		if r.URL.Query().Get("per_page") != "1" {
			http.Error(w, "bad per_page", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`[{"sha":"abc","commit":{"committer":{"date":"2024-04-30T12:00:00Z"}}}]`))
	case "/repos/owner/repo/pulls":
		if r.URL.Query().Get("state") != "open" || r.URL.Query().Get("per_page") != "100" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`[{},{},{}]`))
	case "/repos/owner/repo/contributors":
		w.Header().Set("Link", `<https://api.github.com/repositories/1/contributors?per_page=1&page=2>; rel="next", <https://api.github.com/repositories/1/contributors?per_page=1&page=287>; rel="last"`)
		w.Write([]byte(`[{"login":"a"}]`))
	case "/repos/owner/repo/actions/workflows":
		w.Write([]byte(`{"total_count":4,"workflows":[]}`))
	case "/repos/owner/repo/contents":
		w.Write([]byte(`[{"name":"lib","type":"dir"},{"name":"__tests__","type":"dir"},{"name":"README.md","type":"file"}]`))
	default:
		http.NotFound(w, r)
	}
}

func TestFetchRepoStats(t *testing.T) {
	fake := &fakeGitHub{}
	server := httptest.NewServer(fake)
	defer server.Close()

	c := testClient(t, server, "", nil)
	res := c.FetchRepoStats(context.Background(), "git+https://github.com/owner/repo.git")
	if res.Outcome != integrations.OutcomeOK {
		t.Fatalf("outcome = %s, err = %v", res.Outcome, res.Err)
	}

	s := res.Value
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"stars", s.Stars, 12000},
		{"forks", s.Forks, 900},
		{"watchers", s.Watchers, 12000},
		{"open issues", s.OpenIssues, 40},
		{"language", s.Language, "JavaScript"},
		{"size", s.SizeKB, 2048},
		{"wiki", s.HasWiki, true},
		{"last commit", s.LastCommitAt, "2024-04-30T12:00:00Z"},
		{"open prs", s.OpenPullRequests, 3},
		{"contributors", s.Contributors, 287},
		{"has ci", s.HasCI, true},
		{"workflows", s.WorkflowCount, 4},
		{"has tests", s.HasTests, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if len(res.Degraded) != 0 {
		t.Errorf("Degraded = %v, want none", res.Degraded)
	}
	if len(fake.paths) != 6 {
		t.Errorf("requests = %d, want 6", len(fake.paths))
	}
}

func TestFetchRepoStatsSecondaryFailuresAreIsolated(t *testing.T) {
	fake := &fakeGitHub{failures: map[string]int{
		"/repos/owner/repo/pulls":        http.StatusInternalServerError,
		"/repos/owner/repo/contributors": http.StatusForbidden,
	}}
	server := httptest.NewServer(fake)
	defer server.Close()

	c := testClient(t, server, "", nil)
	res := c.FetchRepoStats(context.Background(), "https://github.com/owner/repo")

	if res.Outcome != integrations.OutcomeDegraded || !res.Present() {
		t.Fatalf("outcome = %s, want degraded", res.Outcome)
	}
	if !slices.Equal(res.Degraded, []string{FieldPullRequests, FieldContributors}) {
		t.Errorf("Degraded = %v", res.Degraded)
	}
	s := res.Value
	if s.OpenPullRequests != 0 || s.Contributors != 0 {
		t.Errorf("failed fields should be zero: prs=%d contributors=%d", s.OpenPullRequests, s.Contributors)
	}
	if s.LastCommitAt == "" || !s.HasCI || !s.HasTests || s.Stars != 12000 {
		t.Errorf("other fields should be unaffected: %+v", s)
	}
}

func TestFetchRepoStatsPrimaryFailureSkips(t *testing.T) {
	fake := &fakeGitHub{failures: map[string]int{"/repos/owner/repo": http.StatusNotFound}}
	server := httptest.NewServer(fake)
	defer server.Close()

	c := testClient(t, server, "", nil)
	res := c.FetchRepoStats(context.Background(), "https://github.com/owner/repo")
	if res.Outcome != integrations.OutcomeSkipped || res.Value != nil {
		t.Fatalf("outcome = %s, want skipped", res.Outcome)
	}
	if !errors.Is(res.Err, integrations.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", res.Err)
	}
	if len(fake.paths) != 1 {
		t.Errorf("secondary requests issued after primary failure: %v", fake.paths)
	}
}

func TestFetchRepoStatsSkipsWithoutRequest(t *testing.T) {
	fake := &fakeGitHub{}
	server := httptest.NewServer(fake)
	defer server.Close()

	c := testClient(t, server, "", nil)
	tests := []struct {
		name        string
		url         string
		unsupported bool
	}{
		{"empty", "", false},
		{"gitlab", "https://gitlab.com/owner/repo", true},
		{"owner only", "https://github.com/owner", true},
		{"garbage", "not a url", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.FetchRepoStats(context.Background(), tt.url)
			if res.Outcome != integrations.OutcomeSkipped {
				t.Errorf("outcome = %s, want skipped", res.Outcome)
			}
			if got := errs.Is(res.Err, errs.ErrCodeUnsupportedHost); got != tt.unsupported {
				t.Errorf("unsupported host = %v, want %v (err %v)", got, tt.unsupported, res.Err)
			}
		})
	}
	if len(fake.paths) != 0 {
		t.Errorf("requests issued: %v", fake.paths)
	}
}

func TestFetchRepoStatsSendsToken(t *testing.T) {
	fake := &fakeGitHub{}
	server := httptest.NewServer(fake)
	defer server.Close()

	c := testClient(t, server, "secret", nil)
	if !c.Authenticated() {
		t.Error("Authenticated() = false with token")
	}
	c.FetchRepoStats(context.Background(), "https://github.com/owner/repo")
	for i, a := range fake.auth {
		if a != "Bearer secret" {
			t.Errorf("request %d (%s) Authorization = %q", i, fake.paths[i], a)
		}
	}
}

func TestFetchRepoStatsCachesOnlyCompleteStats(t *testing.T) {
	fake := &fakeGitHub{failures: map[string]int{"/repos/owner/repo/contents": http.StatusBadGateway}}
	server := httptest.NewServer(fake)
	defer server.Close()

	fc, _ := cache.NewFileCache(t.TempDir())
	c := testClient(t, server, "", fc)

	c.FetchRepoStats(context.Background(), "https://github.com/owner/repo")
	c.FetchRepoStats(context.Background(), "https://github.com/owner/repo")
	if len(fake.paths) != 12 {
		t.Fatalf("degraded stats were cached: %d requests, want 12", len(fake.paths))
	}

	fake.mu.Lock()
	fake.failures = nil
	fake.paths = nil
	fake.mu.Unlock()

	c.FetchRepoStats(context.Background(), "https://github.com/owner/repo")
	res := c.FetchRepoStats(context.Background(), "https://github.com/Owner/Repo")
	if len(fake.paths) != 6 {
		t.Errorf("complete stats not cached: %d requests, want 6", len(fake.paths))
	}
	if res.Outcome != integrations.OutcomeOK || res.Value.Stars != 12000 {
		t.Errorf("cached result = %s %+v", res.Outcome, res.Value)
	}
}

func TestContributorsFallBackToPageLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"login":"solo"}]`))
	}))
	defer server.Close()

	c := testClient(t, server, "", nil)
	var s RepoStats
	if err := c.fetchContributors(context.Background(), server.URL, &s); err != nil {
		t.Fatal(err)
	}
	if s.Contributors != 1 {
		t.Errorf("Contributors = %d, want 1", s.Contributors)
	}
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"https://github.com/expressjs/express", "expressjs", "express", true},
		{"git+https://github.com/expressjs/express.git", "expressjs", "express", true},
		{"git://github.com/expressjs/express.git", "expressjs", "express", true},
		{"git@github.com:expressjs/express.git", "expressjs", "express", true},
		{"git+ssh://git@github.com/nestjs/nest.git", "nestjs", "nest", true},
		{"https://github.com/vercel/next.js#readme", "vercel", "next.js", true},
		{"https://github.com/babel/babel/tree/main/packages/core", "babel", "babel", true},
		{"https://gitlab.com/a/b", "", "", false},
		{"https://github.com/onlyowner", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		owner, repo, ok := ParseRepoURL(tt.url)
		if ok != tt.wantOK || owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ParseRepoURL(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.url, owner, repo, ok, tt.wantOwner, tt.wantRepo, tt.wantOK)
		}
	}
}

func TestHasTestDir(t *testing.T) {
	tests := []struct {
		name    string
		entries []contentEntry
		want    bool
	}{
		{"tests dir", []contentEntry{{"tests", "dir"}}, true},
		{"spec dir", []contentEntry{{"Spec", "dir"}}, true},
		{"contains test", []contentEntry{{"e2e-testing", "dir"}}, true},
		{"test file only", []contentEntry{{"test.js", "file"}}, false},
		{"no tests", []contentEntry{{"lib", "dir"}, {"docs", "dir"}}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		if got := hasTestDir(tt.entries); got != tt.want {
			t.Errorf("%s: hasTestDir() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLastCommitTime(t *testing.T) {
	s := &RepoStats{LastCommitAt: "2024-04-30T12:00:00Z"}
	got, ok := s.LastCommitTime()
	if !ok || !got.Equal(time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("LastCommitTime() = %v, %v", got, ok)
	}
	if _, ok := (&RepoStats{LastCommitAt: "yesterday"}).LastCommitTime(); ok {
		t.Error("unparseable date should report false")
	}
	var nilStats *RepoStats
	if _, ok := nilStats.LastCommitTime(); ok {
		t.Error("nil stats should report false")
	}
}
