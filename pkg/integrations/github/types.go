package github

import "time"

// RepoStats holds repository facts used for scoring. Fields whose secondary
// request failed keep their zero value and are named in Degraded.
type RepoStats struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`

	Stars      int    `json:"stars"`
	Forks      int    `json:"forks"`
	Watchers   int    `json:"watchers"`
	OpenIssues int    `json:"open_issues"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	Language   string `json:"language,omitempty"`
	SizeKB     int    `json:"size_kb"`
	HasWiki    bool   `json:"has_wiki"`
	HasPages   bool   `json:"has_pages"`
	Archived   bool   `json:"archived"`

	LastCommitAt     string `json:"last_commit_at,omitempty"`
	OpenPullRequests int    `json:"open_pull_requests"`
	Contributors     int    `json:"contributors"`
	HasCI            bool   `json:"has_ci"`
	WorkflowCount    int    `json:"workflow_count"`
	HasTests         bool   `json:"has_tests"`

	Degraded []string `json:"degraded,omitempty"`
}

// LastCommitTime parses LastCommitAt.
func (s *RepoStats) LastCommitTime() (time.Time, bool) {
	if s == nil || s.LastCommitAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s.LastCommitAt)
	return t, err == nil
}

// URL returns the canonical repository URL.
func (s *RepoStats) URL() string {
	return "https://github.com/" + s.Owner + "/" + s.Name
}

type repoResponse struct {
	Stars      int    `json:"stargazers_count"`
	Forks      int    `json:"forks_count"`
	Watchers   int    `json:"watchers_count"`
	OpenIssues int    `json:"open_issues_count"`
	UpdatedAt  string `json:"updated_at"`
	Language   string `json:"language"`
	Size       int    `json:"size"`
	HasWiki    bool   `json:"has_wiki"`
	HasPages   bool   `json:"has_pages"`
	Archived   bool   `json:"archived"`
}

type commitResponse struct {
	Commit struct {
		Committer struct {
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

type workflowsResponse struct {
	TotalCount int `json:"total_count"`
}

type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
