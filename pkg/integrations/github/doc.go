// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package fetches repository statistics from GitHub
// (https://api.github.com) to enrich npm packages with popularity,
// maintenance and engineering signals.
//
// # Usage
//
//	client := github.NewClient(c, os.Getenv("GITHUB_TOKEN"), 24*time.Hour)
//
//	res := client.FetchRepoStats(ctx, "git+https://github.com/expressjs/express.git")
//	if res.Present() {
//	    fmt.Println("Stars:", res.Value.Stars)
//	    fmt.Println("Degraded:", res.Degraded)
//	}
//
// # Requests
//
// One primary request reads /repos/{owner}/{repo}. If it fails the result
// is skipped. Five secondary requests follow, each independent and each
// followed by [Client.SecondaryDelay]:
//
//   - latest commit (commits?per_page=1)
//   - open pull requests (first 100)
//   - contributor count, read from the rel="last" pagination link
//   - GitHub Actions workflow count
//   - test directories among the top-level contents
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
package github
