// Package integrations provides HTTP clients for the upstream APIs a
// collection run talks to.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [npm]: registry search, package documents and download counts
//   - [github]: repository statistics for enrichment
//   - [bundlephobia]: published bundle sizes
//
// # Client Pattern
//
// All clients embed [Client] and follow the same pattern:
//
//	c, _ := cache.NewFileCache(dir)
//	client := npm.NewClient(c, 24*time.Hour)
//	res := client.FetchPackage(ctx, "express")
//	if res.Present() {
//	    fmt.Println(res.Value.Latest())
//	}
//
// Clients handle:
//   - HTTP requests with retry, Retry-After and per-host circuit breaking
//   - Response caching through [cache.Cache] with a configurable TTL
//   - API-specific parsing and normalization
//
// # Results
//
// Fetches never return bare errors to the collection loop. They return a
// [Result] whose [Outcome] tells the caller which path was taken:
// [OutcomeOK], [OutcomeDegraded] (a default stands in for the value) or
// [OutcomeSkipped] (nothing usable).
//
// [npm]: github.com/matzehuels/stackscout/pkg/integrations/npm
// [github]: github.com/matzehuels/stackscout/pkg/integrations/github
// [bundlephobia]: github.com/matzehuels/stackscout/pkg/integrations/bundlephobia
// [cache.Cache]: github.com/matzehuels/stackscout/pkg/cache.Cache
package integrations
