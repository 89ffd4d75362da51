// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package searches the registry (https://registry.npmjs.org), fetches
// package documents, and reads monthly download counts from
// https://api.npmjs.org.
//
// # Usage
//
//	client := npm.NewClient(c, 24*time.Hour)
//
//	for cand := range client.Search(ctx, "framework", 100) {
//	    res := client.FetchPackage(ctx, cand.Name)
//	    if !res.Present() {
//	        continue
//	    }
//	    fmt.Println(cand.Name, res.Value.Latest())
//	}
//
// # Search
//
// [Client.Search] returns a lazy, single-use sequence. Pages of
// [SearchPageSize] are requested with fixed quality/popularity/maintenance
// weights and [Client.PageDelay] between them. A failed page ends the
// sequence; nothing is returned to the caller.
//
// # Upstream Shapes
//
// The registry is inconsistent about several fields. [Person],
// [RepositoryRef], [License], [StringList], [Dependencies] and [Timestamps]
// decode every shape seen in the wild once, at ingestion, and never fail
// the surrounding document.
package npm
