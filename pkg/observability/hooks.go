// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about collection runs, cache operations, and API calls.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewPrometheusHooks()
//	    observability.SetCollectHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    observability.SetHTTPHooks(hooks)
//	    // ... run collection
//	    hooks.WriteTextfile("stackscout.prom")
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Collect().OnCandidateStart(ctx, name)
//	// ... fetch and score ...
//	observability.Collect().OnCandidateComplete(ctx, name, outcome, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Collection Hooks
// =============================================================================

// CollectHooks receives events from the collection pipeline.
type CollectHooks interface {
	// Seeding events
	OnSeedStart(ctx context.Context, keyword string)
	OnSeedComplete(ctx context.Context, keyword string, found, added int, err error)

	// Processing events. Outcome is "recorded", "skipped" or "failed".
	OnCandidateStart(ctx context.Context, name string)
	OnCandidateComplete(ctx context.Context, name, outcome string, duration time.Duration)

	// Export events
	OnExport(ctx context.Context, format string, records int, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCollectHooks is a no-op implementation of CollectHooks.
type NoopCollectHooks struct{}

func (NoopCollectHooks) OnSeedStart(context.Context, string)                                 {}
func (NoopCollectHooks) OnSeedComplete(context.Context, string, int, int, error)             {}
func (NoopCollectHooks) OnCandidateStart(context.Context, string)                            {}
func (NoopCollectHooks) OnCandidateComplete(context.Context, string, string, time.Duration) {}
func (NoopCollectHooks) OnExport(context.Context, string, int, error)                        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	collectHooks CollectHooks = NoopCollectHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetCollectHooks registers custom collection hooks.
// This should be called once at application startup before any collection.
func SetCollectHooks(h CollectHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		collectHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Collect returns the registered collection hooks.
func Collect() CollectHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return collectHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	collectHooks = NoopCollectHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
