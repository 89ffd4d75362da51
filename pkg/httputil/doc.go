// Package httputil provides the HTTP plumbing shared by all upstream clients.
//
// # Retry
//
// [Policy.Do] (and the [Retry] and [RetryWithBackoff] shorthands) retries
// operations that fail with a [RetryableError]: network errors, 5xx
// responses and 429 rate limits. Intervals grow exponentially with jitter.
// A server-provided Retry-After hint replaces the next interval, unless it
// exceeds the policy's MaxDelay, in which case the error is returned at once.
//
// # Circuit breaking
//
// [Breakers] holds one breaker per upstream host. After a run of transient
// failures against a host, further requests fail fast with [ErrCircuitOpen]
// until a cooldown elapses. The collector therefore degrades quickly when,
// say, the bundle size service is down, instead of paying the full timeout
// for every remaining package.
//
// # Transport
//
// [NewTransport] resolves hostnames through a process-wide DNS cache that is
// refreshed every five minutes.
package httputil
