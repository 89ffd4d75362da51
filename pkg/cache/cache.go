// Package cache provides the byte-level response cache used by the
// registry and GitHub clients.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a local directory (default)
//   - [RedisCache]: a shared Redis instance, for collectors running on
//     several machines against the same upstream quota
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys are produced by a [Keyer] so that every backend sees the same
// namespaced key layout.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with a per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the payload for key. A miss is reported as (nil, false, nil);
	// expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a cached upstream response.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer is the standard key layout: "http:<namespace>:<key>".
// Keys longer than maxKeyLen are replaced by a hash of their parts.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

const maxKeyLen = 200

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	k := "http:" + namespace + ":" + key
	if len(k) > maxKeyLen {
		return hashKey("http:"+namespace, key)
	}
	return k
}
