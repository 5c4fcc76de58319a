// Package cache stores intermediate results between runs.
//
// Placement sets and rendered diagrams are keyed by content hashes of their
// inputs, so an unchanged drawing and rule set never recompute. Three
// backends implement [Cache]:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for teams on one route
//
// Keys come from a [Keyer]. Values are opaque bytes; [Encode] and [Decode]
// use msgpack for structured values.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. Expired and
	// unreadable entries are misses, not errors.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Expiry of cached values.
const (
	TTLPlacement = 7 * 24 * time.Hour
	TTLArtifact  = 30 * 24 * time.Hour
)
