// Package store defines the process-local handle store consulted before any
// remote cache traffic.
//
// A Store maps a scoped cache key to the opaque handle of a remote cache
// entry, bounded by a TTL. Entries are replaced whole, never partially
// updated, and expire lazily on read. All operations must be safe for
// concurrent use and complete in bounded time independent of cache size;
// none of them perform I/O, so the interface carries no context and no
// errors. State is lost on restart by design.
package store

import (
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
)

// DefaultSafetyBuffer shortens locally tracked TTLs so the local view never
// outlives the remote entry's real expiry.
const DefaultSafetyBuffer = 5 * time.Second

// Stats is a read-only snapshot of store contents.
type Stats struct {
	TotalEntries   int
	ValidEntries   int
	ExpiredEntries int
}

// Store is the local cache of remote handles.
type Store interface {
	// Get returns the handle when an entry exists and has not expired.
	// Stale entries are removed on read.
	Get(key cachekey.Key) (handle string, ok bool)

	// Set stores or replaces the entry for key with the given TTL.
	// Implementations apply their safety buffer: the effective TTL is
	// max(0, ttl - buffer).
	Set(key cachekey.Key, handle string, ttl time.Duration)

	// Invalidate removes the entry for key, if any.
	Invalidate(key cachekey.Key)

	// Clear removes all entries.
	Clear()

	// CleanupExpired removes every expired entry and reports how many
	// were removed.
	CleanupExpired() int

	// Stats reports entry counts without mutating state.
	Stats() Stats

	// Close releases resources (no-op ok).
	Close() error
}

// EffectiveTTL applies the safety buffer to a requested TTL.
func EffectiveTTL(ttl, buffer time.Duration) time.Duration {
	if buffer < 0 {
		buffer = 0
	}
	if ttl <= buffer {
		return 0
	}
	return ttl - buffer
}
