package ctxcache

import (
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// Local store resolution for a scoped key.
	LocalHit(key cachekey.Key)
	LocalMiss(key cachekey.Key)

	// Remote lookup found a live entry; remaining is the TTL stored locally.
	RemoteHit(key cachekey.Key, remaining time.Duration)

	// Remote lookup found an entry whose expiry already passed.
	RemoteExpired(key cachekey.Key)

	// Remote lookup was refused (permission); treated as a miss.
	LookupDenied(key cachekey.Key)

	// A new remote entry was created for the key.
	RemoteCreated(key cachekey.Key, handle string)

	// A TTL string failed to parse; the default TTL was substituted.
	MalformedTTL(raw string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) LocalHit(cachekey.Key)                 {}
func (NopHooks) LocalMiss(cachekey.Key)                {}
func (NopHooks) RemoteHit(cachekey.Key, time.Duration) {}
func (NopHooks) RemoteExpired(cachekey.Key)            {}
func (NopHooks) LookupDenied(cachekey.Key)             {}
func (NopHooks) RemoteCreated(cachekey.Key, string)    {}
func (NopHooks) MalformedTTL(string)                   {}
