package ctxcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
	"github.com/unkn0wn-root/ctxcache/codec"
	"github.com/unkn0wn-root/ctxcache/message"
	"github.com/unkn0wn-root/ctxcache/remote"
	"github.com/unkn0wn-root/ctxcache/store"
)

// Request is one inbound resolution from the surrounding gateway.
type Request struct {
	// Messages is the ordered request message list.
	Messages []message.Message

	// Params are the request's optional parameters. Tool definitions under
	// "tools" are folded into the cache entry and removed from the params
	// returned in Result; the map itself is never mutated.
	Params map[string]any

	// Scope partitions the cache namespace (provider, tenant, region).
	Scope cachekey.Scope

	// Model the cached content is created for.
	Model string

	// Handle short-circuits resolution when the caller already holds a
	// remote handle: Resolve returns it unchanged and touches nothing.
	Handle string
}

// Result is what the gateway merges into the outbound provider request:
// the non-cached messages, the params to send, and the remote handle (""
// when nothing was cached).
type Result struct {
	Messages []message.Message
	Params   map[string]any
	Handle   string
}

// Cache is the orchestration API. One instance is created at service
// startup, shared by all request-handling goroutines, and closed at
// shutdown.
type Cache interface {
	// Resolve partitions the request, resolves the cacheable prefix to a
	// remote handle (local store, then remote lookup, then remote
	// creation) and returns the remainder. Only remote-transport failures
	// are returned as errors.
	Resolve(ctx context.Context, req Request) (Result, error)

	Enabled() bool

	// Administrative surface over the local store.
	Invalidate(key cachekey.Key)
	ClearAll()
	CleanupExpired() int
	Stats() store.Stats

	Close(ctx context.Context) error
}

// Options tune the cache. Store and Gateway are required; others have
// sensible defaults.
type Options struct {
	// Required
	Store   store.Store
	Gateway remote.Gateway

	// Encoder serializes content for key derivation.
	// nil => deterministic CBOR.
	Encoder codec.Encoder

	Logger Logger        // if nil, NopLogger is used
	Hooks  Hooks         // if nil, NopHooks is used
	TTL    time.Duration // requested TTL for new remote entries; 0 => 1h

	// Disabled makes Resolve a passthrough (no partitioning, no store or
	// gateway traffic). default false (enabled)
	Disabled bool

	// DisableSingleflight turns off per-key coalescing of concurrent
	// first-time creations. With it set, concurrent misses may create
	// duplicate remote entries for identical content; that is harmless
	// (last write wins locally) but wastes remote calls.
	DisableSingleflight bool
}

func New(opts Options) (Cache, error) {
	return newCache(opts)
}
