package ctxcache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/ctxcache/cachekey"
	"github.com/unkn0wn-root/ctxcache/codec"
	"github.com/unkn0wn-root/ctxcache/message"
	"github.com/unkn0wn-root/ctxcache/remote"
	"github.com/unkn0wn-root/ctxcache/store"
)

type cache struct {
	store   store.Store
	gateway remote.Gateway
	keys    cachekey.Builder
	log     Logger
	hooks   Hooks

	enabled    bool
	defaultTTL time.Duration
	sf         *singleflight.Group // nil => coalescing disabled
	now        func() time.Time
}

func newCache(opts Options) (*cache, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("ctxcache: store is required")
	}
	if opts.Gateway == nil && !opts.Disabled {
		return nil, fmt.Errorf("ctxcache: gateway is required")
	}

	enc := opts.Encoder
	if enc == nil {
		enc = codec.MustCBOR()
	}

	c := &cache{
		store:   opts.Store,
		gateway: opts.Gateway,
		keys:    cachekey.NewBuilder(enc),
		enabled: !opts.Disabled,
		now:     time.Now,
	}

	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce[time.Duration](opts.TTL, DefaultTTL)

	if !opts.DisableSingleflight {
		c.sf = &singleflight.Group{}
	}
	return c, nil
}

func (c *cache) Enabled() bool { return c.enabled }

func (c *cache) Resolve(ctx context.Context, req Request) (Result, error) {
	if req.Handle != "" {
		// pre-resolved by the caller; nothing to partition or look up
		return Result{Messages: req.Messages, Params: req.Params, Handle: req.Handle}, nil
	}
	if !c.enabled {
		return Result{Messages: req.Messages, Params: req.Params}, nil
	}

	cacheable, remainder := message.Partition(req.Messages)
	if len(cacheable) == 0 {
		return Result{Messages: req.Messages, Params: req.Params}, nil
	}

	tools, params := extractTools(req.Params)

	contentKey, err := c.keys.ContentKey(cacheable, tools)
	if err != nil {
		// key derivation never fails a request; skip caching instead
		c.log.Warn("content key derivation failed; caching skipped", Fields{"err": err})
		return Result{Messages: req.Messages, Params: req.Params}, nil
	}
	key := c.keys.Key(contentKey, req.Scope)

	if handle, ok := c.store.Get(key); ok {
		c.hooks.LocalHit(key)
		c.log.Debug("local cache hit", Fields{"key": key.Storage()})
		return Result{Messages: remainder, Params: params, Handle: handle}, nil
	}
	c.hooks.LocalMiss(key)

	entry, found, err := c.gateway.LookupByName(ctx, req.Scope, contentKey)
	switch {
	case err != nil && remote.IsPermissionDenied(err):
		// not ours to list; same as not found
		c.hooks.LookupDenied(key)
		c.log.Debug("remote lookup denied; treated as miss", Fields{"key": key.Storage()})
	case err != nil:
		return Result{}, &OpError{Op: "lookup", Key: key, Err: err}
	case found:
		if ttl, ok := c.remainingTTL(entry.ExpireTime); ok {
			c.store.Set(key, entry.Name, ttl)
			c.hooks.RemoteHit(key, ttl)
			c.log.Debug("remote cache hit", Fields{"key": key.Storage(), "ttl": ttl.String()})
			return Result{Messages: remainder, Params: params, Handle: entry.Name}, nil
		}
		// listed but already past its expiry; create a fresh entry
		c.hooks.RemoteExpired(key)
	}

	handle, err := c.create(ctx, key, req, cacheable, tools, contentKey)
	if err != nil {
		return Result{}, &OpError{Op: "create", Key: key, Err: err}
	}
	return Result{Messages: remainder, Params: params, Handle: handle}, nil
}

// create registers new remote content and populates the local store.
// Concurrent first-time misses for the same key are coalesced unless
// singleflight is disabled; the coalesced call runs on a context detached
// from the leader's cancellation so one caller hanging up cannot fail the
// followers sharing the flight. Either way the store write happens only
// after the remote call fully completed, so cancellation mid-call leaves
// no partial state.
func (c *cache) create(ctx context.Context, key cachekey.Key, req Request, cacheable []message.Message, tools any, contentKey string) (string, error) {
	do := func(ctx context.Context) (string, error) {
		ttl := c.requestTTL(cacheable)
		entry, err := c.gateway.Create(ctx, req.Scope, remote.CreateInput{
			Model:       req.Model,
			Messages:    cacheable,
			Tools:       tools,
			TTL:         ttl,
			DisplayName: contentKey,
		})
		if err != nil {
			return "", err
		}
		// prefer the service's reported expiry over the requested TTL
		if !entry.ExpireTime.IsZero() {
			if rem := entry.ExpireTime.Sub(c.now()); rem > 0 {
				ttl = rem
			}
		}
		c.store.Set(key, entry.Name, ttl)
		c.hooks.RemoteCreated(key, entry.Name)
		c.log.Info("created remote cache entry", Fields{
			"key":    key.Storage(),
			"handle": entry.Name,
			"ttl":    ttl.String(),
		})
		return entry.Name, nil
	}

	if c.sf == nil {
		return do(ctx)
	}
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.sf.Do(key.Storage(), func() (any, error) { return do(shared) })
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// requestTTL picks the TTL for a new remote entry: the message-carried TTL
// string when present and well-formed, the configured default otherwise.
func (c *cache) requestTTL(cacheable []message.Message) time.Duration {
	raw := message.TTL(cacheable)
	if raw == "" {
		return c.defaultTTL
	}
	d, ok := ParseTTL(raw)
	if !ok {
		c.hooks.MalformedTTL(raw)
		c.log.Warn("malformed ttl; using default", Fields{"ttl": raw})
		return c.defaultTTL
	}
	return d
}

// remainingTTL converts a remote expiry into a local TTL. A zero expiry
// (service reported none) falls back to the default; a past expiry means
// the entry is unusable and ok is false.
func (c *cache) remainingTTL(expire time.Time) (time.Duration, bool) {
	if expire.IsZero() {
		return c.defaultTTL, true
	}
	rem := expire.Sub(c.now())
	if rem <= 0 {
		return 0, false
	}
	return rem, true
}

// extractTools splits tool definitions out of the request params so cached
// tools are not re-sent with every request. The input map is left intact.
func extractTools(params map[string]any) (any, map[string]any) {
	tools, ok := params["tools"]
	if !ok {
		return nil, params
	}
	out := make(map[string]any, len(params)-1)
	for k, v := range params {
		if k != "tools" {
			out[k] = v
		}
	}
	return tools, out
}

func (c *cache) Invalidate(key cachekey.Key) {
	c.store.Invalidate(key)
	c.log.Debug("invalidated key", Fields{"key": key.Storage()})
}

func (c *cache) ClearAll() {
	c.store.Clear()
	c.log.Debug("cleared local cache", nil)
}

func (c *cache) CleanupExpired() int {
	removed := c.store.CleanupExpired()
	if removed > 0 {
		c.log.Debug("cleanup removed expired entries", Fields{"removed": removed})
	}
	return removed
}

func (c *cache) Stats() store.Stats { return c.store.Stats() }

func (c *cache) Close(context.Context) error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
