// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/ctxcache"
//	"github.com/unkn0wn-root/ctxcache/hooks/async"
//	"github.com/unkn0wn-root/ctxcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitMissEvery: 100, // sample logs: ~every 100th local hit/miss
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := ctxcache.New(ctxcache.Options{
//	    Store:   st,
//	    Gateway: gw,
//	    Hooks:   hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"time"

	"github.com/unkn0wn-root/ctxcache"
	"github.com/unkn0wn-root/ctxcache/cachekey"
)

type Hooks struct {
	inner ctxcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ ctxcache.Hooks = (*Hooks)(nil)

func New(inner ctxcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		// taking the write lock first means no try() is mid-send when the
		// channel closes; events arriving after Close are dropped
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) LocalHit(k cachekey.Key)      { h.try(func() { h.inner.LocalHit(k) }) }
func (h *Hooks) LocalMiss(k cachekey.Key)     { h.try(func() { h.inner.LocalMiss(k) }) }
func (h *Hooks) RemoteExpired(k cachekey.Key) { h.try(func() { h.inner.RemoteExpired(k) }) }
func (h *Hooks) LookupDenied(k cachekey.Key)  { h.try(func() { h.inner.LookupDenied(k) }) }
func (h *Hooks) MalformedTTL(raw string)      { h.try(func() { h.inner.MalformedTTL(raw) }) }
func (h *Hooks) RemoteHit(k cachekey.Key, remaining time.Duration) {
	h.try(func() { h.inner.RemoteHit(k, remaining) })
}
func (h *Hooks) RemoteCreated(k cachekey.Key, handle string) {
	h.try(func() { h.inner.RemoteCreated(k, handle) })
}
