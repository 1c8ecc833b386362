// Package ristretto adapts dgraph-io/ristretto as an alternative local
// handle store for high-cardinality scopes where a size-bounded cache is
// preferable to the canonical mutex map.
//
// Ristretto cannot enumerate its entries, so Stats and CleanupExpired are
// best-effort no-ops; expiry is still enforced on read via the framed
// entry's own timestamps. Use store.Memory when exact introspection
// matters.
package ristretto

import (
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/ctxcache/cachekey"
	"github.com/unkn0wn-root/ctxcache/internal/wire"
	"github.com/unkn0wn-root/ctxcache/store"
)

type Store struct {
	c      *rc.Cache
	buffer time.Duration
}

var _ store.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool

	// SafetyBuffer as in store.MemoryConfig: 0 => default, negative => none.
	SafetyBuffer time.Duration
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	buffer := cfg.SafetyBuffer
	if buffer == 0 {
		buffer = store.DefaultSafetyBuffer
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Store{c: c, buffer: buffer}, nil
}

func (s *Store) Get(key cachekey.Key) (string, bool) {
	k := key.Storage()
	v, ok := s.c.Get(k)
	if !ok {
		return "", false
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(k)
		return "", false
	}
	e, err := wire.Decode(b)
	if err != nil {
		s.c.Del(k)
		return "", false
	}
	if time.Now().UnixNano() >= e.ExpiresAt {
		s.c.Del(k)
		return "", false
	}
	return e.Handle, true
}

func (s *Store) Set(key cachekey.Key, handle string, ttl time.Duration) {
	adjusted := store.EffectiveTTL(ttl, s.buffer)
	if adjusted <= 0 {
		// already past its buffered expiry; nothing worth storing
		s.c.Del(key.Storage())
		return
	}
	now := time.Now()
	b, err := wire.Encode(wire.Entry{
		Handle:    handle,
		CreatedAt: now.UnixNano(),
		ExpiresAt: now.Add(adjusted).UnixNano(),
	})
	if err != nil {
		return
	}
	s.c.SetWithTTL(key.Storage(), b, 1, adjusted)
}

func (s *Store) Invalidate(key cachekey.Key) { s.c.Del(key.Storage()) }

func (s *Store) Clear() { s.c.Clear() }

// CleanupExpired is a no-op; ristretto evicts internally.
func (s *Store) CleanupExpired() int { return 0 }

// Stats cannot be computed without enumeration.
func (s *Store) Stats() store.Stats { return store.Stats{} }

func (s *Store) Close() error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto's own counters when enabled in Config
// (not part of store.Store).
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
