// Package bigcache adapts allegro/bigcache as an alternative local handle
// store with a hard memory ceiling.
//
// BigCache has no per-entry TTL, so the global LifeWindow acts as an upper
// bound and the real expiry is carried inside the framed entry and checked
// on read. Unlike ristretto, entries are enumerable, so Stats and
// CleanupExpired are exact.
package bigcache

import (
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/ctxcache/cachekey"
	"github.com/unkn0wn-root/ctxcache/internal/wire"
	"github.com/unkn0wn-root/ctxcache/store"
)

type Store struct {
	c      *bc.BigCache
	buffer time.Duration
}

var _ store.Store = (*Store)(nil)

type Config struct {
	// LifeWindow should be at least the largest TTL you expect to store;
	// shorter windows only tighten expiry, never extend it.
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited

	// SafetyBuffer as in store.MemoryConfig: 0 => default, negative => none.
	SafetyBuffer time.Duration
}

func New(cfg Config) (*Store, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
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
	b, err := s.c.Get(k)
	if err != nil {
		return "", false
	}
	e, err := wire.Decode(b)
	if err != nil {
		_ = s.c.Delete(k) // self-heal corrupt
		return "", false
	}
	if time.Now().UnixNano() >= e.ExpiresAt {
		_ = s.c.Delete(k)
		return "", false
	}
	return e.Handle, true
}

func (s *Store) Set(key cachekey.Key, handle string, ttl time.Duration) {
	adjusted := store.EffectiveTTL(ttl, s.buffer)
	if adjusted <= 0 {
		_ = s.c.Delete(key.Storage())
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
	_ = s.c.Set(key.Storage(), b)
}

func (s *Store) Invalidate(key cachekey.Key) { _ = s.c.Delete(key.Storage()) }

func (s *Store) Clear() { _ = s.c.Reset() }

func (s *Store) CleanupExpired() int {
	now := time.Now().UnixNano()
	var stale []string

	it := s.c.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			continue
		}
		e, err := wire.Decode(info.Value())
		if err != nil || now >= e.ExpiresAt {
			stale = append(stale, info.Key())
		}
	}

	removed := 0
	for _, k := range stale {
		if err := s.c.Delete(k); err == nil {
			removed++
		}
	}
	return removed
}

func (s *Store) Stats() store.Stats {
	now := time.Now().UnixNano()
	var st store.Stats

	it := s.c.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			continue
		}
		st.TotalEntries++
		if e, err := wire.Decode(info.Value()); err != nil || now >= e.ExpiresAt {
			st.ExpiredEntries++
		}
	}
	st.ValidEntries = st.TotalEntries - st.ExpiredEntries
	return st
}

func (s *Store) Close() error { return s.c.Close() }
