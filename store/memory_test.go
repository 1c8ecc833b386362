package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
)

func testKey(project string) cachekey.Key {
	return cachekey.Key{
		Scope:   cachekey.Scope{Provider: "vertex_ai", Project: project, Location: "global"},
		Content: "abc123",
	}
}

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClockedMemory(cfg MemoryConfig) (*Memory, *fakeClock) {
	m := NewMemory(cfg)
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	m.now = clk.now
	return m, clk
}

func TestMemoryRoundTrip(t *testing.T) {
	m, _ := newClockedMemory(MemoryConfig{})
	defer m.Close()

	k := testKey("acme")
	m.Set(k, "handle-1", 10*time.Second)

	h, ok := m.Get(k)
	if !ok || h != "handle-1" {
		t.Fatalf("Get = (%q, %v), want (handle-1, true)", h, ok)
	}
}

func TestMemoryExpiryRemovesEntry(t *testing.T) {
	m, clk := newClockedMemory(MemoryConfig{SafetyBuffer: -1})
	defer m.Close()

	k := testKey("acme")
	m.Set(k, "handle-1", time.Second)

	clk.advance(2 * time.Second)
	if _, ok := m.Get(k); ok {
		t.Fatalf("expired entry should miss")
	}
	if s := m.Stats(); s.TotalEntries != 0 {
		t.Fatalf("stale entry should be removed on read, stats=%+v", s)
	}
}

func TestMemorySafetyBuffer(t *testing.T) {
	m, clk := newClockedMemory(MemoryConfig{}) // default 5s buffer
	defer m.Close()

	k := testKey("acme")
	m.Set(k, "handle-1", 10*time.Second)

	// Just inside the buffered window.
	clk.advance(4900 * time.Millisecond)
	if _, ok := m.Get(k); !ok {
		t.Fatalf("entry should still be valid before now+ttl-buffer")
	}

	// Past now+10-5: the local view must give up before the remote does.
	clk.advance(200 * time.Millisecond)
	if _, ok := m.Get(k); ok {
		t.Fatalf("entry should expire at now+ttl-buffer")
	}
}

func TestMemoryTTLNotAboveBufferExpiresImmediately(t *testing.T) {
	m, _ := newClockedMemory(MemoryConfig{})
	defer m.Close()

	k := testKey("acme")
	m.Set(k, "handle-1", 3*time.Second) // below the 5s buffer
	if _, ok := m.Get(k); ok {
		t.Fatalf("effective TTL is max(0, ttl-buffer); entry should not be readable")
	}
}

func TestMemoryReplaceIsWhole(t *testing.T) {
	m, _ := newClockedMemory(MemoryConfig{})
	defer m.Close()

	k := testKey("acme")
	m.Set(k, "old", time.Hour)
	m.Set(k, "new", time.Hour)

	if h, _ := m.Get(k); h != "new" {
		t.Fatalf("last write wins, got %q", h)
	}
	if s := m.Stats(); s.TotalEntries != 1 {
		t.Fatalf("replacement should not grow the store, stats=%+v", s)
	}
}

func TestMemoryInvalidateAndClear(t *testing.T) {
	m, _ := newClockedMemory(MemoryConfig{})
	defer m.Close()

	a, b := testKey("acme"), testKey("globex")
	m.Set(a, "ha", time.Hour)
	m.Set(b, "hb", time.Hour)

	m.Invalidate(a)
	if _, ok := m.Get(a); ok {
		t.Fatalf("invalidated entry should miss")
	}
	if _, ok := m.Get(b); !ok {
		t.Fatalf("invalidate must be scoped to its key")
	}

	m.Clear()
	if s := m.Stats(); s.TotalEntries != 0 {
		t.Fatalf("Clear should empty the store, stats=%+v", s)
	}
}

func TestMemoryCleanupExpiredCount(t *testing.T) {
	m, clk := newClockedMemory(MemoryConfig{SafetyBuffer: -1})
	defer m.Close()

	for i := 0; i < 3; i++ {
		m.Set(testKey(fmt.Sprintf("short-%d", i)), "h", time.Second)
	}
	m.Set(testKey("long"), "h", time.Hour)

	clk.advance(2 * time.Second)

	if s := m.Stats(); s.TotalEntries != 4 || s.ExpiredEntries != 3 || s.ValidEntries != 1 {
		t.Fatalf("stats before cleanup = %+v", s)
	}
	if removed := m.CleanupExpired(); removed != 3 {
		t.Fatalf("CleanupExpired = %d, want 3", removed)
	}
	if s := m.Stats(); s.TotalEntries != 1 || s.ValidEntries != 1 {
		t.Fatalf("stats after cleanup = %+v", s)
	}
}

func TestMemoryScopedKeysIndependent(t *testing.T) {
	m, clk := newClockedMemory(MemoryConfig{SafetyBuffer: -1})
	defer m.Close()

	acme, globex := testKey("acme"), testKey("globex")
	m.Set(acme, "acme-handle", time.Second)
	m.Set(globex, "globex-handle", time.Hour)

	if h, _ := m.Get(acme); h != "acme-handle" {
		t.Fatalf("acme handle = %q", h)
	}
	if h, _ := m.Get(globex); h != "globex-handle" {
		t.Fatalf("globex handle = %q", h)
	}

	// Entries expire independently.
	clk.advance(2 * time.Second)
	if _, ok := m.Get(acme); ok {
		t.Fatalf("acme entry should have expired")
	}
	if _, ok := m.Get(globex); !ok {
		t.Fatalf("globex entry should survive acme's expiry")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			k := testKey(fmt.Sprintf("p-%d", n%4))
			for j := 0; j < 200; j++ {
				m.Set(k, "h", time.Hour)
				m.Get(k)
				m.Stats()
				if j%50 == 0 {
					m.CleanupExpired()
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestEffectiveTTL(t *testing.T) {
	cases := []struct {
		ttl, buffer, want time.Duration
	}{
		{10 * time.Second, 5 * time.Second, 5 * time.Second},
		{5 * time.Second, 5 * time.Second, 0},
		{time.Second, 5 * time.Second, 0},
		{time.Hour, 0, time.Hour},
		{10 * time.Second, -time.Second, 10 * time.Second},
		{-time.Second, 0, 0},
	}
	for _, tc := range cases {
		if got := EffectiveTTL(tc.ttl, tc.buffer); got != tc.want {
			t.Fatalf("EffectiveTTL(%v, %v) = %v, want %v", tc.ttl, tc.buffer, got, tc.want)
		}
	}
}
