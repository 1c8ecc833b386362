package ristretto

import (
	"testing"
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
	"github.com/unkn0wn-root/ctxcache/internal/wire"
)

func testKey(content string) cachekey.Key {
	return cachekey.Key{
		Scope:   cachekey.Scope{Provider: "vertex_ai", Project: "acme", Location: "us-central1"},
		Content: content,
	}
}

func newTestStore(t *testing.T, buffer time.Duration) *Store {
	t.Helper()
	s, err := New(Config{
		NumCounters:  1 << 12,
		MaxCost:      1 << 12,
		BufferItems:  64,
		SafetyBuffer: buffer,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error for a zero config")
	}
	if _, err := New(Config{NumCounters: 100, MaxCost: 100}); err == nil {
		t.Error("expected an error for missing BufferItems")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t, -1)
	key := testKey("aaaa")

	s.Set(key, "cachedContents/abc", time.Hour)
	s.c.Wait() // writes are buffered

	if handle, ok := s.Get(key); !ok || handle != "cachedContents/abc" {
		t.Errorf("Get = (%q, %v), want the stored handle", handle, ok)
	}
	if _, ok := s.Get(testKey("bbbb")); ok {
		t.Error("hit for a key never stored")
	}
}

func TestSafetyBufferSkipsShortTTL(t *testing.T) {
	s := newTestStore(t, 0) // 0 => default 5s buffer
	key := testKey("cccc")

	// ttl within the buffer: nothing worth storing
	s.Set(key, "cachedContents/short", 3*time.Second)
	s.c.Wait()
	if _, ok := s.Get(key); ok {
		t.Error("entry stored despite ttl within the safety buffer")
	}

	s.Set(key, "cachedContents/long", time.Hour)
	s.c.Wait()
	if handle, ok := s.Get(key); !ok || handle != "cachedContents/long" {
		t.Errorf("Get = (%q, %v), want the long-ttl handle", handle, ok)
	}
}

func TestExpiredEntryDroppedOnRead(t *testing.T) {
	s := newTestStore(t, -1)
	key := testKey("dddd")

	// the framed expiry governs even when the backing cache still holds
	// the bytes
	now := time.Now()
	b, err := wire.Encode(wire.Entry{
		Handle:    "cachedContents/stale",
		CreatedAt: now.Add(-time.Hour).UnixNano(),
		ExpiresAt: now.Add(-time.Second).UnixNano(),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s.c.Set(key.Storage(), b, 1)
	s.c.Wait()

	if _, ok := s.Get(key); ok {
		t.Error("hit for an entry past its framed expiry")
	}
}

func TestCorruptEntrySelfHeals(t *testing.T) {
	s := newTestStore(t, -1)

	junk := testKey("eeee")
	s.c.Set(junk.Storage(), []byte("not a framed entry"), 1)
	s.c.Wait()
	if _, ok := s.Get(junk); ok {
		t.Error("hit for a corrupt value")
	}
	if _, ok := s.Get(junk); ok {
		t.Error("corrupt value survived the first read")
	}

	// unexpected value type is treated the same way
	wrong := testKey("ffff")
	s.c.Set(wrong.Storage(), 42, 1)
	s.c.Wait()
	if _, ok := s.Get(wrong); ok {
		t.Error("hit for a non-byte value")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	s := newTestStore(t, -1)
	k1, k2 := testKey("1111"), testKey("2222")

	s.Set(k1, "cachedContents/one", time.Hour)
	s.Set(k2, "cachedContents/two", time.Hour)
	s.c.Wait()

	s.Invalidate(k1)
	s.c.Wait()
	if _, ok := s.Get(k1); ok {
		t.Error("key survived Invalidate")
	}
	if _, ok := s.Get(k2); !ok {
		t.Error("Invalidate removed an unrelated key")
	}

	s.Clear()
	if _, ok := s.Get(k2); ok {
		t.Error("key survived Clear")
	}
}

func TestIntrospectionIsBestEffort(t *testing.T) {
	s := newTestStore(t, -1)
	s.Set(testKey("3333"), "cachedContents/x", time.Hour)
	s.c.Wait()

	// documented no-ops: ristretto cannot enumerate entries
	if got := s.CleanupExpired(); got != 0 {
		t.Errorf("CleanupExpired = %d, want 0", got)
	}
	if got := s.Stats(); got.TotalEntries != 0 {
		t.Errorf("Stats = %+v, want zero value", got)
	}
}
