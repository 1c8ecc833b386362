package store

import (
	"sync"
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
)

type memEntry struct {
	handle    string
	createdAt time.Time
	ttl       time.Duration
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Memory is the canonical in-process Store: a mutex-guarded map with lazy
// expiry and an optional background sweep. One instance is shared by all
// request-handling goroutines for the lifetime of the process.
type Memory struct {
	mu      sync.Mutex
	entries map[cachekey.Key]memEntry

	buffer time.Duration
	now    func() time.Time

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// MemoryConfig tunes a Memory store. The zero value is ready to use.
type MemoryConfig struct {
	// SafetyBuffer subtracted from every stored TTL.
	// 0 => DefaultSafetyBuffer; negative => no buffer.
	SafetyBuffer time.Duration

	// SweepInterval enables a background loop calling CleanupExpired.
	// 0 => lazy expiry only.
	SweepInterval time.Duration
}

func NewMemory(cfg MemoryConfig) *Memory {
	buffer := cfg.SafetyBuffer
	if buffer == 0 {
		buffer = DefaultSafetyBuffer
	}
	if buffer < 0 {
		buffer = 0
	}

	m := &Memory{
		entries: make(map[cachekey.Key]memEntry),
		buffer:  buffer,
		now:     time.Now,
	}

	if cfg.SweepInterval > 0 {
		m.ticker = time.NewTicker(cfg.SweepInterval)
		m.stopCh = make(chan struct{})
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-m.ticker.C:
					m.CleanupExpired()
				case <-m.stopCh:
					return
				}
			}
		}()
	}
	return m
}

var _ Store = (*Memory)(nil)

func (m *Memory) Get(key cachekey.Key) (string, bool) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if e.expired(now) {
		delete(m.entries, key)
		return "", false
	}
	return e.handle, true
}

func (m *Memory) Set(key cachekey.Key, handle string, ttl time.Duration) {
	now := m.now()
	adjusted := EffectiveTTL(ttl, m.buffer)

	m.mu.Lock()
	m.entries[key] = memEntry{
		handle:    handle,
		createdAt: now,
		ttl:       adjusted,
		expiresAt: now.Add(adjusted),
	}
	m.mu.Unlock()
}

func (m *Memory) Invalidate(key cachekey.Key) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[cachekey.Key]memEntry)
	m.mu.Unlock()
}

func (m *Memory) CleanupExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Stats counts entries without pruning them.
func (m *Memory) Stats() Stats {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{TotalEntries: len(m.entries)}
	for _, e := range m.entries {
		if e.expired(now) {
			s.ExpiredEntries++
		}
	}
	s.ValidEntries = s.TotalEntries - s.ExpiredEntries
	return s
}

func (m *Memory) Close() error {
	m.once.Do(func() {
		if m.stopCh != nil {
			close(m.stopCh)
			m.ticker.Stop()
			m.wg.Wait()
		}
	})
	return nil
}
