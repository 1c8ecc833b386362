package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/ctxcache"
	"github.com/unkn0wn-root/ctxcache/cachekey"
)

type Options struct {
	// Sampling for the hot-path local hit/miss events; 0/1 = log all.
	HitMissEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix of the storage key.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ ctxcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k cachekey.Key) string {
	s := k.Storage()
	if h.opts.Redact != nil {
		return h.opts.Redact(s)
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) LocalHit(k cachekey.Key) {
	if h.l == nil || !sample(h.opts.HitMissEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("ctxcache.local_hit",
		"key", h.redact(k),
		"provider", k.Scope.Provider)
}

func (h *Hooks) LocalMiss(k cachekey.Key) {
	if h.l == nil || !sample(h.opts.HitMissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("ctxcache.local_miss",
		"key", h.redact(k),
		"provider", k.Scope.Provider)
}

func (h *Hooks) RemoteHit(k cachekey.Key, remaining time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Debug("ctxcache.remote_hit",
		"key", h.redact(k),
		"remaining", remaining)
}

func (h *Hooks) RemoteExpired(k cachekey.Key) {
	if h.l == nil {
		return
	}
	h.l.Info("ctxcache.remote_expired",
		"key", h.redact(k))
}

func (h *Hooks) LookupDenied(k cachekey.Key) {
	if h.l == nil {
		return
	}
	h.l.Warn("ctxcache.lookup_denied",
		"key", h.redact(k),
		"project", k.Scope.Project)
}

func (h *Hooks) RemoteCreated(k cachekey.Key, handle string) {
	if h.l == nil {
		return
	}
	h.l.Info("ctxcache.remote_created",
		"key", h.redact(k),
		"handle", handle)
}

func (h *Hooks) MalformedTTL(raw string) {
	if h.l == nil {
		return
	}
	h.l.Warn("ctxcache.malformed_ttl",
		"ttl", raw)
}
