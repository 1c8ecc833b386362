// Package cachekey derives scoped, content-addressed keys for remote cache
// entries.
//
// A key has two halves: a content hash over the cacheable messages plus any
// tool definitions, and the scope dimensions (provider, project, location)
// that partition the cache namespace. Keys are structured values, not
// delimiter-joined strings, so differently-shaped scopes can never collide:
// a provider with no project concept simply leaves those fields empty, and
// the provider field itself keeps the shapes apart.
package cachekey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/unkn0wn-root/ctxcache/codec"
	"github.com/unkn0wn-root/ctxcache/message"
)

// Scope identifies the tenant dimensions a cache entry belongs to.
// Identical content under different scopes must never share an entry.
type Scope struct {
	Provider string // e.g. "vertex_ai", "gemini"
	Project  string // tenant/project id; empty when the provider has none
	Location string // region; empty when the provider has none
}

// Key is the full scoped cache key. It is comparable and used directly as
// a map key by the in-memory store.
type Key struct {
	Scope   Scope
	Content string // hex content hash from Builder.ContentKey
}

// Storage returns a flat string form of the key for byte-oriented stores.
// Every dimension is length-prefixed before hashing, so no combination of
// dimension values can produce a colliding storage key.
func (k Key) Storage() string {
	h := sha256.New()
	var n [4]byte
	for _, dim := range []string{k.Scope.Provider, k.Scope.Project, k.Scope.Location, k.Content} {
		binary.BigEndian.PutUint32(n[:], uint32(len(dim)))
		h.Write(n[:])
		h.Write([]byte(dim))
	}
	sum := h.Sum(nil)
	return fmt.Sprintf("ctx:%s:%s", k.Scope.Provider, hex.EncodeToString(sum[:16]))
}

// Builder computes content keys using a deterministic encoder.
type Builder struct {
	enc codec.Encoder
}

// NewBuilder returns a Builder hashing over enc's output.
// enc must be deterministic (see codec package).
func NewBuilder(enc codec.Encoder) Builder {
	return Builder{enc: enc}
}

// contentPayload fixes the serialized shape of the hashed content.
// Field order matters: reordering inputs must change the key.
type contentPayload struct {
	Messages []message.Message `json:"messages"`
	Tools    any               `json:"tools,omitempty"`
}

// ContentKey returns the hex content hash of the cacheable messages plus
// tool definitions. Byte-identical inputs always hash to the same key;
// permuting message order changes it.
func (b Builder) ContentKey(msgs []message.Message, tools any) (string, error) {
	raw, err := b.enc.Marshal(contentPayload{Messages: msgs, Tools: tools})
	if err != nil {
		return "", fmt.Errorf("cachekey: encode content: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Key scopes a content key with the given dimensions.
func (b Builder) Key(contentKey string, scope Scope) Key {
	return Key{Scope: scope, Content: contentKey}
}
