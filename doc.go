// Package ctxcache implements the context-cache orchestration layer of a
// multi-provider LLM request gateway: it keeps large, repeated prompt
// prefixes out of generation requests by resolving them to remote cache
// handles.
//
// Components:
//   - message.Partition: splits a message list into its cacheable prefix
//     and the remainder.
//   - cachekey.Builder: derives a scoped, content-addressed key from the
//     prefix plus tool definitions.
//   - store.Store: process-local, TTL-bounded map from scoped key to
//     remote handle (Memory by default; ristretto/bigcache adapters).
//   - remote.Gateway: the authoritative remote cache service (lookup by
//     display name, create).
//
// Resolve walks local store -> remote lookup -> remote create, populating
// the local store after each successful remote call. The warm path makes
// no network calls; the remote service stays the source of truth. Locally
// tracked TTLs are shortened by a safety buffer so a handle is never used
// after the remote side discarded it.
package ctxcache
