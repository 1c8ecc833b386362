// Package codec provides the serialization used when deriving content keys.
//
// An Encoder must be deterministic: encoding equal values twice yields
// identical bytes, regardless of map iteration order. The default encoder
// used by ctxcache is deterministic CBOR.
package codec

// Encoder serializes a value to bytes for hashing.
type Encoder interface {
	Marshal(v any) ([]byte, error)
}
