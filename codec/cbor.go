package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR is an Encoder using RFC 8949 Core Deterministic encoding, giving
// byte-for-byte stable output for content addressing.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
type CBOR struct {
	enc cbor.EncMode
}

var _ Encoder = CBOR{}

// NewCBOR constructs a deterministic CBOR encoder.
// Time values are encoded as RFC3339Nano for stable, human-readable timestamps.
func NewCBOR() (CBOR, error) {
	eo := cbor.CoreDetEncOptions()
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em}, nil
}

// MustCBOR is like NewCBOR but panics on error. The deterministic encode
// options are static, so this cannot fail in practice.
func MustCBOR() CBOR {
	c, err := NewCBOR()
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}
