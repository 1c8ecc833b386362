// Package wire frames cache entries for byte-oriented stores.
//
// Stores that can only hold opaque bytes (ristretto, bigcache) persist the
// remote handle together with its timestamps so expiry can be validated on
// read. Framing is strict: unknown magic, version, bad bounds, or trailing
// bytes are all treated as corruption.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("ctxcache: corrupt entry")
	magic4     = [...]byte{'C', 'T', 'X', 'C'}
)

// Entry is the stored form of a local cache entry.
type Entry struct {
	Handle    string
	CreatedAt int64 // unix nanos
	ExpiresAt int64 // unix nanos
}

// Layout: magic(4) | ver(1) | hlen(u16 be) | handle(hlen) | created(i64 be) | expires(i64 be)
func Encode(e Entry) ([]byte, error) {
	if l := len(e.Handle); l == 0 || l > 0xFFFF {
		return nil, errors.New("ctxcache: invalid handle length")
	}

	var buf bytes.Buffer
	buf.Grow(4 + 1 + 2 + len(e.Handle) + 8 + 8)

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u2 [2]byte
	var u8 [8]byte

	binary.BigEndian.PutUint16(u2[:], uint16(len(e.Handle)))
	buf.Write(u2[:])
	buf.WriteString(e.Handle)

	binary.BigEndian.PutUint64(u8[:], uint64(e.CreatedAt))
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.ExpiresAt))
	buf.Write(u8[:])

	return buf.Bytes(), nil
}

func Decode(b []byte) (Entry, error) {
	const hdr = 4 + 1 + 2
	if len(b) < hdr || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Entry{}, ErrCorrupt
	}

	off := 5
	hlen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if hlen == 0 || hlen > len(b)-off-16 {
		return Entry{}, ErrCorrupt
	}

	handle := string(b[off : off+hlen])
	off += hlen

	created := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	expires := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	if off != len(b) { // strict framing: no trailing bytes
		return Entry{}, ErrCorrupt
	}

	return Entry{Handle: handle, CreatedAt: created, ExpiresAt: expires}, nil
}
