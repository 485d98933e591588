// Package wire implements the positioned byte cursors that the packet codec
// and the stream reassembler build on: big-endian integers, length-prefixed
// UTF-8 strings, and MQTT's variable-byte integer, all without copying the
// backing buffer unless the caller asks for an owned copy.
package wire

import (
	"encoding/binary"
	"math"
)

// Reader is a cursor over a borrowed byte slice. The zero value is not
// usable; construct with NewReader.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for reading starting at position 0. buf is not
// copied; callers must not mutate it while the Reader (or any SubReader
// taken from it) is in use.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current read offset.
func (r *Reader) Position() int { return r.pos }

// SetPosition rewinds or advances the cursor to an absolute offset.
func (r *Reader) SetPosition(p int) { r.pos = p }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Len returns the total length of the backing buffer.
func (r *Reader) Len() int { return len(r.buf) }

func (r *Reader) need(n int) error {
	if n < 0 || r.Remaining() < n {
		return ErrBufferUnderflow
	}
	return nil
}

// Uint8 reads one unsigned byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// Int8 reads one signed byte.
func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

// Uint16 reads a big-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// Int16 reads a big-endian int16.
func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// Int32 reads a big-endian int32.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Uint64 reads a big-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// Int64 reads a big-endian int64.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Float32 reads a big-endian IEEE-754 single-precision float.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// Float64 reads a big-endian IEEE-754 double-precision float.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Bytes returns a zero-copy sub-slice of the next n bytes and advances the
// cursor past them. The returned slice aliases the Reader's backing array
// and must not be retained past the lifetime of the chunk it came from.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// CopyBytes is like Bytes but returns an owned copy, safe to retain beyond
// the chunk's lifetime.
func (r *Reader) CopyBytes(n int) ([]byte, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// UTF8 reads n raw bytes and returns them as a string without validating
// UTF-8; callers needing strict UTF-8 validation (Publish payload decoding)
// perform that check themselves using the returned string.
func (r *Reader) UTF8(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LengthPrefixedUTF8 reads a two-byte big-endian length followed by that
// many bytes of UTF-8 text — the shape used throughout MQTT for topic
// names, client identifiers, property strings, and so on.
func (r *Reader) LengthPrefixedUTF8() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	return r.UTF8(int(n))
}

// LengthPrefixedBytes reads a two-byte big-endian length followed by that
// many bytes of binary data, zero-copy.
func (r *Reader) LengthPrefixedBytes() ([]byte, error) {
	n, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// SubReader carves out a Reader bounded to the next n bytes and advances
// the outer cursor by n. The returned Reader aliases the same backing
// array.
func (r *Reader) SubReader(n int) (*Reader, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: b}, nil
}

// VarInt reads an MQTT variable-byte integer (remaining-length encoding):
// 7 bits per byte, MSB as continuation, 1-4 bytes, value up to MaxVarInt.
func (r *Reader) VarInt() (uint32, error) {
	var value uint32
	var multiplier uint32 = 1
	for i := 0; i < 4; i++ {
		b, err := r.Uint8()
		if err != nil {
			return 0, err
		}
		value += uint32(b&0x7f) * multiplier
		if b&0x80 == 0 {
			return value, nil
		}
		multiplier *= 128
	}
	return 0, ErrVarIntTooLong
}
