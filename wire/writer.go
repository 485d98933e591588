package wire

import (
	"encoding/binary"
	"math"
)

// maxHeaderReserve is the widest possible MQTT fixed header: one control
// byte plus a 4-byte variable-byte remaining length.
const maxHeaderReserve = 5

// Writer accumulates an encoded packet body into a growable buffer. Callers
// encode the variable header, properties, and payload first, then call
// FinalizeMessage once to backfill the fixed header in front of what was
// written — no second pass over the payload bytes.
type Writer struct {
	buf      []byte
	reserved int // offset where ReserveHeader left room; -1 if not reserved
}

// NewWriter returns a Writer with a fresh buffer of the given starting
// capacity (0 is fine; the buffer grows by doubling as needed).
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity), reserved: -1}
}

// Reset empties the buffer for reuse, keeping its underlying capacity.
// Grounded in the teacher's packet.GetBuffer/PutBuffer pooling idiom: the
// codec borrows a Writer from a pool per encode and resets it on return.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.reserved = -1
}

// Bytes returns the bytes written so far. Valid until the next call that
// mutates the Writer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) grow(n int) {
	if cap(w.buf)-len(w.buf) >= n {
		return
	}
	need := len(w.buf) + n
	newCap := cap(w.buf) * 2
	if newCap < need {
		newCap = need
	}
	nb := make([]byte, len(w.buf), newCap)
	copy(nb, w.buf)
	w.buf = nb
}

func (w *Writer) append(b ...byte) {
	w.grow(len(b))
	w.buf = append(w.buf, b...)
}

// Uint8 writes one byte.
func (w *Writer) Uint8(v uint8) { w.append(v) }

// Int8 writes one signed byte.
func (w *Writer) Int8(v int8) { w.append(byte(v)) }

// Uint16 writes a big-endian uint16.
func (w *Writer) Uint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.append(b[:]...)
}

// Int16 writes a big-endian int16.
func (w *Writer) Int16(v int16) { w.Uint16(uint16(v)) }

// Uint32 writes a big-endian uint32.
func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.append(b[:]...)
}

// Int32 writes a big-endian int32.
func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }

// Uint64 writes a big-endian uint64.
func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.append(b[:]...)
}

// Int64 writes a big-endian int64.
func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

// Float32 writes a big-endian IEEE-754 single-precision float.
func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }

// Float64 writes a big-endian IEEE-754 double-precision float.
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

// Write writes raw bytes verbatim.
func (w *Writer) Write(b []byte) { w.append(b...) }

// UTF8 writes s as raw bytes with no length prefix.
func (w *Writer) UTF8(s string) { w.append([]byte(s)...) }

// LengthPrefixedUTF8 writes a two-byte big-endian length followed by s.
func (w *Writer) LengthPrefixedUTF8(s string) {
	w.Uint16(uint16(len(s)))
	w.UTF8(s)
}

// LengthPrefixedBytes writes a two-byte big-endian length followed by b.
func (w *Writer) LengthPrefixedBytes(b []byte) {
	w.Uint16(uint16(len(b)))
	w.Write(b)
}

// VarInt writes n as an MQTT variable-byte integer (1-4 bytes). It returns
// ErrVarIntTooLarge for n > MaxVarInt without writing anything.
func (w *Writer) VarInt(n uint32) error {
	if n > MaxVarInt {
		return ErrVarIntTooLarge
	}
	for {
		b := byte(n % 128)
		n /= 128
		if n > 0 {
			b |= 0x80
		}
		w.append(b)
		if n == 0 {
			break
		}
	}
	return nil
}

// varIntLen returns the number of bytes VarInt would emit for n.
func varIntLen(n uint32) int {
	l := 1
	for n >= 128 {
		n /= 128
		l++
	}
	return l
}

// ReserveHeader reserves the maximum fixed-header width (5 bytes) at the
// current write position so the payload that follows can be written
// without knowing its own length in advance. Call FinalizeMessage once the
// payload is complete.
func (w *Writer) ReserveHeader() {
	w.reserved = len(w.buf)
	w.grow(maxHeaderReserve)
	w.buf = append(w.buf, make([]byte, maxHeaderReserve)...)
}

// FinalizeMessage computes the remaining length from the bytes written
// since ReserveHeader, backfills the control byte (firstByte = type<<4 |
// flags) and the encoded variable-byte length into the reserved region,
// and returns the complete packet bytes. It must be called exactly once,
// after ReserveHeader and after all payload bytes are written.
func (w *Writer) FinalizeMessage(firstByte byte) ([]byte, error) {
	if w.reserved < 0 {
		panic("wire: FinalizeMessage called without ReserveHeader")
	}
	remaining := uint32(len(w.buf) - w.reserved - maxHeaderReserve)
	if remaining > MaxVarInt {
		return nil, ErrVarIntTooLarge
	}
	hlen := 1 + varIntLen(remaining)
	delta := maxHeaderReserve - hlen
	payloadStart := w.reserved + maxHeaderReserve
	if delta > 0 {
		copy(w.buf[w.reserved+hlen:], w.buf[payloadStart:])
		w.buf = w.buf[:len(w.buf)-delta]
	}
	w.buf[w.reserved] = firstByte
	tmp := NewWriter(4)
	_ = tmp.VarInt(remaining)
	copy(w.buf[w.reserved+1:], tmp.Bytes())
	w.reserved = -1
	return w.buf, nil
}
