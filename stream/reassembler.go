// Package stream turns a chunked byte stream — arbitrary-length reads off a
// socket, with no guarantee a chunk boundary lines up with a packet boundary
// — into a sequence of whole decoded packets. Grounded in the teacher's
// client.go unpack() reader loop, generalized from a blocking io.Reader read
// to explicit chunk-at-a-time feeding so header and payload fragmentation
// across reads is handled instead of assumed away.
package stream

import (
	"errors"

	"github.com/golang-io/mqtt5/packet"
	"github.com/golang-io/mqtt5/wire"
)

// Reassembler accumulates chunks and emits whole packets as soon as each one
// is fully buffered. It is not safe for concurrent use from multiple
// goroutines; the session engine feeds it from a single reader loop.
type Reassembler struct {
	carry []byte
	opts  packet.PublishDeserializeOptions
}

// New returns an empty Reassembler that decodes Publish payloads using the
// default PayloadFormatIndicator option. Use NewWithOptions to honor a
// configured packet.PublishDeserializeOptions instead.
func New() *Reassembler {
	return &Reassembler{opts: packet.PayloadFormatIndicator}
}

// NewWithOptions returns an empty Reassembler that decodes every Publish's
// payload using opts (see packet.PublishDeserializeOptions) instead of the
// PayloadFormatIndicator default.
func NewWithOptions(opts packet.PublishDeserializeOptions) *Reassembler {
	return &Reassembler{opts: opts}
}

// Feed appends chunk to any carried-over partial packet and decodes as many
// whole packets as are now available. A decode error is returned immediately
// alongside whatever packets decoded before it; the Reassembler does not
// attempt to resynchronize on a malformed packet, since byte offsets past a
// corrupt remaining-length are meaningless.
func (re *Reassembler) Feed(chunk []byte) ([]packet.Packet, error) {
	buf := chunk
	if len(re.carry) > 0 {
		buf = append(append([]byte(nil), re.carry...), chunk...)
		re.carry = nil
	}

	var out []packet.Packet
	r := wire.NewReader(buf)
	for r.Remaining() > 0 {
		p := r.Position()

		h, err := packet.ReadFixedHeader(r)
		if err != nil {
			if errors.Is(err, wire.ErrBufferUnderflow) {
				r.SetPosition(p)
				re.carry = append([]byte(nil), buf[p:]...)
				return out, nil
			}
			return out, err
		}

		if r.Remaining() < int(h.RemainingLength) {
			r.SetPosition(p)
			re.carry = append([]byte(nil), buf[p:]...)
			return out, nil
		}

		body, err := r.SubReader(int(h.RemainingLength))
		if err != nil {
			return out, err
		}
		pk, err := packet.DecodeWithOptions(h, body, re.opts)
		if err != nil {
			return out, err
		}
		out = append(out, pk)
	}
	return out, nil
}
