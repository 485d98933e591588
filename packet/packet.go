package packet

import (
	"fmt"
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// Packet is the tagged union over MQTT5 control packet types: one
// concrete struct per type, reached through the dispatch table in
// Decode. Grounded in the teacher's packet.Packet interface and
// packet.Unpack switch in packet/packet.go, generalized into a table.
type Packet interface {
	Kind() ControlPacketType
	// Pack serializes the packet and writes it to dst.
	Pack(dst io.Writer) error
}

type decodeFunc func(h FixedHeader, r *wire.Reader) (Packet, error)

var decoders = map[ControlPacketType]decodeFunc{
	KindConnect:     decodeConnect,
	KindConnAck:     decodeConnAck,
	KindPublish:     decodePublish,
	KindPubAck:      decodePubAckRecRelComp,
	KindPubRec:      decodePubAckRecRelComp,
	KindPubRel:      decodePubAckRecRelComp,
	KindPubComp:     decodePubAckRecRelComp,
	KindSubscribe:   decodeSubscribe,
	KindSubAck:      decodeSubAck,
	KindUnsubscribe: decodeUnsubscribe,
	KindUnsubAck:    decodeUnsubAck,
	KindPingReq:     decodePingReq,
	KindPingResp:    decodePingResp,
	KindDisconnect:  decodeDisconnect,
	KindAuth:        decodeAuth,
}

// Decode reads exactly h.RemainingLength bytes' worth of variable header
// and payload from r and returns the typed Packet. Callers (the
// reassembler, or a direct caller holding a full frame) are expected to
// have already read the fixed header with ReadFixedHeader and to pass a
// Reader bounded to the frame (wire.Reader.SubReader(int(h.RemainingLength))).
//
// Decode always decodes Publish payloads with the PayloadFormatIndicator
// option; callers that need to honor a configured
// PublishDeserializeOptions (the session engine, via its reassembler)
// should call DecodeWithOptions instead.
func Decode(h FixedHeader, body *wire.Reader) (Packet, error) {
	return DecodeWithOptions(h, body, PayloadFormatIndicator)
}

// DecodeWithOptions is Decode, but decodes a Publish payload using the
// given PublishDeserializeOptions instead of the PayloadFormatIndicator
// default. opts is ignored for every other control packet type.
func DecodeWithOptions(h FixedHeader, body *wire.Reader, opts PublishDeserializeOptions) (Packet, error) {
	if h.Type == KindPublish {
		return decodePublishWithOptions(h, body, opts)
	}
	fn, ok := decoders[h.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown control packet type %d", ErrMalformedPacket, h.Type)
	}
	return fn(h, body)
}

// pack borrows a pooled writer, fills it via fn, writes the finalized frame to
// dst, and returns the pooled writer regardless of outcome.
func pack(dst io.Writer, firstByte byte, fn func(w *wire.Writer) error) error {
	w := getWriter()
	defer putWriter(w)
	w.ReserveHeader()
	if err := fn(w); err != nil {
		return err
	}
	out, err := w.FinalizeMessage(firstByte)
	if err != nil {
		return err
	}
	_, err = dst.Write(out)
	return err
}
