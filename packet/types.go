package packet

import (
	"fmt"

	"github.com/golang-io/mqtt5/wire"
)

// ControlPacketType is the 4-bit type field of the fixed header.
type ControlPacketType byte

// The 14 MQTT5 control packet types plus Reserved. Grounded in the
// teacher's mqtt.go constant block. Named with a Kind prefix so each
// constant doesn't collide with the identically-named struct that carries
// that packet type's fields (e.g. KindConnect the constant, Connect the
// struct).
const (
	KindReserved ControlPacketType = iota
	KindConnect
	KindConnAck
	KindPublish
	KindPubAck
	KindPubRec
	KindPubRel
	KindPubComp
	KindSubscribe
	KindSubAck
	KindUnsubscribe
	KindUnsubAck
	KindPingReq
	KindPingResp
	KindDisconnect
	KindAuth
)

var typeNames = map[ControlPacketType]string{
	KindReserved: "RESERVED", KindConnect: "CONNECT", KindConnAck: "CONNACK",
	KindPublish: "PUBLISH", KindPubAck: "PUBACK", KindPubRec: "PUBREC", KindPubRel: "PUBREL",
	KindPubComp: "PUBCOMP", KindSubscribe: "SUBSCRIBE", KindSubAck: "SUBACK",
	KindUnsubscribe: "UNSUBSCRIBE", KindUnsubAck: "UNSUBACK", KindPingReq: "PINGREQ",
	KindPingResp: "PINGRESP", KindDisconnect: "DISCONNECT", KindAuth: "AUTH",
}

func (t ControlPacketType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("ControlPacketType(%d)", t)
}

// expectedFlags is the reserved flag nibble every type other than Publish
// must carry exactly. Publish's flags are semantic (dup/qos/retain) and
// validated separately.
var expectedFlags = map[ControlPacketType]byte{
	KindConnect: 0, KindConnAck: 0, KindPubAck: 0, KindPubRec: 0, KindPubRel: 0b0010, KindPubComp: 0,
	KindSubscribe: 0b0010, KindSubAck: 0, KindUnsubscribe: 0b0010, KindUnsubAck: 0,
	KindPingReq: 0, KindPingResp: 0, KindDisconnect: 0, KindAuth: 0,
}

// FixedHeader is the 2-5 leading bytes of every control packet.
type FixedHeader struct {
	Type            ControlPacketType
	Flags           byte
	RemainingLength uint32
}

// ReadFixedHeader reads the first byte and the variable-byte remaining
// length off r. It returns wire.ErrBufferUnderflow if there are not enough
// bytes for even the first byte, and propagates wire.ErrVarIntTooLong
// unchanged so the reassembly transformer can distinguish "need more bytes"
// from "this stream is corrupt" — see stream.Reassembler.
func ReadFixedHeader(r *wire.Reader) (FixedHeader, error) {
	b, err := r.Uint8()
	if err != nil {
		return FixedHeader{}, err
	}
	typ := ControlPacketType(b >> 4)
	flags := b & 0x0f
	if typ == KindReserved {
		return FixedHeader{}, fmt.Errorf("%w: reserved control packet type", ErrMalformedPacket)
	}
	if typ != KindPublish {
		if want, ok := expectedFlags[typ]; ok && flags != want {
			return FixedHeader{}, fmt.Errorf("%w: %s flags 0b%04b, want 0b%04b", ErrMalformedPacket, typ, flags, want)
		}
	}
	length, err := r.VarInt()
	if err != nil {
		return FixedHeader{}, err
	}
	return FixedHeader{Type: typ, Flags: flags, RemainingLength: length}, nil
}
