package packet

import (
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// PubAckLike is the shared shape of PUBACK, PUBREC, PUBREL and PUBCOMP
// (types 4/5/6/7): packet identifier, then — only if the reason code isn't
// Success with no properties — a reason code and properties. PubRel alone
// carries fixed-header flags 0b0010; the other three carry 0.
type PubAckLike struct {
	kind             ControlPacketType
	PacketIdentifier uint16
	ReasonCode       ReasonCode
	Properties       *Properties
}

// NewPubAck, NewPubRec, NewPubRel, NewPubComp construct the corresponding
// PubAckLike packet with its kind fixed.
func NewPubAck(id uint16) *PubAckLike  { return &PubAckLike{kind: KindPubAck, PacketIdentifier: id, ReasonCode: Success} }
func NewPubRec(id uint16) *PubAckLike  { return &PubAckLike{kind: KindPubRec, PacketIdentifier: id, ReasonCode: Success} }
func NewPubRel(id uint16) *PubAckLike  { return &PubAckLike{kind: KindPubRel, PacketIdentifier: id, ReasonCode: Success} }
func NewPubComp(id uint16) *PubAckLike { return &PubAckLike{kind: KindPubComp, PacketIdentifier: id, ReasonCode: Success} }

func (p *PubAckLike) Kind() ControlPacketType { return p.kind }

func (p *PubAckLike) short() bool {
	return p.ReasonCode.Code == Success.Code && p.Properties == nil
}

func (p *PubAckLike) Pack(dst io.Writer) error {
	var flags byte
	if p.kind == KindPubRel {
		flags = 0b0010
	}
	return pack(dst, byte(p.kind)<<4|flags, func(w *wire.Writer) error {
		w.Uint16(p.PacketIdentifier)
		if p.short() {
			return nil
		}
		w.Uint8(p.ReasonCode.Code)
		return WritePropertiesWithLength(w, p.Properties)
	})
}

func decodePubAckRecRelComp(h FixedHeader, r *wire.Reader) (Packet, error) {
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	p := &PubAckLike{kind: h.Type, PacketIdentifier: id, ReasonCode: Success}
	if r.Remaining() == 0 {
		return p, nil
	}
	code, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	p.ReasonCode = ReasonCode{Code: code, Reason: reasonText(code)}
	if r.Remaining() == 0 {
		return p, nil
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	p.Properties = props
	return p, nil
}
