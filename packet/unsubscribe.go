package packet

import (
	"fmt"
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// Unsubscribe is the UNSUBSCRIBE control packet (type=10, flags=0b0010).
type Unsubscribe struct {
	PacketIdentifier uint16
	Properties       *Properties
	TopicFilters     []string
}

func (p *Unsubscribe) Kind() ControlPacketType { return KindUnsubscribe }

func (p *Unsubscribe) Pack(dst io.Writer) error {
	if len(p.TopicFilters) == 0 {
		return fmt.Errorf("%w: unsubscribe with empty topic filter list", ErrPolicyViolation)
	}
	return pack(dst, byte(KindUnsubscribe)<<4|0b0010, func(w *wire.Writer) error {
		w.Uint16(p.PacketIdentifier)
		if err := WritePropertiesWithLength(w, p.Properties); err != nil {
			return err
		}
		for _, f := range p.TopicFilters {
			w.LengthPrefixedUTF8(f)
		}
		return nil
	})
}

func decodeUnsubscribe(h FixedHeader, r *wire.Reader) (Packet, error) {
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	p := &Unsubscribe{PacketIdentifier: id, Properties: props}
	for r.Remaining() > 0 {
		f, err := r.LengthPrefixedUTF8()
		if err != nil {
			return nil, err
		}
		p.TopicFilters = append(p.TopicFilters, f)
	}
	if len(p.TopicFilters) == 0 {
		return nil, fmt.Errorf("%w: unsubscribe with empty topic filter list", ErrMalformedPacket)
	}
	return p, nil
}

// UnsubAck is the UNSUBACK control packet (type=11, flags=0).
type UnsubAck struct {
	PacketIdentifier uint16
	Properties       *Properties
	ReasonCodes      []ReasonCode
}

func (p *UnsubAck) Kind() ControlPacketType { return KindUnsubAck }

func (p *UnsubAck) Pack(dst io.Writer) error {
	if len(p.ReasonCodes) == 0 {
		return fmt.Errorf("%w: unsuback with empty reason-code list", ErrPolicyViolation)
	}
	return pack(dst, byte(KindUnsubAck)<<4, func(w *wire.Writer) error {
		w.Uint16(p.PacketIdentifier)
		if err := WritePropertiesWithLength(w, p.Properties); err != nil {
			return err
		}
		for _, rc := range p.ReasonCodes {
			w.Uint8(rc.Code)
		}
		return nil
	})
}

func decodeUnsubAck(h FixedHeader, r *wire.Reader) (Packet, error) {
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	p := &UnsubAck{PacketIdentifier: id, Properties: props}
	for r.Remaining() > 0 {
		code, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		p.ReasonCodes = append(p.ReasonCodes, ReasonCode{Code: code, Reason: reasonText(code)})
	}
	if len(p.ReasonCodes) == 0 {
		return nil, fmt.Errorf("%w: unsuback with empty reason-code list", ErrMalformedPacket)
	}
	return p, nil
}
