package packet

import (
	"fmt"
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// Subscription is one entry of a Subscribe payload: a topic filter plus its
// per-subscription options byte fields.
type Subscription struct {
	TopicFilter       string
	QoS               uint8
	NoLocal           bool
	RetainAsPublished bool
	// RetainHandling: 0 = send retained messages at subscribe time,
	// 1 = send only for new subscriptions, 2 = never send.
	RetainHandling uint8
}

func (s Subscription) optionsByte() (byte, error) {
	if s.QoS > 2 {
		return 0, fmt.Errorf("%w: subscription qos %d", ErrPolicyViolation, s.QoS)
	}
	if s.RetainHandling > 2 {
		return 0, fmt.Errorf("%w: retain handling %d", ErrPolicyViolation, s.RetainHandling)
	}
	b := s.QoS & 0x3
	if s.NoLocal {
		b |= 1 << 2
	}
	if s.RetainAsPublished {
		b |= 1 << 3
	}
	b |= (s.RetainHandling & 0x3) << 4
	return b, nil
}

// Subscribe is the SUBSCRIBE control packet (type=8, flags=0b0010).
type Subscribe struct {
	PacketIdentifier uint16
	Properties       *Properties
	Subscriptions    []Subscription
}

func (p *Subscribe) Kind() ControlPacketType { return KindSubscribe }

func (p *Subscribe) Pack(dst io.Writer) error {
	if len(p.Subscriptions) == 0 {
		return fmt.Errorf("%w: subscribe with empty subscription list", ErrPolicyViolation)
	}
	return pack(dst, byte(KindSubscribe)<<4|0b0010, func(w *wire.Writer) error {
		w.Uint16(p.PacketIdentifier)
		if err := WritePropertiesWithLength(w, p.Properties); err != nil {
			return err
		}
		for _, s := range p.Subscriptions {
			w.LengthPrefixedUTF8(s.TopicFilter)
			b, err := s.optionsByte()
			if err != nil {
				return err
			}
			w.Uint8(b)
		}
		return nil
	})
}

func decodeSubscribe(h FixedHeader, r *wire.Reader) (Packet, error) {
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	p := &Subscribe{PacketIdentifier: id, Properties: props}
	for r.Remaining() > 0 {
		filter, err := r.LengthPrefixedUTF8()
		if err != nil {
			return nil, err
		}
		opts, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		if opts&0xC0 != 0 {
			return nil, fmt.Errorf("%w: subscription options reserved bits set", ErrMalformedPacket)
		}
		p.Subscriptions = append(p.Subscriptions, Subscription{
			TopicFilter:       filter,
			QoS:               opts & 0x3,
			NoLocal:           opts&(1<<2) != 0,
			RetainAsPublished: opts&(1<<3) != 0,
			RetainHandling:    (opts >> 4) & 0x3,
		})
	}
	if len(p.Subscriptions) == 0 {
		return nil, fmt.Errorf("%w: subscribe with empty subscription list", ErrMalformedPacket)
	}
	return p, nil
}

// SubAck is the SUBACK control packet (type=9, flags=0).
type SubAck struct {
	PacketIdentifier uint16
	Properties       *Properties
	ReasonCodes      []ReasonCode
}

func (p *SubAck) Kind() ControlPacketType { return KindSubAck }

func (p *SubAck) Pack(dst io.Writer) error {
	if len(p.ReasonCodes) == 0 {
		return fmt.Errorf("%w: suback with empty reason-code list", ErrPolicyViolation)
	}
	return pack(dst, byte(KindSubAck)<<4, func(w *wire.Writer) error {
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

func decodeSubAck(h FixedHeader, r *wire.Reader) (Packet, error) {
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	p := &SubAck{PacketIdentifier: id, Properties: props}
	for r.Remaining() > 0 {
		code, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		p.ReasonCodes = append(p.ReasonCodes, ReasonCode{Code: code, Reason: reasonText(code)})
	}
	if len(p.ReasonCodes) == 0 {
		return nil, fmt.Errorf("%w: suback with empty reason-code list", ErrMalformedPacket)
	}
	return p, nil
}
