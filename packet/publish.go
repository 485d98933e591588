package packet

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/golang-io/mqtt5/wire"
)

// PublishDeserializeOptions selects how Publish decodes its payload bytes
// into the ContentText/ContentBytes pair. Grounded in spec.md §4.2's Publish
// payload decode modes.
type PublishDeserializeOptions int

const (
	// PayloadFormatIndicator decodes as text when the property says UTF-8,
	// else copies the payload into an owned byte slice. This is the engine
	// default.
	PayloadFormatIndicator PublishDeserializeOptions = iota
	// UTF8String attempts a UTF-8 decode regardless of the property,
	// falling back to bytes on invalid UTF-8.
	UTF8String
	// DataReader always exposes a borrowed byte sub-reader.
	DataReader
	// Uint8Array always copies the payload into an owned byte slice.
	Uint8Array
)

// Publish is the PUBLISH control packet (type=3). Flags carry dup/qos/retain.
type Publish struct {
	Dup    bool
	QoS    uint8
	Retain bool

	Topic            string
	PacketIdentifier uint16 // present iff QoS > 0
	Properties       *Properties

	// Content is the payload, as decided by the PublishDeserializeOptions
	// used for decoding (or, when building a packet to send, by which of
	// ContentText/ContentBytes the caller set — see ContentIsText).
	ContentIsText bool
	ContentText   string
	ContentBytes  []byte

	// Borrowed is set by DecodeWithOptions/DecodePublishWithOptions when
	// PublishDeserializeOptions is DataReader: ContentBytes aliases the chunk it was decoded from and must
	// not be retained past that chunk's lifetime (see SPEC_FULL.md §4.2,
	// design note "zero-copy sub-views").
	Borrowed bool
}

func (p *Publish) Kind() ControlPacketType { return KindPublish }

func (p *Publish) Pack(dst io.Writer) error {
	if p.QoS == 0 && p.PacketIdentifier != 0 {
		return fmt.Errorf("%w: packet identifier set at qos 0", ErrPolicyViolation)
	}
	if p.QoS > 0 && p.PacketIdentifier == 0 {
		return fmt.Errorf("%w: missing packet identifier at qos %d", ErrPolicyViolation, p.QoS)
	}
	if p.QoS > 2 {
		return fmt.Errorf("%w: qos %d out of range", ErrPolicyViolation, p.QoS)
	}
	// automatic payload_format_indicator derivation: the caller's choice
	// of ContentText vs ContentBytes determines the property, overriding
	// anything the caller set directly.
	if p.Properties == nil {
		p.Properties = &Properties{}
	}
	if p.ContentIsText {
		p.Properties.PayloadFormatIndicator = u8(1)
	} else {
		p.Properties.PayloadFormatIndicator = u8(0)
	}

	firstByte := byte(KindPublish) << 4
	if p.Dup {
		firstByte |= 1 << 3
	}
	firstByte |= (p.QoS & 0x3) << 1
	if p.Retain {
		firstByte |= 1
	}

	return pack(dst, firstByte, func(w *wire.Writer) error {
		w.LengthPrefixedUTF8(p.Topic)
		if p.QoS > 0 {
			w.Uint16(p.PacketIdentifier)
		}
		if err := WritePropertiesWithLength(w, p.Properties); err != nil {
			return err
		}
		if p.ContentIsText {
			w.UTF8(p.ContentText)
		} else {
			w.Write(p.ContentBytes)
		}
		return nil
	})
}

func decodePublish(h FixedHeader, r *wire.Reader) (Packet, error) {
	return decodePublishWithOptions(h, r, PayloadFormatIndicator)
}

// DecodePublishWithOptions decodes a Publish body honoring the given
// PublishDeserializeOptions for the payload. Unlike the other decoders,
// this one is exported because a Publish's payload has no single fixed
// decoding: callers holding a raw Publish frame outside the session
// engine's own reassembly path (see DecodeWithOptions, used by package
// stream) can pick a PublishDeserializeOptions directly.
func DecodePublishWithOptions(h FixedHeader, r *wire.Reader, opts PublishDeserializeOptions) (*Publish, error) {
	return decodePublishWithOptions(h, r, opts)
}

func decodePublishWithOptions(h FixedHeader, r *wire.Reader, opts PublishDeserializeOptions) (*Publish, error) {
	dup := h.Flags&(1<<3) != 0
	qos := (h.Flags >> 1) & 0x3
	retain := h.Flags&1 != 0
	if qos > 2 {
		return nil, fmt.Errorf("%w: publish qos bits 3", ErrMalformedPacket)
	}
	topic, err := r.LengthPrefixedUTF8()
	if err != nil {
		return nil, err
	}
	var pid uint16
	if qos > 0 {
		pid, err = r.Uint16()
		if err != nil {
			return nil, err
		}
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	p := &Publish{
		Dup: dup, QoS: qos, Retain: retain,
		Topic: topic, PacketIdentifier: pid, Properties: props,
	}

	payload, err := r.Bytes(r.Remaining())
	if err != nil {
		return nil, err
	}

	isUTF8Property := props.PayloadFormatIndicator != nil && *props.PayloadFormatIndicator == 1

	switch opts {
	case DataReader:
		p.ContentBytes = payload
		p.Borrowed = true
	case Uint8Array:
		p.ContentBytes = append([]byte(nil), payload...)
	case UTF8String:
		if utf8.Valid(payload) {
			p.ContentIsText = true
			p.ContentText = string(payload)
		} else {
			p.ContentBytes = append([]byte(nil), payload...)
		}
	default: // PayloadFormatIndicator
		if isUTF8Property {
			p.ContentIsText = true
			p.ContentText = string(payload)
		} else {
			p.ContentBytes = append([]byte(nil), payload...)
		}
	}
	return p, nil
}
