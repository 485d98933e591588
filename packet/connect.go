package packet

import (
	"fmt"
	"io"

	"github.com/golang-io/mqtt5/wire"
)

const protocolName = "MQTT"
const protocolLevel5 = 5

// connect-flags bits, MQTT5 section 3.1.2.3.
const (
	flagCleanStart = 1 << 1
	flagWillFlag   = 1 << 2
	flagWillQoS0   = 0
	flagWillQoS1   = 1 << 3
	flagWillQoS2   = 1 << 4
	flagWillRetain = 1 << 5
	flagPassword   = 1 << 6
	flagUsername   = 1 << 7
)

// Connect is the CONNECT control packet (type=1, flags=0).
type Connect struct {
	CleanStart bool
	KeepAlive  uint16
	Properties *Properties

	ClientID string

	// WillFlag, when true, means WillTopic/WillPayload/WillProperties are
	// present and must be sent to subscribers as a last-will message.
	WillFlag       bool
	WillQoS        uint8
	WillRetain     bool
	WillProperties *Properties
	WillTopic      string

	// Exactly one of WillPayloadText/WillPayloadBytes is used, selected by
	// WillPayloadIsText; payload_format_indicator on WillProperties is
	// derived from this automatically by Pack and any caller-supplied
	// value is overwritten, per the encoder's automatic-derivation rule.
	WillPayloadIsText bool
	WillPayloadText   string
	WillPayloadBytes  []byte

	Username     string
	HasUsername  bool
	Password     []byte
	HasPassword  bool
}

func (p *Connect) Kind() ControlPacketType { return KindConnect }

func willQoSFlag(qos uint8) (byte, error) {
	switch qos {
	case 0:
		return flagWillQoS0, nil
	case 1:
		return flagWillQoS1, nil
	case 2:
		return flagWillQoS2, nil
	default:
		return 0, fmt.Errorf("%w: will qos %d", ErrPolicyViolation, qos)
	}
}

func (p *Connect) Pack(dst io.Writer) error {
	if p.WillFlag && p.WillPayloadIsText {
		if p.WillProperties == nil {
			p.WillProperties = &Properties{}
		}
		p.WillProperties.PayloadFormatIndicator = u8(1)
	} else if p.WillFlag {
		if p.WillProperties == nil {
			p.WillProperties = &Properties{}
		}
		p.WillProperties.PayloadFormatIndicator = u8(0)
	}
	return pack(dst, byte(KindConnect)<<4, func(w *wire.Writer) error {
		w.LengthPrefixedUTF8(protocolName)
		w.Uint8(protocolLevel5)

		var flags byte
		if p.CleanStart {
			flags |= flagCleanStart
		}
		if p.WillFlag {
			flags |= flagWillFlag
			qf, err := willQoSFlag(p.WillQoS)
			if err != nil {
				return err
			}
			flags |= qf
			if p.WillRetain {
				flags |= flagWillRetain
			}
		}
		if p.HasUsername {
			flags |= flagUsername
		}
		if p.HasPassword {
			flags |= flagPassword
		}
		w.Uint8(flags)
		w.Uint16(p.KeepAlive)
		if err := WritePropertiesWithLength(w, p.Properties); err != nil {
			return err
		}

		w.LengthPrefixedUTF8(p.ClientID)

		if p.WillFlag {
			if err := WritePropertiesWithLength(w, p.WillProperties); err != nil {
				return err
			}
			w.LengthPrefixedUTF8(p.WillTopic)
			if p.WillPayloadIsText {
				w.LengthPrefixedUTF8(p.WillPayloadText)
			} else {
				w.LengthPrefixedBytes(p.WillPayloadBytes)
			}
		}
		if p.HasUsername {
			w.LengthPrefixedUTF8(p.Username)
		}
		if p.HasPassword {
			w.LengthPrefixedBytes(p.Password)
		}
		return nil
	})
}

func decodeConnect(h FixedHeader, r *wire.Reader) (Packet, error) {
	name, err := r.LengthPrefixedUTF8()
	if err != nil {
		return nil, err
	}
	if name != protocolName {
		return nil, fmt.Errorf("%w: protocol name %q", ErrMalformedPacket, name)
	}
	level, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if level != protocolLevel5 {
		return nil, fmt.Errorf("%w: protocol level %d", ErrMalformedPacket, level)
	}
	flags, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if flags&0x01 != 0 {
		return nil, fmt.Errorf("%w: connect flags reserved bit set", ErrMalformedPacket)
	}
	keepAlive, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	clientID, err := r.LengthPrefixedUTF8()
	if err != nil {
		return nil, err
	}

	p := &Connect{
		CleanStart:  flags&flagCleanStart != 0,
		KeepAlive:   keepAlive,
		Properties:  props,
		ClientID:    clientID,
		HasUsername: flags&flagUsername != 0,
		HasPassword: flags&flagPassword != 0,
	}

	if flags&flagWillFlag != 0 {
		p.WillFlag = true
		switch flags & (flagWillQoS1 | flagWillQoS2) {
		case flagWillQoS0:
			p.WillQoS = 0
		case flagWillQoS1:
			p.WillQoS = 1
		case flagWillQoS2:
			p.WillQoS = 2
		default:
			return nil, fmt.Errorf("%w: invalid will qos bits", ErrMalformedPacket)
		}
		p.WillRetain = flags&flagWillRetain != 0
		wp, err := DecodeProperties(r)
		if err != nil {
			return nil, err
		}
		p.WillProperties = wp
		p.WillTopic, err = r.LengthPrefixedUTF8()
		if err != nil {
			return nil, err
		}
		isUTF8 := wp.PayloadFormatIndicator != nil && *wp.PayloadFormatIndicator == 1
		if isUTF8 {
			p.WillPayloadIsText = true
			p.WillPayloadText, err = r.LengthPrefixedUTF8()
		} else {
			p.WillPayloadBytes, err = r.LengthPrefixedBytes()
			if err == nil {
				p.WillPayloadBytes = append([]byte(nil), p.WillPayloadBytes...)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if p.HasUsername {
		p.Username, err = r.LengthPrefixedUTF8()
		if err != nil {
			return nil, err
		}
	}
	if p.HasPassword {
		p.Password, err = r.LengthPrefixedBytes()
		if err != nil {
			return nil, err
		}
		p.Password = append([]byte(nil), p.Password...)
	}
	return p, nil
}
