package packet

import (
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// Auth is the AUTH control packet (type=15, flags=0), used for enhanced
// (SASL-style) authentication exchanges. Same short/long encoding as
// Disconnect: an empty body means Success with no properties.
type Auth struct {
	ReasonCode ReasonCode
	Properties *Properties
}

func (p *Auth) Kind() ControlPacketType { return KindAuth }

func (p *Auth) short() bool {
	return p.ReasonCode.Code == Success.Code && p.Properties == nil
}

func (p *Auth) Pack(dst io.Writer) error {
	return pack(dst, byte(KindAuth)<<4, func(w *wire.Writer) error {
		if p.short() {
			return nil
		}
		w.Uint8(p.ReasonCode.Code)
		return WritePropertiesWithLength(w, p.Properties)
	})
}

func decodeAuth(h FixedHeader, r *wire.Reader) (Packet, error) {
	p := &Auth{ReasonCode: Success}
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
