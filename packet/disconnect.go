package packet

import (
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// Disconnect is the DISCONNECT control packet (type=14, flags=0). With no
// remaining bytes it's an implicit NormalDisconnection with no properties;
// otherwise a reason code byte, then optionally properties.
type Disconnect struct {
	ReasonCode ReasonCode
	Properties *Properties
}

func (p *Disconnect) Kind() ControlPacketType { return KindDisconnect }

func (p *Disconnect) short() bool {
	return p.ReasonCode.Code == NormalDisconnection.Code && p.Properties == nil
}

func (p *Disconnect) Pack(dst io.Writer) error {
	return pack(dst, byte(KindDisconnect)<<4, func(w *wire.Writer) error {
		if p.short() {
			return nil
		}
		w.Uint8(p.ReasonCode.Code)
		return WritePropertiesWithLength(w, p.Properties)
	})
}

func decodeDisconnect(h FixedHeader, r *wire.Reader) (Packet, error) {
	p := &Disconnect{ReasonCode: NormalDisconnection}
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
