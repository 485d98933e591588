package packet

import (
	"fmt"
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// ConnAck is the CONNACK control packet (type=2, flags=0).
type ConnAck struct {
	SessionPresent bool
	ReasonCode     ReasonCode
	Properties     *Properties
}

func (p *ConnAck) Kind() ControlPacketType { return KindConnAck }

func (p *ConnAck) Pack(dst io.Writer) error {
	if p.Properties != nil && p.Properties.ServerReference != nil {
		if p.ReasonCode.Code != ServerMoved.Code && p.ReasonCode.Code != UseAnotherServer.Code {
			return fmt.Errorf("%w: server_reference set with reason code 0x%02x", ErrPolicyViolation, p.ReasonCode.Code)
		}
	}
	return pack(dst, byte(KindConnAck)<<4, func(w *wire.Writer) error {
		var flags byte
		if p.SessionPresent {
			flags = 0x01
		}
		w.Uint8(flags)
		w.Uint8(p.ReasonCode.Code)
		return WritePropertiesWithLength(w, p.Properties)
	})
}

func decodeConnAck(h FixedHeader, r *wire.Reader) (Packet, error) {
	flags, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if flags&0xFE != 0 {
		return nil, fmt.Errorf("%w: connack flags reserved bits set", ErrMalformedPacket)
	}
	code, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	props, err := DecodeProperties(r)
	if err != nil {
		return nil, err
	}
	return &ConnAck{
		SessionPresent: flags&0x01 != 0,
		ReasonCode:     ReasonCode{Code: code, Reason: reasonText(code)},
		Properties:     props,
	}, nil
}

// reasonText gives a human-readable label to a bare wire reason code byte
// decoded off the wire (as opposed to one of the named ReasonCode values
// constructed by the encoder side).
func reasonText(code uint8) string {
	for _, rc := range allReasonCodes {
		if rc.Code == code {
			return rc.Reason
		}
	}
	return "unknown"
}
