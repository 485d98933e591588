package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-io/mqtt5/wire"
)

func TestConnAckRoundTripWithProperties(t *testing.T) {
	var buf bytes.Buffer
	assignedID := "server-assigned-1"
	keepAlive := uint16(30)
	p := &ConnAck{
		SessionPresent: true,
		ReasonCode:     Success,
		Properties: &Properties{
			AssignedClientID: &assignedID,
			ServerKeepAlive:  &keepAlive,
		},
	}
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got := decodeOne(t, buf.Bytes()).(*ConnAck)
	if !got.SessionPresent || got.ReasonCode.Code != Success.Code {
		t.Fatalf("got %+v", got)
	}
	if got.Properties == nil || got.Properties.AssignedClientID == nil || *got.Properties.AssignedClientID != assignedID {
		t.Fatalf("AssignedClientID not round-tripped: %+v", got.Properties)
	}
	if got.Properties.ServerKeepAlive == nil || *got.Properties.ServerKeepAlive != keepAlive {
		t.Fatalf("ServerKeepAlive not round-tripped: %+v", got.Properties)
	}
}

func TestConnAckServerReferenceRequiresMoveReasonCode(t *testing.T) {
	var buf bytes.Buffer
	ref := "other.broker.example:1883"
	p := &ConnAck{
		ReasonCode: Success,
		Properties: &Properties{ServerReference: &ref},
	}
	if err := p.Pack(&buf); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("err = %v, want ErrPolicyViolation", err)
	}
}

func TestConnAckRejectsReservedFlagBits(t *testing.T) {
	p := &ConnAck{ReasonCode: Success}
	var buf bytes.Buffer
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	raw := buf.Bytes()
	raw[2] |= 0x02 // set a reserved bit in the connack flags byte

	r := wire.NewReader(raw)
	h, err := ReadFixedHeader(r)
	if err != nil {
		t.Fatalf("ReadFixedHeader: %v", err)
	}
	body, err := r.SubReader(int(h.RemainingLength))
	if err != nil {
		t.Fatalf("SubReader: %v", err)
	}
	if _, err := Decode(h, body); !errors.Is(err, ErrMalformedPacket) {
		t.Fatalf("err = %v, want ErrMalformedPacket", err)
	}
}
