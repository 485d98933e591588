package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-io/mqtt5/wire"
)

// decodeOne packs a frame's fixed header + body and runs it through the
// same ReadFixedHeader/SubReader/Decode path the stream reassembler uses.
func decodeOne(t *testing.T, buf []byte) Packet {
	t.Helper()
	r := wire.NewReader(buf)
	h, err := ReadFixedHeader(r)
	if err != nil {
		t.Fatalf("ReadFixedHeader: %v", err)
	}
	body, err := r.SubReader(int(h.RemainingLength))
	if err != nil {
		t.Fatalf("SubReader: %v", err)
	}
	p, err := Decode(h, body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return p
}

func TestPingReqWireBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := (PingReq{}).Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xc0, 0x00}) {
		t.Fatalf("bytes = %x, want c0 00", buf.Bytes())
	}
	p := decodeOne(t, buf.Bytes())
	if _, ok := p.(PingReq); !ok {
		t.Fatalf("decoded %T, want PingReq", p)
	}
}

func TestPingRespWireBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := (PingResp{}).Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xd0, 0x00}) {
		t.Fatalf("bytes = %x, want d0 00", buf.Bytes())
	}
}

func TestDisconnectShortForm(t *testing.T) {
	var buf bytes.Buffer
	p := &Disconnect{ReasonCode: NormalDisconnection}
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xe0, 0x00}) {
		t.Fatalf("bytes = %x, want e0 00", buf.Bytes())
	}
	got := decodeOne(t, buf.Bytes()).(*Disconnect)
	if got.ReasonCode.Code != NormalDisconnection.Code || got.Properties != nil {
		t.Fatalf("got %+v, want default NormalDisconnection with nil properties", got)
	}
}

func TestDisconnectLongForm(t *testing.T) {
	var buf bytes.Buffer
	p := &Disconnect{ReasonCode: UnspecifiedError}
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if buf.Len() < 3 {
		t.Fatalf("expected a long-form frame, got %x", buf.Bytes())
	}
	got := decodeOne(t, buf.Bytes()).(*Disconnect)
	if got.ReasonCode.Code != UnspecifiedError.Code {
		t.Fatalf("ReasonCode.Code = %#x, want %#x", got.ReasonCode.Code, UnspecifiedError.Code)
	}
}

func TestAuthDefaultReasonCodeIsSuccess(t *testing.T) {
	var buf bytes.Buffer
	p := &Auth{ReasonCode: Success}
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xf0, 0x00}) {
		t.Fatalf("bytes = %x, want f0 00", buf.Bytes())
	}
}

func TestSubscribeSubAckRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sub := &Subscribe{
		PacketIdentifier: 7,
		Subscriptions:    []Subscription{{TopicFilter: "a/b", QoS: 1}},
	}
	if err := sub.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got := decodeOne(t, buf.Bytes()).(*Subscribe)
	if got.PacketIdentifier != 7 {
		t.Fatalf("PacketIdentifier = %d, want 7", got.PacketIdentifier)
	}
	if len(got.Subscriptions) != 1 || got.Subscriptions[0].TopicFilter != "a/b" || got.Subscriptions[0].QoS != 1 {
		t.Fatalf("Subscriptions = %+v", got.Subscriptions)
	}

	buf.Reset()
	suback := &SubAck{PacketIdentifier: 7, ReasonCodes: []ReasonCode{GrantedQoS1}}
	if err := suback.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	gotAck := decodeOne(t, buf.Bytes()).(*SubAck)
	if gotAck.PacketIdentifier != 7 || len(gotAck.ReasonCodes) != 1 || gotAck.ReasonCodes[0].Code != GrantedQoS1.Code {
		t.Fatalf("SubAck = %+v", gotAck)
	}
}

func TestSubscribeRejectsEmptySubscriptionList(t *testing.T) {
	var buf bytes.Buffer
	sub := &Subscribe{PacketIdentifier: 1}
	if err := sub.Pack(&buf); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("err = %v, want ErrPolicyViolation", err)
	}
}

func TestUnsubscribeUnsubAckRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	unsub := &Unsubscribe{PacketIdentifier: 9, TopicFilters: []string{"a/b", "c/+"}}
	if err := unsub.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got := decodeOne(t, buf.Bytes()).(*Unsubscribe)
	if got.PacketIdentifier != 9 || len(got.TopicFilters) != 2 {
		t.Fatalf("Unsubscribe = %+v", got)
	}

	buf.Reset()
	unsuback := &UnsubAck{PacketIdentifier: 9, ReasonCodes: []ReasonCode{Success, NoSubscriptionExisted}}
	if err := unsuback.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	gotAck := decodeOne(t, buf.Bytes()).(*UnsubAck)
	if len(gotAck.ReasonCodes) != 2 {
		t.Fatalf("ReasonCodes = %+v", gotAck.ReasonCodes)
	}
}

func TestPublishQoS0FixedHeaderByte(t *testing.T) {
	var buf bytes.Buffer
	p := &Publish{Topic: "a/b", ContentIsText: true, ContentText: "hi", Retain: true}
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if buf.Bytes()[0] != 0x31 {
		t.Fatalf("first byte = %#x, want 0x31 (PUBLISH, retain set)", buf.Bytes()[0])
	}
	got := decodeOne(t, buf.Bytes()).(*Publish)
	if got.Topic != "a/b" || !got.Retain || !got.ContentIsText || got.ContentText != "hi" {
		t.Fatalf("got %+v", got)
	}
}

func TestPublishQoSRequiresPacketIdentifier(t *testing.T) {
	var buf bytes.Buffer
	p := &Publish{Topic: "a/b", QoS: 1, ContentBytes: []byte("x")}
	if err := p.Pack(&buf); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("err = %v, want ErrPolicyViolation", err)
	}
}

func TestPublishQoS0RejectsPacketIdentifier(t *testing.T) {
	var buf bytes.Buffer
	p := &Publish{Topic: "a/b", PacketIdentifier: 1, ContentBytes: []byte("x")}
	if err := p.Pack(&buf); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("err = %v, want ErrPolicyViolation", err)
	}
}

func TestPubAckRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	p := NewPubAck(42)
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got := decodeOne(t, buf.Bytes())
	pa, ok := got.(*PubAckLike)
	if !ok {
		t.Fatalf("decoded %T, want *PubAckLike", got)
	}
	if pa.Kind() != KindPubAck || pa.PacketIdentifier != 42 {
		t.Fatalf("got %+v", pa)
	}
}
