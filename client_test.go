package mqtt5

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"runtime"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/golang-io/mqtt5/mstat"
	"github.com/golang-io/mqtt5/packet"
	"github.com/golang-io/mqtt5/stream"
	"github.com/golang-io/mqtt5/wire"
)

// newTestClient builds a Client with its connection pre-wired to one end
// of a net.Pipe, bypassing New/transport.Dial so Subscribe/Unsubscribe/
// Publish can be exercised against a hand-rolled peer without a real
// broker — mirrors the teacher's client_test.go pattern of poking at
// unexported fields directly since these tests live in the same package.
func newTestClient() (*Client, net.Conn) {
	client, server := net.Pipe()
	c := &Client{
		connectModel: &packet.Connect{ClientID: "test-client"},
		options:      newOptions(),
		events:       make(chan Event, 16),
		closeCh:      make(chan struct{}),
		doneCh:       make(chan struct{}),
		replies:      newReplyTable(),
	}
	c.conn = client
	return c, server
}

func readOnePacket(t *testing.T, conn net.Conn) packet.Packet {
	t.Helper()
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	r := wire.NewReader(buf[:n])
	h, err := packet.ReadFixedHeader(r)
	if err != nil {
		t.Fatalf("read fixed header: %v", err)
	}
	body, err := r.SubReader(int(h.RemainingLength))
	if err != nil {
		t.Fatalf("sub reader: %v", err)
	}
	p, err := packet.Decode(h, body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p
}

func TestClientSubscribeResolvesOnMatchingSubAck(t *testing.T) {
	c, server := newTestClient()
	defer server.Close()

	// Subscribe blocks on a reply channel that only readerLoop can signal,
	// so the loop pair that normally runs inside connectAndServe must be
	// running here too, or the SubAck the fake server writes back is never
	// read off the pipe and everything deadlocks.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pktCh := make(chan packet.Packet, 8)
	errCh := make(chan error, 1)
	pingFailed := make(chan struct{})
	go c.readLoop(c.conn, pktCh, errCh)
	go c.readerLoop(ctx, pktCh, errCh, pingFailed)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sub, ok := readOnePacket(t, server).(*packet.Subscribe)
		if !ok {
			t.Errorf("expected Subscribe, got something else")
			return
		}
		suback := &packet.SubAck{
			PacketIdentifier: sub.PacketIdentifier,
			ReasonCodes:      []packet.ReasonCode{packet.GrantedQoS1},
		}
		if err := suback.Pack(server); err != nil {
			t.Errorf("pack suback: %v", err)
		}
	}()

	suback, err := c.Subscribe(&packet.Subscribe{
		Subscriptions: []packet.Subscription{{TopicFilter: "a/b", QoS: 1}},
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if suback.PacketIdentifier != 1 {
		t.Errorf("PacketIdentifier = %d, want 1", suback.PacketIdentifier)
	}
	if len(suback.ReasonCodes) != 1 || suback.ReasonCodes[0].Code != packet.GrantedQoS1.Code {
		t.Errorf("unexpected reason codes: %+v", suback.ReasonCodes)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server goroutine did not complete")
	}
}

func TestClientUnsubscribeResolvesOnMatchingUnsubAck(t *testing.T) {
	c, server := newTestClient()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pktCh := make(chan packet.Packet, 8)
	errCh := make(chan error, 1)
	pingFailed := make(chan struct{})
	go c.readLoop(c.conn, pktCh, errCh)
	go c.readerLoop(ctx, pktCh, errCh, pingFailed)

	done := make(chan struct{})
	go func() {
		defer close(done)
		unsub, ok := readOnePacket(t, server).(*packet.Unsubscribe)
		if !ok {
			t.Errorf("expected Unsubscribe, got something else")
			return
		}
		unsuback := &packet.UnsubAck{
			PacketIdentifier: unsub.PacketIdentifier,
			ReasonCodes:      []packet.ReasonCode{packet.Success},
		}
		if err := unsuback.Pack(server); err != nil {
			t.Errorf("pack unsuback: %v", err)
		}
	}()

	unsuback, err := c.Unsubscribe(&packet.Unsubscribe{TopicFilters: []string{"a/b"}})
	if err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if unsuback.PacketIdentifier != 1 {
		t.Errorf("PacketIdentifier = %d, want 1", unsuback.PacketIdentifier)
	}
	if len(unsuback.ReasonCodes) != 1 || unsuback.ReasonCodes[0].Code != packet.Success.Code {
		t.Errorf("unexpected reason codes: %+v", unsuback.ReasonCodes)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server goroutine did not complete")
	}
}

func TestClientReadLoopHonorsPublishDeserializeOptions(t *testing.T) {
	c, server := newTestClient()
	defer server.Close()
	c.options.PublishDeserializeOptions = packet.DataReader

	pktCh := make(chan packet.Packet, 8)
	errCh := make(chan error, 1)
	go c.readLoop(c.conn, pktCh, errCh)

	pub := &packet.Publish{Topic: "a/b", ContentBytes: []byte("hi")}
	if err := pub.Pack(server); err != nil {
		t.Fatalf("pack publish: %v", err)
	}

	select {
	case p := <-pktCh:
		got, ok := p.(*packet.Publish)
		if !ok {
			t.Fatalf("decoded %T, want *packet.Publish", p)
		}
		if !got.Borrowed {
			t.Fatal("DataReader option should mark the decoded Publish as Borrowed")
		}
	case err := <-errCh:
		t.Fatalf("readLoop error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("readLoop did not deliver the decoded packet")
	}
}

func TestClientPublishNotConnected(t *testing.T) {
	c := &Client{options: newOptions()}
	err := c.Publish(&packet.Publish{Topic: "a/b"})
	if err != ErrNotConnected {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestClientPublishWritesAndCountsBytesSent(t *testing.T) {
	c, server := newTestClient()
	defer server.Close()
	c.options.Metrics = mstat.New("test-client")

	done := make(chan struct{})
	var got *packet.Publish
	go func() {
		defer close(done)
		got, _ = readOnePacket(t, server).(*packet.Publish)
	}()

	if err := c.Publish(&packet.Publish{Topic: "a/b", ContentIsText: true, ContentText: "hi"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server goroutine did not complete")
	}
	if got == nil || got.Topic != "a/b" {
		t.Fatalf("got %+v", got)
	}

	metric := &dto.Metric{}
	if err := c.options.Metrics.PacketsSent.Write(metric); err != nil {
		t.Fatalf("write PacketsSent: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Fatalf("PacketsSent = %v, want 1", metric.Counter.GetValue())
	}
	if err := c.options.Metrics.BytesSent.Write(metric); err != nil {
		t.Fatalf("write BytesSent: %v", err)
	}
	if metric.Counter.GetValue() <= 0 {
		t.Fatalf("BytesSent = %v, want > 0", metric.Counter.GetValue())
	}
}

// splitWriter writes each call in two halves with a scheduling point in
// between, widening the window in which a concurrent, unserialized write
// would interleave its own bytes into the middle of this one. It holds no
// lock of its own — packAndSend's writeMu is what's under test here, the
// way a websocket.Conn's own multi-write frame encoding has no built-in
// isolation against concurrent high-level writers.
type splitWriter struct {
	buf bytes.Buffer
}

func (w *splitWriter) Write(b []byte) (int, error) {
	mid := len(b) / 2
	if mid == 0 {
		w.buf.Write(b)
		return len(b), nil
	}
	w.buf.Write(b[:mid])
	runtime.Gosched()
	w.buf.Write(b[mid:])
	return len(b), nil
}

func TestClientPackAndSendSerializesConcurrentWrites(t *testing.T) {
	c := &Client{options: newOptions()}
	w := &splitWriter{}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pub := &packet.Publish{Topic: fmt.Sprintf("t/%d", i), ContentIsText: true, ContentText: "x"}
			if err := c.packAndSend(pub, w); err != nil {
				t.Errorf("packAndSend: %v", err)
			}
		}(i)
	}
	wg.Wait()

	re := stream.New()
	got, err := re.Feed(w.buf.Bytes())
	if err != nil {
		t.Fatalf("reassembling concurrent writes produced a malformed frame: %v", err)
	}
	if len(got) != n {
		t.Fatalf("len(got) = %d, want %d (interleaved writes corrupt frame boundaries)", len(got), n)
	}
	seen := map[string]bool{}
	for _, p := range got {
		pub, ok := p.(*packet.Publish)
		if !ok {
			t.Fatalf("decoded %T, want *packet.Publish", p)
		}
		seen[pub.Topic] = true
	}
	if len(seen) != n {
		t.Fatalf("len(seen) = %d, want %d distinct topics", len(seen), n)
	}
}

func TestClientKeepaliveLoopFiresPingFailedAfterDeadline(t *testing.T) {
	c, server := newTestClient()
	defer server.Close()
	c.options.Metrics = mstat.New("test-client")

	// keepAliveSeconds=1 gives a 1.5s liveness deadline; backdating
	// lastPingRespAt past that means the very first tick (900ms later)
	// should fire PingFailed without ever attempting a PingReq write.
	c.lastPingRespAt = timeNow().Add(-10 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pingFailed := make(chan struct{})

	errCh := make(chan error, 1)
	go func() { errCh <- c.keepaliveLoop(ctx, c.conn, 1, pingFailed) }()

	select {
	case <-pingFailed:
	case <-time.After(3 * time.Second):
		t.Fatal("keepaliveLoop never closed pingFailed")
	}

	select {
	case err := <-errCh:
		if err != errPingFailed {
			t.Fatalf("err = %v, want errPingFailed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("keepaliveLoop did not return after signalling pingFailed")
	}

	select {
	case ev := <-c.events:
		if _, ok := ev.(PingFailed); !ok {
			t.Fatalf("event = %T, want PingFailed", ev)
		}
	default:
		t.Fatal("expected a PingFailed event on the events channel")
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	c := &Client{
		connectModel: &packet.Connect{ClientID: "test-client"},
		options:      newOptions(),
		closeCh:      make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	close(c.doneCh) // simulate the supervisor having already exited; no conn, so Close has nothing to write to

	if err := c.Close(nil); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(nil); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
