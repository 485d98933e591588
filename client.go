// Package mqtt5 implements a resilient MQTT 5 client session engine: a
// single supervisor goroutine that dials, authenticates, keeps alive, and
// reconnects a connection, surfacing decoded packets and lifecycle events
// on one ordered channel. Grounded in the teacher's client.go Client type
// and its connectAndSubscribe/ConnectAndSubscribe reconnect supervisor.
package mqtt5

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-io/mqtt5/idgen"
	"github.com/golang-io/mqtt5/packet"
	"github.com/golang-io/mqtt5/stream"
	"github.com/golang-io/mqtt5/topic"
	"github.com/golang-io/mqtt5/transport"
	"golang.org/x/sync/errgroup"
)

// Client is a resilient MQTT5 session engine. Construct with New; it begins
// dialing and connecting immediately in a background goroutine. Read
// Events() for both protocol packets and lifecycle signals.
type Client struct {
	addr          string
	connectModel  *packet.Connect
	options       Options
	handlers      *topic.Trie

	events chan Event

	active    atomic.Bool
	closeCh   chan struct{}
	closeOnce sync.Once
	doneCh    chan struct{}

	mu               sync.Mutex
	conn             transport.Conn
	replies          *replyTable
	assignedClientID string
	lastPingRespAt   time.Time

	// writeMu serializes every packAndSend call against a single conn, so
	// Publish/Subscribe/Unsubscribe/Auth on caller goroutines and PingReq
	// on the keepalive goroutine never interleave their writes — a
	// websocket.Conn in particular has no frame-level write isolation of
	// its own.
	writeMu sync.Mutex
}

// New constructs a Client targeting addr (see transport.Dial for the
// accepted URL schemes) and starts its supervisor loop. connectModel
// carries the Connect packet's fields; if connectModel.ClientID is empty,
// idgen.New() supplies a default and connectModel is mutated in place with
// it (mirroring the teacher's newOptions default-ClientID behavior).
func New(addr string, connectModel *packet.Connect, opts ...Option) *Client {
	options := newOptions(opts...)
	if options.ClientID != "" {
		connectModel.ClientID = options.ClientID
	} else if connectModel.ClientID == "" {
		connectModel.ClientID = idgen.New()
	}

	c := &Client{
		addr:         addr,
		connectModel: connectModel,
		options:      options,
		handlers:     topic.New(),
		events:       make(chan Event, 64),
		closeCh:      make(chan struct{}),
		doneCh:       make(chan struct{}),
		replies:      newReplyTable(),
	}
	c.active.Store(true)
	go c.run()
	return c
}

// ClientID returns the broker-assigned client identifier if the broker
// supplied one in ConnAck's AssignedClientID property, else the identifier
// this client sent in Connect.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assignedClientID != "" {
		return c.assignedClientID
	}
	return c.connectModel.ClientID
}

// Events returns the inbound stream of decoded packets and lifecycle
// events. It is closed exactly once, after Close has fully torn down the
// supervisor loop.
func (c *Client) Events() <-chan Event { return c.events }

// Handle registers fn to run for every inbound Publish whose topic name
// matches filter, via the client-side topic.Trie (see topic package).
// Convenience layer over the raw Events() stream.
func (c *Client) Handle(filter string, fn func(topicName string, payload []byte)) error {
	return c.handlers.Subscribe(filter, fn)
}

func (c *Client) emit(e Event) {
	select {
	case c.events <- e:
	default:
		c.logf("mqtt5: event stream full, dropping %T", e)
	}
}

func (c *Client) logf(format string, args ...any) {
	if c.options.Logger != nil {
		c.options.Logger.Printf(format, args...)
	}
}

// run is the supervisor loop: spec.md §4.5 step 1's outer retry around
// connectAndServe (steps 2-5).
func (c *Client) run() {
	defer close(c.doneCh)
	defer close(c.events)

	for c.active.Load() {
		connectFailed, err := c.connectAndServe()
		if err != nil && connectFailed {
			if c.options.Metrics != nil {
				c.options.Metrics.ConnectFailures.Inc()
			}
			c.emit(FailedConnectionAttempt{Reason: err})
			c.logf("mqtt5: connect attempt failed: client_id=%s, error=%v", c.connectModel.ClientID, err)
		}

		if !c.active.Load() {
			return
		}
		if c.options.ReconnectTime <= 0 {
			<-c.closeCh
			return
		}
		select {
		case <-time.After(c.options.ReconnectTime):
		case <-c.closeCh:
			return
		}
	}
}

// connectAndServe dials, performs the Connect/ConnAck handshake, and runs
// the keepalive + reader loop until the connection drops or the user
// closes the client. connectFailed distinguishes a dial/handshake failure
// (caller emits FailedConnectionAttempt) from a post-connect teardown
// (connectAndServe already emitted ConnectionClosed itself).
func (c *Client) connectAndServe() (connectFailed bool, err error) {
	if c.options.Metrics != nil {
		c.options.Metrics.ConnectAttempts.Inc()
	}
	c.logf("mqtt5: dialing: client_id=%s, addr=%s", c.connectModel.ClientID, c.addr)

	conn, err := transport.Dial(context.Background(), c.addr)
	if err != nil {
		return true, err
	}
	defer conn.Close()

	if err := c.connectModel.Pack(conn); err != nil {
		return true, err
	}

	pktCh := make(chan packet.Packet, 64)
	errCh := make(chan error, 1)
	go c.readLoop(conn, pktCh, errCh)

	connAck, err := c.awaitConnAck(pktCh, errCh)
	if err != nil {
		return true, err
	}

	c.mu.Lock()
	c.conn = conn
	if connAck.Properties != nil && connAck.Properties.AssignedClientID != nil {
		c.assignedClientID = *connAck.Properties.AssignedClientID
	}
	c.lastPingRespAt = timeNow()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	c.emit(wrapPacketEvent(connAck))

	keepAliveSeconds := c.keepAliveSeconds(connAck)

	group, gctx := errgroup.WithContext(context.Background())
	pingFailed := make(chan struct{})

	group.Go(func() error {
		return c.keepaliveLoop(gctx, conn, keepAliveSeconds, pingFailed)
	})
	group.Go(func() error {
		return c.readerLoop(gctx, pktCh, errCh, pingFailed)
	})
	group.Go(func() error {
		select {
		case <-c.closeCh:
			return errClosedLocally
		case <-gctx.Done():
			return nil
		}
	})

	loopErr := group.Wait()
	c.replies.rejectAll()

	reason := ClosedRemotely
	switch {
	case loopErr == errClosedLocally:
		reason = ClosedLocally
	case loopErr == errPingFailed:
		reason = ClosedPingFailed
	}
	c.emit(ConnectionClosed{Reason: reason})
	return false, nil
}

var errClosedLocally = fmt.Errorf("mqtt5: closed locally")
var errPingFailed = fmt.Errorf("mqtt5: ping failed: %w", ErrProtocolTimeout)

// readLoop owns the transport's raw Read calls and the stream.Reassembler
// for one connection's lifetime, decoupling byte-level reads from the
// packet-level dispatch in readerLoop/awaitConnAck. Grounded in the
// teacher's (*Client).unpack, generalized to feed stream.Reassembler
// instead of a single blocking packet.Unpack call.
func (c *Client) readLoop(conn transport.Conn, pktCh chan<- packet.Packet, errCh chan<- error) {
	re := stream.NewWithOptions(c.options.PublishDeserializeOptions)
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if c.options.Metrics != nil {
				c.options.Metrics.BytesReceived.Add(float64(n))
			}
			pkts, decErr := re.Feed(buf[:n])
			for _, p := range pkts {
				if c.options.Metrics != nil {
					c.options.Metrics.PacketsReceived.Inc()
				}
				pktCh <- p
			}
			if decErr != nil {
				errCh <- decErr
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (c *Client) awaitConnAck(pktCh <-chan packet.Packet, errCh <-chan error) (*packet.ConnAck, error) {
	timer := time.NewTimer(c.options.ConnectTimeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil, ErrProtocolTimeout
	case err := <-errCh:
		return nil, err
	case p, ok := <-pktCh:
		if !ok {
			return nil, fmt.Errorf("%w: connection closed before connack", ErrProtocolTimeout)
		}
		connAck, ok := p.(*packet.ConnAck)
		if !ok {
			return nil, fmt.Errorf("mqtt5: expected connack, got %T", p)
		}
		return connAck, nil
	}
}

func (c *Client) keepAliveSeconds(connAck *packet.ConnAck) uint16 {
	if connAck.Properties != nil && connAck.Properties.ServerKeepAlive != nil {
		return *connAck.Properties.ServerKeepAlive
	}
	if c.connectModel.KeepAlive > 0 {
		return c.connectModel.KeepAlive
	}
	return 5
}

// keepaliveLoop writes PingReq every keep_alive_seconds*1000-100ms and
// aborts the session if no PingResp lands within 1.5x keep_alive.
func (c *Client) keepaliveLoop(ctx context.Context, conn transport.Conn, keepAliveSeconds uint16, pingFailed chan<- struct{}) error {
	interval := time.Duration(keepAliveSeconds)*time.Second - 100*time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Duration(float64(keepAliveSeconds) * 1.5 * float64(time.Second))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.mu.Lock()
			last := c.lastPingRespAt
			c.mu.Unlock()
			if !last.IsZero() && timeNow().Sub(last) > deadline {
				close(pingFailed)
				if c.options.Metrics != nil {
					c.options.Metrics.PingFailures.Inc()
				}
				c.emit(PingFailed{})
				return errPingFailed
			}
			if err := c.packAndSend(packet.PingReq{}, conn); err != nil {
				return err
			}
		}
	}
}

// readerLoop dispatches decoded packets: SubAck/UnsubAck resolve a pending
// reply, PingResp updates liveness, everything else is forwarded to the
// application stream or dispatched through the topic trie (Publish only).
func (c *Client) readerLoop(ctx context.Context, pktCh <-chan packet.Packet, errCh <-chan error, pingFailed <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pingFailed:
			return errPingFailed
		case err := <-errCh:
			return err
		case p, ok := <-pktCh:
			if !ok {
				return nil
			}
			switch pk := p.(type) {
			case *packet.SubAck:
				if !c.replies.resolve(pk.PacketIdentifier, pk) {
					c.logf("mqtt5: unmatched suback packet_identifier=%d", pk.PacketIdentifier)
				}
			case *packet.UnsubAck:
				if !c.replies.resolve(pk.PacketIdentifier, pk) {
					c.logf("mqtt5: unmatched unsuback packet_identifier=%d", pk.PacketIdentifier)
				}
			case packet.PingResp:
				c.mu.Lock()
				c.lastPingRespAt = timeNow()
				c.mu.Unlock()
			case *packet.Publish:
				var payload []byte
				if pk.ContentIsText {
					payload = []byte(pk.ContentText)
				} else {
					payload = pk.ContentBytes
				}
				c.handlers.Dispatch(pk.Topic, payload)
				c.emit(wrapPacketEvent(pk))
			default:
				c.emit(wrapPacketEvent(p))
			}
		}
	}
}

func timeNow() time.Time { return time.Now() }

// ---- user-facing operations (spec.md §4.5 "User-facing operations") ----

// countingWriter tallies bytes written through it, so the engine can track
// BytesSent without packet.Pack needing to know about metrics at all.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(b []byte) (int, error) {
	n, err := cw.w.Write(b)
	cw.n += int64(n)
	return n, err
}

func (c *Client) packAndSend(p packet.Packet, dst io.Writer) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.options.Metrics == nil {
		return p.Pack(dst)
	}
	cw := &countingWriter{w: dst}
	if err := p.Pack(cw); err != nil {
		return err
	}
	c.options.Metrics.BytesSent.Add(float64(cw.n))
	return nil
}

// Publish serializes and writes p. Fire-and-forget: acknowledgement
// packets (PubAck/PubRec/PubComp) arrive through Events(), not as a return
// value here.
func (c *Client) Publish(p *packet.Publish) error {
	conn := c.currentConn()
	if conn == nil {
		return ErrNotConnected
	}
	if err := c.packAndSend(p, conn); err != nil {
		return err
	}
	if c.options.Metrics != nil {
		c.options.Metrics.PacketsSent.Inc()
	}
	return nil
}

// Subscribe allocates a packet identifier, writes p, and awaits the
// matching SubAck.
func (c *Client) Subscribe(p *packet.Subscribe) (*packet.SubAck, error) {
	conn := c.currentConn()
	if conn == nil {
		return nil, ErrNotConnected
	}
	id, ch, err := c.replies.allocate()
	if err != nil {
		return nil, err
	}
	p.PacketIdentifier = id
	if c.options.Metrics != nil {
		c.options.Metrics.PendingReplyDepth.Inc()
	}
	defer func() {
		if c.options.Metrics != nil {
			c.options.Metrics.PendingReplyDepth.Dec()
		}
	}()
	if err := c.packAndSend(p, conn); err != nil {
		c.replies.resolve(id, nil)
		return nil, err
	}
	pk, ok := <-ch
	if !ok || pk == nil {
		return nil, ErrNotConnected
	}
	return pk.(*packet.SubAck), nil
}

// Unsubscribe is symmetric to Subscribe, returning the UnsubAck.
func (c *Client) Unsubscribe(p *packet.Unsubscribe) (*packet.UnsubAck, error) {
	conn := c.currentConn()
	if conn == nil {
		return nil, ErrNotConnected
	}
	id, ch, err := c.replies.allocate()
	if err != nil {
		return nil, err
	}
	p.PacketIdentifier = id
	if err := c.packAndSend(p, conn); err != nil {
		c.replies.resolve(id, nil)
		return nil, err
	}
	pk, ok := <-ch
	if !ok || pk == nil {
		return nil, ErrNotConnected
	}
	return pk.(*packet.UnsubAck), nil
}

// Auth serializes and writes an Auth packet, used for enhanced
// authentication round trips initiated by the broker.
func (c *Client) Auth(p *packet.Auth) error {
	conn := c.currentConn()
	if conn == nil {
		return ErrNotConnected
	}
	return c.packAndSend(p, conn)
}

// Close marks the client inactive, best-effort sends disconnect (default
// NormalDisconnection if nil), signals the supervisor to stop, awaits loop
// termination, and closes Events(). Safe to call more than once.
func (c *Client) Close(disconnect *packet.Disconnect) error {
	c.closeOnce.Do(func() {
		c.active.Store(false)
		if disconnect == nil {
			disconnect = &packet.Disconnect{ReasonCode: packet.NormalDisconnection}
		}
		if conn := c.currentConn(); conn != nil {
			c.writeMu.Lock()
			_ = disconnect.Pack(conn)
			c.writeMu.Unlock()
		}
		close(c.closeCh)
	})
	<-c.doneCh
	return nil
}

func (c *Client) currentConn() transport.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
