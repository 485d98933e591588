package mqtt5

import "github.com/golang-io/mqtt5/packet"

// Event is delivered on Client's inbound stream: either a decoded MQTT
// packet wrapped in PacketEvent (packet.Packet's own Kind returns a
// packet.ControlPacketType, not an int) or one of the CustomPacket
// lifecycle signals below. Grounded in spec.md §9's
// discriminant-range design note: CustomPacket kinds start at 100 so they
// can never collide with a packet.ControlPacketType value (0-15).
type Event interface {
	Kind() int
}

// PacketEvent adapts a decoded packet.Packet's Kind() (a
// packet.ControlPacketType) to the wider Event interface. Callers recover
// the original packet via the embedded Packet field, e.g.
//
//	if pe, ok := ev.(mqtt5.PacketEvent); ok {
//	    switch pk := pe.Packet.(type) {
//	    case *packet.Publish: ...
//	    }
//	}
type PacketEvent struct{ Packet packet.Packet }

func (e PacketEvent) Kind() int { return int(e.Packet.Kind()) }

func wrapPacketEvent(p packet.Packet) Event { return PacketEvent{Packet: p} }

// CustomPacket kind discriminants, all >= 100 per spec.md §9.
const (
	KindConnectionClosed        = 100
	KindFailedConnectionAttempt = 101
	KindPingFailed              = 102
	KindError                   = 103
)

// ConnectionClosedReason explains why a ConnectionClosed event fired.
type ConnectionClosedReason int

const (
	ClosedLocally ConnectionClosedReason = iota
	ClosedRemotely
	ClosedPingFailed
)

func (r ConnectionClosedReason) String() string {
	switch r {
	case ClosedLocally:
		return "closed locally"
	case ClosedRemotely:
		return "closed remotely"
	case ClosedPingFailed:
		return "ping failed"
	default:
		return "unknown"
	}
}

// ConnectionClosed is emitted once per connection teardown, with the reason
// the supervisor loop stopped reading.
type ConnectionClosed struct {
	Reason ConnectionClosedReason
}

func (ConnectionClosed) Kind() int { return KindConnectionClosed }

// FailedConnectionAttempt is emitted when the engine fails to dial the
// transport or to receive a ConnAck within ConnectTimeout. A ConnAck with
// a failure reason code is not treated as a failed attempt; it is
// delivered on the stream like any other packet.
type FailedConnectionAttempt struct {
	Reason error
}

func (FailedConnectionAttempt) Kind() int { return KindFailedConnectionAttempt }

// PingFailed is emitted when no PingResp arrives within the keepalive
// liveness deadline (1.5 x keep_alive).
type PingFailed struct{}

func (PingFailed) Kind() int { return KindPingFailed }

// Error carries a decode or protocol error that does not map to one of the
// other CustomPacket kinds.
type Error struct {
	Message string
}

func (Error) Kind() int { return KindError }
