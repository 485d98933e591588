package mqtt5

import "errors"

// Engine-level sentinel errors, matched with errors.Is. Transport and codec
// errors are wrapped and surfaced as-is rather than translated, so
// errors.Is against transport.ErrTransport / packet.ErrMalformedPacket /
// packet.ErrPolicyViolation still works through this package's wrapping.
var (
	// ErrNotConnected is returned by a user operation fired while the
	// engine has no writer (no active connection).
	ErrNotConnected = errors.New("mqtt5: not connected")
	// ErrResourceExhausted is returned when the packet identifier space
	// (1..65535) has no free slot.
	ErrResourceExhausted = errors.New("mqtt5: packet identifier space exhausted")
	// ErrProtocolTimeout covers a ConnAck or PingResp deadline overrun.
	ErrProtocolTimeout = errors.New("mqtt5: protocol timeout")
)
