package packet

import (
	"errors"
	"fmt"

	"github.com/golang-io/mqtt5/wire"
)

// Codec-level error kinds, matched with errors.Is against the sentinels
// below. Errors the codec raises itself are wrapped with
// fmt.Errorf("%w: ..."); errors from the wire reader and writer are
// returned unchanged.
var (
	// ErrBufferUnderflow is wire.ErrBufferUnderflow, re-exported at the
	// codec layer for callers that only import packet.
	ErrBufferUnderflow = wire.ErrBufferUnderflow
	// ErrMalformedPacket covers an oversize variable-byte integer,
	// invalid reserved flags, unknown protocol name/version, and
	// inconsistent property combinations.
	ErrMalformedPacket = errors.New("packet: malformed packet")
	// ErrPolicyViolation covers encoder-side refusals to produce an
	// ill-formed packet.
	ErrPolicyViolation = errors.New("packet: policy violation")
)

// ReasonCode is both an MQTT5 wire reason code (and, for ConnAck, a legacy
// MQTT3.1.1 connect-return code) and a Go error. Ported from the teacher's
// packet/errors.go table, which is itself a transcription of the MQTT5
// section 2.4/3.x reason-code tables — a wire constant, not an
// implementation choice, so it travels close to verbatim.
type ReasonCode struct {
	Code   uint8
	Reason string
}

func (r ReasonCode) Error() string {
	return fmt.Sprintf("reason code 0x%02x: %s", r.Code, r.Reason)
}

// Success reports whether the code is one of the family of codes below
// 0x80 that indicate the operation succeeded (granted-QoS values included).
func (r ReasonCode) Success() bool { return r.Code < 0x80 }

// Legacy MQTT3.1.1 CONNACK return codes (section 3.2.2.3 in the 3.1.1 spec).
var (
	Legacy3Accepted                     = ReasonCode{Code: 0x00, Reason: "connection accepted"}
	Legacy3UnacceptableProtocolVersion  = ReasonCode{Code: 0x01, Reason: "unacceptable protocol version"}
	Legacy3IdentifierRejected           = ReasonCode{Code: 0x02, Reason: "identifier rejected"}
	Legacy3ServerUnavailable             = ReasonCode{Code: 0x03, Reason: "server unavailable"}
	Legacy3BadUsernameOrPassword         = ReasonCode{Code: 0x04, Reason: "bad username or password"}
	Legacy3NotAuthorized                 = ReasonCode{Code: 0x05, Reason: "not authorized"}
)

// Success-family reason codes (0x00-0x1F).
var (
	Success                    = ReasonCode{Code: 0x00, Reason: "success"}
	NormalDisconnection        = ReasonCode{Code: 0x00, Reason: "normal disconnection"}
	GrantedQoS0                = ReasonCode{Code: 0x00, Reason: "granted qos 0"}
	GrantedQoS1                = ReasonCode{Code: 0x01, Reason: "granted qos 1"}
	GrantedQoS2                = ReasonCode{Code: 0x02, Reason: "granted qos 2"}
	DisconnectWithWillMessage  = ReasonCode{Code: 0x04, Reason: "disconnect with will message"}
	NoMatchingSubscribers      = ReasonCode{Code: 0x10, Reason: "no matching subscribers"}
	NoSubscriptionExisted      = ReasonCode{Code: 0x11, Reason: "no subscription existed"}
	ContinueAuthentication     = ReasonCode{Code: 0x18, Reason: "continue authentication"}
	ReAuthenticate             = ReasonCode{Code: 0x19, Reason: "re-authenticate"}
)

// Error-family reason codes (0x80-0xA2), shared by ConnAck, PubAck/PubRec,
// SubAck/UnsubAck, and Disconnect where the code applies to that packet.
var (
	UnspecifiedError                     = ReasonCode{Code: 0x80, Reason: "unspecified error"}
	MalformedPacket                      = ReasonCode{Code: 0x81, Reason: "malformed packet"}
	ProtocolError                        = ReasonCode{Code: 0x82, Reason: "protocol error"}
	ImplementationSpecificError          = ReasonCode{Code: 0x83, Reason: "implementation specific error"}
	UnsupportedProtocolVersion           = ReasonCode{Code: 0x84, Reason: "unsupported protocol version"}
	ClientIdentifierNotValid             = ReasonCode{Code: 0x85, Reason: "client identifier not valid"}
	BadUsernameOrPassword                = ReasonCode{Code: 0x86, Reason: "bad username or password"}
	NotAuthorized                        = ReasonCode{Code: 0x87, Reason: "not authorized"}
	ServerUnavailable                    = ReasonCode{Code: 0x88, Reason: "server unavailable"}
	ServerBusy                           = ReasonCode{Code: 0x89, Reason: "server busy"}
	Banned                               = ReasonCode{Code: 0x8A, Reason: "banned"}
	ServerShuttingDown                   = ReasonCode{Code: 0x8B, Reason: "server shutting down"}
	BadAuthenticationMethod              = ReasonCode{Code: 0x8C, Reason: "bad authentication method"}
	KeepAliveTimeout                     = ReasonCode{Code: 0x8D, Reason: "keep alive timeout"}
	SessionTakenOver                     = ReasonCode{Code: 0x8E, Reason: "session taken over"}
	TopicFilterInvalid                   = ReasonCode{Code: 0x8F, Reason: "topic filter invalid"}
	TopicNameInvalid                     = ReasonCode{Code: 0x90, Reason: "topic name invalid"}
	PacketIdentifierInUse                = ReasonCode{Code: 0x91, Reason: "packet identifier in use"}
	PacketIdentifierNotFound             = ReasonCode{Code: 0x92, Reason: "packet identifier not found"}
	ReceiveMaximumExceeded               = ReasonCode{Code: 0x93, Reason: "receive maximum exceeded"}
	TopicAliasInvalid                    = ReasonCode{Code: 0x94, Reason: "topic alias invalid"}
	PacketTooLarge                       = ReasonCode{Code: 0x95, Reason: "packet too large"}
	MessageRateTooHigh                   = ReasonCode{Code: 0x96, Reason: "message rate too high"}
	QuotaExceeded                        = ReasonCode{Code: 0x97, Reason: "quota exceeded"}
	AdministrativeAction                 = ReasonCode{Code: 0x98, Reason: "administrative action"}
	PayloadFormatInvalid                 = ReasonCode{Code: 0x99, Reason: "payload format invalid"}
	RetainNotSupported                   = ReasonCode{Code: 0x9A, Reason: "retain not supported"}
	QoSNotSupported                      = ReasonCode{Code: 0x9B, Reason: "qos not supported"}
	UseAnotherServer                     = ReasonCode{Code: 0x9C, Reason: "use another server"}
	ServerMoved                          = ReasonCode{Code: 0x9D, Reason: "server moved"}
	SharedSubscriptionsNotSupported      = ReasonCode{Code: 0x9E, Reason: "shared subscriptions not supported"}
	ConnectionRateExceeded               = ReasonCode{Code: 0x9F, Reason: "connection rate exceeded"}
	MaximumConnectTime                   = ReasonCode{Code: 0xA0, Reason: "maximum connect time"}
	SubscriptionIdentifiersNotSupported  = ReasonCode{Code: 0xA1, Reason: "subscription identifiers not supported"}
	WildcardSubscriptionsNotSupported    = ReasonCode{Code: 0xA2, Reason: "wildcard subscriptions not supported"}
)

// allReasonCodes backs reverse lookup of a bare wire code byte to its
// human-readable reason text (decodeConnAck and friends).
var allReasonCodes = []ReasonCode{
	Success, NormalDisconnection, GrantedQoS0, GrantedQoS1, GrantedQoS2,
	DisconnectWithWillMessage, NoMatchingSubscribers, NoSubscriptionExisted,
	ContinueAuthentication, ReAuthenticate,
	UnspecifiedError, MalformedPacket, ProtocolError, ImplementationSpecificError,
	UnsupportedProtocolVersion, ClientIdentifierNotValid, BadUsernameOrPassword,
	NotAuthorized, ServerUnavailable, ServerBusy, Banned, ServerShuttingDown,
	BadAuthenticationMethod, KeepAliveTimeout, SessionTakenOver, TopicFilterInvalid,
	TopicNameInvalid, PacketIdentifierInUse, PacketIdentifierNotFound,
	ReceiveMaximumExceeded, TopicAliasInvalid, PacketTooLarge, MessageRateTooHigh,
	QuotaExceeded, AdministrativeAction, PayloadFormatInvalid, RetainNotSupported,
	QoSNotSupported, UseAnotherServer, ServerMoved, SharedSubscriptionsNotSupported,
	ConnectionRateExceeded, MaximumConnectTime, SubscriptionIdentifiersNotSupported,
	WildcardSubscriptionsNotSupported,
}
