package packet

import (
	"fmt"

	"github.com/golang-io/mqtt5/wire"
)

// Property identifiers, MQTT5 section 2.2.2.2.
const (
	idPayloadFormatIndicator          = 0x01
	idMessageExpiryInterval           = 0x02
	idContentType                     = 0x03
	idResponseTopic                   = 0x08
	idCorrelationData                 = 0x09
	idSubscriptionIdentifier          = 0x0B
	idSessionExpiryInterval           = 0x11
	idAssignedClientID                = 0x12
	idServerKeepAlive                 = 0x13
	idAuthenticationMethod            = 0x15
	idAuthenticationData              = 0x16
	idRequestProblemInformation       = 0x17
	idWillDelayInterval               = 0x18
	idRequestResponseInformation      = 0x19
	idResponseInformation             = 0x1A
	idServerReference                 = 0x1C
	idReasonString                    = 0x1F
	idReceiveMaximum                  = 0x21
	idTopicAliasMaximum               = 0x22
	idTopicAlias                      = 0x23
	idMaximumQoS                      = 0x24
	idRetainAvailable                 = 0x25
	idUserProperty                    = 0x26
	idMaximumPacketSize               = 0x27
	idWildcardSubscriptionAvailable   = 0x28
	idSubscriptionIdentifierAvailable = 0x29
	idSharedSubscriptionAvailable     = 0x2A
)

// UserProperty is a name/value pair; User_Property may repeat within a
// single packet's property set.
type UserProperty struct {
	Key   string
	Value string
}

// Properties holds every MQTT5 property identifier in one struct. A given
// packet type only ever populates the subset that applies to it (see the
// per-packet variable header descriptions); Pack only emits fields that are
// non-nil/non-empty, so the same type serves Connect, ConnAck, Publish,
// Will, the ack quartet, Subscribe/Unsubscribe, SubAck/UnsubAck, Disconnect
// and Auth without 27 near-identical per-packet structs.
type Properties struct {
	PayloadFormatIndicator *uint8
	MessageExpiryInterval  *uint32
	ContentType            *string
	ResponseTopic          *string
	CorrelationData        []byte

	// SubscriptionIdentifiers accumulates repeated Subscription_Identifier
	// entries; Publish may carry several, Subscribe carries at most one.
	SubscriptionIdentifiers []uint32

	SessionExpiryInterval *uint32
	AssignedClientID      *string
	ServerKeepAlive       *uint16

	AuthenticationMethod *string
	AuthenticationData   []byte

	RequestProblemInformation  *uint8
	WillDelayInterval          *uint32
	RequestResponseInformation *uint8
	ResponseInformation        *string
	ServerReference            *string
	ReasonString               *string

	ReceiveMaximum    *uint16
	TopicAliasMaximum *uint16
	TopicAlias        *uint16
	MaximumQoS        *uint8
	RetainAvailable   *uint8

	UserProperties []UserProperty

	MaximumPacketSize               *uint32
	WildcardSubscriptionAvailable   *uint8
	SubscriptionIdentifierAvailable *uint8
	SharedSubscriptionAvailable     *uint8
}

func u8(v uint8) *uint8    { return &v }
func u16(v uint16) *uint16 { return &v }
func u32(v uint32) *uint32 { return &v }
func str(v string) *string { return &v }

// Pack writes the property id/value pairs for whichever fields are set.
// Callers wrap this with a variable-byte length prefix (see EncodeProperties).
func (p *Properties) Pack(w *wire.Writer) error {
	if p == nil {
		return nil
	}
	if p.PayloadFormatIndicator != nil {
		w.Uint8(idPayloadFormatIndicator)
		w.Uint8(*p.PayloadFormatIndicator)
	}
	if p.MessageExpiryInterval != nil {
		w.Uint8(idMessageExpiryInterval)
		w.Uint32(*p.MessageExpiryInterval)
	}
	if p.ContentType != nil {
		w.Uint8(idContentType)
		w.LengthPrefixedUTF8(*p.ContentType)
	}
	if p.ResponseTopic != nil {
		w.Uint8(idResponseTopic)
		w.LengthPrefixedUTF8(*p.ResponseTopic)
	}
	if p.CorrelationData != nil {
		w.Uint8(idCorrelationData)
		w.LengthPrefixedBytes(p.CorrelationData)
	}
	for _, sid := range p.SubscriptionIdentifiers {
		w.Uint8(idSubscriptionIdentifier)
		if err := w.VarInt(sid); err != nil {
			return fmt.Errorf("%w: subscription identifier: %v", ErrPolicyViolation, err)
		}
	}
	if p.SessionExpiryInterval != nil {
		w.Uint8(idSessionExpiryInterval)
		w.Uint32(*p.SessionExpiryInterval)
	}
	if p.AssignedClientID != nil {
		w.Uint8(idAssignedClientID)
		w.LengthPrefixedUTF8(*p.AssignedClientID)
	}
	if p.ServerKeepAlive != nil {
		w.Uint8(idServerKeepAlive)
		w.Uint16(*p.ServerKeepAlive)
	}
	if p.AuthenticationMethod != nil {
		w.Uint8(idAuthenticationMethod)
		w.LengthPrefixedUTF8(*p.AuthenticationMethod)
	}
	if p.AuthenticationData != nil {
		if p.AuthenticationMethod == nil {
			return fmt.Errorf("%w: authentication data without authentication method", ErrPolicyViolation)
		}
		w.Uint8(idAuthenticationData)
		w.LengthPrefixedBytes(p.AuthenticationData)
	}
	if p.RequestProblemInformation != nil {
		w.Uint8(idRequestProblemInformation)
		w.Uint8(*p.RequestProblemInformation)
	}
	if p.WillDelayInterval != nil {
		w.Uint8(idWillDelayInterval)
		w.Uint32(*p.WillDelayInterval)
	}
	if p.RequestResponseInformation != nil {
		w.Uint8(idRequestResponseInformation)
		w.Uint8(*p.RequestResponseInformation)
	}
	if p.ResponseInformation != nil {
		w.Uint8(idResponseInformation)
		w.LengthPrefixedUTF8(*p.ResponseInformation)
	}
	if p.ServerReference != nil {
		w.Uint8(idServerReference)
		w.LengthPrefixedUTF8(*p.ServerReference)
	}
	if p.ReasonString != nil {
		w.Uint8(idReasonString)
		w.LengthPrefixedUTF8(*p.ReasonString)
	}
	if p.ReceiveMaximum != nil {
		w.Uint8(idReceiveMaximum)
		w.Uint16(*p.ReceiveMaximum)
	}
	if p.TopicAliasMaximum != nil {
		w.Uint8(idTopicAliasMaximum)
		w.Uint16(*p.TopicAliasMaximum)
	}
	if p.TopicAlias != nil {
		w.Uint8(idTopicAlias)
		w.Uint16(*p.TopicAlias)
	}
	if p.MaximumQoS != nil {
		w.Uint8(idMaximumQoS)
		w.Uint8(*p.MaximumQoS)
	}
	if p.RetainAvailable != nil {
		w.Uint8(idRetainAvailable)
		w.Uint8(*p.RetainAvailable)
	}
	for _, up := range p.UserProperties {
		w.Uint8(idUserProperty)
		w.LengthPrefixedUTF8(up.Key)
		w.LengthPrefixedUTF8(up.Value)
	}
	if p.MaximumPacketSize != nil {
		w.Uint8(idMaximumPacketSize)
		w.Uint32(*p.MaximumPacketSize)
	}
	if p.WildcardSubscriptionAvailable != nil {
		w.Uint8(idWildcardSubscriptionAvailable)
		w.Uint8(*p.WildcardSubscriptionAvailable)
	}
	if p.SubscriptionIdentifierAvailable != nil {
		w.Uint8(idSubscriptionIdentifierAvailable)
		w.Uint8(*p.SubscriptionIdentifierAvailable)
	}
	if p.SharedSubscriptionAvailable != nil {
		w.Uint8(idSharedSubscriptionAvailable)
		w.Uint8(*p.SharedSubscriptionAvailable)
	}
	return nil
}

// EncodeProperties packs p into its own buffer, suitable for prefixing with
// a variable-byte length by the caller.
func EncodeProperties(p *Properties) ([]byte, error) {
	w := wire.NewWriter(32)
	if err := p.Pack(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WritePropertiesWithLength packs p and writes its variable-byte length
// prefix followed by the packed bytes into w — the shape every packet's
// variable header uses for its trailing properties block.
func WritePropertiesWithLength(w *wire.Writer, p *Properties) error {
	b, err := EncodeProperties(p)
	if err != nil {
		return err
	}
	if err := w.VarInt(uint32(len(b))); err != nil {
		return err
	}
	w.Write(b)
	return nil
}

// seenSet tracks which scalar property ids have already been seen
// during decode, so a second occurrence of a non-repeating property can be
// rejected. Resolution of the "repeated non-repeating property" open
// question (see SPEC_FULL.md/DESIGN.md): fail closed with MalformedPacket.
type seenSet map[byte]bool

func (s seenSet) mark(id byte) error {
	if s[id] {
		return fmt.Errorf("%w: property id 0x%02x repeated", ErrMalformedPacket, id)
	}
	s[id] = true
	return nil
}

// DecodeProperties reads a variable-byte length prefix, then walks the
// property block of exactly that many bytes, id by id. All 27 assigned
// MQTT5 property ids are recognized here; an id outside that set has no
// knowable value width on its own, so it cannot be parsed field-by-field.
// Since the block's total length was already read, an unrecognized id is
// skipped by discarding the rest of the bounded sub-reader rather than
// erroring: properties already decoded before it stand, and decoding of
// this block simply stops there instead of risking a desynced read on a
// width it cannot know.
func DecodeProperties(r *wire.Reader) (*Properties, error) {
	length, err := r.VarInt()
	if err != nil {
		return nil, err
	}
	sub, err := r.SubReader(int(length))
	if err != nil {
		return nil, err
	}
	p := &Properties{}
	seen := seenSet{}
	for sub.Remaining() > 0 {
		id, err := sub.Uint8()
		if err != nil {
			return nil, err
		}
		switch id {
		case idPayloadFormatIndicator:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.PayloadFormatIndicator = u8(v)
		case idMessageExpiryInterval:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint32()
			if err != nil {
				return nil, err
			}
			p.MessageExpiryInterval = u32(v)
		case idContentType:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.ContentType = str(v)
		case idResponseTopic:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.ResponseTopic = str(v)
		case idCorrelationData:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedBytes()
			if err != nil {
				return nil, err
			}
			p.CorrelationData = append([]byte(nil), v...)
		case idSubscriptionIdentifier:
			v, err := sub.VarInt()
			if err != nil {
				return nil, err
			}
			p.SubscriptionIdentifiers = append(p.SubscriptionIdentifiers, v)
		case idSessionExpiryInterval:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint32()
			if err != nil {
				return nil, err
			}
			p.SessionExpiryInterval = u32(v)
		case idAssignedClientID:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.AssignedClientID = str(v)
		case idServerKeepAlive:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint16()
			if err != nil {
				return nil, err
			}
			p.ServerKeepAlive = u16(v)
		case idAuthenticationMethod:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.AuthenticationMethod = str(v)
		case idAuthenticationData:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedBytes()
			if err != nil {
				return nil, err
			}
			p.AuthenticationData = append([]byte(nil), v...)
		case idRequestProblemInformation:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.RequestProblemInformation = u8(v)
		case idWillDelayInterval:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint32()
			if err != nil {
				return nil, err
			}
			p.WillDelayInterval = u32(v)
		case idRequestResponseInformation:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.RequestResponseInformation = u8(v)
		case idResponseInformation:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.ResponseInformation = str(v)
		case idServerReference:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.ServerReference = str(v)
		case idReasonString:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.ReasonString = str(v)
		case idReceiveMaximum:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint16()
			if err != nil {
				return nil, err
			}
			p.ReceiveMaximum = u16(v)
		case idTopicAliasMaximum:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint16()
			if err != nil {
				return nil, err
			}
			p.TopicAliasMaximum = u16(v)
		case idTopicAlias:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint16()
			if err != nil {
				return nil, err
			}
			p.TopicAlias = u16(v)
		case idMaximumQoS:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.MaximumQoS = u8(v)
		case idRetainAvailable:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.RetainAvailable = u8(v)
		case idUserProperty:
			k, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			v, err := sub.LengthPrefixedUTF8()
			if err != nil {
				return nil, err
			}
			p.UserProperties = append(p.UserProperties, UserProperty{Key: k, Value: v})
		case idMaximumPacketSize:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint32()
			if err != nil {
				return nil, err
			}
			if v == 0 {
				return nil, fmt.Errorf("%w: maximum packet size 0", ErrMalformedPacket)
			}
			p.MaximumPacketSize = u32(v)
		case idWildcardSubscriptionAvailable:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.WildcardSubscriptionAvailable = u8(v)
		case idSubscriptionIdentifierAvailable:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.SubscriptionIdentifierAvailable = u8(v)
		case idSharedSubscriptionAvailable:
			if err := seen.mark(id); err != nil {
				return nil, err
			}
			v, err := sub.Uint8()
			if err != nil {
				return nil, err
			}
			p.SharedSubscriptionAvailable = u8(v)
		default:
			// Unknown id: its value width can't be known, so the rest of
			// this bounded block is discarded wholesale rather than risking
			// a desynced read on subsequent ids.
			if _, err := sub.Bytes(sub.Remaining()); err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return p, nil
}
