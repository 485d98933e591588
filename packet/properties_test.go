package packet

import (
	"testing"

	"github.com/golang-io/mqtt5/wire"
)

func TestDecodePropertiesSkipsUnknownIDAfterKnownOnes(t *testing.T) {
	// length=4, then: known id 0x01 (PayloadFormatIndicator) with its
	// 1-byte value, then an unrecognized id 0x7F followed by a trailing
	// byte that would desync parsing if misread as another id/value pair.
	raw := []byte{0x04, 0x01, 0x01, 0x7F, 0xAA}

	props, err := DecodeProperties(wire.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeProperties: %v", err)
	}
	if props.PayloadFormatIndicator == nil || *props.PayloadFormatIndicator != 1 {
		t.Fatalf("PayloadFormatIndicator = %v, want 1", props.PayloadFormatIndicator)
	}
}

func TestDecodePropertiesEmptyBlock(t *testing.T) {
	raw := []byte{0x00}
	props, err := DecodeProperties(wire.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeProperties: %v", err)
	}
	if props.PayloadFormatIndicator != nil {
		t.Fatalf("expected no properties set, got %+v", props)
	}
}

func TestDecodePropertiesRejectsRepeatedScalar(t *testing.T) {
	// Two occurrences of PayloadFormatIndicator (0x01) back to back.
	raw := []byte{0x04, 0x01, 0x01, 0x01, 0x00}
	_, err := DecodeProperties(wire.NewReader(raw))
	if err == nil {
		t.Fatal("expected an error for a repeated non-repeating property")
	}
}
