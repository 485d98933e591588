package wire

import (
	"errors"
	"testing"
)

func TestWriterVarIntTooLarge(t *testing.T) {
	w := NewWriter(0)
	if err := w.VarInt(MaxVarInt + 1); !errors.Is(err, ErrVarIntTooLarge) {
		t.Fatalf("err = %v, want ErrVarIntTooLarge", err)
	}
	if w.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 (nothing written on error)", w.Len())
	}
}

func TestWriterReserveHeaderFinalizeShortBody(t *testing.T) {
	w := NewWriter(0)
	w.ReserveHeader()
	w.Write([]byte{0xAA, 0xBB, 0xCC})
	out, err := w.FinalizeMessage(0x30)
	if err != nil {
		t.Fatalf("FinalizeMessage: %v", err)
	}
	want := []byte{0x30, 0x03, 0xAA, 0xBB, 0xCC}
	if string(out) != string(want) {
		t.Fatalf("out = %x, want %x", out, want)
	}
}

func TestWriterReserveHeaderFinalizeLongBody(t *testing.T) {
	w := NewWriter(0)
	w.ReserveHeader()
	body := make([]byte, 200)
	for i := range body {
		body[i] = byte(i)
	}
	w.Write(body)
	out, err := w.FinalizeMessage(0x30)
	if err != nil {
		t.Fatalf("FinalizeMessage: %v", err)
	}
	// 200 requires two varint bytes: 0xC8 0x01.
	if out[0] != 0x30 || out[1] != 0xC8 || out[2] != 0x01 {
		t.Fatalf("header = %x, want 30 c8 01", out[:3])
	}
	if len(out) != 3+200 {
		t.Fatalf("len(out) = %d, want %d", len(out), 3+200)
	}
	for i, b := range body {
		if out[3+i] != b {
			t.Fatalf("body[%d] = %x, want %x", i, out[3+i], b)
		}
	}
}

func TestWriterFinalizeMessageWithoutReserveHeaderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling FinalizeMessage without ReserveHeader")
		}
	}()
	w := NewWriter(0)
	_, _ = w.FinalizeMessage(0x00)
}

func TestWriterResetKeepsCapacity(t *testing.T) {
	w := NewWriter(16)
	w.Write([]byte{1, 2, 3})
	cap0 := cap(w.Bytes())
	w.Reset()
	if w.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Reset", w.Len())
	}
	if cap(w.Bytes()) != cap0 {
		t.Fatalf("Reset changed capacity: %d -> %d", cap0, cap(w.Bytes()))
	}
}
