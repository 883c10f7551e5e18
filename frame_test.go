package slcand

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameMarshal(t *testing.T) {
	tests := []struct {
		name     string
		frame    Frame
		withType bool
		want     string
	}{
		{"standard", NewFrame(0x123, []byte{0xAA, 0xBB, 0xCC}), true, "t1233AABBCC"},
		{"standard no type", NewFrame(0x123, []byte{0xAA, 0xBB, 0xCC}), false, "1233AABBCC"},
		{"standard empty", NewFrame(0x7FF, nil), true, "t7FF0"},
		{"extended", NewExtendedFrame(0x1ABCDEF0, []byte{0x01}), true, "T1ABCDEF0101"},
		{"extended full", NewExtendedFrame(0x180, bytes.Repeat([]byte{0x5A}, 8)), true, "T0000018085A5A5A5A5A5A5A5A"},
		{"zero id", NewFrame(0, []byte{0x00}), true, "t000100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.frame.Marshal(tt.withType)
			if string(got) != tt.want {
				t.Errorf("Marshal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	frames := []Frame{
		NewFrame(0x000, nil),
		NewFrame(0x123, []byte{0xAA, 0xBB}),
		NewFrame(0x7FF, bytes.Repeat([]byte{0xFF}, 8)),
		NewExtendedFrame(0x000, []byte{0x01}),
		NewExtendedFrame(0x1FFFFFFF, bytes.Repeat([]byte{0x0F}, 8)),
		NewExtendedFrame(0x00000180, []byte{0x2D, 0x12, 0x09, 0xDF, 0x87, 0x56, 0x91, 0x06}),
	}
	for _, f := range frames {
		line := f.Marshal(true)
		got, err := unmarshalFrame(f.Extended, line[1:])
		if err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		if got.ID != f.ID || got.Extended != f.Extended || !bytes.Equal(got.Data, f.Data) {
			t.Fatalf("roundtrip mismatch: got %+v want %+v", got, f)
		}
	}
}

func TestUnmarshalFrameRejects(t *testing.T) {
	tests := []struct {
		name     string
		extended bool
		args     string
	}{
		{"empty", false, ""},
		{"short id", false, "12"},
		{"missing length", false, "123"},
		{"length digit not hex", false, "123X"},
		{"length too large", false, "1239AABBCCDDEEFF0011"},
		{"data shorter than length", false, "1233AABB"},
		{"data longer than length", false, "1232AABBCC"},
		{"odd data", false, "1232AAB"},
		{"id beyond 11 bits", false, "8000"},
		{"data not hex", false, "1231GG"},
		{"ext short id", true, "1ABCDEF"},
		{"ext id beyond 29 bits", true, "200000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := unmarshalFrame(tt.extended, []byte(tt.args)); !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("unmarshalFrame(%q) error = %v, want ErrInvalidCommand", tt.args, err)
			}
		})
	}
}

func TestFrameValidate(t *testing.T) {
	if err := NewFrame(0x800, nil).Validate(); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("11-bit overflow not rejected: %v", err)
	}
	if err := NewExtendedFrame(0x20000000, nil).Validate(); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("29-bit overflow not rejected: %v", err)
	}
	f := Frame{ID: 1, Data: bytes.Repeat([]byte{0}, 9)}
	if err := f.Validate(); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("9 data bytes not rejected: %v", err)
	}
	if err := NewExtendedFrame(0x1FFFFFFF, bytes.Repeat([]byte{0}, 8)).Validate(); err != nil {
		t.Errorf("valid frame rejected: %v", err)
	}
}
