package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ssargent/brokkr/pkg/layout"
)

func TestRowCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewRowCodec()

	testCases := []struct {
		name string
		row  layout.Row
	}{
		{
			name: "text and integer",
			row:  layout.Row{"Al\x00\x00", uint64(100)},
		},
		{
			name: "empty row",
			row:  layout.Row{},
		},
		{
			name: "only integers",
			row:  layout.Row{uint64(0), uint64(1), ^uint64(0)},
		},
		{
			name: "text with embedded NUL bytes",
			row:  layout.Row{"a\x00b\x00", uint64(7)},
		},
		{
			name: "text that is not valid UTF-8",
			row:  layout.Row{string([]byte{0xff, 0xfe, 0x00, 0x80})},
		},
		{
			name: "large text value",
			row:  layout.Row{string(bytes.Repeat([]byte("x"), 4096))},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.row)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			decoded, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if len(decoded) != len(tc.row) {
				t.Fatalf("decoded %d values, want %d", len(decoded), len(tc.row))
			}
			for i := range tc.row {
				if decoded[i] != tc.row[i] {
					t.Errorf("value %d = %v, want %v", i, decoded[i], tc.row[i])
				}
			}
		})
	}
}

func TestRowCodec_DetectsCorruption(t *testing.T) {
	codec := NewRowCodec()

	encoded, err := codec.Encode(layout.Row{"name", uint64(42)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Flip one payload byte; the checksum must catch it.
	encoded[len(encoded)-1] ^= 0xff
	_, err = codec.Decode(encoded)
	if !errors.Is(err, ErrCorruption) {
		t.Errorf("Decode = %v, want ErrCorruption", err)
	}
}

func TestRowCodec_RejectsShortFrame(t *testing.T) {
	codec := NewRowCodec()

	if _, err := codec.Decode([]byte{0x01, 0x02}); err == nil {
		t.Error("expected error for truncated frame")
	}
}

func TestRowCodec_RejectsUnsupportedValue(t *testing.T) {
	codec := NewRowCodec()

	if _, err := codec.Encode(layout.Row{3.14}); err == nil {
		t.Error("expected error for float value")
	}
}
