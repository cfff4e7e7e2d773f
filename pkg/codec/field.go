package codec

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Errors
var (
	ErrIntegerWidth    = &CodecError{"integer field width must be between 1 and 8 bytes"}
	ErrIntegerOverflow = &CodecError{"value does not fit in field width"}
	ErrTextTooLong     = &CodecError{"encoded text exceeds field width"}
	ErrCorruption      = &CodecError{"row data corruption detected"}
)

// CodecError represents a field or row encoding error
type CodecError struct {
	Message string
}

func (e *CodecError) Error() string {
	return e.Message
}

// FieldCodec converts byte spans to and from typed field values using
// a fixed byte order and text encoding. Both directions are pure; a
// codec is safe to reuse across files.
type FieldCodec struct {
	order  binary.ByteOrder
	little bool
	enc    encoding.Encoding // nil means UTF-8 passthrough
}

// NewFieldCodec creates a codec for the given byte order ("little" or
// "big") and IANA text encoding name. An empty byte order defaults to
// little-endian; an empty or UTF-8 encoding name uses raw passthrough.
func NewFieldCodec(byteOrder, textEncoding string) (*FieldCodec, error) {
	c := &FieldCodec{}

	switch byteOrder {
	case "", "little":
		c.order = binary.LittleEndian
		c.little = true
	case "big":
		c.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("unknown byte order %q (want little or big)", byteOrder)
	}

	switch textEncoding {
	case "", "utf-8", "utf8", "UTF-8":
		// Raw bytes are already UTF-8; nothing to transcode.
	default:
		enc, err := ianaindex.IANA.Encoding(textEncoding)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("unknown text encoding %q", textEncoding)
		}
		c.enc = enc
	}

	return c, nil
}

// DecodeUint interprets a 1..8 byte span as an unsigned integer in the
// configured byte order. There is no sign handling.
func (c *FieldCodec) DecodeUint(b []byte) (uint64, error) {
	if len(b) < 1 || len(b) > 8 {
		return 0, fmt.Errorf("%w: got %d bytes", ErrIntegerWidth, len(b))
	}

	var buf [8]byte
	if c.little {
		copy(buf[:], b)
	} else {
		copy(buf[8-len(b):], b)
	}
	return c.order.Uint64(buf[:]), nil
}

// EncodeUint renders v into exactly length bytes in the configured
// byte order. Encoding the maximum value representable in length bytes
// succeeds; one greater fails with ErrIntegerOverflow.
func (c *FieldCodec) EncodeUint(v uint64, length int) ([]byte, error) {
	if length < 1 || length > 8 {
		return nil, fmt.Errorf("%w: field is %d bytes", ErrIntegerWidth, length)
	}
	if length < 8 && v >= 1<<(8*uint(length)) {
		return nil, fmt.Errorf("%w: %d needs more than %d bytes", ErrIntegerOverflow, v, length)
	}

	var buf [8]byte
	c.order.PutUint64(buf[:], v)
	out := make([]byte, length)
	if c.little {
		copy(out, buf[:length])
	} else {
		copy(out, buf[8-length:])
	}
	return out, nil
}

// DecodeText decodes the full byte span using the configured text
// encoding. Trailing zero padding is NOT stripped: a stored string
// shorter than its field width comes back with embedded NUL bytes, and
// callers rely on that for byte-exact round trips.
func (c *FieldCodec) DecodeText(b []byte) (string, error) {
	if c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("failed to decode text field: %w", err)
	}
	return string(out), nil
}

// EncodeText encodes s and right-pads the result with zero bytes to
// exactly length. An encoded value longer than the field fails with
// ErrTextTooLong rather than being truncated.
func (c *FieldCodec) EncodeText(s string, length int) ([]byte, error) {
	raw := []byte(s)
	if c.enc != nil {
		enc, err := c.enc.NewEncoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to encode text field: %w", err)
		}
		raw = enc
	}
	if len(raw) > length {
		return nil, fmt.Errorf("%w: %d bytes into a %d byte field", ErrTextTooLong, len(raw), length)
	}

	out := make([]byte, length)
	copy(out, raw)
	return out, nil
}

// Padding returns length zero bytes.
func (c *FieldCodec) Padding(length int) []byte {
	return make([]byte, length)
}
