package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/ssargent/brokkr/pkg/layout"
)

// Value kind tags used in the row frame.
const (
	tagInteger byte = 0
	tagText    byte = 1
)

// rowHeaderSize is CRC32(4) + value count(2).
const rowHeaderSize = 6

// RowCodec serializes layout rows for storage.
//
// Frame: [CRC32(4)][Count(2)] then per value [Tag(1)][Length(4)][Payload].
// Integers are 8-byte little-endian payloads; text payloads are raw
// bytes. JSON is not an option here: text fields legally carry NUL
// bytes and invalid UTF-8 that a JSON round trip would mangle.
type RowCodec struct{}

// NewRowCodec creates a new row codec instance
func NewRowCodec() *RowCodec {
	return &RowCodec{}
}

// Encode serializes a row into its binary frame. Values must be
// uint64 or string, matching what the binary reader produces.
func (c *RowCodec) Encode(row layout.Row) ([]byte, error) {
	if len(row) > int(^uint16(0)) {
		return nil, fmt.Errorf("row has too many values: %d", len(row))
	}

	size := rowHeaderSize
	for _, v := range row {
		switch v := v.(type) {
		case uint64:
			size += 5 + 8
		case string:
			size += 5 + len(v)
		default:
			return nil, fmt.Errorf("unsupported row value type %T", v)
		}
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint16(buf[4:], uint16(len(row)))
	pos := rowHeaderSize
	for _, v := range row {
		switch v := v.(type) {
		case uint64:
			buf[pos] = tagInteger
			binary.LittleEndian.PutUint32(buf[pos+1:], 8)
			binary.LittleEndian.PutUint64(buf[pos+5:], v)
			pos += 5 + 8
		case string:
			buf[pos] = tagText
			binary.LittleEndian.PutUint32(buf[pos+1:], uint32(len(v)))
			copy(buf[pos+5:], v)
			pos += 5 + len(v)
		}
	}

	binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(buf[4:]))
	return buf, nil
}

// Decode deserializes a row frame, validating its checksum.
func (c *RowCodec) Decode(data []byte) (layout.Row, error) {
	if len(data) < rowHeaderSize {
		return nil, fmt.Errorf("data too short for row header")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != crc32.ChecksumIEEE(data[4:]) {
		return nil, fmt.Errorf("%w: CRC32 mismatch", ErrCorruption)
	}

	count := int(binary.LittleEndian.Uint16(data[4:6]))
	row := make(layout.Row, 0, count)
	pos := rowHeaderSize
	for i := 0; i < count; i++ {
		if len(data) < pos+5 {
			return nil, fmt.Errorf("%w: truncated value header at %d", ErrCorruption, pos)
		}
		tag := data[pos]
		length := int(binary.LittleEndian.Uint32(data[pos+1:]))
		pos += 5
		if len(data) < pos+length {
			return nil, fmt.Errorf("%w: truncated value payload at %d", ErrCorruption, pos)
		}
		switch tag {
		case tagInteger:
			if length != 8 {
				return nil, fmt.Errorf("%w: integer payload is %d bytes", ErrCorruption, length)
			}
			row = append(row, binary.LittleEndian.Uint64(data[pos:]))
		case tagText:
			row = append(row, string(data[pos:pos+length]))
		default:
			return nil, fmt.Errorf("%w: unknown value tag %d", ErrCorruption, tag)
		}
		pos += length
	}

	return row, nil
}
