package binfile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ssargent/brokkr/pkg/codec"
	"github.com/ssargent/brokkr/pkg/layout"
)

// Writer walks a layout against row data and writes byte spans back
// at their original offsets.
type Writer struct {
	codec *codec.FieldCodec
}

// NewWriter creates a writer that encodes fields with the given codec.
func NewWriter(fc *codec.FieldCodec) *Writer {
	return &Writer{codec: fc}
}

// Write encodes the rows of every table back into dst at the offsets
// the layout declares, plus the constant fileOffset bias.
//
// Each row keeps a cursor that advances only on non-padding fields
// and persists across the table's sections, mirroring how the reader
// assigned columns. Every section is built as one contiguous buffer
// covering all its records and written with a single Write call
// after an absolute seek. This is a blind overwrite: the destination
// is never extended and existing bytes are never consulted, so it
// must already span offset + section width.
//
// Any encoding failure aborts the whole write. Sections already
// written stay written; there is no rollback.
func (w *Writer) Write(spec *layout.Spec, rows map[string][]layout.Row, dst io.WriteSeeker, fileOffset int64) error {
	for _, table := range spec.Tables() {
		tableRows := rows[table.Name]
		// One cursor per row, shared by all sections of the table.
		cursors := make([]int, len(tableRows))
		for _, section := range table.Sections {
			var buf bytes.Buffer
			for i, row := range tableRows {
				if err := w.writeRecord(&buf, section, row, &cursors[i]); err != nil {
					return fmt.Errorf("table %s row %d: %w", table.Name, i, err)
				}
			}
			if _, err := dst.Seek(section.Offset+fileOffset, io.SeekStart); err != nil {
				return fmt.Errorf("failed to seek to section of table %s: %w", table.Name, err)
			}
			if _, err := dst.Write(buf.Bytes()); err != nil {
				return fmt.Errorf("failed to write section of table %s: %w", table.Name, err)
			}
		}
	}
	return nil
}

// writeRecord appends one record's bytes for the section, consuming
// row values from *cursor onward.
func (w *Writer) writeRecord(buf *bytes.Buffer, section layout.Section, row layout.Row, cursor *int) error {
	for _, field := range section.Fields {
		if field.Kind == layout.KindPadding {
			buf.Write(w.codec.Padding(field.Length))
			continue
		}
		if *cursor >= len(row) {
			return fmt.Errorf("row has %d values but field %s needs more", len(row), field.Name)
		}
		value := row[*cursor]
		*cursor++

		encoded, err := w.encodeField(field, value)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		buf.Write(encoded)
	}
	return nil
}

// encodeField renders one row value into the field's byte span.
func (w *Writer) encodeField(field layout.Field, value interface{}) ([]byte, error) {
	switch field.Kind {
	case layout.KindInteger:
		n, err := asUint64(value)
		if err != nil {
			return nil, err
		}
		return w.codec.EncodeUint(n, field.Length)
	case layout.KindText:
		s, err := asString(value)
		if err != nil {
			return nil, err
		}
		return w.codec.EncodeText(s, field.Length)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, field.Type)
	}
}

// asUint64 coerces the integer representations a store round trip can
// hand back. Negative values never fit an unsigned field.
func asUint64(v interface{}) (uint64, error) {
	switch v := v.(type) {
	case uint64:
		return v, nil
	case uint32:
		return uint64(v), nil
	case uint:
		return uint64(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned field", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned field", v)
		}
		return uint64(v), nil
	case int32:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned field", v)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("value type %T is not an integer", v)
	}
}

// asString coerces text values.
func asString(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("value type %T is not text", v)
	}
}
