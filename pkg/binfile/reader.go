package binfile

import (
	"fmt"
	"io"

	"github.com/ssargent/brokkr/pkg/codec"
	"github.com/ssargent/brokkr/pkg/layout"
)

// ErrUnsupportedType is reported when a field whose type the codec
// does not know is actually read or written. The parser deliberately
// lets such fields through.
var ErrUnsupportedType = &codec.CodecError{Message: "unsupported field type"}

// Reader walks a layout against a seekable byte source and produces
// rows per table.
type Reader struct {
	codec *codec.FieldCodec
}

// NewReader creates a reader that decodes fields with the given codec.
func NewReader(fc *codec.FieldCodec) *Reader {
	return &Reader{codec: fc}
}

// Read decodes every table of the layout from src. fileOffset is a
// constant bias added to every section offset.
//
// Rows of a table spread across several sections are assembled by
// position: section by section, each record appends its non-padding
// values to the same row slot, so the column order matches the
// table's row schema exactly. Sections seek absolutely, so their
// ordering within the file is irrelevant. Short reads propagate as
// I/O errors and abort the whole operation.
func (r *Reader) Read(spec *layout.Spec, src io.ReadSeeker, fileOffset int64) (map[string][]layout.Row, error) {
	out := make(map[string][]layout.Row, spec.Len())
	for _, table := range spec.Tables() {
		rows := make([]layout.Row, table.Count)
		for _, section := range table.Sections {
			if _, err := src.Seek(section.Offset+fileOffset, io.SeekStart); err != nil {
				return nil, fmt.Errorf("failed to seek to section of table %s: %w", table.Name, err)
			}
			for slot := 0; slot < table.Count; slot++ {
				for _, field := range section.Fields {
					if field.Kind == layout.KindPadding {
						if _, err := src.Seek(int64(field.Length), io.SeekCurrent); err != nil {
							return nil, fmt.Errorf("failed to skip padding in table %s: %w", table.Name, err)
						}
						continue
					}
					value, err := r.readField(src, field)
					if err != nil {
						return nil, fmt.Errorf("table %s field %s: %w", table.Name, field.Name, err)
					}
					rows[slot] = append(rows[slot], value)
				}
			}
		}
		out[table.Name] = rows
	}
	return out, nil
}

// readField reads and decodes one field at the current position.
func (r *Reader) readField(src io.Reader, field layout.Field) (interface{}, error) {
	buf := make([]byte, field.Length)
	if _, err := io.ReadFull(src, buf); err != nil {
		return nil, err
	}
	switch field.Kind {
	case layout.KindInteger:
		return r.codec.DecodeUint(buf)
	case layout.KindText:
		return r.codec.DecodeText(buf)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, field.Type)
	}
}
