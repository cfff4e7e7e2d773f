package layout

import "fmt"

// FieldKind identifies the primitive stored in a field's byte span.
type FieldKind int

const (
	KindPadding FieldKind = iota
	KindInteger
	KindText
	KindUnknown
)

// String returns the layout-file spelling of the kind.
func (k FieldKind) String() string {
	switch k {
	case KindPadding:
		return "padding"
	case KindInteger:
		return "int"
	case KindText:
		return "str"
	default:
		return "unknown"
	}
}

// Field is one fixed-width primitive inside a section. Padding fields
// have an empty Name and never appear in the row schema. Unknown kinds
// keep the raw type token so the reader/writer can report it; the
// parser deliberately accepts them (see Parse).
type Field struct {
	Kind   FieldKind
	Name   string // empty for padding
	Length int    // byte width, always positive
	Type   string // raw type token from the layout file
}

// Section is a contiguous block of Count records anchored at an
// absolute file offset (before any caller-supplied bias is applied).
type Section struct {
	Offset int64   // absolute file offset, pre-bias
	Total  int     // declared byte width of one record in this section
	Fields []Field // declared order
}

// Table groups the sections that together describe one logical table.
// Every section of a table holds the same record count.
type Table struct {
	Name     string
	Count    int
	Sections []Section
}

// Column is one entry of a table's row schema: a non-padding field
// plus the index of the section it was declared in.
type Column struct {
	Name    string
	Kind    FieldKind
	Length  int
	Section int
	Type    string
}

// Row holds one record's values in row-schema order: uint64 for
// integer columns, string for text columns.
type Row []interface{}

// RowSchema flattens the table's sections in declared order, skipping
// padding. This is the single column-order contract shared by the
// binary reader, the binary writer, the store and the generator; the
// result is deterministic for a given table.
func (t *Table) RowSchema() []Column {
	var cols []Column
	for si, sec := range t.Sections {
		for _, f := range sec.Fields {
			if f.Kind == KindPadding {
				continue
			}
			cols = append(cols, Column{
				Name:    f.Name,
				Kind:    f.Kind,
				Length:  f.Length,
				Section: si,
				Type:    f.Type,
			})
		}
	}
	return cols
}

// Spec is a parsed layout: tables addressable by name, with the
// declaration order of first appearance preserved. A Spec is built
// once by Parse and never mutated afterwards.
type Spec struct {
	tables map[string]*Table
	order  []string
}

// Table returns the named table, or false if the layout never
// declared it.
func (s *Spec) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Tables returns all tables in declaration order.
func (s *Spec) Tables() []*Table {
	out := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// Len returns the number of distinct tables in the layout.
func (s *Spec) Len() int {
	return len(s.order)
}

// InvalidError reports a malformed layout file. Line is 1-based and
// points at the offending line; section-total mismatches point at the
// section's header line.
type InvalidError struct {
	Line int
	Msg  string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("layout: line %d: %s", e.Line, e.Msg)
}
