package layout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse reads a layout description and builds a Spec.
//
// The grammar is line-oriented:
//
//	begin
//	<tablename> <base_offset> <section_total_bytes> <record_count>
//	  <fieldname> <type> <length>
//	  padding <length>
//	end
//	endfile
//
// base_offset accepts decimal or 0x-prefixed hexadecimal. Lines
// outside begin/end blocks are skipped; endfile (or EOF) stops the
// scan; read failures from r propagate wrapped. Unknown field types
// are accepted here and rejected by the reader/writer when the field
// is actually touched.
func Parse(r io.Reader) (*Spec, error) {
	p := &parser{
		scanner: bufio.NewScanner(r),
		spec:    &Spec{tables: make(map[string]*Table)},
	}
	for {
		line, ok := p.next()
		if !ok {
			if err := p.scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read layout: %w", err)
			}
			return p.spec, nil
		}
		if line == "endfile" {
			return p.spec, nil
		}
		if !strings.HasPrefix(line, "begin") {
			continue
		}
		if err := p.parseSection(); err != nil {
			return nil, err
		}
	}
}

// ParseFile opens and parses a layout file, releasing the handle on
// every path.
func ParseFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

type parser struct {
	scanner *bufio.Scanner
	spec    *Spec
	line    int
}

// next returns the next trimmed line, advancing the 1-based counter.
func (p *parser) next() (string, bool) {
	if !p.scanner.Scan() {
		return "", false
	}
	p.line++
	return strings.TrimSpace(p.scanner.Text()), true
}

// parseSection consumes one header line plus field lines up to "end"
// and appends the section to its table.
func (p *parser) parseSection() error {
	header, ok := p.next()
	if !ok {
		if err := p.scanner.Err(); err != nil {
			return fmt.Errorf("failed to read layout: %w", err)
		}
		return &InvalidError{p.line, "unexpected end of layout after begin"}
	}
	headerLine := p.line

	parts := strings.Fields(header)
	if len(parts) != 4 {
		return &InvalidError{headerLine, "table must have four arguments"}
	}
	name := parts[0]
	offset, err := strconv.ParseInt(parts[1], 0, 64)
	if err != nil {
		return &InvalidError{headerLine, fmt.Sprintf("invalid base offset %q", parts[1])}
	}
	total, err := strconv.Atoi(parts[2])
	if err != nil {
		return &InvalidError{headerLine, fmt.Sprintf("invalid section total %q", parts[2])}
	}
	count, err := strconv.Atoi(parts[3])
	if err != nil {
		return &InvalidError{headerLine, fmt.Sprintf("invalid record count %q", parts[3])}
	}

	table, seen := p.spec.tables[name]
	if !seen {
		table = &Table{Name: name, Count: count}
		p.spec.tables[name] = table
		p.spec.order = append(p.spec.order, name)
	}
	if count != table.Count {
		return &InvalidError{headerLine,
			fmt.Sprintf("counts for table %s must be equal for all sections of table %s", name, name)}
	}

	section := Section{Offset: offset, Total: total}
	subtotal := 0
	for {
		line, ok := p.next()
		if !ok {
			if err := p.scanner.Err(); err != nil {
				return fmt.Errorf("failed to read layout: %w", err)
			}
			return &InvalidError{p.line, "unexpected end of layout inside section"}
		}
		if line == "end" {
			break
		}
		field, err := p.parseField(line)
		if err != nil {
			return err
		}
		section.Fields = append(section.Fields, field)
		subtotal += field.Length
	}
	if subtotal != total {
		return &InvalidError{headerLine,
			fmt.Sprintf("lengths of section %s do not add up to %d", name, total)}
	}

	table.Sections = append(table.Sections, section)
	return nil
}

// parseField parses one field or padding line.
func (p *parser) parseField(line string) (Field, error) {
	parts := strings.Fields(line)
	if strings.HasPrefix(line, "padding") {
		if len(parts) != 2 {
			return Field{}, &InvalidError{p.line, "padding must have one argument"}
		}
		length, err := strconv.Atoi(parts[1])
		if err != nil {
			return Field{}, &InvalidError{p.line, fmt.Sprintf("invalid padding length %q", parts[1])}
		}
		return Field{Kind: KindPadding, Length: length, Type: "int"}, nil
	}

	if len(parts) != 3 {
		return Field{}, &InvalidError{p.line, "column must have three arguments"}
	}
	length, err := strconv.Atoi(parts[2])
	if err != nil {
		return Field{}, &InvalidError{p.line, fmt.Sprintf("invalid column length %q", parts[2])}
	}
	kind := KindUnknown
	switch parts[1] {
	case "int":
		kind = KindInteger
	case "str":
		kind = KindText
	}
	return Field{Kind: kind, Name: parts[0], Length: length, Type: parts[1]}, nil
}
