package layout

import (
	"errors"
	"strings"
	"testing"
)

const playersLayout = `begin
players 0x10 8 2
name str 4
hp int 4
end
endfile
`

func TestParse_SingleTable(t *testing.T) {
	spec, err := Parse(strings.NewReader(playersLayout))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	table, ok := spec.Table("players")
	if !ok {
		t.Fatal("table players not found")
	}
	if table.Count != 2 {
		t.Errorf("count = %d, want 2", table.Count)
	}
	if len(table.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(table.Sections))
	}

	sec := table.Sections[0]
	if sec.Offset != 0x10 {
		t.Errorf("offset = %d, want 16", sec.Offset)
	}
	if sec.Total != 8 {
		t.Errorf("total = %d, want 8", sec.Total)
	}
	if len(sec.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(sec.Fields))
	}
	if sec.Fields[0].Kind != KindText || sec.Fields[0].Name != "name" || sec.Fields[0].Length != 4 {
		t.Errorf("unexpected first field: %+v", sec.Fields[0])
	}
	if sec.Fields[1].Kind != KindInteger || sec.Fields[1].Name != "hp" || sec.Fields[1].Length != 4 {
		t.Errorf("unexpected second field: %+v", sec.Fields[1])
	}
}

func TestParse_MultiSectionTable(t *testing.T) {
	input := `begin
players 0 8 3
name str 8
end
begin
players 0x40 4 3
hp int 4
end
endfile
`
	spec, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	table, _ := spec.Table("players")
	if len(table.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(table.Sections))
	}
	if table.Sections[1].Offset != 0x40 {
		t.Errorf("second section offset = %d, want 64", table.Sections[1].Offset)
	}
	if spec.Len() != 1 {
		t.Errorf("tables = %d, want 1", spec.Len())
	}
}

func TestParse_TableOrderPreserved(t *testing.T) {
	input := `begin
zeta 0 1 1
a int 1
end
begin
alpha 8 1 1
b int 1
end
endfile
`
	spec, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tables := spec.Tables()
	if len(tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(tables))
	}
	if tables[0].Name != "zeta" || tables[1].Name != "alpha" {
		t.Errorf("table order = [%s %s], want [zeta alpha]", tables[0].Name, tables[1].Name)
	}
}

func TestParse_Padding(t *testing.T) {
	input := `begin
stats 0 8 1
a int 2
padding 2
b int 4
end
endfile
`
	spec, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	table, _ := spec.Table("stats")
	fields := table.Sections[0].Fields
	if len(fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(fields))
	}
	if fields[1].Kind != KindPadding || fields[1].Length != 2 || fields[1].Name != "" {
		t.Errorf("unexpected padding field: %+v", fields[1])
	}
}

func TestParse_UnknownTypeAccepted(t *testing.T) {
	// Unknown field types pass the parser; the reader rejects them
	// when the field is actually decoded.
	input := `begin
blobs 0 16 1
payload blob 16
end
endfile
`
	spec, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	table, _ := spec.Table("blobs")
	f := table.Sections[0].Fields[0]
	if f.Kind != KindUnknown {
		t.Errorf("kind = %v, want unknown", f.Kind)
	}
	if f.Type != "blob" {
		t.Errorf("type token = %q, want blob", f.Type)
	}
}

func TestParse_SkipsLinesOutsideBlocks(t *testing.T) {
	input := `
this line means nothing

begin
players 16 4 1
hp int 4
end

also ignored
endfile
begin is never reached here
`
	spec, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if spec.Len() != 1 {
		t.Errorf("tables = %d, want 1", spec.Len())
	}
}

func TestParse_EOFWithoutEndfile(t *testing.T) {
	spec, err := Parse(strings.NewReader("begin\nplayers 0 4 1\nhp int 4\nend\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if spec.Len() != 1 {
		t.Errorf("tables = %d, want 1", spec.Len())
	}
}

// failingReader yields its data, then fails instead of reporting EOF.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestParse_ReadErrorPropagates(t *testing.T) {
	readErr := errors.New("disk read failure")

	t.Run("between sections", func(t *testing.T) {
		// One complete table arrives before the stream fails. A nil
		// error here would hand back a silently truncated layout.
		r := &failingReader{
			data: []byte("begin\nplayers 0 4 1\nhp int 4\nend\n"),
			err:  readErr,
		}
		spec, err := Parse(r)
		if !errors.Is(err, readErr) {
			t.Fatalf("Parse error = %v, want wrapped read failure", err)
		}
		if spec != nil {
			t.Errorf("Parse returned a spec alongside the error")
		}
	})

	t.Run("inside section", func(t *testing.T) {
		r := &failingReader{
			data: []byte("begin\nplayers 0 8 2\nname str 4\n"),
			err:  readErr,
		}
		_, err := Parse(r)
		if !errors.Is(err, readErr) {
			t.Fatalf("Parse error = %v, want wrapped read failure", err)
		}
		var invalid *InvalidError
		if errors.As(err, &invalid) {
			t.Errorf("read failure misreported as layout error: %v", err)
		}
	})

	t.Run("before header", func(t *testing.T) {
		r := &failingReader{data: []byte("begin\n"), err: readErr}
		_, err := Parse(r)
		if !errors.Is(err, readErr) {
			t.Fatalf("Parse error = %v, want wrapped read failure", err)
		}
	})
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "header with wrong argument count",
			input:    "begin\nplayers 0 8\nend\nendfile\n",
			wantLine: 2,
			wantMsg:  "four arguments",
		},
		{
			name:     "field with wrong argument count",
			input:    "begin\nplayers 0 8 2\nname str\nend\nendfile\n",
			wantLine: 3,
			wantMsg:  "three arguments",
		},
		{
			name:     "padding with wrong argument count",
			input:    "begin\nplayers 0 8 2\npadding\nend\nendfile\n",
			wantLine: 3,
			wantMsg:  "one argument",
		},
		{
			name:     "section lengths do not add up",
			input:    "begin\nplayers 0 8 2\nname str 4\nhp int 2\nend\nendfile\n",
			wantLine: 2,
			wantMsg:  "do not add up",
		},
		{
			name:     "count mismatch across sections",
			input:    "begin\nplayers 0 4 2\nname str 4\nend\nbegin\nplayers 16 4 3\nhp int 4\nend\nendfile\n",
			wantLine: 6,
			wantMsg:  "must be equal",
		},
		{
			name:     "bad base offset",
			input:    "begin\nplayers zero 8 2\nname str 8\nend\nendfile\n",
			wantLine: 2,
			wantMsg:  "invalid base offset",
		},
		{
			name:     "bad field length",
			input:    "begin\nplayers 0 8 2\nname str four\nend\nendfile\n",
			wantLine: 3,
			wantMsg:  "invalid column length",
		},
		{
			name:     "truncated section",
			input:    "begin\nplayers 0 8 2\nname str 8\n",
			wantLine: 3,
			wantMsg:  "unexpected end of layout",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var invalid *InvalidError
			if !errors.As(err, &invalid) {
				t.Fatalf("error type = %T, want *InvalidError", err)
			}
			if invalid.Line != tc.wantLine {
				t.Errorf("line = %d, want %d (error: %v)", invalid.Line, tc.wantLine, err)
			}
			if !strings.Contains(invalid.Msg, tc.wantMsg) {
				t.Errorf("message %q does not contain %q", invalid.Msg, tc.wantMsg)
			}
		})
	}
}

func TestRowSchema_FlattensSectionsInOrder(t *testing.T) {
	input := `begin
players 0 10 2
name str 8
padding 2
end
begin
players 0x40 6 2
hp int 4
level int 2
end
endfile
`
	spec, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	table, _ := spec.Table("players")
	cols := table.RowSchema()
	want := []struct {
		name    string
		kind    FieldKind
		section int
	}{
		{"name", KindText, 0},
		{"hp", KindInteger, 1},
		{"level", KindInteger, 1},
	}
	if len(cols) != len(want) {
		t.Fatalf("columns = %d, want %d", len(cols), len(want))
	}
	for i, w := range want {
		if cols[i].Name != w.name || cols[i].Kind != w.kind || cols[i].Section != w.section {
			t.Errorf("column %d = %+v, want %+v", i, cols[i], w)
		}
	}
}

func TestRowSchema_Deterministic(t *testing.T) {
	spec, err := Parse(strings.NewReader(playersLayout))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	table, _ := spec.Table("players")
	first := table.RowSchema()
	second := table.RowSchema()
	if len(first) != len(second) {
		t.Fatalf("schema length changed between calls: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("column %d changed between calls: %+v != %+v", i, first[i], second[i])
		}
	}
}
