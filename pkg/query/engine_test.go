package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/brokkr/pkg/index"
	"github.com/ssargent/brokkr/pkg/layout"
	"github.com/ssargent/brokkr/pkg/store"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.NewPebbleStore(store.PebbleStoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cols := []layout.Column{
		{Name: "name", Kind: layout.KindText, Length: 4},
		{Name: "hp", Kind: layout.KindInteger, Length: 4},
	}
	require.NoError(t, s.EnsureTable("players", cols))
	require.NoError(t, s.InsertRows("players", []string{"name", "hp"}, []layout.Row{
		{"Al\x00\x00", uint64(100)},
		{"Bo\x00\x00", uint64(50)},
		{"Cy\x00\x00", uint64(75)},
		{"Di\x00\x00", uint64(50)},
	}))

	return NewEngine(index.NewManager(s), s)
}

func collect(t *testing.T, it Iterator) []Result {
	t.Helper()
	defer it.Close()
	var out []Result
	for it.Next() {
		out = append(out, it.Result())
	}
	return out
}

func TestEngine_Execute(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	testCases := []struct {
		name     string
		query    FieldQuery
		wantSeqs []uint64
	}{
		{
			name:     "equality",
			query:    FieldQuery{Column: "hp", Op: "=", Value: uint64(50)},
			wantSeqs: []uint64{1, 3},
		},
		{
			name:     "range",
			query:    FieldQuery{Column: "hp", Op: ">=", Value: uint64(75)},
			wantSeqs: []uint64{0, 2},
		},
		{
			name:     "not equal",
			query:    FieldQuery{Column: "hp", Op: "!=", Value: uint64(50)},
			wantSeqs: []uint64{0, 2},
		},
		{
			name:     "no matches",
			query:    FieldQuery{Column: "hp", Op: ">", Value: uint64(100)},
			wantSeqs: nil,
		},
		{
			name:     "text equality keeps NUL padding",
			query:    FieldQuery{Column: "name", Op: "=", Value: "Bo\x00\x00"},
			wantSeqs: []uint64{1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			it, err := e.Execute(ctx, "players", tc.query)
			require.NoError(t, err)

			results := collect(t, it)
			seqs := make([]uint64, 0, len(results))
			for _, r := range results {
				seqs = append(seqs, r.Seq)
				assert.Len(t, r.Row, 2, "rows come back in stored schema order")
			}
			if tc.wantSeqs == nil {
				assert.Empty(t, seqs)
			} else {
				assert.Equal(t, tc.wantSeqs, seqs, "results in row-sequence order")
			}
		})
	}
}

func TestEngine_ExecuteErrors(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, "players", FieldQuery{Column: "", Op: "=", Value: uint64(1)})
	assert.Error(t, err)

	_, err = e.Execute(ctx, "players", FieldQuery{Column: "hp", Op: "~", Value: uint64(1)})
	assert.Error(t, err)

	_, err = e.Execute(ctx, "players", FieldQuery{Column: "mana", Op: "=", Value: uint64(1)})
	assert.ErrorIs(t, err, store.ErrUnknownColumn)

	_, err = e.Execute(ctx, "ghosts", FieldQuery{Column: "hp", Op: "=", Value: uint64(1)})
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func TestParseWhere(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  FieldQuery
	}{
		{
			name:  "integer predicate",
			input: "hp >= 50",
			want:  FieldQuery{Column: "hp", Op: ">=", Value: uint64(50)},
		},
		{
			name:  "hex integer",
			input: "flags = 0x10",
			want:  FieldQuery{Column: "flags", Op: "=", Value: uint64(16)},
		},
		{
			name:  "quoted text",
			input: `name = "Al"`,
			want:  FieldQuery{Column: "name", Op: "=", Value: "Al"},
		},
		{
			name:  "bare text",
			input: "name != Bo",
			want:  FieldQuery{Column: "name", Op: "!=", Value: "Bo"},
		},
		{
			name:  "quoted text with spaces",
			input: `name = "Old Al"`,
			want:  FieldQuery{Column: "name", Op: "=", Value: "Old Al"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseWhere(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseWhere_Errors(t *testing.T) {
	for _, input := range []string{"", "hp", "hp >=", "hp ~ 50"} {
		_, err := ParseWhere(input)
		assert.Error(t, err, "input %q", input)
	}
}
