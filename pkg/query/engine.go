package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/ssargent/brokkr/pkg/index"
	"github.com/ssargent/brokkr/pkg/store"
)

// Engine executes field predicates against the secondary indexes and
// materializes matching rows from the store.
type Engine struct {
	indexes *index.Manager
	store   *store.PebbleStore
}

// NewEngine creates a new query engine
func NewEngine(indexes *index.Manager, s *store.PebbleStore) *Engine {
	return &Engine{
		indexes: indexes,
		store:   s,
	}
}

// Execute runs one predicate over a table. Matching rows come back in
// row-sequence order (insertion order), in the table's stored schema
// column order.
func (e *Engine) Execute(ctx context.Context, table string, q FieldQuery) (Iterator, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	idx, err := e.indexes.Index(table, q.Column)
	if err != nil {
		return nil, err
	}
	seqs, err := idx.Seek(q.Op, q.Value)
	if err != nil {
		return nil, fmt.Errorf("index seek failed: %w", err)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	results := make([]Result, 0, len(seqs))
	for _, seq := range seqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := e.store.RowBySeq(table, seq)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize row: %w", err)
		}
		results = append(results, Result{Seq: seq, Row: row})
	}
	return &sliceIterator{results: results}, nil
}

// sliceIterator implements Iterator over materialized results.
type sliceIterator struct {
	results []Result
	pos     int
}

func (it *sliceIterator) Next() bool {
	if it.pos < len(it.results) {
		it.pos++
		return true
	}
	return false
}

func (it *sliceIterator) Result() Result {
	if it.pos > 0 && it.pos <= len(it.results) {
		return it.results[it.pos-1]
	}
	return Result{}
}

func (it *sliceIterator) Close() error {
	return nil
}
