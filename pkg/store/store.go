package store

import (
	"time"

	"github.com/ssargent/brokkr/pkg/layout"
)

// Store is the persistence boundary the converter core talks to.
// Column order is always preserved exactly as given: the reader and
// writer both derive it from the same row schema, and a store that
// reordered columns would silently swap field offsets on write-back.
type Store interface {
	// EnsureTable creates the table if it does not exist. An existing
	// table must carry the same column names and kinds.
	EnsureTable(name string, cols []layout.Column) error

	// InsertRows appends rows whose values are ordered by cols.
	InsertRows(name string, cols []string, rows []layout.Row) error

	// SelectAll returns every row with values projected into the
	// requested column order, in insertion order.
	SelectAll(name string, cols []string) ([]layout.Row, error)

	Close() error
}

// TableMeta tracks bookkeeping per table: the next row sequence
// number and the provenance of the most recent import batch.
type TableMeta struct {
	NextSeq     uint64    `json:"next_seq"`
	RowCount    uint64    `json:"row_count"`
	LastBatchID string    `json:"last_batch_id,omitempty"`
	LastImport  time.Time `json:"last_import,omitempty"`
}

// ColumnSpec is the stored form of a schema column.
type ColumnSpec struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Length int    `json:"length"`
}

// TableSchema is the stored schema of one table.
type TableSchema struct {
	Columns []ColumnSpec `json:"columns"`
}

// Stats summarizes the whole store for diagnostics surfaces.
type Stats struct {
	Tables     int       `json:"tables"`
	Rows       uint64    `json:"rows"`
	LastImport time.Time `json:"last_import,omitempty"`
}

// Errors
var (
	ErrTableNotFound  = &StoreError{"table not found"}
	ErrSchemaMismatch = &StoreError{"table schema does not match layout"}
	ErrUnknownColumn  = &StoreError{"unknown column requested"}
)

// StoreError represents a record store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// kindName maps a layout field kind to its stored spelling.
func kindName(k layout.FieldKind) string {
	return k.String()
}
