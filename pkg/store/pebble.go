package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	json "github.com/goccy/go-json"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/brokkr/pkg/codec"
	"github.com/ssargent/brokkr/pkg/layout"
)

// Key prefixes: s/<table> holds the schema, m/<table> the meta block,
// r/<table>/<seq> one encoded row. Sequences are big-endian so pebble
// iteration order equals insertion order.
const (
	schemaPrefix = "s/"
	metaPrefix   = "m/"
	rowPrefix    = "r/"
)

// PebbleStoreConfig holds configuration for the pebble-backed store
type PebbleStoreConfig struct {
	Path   string      // Directory for the pebble database
	Logger *zap.Logger // Optional; defaults to a no-op logger
}

// PebbleStore implements Store on a pebble key-value database.
type PebbleStore struct {
	db     *pebble.DB
	codec  *codec.RowCodec
	logger *zap.Logger
}

// NewPebbleStore opens (creating if needed) the store at cfg.Path.
func NewPebbleStore(cfg PebbleStoreConfig) (*PebbleStore, error) {
	db, err := pebble.Open(cfg.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PebbleStore{
		db:     db,
		codec:  codec.NewRowCodec(),
		logger: logger,
	}, nil
}

// Close releases the database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// EnsureTable creates the table's schema if absent. An existing
// schema must match the layout's column names and kinds; a layout
// drift between import and export would otherwise swap field bytes
// undetected on write-back.
func (s *PebbleStore) EnsureTable(name string, cols []layout.Column) error {
	want := TableSchema{Columns: make([]ColumnSpec, 0, len(cols))}
	for _, c := range cols {
		want.Columns = append(want.Columns, ColumnSpec{
			Name:   c.Name,
			Kind:   kindName(c.Kind),
			Length: c.Length,
		})
	}

	existing, err := s.Schema(name)
	if err == nil {
		if len(existing.Columns) != len(want.Columns) {
			return fmt.Errorf("%w: table %s has %d columns, layout has %d",
				ErrSchemaMismatch, name, len(existing.Columns), len(want.Columns))
		}
		for i := range want.Columns {
			if existing.Columns[i].Name != want.Columns[i].Name ||
				existing.Columns[i].Kind != want.Columns[i].Kind {
				return fmt.Errorf("%w: table %s column %d is %s %s, layout wants %s %s",
					ErrSchemaMismatch, name,
					i, existing.Columns[i].Kind, existing.Columns[i].Name,
					want.Columns[i].Kind, want.Columns[i].Name)
			}
		}
		return nil
	}
	if !errors.Is(err, ErrTableNotFound) {
		return err
	}

	data, err := json.Marshal(want)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if err := s.db.Set(schemaKey(name), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to store schema: %w", err)
	}
	s.logger.Info("table created",
		zap.String("table", name),
		zap.Int("columns", len(want.Columns)))
	return nil
}

// InsertRows appends rows whose values are ordered by cols. The whole
// batch commits atomically and stamps the table meta with a fresh
// import batch ID.
func (s *PebbleStore) InsertRows(name string, cols []string, rows []layout.Row) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	positions, err := columnPositions(schema, cols)
	if err != nil {
		return fmt.Errorf("table %s: %w", name, err)
	}

	meta, err := s.Meta(name)
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for i, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("table %s row %d has %d values, want %d", name, i, len(row), len(cols))
		}
		// Reorder into stored schema order.
		stored := make(layout.Row, len(schema.Columns))
		for src, dst := range positions {
			stored[dst] = row[src]
		}
		encoded, err := s.codec.Encode(stored)
		if err != nil {
			return fmt.Errorf("table %s row %d: %w", name, i, err)
		}
		if err := batch.Set(rowKey(name, meta.NextSeq), encoded, nil); err != nil {
			return fmt.Errorf("failed to stage row: %w", err)
		}
		meta.NextSeq++
		meta.RowCount++
	}

	meta.LastBatchID = ksuid.New().String()
	meta.LastImport = time.Now().UTC()
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal table meta: %w", err)
	}
	if err := batch.Set(metaKey(name), metaData, nil); err != nil {
		return fmt.Errorf("failed to stage table meta: %w", err)
	}

	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	s.logger.Info("rows inserted",
		zap.String("table", name),
		zap.Int("rows", len(rows)),
		zap.String("batch", meta.LastBatchID))
	return nil
}

// SelectAll returns every row of the table in insertion order, with
// values projected into the requested column order.
func (s *PebbleStore) SelectAll(name string, cols []string) ([]layout.Row, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	positions, err := columnPositions(schema, cols)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}

	var rows []layout.Row
	err = s.ScanRows(name, func(_ uint64, stored layout.Row) error {
		row := make(layout.Row, len(cols))
		for dst, src := range positions {
			row[dst] = stored[src]
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ScanRows streams the table's rows in stored schema order, keyed by
// their sequence numbers, in insertion order.
func (s *PebbleStore) ScanRows(name string, fn func(seq uint64, row layout.Row) error) error {
	lower := []byte(rowPrefix + name + "/")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return fmt.Errorf("failed to open row iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		seq := binary.BigEndian.Uint64(key[len(key)-8:])
		row, err := s.codec.Decode(iter.Value())
		if err != nil {
			return fmt.Errorf("table %s seq %d: %w", name, seq, err)
		}
		if err := fn(seq, row); err != nil {
			return err
		}
	}
	return iter.Error()
}

// RowBySeq fetches one row (in stored schema order) by its sequence.
func (s *PebbleStore) RowBySeq(name string, seq uint64) (layout.Row, error) {
	data, closer, err := s.db.Get(rowKey(name, seq))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("table %s seq %d: row not found", name, seq)
		}
		return nil, err
	}
	defer closer.Close()
	return s.codec.Decode(data)
}

// Truncate drops all rows of the table, keeping its schema. Backs the
// CLI --replace import mode.
func (s *PebbleStore) Truncate(name string) error {
	if _, err := s.Schema(name); err != nil {
		return err
	}
	lower := []byte(rowPrefix + name + "/")
	if err := s.db.DeleteRange(lower, prefixUpperBound(lower), pebble.NoSync); err != nil {
		return fmt.Errorf("failed to truncate table %s: %w", name, err)
	}

	meta := &TableMeta{}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal table meta: %w", err)
	}
	if err := s.db.Set(metaKey(name), metaData, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to reset table meta: %w", err)
	}
	s.logger.Info("table truncated", zap.String("table", name))
	return nil
}

// Schema returns the stored schema of the table.
func (s *PebbleStore) Schema(name string) (*TableSchema, error) {
	data, closer, err := s.db.Get(schemaKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	defer closer.Close()

	var schema TableSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &schema, nil
}

// Meta returns the table's bookkeeping block, zero-valued for a table
// that has never seen an insert.
func (s *PebbleStore) Meta(name string) (*TableMeta, error) {
	data, closer, err := s.db.Get(metaKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return &TableMeta{}, nil
		}
		return nil, fmt.Errorf("failed to read table meta: %w", err)
	}
	defer closer.Close()

	var meta TableMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse table meta: %w", err)
	}
	return &meta, nil
}

// TableNames lists every table with a stored schema, in key order.
func (s *PebbleStore) TableNames() ([]string, error) {
	lower := []byte(schemaPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open schema iterator: %w", err)
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, strings.TrimPrefix(string(iter.Key()), schemaPrefix))
	}
	return names, iter.Error()
}

// TotalStats aggregates table counts for the diagnostics surfaces.
func (s *PebbleStore) TotalStats() (*Stats, error) {
	names, err := s.TableNames()
	if err != nil {
		return nil, err
	}
	stats := &Stats{Tables: len(names)}
	for _, name := range names {
		meta, err := s.Meta(name)
		if err != nil {
			return nil, err
		}
		stats.Rows += meta.RowCount
		if meta.LastImport.After(stats.LastImport) {
			stats.LastImport = meta.LastImport
		}
	}
	return stats, nil
}

func schemaKey(name string) []byte {
	return []byte(schemaPrefix + name)
}

func metaKey(name string) []byte {
	return []byte(metaPrefix + name)
}

func rowKey(name string, seq uint64) []byte {
	key := make([]byte, 0, len(rowPrefix)+len(name)+9)
	key = append(key, rowPrefix...)
	key = append(key, name...)
	key = append(key, '/')
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return append(key, buf[:]...)
}

// prefixUpperBound returns the smallest key greater than every key
// with the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil // prefix is all 0xff; no upper bound
}

// columnPositions maps each requested column to its position in the
// stored schema.
func columnPositions(schema *TableSchema, cols []string) ([]int, error) {
	byName := make(map[string]int, len(schema.Columns))
	for i, c := range schema.Columns {
		byName[c.Name] = i
	}
	positions := make([]int, len(cols))
	for i, name := range cols {
		pos, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		positions[i] = pos
	}
	return positions, nil
}
