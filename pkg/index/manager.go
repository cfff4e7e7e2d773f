package index

import (
	"fmt"
	"sync"

	"github.com/ssargent/brokkr/pkg/layout"
	"github.com/ssargent/brokkr/pkg/store"
)

// Manager builds and caches secondary indexes on demand. An index is
// populated from a full store scan the first time its column is
// queried, and lives for the process; imports that happen afterwards
// must invalidate it.
type Manager struct {
	store   *store.PebbleStore
	indexes map[string]*SecondaryIndex
	mu      sync.Mutex
}

// NewManager creates a manager over the given store.
func NewManager(s *store.PebbleStore) *Manager {
	return &Manager{
		store:   s,
		indexes: make(map[string]*SecondaryIndex),
	}
}

// Index returns the index for table.column, building it from a store
// scan on first use.
func (m *Manager) Index(table, column string) (*SecondaryIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := table + "/" + column
	if idx, ok := m.indexes[key]; ok {
		return idx, nil
	}

	idx, err := m.build(table, column)
	if err != nil {
		return nil, err
	}
	m.indexes[key] = idx
	return idx, nil
}

// Invalidate drops every cached index of the table, forcing a rebuild
// on next use. Required whenever rows are inserted into a table while
// indexes over it are live; a stale index would miss the new rows.
func (m *Manager) Invalidate(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := table + "/"
	for key := range m.indexes {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.indexes, key)
		}
	}
}

// build scans the table once and indexes the requested column.
func (m *Manager) build(table, column string) (*SecondaryIndex, error) {
	schema, err := m.store.Schema(table)
	if err != nil {
		return nil, err
	}

	pos := -1
	var kind layout.FieldKind
	for i, col := range schema.Columns {
		if col.Name == column {
			pos = i
			kind = kindFromName(col.Kind)
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, table, column)
	}

	idx, err := NewSecondaryIndex(table, column, kind)
	if err != nil {
		return nil, err
	}
	err = m.store.ScanRows(table, func(seq uint64, row layout.Row) error {
		if pos >= len(row) {
			return fmt.Errorf("table %s seq %d: row has %d values, column %s is %d",
				table, seq, len(row), column, pos)
		}
		return idx.Insert(row[pos], seq)
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// kindFromName maps a stored kind spelling back to the layout kind.
func kindFromName(name string) layout.FieldKind {
	switch name {
	case "int":
		return layout.KindInteger
	case "str":
		return layout.KindText
	default:
		return layout.KindUnknown
	}
}
