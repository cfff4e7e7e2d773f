package index

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ssargent/brokkr/pkg/bptree"
	"github.com/ssargent/brokkr/pkg/layout"
)

// Key space: one tag byte per column kind, then the order-preserving
// encoding of the value, then the 8-byte big-endian row sequence to
// keep duplicate values distinct. Integer values encode big-endian so
// lexicographic key order equals numeric order.
const (
	tagInteger = 'i'
	tagText    = 's'
)

// SecondaryIndex is an in-memory B+Tree index over one column of one
// table, mapping composite value keys to row sequence numbers.
type SecondaryIndex struct {
	table  string
	column string
	kind   layout.FieldKind
	tree   *bptree.BPlusTree[string, uint64]
}

// NewSecondaryIndex creates an empty index for the given column kind.
func NewSecondaryIndex(table, column string, kind layout.FieldKind) (*SecondaryIndex, error) {
	if kind != layout.KindInteger && kind != layout.KindText {
		return nil, fmt.Errorf("cannot index column %s.%s of kind %s", table, column, kind)
	}
	return &SecondaryIndex{
		table:  table,
		column: column,
		kind:   kind,
		tree:   bptree.New[string, uint64](bptree.DefaultOrder),
	}, nil
}

// Insert adds one row's column value.
func (idx *SecondaryIndex) Insert(value interface{}, seq uint64) error {
	prefix, err := idx.encodeValue(value)
	if err != nil {
		return err
	}
	idx.tree.Insert(prefix+encodeSeq(seq), seq)
	return nil
}

// Seek returns the sequences of rows whose column value satisfies
// op ∈ {=, !=, <, <=, >, >=} against value, in value order.
func (idx *SecondaryIndex) Seek(op string, value interface{}) ([]uint64, error) {
	prefix, err := idx.encodeValue(value)
	if err != nil {
		return nil, err
	}
	lower, upper := string(byte(idx.tag())), string(byte(idx.tag()+1))

	var ranges [][2]string
	switch op {
	case "=":
		ranges = [][2]string{{prefix, prefixSuccessor(prefix)}}
	case "!=":
		ranges = [][2]string{{lower, prefix}, {prefixSuccessor(prefix), upper}}
	case "<":
		ranges = [][2]string{{lower, prefix}}
	case "<=":
		ranges = [][2]string{{lower, prefixSuccessor(prefix)}}
	case ">":
		ranges = [][2]string{{prefixSuccessor(prefix), upper}}
	case ">=":
		ranges = [][2]string{{prefix, upper}}
	default:
		return nil, fmt.Errorf("unsupported operator: %s", op)
	}

	var seqs []uint64
	for _, r := range ranges {
		idx.tree.Range(r[0], r[1], func(_ string, seq uint64) bool {
			seqs = append(seqs, seq)
			return true
		})
	}
	return seqs, nil
}

// Len returns the number of indexed rows.
func (idx *SecondaryIndex) Len() int {
	return idx.tree.Len()
}

func (idx *SecondaryIndex) tag() byte {
	if idx.kind == layout.KindInteger {
		return tagInteger
	}
	return tagText
}

// encodeValue renders a column value as an order-preserving key
// prefix. Text values are NUL-escaped (0x00 becomes 0x00 0x01) and
// 0x00 0x00 terminated so that no encoded value is a prefix of
// another; field text legally contains NUL padding bytes.
func (idx *SecondaryIndex) encodeValue(value interface{}) (string, error) {
	switch idx.kind {
	case layout.KindInteger:
		n, err := coerceUint64(value)
		if err != nil {
			return "", fmt.Errorf("column %s.%s: %w", idx.table, idx.column, err)
		}
		var buf [9]byte
		buf[0] = tagInteger
		binary.BigEndian.PutUint64(buf[1:], n)
		return string(buf[:]), nil
	default:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("column %s.%s: value type %T is not text", idx.table, idx.column, value)
		}
		var b strings.Builder
		b.WriteByte(tagText)
		for i := 0; i < len(s); i++ {
			if s[i] == 0x00 {
				b.WriteByte(0x00)
				b.WriteByte(0x01)
			} else {
				b.WriteByte(s[i])
			}
		}
		b.WriteByte(0x00)
		b.WriteByte(0x00)
		return b.String(), nil
	}
}

// coerceUint64 accepts the integer shapes a query layer hands over.
func coerceUint64(v interface{}) (uint64, error) {
	switch v := v.(type) {
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned column", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned column", v)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("value type %T is not an integer", v)
	}
}

// encodeSeq renders the uniqueness suffix.
func encodeSeq(seq uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return string(buf[:])
}

// prefixSuccessor returns the smallest string greater than every
// string with the given prefix. Every prefix here starts with a tag
// byte below 0xff, so a successor always exists.
func prefixSuccessor(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return prefix
}
