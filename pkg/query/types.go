package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ssargent/brokkr/pkg/layout"
)

// FieldQuery is a single column predicate.
type FieldQuery struct {
	Column string      // Column name to filter on
	Op     string      // Comparison operator: =, !=, <, <=, >, >=
	Value  interface{} // uint64 or string
}

// validOps lists the supported comparison operators.
var validOps = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Column == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	if !validOps[q.Op] {
		return fmt.Errorf("invalid operator: %s", q.Op)
	}
	if q.Value == nil {
		return fmt.Errorf("value cannot be empty")
	}
	return nil
}

// ParseWhere parses a predicate of the form "column op value", e.g.
// `hp >= 50` or `name = "Al"`. Unquoted values that parse as unsigned
// integers are treated as integers, everything else as text.
func ParseWhere(s string) (FieldQuery, error) {
	parts := strings.Fields(s)
	if len(parts) < 3 {
		return FieldQuery{}, fmt.Errorf("predicate must have the form: column op value")
	}
	column, op := parts[0], parts[1]
	raw := strings.Join(parts[2:], " ")

	var value interface{}
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		value = raw[1 : len(raw)-1]
	} else if n, err := strconv.ParseUint(raw, 0, 64); err == nil {
		value = n
	} else {
		value = raw
	}

	q := FieldQuery{Column: column, Op: op, Value: value}
	if err := q.Validate(); err != nil {
		return FieldQuery{}, err
	}
	return q, nil
}

// Result is one matching row, tagged with its sequence number.
type Result struct {
	Seq uint64
	Row layout.Row
}

// Iterator provides streaming access to query results
type Iterator interface {
	Next() bool
	Result() Result
	Close() error
}
