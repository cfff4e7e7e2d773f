package api

import (
	"github.com/ssargent/brokkr/pkg/layout"
	"github.com/ssargent/brokkr/pkg/store"
)

// APIResponse is the envelope for every JSON response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the REST API server
type ServerConfig struct {
	Port   int    // Port to listen on
	Bind   string // Bind address
	APIKey string // Required X-API-Key value for /api/v1 routes
}

// HealthResponse reports server liveness and store totals
type HealthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
	Rows   uint64 `json:"rows"`
}

// TableSummary is one entry of the table listing
type TableSummary struct {
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Rows    uint64 `json:"rows"`
}

// ColumnInfo describes one column of a table's schema
type ColumnInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Length int    `json:"length"`
}

// TableDetail is the full description of one table
type TableDetail struct {
	Name    string           `json:"name"`
	Columns []ColumnInfo     `json:"columns"`
	Meta    *store.TableMeta `json:"meta"`
}

// RowsResponse carries a page of rows in stored schema column order
type RowsResponse struct {
	Table   string       `json:"table"`
	Columns []string     `json:"columns"`
	Rows    []layout.Row `json:"rows"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	Total   int          `json:"total"`
}
