package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/brokkr/pkg/layout"
	"github.com/ssargent/brokkr/pkg/query"
	"github.com/ssargent/brokkr/pkg/store"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 1000
)

// Server hosts the read-only REST surface over an open record store.
type Server struct {
	store   *store.PebbleStore
	engine  *query.Engine
	metrics *Metrics // nil disables instrumentation
	logger  *zap.Logger
	config  ServerConfig
}

// handleHealth reports liveness plus store totals.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.TotalStats()
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordHealthCheck(false)
		}
		sendError(w, "Store unavailable", http.StatusServiceUnavailable)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordHealthCheck(true)
	}
	sendSuccess(w, HealthResponse{
		Status: "healthy",
		Tables: stats.Tables,
		Rows:   stats.Rows,
	})
}

// handleListTables lists every table with row counts.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.TableNames()
	if err != nil {
		s.logger.Error("failed to list tables", zap.Error(err))
		sendError(w, "Failed to list tables", http.StatusInternalServerError)
		return
	}

	summaries := make([]TableSummary, 0, len(names))
	for _, name := range names {
		schema, err := s.store.Schema(name)
		if err != nil {
			s.logger.Error("failed to read schema", zap.String("table", name), zap.Error(err))
			sendError(w, "Failed to read table schema", http.StatusInternalServerError)
			return
		}
		meta, err := s.store.Meta(name)
		if err != nil {
			s.logger.Error("failed to read table meta", zap.String("table", name), zap.Error(err))
			sendError(w, "Failed to read table meta", http.StatusInternalServerError)
			return
		}
		summaries = append(summaries, TableSummary{
			Name:    name,
			Columns: len(schema.Columns),
			Rows:    meta.RowCount,
		})
	}
	sendSuccess(w, summaries)
}

// handleGetTable returns the schema and meta of one table.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")

	schema, err := s.store.Schema(name)
	if err != nil {
		sendError(w, "Table not found", http.StatusNotFound)
		return
	}
	meta, err := s.store.Meta(name)
	if err != nil {
		s.logger.Error("failed to read table meta", zap.String("table", name), zap.Error(err))
		sendError(w, "Failed to read table meta", http.StatusInternalServerError)
		return
	}

	columns := make([]ColumnInfo, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		columns = append(columns, ColumnInfo{Name: c.Name, Kind: c.Kind, Length: c.Length})
	}
	sendSuccess(w, TableDetail{Name: name, Columns: columns, Meta: meta})
}

// handleGetRows returns a page of rows in stored schema column order.
// An optional where parameter filters through the query engine, e.g.
// ?where=hp+>=+50.
func (s *Server) handleGetRows(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")

	schema, err := s.store.Schema(name)
	if err != nil {
		sendError(w, "Table not found", http.StatusNotFound)
		return
	}

	limit := defaultRowLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRowLimit {
			sendError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			sendError(w, "Invalid offset parameter", http.StatusBadRequest)
			return
		}
		offset = n
	}

	var rows []layout.Row
	if where := r.URL.Query().Get("where"); where != "" {
		q, err := query.ParseWhere(where)
		if err != nil {
			sendError(w, "Invalid where predicate: "+err.Error(), http.StatusBadRequest)
			return
		}
		iter, err := s.engine.Execute(r.Context(), name, q)
		if err != nil {
			if s.metrics != nil {
				s.metrics.RecordQuery(false)
			}
			sendError(w, "Query failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer iter.Close()
		for iter.Next() {
			rows = append(rows, iter.Result().Row)
		}
		if s.metrics != nil {
			s.metrics.RecordQuery(true)
		}
	} else {
		err = s.store.ScanRows(name, func(_ uint64, row layout.Row) error {
			rows = append(rows, row)
			return nil
		})
		if err != nil {
			s.logger.Error("failed to scan rows", zap.String("table", name), zap.Error(err))
			sendError(w, "Failed to read rows", http.StatusInternalServerError)
			return
		}
	}

	total := len(rows)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	columns := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		columns = append(columns, c.Name)
	}
	sendSuccess(w, RowsResponse{
		Table:   name,
		Columns: columns,
		Rows:    rows[offset:end],
		Offset:  offset,
		Limit:   limit,
		Total:   total,
	})
}

// handleStats returns aggregate store statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.TotalStats()
	if err != nil {
		s.logger.Error("failed to aggregate stats", zap.Error(err))
		sendError(w, "Failed to aggregate stats", http.StatusInternalServerError)
		return
	}
	sendSuccess(w, stats)
}
