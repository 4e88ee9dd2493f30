package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dreamware/rowgate/internal/health"
	"github.com/dreamware/rowgate/internal/query"
	"github.com/dreamware/rowgate/internal/store"
)

// Version is the service version reported by the banner resource.
const Version = "0.1.0"

// Server wires the catalog and health monitor into an HTTP handler.
// It holds no request state of its own; every method is safe for
// concurrent use because the catalog and monitor are.
type Server struct {
	catalog *store.Catalog
	monitor *health.Monitor
	logger  *slog.Logger
}

// New creates a server over the given catalog. The monitor may be nil,
// in which case /health reports only that the process is up.
func New(catalog *store.Catalog, monitor *health.Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		catalog: catalog,
		monitor: monitor,
		logger:  logger,
	}
}

// Handler builds the route table. Path parameters use the net/http
// pattern syntax, so instance and table names come straight from
// r.PathValue.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1", s.handleBanner)
	mux.HandleFunc("GET /v1/instances", s.handleInstances)
	mux.HandleFunc("GET /v1/instances/{instance}/tables", s.handleTables)
	mux.HandleFunc("GET /v1/instances/{instance}/tables/{table}", s.handleTableInfo)
	mux.HandleFunc("GET /v1/instances/{instance}/tables/{table}/layout", s.handleLayout)
	mux.HandleFunc("GET /v1/instances/{instance}/tables/{table}/rows", s.handleRows)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// writeJSON sends v as a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON envelope of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError sends a machine-readable error code plus a human-readable
// message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeQueryError maps a query construction failure onto the error
// envelope. Anything that is not a ClientError is reported under a
// generic code, which should not happen in practice.
func writeQueryError(w http.ResponseWriter, err error) {
	if ce, ok := query.AsClientError(err); ok {
		writeError(w, http.StatusBadRequest, string(ce.Code), ce.Message)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err.Error())
}

// resolveTable looks up a table handle, writing a 404 and returning nil
// when the instance or table is unknown. Used by the discovery
// resources; the rows resource maps resolution failures to 400 instead.
func (s *Server) resolveTable(w http.ResponseWriter, r *http.Request) *store.Table {
	instance := r.PathValue("instance")
	table := r.PathValue("table")

	tbl, err := s.catalog.Table(instance, table)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInstanceNotFound):
			writeError(w, http.StatusNotFound, "instance_not_found", err.Error())
		case errors.Is(err, store.ErrTableNotFound):
			writeError(w, http.StatusNotFound, "table_not_found", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
		}
		return nil
	}
	return tbl
}

// handleBanner returns the service banner.
//
// Endpoint: GET /v1
//
// Response body:
//
//	{
//	  "service": "rowgate",
//	  "version": "0.1.0",
//	  "resources": ["/v1/instances", "/health"]
//	}
func (s *Server) handleBanner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Service   string   `json:"service"`
		Version   string   `json:"version"`
		Resources []string `json:"resources"`
	}{
		Service:   "rowgate",
		Version:   Version,
		Resources: []string{"/v1/instances", "/health"},
	})
}

// handleInstances lists the visible instances.
//
// Endpoint: GET /v1/instances
//
// Response body:
//
//	{
//	  "instances": ["prod", "staging"],
//	  "count": 2
//	}
func (s *Server) handleInstances(w http.ResponseWriter, _ *http.Request) {
	instances := s.catalog.Instances()

	writeJSON(w, http.StatusOK, struct {
		Instances []string `json:"instances"`
		Count     int      `json:"count"`
	}{
		Instances: instances,
		Count:     len(instances),
	})
}

// handleTables lists the tables registered in one instance.
//
// Endpoint: GET /v1/instances/{instance}/tables
//
// Response:
//   - 200 OK: JSON array of table names
//   - 404 Not Found: Unknown instance
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	instance := r.PathValue("instance")

	tables, err := s.catalog.Tables(instance)
	if err != nil {
		writeError(w, http.StatusNotFound, "instance_not_found", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Instance string   `json:"instance"`
		Tables   []string `json:"tables"`
		Count    int      `json:"count"`
	}{
		Instance: instance,
		Tables:   tables,
		Count:    len(tables),
	})
}

// handleTableInfo returns one table's row count and operation counters.
//
// Endpoint: GET /v1/instances/{instance}/tables/{table}
//
// Response:
//   - 200 OK: JSON info document
//   - 404 Not Found: Unknown instance or table
func (s *Server) handleTableInfo(w http.ResponseWriter, r *http.Request) {
	tbl := s.resolveTable(w, r)
	if tbl == nil {
		return
	}
	writeJSON(w, http.StatusOK, tbl.Info())
}

// handleLayout returns one table's full declared layout: row key
// format, families, and qualifiers.
//
// Endpoint: GET /v1/instances/{instance}/tables/{table}/layout
//
// Response:
//   - 200 OK: JSON layout document
//   - 404 Not Found: Unknown instance or table
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	tbl := s.resolveTable(w, r)
	if tbl == nil {
		return
	}
	writeJSON(w, http.StatusOK, tbl.Layout())
}

// handleHealth reports per-instance probe state.
//
// Endpoint: GET /health
//
// Response body:
//
//	{
//	  "status": "healthy",
//	  "instances": [
//	    {"instance": "prod", "status": "healthy", ...}
//	  ]
//	}
//
// Response:
//   - 200 OK: No instance is unhealthy
//   - 503 Service Unavailable: At least one instance is unhealthy
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.monitor == nil {
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
		}{Status: "healthy"})
		return
	}

	status := http.StatusOK
	overall := "healthy"
	if !s.monitor.Healthy() {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	writeJSON(w, status, struct {
		Status    string                  `json:"status"`
		Instances []health.InstanceHealth `json:"instances"`
	}{
		Status:    overall,
		Instances: s.monitor.Snapshot(),
	})
}
