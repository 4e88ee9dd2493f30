package server

import (
	"net/http"

	"github.com/dreamware/rowgate/internal/query"
	"github.com/dreamware/rowgate/internal/row"
	"github.com/dreamware/rowgate/internal/store"
	"github.com/dreamware/rowgate/internal/stream"
)

// handleRows reads rows out of one table.
//
// Endpoint: GET /v1/instances/{instance}/tables/{table}/rows
//
// Query parameters:
//   - eid:       entity identifier, rendered per the table's row-key
//     format; selects exactly one row
//   - start_rk:  hex-encoded inclusive scan start
//   - end_rk:    hex-encoded exclusive scan stop
//   - cols:      comma-separated column spec ("*", "family",
//     "family:qualifier"); default "*"
//   - versions:  per-column version cap; default 1
//   - timerange: "min..max" in ms since epoch, min inclusive, max
//     exclusive; either side may be empty
//   - limit:     row cap for scans; default 100, 0 streams every row
//
// eid is mutually exclusive with start_rk/end_rk; supplying both sides
// is rejected before the store is touched.
//
// Response:
//   - 200 OK, single JSON document: eid lookup. A row with no data
//     still returns a document with empty families.
//   - 200 OK, CRLF-delimited JSON records: range scan. Each record is
//     one row document; a row whose cells cannot be decoded yields an
//     error-marker record in its place and counts toward the limit.
//   - 400 Bad Request: any selector failure, or a store error before
//     the first response byte.
//
// A store failure after streaming has begun terminates the connection
// without altering the already-sent 200; a client disconnect mid-stream
// just releases the scan.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	instance := r.PathValue("instance")
	table := r.PathValue("table")

	tbl, err := s.catalog.Table(instance, table)
	if err != nil {
		writeError(w, http.StatusBadRequest, "store_error", err.Error())
		return
	}

	params := query.Params{
		EntityID:  r.URL.Query().Get("eid"),
		StartKey:  r.URL.Query().Get("start_rk"),
		StopKey:   r.URL.Query().Get("end_rk"),
		Columns:   r.URL.Query().Get("cols"),
		Versions:  r.URL.Query().Get("versions"),
		TimeRange: r.URL.Query().Get("timerange"),
		Limit:     r.URL.Query().Get("limit"),
	}

	q, err := query.Build(params, tbl.Layout())
	if err != nil {
		writeQueryError(w, err)
		return
	}

	if q.Rows.Mode == query.SelectSingle {
		s.serveSingleRow(w, tbl, q)
		return
	}
	s.serveRowStream(w, tbl, q)
}

// serveSingleRow answers an eid lookup with one JSON document.
func (s *Server) serveSingleRow(w http.ResponseWriter, tbl *store.Table, q *query.Query) {
	native, err := tbl.Get(q.Rows.Key, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "store_error", err.Error())
		return
	}

	doc, err := row.Materialize(native, tbl.Layout())
	if err != nil {
		writeError(w, http.StatusBadRequest, "cell_decode_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// serveRowStream answers a range scan with CRLF-delimited records. The
// response header goes out with the first record, so a scan that fails
// to open can still report 400; anything after that is terminal output.
func (s *Server) serveRowStream(w http.ResponseWriter, tbl *store.Table, q *query.Query) {
	rs, err := tbl.Scan(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "store_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}

	sw := &stream.Writer{
		Out:         w,
		Limit:       q.Limit,
		Materialize: func(n *store.Row) (*row.Document, error) { return row.Materialize(n, tbl.Layout()) },
		Flush:       flush,
		Logger:      s.logger,
	}

	res := sw.Run(rs)
	if res.State == stream.StateFailed && res.Rows == 0 {
		// Nothing was written, so the status line is still ours to set.
		writeError(w, http.StatusBadRequest, "store_error", res.Err.Error())
	}
}
