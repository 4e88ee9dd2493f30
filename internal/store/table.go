package store

import (
	"fmt"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dreamware/rowgate/internal/layout"
	"github.com/dreamware/rowgate/internal/query"
)

// Table is an open handle on one (instance, table) pair. It owns the row
// encoding and query filtering so that every backend serves identical
// semantics, and tracks operation statistics.
//
// Handles are created by the catalog at startup, shared read-only across
// concurrent requests, and safe for concurrent use.
type Table struct {
	Instance string
	Name     string

	layout  *layout.Table
	backend Backend
	stats   TableStats
}

// TableStats tracks cumulative operation counts for one table.
// Fields are updated atomically.
type TableStats struct {
	Gets         uint64 // Single-row lookups served
	Scans        uint64 // Row streams opened
	Puts         uint64 // Cells written (loader only)
	RowsStreamed uint64 // Rows delivered through row streams
}

// TableInfo is the introspection document for one table.
type TableInfo struct {
	Instance string        `json:"instance"`
	Name     string        `json:"name"`
	RowCount int           `json:"row_count"`
	Stats    TableStatsOut `json:"stats"`
}

// TableStatsOut is the JSON form of TableStats.
type TableStatsOut struct {
	Gets         uint64 `json:"gets"`
	Scans        uint64 `json:"scans"`
	Puts         uint64 `json:"puts"`
	RowsStreamed uint64 `json:"rows_streamed"`
}

// Layout returns the table's declared layout.
func (t *Table) Layout() *layout.Table {
	return t.layout
}

// Get performs a single-row lookup, returning the row filtered to the
// query's columns, versions bound, and time range. A missing row yields
// an empty Row carrying the requested key, not an error.
func (t *Table) Get(key []byte, q *query.Query) (*Row, error) {
	atomic.AddUint64(&t.stats.Gets, 1)

	blob, err := t.backend.GetRow(t.Instance, t.Name, key)
	if err != nil {
		return nil, fmt.Errorf("store: get %s/%s: %w", t.Instance, t.Name, err)
	}
	if blob == nil {
		return &Row{
			Key:      append([]byte(nil), key...),
			Families: make(map[string]map[string][]Cell),
		}, nil
	}
	sr, err := decodeRow(blob)
	if err != nil {
		return nil, err
	}
	return filterRow(key, sr, q), nil
}

// Scan opens a RowStream over the query's key range. The caller owns the
// stream and must close it on every exit path.
func (t *Table) Scan(q *query.Query) (RowStream, error) {
	atomic.AddUint64(&t.stats.Scans, 1)

	cur, err := t.backend.ScanRows(t.Instance, t.Name, q.Rows.Start, q.Rows.Stop)
	if err != nil {
		return nil, fmt.Errorf("store: scan %s/%s: %w", t.Instance, t.Name, err)
	}
	return &rowStream{table: t, cursor: cur, query: q}, nil
}

// Put writes one cell version. The value is msgpack-encoded before
// storage. Used by the offline loader and by tests; the HTTP surface of
// the gateway is read-only.
func (t *Table) Put(key []byte, family, qualifier string, ts int64, value any) error {
	fam := t.layout.Family(family)
	if fam == nil {
		return fmt.Errorf("store: table %s/%s has no family %q", t.Instance, t.Name, family)
	}
	if !fam.HasQualifier(qualifier) {
		return fmt.Errorf("store: family %q has no qualifier %q", family, qualifier)
	}

	encoded, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode cell value: %w", err)
	}
	return t.PutEncoded(key, family, qualifier, ts, encoded)
}

// PutEncoded writes one cell version whose value bytes are already
// encoded. Exists so tests can store deliberately undecodable payloads.
func (t *Table) PutEncoded(key []byte, family, qualifier string, ts int64, encoded []byte) error {
	atomic.AddUint64(&t.stats.Puts, 1)

	blob, err := t.backend.GetRow(t.Instance, t.Name, key)
	if err != nil {
		return fmt.Errorf("store: put %s/%s: %w", t.Instance, t.Name, err)
	}
	sr := storedRow{}
	if blob != nil {
		if sr, err = decodeRow(blob); err != nil {
			return err
		}
	}
	sr.insertCell(family, qualifier, ts, encoded)

	out, err := encodeRow(sr)
	if err != nil {
		return err
	}
	if err := t.backend.PutRow(t.Instance, t.Name, key, out); err != nil {
		return fmt.Errorf("store: put %s/%s: %w", t.Instance, t.Name, err)
	}
	return nil
}

// Stats returns a snapshot of the table's operation counters.
func (t *Table) Stats() TableStats {
	return TableStats{
		Gets:         atomic.LoadUint64(&t.stats.Gets),
		Scans:        atomic.LoadUint64(&t.stats.Scans),
		Puts:         atomic.LoadUint64(&t.stats.Puts),
		RowsStreamed: atomic.LoadUint64(&t.stats.RowsStreamed),
	}
}

// Info returns the table's introspection document.
func (t *Table) Info() TableInfo {
	count, err := t.backend.CountRows(t.Instance, t.Name)
	if err != nil {
		count = -1
	}
	s := t.Stats()
	return TableInfo{
		Instance: t.Instance,
		Name:     t.Name,
		RowCount: count,
		Stats: TableStatsOut{
			Gets:         s.Gets,
			Scans:        s.Scans,
			Puts:         s.Puts,
			RowsStreamed: s.RowsStreamed,
		},
	}
}

// rowStream adapts a backend cursor into a RowStream, decoding and
// filtering one row per pull.
type rowStream struct {
	table  *Table
	cursor Cursor
	query  *query.Query
	closed bool
	done   bool
}

// Next returns the next decoded, filtered row, or (nil, nil) at
// exhaustion. A row whose cells are all excluded by the query's columns
// or time range is skipped entirely: it is never delivered, so it does
// not count against the caller's limit or the RowsStreamed counter.
func (s *rowStream) Next() (*Row, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	for !s.done {
		key, blob, err := s.cursor.Next()
		if err != nil {
			return nil, fmt.Errorf("store: scan %s/%s: %w", s.table.Instance, s.table.Name, err)
		}
		if key == nil {
			s.done = true
			break
		}
		sr, err := decodeRow(blob)
		if err != nil {
			return nil, err
		}
		row := filterRow(key, sr, s.query)
		if row.Empty() {
			continue
		}
		atomic.AddUint64(&s.table.stats.RowsStreamed, 1)
		return row, nil
	}
	return nil, nil
}

// Close releases the backend cursor. Idempotent.
func (s *rowStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cursor.Close()
}
