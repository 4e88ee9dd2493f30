package store

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dreamware/rowgate/internal/query"
)

// Cell is one versioned value within a qualifier. Value holds the
// msgpack-encoded payload as written by the loader; decoding happens at
// materialization time.
type Cell struct {
	Timestamp int64
	Value     []byte
}

// Row is one store-native row: raw key bytes plus cells grouped by
// family and qualifier. Versions within a qualifier are ordered
// newest-timestamp-first.
//
// Rows returned by Get and RowStream.Next are already filtered to the
// query's columns, versions bound, and time range.
type Row struct {
	Key      []byte
	Families map[string]map[string][]Cell
}

// Empty reports whether the row carries no cells.
func (r *Row) Empty() bool {
	for _, quals := range r.Families {
		for _, cells := range quals {
			if len(cells) > 0 {
				return false
			}
		}
	}
	return true
}

// storedCell is the on-disk form of one cell version.
type storedCell struct {
	Ts    int64  `msgpack:"t"`
	Value []byte `msgpack:"v"`
}

// storedRow is the on-disk form of one row: family -> qualifier ->
// versions, newest first. The row key is the backend key, not repeated
// in the blob.
type storedRow map[string]map[string][]storedCell

// encodeRow serializes a stored row for the backend.
func encodeRow(sr storedRow) ([]byte, error) {
	data, err := msgpack.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("store: encode row: %w", err)
	}
	return data, nil
}

// decodeRow deserializes a backend row blob.
func decodeRow(data []byte) (storedRow, error) {
	var sr storedRow
	if err := msgpack.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("store: decode row: %w", err)
	}
	return sr, nil
}

// insertCell adds one version to a stored row, keeping versions sorted
// newest-first and replacing an existing version with the same
// timestamp.
func (sr storedRow) insertCell(family, qualifier string, ts int64, value []byte) {
	quals, ok := sr[family]
	if !ok {
		quals = make(map[string][]storedCell)
		sr[family] = quals
	}
	cells := quals[qualifier]
	i := sort.Search(len(cells), func(i int) bool { return cells[i].Ts <= ts })
	if i < len(cells) && cells[i].Ts == ts {
		cells[i].Value = value
	} else {
		cells = append(cells, storedCell{})
		copy(cells[i+1:], cells[i:])
		cells[i] = storedCell{Ts: ts, Value: value}
	}
	quals[qualifier] = cells
}

// filterRow projects a stored row through a query: only cells matching
// the column selector and time range survive, at most MaxVersions per
// qualifier, preserving the stored newest-first order.
//
// The result always has a non-nil Families map; a fully filtered-out row
// is an empty Row, not a nil one.
func filterRow(key []byte, sr storedRow, q *query.Query) *Row {
	row := &Row{
		Key:      append([]byte(nil), key...),
		Families: make(map[string]map[string][]Cell),
	}
	for family, quals := range sr {
		for qualifier, cells := range quals {
			if !q.Columns.Includes(family, qualifier) {
				continue
			}
			var kept []Cell
			for _, c := range cells {
				if !q.Time.Contains(c.Ts) {
					continue
				}
				kept = append(kept, Cell{
					Timestamp: c.Ts,
					Value:     append([]byte(nil), c.Value...),
				})
				if len(kept) == q.Columns.MaxVersions {
					break
				}
			}
			if len(kept) == 0 {
				continue
			}
			if row.Families[family] == nil {
				row.Families[family] = make(map[string][]Cell)
			}
			row.Families[family][qualifier] = kept
		}
	}
	return row
}
