// Package row materializes store-native rows into the canonical output
// documents the gateway serves.
//
// A Document is produced fresh per row and shares no state across rows.
// Serialized output is deterministic: families and qualifiers appear in
// lexicographic order (encoding/json sorts map keys) and versions keep
// the store's newest-first order, so materializing the same native row
// twice yields byte-identical JSON.
package row

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dreamware/rowgate/internal/layout"
	"github.com/dreamware/rowgate/internal/store"
)

// Version is one decoded cell version.
type Version struct {
	Timestamp int64 `json:"timestamp"`
	Value     any   `json:"value"`
}

// Document is the canonical output representation of one row.
type Document struct {
	EntityID string                          `json:"entity_id"`
	RowKey   string                          `json:"row_key"`
	Families map[string]map[string][]Version `json:"families"`
}

// CellDecodeError reports a cell value that could not be decoded. It
// fails the affected row only; a malformed row must not abort the rest
// of a stream.
type CellDecodeError struct {
	Family    string
	Qualifier string
	Timestamp int64
	Err       error
}

// Error implements the error interface.
func (e *CellDecodeError) Error() string {
	return fmt.Sprintf("row: cannot decode cell %s:%s@%d: %v",
		e.Family, e.Qualifier, e.Timestamp, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *CellDecodeError) Unwrap() error {
	return e.Err
}

// Materialize converts one store-native row, already filtered by the
// store to the requested columns, versions, and time range, into a
// Document.
//
// The store is authoritative for version order; Materialize never
// re-sorts. A value that fails msgpack decoding yields a
// *CellDecodeError and no document.
func Materialize(r *store.Row, tl *layout.Table) (*Document, error) {
	doc := &Document{
		EntityID: tl.EntityID(r.Key),
		RowKey:   layout.EncodeRowKey(r.Key),
		Families: make(map[string]map[string][]Version, len(r.Families)),
	}
	for family, quals := range r.Families {
		outQuals := make(map[string][]Version, len(quals))
		for qualifier, cells := range quals {
			versions := make([]Version, 0, len(cells))
			for _, c := range cells {
				var value any
				if err := msgpack.Unmarshal(c.Value, &value); err != nil {
					return nil, &CellDecodeError{
						Family:    family,
						Qualifier: qualifier,
						Timestamp: c.Timestamp,
						Err:       err,
					}
				}
				versions = append(versions, Version{Timestamp: c.Timestamp, Value: value})
			}
			outQuals[qualifier] = versions
		}
		doc.Families[family] = outQuals
	}
	return doc, nil
}
