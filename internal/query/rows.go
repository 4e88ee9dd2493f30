package query

import (
	"github.com/dreamware/rowgate/internal/layout"
)

// SelectionMode distinguishes the two row-selection variants.
type SelectionMode int

const (
	// SelectRange selects zero or more rows in an optional key range.
	SelectRange SelectionMode = iota
	// SelectSingle selects exactly one row by entity identifier.
	SelectSingle
)

// RowSelector is the resolved row selection of a query: either a single
// explicit row key, or a [Start, Stop) scan range. The two variants are
// mutually exclusive at construction; the zero value is an unbounded
// range scan.
type RowSelector struct {
	Mode SelectionMode

	// Key is the row key, set only for SelectSingle.
	Key []byte

	// Start and Stop bound a SelectRange scan. Stop is exclusive; a nil
	// bound is unbounded on that side.
	Start []byte
	Stop  []byte
}

// ResolveRows resolves how target rows are identified from the eid,
// start_rk, and end_rk parameters; absent parameters are empty strings.
//
// Fails with an ambiguous-row-selection client error when an entity
// identifier is supplied together with either range bound, and with a
// malformed-row-key client error when a supplied token cannot be decoded
// against the table's row-key format. When nothing is supplied the
// result is an unbounded scan.
func ResolveRows(eid, startTok, stopTok string, tl *layout.Table) (RowSelector, error) {
	if eid != "" && (startTok != "" || stopTok != "") {
		return RowSelector{}, clientErrf(CodeAmbiguousRowSelection, nil,
			"specify either eid or start_rk/end_rk, not both")
	}

	if eid != "" {
		key, err := tl.DecodeEntityID(eid)
		if err != nil {
			return RowSelector{}, clientErrf(CodeMalformedRowKey, err,
				"cannot decode entity identifier for table %q", tl.Name)
		}
		return RowSelector{Mode: SelectSingle, Key: key}, nil
	}

	var sel RowSelector
	if startTok != "" {
		start, err := layout.DecodeHexKey(startTok)
		if err != nil {
			return RowSelector{}, clientErrf(CodeMalformedRowKey, err, "cannot decode start_rk")
		}
		sel.Start = start
	}
	if stopTok != "" {
		stop, err := layout.DecodeHexKey(stopTok)
		if err != nil {
			return RowSelector{}, clientErrf(CodeMalformedRowKey, err, "cannot decode end_rk")
		}
		sel.Stop = stop
	}
	return sel, nil
}
