package query

import (
	"strconv"

	"github.com/dreamware/rowgate/internal/layout"
)

const (
	// DefaultLimit is the row limit applied when the limit parameter is
	// absent.
	DefaultLimit = 100

	// UnlimitedRows is the limit sentinel meaning "stream every row".
	UnlimitedRows = 0

	// DefaultVersions is the versions bound applied when the versions
	// parameter is absent.
	DefaultVersions = 1
)

// Params carries the raw, still-textual query parameters of a rows
// request. Absent parameters are empty strings.
type Params struct {
	EntityID  string // eid
	StartKey  string // start_rk, hex
	StopKey   string // end_rk, hex
	Columns   string // cols
	Versions  string // versions
	TimeRange string // timerange
	Limit     string // limit
}

// Query is the composed, validated form of one rows request. It is
// immutable once built and consumed exactly once by the table store.
type Query struct {
	Rows    RowSelector
	Columns ColumnSelector
	Time    *TimeRange
	Limit   int
}

// Unlimited reports whether the query carries the unlimited-rows
// sentinel.
func (q *Query) Unlimited() bool {
	return q.Limit == UnlimitedRows
}

// Build composes the row, column, and time-range selectors plus the
// limit into one Query, applying defaults and propagating any selector
// construction error.
//
// Limit rules: absent means DefaultLimit; UnlimitedRows (0) means every
// row; any other non-positive value is an invalid-limit client error.
func Build(p Params, tl *layout.Table) (*Query, error) {
	limit := DefaultLimit
	if p.Limit != "" {
		v, err := strconv.Atoi(p.Limit)
		if err != nil {
			return nil, clientErrf(CodeInvalidLimit, err, "limit %q is not an integer", p.Limit)
		}
		if v < 0 {
			return nil, clientErrf(CodeInvalidLimit, nil,
				"limit must be %d (unlimited) or positive, got %d", UnlimitedRows, v)
		}
		limit = v
	}

	versions := DefaultVersions
	if p.Versions != "" {
		v, err := strconv.Atoi(p.Versions)
		if err != nil {
			return nil, clientErrf(CodeInvalidColumnSpec, err,
				"versions %q is not an integer", p.Versions)
		}
		versions = v
	}

	columns, err := ParseColumns(p.Columns, versions, tl)
	if err != nil {
		return nil, err
	}
	rows, err := ResolveRows(p.EntityID, p.StartKey, p.StopKey, tl)
	if err != nil {
		return nil, err
	}
	timeRange, err := ParseTimeRange(p.TimeRange)
	if err != nil {
		return nil, err
	}

	return &Query{
		Rows:    rows,
		Columns: columns,
		Time:    timeRange,
		Limit:   limit,
	}, nil
}
