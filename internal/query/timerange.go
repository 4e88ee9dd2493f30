package query

import (
	"strconv"
	"strings"
)

// TimeRange restricts returned cell versions to timestamps in
// [Min, Max), milliseconds since the UNIX epoch. HasMin / HasMax record
// which bounds are set; at least one always is.
type TimeRange struct {
	Min    int64
	Max    int64
	HasMin bool
	HasMax bool
}

// Contains reports whether a timestamp falls inside the range. A nil
// TimeRange places no restriction.
func (tr *TimeRange) Contains(ts int64) bool {
	if tr == nil {
		return true
	}
	if tr.HasMin && ts < tr.Min {
		return false
	}
	if tr.HasMax && ts >= tr.Max {
		return false
	}
	return true
}

// ParseTimeRange parses the "min..max" form of the timerange parameter.
// Either side may be empty, but not both. An empty input yields a nil
// TimeRange, meaning no restriction.
//
// Fails with an invalid-time-range client error when the separator is
// missing, a non-empty side is not an integer, or min exceeds max.
func ParseTimeRange(s string) (*TimeRange, error) {
	if s == "" {
		return nil, nil
	}
	minStr, maxStr, found := strings.Cut(s, "..")
	if !found {
		return nil, clientErrf(CodeInvalidTimeRange, nil,
			"time range %q is not of the form min..max", s)
	}
	if minStr == "" && maxStr == "" {
		return nil, clientErrf(CodeInvalidTimeRange, nil,
			"time range must set at least one bound")
	}

	var tr TimeRange
	if minStr != "" {
		v, err := strconv.ParseInt(minStr, 10, 64)
		if err != nil {
			return nil, clientErrf(CodeInvalidTimeRange, err,
				"time range minimum %q is not an integer", minStr)
		}
		tr.Min, tr.HasMin = v, true
	}
	if maxStr != "" {
		v, err := strconv.ParseInt(maxStr, 10, 64)
		if err != nil {
			return nil, clientErrf(CodeInvalidTimeRange, err,
				"time range maximum %q is not an integer", maxStr)
		}
		tr.Max, tr.HasMax = v, true
	}
	if tr.HasMin && tr.HasMax && tr.Min > tr.Max {
		return nil, clientErrf(CodeInvalidTimeRange, nil,
			"time range minimum %d exceeds maximum %d", tr.Min, tr.Max)
	}
	return &tr, nil
}
