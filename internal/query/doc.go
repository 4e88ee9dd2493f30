// Package query translates client-supplied row-selection and
// column-selection parameters into a well-formed internal query against
// the table store.
//
// # Overview
//
// A rows request carries up to seven parameters: an entity identifier,
// two scan bounds, a column specification, a versions bound, a time
// range, and a row limit. This package parses each of them, enforces the
// mutual-exclusion and default rules, and composes the results into one
// immutable Query consumed exactly once by the store.
//
// # Selection modes
//
// Row selection is a tagged union constructed once at the boundary:
//
//   - SelectSingle: an explicit entity identifier, exactly one row.
//   - SelectRange: an optional [start, stop) key range, zero or more
//     rows in key order. Absent bounds mean unbounded on that side.
//
// Supplying an identifier together with either range bound is a client
// error, never resolved by precedence.
//
// # Error taxonomy
//
// Every parse or composition failure is a *ClientError carrying a stable
// machine-readable code. Client errors are always synchronous and
// surface before any bytes are streamed; the serving layer maps them to
// 400 responses.
package query
