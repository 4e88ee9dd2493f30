package query

import (
	"errors"
	"fmt"
)

// Code identifies a class of client error in a stable, machine-readable
// form. Codes appear verbatim in error response bodies.
type Code string

const (
	// CodeInvalidColumnSpec marks an unparseable column specification, a
	// reference to an undeclared family or qualifier, or a non-positive
	// versions bound.
	CodeInvalidColumnSpec Code = "invalid_column_spec"

	// CodeAmbiguousRowSelection marks a request supplying both an entity
	// identifier and a scan bound.
	CodeAmbiguousRowSelection Code = "ambiguous_row_selection"

	// CodeMalformedRowKey marks an entity identifier or scan bound that
	// cannot be decoded against the table's row-key format.
	CodeMalformedRowKey Code = "malformed_row_key"

	// CodeInvalidTimeRange marks an unparseable or inverted time range.
	CodeInvalidTimeRange Code = "invalid_time_range"

	// CodeInvalidLimit marks a limit that is neither the unlimited
	// sentinel nor a positive integer.
	CodeInvalidLimit Code = "invalid_limit"
)

// ClientError is an error attributable to the request rather than the
// server or the store. It is always produced before query execution.
type ClientError struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// clientErrf builds a *ClientError with a formatted message. Pass a
// non-nil cause to preserve the original parse error for Unwrap.
func clientErrf(code Code, cause error, format string, args ...any) error {
	return &ClientError{Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// AsClientError unwraps err into a *ClientError if one is in its chain.
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
