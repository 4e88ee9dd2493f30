// Package stream implements the row streaming engine: it consumes a lazy
// RowStream, materializes and serializes each row, enforces the query's
// row limit, and writes framed records to the client, reacting to
// downstream write failures.
//
// # State machine
//
// A Writer runs one stream through these states:
//
//	Idle → Streaming → Completed           (stream exhausted)
//	                 → LimitReached        (row limit hit)
//	                 → ClientDisconnected  (write to the sink failed)
//	                 → Failed              (store-level error)
//
// Every terminal state releases the RowStream exactly once; Close is
// invoked on all exit paths before Run returns.
//
// # Framing
//
// Each record is one JSON document followed by a CRLF delimiter. Any
// CRLF sequence inside the serialized payload is collapsed to a bare LF
// first, so a streaming consumer can split records on CRLF alone.
//
// # Partial failures
//
// A row whose cell values cannot be decoded does not abort the stream:
// an error marker record is emitted in its place (counting against the
// limit) and streaming continues. A client disconnect is not an error;
// the stream stops silently. A store error surfaces to the caller only
// when no bytes have been written yet, since a streamed response cannot
// change its status after the first record.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/dreamware/rowgate/internal/layout"
	"github.com/dreamware/rowgate/internal/row"
	"github.com/dreamware/rowgate/internal/store"
)

// State is the Writer's lifecycle state.
type State int

const (
	// StateIdle means Run has not been called.
	StateIdle State = iota
	// StateStreaming means rows are being pulled and written.
	StateStreaming
	// StateCompleted means the stream was exhausted.
	StateCompleted
	// StateLimitReached means the row limit stopped the stream.
	StateLimitReached
	// StateClientDisconnected means a sink write failed.
	StateClientDisconnected
	// StateFailed means a store-level error stopped the stream.
	StateFailed
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateLimitReached:
		return "limit_reached"
	case StateClientDisconnected:
		return "client_disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports how a stream ended.
type Result struct {
	// State is the terminal state.
	State State
	// Rows is the number of records written, error markers included.
	Rows int
	// Err is the store-level error for StateFailed, nil otherwise.
	Err error
}

// recordDelimiter terminates each framed record.
var recordDelimiter = []byte("\r\n")

// MaterializeFunc converts one native row into its output document.
// A *row.CellDecodeError return fails that row only.
type MaterializeFunc func(*store.Row) (*row.Document, error)

// Writer streams rows to one output sink. A Writer serves a single
// stream from a single goroutine; it is not reused.
type Writer struct {
	// Out is the output sink. A failed write means the consumer went
	// away.
	Out io.Writer

	// Limit caps the number of records written; 0 means unlimited.
	Limit int

	// Materialize converts native rows to documents.
	Materialize MaterializeFunc

	// Flush, when non-nil, is called after each record.
	Flush func()

	// Logger, when non-nil, records terminations at debug level.
	Logger *slog.Logger
}

// errorMarker is the record emitted in place of a row that failed to
// decode.
type errorMarker struct {
	Error  errorMarkerBody `json:"error"`
	RowKey string          `json:"row_key"`
}

type errorMarkerBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run consumes the stream until exhaustion, the limit, a disconnect, or
// a store failure, and releases it before returning. The RowStream must
// not be used afterwards.
func (w *Writer) Run(rs store.RowStream) Result {
	defer rs.Close()

	written := 0
	for {
		if w.Limit > 0 && written == w.Limit {
			w.logEnd(StateLimitReached, written, nil)
			return Result{State: StateLimitReached, Rows: written}
		}

		native, err := rs.Next()
		if err != nil {
			w.logEnd(StateFailed, written, err)
			return Result{State: StateFailed, Rows: written, Err: err}
		}
		if native == nil {
			w.logEnd(StateCompleted, written, nil)
			return Result{State: StateCompleted, Rows: written}
		}

		payload, err := w.renderRecord(native)
		if err != nil {
			w.logEnd(StateFailed, written, err)
			return Result{State: StateFailed, Rows: written, Err: err}
		}

		if _, err := w.Out.Write(frame(payload)); err != nil {
			// The consumer went away; stop silently.
			w.logEnd(StateClientDisconnected, written, err)
			return Result{State: StateClientDisconnected, Rows: written}
		}
		if w.Flush != nil {
			w.Flush()
		}
		written++
	}
}

// renderRecord serializes one native row, substituting an error marker
// for rows whose cells cannot be decoded.
func (w *Writer) renderRecord(native *store.Row) ([]byte, error) {
	doc, err := w.Materialize(native)
	if err != nil {
		var decodeErr *row.CellDecodeError
		if !errors.As(err, &decodeErr) {
			return nil, err
		}
		return json.Marshal(errorMarker{
			Error: errorMarkerBody{
				Code:    "cell_decode_error",
				Message: decodeErr.Error(),
			},
			RowKey: layout.EncodeRowKey(native.Key),
		})
	}
	return json.Marshal(doc)
}

// frame makes one payload a self-delimited record: interior CRLF
// sequences collapse to LF, then the CRLF delimiter is appended.
func frame(payload []byte) []byte {
	payload = bytes.ReplaceAll(payload, recordDelimiter, []byte("\n"))
	return append(payload, recordDelimiter...)
}

func (w *Writer) logEnd(state State, rows int, err error) {
	if w.Logger == nil {
		return
	}
	w.Logger.Debug("row stream ended",
		slog.String("state", state.String()),
		slog.Int("rows", rows),
		slog.Any("err", err))
}
