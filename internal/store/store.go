package store

import "errors"

// ErrInstanceNotFound is returned when a request names an instance that
// is not in the visible set.
var ErrInstanceNotFound = errors.New("instance not found")

// ErrTableNotFound is returned when a request names a table the
// instance does not serve.
var ErrTableNotFound = errors.New("table not found")

// ErrStreamClosed is returned by Next after a RowStream has been closed.
var ErrStreamClosed = errors.New("row stream closed")

// Backend is the raw ordered key-value layer a table store runs on.
// Implementations must be safe for concurrent use.
type Backend interface {
	// CreateTable ensures storage exists for (instance, table).
	CreateTable(instance, table string) error

	// GetRow returns the encoded row blob for a key, or nil when the row
	// does not exist. The returned slice is owned by the caller.
	GetRow(instance, table string, key []byte) ([]byte, error)

	// PutRow stores an encoded row blob under a key, replacing any
	// previous blob.
	PutRow(instance, table string, key, value []byte) error

	// ScanRows opens a cursor over keys in [start, stop) in ascending
	// key order. A nil bound is unbounded on that side. The cursor holds
	// backend resources until closed.
	ScanRows(instance, table string, start, stop []byte) (Cursor, error)

	// CountRows returns the number of rows in the table (best effort).
	CountRows(instance, table string) (int, error)

	// Close releases the backend.
	Close() error
}

// Cursor iterates over encoded rows in key order. Cursors are
// single-consumer and not restartable.
type Cursor interface {
	// Next returns the next key and encoded row blob, or (nil, nil, nil)
	// at exhaustion. Returned slices are owned by the caller.
	Next() (key, value []byte, err error)

	// Close releases the cursor's resources. Idempotent.
	Close() error
}

// RowStream is a lazy, finite, non-restartable sequence of decoded and
// filtered rows backed by a live backend cursor.
//
// Ownership of the underlying scan resource belongs to whichever
// component currently holds the RowStream; that holder must call Close
// on every exit path. Close is idempotent.
type RowStream interface {
	// Next returns the next row, or (nil, nil) at exhaustion.
	Next() (*Row, error)

	// Close releases the underlying scan. Idempotent.
	Close() error
}
