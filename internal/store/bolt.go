package store

import (
	"bytes"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// BoltBackend stores rows in a bbolt file: one root bucket per instance,
// one nested bucket per table, row key -> encoded row blob.
//
// Read transactions are independent, so concurrent gets and scans never
// block one another; writes (loader only) serialize on bbolt's single
// writer.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt %s: %w", path, err)
	}
	return &BoltBackend{db: db}, nil
}

// Close closes the underlying bbolt database.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

// CreateTable ensures the instance and table buckets exist.
func (b *BoltBackend) CreateTable(instance, table string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(instance))
		if err != nil {
			return err
		}
		_, err = root.CreateBucketIfNotExists([]byte(table))
		return err
	})
}

// tableBucket resolves the nested bucket for (instance, table) inside a
// transaction. Returns nil when either bucket is missing.
func tableBucket(tx *bolt.Tx, instance, table string) *bolt.Bucket {
	root := tx.Bucket([]byte(instance))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(table))
}

// GetRow returns a copy of the encoded row blob, or nil when absent.
func (b *BoltBackend) GetRow(instance, table string, key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		buck := tableBucket(tx, instance, table)
		if buck == nil {
			return ErrTableNotFound
		}
		if v := buck.Get(key); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutRow stores an encoded row blob under key.
func (b *BoltBackend) PutRow(instance, table string, key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		buck := tableBucket(tx, instance, table)
		if buck == nil {
			return ErrTableNotFound
		}
		return buck.Put(key, value)
	})
}

// CountRows returns the number of rows in the table bucket.
func (b *BoltBackend) CountRows(instance, table string) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		buck := tableBucket(tx, instance, table)
		if buck == nil {
			return ErrTableNotFound
		}
		n = buck.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ScanRows opens a cursor over [start, stop) backed by a live read
// transaction. The transaction is held until the cursor is closed.
func (b *BoltBackend) ScanRows(instance, table string, start, stop []byte) (Cursor, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("store: begin scan: %w", err)
	}
	buck := tableBucket(tx, instance, table)
	if buck == nil {
		_ = tx.Rollback()
		return nil, ErrTableNotFound
	}
	return &boltCursor{
		tx:    tx,
		c:     buck.Cursor(),
		start: start,
		stop:  stop,
	}, nil
}

// boltCursor walks one table bucket in key order inside a read
// transaction it owns until closed.
type boltCursor struct {
	tx      *bolt.Tx
	c       *bolt.Cursor
	start   []byte
	stop    []byte
	started bool
	closed  bool
}

// Next returns the next key/blob pair inside the range, copying both out
// of the transaction's memory, or (nil, nil, nil) at exhaustion.
func (c *boltCursor) Next() (key, value []byte, err error) {
	if c.closed {
		return nil, nil, ErrStreamClosed
	}

	var k, v []byte
	if !c.started {
		c.started = true
		if c.start != nil {
			k, v = c.c.Seek(c.start)
		} else {
			k, v = c.c.First()
		}
	} else {
		k, v = c.c.Next()
	}

	if k == nil {
		return nil, nil, nil
	}
	// Stop bound is exclusive.
	if c.stop != nil && bytes.Compare(k, c.stop) >= 0 {
		return nil, nil, nil
	}
	return append([]byte(nil), k...), append([]byte(nil), v...), nil
}

// Close rolls back the read transaction. Idempotent.
func (c *boltCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.tx.Rollback()
}
