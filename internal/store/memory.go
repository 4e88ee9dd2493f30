package store

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryBackend implements Backend with in-memory storage. It serves the
// same semantics as the bbolt backend and is used by unit tests and
// throwaway servers.
//
// Uses sync.RWMutex for thread-safe concurrent access; values are copied
// on the way in and out to prevent external modification.
type MemoryBackend struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte // "instance/table" -> key -> blob
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tables: make(map[string]map[string][]byte),
	}
}

func tableID(instance, table string) string {
	return instance + "/" + table
}

// CreateTable ensures the table's key space exists.
func (m *MemoryBackend) CreateTable(instance, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := tableID(instance, table)
	if m.tables[id] == nil {
		m.tables[id] = make(map[string][]byte)
	}
	return nil
}

// GetRow returns a copy of the encoded row blob, or nil when absent.
func (m *MemoryBackend) GetRow(instance, table string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[tableID(instance, table)]
	if !ok {
		return nil, ErrTableNotFound
	}
	blob, ok := rows[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), blob...), nil
}

// PutRow stores a copy of the encoded row blob under key.
func (m *MemoryBackend) PutRow(instance, table string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[tableID(instance, table)]
	if !ok {
		return ErrTableNotFound
	}
	rows[string(key)] = append([]byte(nil), value...)
	return nil
}

// CountRows returns the number of rows in the table.
func (m *MemoryBackend) CountRows(instance, table string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[tableID(instance, table)]
	if !ok {
		return 0, ErrTableNotFound
	}
	return len(rows), nil
}

// ScanRows opens a cursor over [start, stop). The cursor iterates a
// sorted snapshot of the keys taken at open time.
func (m *MemoryBackend) ScanRows(instance, table string, start, stop []byte) (Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[tableID(instance, table)]
	if !ok {
		return nil, ErrTableNotFound
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if stop != nil && bytes.Compare(kb, stop) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &memCursor{backend: m, id: tableID(instance, table), keys: keys}, nil
}

// Close releases the backend. No-op for memory storage.
func (m *MemoryBackend) Close() error {
	return nil
}

// memCursor walks a sorted key snapshot, re-reading each blob under the
// read lock so concurrent loader writes stay safe.
type memCursor struct {
	backend *MemoryBackend
	id      string
	keys    []string
	pos     int
	closed  bool
}

// Next returns the next key/blob pair, or (nil, nil, nil) at exhaustion.
// Keys deleted since the snapshot are skipped.
func (c *memCursor) Next() (key, value []byte, err error) {
	if c.closed {
		return nil, nil, ErrStreamClosed
	}
	c.backend.mu.RLock()
	defer c.backend.mu.RUnlock()

	rows := c.backend.tables[c.id]
	for c.pos < len(c.keys) {
		k := c.keys[c.pos]
		c.pos++
		if blob, ok := rows[k]; ok {
			return []byte(k), append([]byte(nil), blob...), nil
		}
	}
	return nil, nil, nil
}

// Close marks the cursor exhausted. Idempotent.
func (c *memCursor) Close() error {
	c.closed = true
	return nil
}
