// Package store implements the table store behind the Rowgate gateway: a
// sparse, versioned, column-family-oriented row store with single-row
// lookups and ranged scans.
//
// # Overview
//
// The store is organized as a catalog of instances, each holding a set
// of tables. A table is addressed by (instance, table) and keyed by raw
// row-key bytes; each row holds cells addressed by
// (family, qualifier, timestamp).
//
// # Architecture
//
// The package follows a layered design:
//
//	┌─────────────────────────────────────┐
//	│           Serving Layer             │
//	│        (handlers, streamer)         │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│         Catalog / Table             │
//	│  (layout checks, filtering, stats)  │
//	└─────────────────────────────────────┘
//	                 │
//	        ┌────────┴────────┐
//	        ▼                 ▼
//	   ┌─────────┐      ┌──────────┐
//	   │  bbolt  │      │  memory  │
//	   │ backend │      │ backend  │
//	   └─────────┘      └──────────┘
//
// Backends implement raw ordered key-value access per table; the Table
// handle owns the row encoding (msgpack) and applies the query's column
// selector, versions bound, and time range, so every backend serves
// identical semantics.
//
// # Row streams
//
// Scan returns a RowStream: a lazy, finite, non-restartable sequence of
// rows backed by a live backend cursor. A RowStream is owned by exactly
// one consumer and must be closed on every exit path; Close is
// idempotent. Rows are delivered in the backend's native key order.
//
// # Concurrency
//
// The catalog and table handles are safe for concurrent readers; each
// RowStream instance is single-consumer. The bbolt backend serves scans
// from independent read transactions, so concurrent requests never block
// one another.
package store
