// Package server implements the gateway's HTTP surface: REST resources
// for discovering instances and tables, and a row resource that reads
// single rows or streams row ranges out of the underlying store.
//
// # Architecture
//
//	Client
//	  |
//	  |  GET /v1/instances/{instance}/tables/{table}/rows?...
//	  v
//	+--------------------------+
//	|  Server (net/http mux)   |
//	|                          |
//	|  query.Build  <-- URL    |   translate query parameters
//	|       |                  |
//	|       v                  |
//	|  store.Table             |   Get (single row) or Scan (range)
//	|       |                  |
//	|       v                  |
//	|  stream.Writer           |   materialize + frame each row
//	+--------------------------+
//	  |
//	  |  CRLF-delimited JSON records
//	  v
//	Client
//
// # Resources
//
//	GET /v1                                                  service banner
//	GET /v1/instances                                        visible instances
//	GET /v1/instances/{instance}/tables                      tables in an instance
//	GET /v1/instances/{instance}/tables/{table}              table info and stats
//	GET /v1/instances/{instance}/tables/{table}/layout       full table layout
//	GET /v1/instances/{instance}/tables/{table}/rows         read rows
//	GET /health                                              instance health
//
// # Error handling
//
// Discovery resources return 404 for unknown instances or tables. The
// rows resource returns 400 for every request-side failure,
// malformed selectors and row keys included, and for store errors that
// occur before the first byte of the response is written. Failures
// after streaming has begun terminate the response without a trailing
// status change, since the 200 header is already on the wire.
package server
