package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/rowgate/internal/layout"
	"github.com/dreamware/rowgate/internal/query"
)

// testLayouts returns one instance with a users table
func testLayouts(t *testing.T) map[string][]*layout.Table {
	t.Helper()
	tl, err := layout.Parse([]byte(`
name: users
row_key: raw
families:
  - name: info
    qualifiers: [name, email]
  - name: metrics
`))
	require.NoError(t, err)
	return map[string][]*layout.Table{"prod": {tl}}
}

// openBackends returns both backend implementations for the same test
func openBackends(t *testing.T) map[string]Backend {
	t.Helper()
	bb, err := OpenBolt(filepath.Join(t.TempDir(), "rows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bb.Close() })
	return map[string]Backend{
		"bolt":   bb,
		"memory": NewMemoryBackend(),
	}
}

func buildQuery(t *testing.T, tl *layout.Table, p query.Params) *query.Query {
	t.Helper()
	q, err := query.Build(p, tl)
	require.NoError(t, err)
	return q
}

// TestCatalog tests instance and table resolution
func TestCatalog(t *testing.T) {
	cat, err := NewCatalog(NewMemoryBackend(), testLayouts(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"prod"}, cat.Instances())

	tables, err := cat.Tables("prod")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)

	_, err = cat.Tables("staging")
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	tbl, err := cat.Table("prod", "users")
	require.NoError(t, err)
	assert.Equal(t, "users", tbl.Name)
	assert.Equal(t, "prod", tbl.Instance)

	_, err = cat.Table("prod", "orders")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = cat.Table("staging", "users")
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	assert.NoError(t, cat.Probe("prod"))
	assert.ErrorIs(t, cat.Probe("staging"), ErrInstanceNotFound)
}

// TestCatalogValidation tests catalog construction failures
func TestCatalogValidation(t *testing.T) {
	tl, err := layout.Parse([]byte("name: t\nfamilies:\n  - name: f\n"))
	require.NoError(t, err)

	_, err = NewCatalog(NewMemoryBackend(), map[string][]*layout.Table{"prod": {}})
	assert.Error(t, err, "instance without tables")

	_, err = NewCatalog(NewMemoryBackend(), map[string][]*layout.Table{"prod": {tl, tl}})
	assert.Error(t, err, "duplicate table name")

	_, err = NewCatalog(NewMemoryBackend(), map[string][]*layout.Table{"": {tl}})
	assert.Error(t, err, "empty instance name")
}

// TestGetRoundTrip tests single-row lookups against both backends
func TestGetRoundTrip(t *testing.T) {
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			cat, err := NewCatalog(backend, testLayouts(t))
			require.NoError(t, err)
			tbl, err := cat.Table("prod", "users")
			require.NoError(t, err)

			require.NoError(t, tbl.Put([]byte("joe"), "info", "name", 10, "Joe v10"))
			require.NoError(t, tbl.Put([]byte("joe"), "info", "name", 5, "Joe v5"))
			require.NoError(t, tbl.Put([]byte("joe"), "info", "email", 7, "joe@example.com"))
			require.NoError(t, tbl.Put([]byte("joe"), "metrics", "clicks", 9, int64(42)))

			t.Run("newest first within a qualifier", func(t *testing.T) {
				q := buildQuery(t, tbl.Layout(), query.Params{Columns: "info:name", Versions: "2"})
				row, err := tbl.Get([]byte("joe"), q)
				require.NoError(t, err)

				cells := row.Families["info"]["name"]
				require.Len(t, cells, 2)
				assert.Equal(t, int64(10), cells[0].Timestamp)
				assert.Equal(t, int64(5), cells[1].Timestamp)
				assert.NotContains(t, row.Families, "metrics")
			})

			t.Run("default versions bound keeps one", func(t *testing.T) {
				q := buildQuery(t, tbl.Layout(), query.Params{})
				row, err := tbl.Get([]byte("joe"), q)
				require.NoError(t, err)
				require.Len(t, row.Families["info"]["name"], 1)
				assert.Equal(t, int64(10), row.Families["info"]["name"][0].Timestamp)
			})

			t.Run("time range filters versions", func(t *testing.T) {
				// Max bound is exclusive: keeps only ts=5
				q := buildQuery(t, tbl.Layout(), query.Params{
					Columns: "info:name", Versions: "2", TimeRange: "5..10",
				})
				row, err := tbl.Get([]byte("joe"), q)
				require.NoError(t, err)
				require.Len(t, row.Families["info"]["name"], 1)
				assert.Equal(t, int64(5), row.Families["info"]["name"][0].Timestamp)
			})

			t.Run("column selector excludes families", func(t *testing.T) {
				q := buildQuery(t, tbl.Layout(), query.Params{Columns: "metrics"})
				row, err := tbl.Get([]byte("joe"), q)
				require.NoError(t, err)
				assert.NotContains(t, row.Families, "info")
				require.Len(t, row.Families["metrics"]["clicks"], 1)
			})

			t.Run("missing row yields empty row", func(t *testing.T) {
				q := buildQuery(t, tbl.Layout(), query.Params{})
				row, err := tbl.Get([]byte("nobody"), q)
				require.NoError(t, err)
				assert.True(t, row.Empty())
				assert.Equal(t, []byte("nobody"), row.Key)
			})

			t.Run("same timestamp overwrites", func(t *testing.T) {
				require.NoError(t, tbl.Put([]byte("joe"), "info", "name", 10, "Joe rewritten"))
				q := buildQuery(t, tbl.Layout(), query.Params{Columns: "info:name"})
				row, err := tbl.Get([]byte("joe"), q)
				require.NoError(t, err)
				require.Len(t, row.Families["info"]["name"], 1)
			})
		})
	}
}

// TestPutValidation tests layout enforcement on writes
func TestPutValidation(t *testing.T) {
	cat, err := NewCatalog(NewMemoryBackend(), testLayouts(t))
	require.NoError(t, err)
	tbl, err := cat.Table("prod", "users")
	require.NoError(t, err)

	assert.Error(t, tbl.Put([]byte("k"), "nope", "q", 1, "v"), "unknown family")
	assert.Error(t, tbl.Put([]byte("k"), "info", "age", 1, "v"), "unknown qualifier")
	assert.NoError(t, tbl.Put([]byte("k"), "metrics", "whatever", 1, "v"), "map family accepts any qualifier")
}

// TestScan tests ranged scans against both backends
func TestScan(t *testing.T) {
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			cat, err := NewCatalog(backend, testLayouts(t))
			require.NoError(t, err)
			tbl, err := cat.Table("prod", "users")
			require.NoError(t, err)

			// row-00 .. row-19
			for i := 0; i < 20; i++ {
				key := []byte(fmt.Sprintf("row-%02d", i))
				require.NoError(t, tbl.Put(key, "info", "name", 1, fmt.Sprintf("user %d", i)))
			}

			collect := func(q *query.Query) [][]byte {
				rs, err := tbl.Scan(q)
				require.NoError(t, err)
				defer rs.Close()

				var keys [][]byte
				for {
					row, err := rs.Next()
					require.NoError(t, err)
					if row == nil {
						break
					}
					keys = append(keys, row.Key)
				}
				return keys
			}

			t.Run("unbounded scan returns every row in key order", func(t *testing.T) {
				keys := collect(buildQuery(t, tbl.Layout(), query.Params{}))
				require.Len(t, keys, 20)
				assert.Equal(t, []byte("row-00"), keys[0])
				assert.Equal(t, []byte("row-19"), keys[19])
			})

			t.Run("start bound is inclusive, stop exclusive", func(t *testing.T) {
				q := buildQuery(t, tbl.Layout(), query.Params{
					StartKey: layout.EncodeRowKey([]byte("row-05")),
					StopKey:  layout.EncodeRowKey([]byte("row-10")),
				})
				keys := collect(q)
				require.Len(t, keys, 5)
				assert.Equal(t, []byte("row-05"), keys[0])
				assert.Equal(t, []byte("row-09"), keys[4])
			})

			t.Run("stream is exhausted then closed", func(t *testing.T) {
				rs, err := tbl.Scan(buildQuery(t, tbl.Layout(), query.Params{}))
				require.NoError(t, err)

				row, err := rs.Next()
				require.NoError(t, err)
				require.NotNil(t, row)

				require.NoError(t, rs.Close())
				require.NoError(t, rs.Close(), "close must be idempotent")

				_, err = rs.Next()
				assert.ErrorIs(t, err, ErrStreamClosed)
			})

			t.Run("rows with every cell filtered out are skipped", func(t *testing.T) {
				// Its only cell sits outside the time range below.
				require.NoError(t, tbl.Put([]byte("row-99"), "info", "name", 5000, "late"))

				before := tbl.Stats().RowsStreamed
				q := buildQuery(t, tbl.Layout(), query.Params{TimeRange: "0..100"})
				keys := collect(q)
				require.Len(t, keys, 20)
				assert.Equal(t, []byte("row-19"), keys[19])
				assert.Equal(t, before+20, tbl.Stats().RowsStreamed,
					"skipped rows must not count as streamed")

				// A column selector no row matches filters everything.
				q = buildQuery(t, tbl.Layout(), query.Params{Columns: "metrics"})
				assert.Empty(t, collect(q))
			})
		})
	}
}

// TestTableInfo tests introspection stats
func TestTableInfo(t *testing.T) {
	cat, err := NewCatalog(NewMemoryBackend(), testLayouts(t))
	require.NoError(t, err)
	tbl, err := cat.Table("prod", "users")
	require.NoError(t, err)

	require.NoError(t, tbl.Put([]byte("a"), "info", "name", 1, "x"))
	q := buildQuery(t, tbl.Layout(), query.Params{})
	_, err = tbl.Get([]byte("a"), q)
	require.NoError(t, err)

	rs, err := tbl.Scan(buildQuery(t, tbl.Layout(), query.Params{}))
	require.NoError(t, err)
	for {
		row, err := rs.Next()
		require.NoError(t, err)
		if row == nil {
			break
		}
	}
	require.NoError(t, rs.Close())

	info := tbl.Info()
	assert.Equal(t, 1, info.RowCount)
	assert.Equal(t, uint64(1), info.Stats.Gets)
	assert.Equal(t, uint64(1), info.Stats.Scans)
	assert.Equal(t, uint64(1), info.Stats.Puts)
	assert.Equal(t, uint64(1), info.Stats.RowsStreamed)
}
