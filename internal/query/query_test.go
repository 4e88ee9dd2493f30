package query

import (
	"bytes"
	"testing"

	"github.com/dreamware/rowgate/internal/layout"
)

// testLayout returns a layout with one group-type and one map-type family
func testLayout(t *testing.T) *layout.Table {
	t.Helper()
	tl, err := layout.Parse([]byte(`
name: users
row_key: raw
families:
  - name: info
    qualifiers: [name, email]
  - name: metrics
`))
	if err != nil {
		t.Fatalf("Failed to parse test layout: %v", err)
	}
	return tl
}

// TestParseColumns tests column specification parsing
func TestParseColumns(t *testing.T) {
	tl := testLayout(t)

	t.Run("empty spec selects everything", func(t *testing.T) {
		cs, err := ParseColumns("", 1, tl)
		if err != nil {
			t.Fatalf("ParseColumns failed: %v", err)
		}
		if !cs.All || len(cs.Columns) != 0 {
			t.Errorf("Expected wildcard selector, got %+v", cs)
		}
		if !cs.Includes("info", "name") || !cs.Includes("metrics", "anything") {
			t.Errorf("Expected wildcard selector to include every column")
		}
	})

	t.Run("wildcard subsumes explicit columns", func(t *testing.T) {
		cs, err := ParseColumns("info:name,*", 1, tl)
		if err != nil {
			t.Fatalf("ParseColumns failed: %v", err)
		}
		if !cs.All || cs.Columns != nil {
			t.Errorf("Expected wildcard to subsume explicit columns, got %+v", cs)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		cs, err := ParseColumns("info:name,info:name,info:name", 1, tl)
		if err != nil {
			t.Fatalf("ParseColumns failed: %v", err)
		}
		if len(cs.Columns) != 1 {
			t.Errorf("Expected duplicates to collapse to one column, got %d", len(cs.Columns))
		}
	})

	t.Run("columns are sorted by family then qualifier", func(t *testing.T) {
		cs, err := ParseColumns("metrics:clicks,info:name,info:email", 1, tl)
		if err != nil {
			t.Fatalf("ParseColumns failed: %v", err)
		}
		want := []Column{
			{Family: "info", Qualifier: "email"},
			{Family: "info", Qualifier: "name"},
			{Family: "metrics", Qualifier: "clicks"},
		}
		if len(cs.Columns) != len(want) {
			t.Fatalf("Expected %d columns, got %d", len(want), len(cs.Columns))
		}
		for i, c := range want {
			if cs.Columns[i] != c {
				t.Errorf("Column %d: expected %v, got %v", i, c, cs.Columns[i])
			}
		}
	})

	t.Run("bare family selects all qualifiers", func(t *testing.T) {
		cs, err := ParseColumns("info", 1, tl)
		if err != nil {
			t.Fatalf("ParseColumns failed: %v", err)
		}
		if !cs.Includes("info", "name") || !cs.Includes("info", "email") {
			t.Errorf("Expected bare family to include every qualifier")
		}
		if cs.Includes("metrics", "clicks") {
			t.Errorf("Expected other families to be excluded")
		}
	})

	t.Run("map-type family accepts any qualifier", func(t *testing.T) {
		if _, err := ParseColumns("metrics:whatever", 1, tl); err != nil {
			t.Errorf("Expected map-type qualifier to be accepted, got %v", err)
		}
	})

	t.Run("blank tokens are ignored", func(t *testing.T) {
		cs, err := ParseColumns("info:name,,", 1, tl)
		if err != nil {
			t.Fatalf("ParseColumns failed: %v", err)
		}
		if cs.All || len(cs.Columns) != 1 {
			t.Errorf("Expected a single explicit column, got %+v", cs)
		}
	})

	t.Run("invalid specs fail with invalid_column_spec", func(t *testing.T) {
		for name, spec := range map[string]string{
			"unknown family":       "nope",
			"unknown qualifier":    "info:age",
			"empty qualifier":      "info:",
			"unknown in the tail":  "info:name,nope",
		} {
			t.Run(name, func(t *testing.T) {
				_, err := ParseColumns(spec, 1, tl)
				ce, ok := AsClientError(err)
				if !ok || ce.Code != CodeInvalidColumnSpec {
					t.Errorf("Expected invalid_column_spec for %q, got %v", spec, err)
				}
			})
		}
	})

	t.Run("non-positive versions fail", func(t *testing.T) {
		for _, versions := range []int{0, -3} {
			_, err := ParseColumns("*", versions, tl)
			ce, ok := AsClientError(err)
			if !ok || ce.Code != CodeInvalidColumnSpec {
				t.Errorf("Expected invalid_column_spec for versions=%d, got %v", versions, err)
			}
		}
	})
}

// TestParseTimeRange tests timerange parameter parsing
func TestParseTimeRange(t *testing.T) {
	t.Run("absent input places no restriction", func(t *testing.T) {
		tr, err := ParseTimeRange("")
		if err != nil {
			t.Fatalf("ParseTimeRange failed: %v", err)
		}
		if tr != nil {
			t.Errorf("Expected nil TimeRange for absent input")
		}
		if !tr.Contains(-500) || !tr.Contains(1 << 50) {
			t.Errorf("Expected nil TimeRange to contain everything")
		}
	})

	t.Run("both bounds", func(t *testing.T) {
		tr, err := ParseTimeRange("10..20")
		if err != nil {
			t.Fatalf("ParseTimeRange failed: %v", err)
		}
		// Min inclusive, max exclusive
		for ts, want := range map[int64]bool{9: false, 10: true, 19: true, 20: false} {
			if tr.Contains(ts) != want {
				t.Errorf("Contains(%d): expected %v", ts, want)
			}
		}
	})

	t.Run("open bounds", func(t *testing.T) {
		tr, err := ParseTimeRange("..20")
		if err != nil {
			t.Fatalf("ParseTimeRange failed: %v", err)
		}
		if !tr.Contains(-100) || tr.Contains(20) {
			t.Errorf("Expected only the upper bound to apply")
		}

		tr, err = ParseTimeRange("10..")
		if err != nil {
			t.Fatalf("ParseTimeRange failed: %v", err)
		}
		if tr.Contains(9) || !tr.Contains(1<<40) {
			t.Errorf("Expected only the lower bound to apply")
		}
	})

	t.Run("invalid inputs fail with invalid_time_range", func(t *testing.T) {
		for _, s := range []string{"..", "abc..", "..abc", "10", "20..10"} {
			_, err := ParseTimeRange(s)
			ce, ok := AsClientError(err)
			if !ok || ce.Code != CodeInvalidTimeRange {
				t.Errorf("Expected invalid_time_range for %q, got %v", s, err)
			}
		}
	})
}

// TestResolveRows tests row selection resolution
func TestResolveRows(t *testing.T) {
	tl := testLayout(t)

	t.Run("nothing supplied resolves to unbounded scan", func(t *testing.T) {
		sel, err := ResolveRows("", "", "", tl)
		if err != nil {
			t.Fatalf("ResolveRows failed: %v", err)
		}
		if sel.Mode != SelectRange || sel.Start != nil || sel.Stop != nil {
			t.Errorf("Expected unbounded range, got %+v", sel)
		}
	})

	t.Run("entity identifier resolves to single selection", func(t *testing.T) {
		sel, err := ResolveRows("user17", "", "", tl)
		if err != nil {
			t.Fatalf("ResolveRows failed: %v", err)
		}
		if sel.Mode != SelectSingle || !bytes.Equal(sel.Key, []byte("user17")) {
			t.Errorf("Expected single selection of 'user17', got %+v", sel)
		}
	})

	t.Run("hex bounds resolve to range selection", func(t *testing.T) {
		sel, err := ResolveRows("", "61", "7a", tl)
		if err != nil {
			t.Fatalf("ResolveRows failed: %v", err)
		}
		if sel.Mode != SelectRange {
			t.Fatalf("Expected range selection, got %+v", sel)
		}
		if !bytes.Equal(sel.Start, []byte("a")) || !bytes.Equal(sel.Stop, []byte("z")) {
			t.Errorf("Expected decoded bounds, got start=%x stop=%x", sel.Start, sel.Stop)
		}
	})

	t.Run("identifier plus bound is ambiguous regardless of validity", func(t *testing.T) {
		for _, bounds := range [][2]string{{"61", ""}, {"", "61"}, {"zz", "zz"}} {
			_, err := ResolveRows("user17", bounds[0], bounds[1], tl)
			ce, ok := AsClientError(err)
			if !ok || ce.Code != CodeAmbiguousRowSelection {
				t.Errorf("Expected ambiguous_row_selection, got %v", err)
			}
		}
	})

	t.Run("undecodable tokens fail with malformed_row_key", func(t *testing.T) {
		if _, err := ResolveRows("", "zz", "", tl); err == nil {
			t.Errorf("Expected error for invalid start_rk")
		} else if ce, ok := AsClientError(err); !ok || ce.Code != CodeMalformedRowKey {
			t.Errorf("Expected malformed_row_key, got %v", err)
		}

		hexTable := &layout.Table{Name: "t", RowKey: layout.KeyFormatHex,
			Families: []layout.Family{{Name: "f"}}}
		if _, err := ResolveRows("not-hex", "", "", hexTable); err == nil {
			t.Errorf("Expected error for invalid eid")
		} else if ce, ok := AsClientError(err); !ok || ce.Code != CodeMalformedRowKey {
			t.Errorf("Expected malformed_row_key, got %v", err)
		}
	})
}

// TestBuild tests query composition and limit handling
func TestBuild(t *testing.T) {
	tl := testLayout(t)

	t.Run("defaults", func(t *testing.T) {
		q, err := Build(Params{}, tl)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if q.Limit != DefaultLimit {
			t.Errorf("Expected default limit %d, got %d", DefaultLimit, q.Limit)
		}
		if q.Columns.MaxVersions != DefaultVersions {
			t.Errorf("Expected default versions %d, got %d", DefaultVersions, q.Columns.MaxVersions)
		}
		if !q.Columns.All {
			t.Errorf("Expected wildcard column selector by default")
		}
		if q.Time != nil {
			t.Errorf("Expected no time restriction by default")
		}
		if q.Rows.Mode != SelectRange {
			t.Errorf("Expected unbounded range selection by default")
		}
		if q.Unlimited() {
			t.Errorf("Expected default limit to be bounded")
		}
	})

	t.Run("zero limit means unlimited", func(t *testing.T) {
		q, err := Build(Params{Limit: "0"}, tl)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if !q.Unlimited() {
			t.Errorf("Expected limit 0 to mean unlimited")
		}
	})

	t.Run("invalid limits fail with invalid_limit", func(t *testing.T) {
		for _, limit := range []string{"-1", "-100", "ten"} {
			_, err := Build(Params{Limit: limit}, tl)
			ce, ok := AsClientError(err)
			if !ok || ce.Code != CodeInvalidLimit {
				t.Errorf("Expected invalid_limit for %q, got %v", limit, err)
			}
		}
	})

	t.Run("selector errors propagate", func(t *testing.T) {
		cases := map[string]struct {
			params Params
			code   Code
		}{
			"bad columns":   {Params{Columns: "nope"}, CodeInvalidColumnSpec},
			"bad versions":  {Params{Versions: "many"}, CodeInvalidColumnSpec},
			"bad timerange": {Params{TimeRange: ".."}, CodeInvalidTimeRange},
			"ambiguous":     {Params{EntityID: "x", StartKey: "61"}, CodeAmbiguousRowSelection},
			"bad bound":     {Params{StartKey: "zz"}, CodeMalformedRowKey},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := Build(tc.params, tl)
				ce, ok := AsClientError(err)
				if !ok || ce.Code != tc.code {
					t.Errorf("Expected %s, got %v", tc.code, err)
				}
			})
		}
	})
}
