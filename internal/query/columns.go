package query

import (
	"sort"
	"strings"

	"github.com/dreamware/rowgate/internal/layout"
)

// Column is one (family, optional qualifier) selector. An empty
// Qualifier selects every qualifier in the family.
type Column struct {
	Family    string
	Qualifier string
}

// String renders the column in the wire form used by the cols parameter.
func (c Column) String() string {
	if c.Qualifier == "" {
		return c.Family
	}
	return c.Family + ":" + c.Qualifier
}

// ColumnSelector is the normalized set of columns a query projects,
// together with the per-column maximum number of versions to return.
//
// Invariants, established by ParseColumns:
//   - either All is set, or Columns is non-empty
//   - Columns holds no duplicate (family, qualifier) pairs and is sorted
//     by family then qualifier
//   - MaxVersions >= 1
type ColumnSelector struct {
	All         bool
	Columns     []Column
	MaxVersions int
}

// Includes reports whether a cell in the given family and qualifier is
// projected by this selector.
func (cs *ColumnSelector) Includes(family, qualifier string) bool {
	if cs.All {
		return true
	}
	for _, c := range cs.Columns {
		if c.Family == family && (c.Qualifier == "" || c.Qualifier == qualifier) {
			return true
		}
	}
	return false
}

// ParseColumns parses a comma-separated column specification against a
// table layout.
//
// Token forms: "*" (all families), "family", "family:qualifier". An
// empty specification is equivalent to "*". Duplicate tokens collapse.
// Blank tokens (as from a trailing comma) are ignored.
//
// Fails with an invalid-column-spec client error when a token references
// a family or qualifier the layout does not declare, or when maxVersions
// is not positive.
func ParseColumns(spec string, maxVersions int, tl *layout.Table) (ColumnSelector, error) {
	if maxVersions <= 0 {
		return ColumnSelector{}, clientErrf(CodeInvalidColumnSpec, nil,
			"versions must be a positive integer, got %d", maxVersions)
	}

	cs := ColumnSelector{MaxVersions: maxVersions}
	seen := make(map[Column]bool)

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		switch {
		case token == "":
			continue

		case token == "*":
			cs.All = true

		default:
			family, qualifier, hasQualifier := strings.Cut(token, ":")
			fam := tl.Family(family)
			if fam == nil {
				return ColumnSelector{}, clientErrf(CodeInvalidColumnSpec, nil,
					"table %q has no family %q", tl.Name, family)
			}
			if hasQualifier {
				if qualifier == "" || !fam.HasQualifier(qualifier) {
					return ColumnSelector{}, clientErrf(CodeInvalidColumnSpec, nil,
						"family %q has no qualifier %q", family, qualifier)
				}
			}
			col := Column{Family: family, Qualifier: qualifier}
			if !seen[col] {
				seen[col] = true
				cs.Columns = append(cs.Columns, col)
			}
		}
	}

	// The wildcard subsumes every explicit column.
	if cs.All || len(cs.Columns) == 0 {
		cs.All = true
		cs.Columns = nil
		return cs, nil
	}

	sort.Slice(cs.Columns, func(i, j int) bool {
		if cs.Columns[i].Family != cs.Columns[j].Family {
			return cs.Columns[i].Family < cs.Columns[j].Family
		}
		return cs.Columns[i].Qualifier < cs.Columns[j].Qualifier
	})
	return cs, nil
}
