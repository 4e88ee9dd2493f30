package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeyFormat identifies how a table's entity identifiers are encoded into
// row-key bytes.
type KeyFormat string

const (
	// KeyFormatRaw uses the identifier token verbatim as key bytes.
	KeyFormatRaw KeyFormat = "raw"
	// KeyFormatHex expects the identifier token to be hex-encoded key bytes.
	KeyFormatHex KeyFormat = "hex"
	// KeyFormatComposite expects a JSON array of string components.
	KeyFormatComposite KeyFormat = "composite"
)

// Family describes one column family of a table.
//
// A family with an empty Qualifiers list is map-type: it accepts any
// qualifier name. A family with a non-empty list is group-type: only the
// listed qualifiers exist.
type Family struct {
	Name       string   `yaml:"name" json:"name"`
	Qualifiers []string `yaml:"qualifiers,omitempty" json:"qualifiers,omitempty"`
}

// MapType reports whether the family accepts arbitrary qualifiers.
func (f *Family) MapType() bool {
	return len(f.Qualifiers) == 0
}

// HasQualifier reports whether the qualifier exists in this family.
// Map-type families accept every non-empty qualifier name.
func (f *Family) HasQualifier(qualifier string) bool {
	if qualifier == "" {
		return false
	}
	if f.MapType() {
		return true
	}
	for _, q := range f.Qualifiers {
		if q == qualifier {
			return true
		}
	}
	return false
}

// Table is the declared layout of one table: its name, row-key format,
// and column families.
//
// A Table is immutable after Validate and safe for concurrent use.
type Table struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	RowKey      KeyFormat `yaml:"row_key" json:"row_key"`
	Families    []Family  `yaml:"families" json:"families"`
}

// Family returns the named family, or nil if the layout does not declare it.
func (t *Table) Family(name string) *Family {
	for i := range t.Families {
		if t.Families[i].Name == name {
			return &t.Families[i]
		}
	}
	return nil
}

// FamilyNames returns the family names in lexicographic order.
func (t *Table) FamilyNames() []string {
	names := make([]string, 0, len(t.Families))
	for i := range t.Families {
		names = append(names, t.Families[i].Name)
	}
	sort.Strings(names)
	return names
}

// Validate checks structural invariants of the layout:
//   - non-empty table name without path separators
//   - a known row-key format (empty defaults to raw)
//   - at least one family
//   - no duplicate family names, no duplicate qualifiers within a family
//   - no empty family or qualifier names, no ':' inside names
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("layout: table name is empty")
	}
	if strings.ContainsAny(t.Name, "/:") {
		return fmt.Errorf("layout: table %q: name contains reserved characters", t.Name)
	}
	switch t.RowKey {
	case "":
		t.RowKey = KeyFormatRaw
	case KeyFormatRaw, KeyFormatHex, KeyFormatComposite:
	default:
		return fmt.Errorf("layout: table %q: unknown row_key format %q", t.Name, t.RowKey)
	}
	if len(t.Families) == 0 {
		return fmt.Errorf("layout: table %q: no families declared", t.Name)
	}
	seenFamilies := make(map[string]bool, len(t.Families))
	for i := range t.Families {
		f := &t.Families[i]
		if f.Name == "" {
			return fmt.Errorf("layout: table %q: family with empty name", t.Name)
		}
		if strings.Contains(f.Name, ":") {
			return fmt.Errorf("layout: table %q: family %q: name contains ':'", t.Name, f.Name)
		}
		if seenFamilies[f.Name] {
			return fmt.Errorf("layout: table %q: duplicate family %q", t.Name, f.Name)
		}
		seenFamilies[f.Name] = true

		seenQualifiers := make(map[string]bool, len(f.Qualifiers))
		for _, q := range f.Qualifiers {
			if q == "" {
				return fmt.Errorf("layout: table %q: family %q: empty qualifier", t.Name, f.Name)
			}
			if seenQualifiers[q] {
				return fmt.Errorf("layout: table %q: family %q: duplicate qualifier %q", t.Name, f.Name, q)
			}
			seenQualifiers[q] = true
		}
	}
	return nil
}

// Parse decodes a single YAML layout document and validates it.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadDir reads every *.yml and *.yaml file in dir as one table layout
// each and returns the parsed layouts sorted by table name.
//
// Returns an error on the first unreadable or invalid file; a missing
// directory is an error, an empty one is not.
func LoadDir(dir string) ([]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	var tables []*Table
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		t, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}
