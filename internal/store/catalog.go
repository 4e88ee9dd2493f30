package store

import (
	"fmt"
	"sort"

	"github.com/dreamware/rowgate/internal/layout"
)

// Catalog is the validated registry of visible instances and their open
// table handles. It is built once at startup from the configured
// instance set and table layouts, immutable afterwards, and safe for
// concurrent use.
//
// Requests resolve (instance, table) through the catalog; anything not
// registered here does not exist as far as the gateway is concerned.
type Catalog struct {
	backend   Backend
	instances map[string]map[string]*Table
}

// NewCatalog builds a catalog over a backend from the per-instance table
// layouts, ensuring backend storage exists for every table.
//
// Fails when an instance has no tables, when two layouts in one instance
// share a table name, or when the backend cannot create a table.
func NewCatalog(backend Backend, layouts map[string][]*layout.Table) (*Catalog, error) {
	c := &Catalog{
		backend:   backend,
		instances: make(map[string]map[string]*Table, len(layouts)),
	}
	for instance, tables := range layouts {
		if instance == "" {
			return nil, fmt.Errorf("store: instance with empty name")
		}
		if len(tables) == 0 {
			return nil, fmt.Errorf("store: instance %q has no tables", instance)
		}
		entry := make(map[string]*Table, len(tables))
		for _, tl := range tables {
			if _, ok := entry[tl.Name]; ok {
				return nil, fmt.Errorf("store: instance %q: duplicate table %q", instance, tl.Name)
			}
			if err := backend.CreateTable(instance, tl.Name); err != nil {
				return nil, fmt.Errorf("store: create %s/%s: %w", instance, tl.Name, err)
			}
			entry[tl.Name] = &Table{
				Instance: instance,
				Name:     tl.Name,
				layout:   tl,
				backend:  backend,
			}
		}
		c.instances[instance] = entry
	}
	return c, nil
}

// Instances returns the visible instance names in lexicographic order.
func (c *Catalog) Instances() []string {
	names := make([]string, 0, len(c.instances))
	for name := range c.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables returns the table names of an instance in lexicographic order.
// Returns ErrInstanceNotFound for an instance outside the visible set.
func (c *Catalog) Tables(instance string) ([]string, error) {
	entry, ok := c.instances[instance]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInstanceNotFound, instance)
	}
	names := make([]string, 0, len(entry))
	for name := range entry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Table resolves an open table handle. Returns ErrInstanceNotFound or
// ErrTableNotFound when the pair is not registered.
func (c *Catalog) Table(instance, table string) (*Table, error) {
	entry, ok := c.instances[instance]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInstanceNotFound, instance)
	}
	t, ok := entry[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrTableNotFound, instance, table)
	}
	return t, nil
}

// Probe verifies that every table of an instance is reachable through
// the backend. Used by the health monitor.
func (c *Catalog) Probe(instance string) error {
	entry, ok := c.instances[instance]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInstanceNotFound, instance)
	}
	for name := range entry {
		if _, err := c.backend.CountRows(instance, name); err != nil {
			return fmt.Errorf("store: probe %s/%s: %w", instance, name, err)
		}
	}
	return nil
}
