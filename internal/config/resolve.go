package config

import (
	"fmt"

	"github.com/dreamware/rowgate/internal/layout"
)

// ResolveLayouts binds each declared instance to its table layouts. An
// instance with no explicit table list gets every loaded layout; an
// explicit list must name only loaded layouts.
func (c *Config) ResolveLayouts(layouts []*layout.Table) (map[string][]*layout.Table, error) {
	byName := make(map[string]*layout.Table, len(layouts))
	for _, tl := range layouts {
		byName[tl.Name] = tl
	}

	out := make(map[string][]*layout.Table, len(c.Instances))
	for _, inst := range c.Instances {
		if len(inst.Tables) == 0 {
			out[inst.Name] = append([]*layout.Table(nil), layouts...)
			continue
		}
		tables := make([]*layout.Table, 0, len(inst.Tables))
		for _, name := range inst.Tables {
			tl, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("config: instance %q references unknown table %q",
					inst.Name, name)
			}
			tables = append(tables, tl)
		}
		out[inst.Name] = tables
	}
	return out, nil
}
