package route

import (
	"fmt"
	"iter"
)

// Table is an ordered, immutable registry of route definitions.
//
// Order is significant: it is the match priority. A general fallback pattern
// belongs late in the table.
type Table struct {
	defs   []*Definition
	byName map[Name]*Definition
}

// NewTable builds a Table from defs in the given order.
// Returns an error for an empty or duplicate name, or a pattern without regex.
func NewTable(defs ...*Definition) (*Table, error) {
	t := &Table{
		defs:   make([]*Definition, 0, len(defs)),
		byName: make(map[Name]*Definition, len(defs)),
	}

	for i, def := range defs {
		if def == nil || def.Name == "" {
			return nil, fmt.Errorf("route table: definition %d has no name", i)
		}
		if _, dup := t.byName[def.Name]; dup {
			return nil, fmt.Errorf("route table: duplicate route %q", def.Name)
		}
		for _, s := range []Surface{SurfaceProtocol, SurfaceWebsite} {
			for j, p := range def.Patterns(s) {
				if p.Regex == nil {
					return nil, fmt.Errorf("route table: %s %s pattern %d has no regex", def.Name, s, j)
				}
			}
		}

		t.defs = append(t.defs, def)
		t.byName[def.Name] = def
	}

	return t, nil
}

// MustTable is like NewTable but panics on error. Intended for static tables.
func MustTable(defs ...*Definition) *Table {
	t, err := NewTable(defs...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the definition registered under name.
func (t *Table) Lookup(name Name) (*Definition, bool) {
	def, ok := t.byName[name]
	return def, ok
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.defs)
}

// Definitions iterates routes in table order.
func (t *Table) Definitions() iter.Seq[*Definition] {
	return func(yield func(*Definition) bool) {
		for _, def := range t.defs {
			if !yield(def) {
				return
			}
		}
	}
}

// Names returns route names in table order.
func (t *Table) Names() []Name {
	names := make([]Name, len(t.defs))
	for i, def := range t.defs {
		names[i] = def.Name
	}
	return names
}

// Candidates lazily yields every (route, pattern) pair for surface s in match
// priority order. Consumers stop pulling as soon as a candidate survives.
func (t *Table) Candidates(s Surface) iter.Seq2[*Definition, *Pattern] {
	return func(yield func(*Definition, *Pattern) bool) {
		for _, def := range t.defs {
			patterns := def.Patterns(s)
			for i := range patterns {
				if !yield(def, &patterns[i]) {
					return
				}
			}
		}
	}
}
