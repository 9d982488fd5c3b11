// Package design holds the structural model of a parsed VHDL design:
// entities with their use clauses and ports, and the architectures bound to
// them with their signals and constants.
//
// The model only records declarations. Nothing here elaborates hierarchy,
// binds ports or checks types.
//
// Every map in the model is keyed case-insensitively, matching VHDL identifier
// rules, while the stored names keep the spelling found in the source.
// Inserting a declaration under a key that already exists replaces the earlier
// one (last write wins); every Add method reports whether that happened so the
// caller can warn about it.
package design

import (
	"sort"
	"strings"
	"sync"
)

// WorkLibrary is the library every parsed entity is stored under.
const WorkLibrary = "work"

// QualifiedName returns the storage name of an entity declared as id.
func QualifiedName(id string) string {
	return WorkLibrary + "." + strings.TrimSpace(id)
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Design is the set of entities found by one refresh.
//
// A Design is written by a single parse worker and read by the shell once the
// worker is done; the lock only makes late readers safe.
type Design struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// New returns an empty Design.
func New() *Design {
	return &Design{entities: make(map[string]*Entity)}
}

// AddEntity stores e under its qualified name and reports whether an entity
// with the same name was replaced.
func (d *Design) AddEntity(e *Entity) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := key(e.Name)
	_, replaced := d.entities[k]
	d.entities[k] = e
	return replaced
}

// Entity looks up an entity by qualified name ("work.counter").
func (d *Design) Entity(name string) (*Entity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entities[key(name)]
	return e, ok
}

// Entities returns all entities sorted by name.
func (d *Design) Entities() []*Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Entity, 0, len(d.entities))
	for _, e := range d.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

// Names returns the qualified entity names in sorted order.
func (d *Design) Names() []string {
	entities := d.Entities()
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of entities.
func (d *Design) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entities)
}
