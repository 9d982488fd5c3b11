package design

import (
	"sort"
	"strings"
)

// Use is one selector imported by a use clause, e.g. library "ieee" and
// selector "std_logic_1164.all".
type Use struct {
	Library  string `json:"library"`
	Selector string `json:"selector"`
}

// String renders the clause target the way it was written.
func (u Use) String() string {
	return u.Library + "." + u.Selector
}

// Port is an entity interface signal. Direction is kept as written ("in",
// "out", "inout", ...) and Type is the whitespace-normalized type expression.
type Port struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
}

// Entity is a module interface.
type Entity struct {
	// Name is the qualified name, "work.<identifier>".
	Name string
	// File and Line locate the "entity" keyword.
	File string
	Line int

	uses          []Use
	ports         map[string]Port
	portOrder     []string
	architectures map[string]*Architecture
}

// NewEntity returns an entity that imports a copy of uses.
func NewEntity(name string, uses []Use) *Entity {
	return &Entity{
		Name:          strings.TrimSpace(name),
		uses:          append([]Use(nil), uses...),
		ports:         make(map[string]Port),
		architectures: make(map[string]*Architecture),
	}
}

// AddUse records a use clause. Duplicates are kept.
func (e *Entity) AddUse(u Use) {
	e.uses = append(e.uses, u)
}

// Uses returns the use clauses in the order they were recorded.
func (e *Entity) Uses() []Use {
	return append([]Use(nil), e.uses...)
}

// UsesOf returns the selectors imported from library.
func (e *Entity) UsesOf(library string) []string {
	var out []string
	for _, u := range e.uses {
		if strings.EqualFold(u.Library, library) {
			out = append(out, u.Selector)
		}
	}
	return out
}

// AddPort stores p and reports whether a port with the same name was replaced.
// A replaced port keeps its original position in Ports.
func (e *Entity) AddPort(p Port) bool {
	p.Name = strings.TrimSpace(p.Name)
	k := key(p.Name)
	_, replaced := e.ports[k]
	if !replaced {
		e.portOrder = append(e.portOrder, k)
	}
	e.ports[k] = p
	return replaced
}

// Port looks up a port by name.
func (e *Entity) Port(name string) (Port, bool) {
	p, ok := e.ports[key(name)]
	return p, ok
}

// Ports returns the ports in declaration order.
func (e *Entity) Ports() []Port {
	out := make([]Port, 0, len(e.portOrder))
	for _, k := range e.portOrder {
		out = append(out, e.ports[k])
	}
	return out
}

// AddArchitecture attaches a and reports whether an architecture with the
// same name was replaced.
func (e *Entity) AddArchitecture(a *Architecture) bool {
	k := key(a.Name)
	_, replaced := e.architectures[k]
	e.architectures[k] = a
	return replaced
}

// Architecture looks up an architecture by name.
func (e *Entity) Architecture(name string) (*Architecture, bool) {
	a, ok := e.architectures[key(name)]
	return a, ok
}

// Architectures returns the attached architectures sorted by name.
func (e *Entity) Architectures() []*Architecture {
	out := make([]*Architecture, 0, len(e.architectures))
	for _, a := range e.architectures {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

// Identifier returns the entity name without its library prefix.
func (e *Entity) Identifier() string {
	if i := strings.IndexByte(e.Name, '.'); i >= 0 {
		return e.Name[i+1:]
	}
	return e.Name
}
