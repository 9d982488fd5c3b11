package design

import "strings"

// Signal is an architecture signal declaration.
type Signal struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Constant is an architecture constant declaration. Value is the expression
// after ":=", captured verbatim and never evaluated.
type Constant struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Architecture is an implementation body bound to one entity.
type Architecture struct {
	Name string
	// Entity is the qualified name of the entity the body implements.
	Entity string
	File   string
	Line   int

	signals       map[string]Signal
	signalOrder   []string
	constants     map[string]Constant
	constantOrder []string
}

// NewArchitecture returns an empty architecture of entity.
func NewArchitecture(name, entity string) *Architecture {
	return &Architecture{
		Name:      strings.TrimSpace(name),
		Entity:    entity,
		signals:   make(map[string]Signal),
		constants: make(map[string]Constant),
	}
}

// AddSignal stores s and reports whether a signal with the same name was replaced.
func (a *Architecture) AddSignal(s Signal) bool {
	s.Name = strings.TrimSpace(s.Name)
	k := key(s.Name)
	_, replaced := a.signals[k]
	if !replaced {
		a.signalOrder = append(a.signalOrder, k)
	}
	a.signals[k] = s
	return replaced
}

// Signal looks up a signal by name.
func (a *Architecture) Signal(name string) (Signal, bool) {
	s, ok := a.signals[key(name)]
	return s, ok
}

// Signals returns the signals in declaration order.
func (a *Architecture) Signals() []Signal {
	out := make([]Signal, 0, len(a.signalOrder))
	for _, k := range a.signalOrder {
		out = append(out, a.signals[k])
	}
	return out
}

// AddConstant stores c and reports whether a constant with the same name was replaced.
func (a *Architecture) AddConstant(c Constant) bool {
	c.Name = strings.TrimSpace(c.Name)
	k := key(c.Name)
	_, replaced := a.constants[k]
	if !replaced {
		a.constantOrder = append(a.constantOrder, k)
	}
	a.constants[k] = c
	return replaced
}

// Constant looks up a constant by name.
func (a *Architecture) Constant(name string) (Constant, bool) {
	c, ok := a.constants[key(name)]
	return c, ok
}

// Constants returns the constants in declaration order.
func (a *Architecture) Constants() []Constant {
	out := make([]Constant, 0, len(a.constantOrder))
	for _, k := range a.constantOrder {
		out = append(out, a.constants[k])
	}
	return out
}
