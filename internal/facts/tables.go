// Package facts flattens a parsed design into relational tables. The tables
// are the read side of the model: the CLI dumps them, the validator checks
// them against the CUE contract, the policy engine queries them and the
// indexer diffs them between refreshes.
package facts

import (
	"sort"

	"github.com/lambila-hdl/lambila/internal/design"
)

// Tables is the relational snapshot of one design. Each slice is a relation
// (table) with flat rows.
type Tables struct {
	Files         []FileRow         `json:"files"`
	Entities      []EntityRow       `json:"entities"`
	Architectures []ArchitectureRow `json:"architectures"`
	Ports         []PortRow         `json:"ports"`
	Signals       []SignalRow       `json:"signals"`
	Constants     []ConstantRow     `json:"constants"`
	UseClauses    []UseClauseRow    `json:"use_clauses"`
}

// File status values.
const (
	StatusParsed  = "parsed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type FileRow struct {
	Path    string `json:"path"`
	Library string `json:"library"`
	Status  string `json:"status"`
}

type EntityRow struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

type ArchitectureRow struct {
	Name       string `json:"name"`
	EntityName string `json:"entity_name"`
	File       string `json:"file"`
	Line       int    `json:"line"`
}

type PortRow struct {
	Entity    string `json:"entity"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
	// Position is the 0-based declaration index within the port list.
	Position int    `json:"position"`
	File     string `json:"file"`
}

type SignalRow struct {
	Entity       string `json:"entity"`
	Architecture string `json:"architecture"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	File         string `json:"file"`
}

type ConstantRow struct {
	Entity       string `json:"entity"`
	Architecture string `json:"architecture"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Value        string `json:"value"`
	File         string `json:"file"`
}

type UseClauseRow struct {
	Entity   string `json:"entity"`
	Library  string `json:"library"`
	Selector string `json:"selector"`
	File     string `json:"file"`
}

// BuildTables converts a design into the relational model. files describes
// the batch that produced d; it may be nil when only the design is known.
func BuildTables(d *design.Design, files []FileRow) Tables {
	tables := emptyTables()
	tables.Files = append(tables.Files, files...)

	for _, e := range d.Entities() {
		tables.Entities = append(tables.Entities, EntityRow{
			Name: e.Name,
			File: e.File,
			Line: e.Line,
		})

		for i, p := range e.Ports() {
			tables.Ports = append(tables.Ports, PortRow{
				Entity:    e.Name,
				Name:      p.Name,
				Direction: p.Direction,
				Type:      p.Type,
				Position:  i,
				File:      e.File,
			})
		}

		for _, u := range e.Uses() {
			tables.UseClauses = append(tables.UseClauses, UseClauseRow{
				Entity:   e.Name,
				Library:  u.Library,
				Selector: u.Selector,
				File:     e.File,
			})
		}

		for _, a := range e.Architectures() {
			tables.Architectures = append(tables.Architectures, ArchitectureRow{
				Name:       a.Name,
				EntityName: e.Name,
				File:       a.File,
				Line:       a.Line,
			})
			for _, s := range a.Signals() {
				tables.Signals = append(tables.Signals, SignalRow{
					Entity:       e.Name,
					Architecture: a.Name,
					Name:         s.Name,
					Type:         s.Type,
					File:         a.File,
				})
			}
			for _, c := range a.Constants() {
				tables.Constants = append(tables.Constants, ConstantRow{
					Entity:       e.Name,
					Architecture: a.Name,
					Name:         c.Name,
					Type:         c.Type,
					Value:        c.Value,
					File:         a.File,
				})
			}
		}
	}

	sort.SliceStable(tables.Files, func(i, j int) bool { return tables.Files[i].Path < tables.Files[j].Path })

	return tables
}

// Counts returns the number of rows per relation, keyed by JSON table name.
func (t Tables) Counts() map[string]int {
	return map[string]int{
		"files":         len(t.Files),
		"entities":      len(t.Entities),
		"architectures": len(t.Architectures),
		"ports":         len(t.Ports),
		"signals":       len(t.Signals),
		"constants":     len(t.Constants),
		"use_clauses":   len(t.UseClauses),
	}
}

// Empty reports whether every relation is empty.
func (t Tables) Empty() bool {
	for _, n := range t.Counts() {
		if n > 0 {
			return false
		}
	}
	return true
}

func emptyTables() Tables {
	return Tables{
		Files:         []FileRow{},
		Entities:      []EntityRow{},
		Architectures: []ArchitectureRow{},
		Ports:         []PortRow{},
		Signals:       []SignalRow{},
		Constants:     []ConstantRow{},
		UseClauses:    []UseClauseRow{},
	}
}
