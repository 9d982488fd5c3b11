package indexer

import (
	"strings"
	"testing"

	"github.com/lambila-hdl/lambila/internal/facts"
)

func TestImpactExpansion(t *testing.T) {
	tables := facts.Tables{
		Entities: []facts.EntityRow{
			{Name: "work.core", File: "a.vhd", Line: 1},
			{Name: "work.top", File: "c.vhd", Line: 1},
		},
		Architectures: []facts.ArchitectureRow{
			{Name: "rtl", EntityName: "work.core", File: "b.vhd", Line: 1},
			{Name: "rtl", EntityName: "work.top", File: "d.vhd", Line: 1},
		},
		UseClauses: []facts.UseClauseRow{
			{Entity: "work.top", Library: "work", Selector: "core.all", File: "c.vhd"},
			{Entity: "work.top", Library: "ieee", Selector: "std_logic_1164.all", File: "c.vhd"},
		},
	}

	deps := buildDependentsGraph(tables)
	report := computeImpact("a.vhd", deps)

	if len(report.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %v", len(report.Levels), report.Levels)
	}
	level := report.Levels[0]
	if len(level) != 2 || level[0] != "b.vhd" || level[1] != "c.vhd" {
		t.Fatalf("unexpected first level: %v", level)
	}
	if got := report.Levels[1]; len(got) != 1 || got[0] != "d.vhd" {
		t.Fatalf("unexpected second level: %v", got)
	}
}

func TestDependentsIgnoreSameFile(t *testing.T) {
	tables := facts.Tables{
		Entities:      []facts.EntityRow{{Name: "work.core", File: "a.vhd", Line: 1}},
		Architectures: []facts.ArchitectureRow{{Name: "rtl", EntityName: "work.core", File: "a.vhd", Line: 5}},
	}
	deps := buildDependentsGraph(tables)
	if len(deps) != 0 {
		t.Fatalf("expected no dependents, got %v", deps)
	}
	if report := computeImpact("a.vhd", deps); len(report.Levels) != 0 {
		t.Fatalf("expected no impact, got %v", report.Levels)
	}
}

func TestFormatImpactReport(t *testing.T) {
	out := formatImpactReport(impactReport{Root: "a.vhd", Levels: [][]string{{"b.vhd", "c.vhd"}}})
	if !strings.Contains(out, "a.vhd") || !strings.Contains(out, "level 1 (2): b.vhd, c.vhd") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}
