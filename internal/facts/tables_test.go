package facts

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lambila-hdl/lambila/internal/design"
)

func sampleDesign() *design.Design {
	d := design.New()
	e := design.NewEntity("work.counter", []design.Use{{Library: "ieee", Selector: "std_logic_1164.all"}})
	e.File = "rtl/counter.vhd"
	e.Line = 3
	e.AddPort(design.Port{Name: "clk", Direction: "in", Type: "std_logic"})
	e.AddPort(design.Port{Name: "q", Direction: "out", Type: "unsigned ( 3 downto 0 )"})

	a := design.NewArchitecture("rtl", e.Name)
	a.File = "rtl/counter_rtl.vhd"
	a.Line = 1
	a.AddSignal(design.Signal{Name: "count", Type: "unsigned ( 3 downto 0 )"})
	a.AddConstant(design.Constant{Name: "MAX", Type: "natural", Value: "15"})
	e.AddArchitecture(a)
	d.AddEntity(e)
	return d
}

func TestBuildTablesPopulatesCoreRelations(t *testing.T) {
	files := []FileRow{
		{Path: "rtl/counter_rtl.vhd", Library: "work", Status: StatusParsed},
		{Path: "rtl/counter.vhd", Library: "work", Status: StatusParsed},
	}
	tables := BuildTables(sampleDesign(), files)

	if len(tables.Files) != 2 || tables.Files[0].Path != "rtl/counter.vhd" {
		t.Fatalf("expected sorted file rows, got %#v", tables.Files)
	}
	want := []PortRow{
		{Entity: "work.counter", Name: "clk", Direction: "in", Type: "std_logic", Position: 0, File: "rtl/counter.vhd"},
		{Entity: "work.counter", Name: "q", Direction: "out", Type: "unsigned ( 3 downto 0 )", Position: 1, File: "rtl/counter.vhd"},
	}
	if diff := cmp.Diff(want, tables.Ports); diff != "" {
		t.Fatalf("ports mismatch (-want +got):\n%s", diff)
	}
	if len(tables.Architectures) != 1 || tables.Architectures[0].EntityName != "work.counter" {
		t.Fatalf("expected one architecture of work.counter, got %#v", tables.Architectures)
	}
	if len(tables.Signals) != 1 || tables.Signals[0].File != "rtl/counter_rtl.vhd" {
		t.Fatalf("expected signal owned by the architecture file, got %#v", tables.Signals)
	}
	if len(tables.Constants) != 1 || tables.Constants[0].Value != "15" {
		t.Fatalf("expected constant MAX, got %#v", tables.Constants)
	}
	if len(tables.UseClauses) != 1 || tables.UseClauses[0].Library != "ieee" {
		t.Fatalf("expected one ieee use clause, got %#v", tables.UseClauses)
	}
	if tables.Counts()["entities"] != 1 {
		t.Fatalf("unexpected counts %v", tables.Counts())
	}
}

func TestBuildTablesEmptyDesign(t *testing.T) {
	tables := BuildTables(design.New(), nil)
	if !tables.Empty() {
		t.Fatalf("expected empty tables, got %v", tables.Counts())
	}
	if tables.Entities == nil || tables.Ports == nil {
		t.Fatalf("relations must be non-nil so they encode as []")
	}
}
