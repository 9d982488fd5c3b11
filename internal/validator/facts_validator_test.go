package validator

import (
	"testing"

	"github.com/lambila-hdl/lambila/internal/design"
	"github.com/lambila-hdl/lambila/internal/facts"
	"github.com/lambila-hdl/lambila/internal/parser"
)

func TestFactsValidatorAcceptsParsedDesign(t *testing.T) {
	v, err := NewFactsValidator()
	if err != nil {
		t.Fatalf("new facts validator: %v", err)
	}

	src := `library ieee;
use ieee.std_logic_1164.all;
entity top is
  port ( clk : in std_logic; q : out std_logic_vector(7 downto 0) );
end top;
architecture rtl of top is
  signal r : std_logic_vector(7 downto 0);
  constant ZERO : std_logic_vector(7 downto 0) := (others => '0');
begin
  q <= r;
end rtl;
`
	d := design.New()
	if err := parser.ParseString("rtl/top.vhd", src, d, nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	tables := facts.BuildTables(d, []facts.FileRow{{Path: "rtl/top.vhd", Library: "work", Status: facts.StatusParsed}})

	if err := v.Validate(tables); err != nil {
		t.Fatalf("expected valid tables, got error: %v", err)
	}
}

func TestFactsValidatorRejectsInvalidTables(t *testing.T) {
	v, err := NewFactsValidator()
	if err != nil {
		t.Fatalf("new facts validator: %v", err)
	}

	tables := facts.BuildTables(design.New(), nil)
	tables.Entities = append(tables.Entities, facts.EntityRow{
		Name: "my_entity",
		File: "test/a.vhd",
		Line: 0,
	})

	if err := v.Validate(tables); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}
