package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lambila-hdl/lambila/internal/design"
	"github.com/lambila-hdl/lambila/internal/facts"
	"github.com/lambila-hdl/lambila/internal/parser"
)

const shadowing = `entity lonely is port ( a : in bit ); end;
entity top is port ( clk : in bit; q : sideways bit ); end;
architecture rtl of top is
  signal CLK : bit;
  constant q : bit := '0';
begin
end rtl;
`

func tablesFor(t *testing.T, src string) facts.Tables {
	t.Helper()
	d := design.New()
	if err := parser.ParseString("top.vhd", src, d, nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return facts.BuildTables(d, nil)
}

func rules(res *Result) []string {
	var out []string
	for _, v := range res.Violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestBuiltinRules(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, Options{})
	require.NoError(t, err)

	res, err := engine.Evaluate(ctx, tablesFor(t, shadowing))
	require.NoError(t, err)

	want := []Violation{
		{Rule: "entity_without_architecture", Severity: "info", File: "top.vhd", Line: 1, Message: "entity work.lonely has no architecture"},
		{Rule: "unknown_port_direction", Severity: "error", File: "top.vhd", Line: 2, Message: `port q of work.top has unknown direction "sideways"`},
		{Rule: "constant_shadows_port", Severity: "warning", File: "top.vhd", Line: 3, Message: "constant q in work.top(rtl) shadows a port of the same name"},
		{Rule: "signal_shadows_port", Severity: "warning", File: "top.vhd", Line: 3, Message: "signal CLK in work.top(rtl) shadows a port of the same name"},
	}
	if diff := cmp.Diff(want, res.Violations); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, Summary{TotalViolations: 4, Errors: 1, Warnings: 2, Info: 1}, res.Summary)
	require.True(t, res.HasErrors())
	require.Equal(t, `top.vhd:2: error: port q of work.top has unknown direction "sideways" [unknown_port_direction]`, res.Violations[1].String())
}

func TestCleanDesignHasNoViolations(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, Options{})
	require.NoError(t, err)

	res, err := engine.Evaluate(ctx, tablesFor(t, "entity e is port ( a : IN bit ); end;\narchitecture rtl of e is begin end;"))
	require.NoError(t, err)
	require.Empty(t, res.Violations)
	require.False(t, res.HasErrors())
}

func TestSeverityOverridesAndIgnore(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, Options{
		Severities: map[string]string{
			"entity_without_architecture": SeverityOff,
			"signal_shadows_port":         SeverityError,
		},
	})
	require.NoError(t, err)

	res, err := engine.Evaluate(ctx, tablesFor(t, shadowing))
	require.NoError(t, err)
	require.Equal(t, []string{"unknown_port_direction", "constant_shadows_port", "signal_shadows_port"}, rules(res))
	require.Equal(t, 2, res.Summary.Errors)

	engine, err = New(ctx, Options{Ignore: func(file string) bool { return file == "top.vhd" }})
	require.NoError(t, err)
	res, err = engine.Evaluate(ctx, tablesFor(t, shadowing))
	require.NoError(t, err)
	require.Empty(t, res.Violations)
}

func TestCustomPolicyDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	custom := `package lambila.lint

import rego.v1

violations contains v if {
	some e in input.entities
	count([p | some p in input.ports; p.entity == e.name]) == 1
	v := violation("single_port_entity", "info", e.file, e.line, sprintf("%s has one port", [e.name]))
}
`
	if err := os.WriteFile(filepath.Join(dir, "custom.rego"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	engine, err := New(ctx, Options{Dir: dir})
	require.NoError(t, err)
	res, err := engine.Evaluate(ctx, tablesFor(t, shadowing))
	require.NoError(t, err)
	require.Contains(t, rules(res), "single_port_entity")

	_, err = New(ctx, Options{Dir: t.TempDir()})
	require.ErrorContains(t, err, "no policy files found")
}
