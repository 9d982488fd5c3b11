package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lambila-hdl/lambila/internal/facts"
)

func writeVHDL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

// setup writes a two-file design and a config that keeps the snapshot
// cache and the lint policy out of the way.
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeVHDL(t, dir, "a.vhd", "entity a is\n  port (clk : in bit);\nend;\n")
	writeVHDL(t, dir, "b.vhd", "architecture rtl of a is\n  signal s : bit;\nbegin\nend;\n")
	writeVHDL(t, dir, "lambila.json", `{"analysis": {"policy": false, "cache": {"enabled": false}}}`)
	return dir
}

func TestDumpDirectory(t *testing.T) {
	dir := setup(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{dir}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var tables facts.Tables
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &tables))
	require.Len(t, tables.Files, 2)
	require.Len(t, tables.Entities, 1)
	require.Len(t, tables.Architectures, 1)
	require.Len(t, tables.Signals, 1)
}

func TestDumpOnlyAndDelta(t *testing.T) {
	dir := setup(t)
	prevPath := filepath.Join(dir, "prev.json")
	deltaPath := filepath.Join(dir, "delta.json")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-o", prevPath, dir}, &stdout, &stderr), stderr.String())
	require.Empty(t, stdout.String())

	writeVHDL(t, dir, "a.vhd", "entity a is\n  port (clk : in bit; rst : in bit);\nend;\n")

	stdout.Reset()
	args := []string{"-only", filepath.Join(dir, "a.vhd"), "-delta-from", prevPath, "-delta-out", deltaPath, dir}
	require.Equal(t, 0, run(args, &stdout, &stderr), stderr.String())

	var tables facts.Tables
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &tables))
	require.Len(t, tables.Files, 1)
	require.Empty(t, tables.Architectures, "b.vhd rows are filtered out")
	require.Len(t, tables.Ports, 2)

	raw, err := os.ReadFile(deltaPath)
	require.NoError(t, err)
	var delta facts.Delta
	require.NoError(t, json.Unmarshal(raw, &delta))
	require.Len(t, delta.Added.Ports, 1)
	require.Equal(t, "rst", delta.Added.Ports[0].Name)
	require.Empty(t, delta.Removed.Ports)
}

func TestUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 2, run(nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Usage: lambila-facts")

	stderr.Reset()
	require.Equal(t, 2, run([]string{"-delta-from", "x.json", "."}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "must be used together")

	stderr.Reset()
	require.Equal(t, 1, run([]string{filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr))
}

func TestDumpStopsAtParseFailure(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeVHDL(t, dir, "a.vhd", "architecture rtl of nowhere is begin end;\n")
	writeVHDL(t, dir, "lambila.json", `{"analysis": {"policy": false, "cache": {"enabled": false}}}`)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{dir}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "unknown entity work.nowhere")

	var tables facts.Tables
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &tables), "partial snapshot is still printed")
	require.Equal(t, facts.StatusFailed, tables.Files[0].Status)
}
