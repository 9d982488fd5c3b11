package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lambila-hdl/lambila/internal/facts"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	c := newSnapshotCache(dir)
	require.NoError(t, c.Load())
	_, ok := c.Previous()
	require.False(t, ok, "empty cache has no snapshot")

	tables := facts.Tables{Entities: []facts.EntityRow{{Name: "work.a", File: "a.vhd", Line: 1}}}
	require.NoError(t, c.Save(map[string]string{"a.vhd": "h1"}, tables))

	reloaded := newSnapshotCache(dir)
	require.NoError(t, reloaded.Load())
	prev, ok := reloaded.Previous()
	require.True(t, ok)
	require.Equal(t, tables.Entities, prev.Entities)

	changed := reloaded.ChangedFiles(map[string]string{"a.vhd": "h1", "b.vhd": "h2"})
	require.Equal(t, []string{"b.vhd"}, changed)

	changed = reloaded.ChangedFiles(map[string]string{"a.vhd": "h3"})
	require.Equal(t, []string{"a.vhd"}, changed)

	changed = reloaded.ChangedFiles(map[string]string{})
	require.Equal(t, []string{"a.vhd"}, changed, "removed files count as changed")
}

func TestSnapshotCacheVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot.json"), []byte(`{"version": 99, "hashes": {"a.vhd": "x"}}`), 0o644))

	c := newSnapshotCache(dir)
	require.NoError(t, c.Load())
	_, ok := c.Previous()
	require.False(t, ok)
}

func TestSnapshotCacheCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot.json"), []byte(`{`), 0o644))

	c := newSnapshotCache(dir)
	require.Error(t, c.Load())
}
