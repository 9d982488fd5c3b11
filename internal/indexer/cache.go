package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lambila-hdl/lambila/internal/facts"
	"github.com/lambila-hdl/lambila/internal/fsutil"
)

const snapshotCacheVersion = 1

// snapshotFile is the on-disk shape of the cache: the content hash of every
// file in the last successful batch plus the tables it produced.
type snapshotFile struct {
	Version int               `json:"version"`
	Hashes  map[string]string `json:"hashes"`
	Tables  facts.Tables      `json:"tables"`
}

type snapshotCache struct {
	dir  string
	prev snapshotFile
	ok   bool
}

func newSnapshotCache(dir string) *snapshotCache {
	return &snapshotCache{dir: dir}
}

func (c *snapshotCache) path() string {
	return filepath.Join(c.dir, "snapshot.json")
}

// Load reads the previous snapshot. A missing file or an old version is not
// an error; the cache simply starts empty.
func (c *snapshotCache) Load() error {
	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read snapshot cache: %w", err)
	}
	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot cache: %w", err)
	}
	if snap.Version != snapshotCacheVersion {
		return nil
	}
	if snap.Hashes == nil {
		snap.Hashes = make(map[string]string)
	}
	c.prev = snap
	c.ok = true
	return nil
}

// Previous returns the cached tables, if any.
func (c *snapshotCache) Previous() (facts.Tables, bool) {
	return c.prev.Tables, c.ok
}

// ChangedFiles returns the files whose content hash differs from the cached
// one, including files that are new or gone. Without a previous snapshot
// every current file counts as changed.
func (c *snapshotCache) ChangedFiles(hashes map[string]string) []string {
	var out []string
	for f, h := range hashes {
		if old, ok := c.prev.Hashes[f]; !ok || old != h {
			out = append(out, f)
		}
	}
	for f := range c.prev.Hashes {
		if _, ok := hashes[f]; !ok {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Save replaces the cached snapshot.
func (c *snapshotCache) Save(hashes map[string]string, tables facts.Tables) error {
	snap := snapshotFile{
		Version: snapshotCacheVersion,
		Hashes:  hashes,
		Tables:  tables,
	}
	if err := fsutil.WriteJSONAtomic(c.path(), snap); err != nil {
		return fmt.Errorf("write snapshot cache: %w", err)
	}
	c.prev = snap
	c.ok = true
	return nil
}
