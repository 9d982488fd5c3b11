package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestResolveLibrariesWithGlobs(t *testing.T) {
	root := t.TempDir()
	core := writeFile(t, filepath.Join(root, "rtl", "core.vhd"), "-- core")
	deep := writeFile(t, filepath.Join(root, "rtl", "sub", "alu.vhdl"), "-- alu")
	legacy := writeFile(t, filepath.Join(root, "rtl", "legacy", "old.vhd"), "-- old")
	tb := writeFile(t, filepath.Join(root, "sim", "tb_core.vhd"), "-- tb")
	writeFile(t, filepath.Join(root, "rtl", "notes.txt"), "not vhdl")

	cfg := Config{
		Libraries: map[string]LibraryConfig{
			"work": {Files: []string{"rtl/**/*.vhd*"}, Exclude: []string{"rtl/legacy/*.vhd"}},
			"sim":  {Files: []string{"sim/*.vhd"}},
		},
	}

	libs, err := cfg.ResolveLibraries(root)
	if err != nil {
		t.Fatalf("ResolveLibraries: %v", err)
	}
	if len(libs) != 2 || libs[0].Name != "sim" || libs[1].Name != "work" {
		t.Fatalf("expected libraries sorted by name, got %+v", libs)
	}

	workFiles := findLibFiles(t, libs, "work")
	if !containsPath(workFiles, core) || !containsPath(workFiles, deep) {
		t.Fatalf("expected work lib to include %s and %s, got %v", core, deep, workFiles)
	}
	if containsPath(workFiles, legacy) {
		t.Fatalf("excluded file %s still present: %v", legacy, workFiles)
	}

	simFiles := findLibFiles(t, libs, "sim")
	if !containsPath(simFiles, tb) {
		t.Fatalf("expected sim lib to include %s, got %v", tb, simFiles)
	}

	all, err := cfg.GetAllFiles(root)
	if err != nil {
		t.Fatalf("GetAllFiles: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 files, got %v", all)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1] > all[i] {
			t.Fatalf("expected sorted files, got %v", all)
		}
	}
}

func TestGetFileLibrary(t *testing.T) {
	root := t.TempDir()
	tb := writeFile(t, filepath.Join(root, "sim", "tb_core.vhd"), "-- tb")
	other := writeFile(t, filepath.Join(root, "other.vhd"), "-- other")

	cfg := Config{
		Libraries: map[string]LibraryConfig{
			"sim": {Files: []string{"sim/*.vhd"}},
		},
	}

	if lib := cfg.GetFileLibrary(tb, root); lib != "sim" {
		t.Fatalf("expected library sim, got %q", lib)
	}
	if lib := cfg.GetFileLibrary(other, root); lib != "work" {
		t.Fatalf("expected unclaimed file in work, got %q", lib)
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.vhd", "rtl/core.vhd", true},
		{"sim/*", "sim/tb.vhd", true},
		{"sim/*", "rtl/tb.vhd", false},
		{"**/tb_*.vhd", "a/b/tb_x.vhd", true},
		{"vendor/**", "vendor/ip/fifo.vhd", true},
		{"vendor/**", "rtl/fifo.vhd", false},
		{"rtl/**/gen/*.vhd", "rtl/x/gen/a.vhd", true},
	}
	for _, tt := range tests {
		if got := MatchPattern(tt.pattern, filepath.FromSlash(tt.path)); got != tt.want {
			t.Fatalf("MatchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func findLibFiles(t *testing.T, libs []ResolvedLibrary, name string) []string {
	t.Helper()
	for _, lib := range libs {
		if lib.Name == name {
			return lib.Files
		}
	}
	t.Fatalf("library %s not found", name)
	return nil
}

func containsPath(files []string, target string) bool {
	for _, f := range files {
		if filepath.Clean(f) == filepath.Clean(target) {
			return true
		}
	}
	return false
}
