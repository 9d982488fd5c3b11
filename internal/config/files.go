package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolvedLibrary contains the expanded file list for a library
type ResolvedLibrary struct {
	Name  string
	Files []string
}

// IsVHDLFile reports whether path has a VHDL source extension.
func IsVHDLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".vhd" || ext == ".vhdl"
}

// ResolveLibraries expands all glob patterns and returns resolved file
// lists, libraries sorted by name and files sorted by path.
func (c *Config) ResolveLibraries(rootPath string) ([]ResolvedLibrary, error) {
	names := make([]string, 0, len(c.Libraries))
	for name := range c.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)

	var result []ResolvedLibrary
	for _, libName := range names {
		libCfg := c.Libraries[libName]
		resolved := ResolvedLibrary{Name: libName}

		fileSet := make(map[string]bool)
		for _, pattern := range libCfg.Files {
			matches, err := expandGlob(absPattern(rootPath, pattern))
			if err != nil {
				// invalid patterns are skipped
				continue
			}
			for _, match := range matches {
				if IsVHDLFile(match) {
					fileSet[filepath.Clean(match)] = true
				}
			}
		}

		for _, pattern := range libCfg.Exclude {
			matches, err := expandGlob(absPattern(rootPath, pattern))
			if err != nil {
				continue
			}
			for _, match := range matches {
				delete(fileSet, filepath.Clean(match))
			}
		}

		for f := range fileSet {
			resolved.Files = append(resolved.Files, f)
		}
		sort.Strings(resolved.Files)

		result = append(result, resolved)
	}

	return result, nil
}

func absPattern(rootPath, pattern string) string {
	if filepath.IsAbs(pattern) {
		return pattern
	}
	return filepath.Join(rootPath, pattern)
}

// expandGlob expands a glob pattern, handling ** for recursive matching
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// expandDoubleStarGlob handles ** patterns by walking the directory tree
func expandDoubleStarGlob(pattern string) ([]string, error) {
	var results []string

	parts := strings.SplitN(pattern, "**", 2)
	baseDir := filepath.Clean(parts[0])
	if baseDir == "" {
		baseDir = "."
	}
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}
		if d.IsDir() {
			return nil
		}
		if suffix == "" {
			results = append(results, path)
			return nil
		}
		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if matchSuffix(relPath, suffix) {
			results = append(results, path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return results, err
}

// matchSuffix checks if a path matches a suffix pattern (after **)
func matchSuffix(path, pattern string) bool {
	pattern = strings.TrimPrefix(pattern, string(filepath.Separator))

	// no directory component: match the file name
	if !strings.Contains(pattern, string(filepath.Separator)) {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}

	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}

	// any trailing run of path elements may match
	elems := strings.Split(path, string(filepath.Separator))
	for i := 1; i < len(elems); i++ {
		if matched, _ := filepath.Match(pattern, filepath.Join(elems[i:]...)); matched {
			return true
		}
	}
	return false
}

// MatchPattern reports whether path matches a configuration glob. Patterns
// may use "**"; a pattern without a directory also matches the base name.
func MatchPattern(pattern, path string) bool {
	pattern = filepath.FromSlash(pattern)
	path = filepath.Clean(path)
	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := filepath.Clean(parts[0])
		rest := path
		if parts[0] != "" {
			if !strings.HasPrefix(path, prefix+string(filepath.Separator)) {
				return false
			}
			rest = strings.TrimPrefix(path, prefix+string(filepath.Separator))
		}
		suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))
		return suffix == "" || matchSuffix(rest, suffix)
	}
	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, filepath.Base(path))
	return matched
}

// GetAllFiles returns all VHDL files from all libraries (flattened, sorted)
func (c *Config) GetAllFiles(rootPath string) ([]string, error) {
	libs, err := c.ResolveLibraries(rootPath)
	if err != nil {
		return nil, err
	}

	fileSet := make(map[string]bool)
	for _, lib := range libs {
		for _, f := range lib.Files {
			fileSet[f] = true
		}
	}

	result := make([]string, 0, len(fileSet))
	for f := range fileSet {
		result = append(result, f)
	}
	sort.Strings(result)

	return result, nil
}

// FileLibraries maps every resolved file to its library name. A file claimed
// by several libraries belongs to the first one by name.
func (c *Config) FileLibraries(rootPath string) map[string]string {
	out := make(map[string]string)
	libs, err := c.ResolveLibraries(rootPath)
	if err != nil {
		return out
	}
	for _, lib := range libs {
		for _, f := range lib.Files {
			abs, _ := filepath.Abs(f)
			if _, ok := out[abs]; !ok {
				out[abs] = lib.Name
			}
		}
	}
	return out
}

// GetFileLibrary returns the library name for a file, "work" when no
// library claims it.
func (c *Config) GetFileLibrary(filePath string, rootPath string) string {
	absPath, _ := filepath.Abs(filePath)
	if lib, ok := c.FileLibraries(rootPath)[absPath]; ok {
		return lib
	}
	return "work"
}
