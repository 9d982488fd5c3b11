// Package project holds a lambila project: the ordered list of VHDL source
// files recorded in a .lila manifest, the configuration that applies to them
// and the design produced by the last refresh.
package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lambila-hdl/lambila/internal/config"
	"github.com/lambila-hdl/lambila/internal/design"
	"github.com/lambila-hdl/lambila/internal/fsutil"
	"github.com/lambila-hdl/lambila/internal/indexer"
	"github.com/lambila-hdl/lambila/internal/logging"
	"github.com/lambila-hdl/lambila/internal/validator"
)

// Version is written to every manifest. Opening a manifest with another
// version only logs a warning.
const Version = "1.0"

// Extension is appended by SaveAs when the target has none.
const Extension = ".lila"

// Manifest is the on-disk project file.
type Manifest struct {
	Version  string   `json:"_lambilaVersion"`
	FileList []string `json:"fileList"`
}

// Project is safe for concurrent use. Files may change while a refresh runs;
// the running batch keeps the list it started with.
type Project struct {
	// Config applies to refreshes. Open loads it from the manifest
	// directory; New starts from the defaults.
	Config *config.Config

	log *slog.Logger

	mu       sync.Mutex
	path     string
	files    []string
	modified bool
	design   *design.Design
	last     *indexer.Result
	batch    *Batch
}

// New creates an empty, unsaved project.
func New(log *slog.Logger) *Project {
	return &Project{
		Config: config.DefaultConfig(),
		log:    logging.OrDiscard(log),
		design: design.New(),
	}
}

// Open loads a manifest. Listed files that no longer exist are dropped with
// a warning; the project is not marked modified by that.
func Open(path string, log *slog.Logger) (*Project, error) {
	p := New(log)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("opening project: %w", err)
	}

	v, err := validator.NewManifestValidator()
	if err != nil {
		return nil, err
	}
	if err := v.ValidateJSON(data); err != nil {
		return nil, fmt.Errorf("opening project %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", path, err)
	}

	if m.Version != Version {
		p.log.Warn(fmt.Sprintf("%s was created by a different lambila version", path),
			"current", Version, "file", m.Version)
	}

	dir := filepath.Dir(abs)
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	p.Config = cfg

	p.path = abs
	for _, rel := range m.FileList {
		f := filepath.FromSlash(rel)
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		if !p.AddFile(f) {
			p.log.Warn("Project file not found", "file", f)
		}
	}
	p.modified = false
	return p, nil
}

// Path returns the manifest path, or "" for an unsaved project.
func (p *Project) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// Dir is the directory relative paths resolve against: the manifest
// directory, or the working directory for an unsaved project.
func (p *Project) Dir() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir()
}

func (p *Project) dir() string {
	if p.path != "" {
		return filepath.Dir(p.path)
	}
	cwd, _ := os.Getwd()
	return cwd
}

// Modified reports unsaved changes to the file list.
func (p *Project) Modified() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modified
}

// Files returns the absolute source paths in parse order.
func (p *Project) Files() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.files...)
}

// AddFile appends an existing file to the list. It returns false when the
// file does not exist or is already listed.
func (p *Project) AddFile(path string) bool {
	f := canonical(path)
	info, err := os.Stat(f)
	if err != nil || info.IsDir() {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.files {
		if existing == f {
			return false
		}
	}
	p.files = append(p.files, f)
	p.modified = true
	p.log.Debug("File added", "file", f)
	return true
}

// RemoveFile drops a file from the list. It returns false when the file is
// not listed.
func (p *Project) RemoveFile(path string) bool {
	f := canonical(path)

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.files {
		if existing == f {
			p.files = append(p.files[:i], p.files[i+1:]...)
			p.modified = true
			p.log.Debug("File removed", "file", f)
			return true
		}
	}
	return false
}

// SaveAs writes the manifest to path, appending .lila when path has no
// extension, and makes it the project path.
func (p *Project) SaveAs(path string) error {
	if filepath.Ext(path) == "" {
		path += Extension
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m := Manifest{Version: Version, FileList: make([]string, 0, len(p.files))}
	dir := filepath.Dir(abs)
	for _, f := range p.files {
		rel, err := filepath.Rel(dir, f)
		if err != nil {
			rel = f
		}
		m.FileList = append(m.FileList, filepath.ToSlash(rel))
	}

	v, err := validator.NewManifestValidator()
	if err != nil {
		return err
	}
	if err := v.Validate(m); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	if err := fsutil.WriteJSONAtomic(abs, m); err != nil {
		return fmt.Errorf("saving project %s: %w", abs, err)
	}

	p.path = abs
	p.modified = false
	p.log.Info("Project saved", "path", abs, "files", len(m.FileList))
	return nil
}

// Save writes the manifest to its current path.
func (p *Project) Save() error {
	path := p.Path()
	if path == "" {
		return ErrNoPath
	}
	return p.SaveAs(path)
}

// Design returns the design of the last completed refresh. It is empty
// before the first refresh and never partially built.
func (p *Project) Design() *design.Design {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.design
}

// LastResult returns the last completed refresh, or nil.
func (p *Project) LastResult() *indexer.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// canonical resolves path to an absolute, symlink-free form. Files that do
// not exist keep their cleaned absolute path.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
