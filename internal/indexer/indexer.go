// Package indexer runs one refresh batch: it parses a list of VHDL files in
// order into a fresh design, then turns the result into a validated snapshot,
// diffs it against the previous refresh and optionally lints it.
//
// Files are parsed strictly sequentially because an architecture may only
// bind to an entity parsed before it. The batch stops at the first file that
// fails; the design keeps everything parsed up to that point.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lambila-hdl/lambila/internal/config"
	"github.com/lambila-hdl/lambila/internal/design"
	"github.com/lambila-hdl/lambila/internal/facts"
	"github.com/lambila-hdl/lambila/internal/fsutil"
	"github.com/lambila-hdl/lambila/internal/logging"
	"github.com/lambila-hdl/lambila/internal/parser"
	"github.com/lambila-hdl/lambila/internal/policy"
	"github.com/lambila-hdl/lambila/internal/validator"
)

// Indexer runs refresh batches. The zero value works: it uses the default
// configuration, logs to the logger carried by the context (or nowhere) and
// resolves paths against the working directory.
type Indexer struct {
	Config *config.Config
	Log    *slog.Logger

	// Root is the project directory. Library globs, the cache directory and
	// relative timing paths resolve against it.
	Root string

	// Progress is called after every successfully parsed file with the
	// number of files done so far and the batch size.
	Progress func(done, total int)

	// Timing writes JSONL timing events to TimingPath (timing.jsonl under
	// Root when empty).
	Timing     bool
	TimingPath string
}

// New creates an indexer for the project at root.
func New(cfg *config.Config, root string, log *slog.Logger) *Indexer {
	return &Indexer{Config: cfg, Root: root, Log: log}
}

// Result is the outcome of one batch.
type Result struct {
	// Design holds every unit parsed before the first failure.
	Design *design.Design

	// Parsed counts files parsed successfully; Total is the batch size.
	Parsed int
	Total  int

	// Failed is the file that stopped the batch and Err its diagnostic.
	Failed string
	Err    error

	Tables facts.Tables
	Delta  facts.Delta

	// Changed lists files whose content differs from the previous refresh.
	Changed []string

	// Lint is nil when the policy did not run.
	Lint *policy.Result

	Duration time.Duration
}

// OK reports whether every file parsed.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Violations returns the lint violations, if the policy ran.
func (r *Result) Violations() []policy.Violation {
	if r.Lint == nil {
		return nil
	}
	return r.Lint.Violations
}

// Run parses files in order and builds the snapshot. A parse failure is
// reported both in Result.Err and as the returned error; the result is
// still returned so callers can show the partial design. ctx is checked
// between files only.
func (idx *Indexer) Run(ctx context.Context, files []string) (*Result, error) {
	runStart := time.Now()
	cfg := idx.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := idx.Log
	if log == nil {
		log = logging.FromContext(ctx)
	}
	root := idx.Root
	if root == "" {
		root = "."
	}

	timing := newTimingRecorder(runStart, idx.resolveTimingPath())
	if err := timing.Err(); err != nil {
		log.Warn("Timing output disabled", "error", err)
	}
	defer timing.Close()

	res := &Result{Design: design.New(), Total: len(files)}
	log.Info(fmt.Sprintf("Refreshing %d files", len(files)))

	// 1. Parse, strictly in order
	stepStart := time.Now()
	status := make([]string, len(files))
	hashes := make(map[string]string, len(files))
	for i, f := range files {
		if res.Err != nil {
			status[i] = facts.StatusSkipped
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			status[i] = facts.StatusSkipped
			continue
		}

		fileStart := time.Now()
		if err := parser.ParseFile(f, res.Design, log); err != nil {
			res.Err = err
			res.Failed = f
			status[i] = facts.StatusFailed
			timing.RecordFile("parse", f, facts.StatusFailed, fileStart)
			continue
		}
		status[i] = facts.StatusParsed
		res.Parsed++
		timing.RecordFile("parse", f, facts.StatusParsed, fileStart)

		if h, err := fsutil.HashFile(f); err == nil {
			hashes[f] = h
		}
		if idx.Progress != nil {
			idx.Progress(res.Parsed, res.Total)
		}
	}
	timing.RecordStage("parse", stepStart, batchStatus(res))

	if res.Err != nil && res.Failed == "" {
		log.Warn("Refresh cancelled", "parsed", res.Parsed, "total", res.Total, "error", res.Err)
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("Discovered entities", "count", res.Design.Len(), "names", strings.Join(res.Design.Names(), ", "))
	}

	// 2. Snapshot tables
	stepStart = time.Now()
	libs := cfg.FileLibraries(root)
	rows := make([]facts.FileRow, len(files))
	for i, f := range files {
		lib := design.WorkLibrary
		if abs, err := filepath.Abs(f); err == nil {
			if name, ok := libs[abs]; ok {
				lib = name
			}
		}
		rows[i] = facts.FileRow{Path: f, Library: lib, Status: status[i]}
	}
	res.Tables = facts.BuildTables(res.Design, rows)
	timing.RecordStage("tables", stepStart, "")

	// 3. Contract check
	stepStart = time.Now()
	v, err := validator.NewFactsValidator()
	if err != nil {
		return res, fmt.Errorf("loading facts schema: %w", err)
	}
	if err := v.Validate(res.Tables); err != nil {
		timing.RecordStage("validate", stepStart, "failed")
		return res, fmt.Errorf("validating snapshot: %w", err)
	}
	timing.RecordStage("validate", stepStart, "")

	if res.Err != nil {
		res.Duration = time.Since(runStart)
		timing.RecordStage("total", runStart, batchStatus(res))
		return res, res.Err
	}

	// 4. Delta against the previous refresh
	if cfg.CacheEnabled() {
		stepStart = time.Now()
		idx.diffSnapshot(res, cfg.CacheDir(root), hashes, log)
		timing.RecordStage("delta", stepStart, "")
	}

	// 5. Lint
	if cfg.PolicyEnabled() {
		stepStart = time.Now()
		lint, err := idx.lint(ctx, cfg, root, res.Tables)
		if err != nil {
			timing.RecordStage("policy", stepStart, "failed")
			return res, err
		}
		res.Lint = lint
		timing.RecordStage("policy", stepStart, "")
		log.Info(fmt.Sprintf("Lint: %d errors, %d warnings, %d info",
			lint.Summary.Errors, lint.Summary.Warnings, lint.Summary.Info))
	}

	res.Duration = time.Since(runStart)
	timing.RecordStage("total", runStart, batchStatus(res))
	log.Info(fmt.Sprintf("Parsed %d/%d files in %s", res.Parsed, res.Total, formatDuration(res.Duration)))
	return res, nil
}

func (idx *Indexer) diffSnapshot(res *Result, dir string, hashes map[string]string, log *slog.Logger) {
	cache := newSnapshotCache(dir)
	if err := cache.Load(); err != nil {
		log.Warn("Snapshot cache disabled", "error", err)
		return
	}
	prev, ok := cache.Previous()
	if !ok {
		prev = facts.BuildTables(design.New(), nil)
	}
	res.Delta = facts.ComputeDelta(prev, res.Tables)
	res.Changed = cache.ChangedFiles(hashes)

	if !res.Delta.Empty() {
		added, removed := res.Delta.Added.Counts(), res.Delta.Removed.Counts()
		log.Debug("Snapshot delta",
			"entities_added", added["entities"], "entities_removed", removed["entities"],
			"ports_added", added["ports"], "ports_removed", removed["ports"])
	}
	if log.Enabled(context.Background(), slog.LevelDebug) {
		logImpact(log, res.Tables, impactRoots(res))
	}

	if err := cache.Save(hashes, res.Tables); err != nil {
		log.Warn("Snapshot cache not saved", "error", err)
	}
}

// impactRoots merges files edited on disk with files whose rows changed.
func impactRoots(res *Result) []string {
	set := res.Delta.ChangedFiles()
	for _, f := range res.Changed {
		set[f] = true
	}
	roots := make([]string, 0, len(set))
	for f := range set {
		roots = append(roots, f)
	}
	sort.Strings(roots)
	return roots
}

func logImpact(log *slog.Logger, tables facts.Tables, roots []string) {
	if len(roots) == 0 {
		return
	}
	graph := buildDependentsGraph(tables)
	var b strings.Builder
	for _, root := range roots {
		b.WriteString(formatImpactReport(computeImpact(root, graph)))
	}
	log.Debug("Impact of changed files\n" + strings.TrimRight(b.String(), "\n"))
}

func (idx *Indexer) lint(ctx context.Context, cfg *config.Config, root string, tables facts.Tables) (*policy.Result, error) {
	dir := cfg.Lint.PolicyDir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	engine, err := policy.New(ctx, policy.Options{
		Dir:        dir,
		Severities: cfg.Lint.Rules,
		Ignore:     cfg.ShouldIgnoreFile,
	})
	if err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	result, err := engine.Evaluate(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation: %w", err)
	}
	return result, nil
}

func batchStatus(res *Result) string {
	switch {
	case res.Err == nil:
		return "ok"
	case res.Failed != "":
		return facts.StatusFailed
	default:
		return "cancelled"
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.2fm", d.Minutes())
	default:
		return fmt.Sprintf("%.2fh", d.Hours())
	}
}
