// Command lambila manages a VHDL project file and parses the sources it
// lists into a design model.
//
// A project is a .lila manifest naming source files in parse order. Files
// are parsed one after another; an architecture can only bind to an entity
// from the same or an earlier file, and the first file that fails stops the
// refresh.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/lambila-hdl/lambila/internal/config"
	"github.com/lambila-hdl/lambila/internal/design"
	"github.com/lambila-hdl/lambila/internal/fsutil"
	"github.com/lambila-hdl/lambila/internal/indexer"
	"github.com/lambila-hdl/lambila/internal/logging"
	"github.com/lambila-hdl/lambila/internal/project"
)

const defaultProject = "lambila" + project.Extension

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitNoFiles = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: lambila [options] <command> [arguments]

Commands:
  init [-config]        Create an empty project (and a lambila.json config)
  add <path>...         Add VHDL files; directories are searched recursively
  remove <path>...      Remove files from the project
  files                 List project files in parse order
  refresh [-json]       Parse all project files and list the entities found
  lint [-json]          Parse all project files and run the lint rules

Options:
  -p <file>             Project file (default: lambila.lila)
  -v <level>            Verbosity: error, warning, info, debug or trace
                        (default: the configured verbosity)
  -h, --help            Show this help message

Configuration:
  lambila looks for configuration in:
    1. ./lambila.json, ./.lambila.json, ./lambila.hcl, ./.lambila.hcl
    2. the same names next to the project file
    3. ~/.config/lambila/config.json or config.hcl

  Run 'lambila init -config' to create a default configuration file.`)
}

type cli struct {
	ctx         context.Context
	stdout      io.Writer
	stderr      io.Writer
	projectPath string
	level       *slog.LevelVar
	levelSet    bool
	log         *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lambila", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	projectPath := fs.String("p", defaultProject, "project file")
	verbosity := fs.String("v", "", "verbosity")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		printUsage(stderr)
		return exitUsage
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return exitUsage
	}

	c := &cli{
		ctx:         ctx,
		stdout:      stdout,
		stderr:      stderr,
		projectPath: *projectPath,
		level:       new(slog.LevelVar),
	}
	if *verbosity != "" {
		level, err := logging.ParseLevel(*verbosity)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		c.level.Set(level)
		c.levelSet = true
	}
	c.log = logging.New(stderr, c.level)
	c.ctx = logging.WithLogger(ctx, c.log)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "init":
		return c.runInit(rest)
	case "add":
		return c.runAdd(rest)
	case "remove", "rm":
		return c.runRemove(rest)
	case "files":
		return c.runFiles()
	case "refresh":
		return c.runRefresh(rest, false)
	case "lint":
		return c.runRefresh(rest, true)
	case "help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", cmd)
		printUsage(stderr)
		return exitUsage
	}
}

// open loads the project and applies the configured verbosity unless -v
// was given.
func (c *cli) open() (*project.Project, error) {
	p, err := project.Open(c.projectPath, c.log)
	if err != nil {
		return nil, err
	}
	if !c.levelSet {
		if level, err := p.Config.Level(); err == nil {
			c.level.Set(level)
		}
	}
	return p, nil
}

func (c *cli) runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	withConfig := fs.Bool("config", false, "also write a default lambila.json")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if _, err := os.Stat(c.projectPath); err == nil {
		fmt.Fprintf(c.stderr, "Error: project %s already exists\n", c.projectPath)
		return exitFailed
	}
	p := project.New(c.log)
	if err := p.SaveAs(c.projectPath); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}
	fmt.Fprintf(c.stdout, "Created %s\n", p.Path())

	if *withConfig {
		configPath := filepath.Join(filepath.Dir(p.Path()), "lambila.json")
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(c.stderr, "Config file %s already exists, leaving it alone\n", configPath)
			return exitOK
		}
		if err := config.DefaultConfig().Save(configPath); err != nil {
			fmt.Fprintf(c.stderr, "Error creating config: %v\n", err)
			return exitFailed
		}
		fmt.Fprintf(c.stdout, "Created %s\n", configPath)
		fmt.Fprintln(c.stdout, "\nEdit this file to configure:")
		fmt.Fprintln(c.stdout, "  - Library file patterns")
		fmt.Fprintln(c.stdout, "  - Lint rule severities")
		fmt.Fprintln(c.stdout, "  - Snapshot cache and timing output")
	}
	return exitOK
}

func (c *cli) runAdd(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "Usage: lambila add <path>...")
		return exitUsage
	}
	p, err := c.open()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}

	added := 0
	for _, arg := range args {
		files, err := expandPath(arg)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return exitFailed
		}
		for _, f := range files {
			if p.AddFile(f) {
				added++
				fmt.Fprintf(c.stdout, "added %s\n", f)
			} else {
				c.log.Warn("File not added (missing or already listed)", "file", f)
			}
		}
	}

	if p.Modified() {
		if err := p.Save(); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return exitFailed
		}
	}
	if added == 0 {
		return exitNoFiles
	}
	return exitOK
}

// expandPath returns path itself, or every VHDL file below it when it is a
// directory.
func expandPath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".vhd", ".vhdl")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return files, nil
}

func (c *cli) runRemove(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "Usage: lambila remove <path>...")
		return exitUsage
	}
	p, err := c.open()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}

	removed := 0
	for _, f := range args {
		if p.RemoveFile(f) {
			removed++
			fmt.Fprintf(c.stdout, "removed %s\n", f)
		} else {
			c.log.Warn("File not in project", "file", f)
		}
	}
	if p.Modified() {
		if err := p.Save(); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return exitFailed
		}
	}
	if removed == 0 {
		return exitNoFiles
	}
	return exitOK
}

func (c *cli) runFiles() int {
	p, err := c.open()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}
	for _, f := range p.Files() {
		fmt.Fprintln(c.stdout, relTo(p.Dir(), f))
	}
	return exitOK
}

func (c *cli) runRefresh(args []string, lint bool) int {
	name := "refresh"
	if lint {
		name = "lint"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	jsonOutput := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	p, err := c.open()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}
	if lint {
		on := true
		p.Config.Analysis.Policy = &on
	}

	files := p.Files()
	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "No files in project. Use 'lambila add <path>' first.")
		return exitNoFiles
	}

	batch, err := p.Refresh(c.ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}
	for done := range batch.Progress() {
		c.log.Info(fmt.Sprintf("[%d/%d] %s", done, batch.Total(), relTo(p.Dir(), files[done-1])))
	}
	res, err := batch.Wait()
	if res == nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}

	if *jsonOutput {
		var out any = res.Tables
		if lint {
			out = res.Lint
		}
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(c.stderr, "Error encoding results: %v\n", err)
			return exitFailed
		}
	} else if lint {
		printViolations(c.stdout, res, p.Dir())
	} else {
		printEntities(c.stdout, res.Design, p.Dir())
	}

	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailed
	}
	if lint && res.Lint != nil && res.Lint.HasErrors() {
		return exitFailed
	}
	return exitOK
}

func printEntities(w io.Writer, d *design.Design, dir string) {
	for _, e := range d.Entities() {
		fmt.Fprintf(w, "%s (%s:%d)\n", e.Name, relTo(dir, e.File), e.Line)
		for _, port := range e.Ports() {
			fmt.Fprintf(w, "  port %s : %s %s\n", port.Name, port.Direction, port.Type)
		}
		for _, u := range e.Uses() {
			fmt.Fprintf(w, "  use %s\n", u)
		}
		for _, a := range e.Architectures() {
			fmt.Fprintf(w, "  architecture %s (%d signals, %d constants)\n",
				a.Name, len(a.Signals()), len(a.Constants()))
		}
	}
	fmt.Fprintf(w, "%d entities\n", d.Len())
}

func printViolations(w io.Writer, res *indexer.Result, dir string) {
	if res.Lint == nil {
		return
	}
	for _, v := range res.Lint.Violations {
		v.File = relTo(dir, v.File)
		fmt.Fprintln(w, v.String())
	}
	s := res.Lint.Summary
	fmt.Fprintf(w, "%d violations (%d errors, %d warnings, %d info)\n",
		s.TotalViolations, s.Errors, s.Warnings, s.Info)
}

func relTo(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
