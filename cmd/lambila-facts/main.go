// Command lambila-facts dumps the relational snapshot of a design as JSON,
// optionally with the delta against an earlier dump.
//
// The source is either a .lila project (files parsed in manifest order) or a
// directory (files from the configured libraries, parsed in path order).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lambila-hdl/lambila/internal/config"
	"github.com/lambila-hdl/lambila/internal/facts"
	"github.com/lambila-hdl/lambila/internal/fsutil"
	"github.com/lambila-hdl/lambila/internal/indexer"
	"github.com/lambila-hdl/lambila/internal/logging"
	"github.com/lambila-hdl/lambila/internal/project"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const usage = "Usage: lambila-facts [-o file] [-only a.vhd,b.vhd] [-delta-from prev.json -delta-out delta.json] <project.lila | dir>"

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lambila-facts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("output", "", "write facts JSON to file (default: stdout)")
	fs.StringVar(output, "o", "", "write facts JSON to file (shorthand)")
	only := fs.String("only", "", "comma-separated files to keep rows for")
	deltaFrom := fs.String("delta-from", "", "previous facts JSON to compute delta from")
	deltaOut := fs.String("delta-out", "", "write delta JSON to file (requires --delta-from)")
	verbosity := fs.String("v", "error", "verbosity")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	if (*deltaFrom == "") != (*deltaOut == "") {
		fmt.Fprintln(stderr, "Error: --delta-from and --delta-out must be used together")
		return 2
	}
	level, err := logging.ParseLevel(*verbosity)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	log := logging.New(stderr, level)

	idx, files, err := load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	idx.Log = log

	res, runErr := idx.Run(context.Background(), files)
	if res == nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return 1
	}

	tables := res.Tables
	var keep map[string]bool
	if *only != "" {
		keep = make(map[string]bool)
		for _, f := range strings.Split(*only, ",") {
			if abs, err := filepath.Abs(strings.TrimSpace(f)); err == nil {
				keep[abs] = true
			}
		}
		tables = facts.FilterTablesByFiles(tables, keep)
	}

	if *output != "" {
		if err := fsutil.WriteJSONAtomic(*output, tables); err != nil {
			fmt.Fprintf(stderr, "Error writing facts: %v\n", err)
			return 1
		}
	} else {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			fmt.Fprintf(stderr, "Error encoding facts: %v\n", err)
			return 1
		}
	}

	if *deltaFrom != "" {
		prev, err := readTables(*deltaFrom)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading delta-from: %v\n", err)
			return 1
		}
		delta := facts.ComputeDelta(prev, tables)
		if keep != nil {
			delta = facts.FilterDeltaByFiles(delta, keep)
		}
		if err := fsutil.WriteJSONAtomic(*deltaOut, delta); err != nil {
			fmt.Fprintf(stderr, "Error writing delta: %v\n", err)
			return 1
		}
	}

	if runErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}

// load builds the indexer and file list for a project file or a directory.
func load(path string) (*indexer.Indexer, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}

	if !info.IsDir() {
		p, err := project.Open(path, nil)
		if err != nil {
			return nil, nil, err
		}
		return indexer.New(p.Config, p.Dir(), nil), p.Files(), nil
	}

	if path, err = filepath.Abs(path); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	files, err := cfg.GetAllFiles(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving libraries: %w", err)
	}
	return indexer.New(cfg, path, nil), files, nil
}

func readTables(path string) (facts.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return facts.Tables{}, err
	}
	defer func() { _ = f.Close() }()

	var tables facts.Tables
	if err := json.NewDecoder(f).Decode(&tables); err != nil {
		return facts.Tables{}, err
	}
	return tables, nil
}
