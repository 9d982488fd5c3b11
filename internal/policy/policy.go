// Package policy evaluates Rego lint rules against design snapshots.
package policy

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/lambila-hdl/lambila/internal/facts"
)

//go:embed policies/*.rego
var builtinFS embed.FS

// Query is the Rego set every lint rule contributes to.
const Query = "data.lambila.lint.violations"

// Severity levels, most severe first.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
	SeverityOff     = "off"
)

// Engine evaluates OPA policies against fact tables
type Engine struct {
	query      rego.PreparedEvalQuery
	severities map[string]string
	ignore     func(file string) bool
}

// Options tunes an Engine.
type Options struct {
	// Dir holds extra .rego modules; empty for built-in rules only.
	Dir string
	// Severities overrides rule severities; SeverityOff disables a rule.
	Severities map[string]string
	// Ignore drops violations reported against matching files.
	Ignore func(file string) bool
}

// Violation represents a policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s [%s]", v.File, v.Line, v.Severity, v.Message, v.Rule)
	}
	return fmt.Sprintf("%s: %s: %s [%s]", v.File, v.Severity, v.Message, v.Rule)
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// HasErrors reports whether any violation has error severity.
func (r *Result) HasErrors() bool {
	return r.Summary.Errors > 0
}

// New creates a policy engine from the built-in rules plus any modules in
// opts.Dir.
func New(ctx context.Context, opts Options) (*Engine, error) {
	builtins, err := builtinFS.ReadDir("policies")
	if err != nil {
		return nil, fmt.Errorf("reading built-in policies: %w", err)
	}

	var modules []func(*rego.Rego)
	for _, entry := range builtins {
		name := "policies/" + entry.Name()
		content, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		modules = append(modules, rego.Module(name, string(content)))
	}

	if opts.Dir != "" {
		files, err := filepath.Glob(filepath.Join(opts.Dir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no policy files found in %s", opts.Dir)
		}
		sort.Strings(files)
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	query, err := rego.New(append(modules, rego.Query(Query))...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing violations query: %w", err)
	}

	return &Engine{
		query:      query,
		severities: opts.Severities,
		ignore:     opts.Ignore,
	}, nil
}

// Evaluate runs the policies against a snapshot. Violations come back sorted
// by file, line and rule.
func (e *Engine) Evaluate(ctx context.Context, tables facts.Tables) (*Result, error) {
	inputMap, err := structToMap(tables)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	result := &Result{Violations: []Violation{}}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		raw, _ := rs[0].Expressions[0].Value.([]interface{})
		for _, item := range raw {
			vmap, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			v := Violation{
				Rule:     getString(vmap, "rule"),
				Severity: getString(vmap, "severity"),
				File:     getString(vmap, "file"),
				Line:     getInt(vmap, "line"),
				Message:  getString(vmap, "message"),
			}
			if sev, ok := e.severities[v.Rule]; ok {
				v.Severity = sev
			}
			if v.Severity == SeverityOff {
				continue
			}
			if e.ignore != nil && e.ignore(v.File) {
				continue
			}
			result.Violations = append(result.Violations, v)
		}
	}

	sort.Slice(result.Violations, func(i, j int) bool {
		a, b := result.Violations[i], result.Violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})

	for _, v := range result.Violations {
		result.Summary.TotalViolations++
		switch v.Severity {
		case SeverityError:
			result.Summary.Errors++
		case SeverityWarning:
			result.Summary.Warnings++
		default:
			result.Summary.Info++
		}
	}

	return result, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
