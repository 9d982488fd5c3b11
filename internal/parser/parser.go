// Package parser reads a VHDL subset and records entities, ports,
// architectures, signals and constants into a design.Design.
//
// The parser is a stack machine. Each token is handled by the state on top of
// the stack, which either replaces itself, pushes nested states, pops, or
// fails. Constructs the model does not describe (generics, subprogram bodies,
// components, architecture statements) are consumed by skip states that keep
// track of nesting but record nothing.
//
// One Parser handles one file. Parsers share nothing but the Design, so a
// batch creates a fresh Parser per file.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lambila-hdl/lambila/internal/design"
	"github.com/lambila-hdl/lambila/internal/logging"
)

// Parser is the per-file parse state.
type Parser struct {
	path   string
	design *design.Design
	log    *slog.Logger
	trace  bool

	stack stack
	line  int
	err   error

	// pending collects use clauses until the next design unit claims them.
	pending []design.Use

	entity    *design.Entity
	arch      *design.Architecture
	archOwner *design.Entity
	archName  string
	archLine  int

	// scratch for the declaration being read
	name      string
	direction string
	typ       string
	parts     []string
	depth     int
}

// New returns a parser for the file at path that records into d.
func New(path string, d *design.Design, log *slog.Logger) *Parser {
	log = logging.OrDiscard(log)
	return &Parser{
		path:   path,
		design: d,
		log:    log,
		trace:  logging.TraceEnabled(log),
		stack:  stack{Base},
	}
}

// ParseFile opens path and parses it into d.
func ParseFile(path string, d *design.Design, log *slog.Logger) error {
	log = logging.OrDiscard(log)
	log.Info(fmt.Sprintf("Parsing %s", path))

	f, err := os.Open(path)
	if err != nil {
		perr := &Error{Kind: ErrIO, File: path, Err: err}
		log.Error(fmt.Sprintf("Failed to open file: %v", err), "file", path)
		return perr
	}
	defer f.Close()

	return New(path, d, log).Parse(f)
}

// ParseString parses src as if it were the file name.
func ParseString(name, src string, d *design.Design, log *slog.Logger) error {
	return New(name, d, log).Parse(strings.NewReader(src))
}

// Parse consumes r line by line and checks that every construct was closed.
func (p *Parser) Parse(r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := p.Feed(line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p.fail(&Error{Kind: ErrIO, File: p.path, Line: p.line, State: p.stack.top(), Err: err})
		}
	}
	return p.Finish()
}

// Feed parses the next source line.
func (p *Parser) Feed(line string) error {
	if p.err != nil {
		return p.err
	}
	p.line++
	tokens, err := Tokenize(line, p.line)
	if err != nil {
		return p.fail(p.errorf(ErrUnexpectedToken, Token{Line: p.line}, "%s", err.Error()))
	}
	for _, tok := range tokens {
		if p.trace {
			logging.Trace(p.log, "token", "line", p.line, "state", p.stack.top().String(), "token", tok.Text)
		}
		if err := p.step(tok); err != nil {
			return p.fail(err)
		}
	}
	return nil
}

// Finish reports whether every construct opened by the input was closed.
func (p *Parser) Finish() error {
	if p.err != nil {
		return p.err
	}
	if !p.stack.atBase() {
		return p.fail(&Error{Kind: ErrUnexpectedEOF, File: p.path, Line: p.line, State: p.stack.top()})
	}
	return nil
}

// Stack returns a copy of the state stack, bottom first.
func (p *Parser) Stack() []State {
	return append([]State(nil), p.stack...)
}

// Line returns the number of lines fed so far.
func (p *Parser) Line() int {
	return p.line
}

// Pending returns the use clauses not yet claimed by a design unit.
func (p *Parser) Pending() []design.Use {
	return append([]design.Use(nil), p.pending...)
}

func (p *Parser) fail(err error) error {
	p.err = err
	p.log.Error(err.Error(), "file", p.path, "line", p.line)
	return err
}

func (p *Parser) unexpected(tok Token) error {
	return &Error{
		Kind:  ErrUnexpectedToken,
		File:  p.path,
		Line:  tok.Line,
		State: p.stack.top(),
		Token: tok.Text,
	}
}

func (p *Parser) errorf(kind error, tok Token, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		File:    p.path,
		Line:    tok.Line,
		State:   p.stack.top(),
		Token:   tok.Text,
		Message: fmt.Sprintf(format, args...),
	}
}

// beginDeclaration resets the scratch fields for a new port, signal or constant.
func (p *Parser) beginDeclaration(name string) {
	p.name = name
	p.direction = ""
	p.typ = ""
	p.parts = p.parts[:0]
	p.depth = 0
}

// appendPart adds a token to the expression being captured. Parts are joined
// with single spaces, which normalizes whitespace and keeps parentheses.
func (p *Parser) appendPart(text string) {
	p.parts = append(p.parts, text)
}

func (p *Parser) joined() string {
	return strings.TrimSpace(strings.Join(p.parts, " "))
}

func (p *Parser) addPort() {
	port := design.Port{Name: p.name, Direction: p.direction, Type: p.joined()}
	if p.entity.AddPort(port) {
		p.log.Warn(fmt.Sprintf("%s: port %s redeclared, keeping the later declaration", p.entity.Name, port.Name),
			"file", p.path, "line", p.line)
	}
	p.log.Debug(fmt.Sprintf("%s add port: %s | %s | %s", p.entity.Name, port.Name, port.Direction, port.Type))
}

func (p *Parser) addSignal() {
	sig := design.Signal{Name: p.name, Type: p.joined()}
	if p.arch.AddSignal(sig) {
		p.log.Warn(fmt.Sprintf("%s: signal %s redeclared, keeping the later declaration", p.arch.Name, sig.Name),
			"file", p.path, "line", p.line)
	}
	p.log.Debug(fmt.Sprintf("%s add signal: %s | %s", p.arch.Name, sig.Name, sig.Type))
}

func (p *Parser) addConstant() {
	c := design.Constant{Name: p.name, Type: p.typ, Value: p.joined()}
	if p.arch.AddConstant(c) {
		p.log.Warn(fmt.Sprintf("%s: constant %s redeclared, keeping the later declaration", p.arch.Name, c.Name),
			"file", p.path, "line", p.line)
	}
	p.log.Debug(fmt.Sprintf("%s add constant: %s | %s | %s", p.arch.Name, c.Name, c.Type, c.Value))
}

// commitEntity stores the finished entity in the design.
func (p *Parser) commitEntity() {
	if p.design.AddEntity(p.entity) {
		p.log.Warn(fmt.Sprintf("entity %s redefined, keeping the later definition", p.entity.Name),
			"file", p.path, "line", p.entity.Line)
	}
	p.log.Debug(fmt.Sprintf("add entity: %s", p.entity.Name))
	p.entity = nil
}

// commitArchitecture attaches the finished architecture to its entity.
func (p *Parser) commitArchitecture() {
	if p.archOwner.AddArchitecture(p.arch) {
		p.log.Warn(fmt.Sprintf("%s: architecture %s redefined, keeping the later definition", p.archOwner.Name, p.arch.Name),
			"file", p.path, "line", p.arch.Line)
	}
	p.log.Debug(fmt.Sprintf("%s add architecture: %s", p.archOwner.Name, p.arch.Name))
	p.arch = nil
	p.archOwner = nil
}

// splitUse splits "ieee.std_logic_1164.all" into library and selector.
func splitUse(text string) (string, string, bool) {
	i := strings.IndexByte(text, '.')
	if i <= 0 || i == len(text)-1 {
		return "", "", false
	}
	if !(Token{Text: text[:i]}).IsIdentifier() {
		return "", "", false
	}
	return text[:i], text[i+1:], true
}
