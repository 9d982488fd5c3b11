package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2/lexer"
)

// vhdlLexer splits a source line at parentheses, colons, semicolons and
// whitespace. Rules are tried in order, so a run starting with "--" is a
// comment while "a--b" stays one word.
var vhdlLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - VHDL style (-- to end of line)
	{Name: "Comment", Pattern: `--[^\n]*`},

	// Punctuation the grammar reacts to
	{Name: "Punct", Pattern: `[():;]`},

	// Whitespace
	{Name: "Whitespace", Pattern: `\s+`},

	// Everything else: identifiers, keywords, literals, operators
	{Name: "Word", Pattern: `[^():;\s]+`},
})

var (
	commentToken    = vhdlLexer.Symbols()["Comment"]
	whitespaceToken = vhdlLexer.Symbols()["Whitespace"]
)

// Token is one lexical unit of a source line.
type Token struct {
	Text   string
	Line   int
	Column int
}

// Is compares the token against a keyword or punctuation, ignoring case.
func (t Token) Is(lit string) bool {
	return strings.EqualFold(t.Text, lit)
}

// IsAny reports whether the token matches one of lits.
func (t Token) IsAny(lits ...string) bool {
	for _, lit := range lits {
		if t.Is(lit) {
			return true
		}
	}
	return false
}

// IsIdentifier reports whether the token is a run of letters, digits and
// underscores.
func (t Token) IsIdentifier() bool {
	if t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsCommentStart reports whether the token opens a line comment.
func (t Token) IsCommentStart() bool {
	return strings.HasPrefix(t.Text, "--")
}

func (t Token) String() string {
	return t.Text
}

// Tokenize splits one source line into tokens. Whitespace is dropped and a
// line comment ends the line.
func Tokenize(line string, lineNumber int) ([]Token, error) {
	lex, err := vhdlLexer.LexString("", line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNumber, err)
	}
	var tokens []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if tok.EOF() || tok.Type == commentToken {
			return tokens, nil
		}
		if tok.Type == whitespaceToken || strings.TrimSpace(tok.Value) == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:   tok.Value,
			Line:   lineNumber,
			Column: tok.Pos.Column,
		})
	}
}
