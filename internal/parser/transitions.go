package parser

import (
	"fmt"
	"strings"

	"github.com/lambila-hdl/lambila/internal/design"
)

// step applies one token to the state on top of the stack.
func (p *Parser) step(tok Token) error {
	top := p.stack.top()

	if lit, ok := top.Expected(); ok {
		if !tok.Is(lit) {
			return p.unexpected(tok)
		}
		p.stack.pop()
		return nil
	}

	switch top {
	case Base:
		return p.base(tok)
	case Library:
		if tok.Is(";") {
			return p.unexpected(tok)
		}
		p.stack.replace(SkipToSemicolon)
	case Use:
		lib, sel, ok := splitUse(tok.Text)
		if !ok {
			return p.unexpected(tok)
		}
		p.pending = append(p.pending, design.Use{Library: lib, Selector: sel})
		p.stack.replace(ExpectSemicolon)

	case Entity, EntityBody, EntityGeneric, EntityPort, EntityPortDirection,
		EntityPortType, EntityPortDefault, EntityEnd:
		return p.entityStep(top, tok)

	case Architecture, ArchitectureEntity, ArchitectureHeader, ArchitectureEnd, SubprogramHeader:
		return p.architectureStep(top, tok)

	case ArchitectureSignal, ArchitectureSignalType, ArchitectureSignalDefault,
		ArchitectureConstant, ArchitectureConstantType, ArchitectureConstantAssign,
		ArchitectureConstantValue:
		return p.declarationStep(top, tok)

	default:
		return p.skip(top, tok)
	}
	return nil
}

func (p *Parser) base(tok Token) error {
	switch {
	case tok.Is("library"):
		p.stack.push(Library)
	case tok.Is("use"):
		p.stack.push(Use)
	case tok.Is("entity"):
		p.stack.push(Entity)
	case tok.Is("architecture"):
		p.stack.push(Architecture)
	default:
		return p.unexpected(tok)
	}
	return nil
}

func (p *Parser) entityStep(top State, tok Token) error {
	switch top {
	case Entity:
		if !tok.IsIdentifier() {
			return p.unexpected(tok)
		}
		p.entity = design.NewEntity(design.QualifiedName(tok.Text), p.pending)
		p.entity.File = p.path
		p.entity.Line = tok.Line
		p.pending = nil
		p.stack.replace(EntityBody)
		p.stack.push(ExpectIs)

	case EntityBody:
		switch {
		case tok.Is("generic"):
			p.stack.push(EntityGeneric)
		case tok.Is("port"):
			p.stack.push(ExpectSemicolon, EntityPort, ExpectOpeningParenthesis)
		case tok.Is("end"):
			p.stack.replace(EntityEnd)
		default:
			return p.unexpected(tok)
		}

	case EntityGeneric:
		if !tok.Is("(") {
			return p.unexpected(tok)
		}
		p.stack.replace(ExpectSemicolon)
		p.stack.push(SkipToClosingParenthesis)

	case EntityPort:
		if !tok.IsIdentifier() {
			return p.unexpected(tok)
		}
		p.beginDeclaration(tok.Text)
		p.stack.push(EntityPortDirection, ExpectColon)

	case EntityPortDirection:
		if !tok.IsIdentifier() {
			return p.unexpected(tok)
		}
		p.direction = tok.Text
		p.stack.replace(EntityPortType)

	case EntityPortType:
		switch {
		case tok.Is(":") && p.depth == 0:
			if len(p.parts) == 0 {
				return p.unexpected(tok)
			}
			p.addPort()
			p.stack.replace(EntityPortDefault)
		case tok.Is(";"):
			if p.depth > 0 || len(p.parts) == 0 {
				return p.unexpected(tok)
			}
			p.addPort()
			p.stack.pop()
		case tok.Is(")") && p.depth == 0:
			if len(p.parts) == 0 {
				return p.unexpected(tok)
			}
			p.addPort()
			p.stack.pop()
			p.stack.pop()
		default:
			p.trackDepth(tok)
			p.appendPart(tok.Text)
		}

	case EntityPortDefault:
		switch {
		case tok.Is(";"):
			if p.depth > 0 {
				return p.unexpected(tok)
			}
			p.stack.pop()
		case tok.Is(")") && p.depth == 0:
			p.stack.pop()
			p.stack.pop()
		default:
			p.trackDepth(tok)
		}

	case EntityEnd:
		// "end [entity] [name] ;"
		if tok.Is(";") {
			p.commitEntity()
			p.stack.pop()
		}
	}
	return nil
}

func (p *Parser) architectureStep(top State, tok Token) error {
	switch top {
	case Architecture:
		if !tok.IsIdentifier() {
			return p.unexpected(tok)
		}
		p.archName = tok.Text
		p.archLine = tok.Line
		p.stack.replace(ArchitectureEntity)
		p.stack.push(ExpectOf)

	case ArchitectureEntity:
		if !tok.IsIdentifier() {
			return p.unexpected(tok)
		}
		name := design.QualifiedName(tok.Text)
		owner, ok := p.design.Entity(name)
		if !ok {
			return p.errorf(ErrUnknownEntity, tok, "unknown entity %s", name)
		}
		if len(p.pending) > 0 {
			p.log.Debug(fmt.Sprintf("%s: %d use clause(s) before architecture %s not recorded",
				owner.Name, len(p.pending), p.archName))
			p.pending = nil
		}
		p.archOwner = owner
		p.arch = design.NewArchitecture(p.archName, owner.Name)
		p.arch.File = p.path
		p.arch.Line = p.archLine
		p.stack.replace(ArchitectureHeader)
		p.stack.push(ExpectIs)

	case ArchitectureHeader:
		switch {
		case tok.Is("signal"):
			p.stack.push(ArchitectureSignal)
		case tok.Is("constant"):
			p.stack.push(ArchitectureConstant)
		case tok.IsAny("type", "subtype"):
			return p.errorf(ErrNotImplemented, tok, "%s declarations are not implemented", strings.ToLower(tok.Text))
		case tok.IsAny("pure", "impure"):
		case tok.IsAny("function", "procedure"):
			p.stack.push(SubprogramHeader)
		case tok.Is("component"):
			p.stack.push(SkipToSemicolon, SkipToEnd)
		case tok.IsAny("attribute", "alias", "use"):
			p.stack.push(SkipToSemicolon)
		case tok.Is("begin"):
			p.stack.replace(ArchitectureEnd)
			p.stack.push(SkipToEnd)
		default:
			return p.unexpected(tok)
		}

	case SubprogramHeader:
		switch {
		case tok.Is("("):
			p.stack.push(SkipToClosingParenthesis)
		case tok.Is(";"):
			// declaration without a body
			p.stack.pop()
		case tok.Is("is"):
			p.stack.replace(SkipToSemicolon)
			p.stack.push(SkipToEnd, SkipToBegin)
		}

	case ArchitectureEnd:
		switch {
		case tok.Is(";"):
			p.commitArchitecture()
			p.stack.pop()
		case tok.Is("architecture"), strings.EqualFold(tok.Text, p.archName):
		default:
			return p.unexpected(tok)
		}
	}
	return nil
}

func (p *Parser) declarationStep(top State, tok Token) error {
	switch top {
	case ArchitectureSignal, ArchitectureConstant:
		if !tok.IsIdentifier() {
			return p.unexpected(tok)
		}
		p.beginDeclaration(tok.Text)
		if top == ArchitectureSignal {
			p.stack.replace(ArchitectureSignalType)
		} else {
			p.stack.replace(ArchitectureConstantType)
		}
		p.stack.push(ExpectColon)

	case ArchitectureSignalType:
		switch {
		case tok.Is(":") && p.depth == 0:
			if len(p.parts) == 0 {
				return p.unexpected(tok)
			}
			p.addSignal()
			p.stack.replace(ArchitectureSignalDefault)
		case tok.Is(";"):
			if p.depth > 0 || len(p.parts) == 0 {
				return p.unexpected(tok)
			}
			p.addSignal()
			p.stack.pop()
		default:
			if !p.trackDepth(tok) {
				return p.unexpected(tok)
			}
			p.appendPart(tok.Text)
		}

	case ArchitectureSignalDefault:
		switch {
		case tok.Is(";"):
			if p.depth > 0 {
				return p.unexpected(tok)
			}
			p.stack.pop()
		default:
			if !p.trackDepth(tok) {
				return p.unexpected(tok)
			}
		}

	case ArchitectureConstantType:
		switch {
		case tok.Is(":") && p.depth == 0:
			if len(p.parts) == 0 {
				return p.unexpected(tok)
			}
			p.typ = p.joined()
			p.parts = p.parts[:0]
			p.stack.replace(ArchitectureConstantAssign)
		case tok.Is(";"):
			// a constant needs a value
			return p.unexpected(tok)
		default:
			if !p.trackDepth(tok) {
				return p.unexpected(tok)
			}
			p.appendPart(tok.Text)
		}

	case ArchitectureConstantAssign:
		// ":=" arrives as ":" followed by a word starting with "="
		if !strings.HasPrefix(tok.Text, "=") {
			return p.unexpected(tok)
		}
		if rest := tok.Text[1:]; rest != "" {
			p.appendPart(rest)
		}
		p.stack.replace(ArchitectureConstantValue)

	case ArchitectureConstantValue:
		switch {
		case tok.Is(";"):
			if p.depth > 0 || len(p.parts) == 0 {
				return p.unexpected(tok)
			}
			p.addConstant()
			p.stack.pop()
		default:
			if !p.trackDepth(tok) {
				return p.unexpected(tok)
			}
			p.appendPart(tok.Text)
		}
	}
	return nil
}

// trackDepth updates the parenthesis depth of the expression being read. It
// returns false for a ")" that closes nothing.
func (p *Parser) trackDepth(tok Token) bool {
	switch {
	case tok.Is("("):
		p.depth++
	case tok.Is(")"):
		if p.depth == 0 {
			return false
		}
		p.depth--
	}
	return true
}

func (p *Parser) skip(top State, tok Token) error {
	switch top {
	case SkipToClosingParenthesis:
		switch {
		case tok.Is("("):
			p.stack.push(SkipToClosingParenthesis)
		case tok.Is(")"):
			p.stack.pop()
		}

	case SkipToSemicolon:
		if tok.Is(";") {
			p.stack.pop()
		}

	case SkipToBegin:
		if tok.Is("begin") {
			p.stack.pop()
		}

	case SkipToEnd:
		switch {
		case tok.Is("end"):
			p.stack.pop()
			// "end if ;", "end loop ;" and friends: the words after a nested
			// end must not open another block.
			if top := p.stack.top(); top == SkipToEnd || top == SkipGenerateBody {
				p.stack.push(SkipToSemicolon)
			}
		case tok.IsAny("begin", "then", "case", "loop"):
			p.stack.push(SkipToEnd)
		case tok.IsAny("process", "block"):
			// the declarative part runs up to the statement's own begin
			p.stack.push(SkipToEnd, SkipToBegin)
		case tok.Is("generate"):
			p.stack.push(SkipGenerateBody)
		case tok.IsAny("for", "while"):
			p.stack.push(SkipToEnd, SkipLoopHeader)
		case tok.Is("elsif"):
			p.stack.push(SkipElsifCondition)
		}

	case SkipLoopHeader:
		switch {
		case tok.Is("loop"):
			p.stack.pop()
		case tok.Is("generate"):
			p.stack.pop()
			p.stack.replace(SkipGenerateBody)
		case tok.Is(";"):
			// "wait for 10 ns ;" is a statement, not a block
			p.stack.pop()
			p.stack.pop()
		}

	case SkipElsifCondition:
		if tok.Is("then") {
			p.stack.pop()
		}

	case SkipGenerateBody:
		// an optional begin separates declarations from statements
		if tok.Is("begin") {
			p.stack.replace(SkipToEnd)
			return nil
		}
		return p.skip(SkipToEnd, tok)

	default:
		return fmt.Errorf("parser: no transition for state %s", top)
	}
	return nil
}
