package parser

import "fmt"

// State is one entry of the parser stack. The set is closed: every value the
// parser can push is listed here, and each has a stable name used in
// diagnostics.
type State int

const (
	Base State = iota
	Library
	Use

	Entity
	EntityBody
	EntityGeneric
	EntityPort
	EntityPortDirection
	EntityPortType
	EntityPortDefault
	EntityEnd

	Architecture
	ArchitectureEntity
	ArchitectureHeader
	ArchitectureSignal
	ArchitectureSignalType
	ArchitectureSignalDefault
	ArchitectureConstant
	ArchitectureConstantType
	ArchitectureConstantAssign
	ArchitectureConstantValue
	ArchitectureEnd
	SubprogramHeader

	ExpectIs
	ExpectOf
	ExpectBegin
	ExpectEnd
	ExpectOpeningParenthesis
	ExpectClosingParenthesis
	ExpectSemicolon
	ExpectColon

	SkipToClosingParenthesis
	SkipToSemicolon
	SkipToBegin
	SkipToEnd
	SkipLoopHeader
	SkipElsifCondition
	SkipGenerateBody

	numStates
)

var stateNames = [numStates]string{
	Base:    "Base",
	Library: "Library",
	Use:     "Use",

	Entity:              "Entity",
	EntityBody:          "EntityBody",
	EntityGeneric:       "EntityGeneric",
	EntityPort:          "EntityPort",
	EntityPortDirection: "EntityPortDirection",
	EntityPortType:      "EntityPortType",
	EntityPortDefault:   "EntityPortDefault",
	EntityEnd:           "EntityEnd",

	Architecture:               "Architecture",
	ArchitectureEntity:         "ArchitectureEntity",
	ArchitectureHeader:         "ArchitectureHeader",
	ArchitectureSignal:         "ArchitectureSignal",
	ArchitectureSignalType:     "ArchitectureSignalType",
	ArchitectureSignalDefault:  "ArchitectureSignalDefault",
	ArchitectureConstant:       "ArchitectureConstant",
	ArchitectureConstantType:   "ArchitectureConstantType",
	ArchitectureConstantAssign: "ArchitectureConstantAssign",
	ArchitectureConstantValue:  "ArchitectureConstantValue",
	ArchitectureEnd:            "ArchitectureEnd",
	SubprogramHeader:           "SubprogramHeader",

	ExpectIs:                 "ExpectIs",
	ExpectOf:                 "ExpectOf",
	ExpectBegin:              "ExpectBegin",
	ExpectEnd:                "ExpectEnd",
	ExpectOpeningParenthesis: "ExpectOpeningParenthesis",
	ExpectClosingParenthesis: "ExpectClosingParenthesis",
	ExpectSemicolon:          "ExpectSemicolon",
	ExpectColon:              "ExpectColon",

	SkipToClosingParenthesis: "SkipToClosingParenthesis",
	SkipToSemicolon:          "SkipToSemicolon",
	SkipToBegin:              "SkipToBegin",
	SkipToEnd:                "SkipToEnd",
	SkipLoopHeader:           "SkipLoopHeader",
	SkipElsifCondition:       "SkipElsifCondition",
	SkipGenerateBody:         "SkipGenerateBody",
}

func (s State) String() string {
	if s >= 0 && s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText lets a stack snapshot be written as a list of names.
func (s State) MarshalText() ([]byte, error) {
	if s < 0 || s >= numStates {
		return nil, fmt.Errorf("invalid parser state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText restores a state from its name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown parser state %q", text)
}

// expectations lists the single token each Expect state waits for.
var expectations = map[State]string{
	ExpectIs:                 "is",
	ExpectOf:                 "of",
	ExpectBegin:              "begin",
	ExpectEnd:                "end",
	ExpectOpeningParenthesis: "(",
	ExpectClosingParenthesis: ")",
	ExpectSemicolon:          ";",
	ExpectColon:              ":",
}

// Expected returns the token an Expect state is waiting for.
func (s State) Expected() (string, bool) {
	lit, ok := expectations[s]
	return lit, ok
}

// stack is the LIFO of parser states. The bottom entry is always Base.
type stack []State

func (s *stack) top() State {
	return (*s)[len(*s)-1]
}

func (s *stack) push(states ...State) {
	*s = append(*s, states...)
}

// replace swaps the top state for next.
func (s *stack) replace(next State) {
	(*s)[len(*s)-1] = next
}

func (s *stack) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s stack) atBase() bool {
	return len(s) == 1 && s[0] == Base
}
