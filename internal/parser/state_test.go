package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateNamesComplete(t *testing.T) {
	seen := map[string]bool{}
	for s := Base; s < numStates; s++ {
		name := s.String()
		if name == "" {
			t.Fatalf("state %d has no name", int(s))
		}
		if seen[name] {
			t.Fatalf("duplicate state name %q", name)
		}
		seen[name] = true
	}
	require.Equal(t, "State(99)", State(99).String())
}

func TestStateTextRoundTrip(t *testing.T) {
	stack := []State{Base, ArchitectureEnd, SkipToEnd, SkipLoopHeader}
	raw, err := json.Marshal(stack)
	require.NoError(t, err)
	require.JSONEq(t, `["Base","ArchitectureEnd","SkipToEnd","SkipLoopHeader"]`, string(raw))

	var back []State
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, stack, back)

	var s State
	require.Error(t, s.UnmarshalText([]byte("Nowhere")))
	_, err = State(-1).MarshalText()
	require.Error(t, err)
}

func TestExpectedTokens(t *testing.T) {
	lit, ok := ExpectOpeningParenthesis.Expected()
	require.True(t, ok)
	require.Equal(t, "(", lit)

	_, ok = SkipToEnd.Expected()
	require.False(t, ok)
}

func TestStackOperations(t *testing.T) {
	s := stack{Base}
	require.True(t, s.atBase())
	s.push(EntityBody, ExpectIs)
	require.Equal(t, ExpectIs, s.top())
	s.pop()
	s.replace(EntityEnd)
	require.Equal(t, stack{Base, EntityEnd}, s)
	s.pop()
	require.True(t, s.atBase())
}
