package wasmcompile

import (
	"testing"

	"github.com/coregx/regexwasm/automaton"
)

// buildCyclicUnionNFA builds a minimal NFA shaped like nfa/compile.go's
// compileStar output for a pattern whose body can match empty, e.g.
// `(?:a*)*`: a BinaryUnion (the outer split) whose "continue" branch leads
// straight back to itself through a second Union with no byte consumed in
// between. A naive recursive emission of epsilon_closure_sN functions over
// this graph never terminates; computeEpsilonClosure must.
func buildCyclicUnionNFA() *automaton.NFA {
	states := make([]automaton.State, 3)
	const (
		outerSplit automaton.StateID = 0
		innerUnion automaton.StateID = 1
		matchState automaton.StateID = 2
	)
	// outerSplit: continue into innerUnion, or exit to Match.
	states[outerSplit] = automaton.State{Kind: automaton.KindBinaryUnion, Alt1: innerUnion, Alt2: matchState}
	// innerUnion: loops straight back to outerSplit (the epsilon back-edge a
	// nested optional star patches in), with no other alternative.
	states[innerUnion] = automaton.State{Kind: automaton.KindUnion, Alts: []automaton.StateID{outerSplit}}
	states[matchState] = automaton.State{Kind: automaton.KindMatch, Pattern: 0}

	return &automaton.NFA{States: states, StartUnanchored: outerSplit, StartAnchored: outerSplit}
}

// TestComputeEpsilonClosureTerminatesOnCycle exercises the visited-set walk
// directly against the cyclic graph nested/optional star quantifiers
// produce: before this, the equivalent recursive emission had no base case
// for this shape at all, so the correctness bar here is that this call
// returns rather than hangs or blows the Go call stack.
func TestComputeEpsilonClosureTerminatesOnCycle(t *testing.T) {
	nfa := buildCyclicUnionNFA()

	cl := computeEpsilonClosure(nfa, 0)

	wantStates := map[automaton.StateID]bool{0: true, 1: true, 2: true}
	if len(cl.Unconditional) != len(wantStates) {
		t.Fatalf("Unconditional = %v, want exactly %v", cl.Unconditional, wantStates)
	}
	for _, sid := range cl.Unconditional {
		if !wantStates[sid] {
			t.Errorf("Unconditional contains unexpected state %d", sid)
		}
	}
	if len(cl.Lookaround) != 0 {
		t.Errorf("Lookaround = %v, want none", cl.Lookaround)
	}
}

func TestCanOmitEpsilonClosure(t *testing.T) {
	nfa := buildCyclicUnionNFA()

	for id := automaton.StateID(0); id < automaton.StateID(nfa.NumStates()); id++ {
		cl := computeEpsilonClosure(nfa, id)
		got := canOmitEpsilonClosure(cl, id)
		want := nfa.State(id).Kind == automaton.KindMatch
		if got != want {
			t.Errorf("canOmitEpsilonClosure(state %d, kind %s) = %v, want %v", id, nfa.State(id).Kind, got, want)
		}
	}
}
