package wasmcompile_test

import (
	"testing"

	"github.com/coregx/regexwasm/automaton"
	"github.com/coregx/regexwasm/wasmcompile"
	"github.com/coregx/regexwasm/wasmcompile/wasmtest"
)

// These tests hand-build automaton.NFA values for Look kinds that
// nfa.Compiler's regexp/syntax front end can never produce on its own
// (CRLF line boundaries, the four half-boundary word kinds) and drive the
// compiled module directly, the same way a front end other than this
// package's own would exercise the full spec.md §4.4 Look kind table.

func compileNFA(t *testing.T, n *automaton.NFA) *wasmtest.Module {
	t.Helper()
	wasmBytes, err := wasmcompile.Compile(n, wasmcompile.DefaultConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	mod, err := wasmtest.New(wasmBytes)
	if err != nil {
		t.Fatalf("wasmtest.New: %v", err)
	}
	t.Cleanup(func() { mod.Close() })
	return mod
}

// crlfLineNFA builds ^x$ under CRLF line terminators: LookStartCRLF, a
// single 'x' byte, LookEndCRLF, Match, behind an unanchored (?s:.)*? prefix
// so the line can start anywhere in the haystack.
func crlfLineNFA() *automaton.NFA {
	states := []automaton.State{
		{Kind: automaton.KindLook, Look: automaton.LookStartCRLF, Next: 1},
		{Kind: automaton.KindByteRange, ByteRange: automaton.ByteRange{Start: 'x', End: 'x', Next: 2}},
		{Kind: automaton.KindLook, Look: automaton.LookEndCRLF, Next: 3},
		{Kind: automaton.KindMatch, Pattern: 0},
		{Kind: automaton.KindBinaryUnion, Alt1: 0, Alt2: 5},
		{Kind: automaton.KindByteRange, ByteRange: automaton.ByteRange{Start: 0x00, End: 0xFF, Next: 4}},
	}
	n := &automaton.NFA{
		States:          states,
		StartAnchored:   0,
		StartUnanchored: 4,
		PatternCount:    1,
		PatternStarts:   []automaton.StateID{0},
		LineTerm:        '\n',
	}
	n.SetLookSet(automaton.LookSet(0).Insert(automaton.LookStartCRLF).Insert(automaton.LookEndCRLF))
	return n
}

func TestLookCRLFLineBoundaries(t *testing.T) {
	mod := compileNFA(t, crlfLineNFA())

	tests := []struct {
		haystack string
		want     bool
	}{
		{"x", true},           // whole haystack is one CRLF "line"
		{"\r\nx", true},       // x follows a CRLF terminator
		{"x\r\n", true},       // x precedes a CRLF terminator
		{"bx", false},         // x preceded by a non-terminator byte
		{"xx", false},         // second x is neither start- nor end-of-line
	}
	for _, tt := range tests {
		got, err := mod.Run([]byte(tt.haystack))
		if err != nil {
			t.Fatalf("Run(%q): %v", tt.haystack, err)
		}
		if got != tt.want {
			t.Errorf("is_match(%q) = %v, want %v", tt.haystack, got, tt.want)
		}
	}
}

// halfBoundaryAsciiNFA builds a word-start-half matcher (state0) and a
// word-end-half matcher (state1) as two independently addressable start
// states within one NFA, so a single compile covers both half-boundary
// ASCII kinds.
func halfBoundaryAsciiNFA() *automaton.NFA {
	states := []automaton.State{
		// pattern 0: \b{start}[a-z]
		{Kind: automaton.KindLook, Look: automaton.LookWordStartHalfAscii, Next: 1},
		{Kind: automaton.KindByteRange, ByteRange: automaton.ByteRange{Start: 'a', End: 'z', Next: 2}},
		{Kind: automaton.KindMatch, Pattern: 0},

		// pattern 1: [a-z]\b{end}
		{Kind: automaton.KindByteRange, ByteRange: automaton.ByteRange{Start: 'a', End: 'z', Next: 4}},
		{Kind: automaton.KindLook, Look: automaton.LookWordEndHalfAscii, Next: 5},
		{Kind: automaton.KindMatch, Pattern: 1},
	}
	n := &automaton.NFA{
		States:        states,
		PatternCount:  2,
		PatternStarts: []automaton.StateID{0, 3},
		LineTerm:      '\n',
	}
	n.SetLookSet(automaton.LookSet(0).
		Insert(automaton.LookWordStartHalfAscii).
		Insert(automaton.LookWordEndHalfAscii))
	return n
}

func runAnchoredAt(t *testing.T, mod *wasmtest.Module, haystack string, patternID int32, at uint64) bool {
	t.Helper()
	n := uint64(len(haystack))
	if _, err := mod.PrepareInput(n); err != nil {
		t.Fatalf("prepare_input: %v", err)
	}
	if err := mod.WriteHaystack([]byte(haystack)); err != nil {
		t.Fatalf("WriteHaystack: %v", err)
	}
	got, err := mod.IsMatch(wasmcompile.AnchoredModePattern, patternID, at, n, n)
	if err != nil {
		t.Fatalf("is_match: %v", err)
	}
	return got
}

func TestLookWordStartHalfAscii(t *testing.T) {
	mod := compileNFA(t, halfBoundaryAsciiNFA())
	haystack := "ab cd"
	tests := []struct {
		at   uint64
		want bool
	}{
		{0, true},  // 'a' at the very start of the haystack
		{1, false}, // 'b' follows a word byte, not a word start
		{3, true},  // 'c' follows a space
		{4, false}, // 'd' follows a word byte
	}
	for _, tt := range tests {
		got := runAnchoredAt(t, mod, haystack, 0, tt.at)
		if got != tt.want {
			t.Errorf("word-start-half at %d = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestLookWordEndHalfAscii(t *testing.T) {
	mod := compileNFA(t, halfBoundaryAsciiNFA())
	haystack := "ab cd"
	tests := []struct {
		at   uint64
		want bool
	}{
		{0, false}, // 'a' is followed by a word byte 'b'
		{1, true},  // 'b' is followed by a space
		{3, false}, // 'c' is followed by a word byte 'd'
		{4, true},  // 'd' is the last byte of the haystack
	}
	for _, tt := range tests {
		got := runAnchoredAt(t, mod, haystack, 1, tt.at)
		if got != tt.want {
			t.Errorf("word-end-half at %d = %v, want %v", tt.at, got, tt.want)
		}
	}
}

// halfBoundaryUnicodeNFA mirrors halfBoundaryAsciiNFA but uses the Unicode
// word-boundary Look kinds, exercising the UTF-8 decode DFA and the
// two-level Unicode word-character table against plain ASCII input (every
// ASCII byte is also a valid one-byte UTF-8 codepoint).
func halfBoundaryUnicodeNFA() *automaton.NFA {
	states := []automaton.State{
		{Kind: automaton.KindLook, Look: automaton.LookWordStartHalfUnicode, Next: 1},
		{Kind: automaton.KindByteRange, ByteRange: automaton.ByteRange{Start: 'a', End: 'z', Next: 2}},
		{Kind: automaton.KindMatch, Pattern: 0},

		{Kind: automaton.KindByteRange, ByteRange: automaton.ByteRange{Start: 'a', End: 'z', Next: 4}},
		{Kind: automaton.KindLook, Look: automaton.LookWordEndHalfUnicode, Next: 5},
		{Kind: automaton.KindMatch, Pattern: 1},
	}
	n := &automaton.NFA{
		States:        states,
		UTF8:          true,
		PatternCount:  2,
		PatternStarts: []automaton.StateID{0, 3},
		LineTerm:      '\n',
	}
	n.SetLookSet(automaton.LookSet(0).
		Insert(automaton.LookWordStartHalfUnicode).
		Insert(automaton.LookWordEndHalfUnicode))
	return n
}

func TestLookWordHalfUnicode(t *testing.T) {
	mod := compileNFA(t, halfBoundaryUnicodeNFA())
	haystack := "ab cd"

	startTests := []struct {
		at   uint64
		want bool
	}{
		{0, true},
		{1, false},
		{3, true},
		{4, false},
	}
	for _, tt := range startTests {
		got := runAnchoredAt(t, mod, haystack, 0, tt.at)
		if got != tt.want {
			t.Errorf("unicode word-start-half at %d = %v, want %v", tt.at, got, tt.want)
		}
	}

	endTests := []struct {
		at   uint64
		want bool
	}{
		{0, false},
		{1, true},
		{3, false},
		{4, true},
	}
	for _, tt := range endTests {
		got := runAnchoredAt(t, mod, haystack, 1, tt.at)
		if got != tt.want {
			t.Errorf("unicode word-end-half at %d = %v, want %v", tt.at, got, tt.want)
		}
	}
}
