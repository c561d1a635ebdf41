// Package automaton defines the NFA contract the compiler accepts as input.
//
// This mirrors the state shapes a Thompson-construction front end produces:
// byte-consuming states (ByteRange, Sparse, Dense), epsilon-only control flow
// (Union, BinaryUnion, Capture), zero-width assertions (Look), and the two
// terminal kinds (Match, Fail). A regex front end — such as the one in
// package nfa — builds a value of this type; everything in package
// wasmcompile treats it as a read-only, already-validated artifact.
package automaton

import "fmt"

// StateID indexes a state within an NFA's state list.
type StateID uint32

// InvalidStateID marks the absence of a state reference.
const InvalidStateID StateID = 0xFFFFFFFF

// Kind identifies which fields of a State are meaningful.
type Kind uint8

const (
	KindFail Kind = iota
	KindMatch
	KindByteRange
	KindSparse
	KindDense
	KindLook
	KindUnion
	KindBinaryUnion
	KindCapture
)

func (k Kind) String() string {
	switch k {
	case KindFail:
		return "Fail"
	case KindMatch:
		return "Match"
	case KindByteRange:
		return "ByteRange"
	case KindSparse:
		return "Sparse"
	case KindDense:
		return "Dense"
	case KindLook:
		return "Look"
	case KindUnion:
		return "Union"
	case KindBinaryUnion:
		return "BinaryUnion"
	case KindCapture:
		return "Capture"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ByteRange is an inclusive [Start,End] byte interval feeding Next.
type ByteRange struct {
	Start, End byte
	Next       StateID
}

// State is a single tagged NFA node. Only the fields relevant to Kind are
// populated; the rest hold their zero value.
type State struct {
	Kind Kind

	// KindMatch
	Pattern int

	// KindByteRange
	ByteRange ByteRange

	// KindSparse: ranges must be sorted and pairwise disjoint.
	Sparse []ByteRange

	// KindDense: exactly 256 entries, InvalidStateID for "no transition".
	Dense [256]StateID

	// KindLook, KindCapture: state to continue to once the assertion holds
	// (Look) or the slot is recorded (Capture).
	Next StateID

	// KindLook
	Look Look

	// KindUnion: ordered preference list, most-preferred first.
	Alts []StateID

	// KindBinaryUnion
	Alt1, Alt2 StateID

	// KindCapture: index into the match's slot array this state writes the
	// current offset to.
	Slot uint32
}

// NFA is the compiler's input contract: a flat, indexed array of states plus
// the metadata needed to drive matching (start states, lookaround usage, and
// the configured line terminator for the *LF lookaround family).
type NFA struct {
	States          []State
	StartAnchored   StateID
	StartUnanchored StateID
	Anchored        bool
	UTF8            bool
	PatternCount    int
	// PatternStarts[i] is the start state for pattern i, used by the
	// anchored_mode=Pattern case of start_config.
	PatternStarts []StateID
	LineTerm      byte

	lookSet LookSet
}

// State returns the state at id, or nil if id is out of range.
func (n *NFA) State(id StateID) *State {
	if int(id) >= len(n.States) {
		return nil
	}
	return &n.States[id]
}

// NumStates returns the number of states in the NFA.
func (n *NFA) NumStates() int { return len(n.States) }

// SetLookSet records which Look kinds occur anywhere in the NFA. Front ends
// call this once after building all states; the compiler uses it to decide
// which lookaround matcher functions to emit.
func (n *NFA) SetLookSet(ls LookSet) { n.lookSet = ls }

// LookSetAny returns the union of all Look kinds used anywhere in the NFA.
func (n *NFA) LookSetAny() LookSet { return n.lookSet }

// IsAlwaysAnchored reports whether the anchored and unanchored start states
// coincide, i.e. the pattern itself forces a start-of-haystack match.
func (n *NFA) IsAlwaysAnchored() bool { return n.StartAnchored == n.StartUnanchored }

// PatternStart returns the start state for pattern index p and true, or
// (0, false) if p is out of range.
func (n *NFA) PatternStart(p int) (StateID, bool) {
	if p < 0 || p >= len(n.PatternStarts) {
		return 0, false
	}
	return n.PatternStarts[p], true
}

// CanMatchEmpty reports whether some pattern's start state can reach a
// Match state via a zero-byte path (epsilon transitions and, optimistically,
// Look assertions — a Look that might fail is still followed, since this is
// used only to decide whether utf8_is_boundary needs emitting at all, and a
// false positive only costs one unused function). Mirrors the original
// engine's NFA::has_empty, which the compile-time gate for utf8_is_boundary
// consults (spec.md §4.6).
func (n *NFA) CanMatchEmpty() bool {
	visited := make(map[StateID]bool)
	var reaches func(id StateID) bool
	reaches = func(id StateID) bool {
		if visited[id] {
			return false
		}
		visited[id] = true
		st := n.State(id)
		if st == nil {
			return false
		}
		switch st.Kind {
		case KindMatch:
			return true
		case KindCapture:
			return reaches(st.Next)
		case KindLook:
			return reaches(st.Next)
		case KindUnion:
			for _, alt := range st.Alts {
				if reaches(alt) {
					return true
				}
			}
			return false
		case KindBinaryUnion:
			return reaches(st.Alt1) || reaches(st.Alt2)
		default:
			return false
		}
	}
	for _, start := range n.PatternStarts {
		if reaches(start) {
			return true
		}
	}
	return reaches(n.StartUnanchored) || reaches(n.StartAnchored)
}
