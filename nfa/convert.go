package nfa

import (
	"fmt"
	"sort"

	"github.com/coregx/regexwasm/automaton"
)

// ToAutomaton lowers a compiled Thompson NFA into package automaton's
// contract: the flat, tagged state array wasmcompile.Compile accepts.
//
// The two state shapes are close but not identical. StateSplit becomes
// KindBinaryUnion (left is the preferred alternative, matching PikeVM
// thread-priority order). StateEpsilon has no equivalent tag in package
// automaton — a bare pass-through — so it lowers to a one-alternative
// KindUnion, which the compiler's epsilon-closure machinery already
// treats as "recurse into the single alt." StateRuneAny/StateRuneAnyNotNL
// are reserved builder primitives the front end never actually emits
// (compileAnyChar/compileAnyCharNotNL always lower '.' to byte ranges
// directly); encountering one here means some other caller built an NFA
// by hand without expanding it first, which this function reports as an
// error rather than guessing an encoding.
func ToAutomaton(n *NFA) (*automaton.NFA, error) {
	out := &automaton.NFA{
		States:          make([]automaton.State, n.States()),
		StartAnchored:   automaton.StateID(n.StartAnchored()),
		StartUnanchored: automaton.StateID(n.StartUnanchored()),
		Anchored:        n.IsAnchored(),
		UTF8:            n.IsUTF8(),
		PatternCount:    n.PatternCount(),
		LineTerm:        '\n',
	}

	var looks automaton.LookSet
	for id := 0; id < n.States(); id++ {
		s := n.State(StateID(id))
		conv, look, err := convertState(s)
		if err != nil {
			return nil, fmt.Errorf("nfa: converting state %d: %w", id, err)
		}
		out.States[id] = conv
		if look != 0 {
			looks = looks.Insert(look)
		}
	}
	out.SetLookSet(looks)

	// This front end compiles one pattern per NFA; anchored_mode=Pattern
	// degrades to the single anchored start until multi-pattern
	// compilation exists.
	if out.PatternCount <= 1 {
		out.PatternCount = 1
		out.PatternStarts = []automaton.StateID{out.StartAnchored}
	} else {
		out.PatternStarts = make([]automaton.StateID, out.PatternCount)
		for i := range out.PatternStarts {
			out.PatternStarts[i] = out.StartAnchored
		}
	}

	return out, nil
}

func convertStateID(id StateID) automaton.StateID {
	if id == InvalidState {
		return automaton.InvalidStateID
	}
	return automaton.StateID(id)
}

func convertState(s *State) (automaton.State, automaton.Look, error) {
	switch s.Kind() {
	case StateMatch:
		return automaton.State{Kind: automaton.KindMatch, Pattern: s.Pattern()}, 0, nil

	case StateByteRange:
		lo, hi, next := s.ByteRange()
		return automaton.State{
			Kind:      automaton.KindByteRange,
			ByteRange: automaton.ByteRange{Start: lo, End: hi, Next: convertStateID(next)},
		}, 0, nil

	case StateSparse:
		trs := s.Transitions()
		ranges := make([]automaton.ByteRange, len(trs))
		for i, t := range trs {
			ranges[i] = automaton.ByteRange{Start: t.Lo, End: t.Hi, Next: convertStateID(t.Next)}
		}
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
		return automaton.State{Kind: automaton.KindSparse, Sparse: ranges}, 0, nil

	case StateSplit:
		left, right := s.Split()
		return automaton.State{
			Kind: automaton.KindBinaryUnion,
			Alt1: convertStateID(left),
			Alt2: convertStateID(right),
		}, 0, nil

	case StateEpsilon:
		next := s.Epsilon()
		return automaton.State{
			Kind: automaton.KindUnion,
			Alts: []automaton.StateID{convertStateID(next)},
		}, 0, nil

	case StateCapture:
		idx, isStart, next := s.Capture()
		slot := idx * 2
		if !isStart {
			slot++
		}
		return automaton.State{
			Kind: automaton.KindCapture,
			Next: convertStateID(next),
			Slot: slot,
		}, 0, nil

	case StateFail:
		return automaton.State{Kind: automaton.KindFail}, 0, nil

	case StateLook:
		look, next := s.Look()
		aLook, err := convertLook(look)
		if err != nil {
			return automaton.State{}, 0, err
		}
		return automaton.State{
			Kind: automaton.KindLook,
			Look: aLook,
			Next: convertStateID(next),
		}, aLook, nil

	default:
		return automaton.State{}, 0, fmt.Errorf("state kind %s has no byte-level expansion", s.Kind())
	}
}

func convertLook(l Look) (automaton.Look, error) {
	switch l {
	case LookStartText:
		return automaton.LookStart, nil
	case LookEndText:
		return automaton.LookEnd, nil
	case LookStartLine:
		return automaton.LookStartLF, nil
	case LookEndLine:
		return automaton.LookEndLF, nil
	case LookWordBoundaryASCII:
		return automaton.LookWordAscii, nil
	case LookNoWordBoundaryASCII:
		return automaton.LookWordAsciiNegate, nil
	case LookWordBoundaryUnicode:
		return automaton.LookWordUnicode, nil
	case LookNoWordBoundaryUnicode:
		return automaton.LookWordUnicodeNegate, nil
	default:
		return 0, fmt.Errorf("unrecognized look kind %v", l)
	}
}
