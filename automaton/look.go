package automaton

import "math/bits"

// Look enumerates the zero-width assertions the compiler knows how to emit a
// matcher for. Each kind is a distinct power of two so a LookSet can track an
// arbitrary combination with one integer, and so a kind's bit position (its
// log2) doubles as a dense array index into the compiler's function-pointer
// table — the same trick used for the four-kind LookSet in the teacher's
// lazy-DFA package, extended here to the full kind set spec.md requires.
type Look uint32

const (
	LookStart Look = 1 << iota
	LookEnd
	LookStartLF
	LookEndLF
	LookStartCRLF
	LookEndCRLF
	LookWordAscii
	LookWordAsciiNegate
	LookWordStartAscii
	LookWordEndAscii
	LookWordStartHalfAscii
	LookWordEndHalfAscii
	LookWordUnicode
	LookWordUnicodeNegate
	LookWordStartUnicode
	LookWordEndUnicode
	LookWordStartHalfUnicode
	LookWordEndHalfUnicode
)

// NumLooks is one past the highest Look bit index, i.e. the size a dense
// per-kind function table must have.
const NumLooks = 18

// Index returns the dense array index for a single-bit Look value.
func (l Look) Index() int {
	return bits.TrailingZeros32(uint32(l))
}

func (l Look) String() string {
	switch l {
	case LookStart:
		return "Start"
	case LookEnd:
		return "End"
	case LookStartLF:
		return "StartLF"
	case LookEndLF:
		return "EndLF"
	case LookStartCRLF:
		return "StartCRLF"
	case LookEndCRLF:
		return "EndCRLF"
	case LookWordAscii:
		return "WordAscii"
	case LookWordAsciiNegate:
		return "WordAsciiNegate"
	case LookWordStartAscii:
		return "WordStartAscii"
	case LookWordEndAscii:
		return "WordEndAscii"
	case LookWordStartHalfAscii:
		return "WordStartHalfAscii"
	case LookWordEndHalfAscii:
		return "WordEndHalfAscii"
	case LookWordUnicode:
		return "WordUnicode"
	case LookWordUnicodeNegate:
		return "WordUnicodeNegate"
	case LookWordStartUnicode:
		return "WordStartUnicode"
	case LookWordEndUnicode:
		return "WordEndUnicode"
	case LookWordStartHalfUnicode:
		return "WordStartHalfUnicode"
	case LookWordEndHalfUnicode:
		return "WordEndHalfUnicode"
	default:
		return "Look(?)"
	}
}

// IsUnicodeWord reports whether l is one of the Unicode word-boundary kinds,
// which require the Unicode word-character table and the UTF-8 decode DFA.
func (l Look) IsUnicodeWord() bool {
	switch l {
	case LookWordUnicode, LookWordUnicodeNegate, LookWordStartUnicode, LookWordEndUnicode,
		LookWordStartHalfUnicode, LookWordEndHalfUnicode:
		return true
	default:
		return false
	}
}

// LookSet is a bitset of Look kinds, one bit per kind at that kind's value.
type LookSet uint32

// Contains reports whether l is present in the set.
func (s LookSet) Contains(l Look) bool { return s&LookSet(l) != 0 }

// Insert returns a new set with l added.
func (s LookSet) Insert(l Look) LookSet { return s | LookSet(l) }

// Union returns the set containing every kind in either set.
func (s LookSet) Union(other LookSet) LookSet { return s | other }

// IsEmpty reports whether the set contains no kinds.
func (s LookSet) IsEmpty() bool { return s == 0 }

// Iter calls f once for each Look kind present in the set, in ascending
// index order.
func (s LookSet) Iter(f func(Look)) {
	for bit := LookSet(1); bit != 0 && bit <= LookSet(LookWordEndHalfUnicode); bit <<= 1 {
		if s&bit != 0 {
			f(Look(bit))
		}
	}
}

// WithDependencies returns the set expanded with any Look kinds that another
// kind's matcher function needs in order to be defined. WordAsciiNegate's
// matcher is one XOR over WordAscii's result (spec.md §4.4), so emitting the
// negate form requires the positive form to exist too.
func (s LookSet) WithDependencies() LookSet {
	out := s
	if out.Contains(LookWordAsciiNegate) {
		out = out.Insert(LookWordAscii)
	}
	if out.Contains(LookWordUnicodeNegate) {
		out = out.Insert(LookWordUnicode)
	}
	return out
}
