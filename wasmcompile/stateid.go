package wasmcompile

import (
	"fmt"

	"github.com/coregx/regexwasm/automaton"
)

// StateIDWidth is the byte width (1, 2, or 4) chosen to represent every
// state ID in the compiled NFA, little-endian, zero-padded (spec.md §3,
// "State identifier").
type StateIDWidth uint8

const (
	StateIDWidth1 StateIDWidth = 1
	StateIDWidth2 StateIDWidth = 2
	StateIDWidth4 StateIDWidth = 4
)

// chooseStateIDWidth picks the minimum width that represents every state
// index in [0, numStates). spec.md §8: state count exactly at 256 switches
// to width 2, exactly at 65536 switches to width 4 — i.e. the boundary is
// exclusive of the width-1/width-2 range, not inclusive. This also keeps
// every valid state ID strictly below the width's all-ones bit pattern, so
// a Dense table's "no transition" sentinel (invalidStatePattern, transition.go)
// never collides with a real state ID: at numStates == 256, the highest
// valid ID would be 255 == the width-1 sentinel, so width bumps to 2 first.
func chooseStateIDWidth(numStates int) StateIDWidth {
	switch {
	case numStates < 1<<8:
		return StateIDWidth1
	case numStates < 1<<16:
		return StateIDWidth2
	default:
		return StateIDWidth4
	}
}

// Layout returns the (size, align) pair for a single state ID of this
// width.
func (w StateIDWidth) Layout() Layout {
	return Layout{Size: uint64(w), Align: uint64(w)}
}

// Encode writes id as a little-endian, zero-padded value of this width.
func (w StateIDWidth) Encode(id automaton.StateID) []byte {
	buf := make([]byte, w)
	v := uint32(id)
	for i := StateIDWidth(0); i < w; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// Encode32 returns id's encoding at this width as an unsigned value,
// zero-extended to 32 bits — used to compute the bit pattern a 0xFF...
// sentinel (such as automaton.InvalidStateID) takes once truncated to
// this width.
func (w StateIDWidth) Encode32(id automaton.StateID) uint32 {
	mask := uint32(1)<<(8*w) - 1
	if w == StateIDWidth4 {
		mask = 0xFFFFFFFF
	}
	return uint32(id) & mask
}

// assertValid panics if w is not one of the three widths the compiler ever
// produces — an internal consistency check (spec.md §7/§9), not a
// user-visible error.
func (w StateIDWidth) assertValid() {
	switch w {
	case StateIDWidth1, StateIDWidth2, StateIDWidth4:
		return
	default:
		panic(fmt.Sprintf("wasmcompile: state-ID width %d not in {1,2,4}", w))
	}
}
