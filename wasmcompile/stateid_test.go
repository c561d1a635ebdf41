package wasmcompile

import "testing"

// spec.md §8: "State count exactly at 256 and 65536 state-ID width
// transitions: encoding width switches to 2 and 4 bytes respectively." The
// boundary is exclusive — at exactly 256 states the width must already have
// moved to 2, not stay at 1, because a Dense table's "no transition"
// sentinel is the all-ones pattern of the current width (invalidStatePattern
// in transition.go) and would otherwise collide with state ID 255.
func TestChooseStateIDWidth(t *testing.T) {
	cases := []struct {
		numStates int
		want      StateIDWidth
	}{
		{0, StateIDWidth1},
		{1, StateIDWidth1},
		{255, StateIDWidth1},
		{256, StateIDWidth2},
		{257, StateIDWidth2},
		{65535, StateIDWidth2},
		{65536, StateIDWidth4},
		{65537, StateIDWidth4},
	}
	for _, c := range cases {
		if got := chooseStateIDWidth(c.numStates); got != c.want {
			t.Errorf("chooseStateIDWidth(%d) = %d, want %d", c.numStates, got, c.want)
		}
	}
}

func TestStateIDWidthEncode32SentinelNeverCollides(t *testing.T) {
	for _, w := range []StateIDWidth{StateIDWidth1, StateIDWidth2, StateIDWidth4} {
		sentinel := w.Encode32(0xFFFFFFFF)
		maxRepresentable := uint32(1)<<(8*w) - 1
		if w == StateIDWidth4 {
			maxRepresentable = 0xFFFFFFFF
		}
		if sentinel != maxRepresentable {
			t.Fatalf("width %d: sentinel = %#x, want %#x", w, sentinel, maxRepresentable)
		}
	}
}
