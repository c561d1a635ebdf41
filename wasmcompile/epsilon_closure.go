package wasmcompile

import (
	"sort"

	"github.com/coregx/regexwasm/automaton"
	"github.com/coregx/regexwasm/internal/wasmenc"
)

// Epsilon-closure function parameter indices, shared by every
// epsilon_closure_sN function and by branch_to_epsilon_closure (which adds
// state_id as an extra leading parameter — see its own constants below).
const (
	ecSetPtr = 0
	ecSetLen = 1
	ecHayPtr = 2
	ecHayLen = 3
	ecAt     = 4

	// ecNewLen is the single i32 local every epsilon_closure_sN function
	// declares to thread the running sparse-set length through its
	// unconditional inserts and, if it has any, its lookaround gate.
	ecNewLen = 5
)

func ecFuncType() wasmenc.FuncType {
	return wasmenc.FuncType{
		Params:  []wasmenc.ValType{wasmenc.I64, wasmenc.I32, wasmenc.I64, wasmenc.I64, wasmenc.I64},
		Results: []wasmenc.ValType{wasmenc.I32},
	}
}

// epsilonLook is one (look, next) pair recorded while walking a state's
// epsilon closure: Next is only reachable conditionally, behind a runtime
// check of look at the current haystack position.
type epsilonLook struct {
	Look automaton.Look
	Next automaton.StateID
}

// epsilonClosure is the flattened result of walking every Union,
// BinaryUnion, Capture and Look edge reachable from a state without
// consuming a byte. Unconditional holds every state visited along the way
// (sorted ascending, each exactly once) — including intermediate
// Union/BinaryUnion/Capture/Look states themselves, not just the terminal
// byte-consuming or Match/Fail states the walk bottoms out at. Lookaround
// holds the look assertions encountered; Next is deliberately not folded
// into Unconditional, since whether it is reachable depends on a haystack
// check at runtime.
type epsilonClosure struct {
	Unconditional []automaton.StateID
	Lookaround    []epsilonLook
}

// computeEpsilonClosure walks the epsilon-reachable states from start using
// an explicit stack and a visited set, mirroring
// compute_epsilon_closure in the original compiler (spec.md §4.3, §9:
// "cycles are prevented by a visited set"). Thompson construction can (and,
// for patterns like `(?:a*)*` or `(?:a*)+`, does — see nfa/compile.go's
// compileStar) wire a Union's alternate straight back to an ancestor split,
// so this walk must never revisit a state: the visited check is what keeps
// it terminating instead of looping forever over that back-edge.
//
// Union explores its first alternate in place and pushes the rest in
// reverse so they pop in original (most-preferred-first) order;
// BinaryUnion does the same for its two alternates. Capture is a pure
// pass-through. Look is never followed into Next here — it only ever
// contributes a lookaround entry — since Next is conditionally reachable,
// not unconditionally so.
func computeEpsilonClosure(nfa *automaton.NFA, start automaton.StateID) epsilonClosure {
	visited := make(map[automaton.StateID]bool)
	var unconditional []automaton.StateID
	var lookaround []epsilonLook

	stack := []automaton.StateID{start}
outer:
	for len(stack) > 0 {
		sid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for {
			if visited[sid] {
				continue outer
			}
			visited[sid] = true
			unconditional = append(unconditional, sid)

			st := nfa.State(sid)
			switch st.Kind {
			case automaton.KindLook:
				lookaround = append(lookaround, epsilonLook{Look: st.Look, Next: st.Next})
				// Next is conditional, not folded into this walk: loop back
				// around, where the visited check above sends us back to
				// the outer stack loop.
			case automaton.KindUnion:
				if len(st.Alts) == 0 {
					continue outer
				}
				for i := len(st.Alts) - 1; i >= 1; i-- {
					stack = append(stack, st.Alts[i])
				}
				sid = st.Alts[0]
				continue
			case automaton.KindBinaryUnion:
				stack = append(stack, st.Alt2)
				sid = st.Alt1
				continue
			case automaton.KindCapture:
				sid = st.Next
				continue
			default:
				// Fail, Match, ByteRange, Sparse, Dense: terminal, nothing
				// more to walk from here.
				continue outer
			}
		}
	}

	sort.Slice(unconditional, func(i, j int) bool { return unconditional[i] < unconditional[j] })
	return epsilonClosure{Unconditional: unconditional, Lookaround: lookaround}
}

// canOmitEpsilonClosure reports whether forSid's own dedicated
// epsilon_closure_sN function would do nothing but insert forSid itself
// (spec.md §4.3's "omission rule"): true exactly when the closure is the
// single-element set {forSid} with no lookaround, which is always the case
// for a terminal (Fail/Match/ByteRange/Sparse/Dense) state and never the
// case for a Union/BinaryUnion/Capture/Look state, since those always walk
// to at least one more state or record a lookaround entry.
func canOmitEpsilonClosure(cl epsilonClosure, forSid automaton.StateID) bool {
	return len(cl.Unconditional) == 1 && cl.Unconditional[0] == forSid && len(cl.Lookaround) == 0
}

// planEpsilonClosureFunctions computes every state's flattened epsilon
// closure up front and declares (but does not yet define) one
// epsilon_closure_sN function for each state whose closure cannot be
// omitted.
func planEpsilonClosureFunctions(c *Context) {
	ft := ecFuncType()
	n := c.NFA.NumStates()
	c.epsilonClosures = make(map[automaton.StateID]epsilonClosure, n)
	for id := 0; id < n; id++ {
		sid := automaton.StateID(id)
		cl := computeEpsilonClosure(c.NFA, sid)
		c.epsilonClosures[sid] = cl
		if canOmitEpsilonClosure(cl, sid) {
			continue
		}
		fn := c.Mod.DeclareFunction(ft, epsilonClosureFuncName(sid))
		c.setEpsilonClosureFn(sid, fn)
	}
}

func epsilonClosureFuncName(id automaton.StateID) string {
	return "epsilon_closure_s" + itoa(int(id))
}

// emitEpsilonClosureFunctions defines the body of every function
// planEpsilonClosureFunctions declared, from the closures it already
// computed. Each body is a flat, non-recursive-within-itself sequence of
// sparse-set inserts for Unconditional, followed — only if the state has
// any lookaround entries — by a guarded pass over them: this is the fix
// for the cyclic-NFA case, since Unconditional was already walked to a
// fixed point at compile time and contains no back edges to flatten at
// runtime. The only call a defined function makes into another state's own
// epsilon_closure_sN is for a lookaround's Next, which is always a
// separately and independently flattened function — it carries no risk of
// reintroducing the cycle computeEpsilonClosure just broke.
func emitEpsilonClosureFunctions(c *Context) {
	for id := 0; id < c.NFA.NumStates(); id++ {
		sid := automaton.StateID(id)
		fn, ok := c.epsilonClosureFn(sid)
		if !ok {
			continue
		}
		cb := wasmenc.NewCodeBuilder()
		emitEpsilonClosureBody(c, cb, c.epsilonClosures[sid])
		c.defineFunc(fn, []wasmenc.ValType{wasmenc.I32}, cb)
	}
}

// emitEpsilonClosureBody inserts every state in cl.Unconditional into the
// sparse set in order, threading the updated length through each call, then
// — if cl has any lookaround entries — tees the result into ecNewLen and
// only evaluates the lookaround gate if that insert pass actually grew the
// set relative to the length this function was called with (mirroring the
// ground compiler's epsilon_closure_fn_def: a Look whose owning state was
// reached by a path that inserted nothing new has already had its
// assertion evaluated by whichever earlier call first reached it).
func emitEpsilonClosureBody(c *Context, cb *wasmenc.CodeBuilder, cl epsilonClosure) {
	cb.LocalGet(ecSetLen)
	for _, sid := range cl.Unconditional {
		cb.I32Const(int32(sid))
		cb.LocalGet(ecSetPtr)
		cb.Call(c.FnSparseInsert)
	}

	if len(cl.Lookaround) == 0 {
		return
	}

	cb.LocalTee(ecNewLen)
	cb.LocalGet(ecSetLen)
	cb.I32Ne()
	cb.If(wasmenc.BlockType{})
	for _, lk := range cl.Lookaround {
		emitLookaroundEntry(c, cb, lk)
	}
	cb.End()
	cb.LocalGet(ecNewLen)
}

// emitLookaroundEntry calls lk.Look's matcher and, if it holds at the
// current position, folds lk.Next into the set: by calling its own
// dedicated closure function if one exists, or inserting it directly if its
// closure was omitted as trivial.
func emitLookaroundEntry(c *Context, cb *wasmenc.CodeBuilder, lk epsilonLook) {
	fn, ok := c.lookFn(lk.Look)
	if !ok {
		panic("wasmcompile: epsilon closure references unemitted look kind " + lk.Look.String())
	}
	cb.LocalGet(ecHayPtr)
	cb.LocalGet(ecHayLen)
	cb.LocalGet(ecAt)
	cb.Call(fn)
	cb.If(wasmenc.BlockType{})
	if nextFn, ok := c.epsilonClosureFn(lk.Next); ok {
		cb.LocalGet(ecSetPtr)
		cb.LocalGet(ecNewLen)
		cb.LocalGet(ecHayPtr)
		cb.LocalGet(ecHayLen)
		cb.LocalGet(ecAt)
		cb.Call(nextFn)
	} else {
		cb.LocalGet(ecNewLen)
		cb.I32Const(int32(lk.Next))
		cb.LocalGet(ecSetPtr)
		cb.Call(c.FnSparseInsert)
	}
	cb.LocalSet(ecNewLen)
	cb.End()
}

// branch_to_epsilon_closure parameter indices: state_id is prepended to
// the shared epsilon-closure parameter list.
const (
	ecDispatchStateID = 0
	ecDispatchSetPtr  = 1
	ecDispatchSetLen  = 2
	ecDispatchHayPtr  = 3
	ecDispatchHayLen  = 4
	ecDispatchAt      = 5
)

// emitBranchEpsilonClosure declares and defines
// branch_to_epsilon_closure(state_id i32, set_ptr i64, set_len i32,
// haystack_ptr i64, haystack_len i64, at i64) -> i32 new_len: the runtime
// entry point used whenever the interpreter needs the closure of an
// arbitrary state_id, dispatched via an ascending if-chain (spec.md §4.3).
func emitBranchEpsilonClosure(c *Context) {
	fn := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I64, wasmenc.I32, wasmenc.I64, wasmenc.I64, wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32},
		"branch_to_epsilon_closure",
	)
	cb := wasmenc.NewCodeBuilder()
	n := c.NFA.NumStates()
	for id := 0; id < n; id++ {
		sid := automaton.StateID(id)
		cb.LocalGet(ecDispatchStateID)
		cb.I32Const(int32(id))
		cb.I32Eq()
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		emitDispatchRecurse(c, cb, sid)
		cb.Return()
		cb.Else()
	}
	// No state matched: shouldn't happen for a well-formed state_id, but
	// leave the set unchanged rather than trapping.
	cb.LocalGet(ecDispatchSetLen)
	for range make([]struct{}, n) {
		cb.End()
	}
	c.defineFunc(fn, nil, cb)
	c.FnBranchEpsilon = fn
}

func emitDispatchRecurse(c *Context, cb *wasmenc.CodeBuilder, sid automaton.StateID) {
	if fn, ok := c.epsilonClosureFn(sid); ok {
		cb.LocalGet(ecDispatchSetPtr)
		cb.LocalGet(ecDispatchSetLen)
		cb.LocalGet(ecDispatchHayPtr)
		cb.LocalGet(ecDispatchHayLen)
		cb.LocalGet(ecDispatchAt)
		cb.Call(fn)
		return
	}
	cb.LocalGet(ecDispatchSetLen)
	cb.I32Const(int32(sid))
	cb.LocalGet(ecDispatchSetPtr)
	cb.Call(c.FnSparseInsert)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
