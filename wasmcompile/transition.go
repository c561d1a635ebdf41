package wasmcompile

import (
	"github.com/coregx/regexwasm/automaton"
	"github.com/coregx/regexwasm/internal/wasmenc"
)

// TransitionLayout records where each Sparse/Dense state's range or
// next-state table lives in state memory (spec.md §2, "Transition Layout
// + Functions"). ByteRange states need no extra table: their single
// [Start,End]->Next triple is baked into the function body as constants.
type TransitionLayout struct {
	SparseTables map[automaton.StateID]sparseRangeTable
	DenseTables  map[automaton.StateID]uint64
}

type sparseRangeTable struct {
	Offset uint64
	Count  int
}

// invalidStatePattern returns the bit pattern that marks "no transition"
// in a Dense table entry encoded at the compiler's chosen state-ID width:
// all-ones, matching automaton.InvalidStateID truncated to that width.
//
// chooseStateIDWidth (stateid.go) bumps to the next width strictly before
// NumStates would reach the current width's representable count, so a
// valid state ID never equals this sentinel.
func (c *Context) invalidStatePattern() int32 {
	return int32(c.StateWidth.Encode32(automaton.InvalidStateID))
}

// planTransitionTables lays out the Sparse range tables and Dense
// next-state tables the NFA's states need.
func planTransitionTables(c *Context) TransitionLayout {
	tl := TransitionLayout{
		SparseTables: make(map[automaton.StateID]sparseRangeTable),
		DenseTables:  make(map[automaton.StateID]uint64),
	}
	for id := 0; id < c.NFA.NumStates(); id++ {
		sid := automaton.StateID(id)
		st := c.NFA.State(sid)
		switch st.Kind {
		case automaton.KindSparse:
			var data []byte
			for _, r := range st.Sparse {
				data = append(data, r.Start, r.End)
				data = append(data, c.StateWidth.Encode(r.Next)...)
			}
			offset := c.addStateData(data, "sparse_ranges_s"+itoa(id))
			tl.SparseTables[sid] = sparseRangeTable{Offset: offset, Count: len(st.Sparse)}
		case automaton.KindDense:
			data := make([]byte, 0, 256*int(c.StateWidth))
			for b := 0; b < 256; b++ {
				next := st.Dense[b]
				data = append(data, c.StateWidth.Encode(next)...)
			}
			offset := c.addStateData(data, "dense_table_s"+itoa(id))
			tl.DenseTables[sid] = offset
		}
	}
	return tl
}

func isByteConsumingState(k automaton.Kind) bool {
	switch k {
	case automaton.KindByteRange, automaton.KindSparse, automaton.KindDense:
		return true
	default:
		return false
	}
}

// emitTransitionFunctions declares and defines one transition_sN(byte i32,
// byte_valid i32) -> (has_next i32, next_state i32) function per
// byte-consuming state (spec.md §4.5). byte_valid is 0 at end of input,
// in which case every state trivially reports no transition.
func emitTransitionFunctions(c *Context) {
	ft := wasmenc.FuncType{
		Params:  []wasmenc.ValType{wasmenc.I32, wasmenc.I32},
		Results: []wasmenc.ValType{wasmenc.I32, wasmenc.I32},
	}
	for id := 0; id < c.NFA.NumStates(); id++ {
		sid := automaton.StateID(id)
		st := c.NFA.State(sid)
		if !isByteConsumingState(st.Kind) {
			continue
		}
		fn := c.Mod.DeclareFunction(ft, "transition_s"+itoa(id))
		c.setTransitionFn(sid, fn)
	}
	for id := 0; id < c.NFA.NumStates(); id++ {
		sid := automaton.StateID(id)
		st := c.NFA.State(sid)
		if !isByteConsumingState(st.Kind) {
			continue
		}
		fn, _ := c.transitionFn(sid)
		cb := wasmenc.NewCodeBuilder()
		emitNoTransitionOnEOF(cb)
		switch st.Kind {
		case automaton.KindByteRange:
			emitByteRangeTransition(cb, st.ByteRange)
		case automaton.KindSparse:
			emitSparseTransition(c, cb, c.Transition.SparseTables[sid])
		case automaton.KindDense:
			emitDenseTransition(c, cb, c.Transition.DenseTables[sid])
		}
		c.defineFunc(fn, transitionLocals(st.Kind), cb)
	}
}

const (
	trByte  = 0
	trValid = 1
)

func transitionLocals(k automaton.Kind) []wasmenc.ValType {
	switch k {
	case automaton.KindSparse:
		return []wasmenc.ValType{wasmenc.I32, wasmenc.I64} // loop index, entry address
	case automaton.KindDense:
		return []wasmenc.ValType{wasmenc.I32} // next value
	default:
		return nil
	}
}

func emitNoTransitionOnEOF(cb *wasmenc.CodeBuilder) {
	cb.LocalGet(trValid).I32Eqz()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.I32Const(0)
	cb.Return()
	cb.End()
}

func emitByteRangeTransition(cb *wasmenc.CodeBuilder, br automaton.ByteRange) {
	cb.LocalGet(trByte)
	cb.I32Const(int32(br.Start))
	cb.I32GeU()
	cb.LocalGet(trByte)
	cb.I32Const(int32(br.End))
	cb.I32LeU()
	cb.I32And()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(1)
	cb.I32Const(int32(br.Next))
	cb.Return()
	cb.End()
	cb.I32Const(0)
	cb.I32Const(0)
}

// emitSparseTransition walks the state's sorted range table at runtime (a
// simple linear scan, spec.md §4.5 — ranges are typically few per state).
// Each entry is laid out as [start_byte, end_byte, next_state (StateWidth
// bytes)].
func emitSparseTransition(c *Context, cb *wasmenc.CodeBuilder, table sparseRangeTable) {
	const (
		lI    = 2
		lAddr = 3
	)
	entrySize := int64(2 + int(c.StateWidth))

	cb.I32Const(0).LocalSet(lI)
	cb.Block(wasmenc.BlockType{}) // label 1: break -> no match found
	cb.Loop(wasmenc.BlockType{})  // label 0: continue -> next entry
	{
		cb.LocalGet(lI).I32Const(int32(table.Count)).I32GeU().BrIf(1)

		// addr = table.Offset + i*entrySize
		cb.I64Const(int64(table.Offset))
		cb.LocalGet(lI).I64ExtendI32U()
		cb.I64Const(entrySize)
		cb.I64Mul()
		cb.I64Add()
		cb.LocalSet(lAddr)

		// if byte >= start && byte <= end: return (1, next)
		cb.LocalGet(trByte)
		cb.LocalGet(lAddr)
		cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemState})
		cb.I32GeU()
		cb.LocalGet(trByte)
		cb.LocalGet(lAddr)
		cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemState, Offset: 1})
		cb.I32LeU()
		cb.I32And()
		cb.If(wasmenc.BlockType{})
		cb.I32Const(1)
		cb.LocalGet(lAddr)
		c.loadStateID(cb, 2)
		cb.Return()
		cb.End()

		cb.LocalGet(lI).I32Const(1).I32Add().LocalSet(lI)
		cb.Br(0)
	}
	cb.End() // loop
	cb.End() // block

	cb.I32Const(0)
	cb.I32Const(0)
}

// emitDenseTransition indexes the state's 256-entry next-state table
// directly by byte value: O(1), no loop needed (spec.md §4.5).
func emitDenseTransition(c *Context, cb *wasmenc.CodeBuilder, offset uint64) {
	const lNext = 2
	cb.I64Const(int64(offset))
	cb.LocalGet(trByte).I64ExtendI32U()
	cb.I64Const(int64(c.StateWidth))
	cb.I64Mul()
	cb.I64Add()
	c.loadStateID(cb, 0)
	cb.LocalSet(lNext)

	cb.LocalGet(lNext)
	cb.I32Const(c.invalidStatePattern())
	cb.I32Eq()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.I32Const(0)
	cb.Return()
	cb.End()
	cb.I32Const(1)
	cb.LocalGet(lNext)
}

// emitIsMatchState declares and defines is_match_state(state_id i32) ->
// i32 bool: true iff state_id names a Match state. Dispatched via an
// ascending if-chain like branch_to_epsilon_closure (spec.md §4.6).
func emitIsMatchState(c *Context) uint32 {
	idx := c.declareFunc([]wasmenc.ValType{wasmenc.I32}, []wasmenc.ValType{wasmenc.I32}, "is_match_state")
	cb := wasmenc.NewCodeBuilder()
	for id := 0; id < c.NFA.NumStates(); id++ {
		st := c.NFA.State(automaton.StateID(id))
		if st.Kind != automaton.KindMatch {
			continue
		}
		cb.LocalGet(0)
		cb.I32Const(int32(id))
		cb.I32Eq()
		cb.If(wasmenc.BlockType{})
		cb.I32Const(1)
		cb.Return()
		cb.End()
	}
	cb.I32Const(0)
	c.defineFunc(idx, nil, cb)
	return idx
}

// emitBranchTransition declares and defines branch_to_transition(state_id
// i32, byte i32, byte_valid i32) -> (has_next i32, next_state i32),
// dispatching to the matching state's transition_sN (spec.md §4.5).
// States with no transition function (Match, Fail, and epsilon-control
// kinds, which never appear in a sparse set post-closure) fall through to
// (0, 0).
func emitBranchTransition(c *Context) {
	fn := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32, wasmenc.I32},
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32},
		"branch_to_transition",
	)
	const (
		bState = 0
		bByte  = 1
		bValid = 2
	)
	cb := wasmenc.NewCodeBuilder()
	for id := 0; id < c.NFA.NumStates(); id++ {
		sid := automaton.StateID(id)
		fnIdx, ok := c.transitionFn(sid)
		if !ok {
			continue
		}
		cb.LocalGet(bState)
		cb.I32Const(int32(id))
		cb.I32Eq()
		cb.If(wasmenc.BlockType{})
		cb.LocalGet(bByte)
		cb.LocalGet(bValid)
		cb.Call(fnIdx)
		cb.Return()
		cb.End()
	}
	cb.I32Const(0)
	cb.I32Const(0)
	c.defineFunc(fn, nil, cb)
	c.FnBranchTransition = fn
}
