package wasmcompile

import "github.com/coregx/regexwasm/internal/wasmenc"

// emitIsMatch declares and defines is_match(anchored i32, anchored_pattern
// i32, span_start i64, span_end i64, haystack_len i64) -> i32 bool: the
// exported PikeVM sweep (spec.md §4.7, §6). It runs the two sparse sets as
// alternating "current"/"next" thread lists over `[span_start, span_end]`,
// seeding a fresh start thread at every position for an unanchored search
// (boolean matching needs no leftmost bookkeeping: any thread reaching
// Match anywhere answers the question), and only at `span_start` for an
// anchored one.
func emitIsMatch(c *Context, isMatchStateFn uint32) {
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32, wasmenc.I64, wasmenc.I64, wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32},
		"is_match",
	)
	const (
		pMode      = 0
		pPattern   = 1
		pSpanStart = 2
		pSpanEnd   = 3
		pHayLen    = 4

		lStart      = 5
		lIsAnchored = 6
		lIsSome     = 7
		lCurBase    = 8
		lNextBase   = 9
		lCurLen     = 10
		lNextLen    = 11
		lAt         = 12
		lByte       = 13
		lI          = 14
		lState      = 15
		lHasNext    = 16
		lNextState  = 17
		lTmp64      = 18
		lTmp32      = 19
	)
	cb := wasmenc.NewCodeBuilder()

	cb.LocalGet(pMode)
	cb.LocalGet(pPattern)
	cb.Call(c.FnStartConfig)
	// stack (top first): is_some, is_anchored, start
	cb.LocalSet(lIsSome)
	cb.LocalSet(lIsAnchored)
	cb.LocalSet(lStart)

	cb.LocalGet(lIsSome)
	cb.I32Eqz()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.Return()
	cb.End()

	cb.I64Const(int64(c.SetCurrent.DenseOffset)).LocalSet(lCurBase)
	cb.I64Const(int64(c.SetNext.DenseOffset)).LocalSet(lNextBase)
	cb.I32Const(0).LocalSet(lCurLen)
	cb.LocalGet(pSpanStart).LocalSet(lAt)

	cb.Block(wasmenc.BlockType{Result: vt(wasmenc.I32)}) // label for A: outer, carries the return value
	cb.Loop(wasmenc.BlockType{})                          // label for B: sweep, continue = next position
	{
		// at > span_end: no more positions to try
		cb.LocalGet(lAt)
		cb.LocalGet(pSpanEnd)
		cb.I64GtU()
		cb.If(wasmenc.BlockType{})
		cb.I32Const(0)
		cb.Br(2) // out to A with result 0: this if (0), loop B (1), block A (2)
		cb.End()

		// anchored search with an already-empty current set, past the only
		// seed point: no further seeds are possible, so this can never match.
		cb.LocalGet(lCurLen)
		cb.I32Eqz()
		cb.LocalGet(lIsAnchored)
		cb.I32And()
		cb.LocalGet(lAt)
		cb.LocalGet(pSpanStart)
		cb.I64GtU()
		cb.I32And()
		cb.If(wasmenc.BlockType{})
		cb.I32Const(0)
		cb.Br(2) // out to A with result 0: this if (0), loop B (1), block A (2)
		cb.End()

		// seed: every position if unanchored, else only at == span_start
		cb.LocalGet(lIsAnchored)
		cb.I32Eqz()
		cb.LocalGet(lAt)
		cb.LocalGet(pSpanStart)
		cb.I64Eq()
		cb.I32Or()
		cb.If(wasmenc.BlockType{})
		cb.LocalGet(lStart)
		cb.LocalGet(lCurBase)
		cb.LocalGet(lCurLen)
		cb.I64Const(0)
		cb.LocalGet(pHayLen)
		cb.LocalGet(lAt)
		cb.Call(c.FnBranchEpsilon)
		cb.LocalSet(lCurLen)
		cb.End()

		// scan current set for a Match state
		cb.I32Const(0).LocalSet(lI)
		cb.Block(wasmenc.BlockType{}) // C: break -> no match in this set
		cb.Loop(wasmenc.BlockType{})  // D: continue -> next thread
		{
			cb.LocalGet(lI).LocalGet(lCurLen).I32GeU().BrIf(1)

			c.stateIDAddrFromLocal(cb, lCurBase, lI)
			c.loadStateID(cb, 0)
			cb.LocalSet(lState)

			cb.LocalGet(lState)
			cb.Call(isMatchStateFn)
			if c.HasUTF8IsBoundary {
				cb.I64Const(0)
				cb.LocalGet(pHayLen)
				cb.LocalGet(lAt)
				cb.Call(c.FnUTF8IsBoundary)
				cb.I32And()
			}
			cb.If(wasmenc.BlockType{})
			cb.I32Const(1)
			cb.Br(4) // out to A with result 1: this if (0), loop D (1), block C (2), loop B (3), block A (4)
			cb.End()

			cb.LocalGet(lI).I32Const(1).I32Add().LocalSet(lI)
			cb.Br(0)
		}
		cb.End() // D
		cb.End() // C

		// span exhausted: no more bytes to consume within [span_start, span_end)
		cb.LocalGet(lAt)
		cb.LocalGet(pSpanEnd)
		cb.I64GeU()
		cb.If(wasmenc.BlockType{})
		cb.I32Const(0)
		cb.Br(2) // out to A with result 0: this if (0), loop B (1), block A (2)
		cb.End()

		cb.I64Const(0)
		cb.LocalGet(lAt)
		cb.I64Add()
		cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
		cb.LocalSet(lByte)

		cb.I32Const(0).LocalSet(lNextLen)
		cb.I32Const(0).LocalSet(lI)
		cb.Block(wasmenc.BlockType{}) // E: break -> done sweeping transitions
		cb.Loop(wasmenc.BlockType{})  // F: continue -> next thread
		{
			cb.LocalGet(lI).LocalGet(lCurLen).I32GeU().BrIf(1)

			c.stateIDAddrFromLocal(cb, lCurBase, lI)
			c.loadStateID(cb, 0)
			cb.LocalSet(lState)

			cb.LocalGet(lState)
			cb.LocalGet(lByte)
			cb.I32Const(1)
			cb.Call(c.FnBranchTransition)
			// stack: has_next, next_state (next_state on top)
			cb.LocalSet(lNextState)
			cb.LocalSet(lHasNext)

			cb.LocalGet(lHasNext)
			cb.If(wasmenc.BlockType{})
			cb.LocalGet(lNextState)
			cb.LocalGet(lNextBase)
			cb.LocalGet(lNextLen)
			cb.I64Const(0)
			cb.LocalGet(pHayLen)
			cb.LocalGet(lAt)
			cb.I64Const(1)
			cb.I64Add()
			cb.Call(c.FnBranchEpsilon)
			cb.LocalSet(lNextLen)
			cb.End()

			cb.LocalGet(lI).I32Const(1).I32Add().LocalSet(lI)
			cb.Br(0)
		}
		cb.End() // F
		cb.End() // E

		// swap current/next roles and advance
		cb.LocalGet(lCurBase).LocalSet(lTmp64)
		cb.LocalGet(lNextBase).LocalSet(lCurBase)
		cb.LocalGet(lTmp64).LocalSet(lNextBase)

		cb.LocalGet(lCurLen).LocalSet(lTmp32)
		cb.LocalGet(lNextLen).LocalSet(lCurLen)
		cb.LocalGet(lTmp32).LocalSet(lNextLen)

		cb.LocalGet(lAt).I64Const(1).I64Add().LocalSet(lAt)
		cb.Br(0) // continue B
	}
	cb.End() // B
	cb.End() // A

	c.defineFunc(idx, []wasmenc.ValType{
		wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I64, wasmenc.I64,
		wasmenc.I32, wasmenc.I32, wasmenc.I64, wasmenc.I32, wasmenc.I32,
		wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I64, wasmenc.I32,
	}, cb)
	c.FnIsMatch = idx
}
