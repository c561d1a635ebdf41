package wasmcompile

import "github.com/coregx/regexwasm/internal/wasmenc"

// Anchored-mode tags accepted by start_config's anchored_mode parameter,
// part of the stable ABI (spec.md §6).
const (
	AnchoredModeUnanchored int32 = 0
	AnchoredModeAnchored   int32 = 1
	AnchoredModePattern    int32 = 2
)

// Status codes returned by prepare_input (spec.md §6).
const (
	PrepareInputNoGrowth int32 = 0
	PrepareInputGrowth   int32 = 1
)

// emitPrepareInput declares and defines prepare_input(haystack_len i64) ->
// i32 status: grows the haystack memory (memory 0) to fit haystack_len
// bytes at the fixed start offset (always zero in this compiler), returning
// PrepareInputNoGrowth if the memory is already big enough and PrepareInputGrowth if
// it had to grow. Traps via `unreachable` if memory.grow refuses (spec.md
// §5, §6: "Traps on grow failure" — all other paths are total).
func emitPrepareInput(c *Context) {
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32},
		"prepare_input",
	)
	const (
		pHayLen = 0
		lNeeded = 1
		lCur    = 2
	)
	cb := wasmenc.NewCodeBuilder()
	page := int64(c.Config.PageSize)

	// haystack_len (+ haystack_start_pos, always 0 here) == 0: nothing to grow.
	cb.LocalGet(pHayLen)
	cb.I64Eqz()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(PrepareInputNoGrowth)
	cb.Return()
	cb.End()

	// needed = floor((haystack_len - 1) / page_size) + 1
	cb.LocalGet(pHayLen)
	cb.I64Const(1)
	cb.I64Sub()
	cb.I64Const(page)
	cb.I64DivU()
	cb.I64Const(1)
	cb.I64Add()
	cb.LocalSet(lNeeded)

	cb.MemorySize(MemHaystack)
	cb.LocalSet(lCur)

	// Signed comparison: after prior calls, current pages may already
	// exceed what this call needs.
	cb.LocalGet(lCur)
	cb.LocalGet(lNeeded)
	cb.I64GeS()
	cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
	cb.I32Const(PrepareInputNoGrowth)
	cb.Else()
	cb.LocalGet(lNeeded)
	cb.LocalGet(lCur)
	cb.I64Sub()
	cb.MemoryGrow(MemHaystack)
	cb.I64Const(0)
	cb.I64LtS()
	cb.If(wasmenc.BlockType{})
	cb.Unreachable()
	cb.End()
	cb.I32Const(PrepareInputGrowth)
	cb.End()

	c.defineFunc(idx, []wasmenc.ValType{wasmenc.I64, wasmenc.I64}, cb)
	c.FnPrepareInput = idx
}

// emitStartConfig declares and defines start_config(anchored_mode i32,
// anchored_pattern i32) -> (start_state i32, is_anchored i32, is_some
// i32): resolves the ABI's three anchoring modes (spec.md §6) against the
// compiled NFA's start states and pattern table.
func emitStartConfig(c *Context) {
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32},
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32, wasmenc.I32},
		"start_config",
	)
	const (
		pMode    = 0
		pPattern = 1
		lOk      = 2
	)
	cb := wasmenc.NewCodeBuilder()

	// anchored_mode == Pattern
	cb.LocalGet(pMode)
	cb.I32Const(AnchoredModePattern)
	cb.I32Eq()
	cb.If(wasmenc.BlockType{})
	cb.LocalGet(pPattern)
	cb.Call(c.FnLookupStart)
	// stack: start, ok (ok on top)
	cb.LocalSet(lOk)
	cb.I32Const(1)
	cb.LocalGet(lOk)
	cb.Return()
	cb.End()

	// anchored_mode == Anchored
	cb.LocalGet(pMode)
	cb.I32Const(AnchoredModeAnchored)
	cb.I32Eq()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(int32(c.NFA.StartAnchored))
	cb.I32Const(1)
	cb.I32Const(1)
	cb.Return()
	cb.End()

	// anchored_mode == Unanchored
	anchoredEquiv := int32(0)
	if c.NFA.IsAlwaysAnchored() {
		anchoredEquiv = 1
	}
	cb.I32Const(int32(c.NFA.StartUnanchored))
	cb.I32Const(anchoredEquiv)
	cb.I32Const(1)

	c.defineFunc(idx, []wasmenc.ValType{wasmenc.I32}, cb)
	c.FnStartConfig = idx
}

// emitUTF8IsBoundary declares and defines utf8_is_boundary(haystack_ptr
// i64, haystack_len i64, at i64) -> i32 bool: `at == haystack_len` when at
// is past the end, else whether the byte at `at` is an ASCII byte or a
// UTF-8 leading byte rather than a continuation byte (spec.md §4.6, §6).
// Only emitted when the NFA can match the empty string in UTF-8 mode
// (automaton.NFA.CanMatchEmpty, automaton.NFA.UTF8) — every other caller of
// is_match can never observe a zero-width match landing mid-codepoint.
func emitUTF8IsBoundary(c *Context) {
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I64, wasmenc.I64, wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32},
		"utf8_is_boundary",
	)
	const (
		pPtr  = 0
		pLen  = 1
		pAt   = 2
		lByte = 3
	)
	cb := wasmenc.NewCodeBuilder()

	// if at_offset >= haystack_len: return at_offset == haystack_len
	cb.LocalGet(pAt).LocalGet(pLen).I64GeU()
	cb.If(wasmenc.BlockType{})
	cb.LocalGet(pAt).LocalGet(pLen).I64Eq()
	cb.Return()
	cb.End()

	cb.LocalGet(pPtr)
	cb.LocalGet(pAt)
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
	cb.LocalSet(lByte)

	cb.LocalGet(lByte).I32Const(0x7F).I32LeU()
	cb.LocalGet(lByte).I32Const(0xC0).I32GeU()
	cb.I32Or()

	c.defineFunc(idx, []wasmenc.ValType{wasmenc.I32}, cb)
	c.FnUTF8IsBoundary = idx
	c.HasUTF8IsBoundary = true
}
