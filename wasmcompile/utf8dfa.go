package wasmcompile

import "github.com/coregx/regexwasm/internal/wasmenc"

// UTF-8 decode DFA tables, carried over byte-for-byte from
// original_source/core/src/compile/lookaround/perl_word_optimized.rs
// (SPEC_FULL.md F.3 item 3): spec.md §4.4 describes their use but not their
// contents, and this is the only faithful origin for the exact values.
const (
	utf8DFAAccept uint32 = 12
	utf8DFAReject uint32 = 0
	// InvalidChar is the sentinel returned on malformed input: one past the
	// maximum valid codepoint (spec.md glossary, "INVALID_CHAR").
	InvalidChar uint32 = 0x110000
)

var utf8DFAClasses = [256]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	8, 8, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	10, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 3, 3, 11, 6, 6, 6, 5, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
}

var utf8DFAStatesForward = [108]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	12, 0, 24, 36, 60, 96, 84, 0, 0, 0, 48, 72,
	0, 12, 0, 0, 0, 0, 0, 12, 0, 12, 0, 0,
	0, 24, 0, 0, 0, 0, 0, 24, 0, 24, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 24, 0, 0, 0, 0,
	0, 24, 0, 0, 0, 0, 0, 0, 0, 24, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 36, 0, 36, 0, 0,
	0, 36, 0, 0, 0, 0, 0, 36, 0, 36, 0, 0,
	0, 36, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// UTF8Tables records where the two constant decode tables live in state
// memory.
type UTF8Tables struct {
	ClassesOffset      uint64
	StatesForwardOffset uint64
}

func planUTF8Tables(c *Context) UTF8Tables {
	classesOff := c.addStateData(utf8DFAClasses[:], "utf8_decode_classes_table")
	statesOff := c.addStateData(utf8DFAStatesForward[:], "utf8_decode_states_forward_table")
	return UTF8Tables{ClassesOffset: classesOff, StatesForwardOffset: statesOff}
}

// emitDecodeNextCharacter declares and defines
// utf8_decode_next_character(ptr i64, len i64) -> (codepoint i32, size i32)
// per spec.md §4.4's forward decode algorithm.
func emitDecodeNextCharacter(c *Context, tables UTF8Tables) uint32 {
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I64, wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32},
		"utf8_decode_next_character",
	)
	const (
		pPtr = 0
		pLen = 1
		// locals
		lState     = 2
		lCodepoint = 3
		lConsumed  = 4
		lByte      = 5
		lClass     = 6
		lSize      = 7
		lTmp       = 8
	)
	cb := wasmenc.NewCodeBuilder()
	cb.I32Const(int32(utf8DFAAccept)).LocalSet(lState)
	// codepoint, consumed start at 0 (locals are zero-initialized)

	cb.Loop(wasmenc.BlockType{})
	{
		// if consumed >= len: truncated input, report invalid
		cb.LocalGet(lConsumed).I64ExtendI32U()
		cb.LocalGet(pLen)
		cb.I64GeU()
		cb.If(wasmenc.BlockType{})
		emitMax1(cb, lConsumed, lSize)
		cb.I32Const(int32(InvalidChar))
		cb.LocalGet(lSize)
		cb.Return()
		cb.End()

		// byte = load8u(ptr + consumed)
		cb.LocalGet(pPtr)
		cb.LocalGet(lConsumed).I64ExtendI32U()
		cb.I64Add()
		cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
		cb.LocalSet(lByte)

		// class = CLASSES[byte]
		cb.I64Const(int64(tables.ClassesOffset))
		cb.LocalGet(lByte).I64ExtendI32U()
		cb.I64Add()
		cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemState})
		cb.LocalSet(lClass)

		// if state == ACCEPT: codepoint = (0xFF >> class) & byte
		// else: codepoint = (codepoint << 6) | (byte & 0x3F)
		cb.LocalGet(lState).I32Const(int32(utf8DFAAccept)).I32Eq()
		cb.If(wasmenc.BlockType{})
		cb.I32Const(0xFF)
		cb.LocalGet(lClass).I32ShrU()
		cb.LocalGet(lByte)
		cb.I32And()
		cb.LocalSet(lCodepoint)
		cb.Else()
		cb.LocalGet(lCodepoint).I32Const(6).I32Shl()
		cb.LocalGet(lByte).I32Const(0x3F).I32And()
		cb.I32Or()
		cb.LocalSet(lCodepoint)
		cb.End()

		// state = STATES_FORWARD[state + class]
		cb.I64Const(int64(tables.StatesForwardOffset))
		cb.LocalGet(lState).LocalGet(lClass).I32Add().I64ExtendI32U()
		cb.I64Add()
		cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemState})
		cb.LocalSet(lState)

		cb.LocalGet(lConsumed).I32Const(1).I32Add().LocalSet(lConsumed)

		cb.LocalGet(lState).I32Const(int32(utf8DFAAccept)).I32Eq()
		cb.If(wasmenc.BlockType{})
		cb.LocalGet(lCodepoint)
		cb.LocalGet(lConsumed)
		cb.Return()
		cb.End()

		cb.LocalGet(lState).I32Const(int32(utf8DFAReject)).I32Eq()
		cb.If(wasmenc.BlockType{})
		cb.LocalGet(lConsumed).I32Const(1).I32Sub().LocalSet(lTmp)
		emitMax1(cb, lTmp, lSize)
		cb.I32Const(int32(InvalidChar))
		cb.LocalGet(lSize)
		cb.Return()
		cb.End()

		cb.Br(0)
	}
	cb.End() // loop

	c.defineFunc(idx, []wasmenc.ValType{
		wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I32,
	}, cb)
	return idx
}

// emitMax1 computes max(1, x) where x is an i32 local holding a possibly
// negative or zero value, storing the result into out.
func emitMax1(cb *wasmenc.CodeBuilder, x, out uint32) {
	cb.LocalGet(x)
	cb.I32Const(1)
	cb.LocalGet(x)
	cb.I32Const(1)
	cb.I32GtS()
	cb.Select()
	cb.LocalSet(out)
}

func vt(v wasmenc.ValType) *wasmenc.ValType { return &v }

// emitDecodeLastCharacter declares and defines
// utf8_decode_last_character(ptr i64, upto i64) -> (codepoint i32, size
// i32): walk backward from upto over up to 4 continuation bytes, then
// forward-decode from the resulting start (spec.md §4.4, "UTF-8 decode
// reverse").
func emitDecodeLastCharacter(c *Context, decodeNext uint32) uint32 {
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I64, wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32},
		"utf8_decode_last_character",
	)
	const (
		pPtr  = 0
		pUpto = 1
		// locals
		lStart = 2
		lCount = 3
		lCp    = 4
		lSize  = 5
	)
	cb := wasmenc.NewCodeBuilder()
	cb.LocalGet(pUpto).LocalSet(lStart)
	// count starts at 0 (zero-initialized local)

	cb.Block(wasmenc.BlockType{}) // label 1 (outer): break here to stop walking back
	cb.Loop(wasmenc.BlockType{})  // label 0 (inner): br here to continue
	{
		// stop if start == 0 or count == 4
		cb.LocalGet(lStart).I64Const(0).I64Eq()
		cb.LocalGet(lCount).I32Const(4).I32GeS()
		cb.I32Or()
		cb.BrIf(1)

		// stop if byte at (start-1) is not a continuation byte (top bits != 0b10)
		cb.LocalGet(pPtr)
		cb.LocalGet(lStart).I64Const(1).I64Sub()
		cb.I64Add()
		cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
		cb.I32Const(0xC0)
		cb.I32And()
		cb.I32Const(0x80)
		cb.I32Ne()
		cb.BrIf(1)

		cb.LocalGet(lStart).I64Const(1).I64Sub().LocalSet(lStart)
		cb.LocalGet(lCount).I32Const(1).I32Add().LocalSet(lCount)
		cb.Br(0)
	}
	cb.End() // loop
	cb.End() // block

	// decode from (ptr+start, upto-start)
	cb.LocalGet(pPtr).LocalGet(lStart).I64Add()
	cb.LocalGet(pUpto).LocalGet(lStart).I64Sub()
	cb.Call(decodeNext)
	cb.LocalSet(lSize)
	cb.LocalSet(lCp)

	// if size != upto-start: invalid
	cb.LocalGet(lSize).I64ExtendI32U()
	cb.LocalGet(pUpto).LocalGet(lStart).I64Sub()
	cb.I64Ne()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(int32(InvalidChar))
	cb.I32Const(1)
	cb.Return()
	cb.End()

	cb.LocalGet(lCp)
	cb.LocalGet(lSize)

	c.defineFunc(idx, []wasmenc.ValType{wasmenc.I64, wasmenc.I32, wasmenc.I32, wasmenc.I32}, cb)
	return idx
}
