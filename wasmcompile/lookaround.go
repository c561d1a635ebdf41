package wasmcompile

import (
	"github.com/coregx/regexwasm/automaton"
	"github.com/coregx/regexwasm/internal/wasmenc"
)

// LookaroundLayout records where every lookaround lookup table lives in
// state memory: the ASCII word-byte LUT (always present), and — only when
// the NFA uses a Unicode word-boundary kind — the Unicode word-character
// table and the UTF-8 decode DFA tables (spec.md §3, §4.4).
type LookaroundLayout struct {
	ASCIIWordLUTOffset uint64

	HasUnicode bool
	Unicode    UnicodeWordTable
	UnicodeIdx struct {
		IndexOffset, LeavesOffset uint64
	}
	UTF8 UTF8Tables
}

func asciiWordLUT() [256]byte {
	var lut [256]byte
	isWordByte := func(b byte) bool {
		return b == '_' ||
			(b >= '0' && b <= '9') ||
			(b >= 'A' && b <= 'Z') ||
			(b >= 'a' && b <= 'z')
	}
	for i := 0; i < 256; i++ {
		if isWordByte(byte(i)) {
			lut[i] = 1
		}
	}
	return lut
}

// planLookaround lays out the ASCII word-byte LUT unconditionally and, if
// the NFA's look set (expanded with WithDependencies) uses any Unicode
// word-boundary kind, the Unicode word-character table and UTF-8 decode
// tables too.
func planLookaround(c *Context) LookaroundLayout {
	var l LookaroundLayout
	lut := asciiWordLUT()
	l.ASCIIWordLUTOffset = c.addStateData(lut[:], "is_word_byte_table")

	needsUnicode := false
	c.NFA.LookSetAny().WithDependencies().Iter(func(look automaton.Look) {
		if look.IsUnicodeWord() {
			needsUnicode = true
		}
	})
	if !needsUnicode {
		return l
	}
	l.HasUnicode = true
	l.Unicode = getUnicodeWordTable()
	l.UnicodeIdx.IndexOffset = c.addStateData(l.Unicode.Index, "utf8_is_word_character_index_table")
	l.UnicodeIdx.LeavesOffset = c.addStateData(l.Unicode.Leaves, "utf8_is_word_character_leaves_table")
	l.UTF8 = planUTF8Tables(c)
	return l
}

// emitLUTLookupByte emits "is this byte a word byte" given the byte value
// (i64) is already on the stack: indexes the ASCII word LUT with it.
func (c *Context) emitLUTLookupByte(cb *wasmenc.CodeBuilder) {
	// stack: [i64 byte_value]
	cb.I64Const(int64(c.Lookaround.ASCIIWordLUTOffset))
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemState})
}

// emitLookaroundFunctions declares and defines, for each Look kind the NFA
// actually uses (plus its dependencies, spec.md §4.4), a matcher function
// of signature (haystack_ptr i64, haystack_len i64, at_offset i64) -> i32
// bool. Unicode helper functions (is_word_character,
// utf8_decode_{next,last}_character, is_word_char_{fwd,rev}) are emitted
// once up front if any Unicode word kind is present.
func emitLookaroundFunctions(c *Context) {
	looks := c.NFA.LookSetAny().WithDependencies()

	var fwdIdx, revIdx, isWordCharIdx, decodeNextIdx, decodeLastIdx uint32
	var haveUnicodeHelpers bool
	looks.Iter(func(look automaton.Look) {
		if look.IsUnicodeWord() {
			haveUnicodeHelpers = true
		}
	})
	if haveUnicodeHelpers {
		decodeNextIdx = emitDecodeNextCharacter(c, c.Lookaround.UTF8)
		decodeLastIdx = emitDecodeLastCharacter(c, decodeNextIdx)
		isWordCharIdx = emitIsWordCharacter(c)
		fwdIdx = emitIsWordCharDir(c, false, decodeNextIdx, isWordCharIdx)
		revIdx = emitIsWordCharDir(c, true, decodeLastIdx, isWordCharIdx)
	}

	// Ascii positive form must exist before its negate (spec.md §4.4
	// dependency rule), and WithDependencies() already guarantees it is in
	// `looks` whenever the negate form is. Emit in ascending bit order so
	// WordAscii always precedes WordAsciiNegate naturally.
	looks.Iter(func(look automaton.Look) {
		fn := c.declareFunc(
			[]wasmenc.ValType{wasmenc.I64, wasmenc.I64, wasmenc.I64},
			[]wasmenc.ValType{wasmenc.I32},
			"look_" + look.String(),
		)
		c.setLookFn(look, fn)
	})
	looks.Iter(func(look automaton.Look) {
		fn, _ := c.lookFn(look)
		cb := emitLookBody(c, look, fwdIdx, revIdx, isWordCharIdx, decodeNextIdx, decodeLastIdx)
		c.defineFunc(fn, lookLocals(look), cb)
	})
}

const (
	lookPAt     = 2 // at_offset param index
	lookPLen    = 1
	lookPPtr    = 0
)

func lookLocals(look automaton.Look) []wasmenc.ValType {
	switch look {
	case automaton.LookWordAscii, automaton.LookWordStartAscii, automaton.LookWordEndAscii,
		automaton.LookWordStartHalfAscii, automaton.LookWordEndHalfAscii:
		return []wasmenc.ValType{wasmenc.I32, wasmenc.I32} // wordBefore, wordAfter
	case automaton.LookWordUnicodeNegate:
		return []wasmenc.ValType{wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I32, wasmenc.I32}
	default:
		return nil
	}
}

// emitWordBeforeAfterAscii leaves (wordBefore i32, wordAfter i32) in the
// given locals: false at the haystack boundary, else the ASCII LUT byte.
func emitWordBeforeAfterAscii(c *Context, cb *wasmenc.CodeBuilder, lBefore, lAfter uint32) {
	// wordBefore = at == 0 ? 0 : LUT[haystack[at-1]]
	cb.LocalGet(lookPAt).I64Eqz()
	cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
	cb.I32Const(0)
	cb.Else()
	cb.LocalGet(lookPPtr)
	cb.LocalGet(lookPAt).I64Const(1).I64Sub()
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
	cb.I64ExtendI32U()
	c.emitLUTLookupByte(cb)
	cb.End()
	cb.LocalSet(lBefore)

	// wordAfter = at >= len ? 0 : LUT[haystack[at]]
	cb.LocalGet(lookPAt).LocalGet(lookPLen).I64GeU()
	cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
	cb.I32Const(0)
	cb.Else()
	cb.LocalGet(lookPPtr)
	cb.LocalGet(lookPAt)
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
	cb.I64ExtendI32U()
	c.emitLUTLookupByte(cb)
	cb.End()
	cb.LocalSet(lAfter)
}

func emitLookBody(c *Context, look automaton.Look, fwdIdx, revIdx, isWordCharIdx, decodeNextIdx, decodeLastIdx uint32) *wasmenc.CodeBuilder {
	cb := wasmenc.NewCodeBuilder()
	switch look {
	case automaton.LookStart:
		cb.LocalGet(lookPAt).I64Eqz()

	case automaton.LookEnd:
		cb.LocalGet(lookPAt).LocalGet(lookPLen).I64Eq()

	case automaton.LookStartLF:
		emitAtZeroOrPrevByteEq(c, cb, c.Config.LineTerm)

	case automaton.LookEndLF:
		emitAtEndOrByteEq(c, cb, c.Config.LineTerm)

	case automaton.LookStartCRLF:
		// at==0 || haystack[at-1]=='\n' || (haystack[at-1]=='\r' && (at==len || haystack[at]!='\n'))
		cb.LocalGet(lookPAt).I64Eqz()
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		cb.I32Const(1)
		cb.Else()
		emitPrevByteEq(c, cb, '\n')
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		cb.I32Const(1)
		cb.Else()
		emitPrevByteEq(c, cb, '\r')
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		// at == len || haystack[at] != '\n'
		cb.LocalGet(lookPAt).LocalGet(lookPLen).I64Eq()
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		cb.I32Const(1)
		cb.Else()
		emitCurByteNe(c, cb, '\n')
		cb.End()
		cb.Else()
		cb.I32Const(0)
		cb.End()
		cb.End()
		cb.End()

	case automaton.LookEndCRLF:
		cb.LocalGet(lookPAt).LocalGet(lookPLen).I64Eq()
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		cb.I32Const(1)
		cb.Else()
		emitCurByteEq(c, cb, '\r')
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		cb.I32Const(1)
		cb.Else()
		emitCurByteEq(c, cb, '\n')
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		cb.LocalGet(lookPAt).I64Eqz()
		cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
		cb.I32Const(1)
		cb.Else()
		emitPrevByteNe(c, cb, '\r')
		cb.End()
		cb.Else()
		cb.I32Const(0)
		cb.End()
		cb.End()
		cb.End()

	case automaton.LookWordAscii:
		emitWordBeforeAfterAscii(c, cb, 3, 4)
		cb.LocalGet(3).LocalGet(4).I32Ne()

	case automaton.LookWordAsciiNegate:
		fn, _ := c.lookFn(automaton.LookWordAscii)
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt)
		cb.Call(fn)
		cb.I32Eqz()

	case automaton.LookWordStartAscii:
		emitWordBeforeAfterAscii(c, cb, 3, 4)
		cb.LocalGet(3).I32Eqz()
		cb.LocalGet(4)
		cb.I32And()

	case automaton.LookWordEndAscii:
		emitWordBeforeAfterAscii(c, cb, 3, 4)
		cb.LocalGet(3)
		cb.LocalGet(4).I32Eqz()
		cb.I32And()

	case automaton.LookWordStartHalfAscii:
		emitWordBeforeAfterAscii(c, cb, 3, 4)
		cb.LocalGet(3).I32Eqz()

	case automaton.LookWordEndHalfAscii:
		emitWordBeforeAfterAscii(c, cb, 3, 4)
		cb.LocalGet(4).I32Eqz()

	case automaton.LookWordUnicode:
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(revIdx)
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(fwdIdx)
		cb.I32Ne()

	case automaton.LookWordUnicodeNegate:
		emitWordUnicodeNegate(c, cb, isWordCharIdx, decodeNextIdx, decodeLastIdx)

	case automaton.LookWordStartUnicode:
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(revIdx)
		cb.I32Eqz()
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(fwdIdx)
		cb.I32And()

	case automaton.LookWordEndUnicode:
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(revIdx)
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(fwdIdx)
		cb.I32Eqz()
		cb.I32And()

	case automaton.LookWordStartHalfUnicode:
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(revIdx)
		cb.I32Eqz()

	case automaton.LookWordEndHalfUnicode:
		cb.LocalGet(lookPPtr).LocalGet(lookPLen).LocalGet(lookPAt).Call(fwdIdx)
		cb.I32Eqz()
	}
	return cb
}

func emitAtZeroOrPrevByteEq(c *Context, cb *wasmenc.CodeBuilder, b byte) {
	cb.LocalGet(lookPAt).I64Eqz()
	cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
	cb.I32Const(1)
	cb.Else()
	emitPrevByteEq(c, cb, b)
	cb.End()
}

func emitAtEndOrByteEq(c *Context, cb *wasmenc.CodeBuilder, b byte) {
	cb.LocalGet(lookPAt).LocalGet(lookPLen).I64Eq()
	cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
	cb.I32Const(1)
	cb.Else()
	emitCurByteEq(c, cb, b)
	cb.End()
}

func emitPrevByteEq(c *Context, cb *wasmenc.CodeBuilder, b byte) {
	cb.LocalGet(lookPAt).I64Eqz()
	cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
	cb.I32Const(0)
	cb.Else()
	cb.LocalGet(lookPPtr)
	cb.LocalGet(lookPAt).I64Const(1).I64Sub()
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
	cb.I32Const(int32(b))
	cb.I32Eq()
	cb.End()
}

func emitPrevByteNe(c *Context, cb *wasmenc.CodeBuilder, b byte) {
	emitPrevByteEq(c, cb, b)
	cb.I32Eqz()
}

func emitCurByteEq(c *Context, cb *wasmenc.CodeBuilder, b byte) {
	cb.LocalGet(lookPAt).LocalGet(lookPLen).I64GeU()
	cb.If(wasmenc.BlockType{Result: vt(wasmenc.I32)})
	cb.I32Const(0)
	cb.Else()
	cb.LocalGet(lookPPtr)
	cb.LocalGet(lookPAt)
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemHaystack})
	cb.I32Const(int32(b))
	cb.I32Eq()
	cb.End()
}

func emitCurByteNe(c *Context, cb *wasmenc.CodeBuilder, b byte) {
	emitCurByteEq(c, cb, b)
	cb.I32Eqz()
}

// emitIsWordCharacter declares and defines
// is_word_character(codepoint i32) -> i32 bool per spec.md §4.4: ASCII
// codepoints are answered from the byte LUT, the rest from the two-level
// Unicode table.
func emitIsWordCharacter(c *Context) uint32 {
	idx := c.declareFunc([]wasmenc.ValType{wasmenc.I32}, []wasmenc.ValType{wasmenc.I32}, "is_word_character")
	const (
		pChar = 0
		// locals
		lChunk       = 1
		lIndexOffset = 2
	)
	cb := wasmenc.NewCodeBuilder()

	cb.LocalGet(pChar).I32Const(0x7F).I32LeU()
	cb.If(wasmenc.BlockType{})
	cb.LocalGet(pChar).I64ExtendI32U()
	c.emitLUTLookupByte(cb)
	cb.Return()
	cb.End()

	// index_offset = character / 8 / unicodeWordChunkBytes
	cb.LocalGet(pChar)
	cb.I32Const(8)
	cb.I32Const(int32(unicodeWordChunkBytes))
	cb.I32Mul()
	cb.I32DivU()
	cb.LocalSet(lIndexOffset)

	cb.LocalGet(lIndexOffset)
	cb.I32Const(int32(len(c.Lookaround.Unicode.Index)))
	cb.I32LtU()
	cb.If(wasmenc.BlockType{})
	cb.I64Const(int64(c.Lookaround.UnicodeIdx.IndexOffset))
	cb.LocalGet(lIndexOffset).I64ExtendI32U()
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemState})
	cb.LocalSet(lChunk)
	cb.End()
	// chunk stays 0 (locals zero-initialized) when out of range.

	// offset = chunk * (unicodeWordChunkBytes/2) + (character/8) % unicodeWordChunkBytes
	cb.I64Const(int64(c.Lookaround.UnicodeIdx.LeavesOffset))
	cb.LocalGet(lChunk).I64ExtendI32U()
	cb.I64Const(unicodeWordHalfBytes)
	cb.I64Mul()
	cb.I64Add()
	cb.LocalGet(pChar).I32Const(8).I32DivU().I32Const(int32(unicodeWordChunkBytes)).I32RemU()
	cb.I64ExtendI32U()
	cb.I64Add()
	cb.I32Load8U(wasmenc.MemArg{MemoryIdx: MemState})

	// (leaves_byte >> (character % 8)) & 1 != 0
	cb.LocalGet(pChar).I32Const(8).I32RemU()
	cb.I32ShrU()
	cb.I32Const(1)
	cb.I32And()

	c.defineFunc(idx, []wasmenc.ValType{wasmenc.I32, wasmenc.I32}, cb)
	return idx
}

// emitIsWordCharDir emits is_word_char_rev (rev=true) or is_word_char_fwd
// (rev=false): decode the codepoint on the relevant side of `at` and
// report whether it is a word character, treating an absent or invalid
// side as non-word.
func emitIsWordCharDir(c *Context, rev bool, decodeFn, isWordCharFn uint32) uint32 {
	name := "is_word_char_fwd"
	if rev {
		name = "is_word_char_rev"
	}
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I64, wasmenc.I64, wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32},
		name,
	)
	const (
		lCp   = 3
		lSize = 4
	)
	cb := wasmenc.NewCodeBuilder()
	if rev {
		cb.LocalGet(lookPAt).I64Eqz()
	} else {
		cb.LocalGet(lookPAt).LocalGet(lookPLen).I64GeU()
	}
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.Return()
	cb.End()

	if rev {
		cb.LocalGet(lookPPtr).LocalGet(lookPAt)
	} else {
		cb.LocalGet(lookPPtr).LocalGet(lookPAt).I64Add()
		cb.LocalGet(lookPLen).LocalGet(lookPAt).I64Sub()
	}
	cb.Call(decodeFn)
	cb.LocalSet(lSize)
	cb.LocalSet(lCp)

	cb.LocalGet(lCp).I32Const(int32(InvalidChar)).I32Eq()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.Return()
	cb.End()

	cb.LocalGet(lCp)
	cb.Call(isWordCharFn)

	c.defineFunc(idx, []wasmenc.ValType{wasmenc.I32, wasmenc.I32}, cb)
	return idx
}

// emitWordUnicodeNegate implements LookWordUnicodeNegate's exact semantics
// (spec.md §4.4): an invalid UTF-8 byte on either consulted side forces
// false, rather than the "absent side is just non-word" rule the other
// Unicode Look kinds use.
func emitWordUnicodeNegate(c *Context, cb *wasmenc.CodeBuilder, isWordCharFn, decodeNextFn, decodeLastFn uint32) {
	const (
		lCpL   = 3
		lSizeL = 4
		lCpR   = 5
		lSizeR = 6
		lWordL = 7
		lWordR = 8
	)

	// left side
	cb.LocalGet(lookPAt).I64Eqz()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0).LocalSet(lWordL)
	cb.Else()
	cb.LocalGet(lookPPtr).LocalGet(lookPAt)
	cb.Call(decodeLastFn)
	cb.LocalSet(lSizeL)
	cb.LocalSet(lCpL)
	cb.LocalGet(lCpL).I32Const(int32(InvalidChar)).I32Eq()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.Return()
	cb.End()
	cb.LocalGet(lCpL).Call(isWordCharFn).LocalSet(lWordL)
	cb.End()

	// right side
	cb.LocalGet(lookPAt).LocalGet(lookPLen).I64GeU()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0).LocalSet(lWordR)
	cb.Else()
	cb.LocalGet(lookPPtr).LocalGet(lookPAt).I64Add()
	cb.LocalGet(lookPLen).LocalGet(lookPAt).I64Sub()
	cb.Call(decodeNextFn)
	cb.LocalSet(lSizeR)
	cb.LocalSet(lCpR)
	cb.LocalGet(lCpR).I32Const(int32(InvalidChar)).I32Eq()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.Return()
	cb.End()
	cb.LocalGet(lCpR).Call(isWordCharFn).LocalSet(lWordR)
	cb.End()

	cb.LocalGet(lWordL).LocalGet(lWordR).I32Eq()
}
