package wasmcompile

import "github.com/coregx/regexwasm/internal/wasmenc"

// PatternLayout records where the pattern-index -> start-state table lives
// in state memory (spec.md §2, "Pattern Layout + Functions").
type PatternLayout struct {
	TableOffset uint64
	NumPatterns uint64
}

// planPattern lays out one state-ID-width entry per pattern, in pattern
// index order, and installs it as an active data segment.
func planPattern(c *Context) PatternLayout {
	n := c.NFA.PatternCount
	width := c.StateWidth
	data := make([]byte, 0, n*int(width))
	for i := 0; i < n; i++ {
		start, ok := c.NFA.PatternStart(i)
		if !ok {
			start = 0
		}
		data = append(data, width.Encode(start)...)
	}
	offset := c.addStateData(data, "pattern_start_table")
	return PatternLayout{TableOffset: offset, NumPatterns: uint64(n)}
}

// emitLookupStart declares and defines lookup_start(pattern_id i32) -> (i32
// start_state, i32 ok). ok is false iff pattern_id is out of range, in
// which case start_state is 0 — the same convention start_config's
// anchored_mode=Pattern branch re-exposes at the ABI boundary (spec.md
// §4.6).
func emitLookupStart(c *Context) {
	idx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I32},
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32},
		"lookup_start",
	)
	const pPatternID = 0
	cb := wasmenc.NewCodeBuilder()
	cb.LocalGet(pPatternID)
	cb.I32Const(int32(c.Pattern.NumPatterns))
	cb.I32GeU()
	cb.If(wasmenc.BlockType{})
	cb.I32Const(0)
	cb.I32Const(0)
	cb.Return()
	cb.End()

	// start_state = table[pattern_id]
	cb.I64Const(int64(c.Pattern.TableOffset))
	cb.LocalGet(pPatternID)
	cb.I64ExtendI32U()
	cb.I64Const(int64(c.StateWidth))
	cb.I64Mul()
	cb.I64Add()
	c.loadStateID(cb, 0)
	cb.I32Const(1)

	c.defineFunc(idx, nil, cb)
	c.FnLookupStart = idx
}
