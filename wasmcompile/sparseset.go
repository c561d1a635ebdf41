package wasmcompile

import "github.com/coregx/regexwasm/internal/wasmenc"

// SparseSetLayout records where one sparse set's dense and sparse arrays
// live in state memory (spec.md §3, "Sparse set"). Two instances exist,
// "first" and "second" — which one plays the PikeVM's "current" vs "next"
// role at a given haystack position is a runtime decision (the two base
// pointers are swapped each step, spec.md §4.7), not a compile-time one, so
// both instances share identical shape and the same contains/insert code.
type SparseSetLayout struct {
	DenseOffset  uint64
	SparseOffset uint64
	NumStates    uint64
}

// planSparseSet extends the running state-memory layout with one sparse
// set's dense and sparse arrays, each num_states entries wide.
func planSparseSet(c *Context, numStates int) SparseSetLayout {
	width := c.StateWidth.Layout()
	denseArr, _ := Repeat(width, uint64(numStates))
	denseOffset := c.extendState(denseArr)
	sparseArr, _ := Repeat(width, uint64(numStates))
	sparseOffset := c.extendState(sparseArr)
	return SparseSetLayout{DenseOffset: denseOffset, SparseOffset: sparseOffset, NumStates: uint64(numStates)}
}

// loadStateID emits a load of one state-ID-width value from the address
// already on the stack (an i64 linear-memory address into memory 1) plus a
// constant byte offset. Width 1/2/4 select the zero-extending load variant
// with that operand size.
func (c *Context) loadStateID(cb *wasmenc.CodeBuilder, offset uint64) *wasmenc.CodeBuilder {
	m := wasmenc.MemArg{Offset: offset, MemoryIdx: MemState}
	switch c.StateWidth {
	case StateIDWidth1:
		return cb.I32Load8U(m)
	case StateIDWidth2:
		return cb.I32Load16U(m)
	default:
		return cb.I32Load(m)
	}
}

// storeStateID emits a store of one state-ID-width value: the address
// (i64) then the i32 value must already be on the stack in that order.
func (c *Context) storeStateID(cb *wasmenc.CodeBuilder, offset uint64) *wasmenc.CodeBuilder {
	m := wasmenc.MemArg{Offset: offset, MemoryIdx: MemState}
	switch c.StateWidth {
	case StateIDWidth1:
		return cb.I32Store8(m)
	case StateIDWidth2:
		return cb.I32Store16(m)
	default:
		return cb.I32Store(m)
	}
}

// emitSparseSetFunctions declares and defines the shared contains/insert
// functions (spec.md §4.2). Both sets pass their own dense-array base
// pointer as set_ptr; the constant delta to reach the companion sparse
// array is baked in as an i64.const because both sets share identical
// internal shape.
func emitSparseSetFunctions(c *Context) {
	delta := int64(c.SetCurrent.SparseOffset) - int64(c.SetCurrent.DenseOffset)

	// contains(set_ptr i64, set_len i32, state_id i32) -> i32 bool
	containsIdx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I64, wasmenc.I32, wasmenc.I32},
		[]wasmenc.ValType{wasmenc.I32},
		"contains",
	)
	{
		const (
			pSetPtr = 0
			pSetLen = 1
			pStateID = 2
			lSparsePtr = 3
			lSparseIdx = 4
		)
		cb := wasmenc.NewCodeBuilder()
		// sparse_ptr = set_ptr + delta
		cb.LocalGet(pSetPtr).I64Const(delta).I64Add().LocalSet(lSparsePtr)
		// sparse_idx = load(sparse_ptr + state_id*width)
		c.stateIDAddrFromLocal(cb, lSparsePtr, pStateID)
		c.loadStateID(cb, 0)
		cb.LocalSet(lSparseIdx)
		// if sparse_idx >= set_len: return false
		cb.LocalGet(lSparseIdx).LocalGet(pSetLen).I32GeU()
		cb.If(wasmenc.BlockType{})
		cb.I32Const(0).Return()
		cb.End()
		// return dense[sparse_idx] == state_id
		c.stateIDAddrFromLocal(cb, pSetPtr, lSparseIdx)
		c.loadStateID(cb, 0)
		cb.LocalGet(pStateID)
		cb.I32Eq()
		c.defineFunc(containsIdx, []wasmenc.ValType{wasmenc.I64, wasmenc.I32}, cb)
	}

	// insert(set_len i32, state_id i32, set_ptr i64) -> i32 new_len
	insertIdx := c.declareFunc(
		[]wasmenc.ValType{wasmenc.I32, wasmenc.I32, wasmenc.I64},
		[]wasmenc.ValType{wasmenc.I32},
		"insert",
	)
	{
		const (
			pSetLen  = 0
			pStateID = 1
			pSetPtr  = 2
		)
		cb := wasmenc.NewCodeBuilder()
		cb.LocalGet(pSetPtr).LocalGet(pSetLen).LocalGet(pStateID)
		cb.Call(containsIdx)
		cb.If(wasmenc.BlockType{})
		cb.LocalGet(pSetLen).Return()
		cb.End()
		// dense[set_len] = state_id
		c.stateIDAddrFromLocal(cb, pSetPtr, pSetLen)
		cb.LocalGet(pStateID)
		c.storeStateID(cb, 0)
		// sparse[state_id] = set_len
		cb.LocalGet(pSetPtr).I64Const(delta).I64Add()
		cb.LocalGet(pStateID)
		cb.I64ExtendI32U()
		cb.I64Const(int64(c.StateWidth))
		cb.I64Mul()
		cb.I64Add()
		cb.LocalGet(pSetLen)
		c.storeStateID(cb, 0)
		// return set_len + 1
		cb.LocalGet(pSetLen).I32Const(1).I32Add()
		c.defineFunc(insertIdx, nil, cb)
	}

	c.FnSparseContains = containsIdx
	c.FnSparseInsert = insertIdx
}

// stateIDAddrFromLocal emits `baseLocal(i64) + indexLocal(i32) * width`.
// indexLocal must be an i32 local: it is zero-extended to i64 before the
// multiply.
func (c *Context) stateIDAddrFromLocal(cb *wasmenc.CodeBuilder, baseLocal, indexLocal uint32) *wasmenc.CodeBuilder {
	cb.LocalGet(baseLocal)
	cb.LocalGet(indexLocal)
	cb.I64ExtendI32U()
	cb.I64Const(int64(c.StateWidth))
	cb.I64Mul()
	cb.I64Add()
	return cb
}
