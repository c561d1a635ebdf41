package wasmcompile

// Layout is a (size, align) pair describing a region of the state memory
// under construction, mirroring Rust's `std::alloc::Layout` — the teacher
// repo has no Go analogue for this (it never builds foreign memory images)
// so this is ported directly from original_source/core/src/compile/util.rs,
// which is itself a thin wrapper over that same Rust standard type. Align
// is always a power of two.
type Layout struct {
	Size  uint64
	Align uint64
}

// layoutOf returns the Layout of n contiguous bytes with byte alignment —
// the base case every composite layout in this package extends from.
func layoutOf(size uint64) Layout { return Layout{Size: size, Align: 1} }

func padTo(size, align uint64) uint64 {
	if align <= 1 {
		return size
	}
	rem := size % align
	if rem == 0 {
		return size
	}
	return size + (align - rem)
}

// padToAlign rounds l.Size up to l.Align.
func (l Layout) padToAlign() Layout {
	return Layout{Size: padTo(l.Size, l.Align), Align: l.Align}
}

func maxAlign(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Extend appends l2 after l, inserting whatever padding is needed to honor
// l2's alignment, and returns the composite layout plus the byte offset at
// which l2 begins. Every cross-section offset the compiler emits into WASM
// code is captured at this stage (spec.md §4.1: "no runtime address
// computation is needed beyond base + index * stride").
func Extend(l, l2 Layout) (composite Layout, offset uint64) {
	base := l.padToAlign()
	offset = padTo(base.Size, l2.Align)
	newSize := offset + l2.Size
	return Layout{Size: newSize, Align: maxAlign(base.Align, l2.Align)}, offset
}

// Repeat returns the layout of n contiguous copies of l (each copy padded
// to l's own alignment, i.e. l's "stride") and that stride. spec.md §4.1:
// "repeat(L, n) returns the array layout and the per-element stride
// (pad_to_align of L)".
func Repeat(l Layout, n uint64) (array Layout, stride uint64) {
	padded := l.padToAlign()
	stride = padded.Size
	return Layout{Size: stride * n, Align: padded.Align}, stride
}
