package nfa

// ByteClasses maps each of the 256 possible input bytes to an equivalence
// class: two bytes share a class exactly when no ByteRange or Sparse state
// built for the pattern ever treats them differently. A pattern like
// `[a-z]+` only cares about three spans of bytes (below 'a', 'a' through
// 'z', above 'z'), so its alphabet collapses from 256 classes to 3.
//
// wasmcompile never consults this: it builds its Sparse/Dense transition
// tables directly from each state's own byte ranges, independent of how
// many distinct classes the whole NFA uses. ByteClasses exists at the
// front end purely as a diagnostic — NFA.ByteClasses lets a caller ask how
// much the alphabet a compiled pattern actually needs has shrunk, without
// having to re-derive it from the state list by hand (Regex.AlphabetSize
// in the top-level package surfaces this).
type ByteClasses struct {
	classes [256]byte
}

// NewByteClasses returns the trivial ByteClasses where every byte is class
// 0 — the alphabet of a pattern that never distinguishes one byte from
// another (it matches everything or nothing).
func NewByteClasses() ByteClasses {
	return ByteClasses{}
}

// SingletonByteClasses returns the unreduced ByteClasses where every byte
// is its own class — equivalent to not performing alphabet reduction at
// all.
func SingletonByteClasses() ByteClasses {
	var bc ByteClasses
	for i := range bc.classes {
		bc.classes[i] = byte(i)
	}
	return bc
}

// Get returns the equivalence class byte b was assigned.
func (bc *ByteClasses) Get(b byte) byte {
	return bc.classes[b]
}

// AlphabetLen returns one past the highest class number in use — the size
// of the reduced alphabet.
func (bc *ByteClasses) AlphabetLen() int {
	var max byte
	for _, c := range bc.classes {
		if c > max {
			max = c
		}
	}
	return int(max) + 1
}

// IsSingleton reports whether every byte got its own class, i.e. no
// reduction occurred.
func (bc *ByteClasses) IsSingleton() bool {
	return bc.AlphabetLen() == 256
}

// IsEmpty reports whether every byte collapsed into a single class.
func (bc *ByteClasses) IsEmpty() bool {
	return bc.AlphabetLen() == 1
}

// Representatives returns one byte per distinct class, in ascending class
// order — enough to compute a class's transition once and apply it to
// every byte sharing that class.
func (bc *ByteClasses) Representatives() []byte {
	seen := make([]bool, 256)
	reps := make([]byte, 0, bc.AlphabetLen())
	for b := 0; b < 256; b++ {
		class := bc.classes[b]
		if seen[class] {
			continue
		}
		seen[class] = true
		reps = append(reps, byte(b))
	}
	return reps
}

// Elements returns every byte assigned to class, in ascending order.
func (bc *ByteClasses) Elements(class byte) []byte {
	var elems []byte
	for b := 0; b < 256; b++ {
		if bc.classes[b] == class {
			elems = append(elems, byte(b))
		}
	}
	return elems
}

// ByteClassSet accumulates the byte positions where a pattern's transitions
// change class, as Builder sees ByteRange and Sparse states go by during
// construction. Once construction finishes, ByteClassSet.ByteClasses folds
// the accumulated boundaries into a finished ByteClasses lookup table.
type ByteClassSet struct {
	// bits is a 256-bit set; bit b means byte b is the last byte of some
	// class (the class changes going from b to b+1).
	bits [4]uint64
}

// NewByteClassSet returns an empty boundary set: every byte still shares
// class 0 until SetRange/SetByte record a distinction.
func NewByteClassSet() *ByteClassSet {
	return &ByteClassSet{}
}

// SetRange records that [start, end] is, as a whole, distinguished from the
// bytes immediately outside it: it marks start-1 and end as class
// boundaries, so ByteClasses later assigns [start, end] a class of its own.
func (bcs *ByteClassSet) SetRange(start, end byte) {
	if start > 0 {
		bcs.setBit(start - 1)
	}
	bcs.setBit(end)
}

// SetByte is SetRange(b, b): a single byte gets its own class.
func (bcs *ByteClassSet) SetByte(b byte) {
	bcs.SetRange(b, b)
}

func (bcs *ByteClassSet) setBit(b byte) {
	bcs.bits[b/64] |= 1 << (b % 64)
}

func (bcs *ByteClassSet) getBit(b byte) bool {
	return bcs.bits[b/64]&(1<<(b%64)) != 0
}

// ByteClasses walks all 256 bytes in order, starting a new class every time
// it crosses a recorded boundary, and returns the resulting lookup table.
func (bcs *ByteClassSet) ByteClasses() ByteClasses {
	var bc ByteClasses
	class := byte(0)
	for b := 0; b < 256; b++ {
		bc.classes[b] = class
		if bcs.getBit(byte(b)) {
			class++
		}
	}
	return bc
}

// Merge folds other's recorded boundaries into bcs, used when a compound
// pattern (alternation, concatenation) combines boundary information from
// each of its parts before finalizing a single NFA's alphabet.
func (bcs *ByteClassSet) Merge(other *ByteClassSet) {
	for i := range bcs.bits {
		bcs.bits[i] |= other.bits[i]
	}
}
