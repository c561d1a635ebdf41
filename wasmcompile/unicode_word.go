package wasmcompile

import (
	"sync"
	"unicode"
)

// unicodeWordChunk is the number of codepoints one level-1 index entry
// covers (spec.md §3: "Level 1 is an index array of bytes, one per
// 4096-codepoint block"). unicodeWordChunkBytes is that many codepoints'
// worth of dense bitset bytes (one bit per codepoint, 8 per byte).
const (
	unicodeWordChunk      = 4096
	unicodeWordChunkBytes = unicodeWordChunk / 8 // 512
	unicodeWordHalfBytes  = unicodeWordChunkBytes / 2
	unicodeWordMaxRune    = 0x110000
)

// UnicodeWordTable is the two-level dense bitset the Unicode word-boundary
// Look matchers consult for codepoints >= 128 (ASCII is answered from the
// byte LUT instead, spec.md §3). Index maps each 4096-codepoint block to a
// half-chunk offset into Leaves; Leaves holds the deduplicated, coalesced
// 256-byte halves themselves.
//
// SPEC_FULL.md F.3 explains why this is derived from Go's own
// unicode.L/unicode.M/unicode.N range tables plus '_' rather than a
// transcribed literal table: the original PERL_WORD range data was not
// present in the retrieved source pack.
type UnicodeWordTable struct {
	Index  []byte
	Leaves []byte
}

var (
	unicodeWordTableOnce sync.Once
	unicodeWordTableData UnicodeWordTable
)

// isWordRune reports whether r is a "word" codepoint in the Perl sense:
// letter, mark, number, or underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsOneOf([]*unicode.RangeTable{unicode.L, unicode.M, unicode.N}, r)
}

// buildUnicodeWordTable computes the dense per-block bitset for every
// codepoint in [0, 0x110000) (codepoints below 128 are included for
// uniform indexing but never consulted — the caller short-circuits to the
// ASCII LUT first) and folds it into the deduplicated, half-chunk-coalesced
// two-level table spec.md §3 describes.
func buildUnicodeWordTable() UnicodeWordTable {
	numBytes := unicodeWordMaxRune / 8
	dense := make([]byte, numBytes)
	for r := rune(128); r < unicodeWordMaxRune; r++ {
		if isWordRune(r) {
			dense[r/8] |= 1 << uint(r%8)
		}
	}

	numBlocks := numBytes / unicodeWordChunkBytes
	index := make([]byte, numBlocks)
	var leaves []byte

	// halfAt maps a 256-byte half-chunk's contents to every half-chunk
	// index (position in units of unicodeWordHalfBytes) currently holding
	// exactly those bytes, in insertion order.
	halfAt := make(map[string][]int)
	halfIndexOf := func(b []byte) []int { return halfAt[string(b)] }
	numHalves := func() int { return len(leaves) / unicodeWordHalfBytes }
	appendHalf := func(b []byte) int {
		h := numHalves()
		leaves = append(leaves, b...)
		halfAt[string(b)] = append(halfAt[string(b)], h)
		return h
	}
	halfBytesAt := func(h int) []byte {
		return leaves[h*unicodeWordHalfBytes : (h+1)*unicodeWordHalfBytes]
	}

	for b := 0; b < numBlocks; b++ {
		block := dense[b*unicodeWordChunkBytes : (b+1)*unicodeWordChunkBytes]
		halfA := block[:unicodeWordHalfBytes]
		halfB := block[unicodeWordHalfBytes:]

		chosen := -1
		for _, h := range halfIndexOf(halfA) {
			if h+1 < numHalves() && string(halfBytesAt(h+1)) == string(halfB) {
				chosen = h
				break
			}
			if h+1 == numHalves() {
				// halfA is the last half-chunk in the buffer: append halfB
				// right after it, coalescing the two blocks' shared
				// boundary instead of duplicating halfA.
				appendHalf(halfB)
				chosen = h
				break
			}
		}
		if chosen == -1 {
			chosen = appendHalf(halfA)
			appendHalf(halfB)
		}
		if chosen > 0xFF {
			panic("wasmcompile: Unicode word-character table exceeds 256 half-chunks")
		}
		index[b] = byte(chosen)
	}

	return UnicodeWordTable{Index: index, Leaves: leaves}
}

// getUnicodeWordTable returns the process-wide memoized table (spec.md §9,
// "Global state": "the only process-wide object is the deduplicated
// Unicode word-character lookup table ... computed once and memoized for
// reuse across compilations").
func getUnicodeWordTable() UnicodeWordTable {
	unicodeWordTableOnce.Do(func() {
		unicodeWordTableData = buildUnicodeWordTable()
	})
	return unicodeWordTableData
}
