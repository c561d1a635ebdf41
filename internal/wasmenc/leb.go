// Package wasmenc hand-rolls the binary-level WASM encoding primitives
// spec.md carves out of the compiler's scope (§1: "binary-level WASM
// encoding primitives ... out of scope, specified only where the
// compact-data-section post-pass inspects them"). No WASM encoder crate
// exists anywhere in the retrieved example pack, so this package is new
// code styled after the phased, layout-map writer idiom the pack's native
// object-file emitters (xyproto-flapc/vibe67's ELF/Mach-O writers) use:
// declare a location, append bytes, remember the offset.
package wasmenc

// AppendUvarint appends x as an unsigned LEB128 varint.
func AppendUvarint(buf []byte, x uint64) []byte {
	for {
		b := byte(x & 0x7F)
		x >>= 7
		if x != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

// AppendVarint appends x as a signed LEB128 varint.
func AppendVarint(buf []byte, x int64) []byte {
	more := true
	for more {
		b := byte(x & 0x7F)
		x >>= 7
		signBitSet := b&0x40 != 0
		if (x == 0 && !signBitSet) || (x == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// AppendName appends a WASM "name" value: a uvarint length prefix followed
// by the UTF-8 bytes.
func AppendName(buf []byte, s string) []byte {
	buf = AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// AppendVec appends a uvarint element count followed by the already-encoded
// element bytes concatenated in order. Callers encode each element first
// and pass the flattened result.
func AppendVec(buf []byte, count int, elems []byte) []byte {
	buf = AppendUvarint(buf, uint64(count))
	return append(buf, elems...)
}

// AppendVecBytes wraps a byte vector (e.g. a data segment's raw bytes) with
// its uvarint length prefix.
func AppendVecBytes(buf []byte, data []byte) []byte {
	buf = AppendUvarint(buf, uint64(len(data)))
	return append(buf, data...)
}

// WithSizePrefix encodes body, prefixes it with its own byte length as a
// uvarint, and appends the result to buf. Every WASM section and every
// function body is length-prefixed this way.
func WithSizePrefix(buf []byte, body []byte) []byte {
	buf = AppendUvarint(buf, uint64(len(body)))
	return append(buf, body...)
}
