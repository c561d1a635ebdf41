// Package wasmcompile implements the regex-to-WASM compiler: the
// transformation from a Thompson NFA (package automaton's contract) into a
// self-contained WASM module that runs a PikeVM over that NFA's states.
//
// Compilation is a pipeline of layout planners followed by function
// emitters sharing a mutable compile context (Context) that accumulates
// the sections of one module. See DESIGN.md for the grounding of each
// component against the teacher and the retrieved original_source/ pack.
package wasmcompile

// Config is the compiler's compile-time configuration surface. There are
// no environment variables; every knob is a field here, following the
// coregex package's functional-option `DefaultConfig()`/`WithX` shape.
type Config struct {
	// IncludeNames emits the WASM "name" custom section (function, memory,
	// and data segment names) for debuggability.
	IncludeNames bool

	// CompactDataSection runs the post-pass that coalesces byte-adjacent
	// active data segments in state memory into fewer, larger segments.
	CompactDataSection bool

	// ExportState exports the state memory (index 1) under the name
	// "state". Test-only: production callers never touch it.
	ExportState bool

	// ExportAllFunctions exports every declared function, not just the
	// stable ABI (prepare_input, is_match). Test-only.
	ExportAllFunctions bool

	// PageSize is the WASM page size in bytes used to size both linear
	// memories. Defaults to 65536 (the WASM standard page size); compile
	// accepts other values for testing small layouts without allocating a
	// full 64 KiB page per test.
	PageSize uint32

	// LineTerm is the byte the StartLF/EndLF lookaround family treats as a
	// line terminator. Defaults to '\n'.
	LineTerm byte
}

// DefaultConfig returns the configuration used when a caller does not need
// to override anything: no name section, no compaction pass, nothing
// exported beyond the stable ABI, standard page size, Unix line terminator.
func DefaultConfig() Config {
	return Config{
		PageSize: 65536,
		LineTerm: '\n',
	}
}

// WithIncludeNames returns a copy of c with IncludeNames set.
func (c Config) WithIncludeNames(v bool) Config { c.IncludeNames = v; return c }

// WithCompactDataSection returns a copy of c with CompactDataSection set.
func (c Config) WithCompactDataSection(v bool) Config { c.CompactDataSection = v; return c }

// WithExportState returns a copy of c with ExportState set.
func (c Config) WithExportState(v bool) Config { c.ExportState = v; return c }

// WithExportAllFunctions returns a copy of c with ExportAllFunctions set.
func (c Config) WithExportAllFunctions(v bool) Config { c.ExportAllFunctions = v; return c }

// WithPageSize returns a copy of c with PageSize set.
func (c Config) WithPageSize(v uint32) Config { c.PageSize = v; return c }

// WithLineTerm returns a copy of c with LineTerm set.
func (c Config) WithLineTerm(v byte) Config { c.LineTerm = v; return c }
