// Package nfa is the front end of the regex-to-WebAssembly pipeline: it
// parses a pattern with the standard library's regexp/syntax, lowers the
// resulting AST to a Thompson NFA via Builder, and hands the result to
// ToAutomaton for conversion into the automaton.NFA contract wasmcompile
// compiles to WASM. The package also carries its own PikeVM — a
// straightforward Go-side simulation of the same NFA — used only to
// cross-check the compiled module's is_match against an independent
// implementation in tests, never as the runtime matcher itself.
package nfa

import (
	"errors"
	"fmt"
)

// ErrTooComplex indicates a pattern was rejected before construction could
// finish because its syntax tree nests deeper than
// CompilerConfig.MaxRecursionDepth.
var ErrTooComplex = errors.New("pattern too complex")

// CompileError wraps a failure from Compiler.Compile with the pattern text
// that caused it, so callers several layers up (coregex.Compile) can report
// which pattern failed without re-plumbing it through every return path.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("NFA compilation failed for pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("NFA compilation failed: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// BuildError reports a failure from the low-level Builder API: a caller
// tried to patch, validate, or otherwise operate on a state ID the builder
// doesn't recognize or that's the wrong kind for the operation.
type BuildError struct {
	Message string
	StateID StateID
}

func (e *BuildError) Error() string {
	if e.StateID != InvalidState {
		return fmt.Sprintf("NFA build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("NFA build error: %s", e.Message)
}
