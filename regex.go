// Package coregex compiles a regular expression into a self-contained
// WebAssembly module and runs it to answer a single question: does the
// pattern match somewhere in a haystack?
//
// Unlike a traditional regex engine, matching here is never in-process Go:
// Compile lowers the pattern to a Thompson NFA, compiles that NFA to WASM
// bytecode (package wasmcompile), and instantiates the result once under a
// pure-Go WASM runtime (wazero). Match and MatchString then call the
// module's exported is_match function for every query.
//
// Basic usage:
//
//	re, err := coregex.Compile(`\d+`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if re.MatchString("hello 123") {
//	    fmt.Println("contains digits")
//	}
//
// Limitations: this is a boolean membership test only. There is no Find,
// no submatch extraction, and no replace — the compiled module reports
// match/no-match and nothing else, since the PikeVM sweep it runs never
// tracks capture offsets.
package coregex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coregx/regexwasm/nfa"
	"github.com/coregx/regexwasm/wasmcompile"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Config configures both the NFA front end and the WASM compiler backing a
// Regex, mirroring the teacher's DefaultConfig()/CompileWithConfig split.
type Config struct {
	Compiler nfa.CompilerConfig
	WASM     wasmcompile.Config
}

// DefaultConfig returns the default front-end and compiler configuration.
//
// Example:
//
//	cfg := coregex.DefaultConfig()
//	cfg.WASM.IncludeNames = true
//	re, _ := coregex.CompileWithConfig(`\d+`, cfg)
func DefaultConfig() Config {
	return Config{
		Compiler: nfa.DefaultCompilerConfig(),
		WASM:     wasmcompile.DefaultConfig(),
	}
}

// Regex is a compiled regular expression backed by one instantiated WASM
// module. Per spec.md §5, a single module instance serves at most one
// search at a time; Match/MatchString take an internal lock for the
// duration of a call so a *Regex is safe for concurrent use.
type Regex struct {
	pattern      string
	alphabetSize int

	rt  wazero.Runtime
	mod api.Module
	hay api.Memory

	prepareInput api.Function
	isMatch      api.Function

	mu sync.Mutex
}

// Compile parses and compiles pattern into a ready-to-match Regex.
//
// Example:
//
//	re, err := coregex.Compile(`\d{3}-\d{4}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// MustCompile compiles pattern and panics if it fails. Useful for patterns
// known to be valid at compile time.
//
// Example:
//
//	var emailRegex = coregex.MustCompile(`[a-z]+@[a-z]+\.[a-z]+`)
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("coregex: Compile(" + pattern + "): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles pattern using a custom front-end/WASM
// configuration.
func CompileWithConfig(pattern string, cfg Config) (*Regex, error) {
	front := nfa.NewCompiler(cfg.Compiler)
	n, err := front.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("coregex: compiling %q: %w", pattern, err)
	}

	auto, err := nfa.ToAutomaton(n)
	if err != nil {
		return nil, fmt.Errorf("coregex: lowering %q: %w", pattern, err)
	}

	wasmBytes, err := wasmcompile.Compile(auto, cfg.WASM)
	if err != nil {
		return nil, fmt.Errorf("coregex: compiling %q to wasm: %w", pattern, err)
	}

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)

	mod, err := rt.Instantiate(ctx, wasmBytes)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("coregex: instantiating %q: %w", pattern, err)
	}

	hay := mod.ExportedMemory("haystack")
	prepareInput := mod.ExportedFunction("prepare_input")
	isMatch := mod.ExportedFunction("is_match")
	if hay == nil || prepareInput == nil || isMatch == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("coregex: %q: compiled module is missing its stable ABI exports", pattern)
	}

	return &Regex{
		pattern:      pattern,
		alphabetSize: n.ByteClasses().AlphabetLen(),
		rt:           rt,
		mod:          mod,
		hay:          hay,
		prepareInput: prepareInput,
		isMatch:      isMatch,
	}, nil
}

// AlphabetSize returns the number of distinct byte equivalence classes the
// front end found for this pattern (nfa.ByteClasses) — a rough measure of
// how much the pattern's own structure narrows the 256-byte input alphabet
// it actually needs to distinguish, independent of how the WASM backend
// happens to encode transitions.
func (r *Regex) AlphabetSize() int {
	return r.alphabetSize
}

// Close releases the WASM runtime backing re. A Regex that is never closed
// is still reclaimed by the garbage collector; Close just frees the
// runtime's resources deterministically.
func (r *Regex) Close() error {
	return r.rt.Close(context.Background())
}

// Match reports whether b contains any match of the pattern.
//
// Example:
//
//	re := coregex.MustCompile(`\d+`)
//	if re.Match([]byte("hello 123")) {
//	    println("contains digits")
//	}
func (r *Regex) Match(b []byte) bool {
	ok, err := r.runMatch(b)
	if err != nil {
		panic("coregex: " + r.pattern + ": " + err.Error())
	}
	return ok
}

// MatchString reports whether s contains any match of the pattern.
//
// Example:
//
//	re := coregex.MustCompile(`hello`)
//	if re.MatchString("hello world") {
//	    println("matched!")
//	}
func (r *Regex) MatchString(s string) bool {
	return r.Match([]byte(s))
}

// String returns the source text used to compile the regular expression.
func (r *Regex) String() string {
	return r.pattern
}

// runMatch writes b into the module's haystack memory and calls is_match
// over the full haystack, unanchored (spec.md §4.6/§4.7/§6's calling
// sequence: prepare_input, then write the bytes, then is_match).
func (r *Regex) runMatch(b []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	haystackLen := uint64(len(b))

	if _, err := r.prepareInput.Call(ctx, haystackLen); err != nil {
		return false, fmt.Errorf("prepare_input: %w", err)
	}
	if haystackLen > 0 && !r.hay.Write(0, b) {
		return false, errors.New("haystack memory write out of range")
	}

	res, err := r.isMatch.Call(
		ctx,
		uint64(wasmcompile.AnchoredModeUnanchored),
		0,
		0,
		haystackLen,
		haystackLen,
	)
	if err != nil {
		return false, fmt.Errorf("is_match: %w", err)
	}
	return res[0] != 0, nil
}
