package wasmcompile_test

import (
	"regexp"
	"testing"

	"github.com/coregx/regexwasm/nfa"
	"github.com/coregx/regexwasm/wasmcompile"
	"github.com/coregx/regexwasm/wasmcompile/wasmtest"
)

// compileModule runs a pattern through the full front-end-to-WASM pipeline
// and instantiates the result, the same sequence Regex.CompileWithConfig
// uses. It also returns the front end's own NFA so callers can cross-check
// the compiled module against nfa.PikeVM's native Go simulation of the same
// automaton.
func compileModule(t *testing.T, pattern string) (*wasmtest.Module, *nfa.NFA) {
	t.Helper()

	front := nfa.NewDefaultCompiler()
	n, err := front.Compile(pattern)
	if err != nil {
		t.Fatalf("nfa.Compile(%q): %v", pattern, err)
	}

	auto, err := nfa.ToAutomaton(n)
	if err != nil {
		t.Fatalf("ToAutomaton(%q): %v", pattern, err)
	}

	wasmBytes, err := wasmcompile.Compile(auto, wasmcompile.DefaultConfig())
	if err != nil {
		t.Fatalf("wasmcompile.Compile(%q): %v", pattern, err)
	}

	mod, err := wasmtest.New(wasmBytes)
	if err != nil {
		t.Fatalf("wasmtest.New(%q): %v", pattern, err)
	}
	t.Cleanup(func() { mod.Close() })
	return mod, n
}

// TestIsMatchAgainstPikeVM cross-checks the compiled WASM module's is_match
// against the front end's own Go-side PikeVM simulation of the same NFA,
// the most direct way to confirm the emitted bytecode actually implements
// PikeVM semantics rather than merely agreeing with stdlib regexp by
// coincidence on these particular cases.
func TestIsMatchAgainstPikeVM(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
	}{
		{`abc`, "xxabcxx"},
		{`abc`, "no match here"},
		{`a+b*c?`, "aaabbc"},
		{`(foo|bar)+`, "foobarfoo"},
		{`\d{2,4}`, "a12345b"},
		{`^anchored`, "anchored at start"},
		{`^anchored`, "not anchored at start"},
		{``, "anything"},
		{`a*`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.haystack, func(t *testing.T) {
			mod, n := compileModule(t, tt.pattern)

			vm := nfa.NewPikeVM(n)
			_, _, wantMatch := vm.Search([]byte(tt.haystack))

			gotMatch, err := mod.Run([]byte(tt.haystack))
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if gotMatch != wantMatch {
				t.Errorf("is_match(%q, %q) = %v, PikeVM.Search matched = %v", tt.pattern, tt.haystack, gotMatch, wantMatch)
			}
		})
	}
}

func TestIsMatchUnanchoredSweep(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
	}{
		{`abc`, "xxabcxx"},
		{`abc`, "xxxxxxx"},
		{`\d+`, "no digits"},
		{`\d+`, "has 42 digits"},
		{`a|b|c`, "zzzcz"},
		{`a*`, ""},
		{`(ab)+c`, "ababc"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.haystack, func(t *testing.T) {
			mod, _ := compileModule(t, tt.pattern)

			want := regexp.MustCompile(tt.pattern).MatchString(tt.haystack)
			got, err := mod.Run([]byte(tt.haystack))
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got != want {
				t.Errorf("is_match(%q, %q) = %v, want %v", tt.pattern, tt.haystack, got, want)
			}
		})
	}
}

func TestIsMatchAnchoredMode(t *testing.T) {
	mod, _ := compileModule(t, `abc`)
	haystack := []byte("xxabcxx")
	n := uint64(len(haystack))

	if _, err := mod.PrepareInput(n); err != nil {
		t.Fatalf("prepare_input: %v", err)
	}
	if err := mod.WriteHaystack(haystack); err != nil {
		t.Fatalf("WriteHaystack: %v", err)
	}

	got, err := mod.IsMatch(wasmcompile.AnchoredModeAnchored, 0, 0, n, n)
	if err != nil {
		t.Fatalf("is_match(anchored): %v", err)
	}
	if got {
		t.Error("anchored search should not find \"abc\" starting at position 0 of \"xxabcxx\"")
	}

	got, err = mod.IsMatch(wasmcompile.AnchoredModeUnanchored, 0, 0, n, n)
	if err != nil {
		t.Fatalf("is_match(unanchored): %v", err)
	}
	if !got {
		t.Error("unanchored search should find \"abc\" somewhere in \"xxabcxx\"")
	}
}

func TestIsMatchRespectsSpan(t *testing.T) {
	mod, _ := compileModule(t, `abc`)
	haystack := []byte("abcabc")
	n := uint64(len(haystack))

	if _, err := mod.PrepareInput(n); err != nil {
		t.Fatalf("prepare_input: %v", err)
	}
	if err := mod.WriteHaystack(haystack); err != nil {
		t.Fatalf("WriteHaystack: %v", err)
	}

	// The span [1, 3) only ever sees the bytes "bc", never a full "abc".
	got, err := mod.IsMatch(wasmcompile.AnchoredModeUnanchored, 0, 1, 3, n)
	if err != nil {
		t.Fatalf("is_match: %v", err)
	}
	if got {
		t.Error("span [1,3) of \"abcabc\" should not contain a match of \"abc\"")
	}

	// The span [3, 6) covers the second "abc" in full.
	got, err = mod.IsMatch(wasmcompile.AnchoredModeUnanchored, 0, 3, 6, n)
	if err != nil {
		t.Fatalf("is_match: %v", err)
	}
	if !got {
		t.Error("span [3,6) of \"abcabc\" should contain a match of \"abc\"")
	}
}

func TestIsMatchEmptySpan(t *testing.T) {
	mod, _ := compileModule(t, `a*`)
	haystack := []byte("bbb")
	n := uint64(len(haystack))

	if _, err := mod.PrepareInput(n); err != nil {
		t.Fatalf("prepare_input: %v", err)
	}
	if err := mod.WriteHaystack(haystack); err != nil {
		t.Fatalf("WriteHaystack: %v", err)
	}

	// span_start == span_end: the only position considered is the edge
	// itself, and `a*` matches the empty string there.
	got, err := mod.IsMatch(wasmcompile.AnchoredModeUnanchored, 0, 1, 1, n)
	if err != nil {
		t.Fatalf("is_match: %v", err)
	}
	if !got {
		t.Error("a* must match the empty string at a zero-width span")
	}
}

func TestPrepareInputGrowsOncePerPageBoundary(t *testing.T) {
	mod, _ := compileModule(t, `x`)

	status, err := mod.PrepareInput(0)
	if err != nil {
		t.Fatalf("prepare_input(0): %v", err)
	}
	if status != wasmcompile.PrepareInputNoGrowth {
		t.Errorf("prepare_input(0) = %d, want NoGrowth", status)
	}

	status, err = mod.PrepareInput(1 << 20)
	if err != nil {
		t.Fatalf("prepare_input(1MiB): %v", err)
	}
	if status != wasmcompile.PrepareInputGrowth {
		t.Errorf("prepare_input(1MiB) = %d, want Growth on first call", status)
	}

	// A second call for a smaller length must not need to grow again.
	status, err = mod.PrepareInput(4096)
	if err != nil {
		t.Fatalf("prepare_input(4096): %v", err)
	}
	if status != wasmcompile.PrepareInputNoGrowth {
		t.Errorf("prepare_input(4096) after a larger call = %d, want NoGrowth", status)
	}
}

// TestIsMatchNestedStarTerminates exercises patterns where a quantified
// sub-expression can itself match the empty string, e.g. `(?:a*)*`: the
// inner a*'s exit branch is a pure epsilon edge patched straight back into
// the outer star's split (nfa/compile.go's compileStar), so the compiled
// NFA contains a cycle among Union/BinaryUnion states reachable without
// consuming a byte. is_match must still return a boolean rather than
// recursing forever through the epsilon-closure functions that guard those
// states.
func TestIsMatchNestedStarTerminates(t *testing.T) {
	tests := []struct {
		pattern  string
		haystack string
	}{
		{`(?:a*)*`, ""},
		{`(?:a*)*`, "aaaa"},
		{`(?:a*)*`, "bbbb"},
		{`(?:a*)+`, ""},
		{`(?:a*)+`, "aaaa"},
		{`(?:a*)+`, "bbbb"},
		{`(?:a*)*?`, "aaaa"},
		{`(?:(?:a*)*)*`, "aaaa"},
		{`(a*|b*)*`, "ababab"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.haystack, func(t *testing.T) {
			mod, n := compileModule(t, tt.pattern)

			vm := nfa.NewPikeVM(n)
			_, _, wantMatch := vm.Search([]byte(tt.haystack))

			gotMatch, err := mod.Run([]byte(tt.haystack))
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if gotMatch != wantMatch {
				t.Errorf("is_match(%q, %q) = %v, PikeVM.Search matched = %v", tt.pattern, tt.haystack, gotMatch, wantMatch)
			}
		})
	}
}
