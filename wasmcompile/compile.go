package wasmcompile

import "github.com/coregx/regexwasm/automaton"

// Compile turns an NFA into a self-contained WASM module implementing the
// stable ABI (spec.md §6): prepare_input, start_config, is_match, and
// (when the NFA requires UTF-8 boundary checks) utf8_is_boundary.
//
// The pipeline runs in a fixed order because later stages read fields
// earlier ones populate on Context: layouts are planned first (each one
// appending to state memory in turn), then functions are emitted in
// dependency order (sparse-set primitives before anything that inserts
// into a set, lookaround matchers before the epsilon closures that guard
// Look states behind them, transition functions before the dispatcher that
// calls them), and finally the module is assembled and encoded.
func Compile(nfa *automaton.NFA, cfg Config) ([]byte, error) {
	c := NewContext(nfa, cfg)

	c.Pattern = planPattern(c)
	c.Transition = planTransitionTables(c)
	c.Lookaround = planLookaround(c)
	c.SetCurrent = planSparseSet(c, nfa.NumStates())
	c.SetNext = planSparseSet(c, nfa.NumStates())

	emitSparseSetFunctions(c)
	emitLookupStart(c)
	emitLookaroundFunctions(c)

	planEpsilonClosureFunctions(c)
	emitEpsilonClosureFunctions(c)
	emitBranchEpsilonClosure(c)

	emitTransitionFunctions(c)
	isMatchStateFn := emitIsMatchState(c)
	emitBranchTransition(c)

	emitPrepareInput(c)
	emitStartConfig(c)
	if nfa.UTF8 && nfa.CanMatchEmpty() {
		emitUTF8IsBoundary(c)
	}

	emitIsMatch(c, isMatchStateFn)

	return assemble(c)
}
