package wasmcompile

import (
	"github.com/coregx/regexwasm/automaton"
	"github.com/coregx/regexwasm/internal/wasmenc"
)

// Memory indices. Fixed by spec.md §6: haystack is always memory 0, state
// is always memory 1.
const (
	MemHaystack uint32 = 0
	MemState    uint32 = 1
)

// Context is the mutable compile context every layout planner and function
// emitter shares (spec.md §2, "Compile Context"). It owns the NFA being
// compiled, the configuration, the in-progress wasmenc.Module, the running
// state-memory layout, and the handful of cross-component facts (state-ID
// width, per-state function indices) later planners need from earlier ones.
type Context struct {
	NFA    *automaton.NFA
	Config Config

	Mod *wasmenc.Module

	StateWidth StateIDWidth

	// stateLayout is the running composite Layout for state memory,
	// extended in declaration order by each layout planner (spec.md §3,
	// "State memory layout").
	stateLayout Layout

	// Populated by layout planners, consumed by function emitters that run
	// later in the pipeline.
	Pattern    PatternLayout
	Lookaround LookaroundLayout
	Transition TransitionLayout
	SetCurrent SparseSetLayout
	SetNext    SparseSetLayout

	// Function indices, filled in as each component's functions are
	// declared/defined. Zero-value (0) is a legitimate function index, so
	// callers must check the companion "has" flag before reading one of
	// these off NFA-dependent optional fields; every field here is always
	// populated by the time it's read because the pipeline runs in a fixed
	// order (see Compile).
	// FnSparseContains/FnSparseInsert are shared by both sparse sets:
	// spec.md §4.2, "Both functions operate on arbitrary set_ptr so the two
	// sets share code."
	FnSparseContains   uint32
	FnSparseInsert     uint32
	FnLookupStart      uint32
	FnBranchEpsilon    uint32
	FnBranchTransition uint32
	FnPrepareInput     uint32
	FnStartConfig      uint32
	FnUTF8IsBoundary   uint32
	HasUTF8IsBoundary  bool
	FnIsMatch          uint32

	epsilonClosureFns map[automaton.StateID]uint32
	transitionFns     map[automaton.StateID]uint32
	lookFns           map[automaton.Look]uint32

	// epsilonClosures caches every state's flattened epsilon closure,
	// computed once by planEpsilonClosureFunctions and reused by
	// emitEpsilonClosureFunctions so the visited-set walk (epsilon_closure.go)
	// never needs to run twice for the same state.
	epsilonClosures map[automaton.StateID]epsilonClosure
}

// NewContext builds a fresh compile context for nfa under cfg. It does not
// run any layout planning; callers (Compile) drive the pipeline in order.
func NewContext(nfa *automaton.NFA, cfg Config) *Context {
	return &Context{
		NFA:               nfa,
		Config:            cfg,
		Mod:               wasmenc.NewModule(),
		StateWidth:        chooseStateIDWidth(nfa.NumStates()),
		epsilonClosureFns: make(map[automaton.StateID]uint32),
		transitionFns:     make(map[automaton.StateID]uint32),
		lookFns:           make(map[automaton.Look]uint32),
	}
}

// extendState extends the running state-memory layout with l and returns
// the byte offset at which it begins.
func (c *Context) extendState(l Layout) uint64 {
	composite, offset := Extend(c.stateLayout, l)
	c.stateLayout = composite
	return offset
}

// addStateData extends state memory with len(data) bytes, installs an
// active data segment copying data to the resulting offset, and returns
// that offset.
func (c *Context) addStateData(data []byte, name string) uint64 {
	offset := c.extendState(Layout{Size: uint64(len(data)), Align: 1})
	c.Mod.AddActiveDataSegment(MemState, int64(offset), data, name)
	return offset
}

// stateMemoryPages returns the number of PageSize pages needed to hold the
// final state-memory layout, rounded up (spec.md §3: "Final size is
// rounded up to page size").
func (c *Context) stateMemoryPages() uint64 {
	size := c.stateLayout.padToAlign().Size
	page := uint64(c.Config.PageSize)
	if size == 0 {
		return 1
	}
	return (size + page - 1) / page
}

// declareFunc declares a function with the given signature, registers its
// debug name (used unconditionally by Context bookkeeping regardless of
// Config.IncludeNames — the name section simply won't be emitted if names
// are disabled).
func (c *Context) declareFunc(params, results []wasmenc.ValType, name string) uint32 {
	return c.Mod.DeclareFunction(wasmenc.FuncType{Params: params, Results: results}, name)
}

func (c *Context) defineFunc(idx uint32, locals []wasmenc.ValType, body *wasmenc.CodeBuilder) {
	c.Mod.DefineFunction(idx, locals, body)
}

// setEpsilonClosureFn / epsilonClosureFn record and look up the per-state
// epsilon-closure function emitted for a given state, if any was emitted
// (spec.md §4.3's "omission rule" means not every state gets one).
func (c *Context) setEpsilonClosureFn(id automaton.StateID, fn uint32) {
	c.epsilonClosureFns[id] = fn
}

func (c *Context) epsilonClosureFn(id automaton.StateID) (uint32, bool) {
	fn, ok := c.epsilonClosureFns[id]
	return fn, ok
}

func (c *Context) setTransitionFn(id automaton.StateID, fn uint32) {
	c.transitionFns[id] = fn
}

func (c *Context) transitionFn(id automaton.StateID) (uint32, bool) {
	fn, ok := c.transitionFns[id]
	return fn, ok
}

func (c *Context) setLookFn(l automaton.Look, fn uint32) { c.lookFns[l] = fn }

func (c *Context) lookFn(l automaton.Look) (uint32, bool) {
	fn, ok := c.lookFns[l]
	return fn, ok
}
