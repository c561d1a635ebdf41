package wasmenc

import "fmt"

// Function is one declared-then-defined function: the canonical
// arena-with-indices pattern spec.md §3/§9 describes (declare first, flush
// bodies to the code section in index order once every one is defined).
type Function struct {
	TypeIdx uint32
	Name    string

	defined bool
	Locals  []ValType // one entry per extra local, in declaration order
	Body    []byte    // raw instruction stream, NOT including the trailing end
}

// Memory is a declared linear memory.
type Memory struct {
	Limits Limits
	Name   string
}

// Export binds a name to a function or memory index.
type Export struct {
	Name string
	Kind exportKind
	Idx  uint32
}

// DataSegment is an active data segment: bytes copied into a specific
// linear memory at a fixed i64 offset at instantiation time (spec.md §3,
// "Active data segment").
type DataSegment struct {
	MemIdx uint32
	Offset int64
	Data   []byte
	Name   string
}

// BranchHint records a compiler-supplied likely/unlikely annotation for one
// `if` instruction's offset within a function body, encoded into the
// `metadata.code.branch_hint` custom section. spec.md §4.8 lists the
// section in the canonical emission order but does not specify a hint
// generation rule, so the compiler records none by default; the plumbing
// exists for a future per-state heuristic (e.g. hinting the common-case
// branch of a Sparse state's range scan).
type BranchHint struct {
	FuncIdx    uint32
	InstrOffset uint32
	Likely     bool
}

// Module accumulates every section of a single WASM module under
// construction. This is the compile-time mirror of spec.md §3's "module
// sections (intermediate)" data model: functions are first declared
// (assigned an index), then defined (body installed); a declared-but-
// undefined function at Encode time makes Encode return an error.
type Module struct {
	types     []FuncType
	typeIndex map[string]uint32

	funcs []*Function

	memories []Memory
	exports  []Export
	data     []DataSegment
	hints    []BranchHint

	IncludeNames bool
}

// NewModule returns an empty module builder.
func NewModule() *Module {
	return &Module{typeIndex: make(map[string]uint32)}
}

// AddType interns ft and returns its type index, reusing an existing entry
// with the identical signature.
func (m *Module) AddType(ft FuncType) uint32 {
	k := ft.key()
	if idx, ok := m.typeIndex[k]; ok {
		return idx
	}
	idx := uint32(len(m.types))
	m.types = append(m.types, ft)
	m.typeIndex[k] = idx
	return idx
}

// DeclareFunction reserves a function index with the given signature and
// debug name. The body must be installed later with DefineFunction before
// Encode is called.
func (m *Module) DeclareFunction(ft FuncType, name string) uint32 {
	typeIdx := m.AddType(ft)
	idx := uint32(len(m.funcs))
	m.funcs = append(m.funcs, &Function{TypeIdx: typeIdx, Name: name})
	return idx
}

// DefineFunction installs the body for a previously declared function.
// Redefining an already-defined function is a programmer error and panics,
// matching spec.md §7's "redefinition is a hard error" / §9 "asserted and
// abort" contract for internal arena-consistency violations.
func (m *Module) DefineFunction(idx uint32, locals []ValType, body *CodeBuilder) {
	if int(idx) >= len(m.funcs) {
		panic(fmt.Sprintf("wasmenc: DefineFunction: index %d never declared", idx))
	}
	f := m.funcs[idx]
	if f.defined {
		panic(fmt.Sprintf("wasmenc: DefineFunction: function %d (%s) redefined", idx, f.Name))
	}
	f.Locals = locals
	f.Body = body.Bytes()
	f.defined = true
}

// AddMemory declares a linear memory and returns its index. The compiler
// always declares exactly two, in order: haystack (0), state (1).
func (m *Module) AddMemory(limits Limits, name string) uint32 {
	idx := uint32(len(m.memories))
	m.memories = append(m.memories, Memory{Limits: limits, Name: name})
	return idx
}

// AddFunctionExport exports function funcIdx under name.
func (m *Module) AddFunctionExport(name string, funcIdx uint32) {
	m.exports = append(m.exports, Export{Name: name, Kind: ExportFunc, Idx: funcIdx})
}

// AddMemoryExport exports memory memIdx under name.
func (m *Module) AddMemoryExport(name string, memIdx uint32) {
	m.exports = append(m.exports, Export{Name: name, Kind: ExportMemory, Idx: memIdx})
}

// AddActiveDataSegment records a data segment targeting memIdx at a fixed
// offset. Insertion order is preserved (spec.md §3: "active data segments
// (ordered by insertion)") so the compact-data-section pass can reason
// about byte-adjacency deterministically.
func (m *Module) AddActiveDataSegment(memIdx uint32, offset int64, data []byte, name string) {
	m.data = append(m.data, DataSegment{MemIdx: memIdx, Offset: offset, Data: data, Name: name})
}

// Data returns the accumulated data segments for inspection/rewriting by
// the compact-data-section pass.
func (m *Module) Data() []DataSegment { return m.data }

// SetData replaces the data segment list wholesale; used by the
// compact-data-section pass to install its coalesced replacement.
func (m *Module) SetData(segs []DataSegment) { m.data = segs }

// AddBranchHint records a likely/unlikely annotation for one `if`
// instruction's byte offset in funcIdx's body.
func (m *Module) AddBranchHint(h BranchHint) { m.hints = append(m.hints, h) }

// NumFunctions returns the number of declared functions.
func (m *Module) NumFunctions() int { return len(m.funcs) }

// FunctionName returns the debug name given to a declared function.
func (m *Module) FunctionName(idx uint32) string { return m.funcs[idx].Name }

// CheckAllDefined returns the index of the first declared-but-undefined
// function, or (0, false) if every function has a body. Called by the
// assembler before encoding (spec.md §4.8's "function definition check").
func (m *Module) CheckAllDefined() (uint32, bool) {
	for i, f := range m.funcs {
		if !f.defined {
			return uint32(i), true
		}
	}
	return 0, false
}
