package wasmenc

import (
	"fmt"
	"sort"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D}
var wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	return WithSizePrefix(out, body)
}

// Encode assembles every accumulated section into final module bytes, in
// the canonical order spec.md §4.8 specifies: Types, Imports (always
// empty — the runtime module never imports anything, spec.md §5), Function,
// Memory, Export, Element (unused), DataCount, BranchHints, Code, Data,
// Name.
//
// Returns an error if any declared function is missing its body — the one
// assembly-time check spec.md §4.8 calls out explicitly.
func (m *Module) Encode() ([]byte, error) {
	if idx, missing := m.CheckAllDefined(); missing {
		return nil, fmt.Errorf("wasmenc: function %d (%s) declared but never defined", idx, m.funcs[idx].Name)
	}

	out := make([]byte, 0, 4096)
	out = append(out, wasmMagic...)
	out = append(out, wasmVersion...)

	out = appendSection(out, secType, m.encodeTypeSection())
	// Import section intentionally omitted: the compiled module has zero
	// imports (spec.md §5, "no imports and no threads").
	out = appendSection(out, secFunction, m.encodeFunctionSection())
	out = appendSection(out, secMemory, m.encodeMemorySection())
	if len(m.exports) > 0 {
		out = appendSection(out, secExport, m.encodeExportSection())
	}
	// Element section: always empty. No table is declared; br_table-based
	// dispatch is encoded directly in function bodies rather than via a
	// call_indirect table, so there is nothing to populate here.
	if len(m.data) > 0 {
		dc := []byte{}
		dc = AppendUvarint(dc, uint64(len(m.data)))
		out = appendSection(out, secDataCount, dc)
	}
	if len(m.hints) > 0 {
		out = appendCustomSection(out, "metadata.code.branch_hint", m.encodeBranchHintSection())
	}
	out = appendSection(out, secCode, m.encodeCodeSection())
	out = appendSection(out, secData, m.encodeDataSection())
	if m.IncludeNames {
		out = appendCustomSection(out, nameSectionID, m.encodeNameSection())
	}
	return out, nil
}

func appendCustomSection(out []byte, name string, body []byte) []byte {
	full := AppendName(nil, name)
	full = append(full, body...)
	return appendSection(out, secCustom, full)
}

func (m *Module) encodeTypeSection() []byte {
	var body []byte
	body = AppendUvarint(body, uint64(len(m.types)))
	for _, ft := range m.types {
		body = ft.encode(body)
	}
	return body
}

func (m *Module) encodeFunctionSection() []byte {
	var body []byte
	body = AppendUvarint(body, uint64(len(m.funcs)))
	for _, f := range m.funcs {
		body = AppendUvarint(body, uint64(f.TypeIdx))
	}
	return body
}

func (m *Module) encodeMemorySection() []byte {
	var body []byte
	body = AppendUvarint(body, uint64(len(m.memories)))
	for _, mem := range m.memories {
		body = mem.Limits.encode(body)
	}
	return body
}

func (m *Module) encodeExportSection() []byte {
	var body []byte
	body = AppendUvarint(body, uint64(len(m.exports)))
	for _, e := range m.exports {
		body = AppendName(body, e.Name)
		body = append(body, byte(e.Kind))
		body = AppendUvarint(body, uint64(e.Idx))
	}
	return body
}

// localGroups collapses a flat per-local type list into the run-length
// (count, type) pairs the WASM local declaration vector requires.
func localGroups(locals []ValType) [][2]uint64 {
	var groups [][2]uint64
	for _, t := range locals {
		if len(groups) > 0 && ValType(groups[len(groups)-1][1]) == t {
			groups[len(groups)-1][0]++
			continue
		}
		groups = append(groups, [2]uint64{1, uint64(t)})
	}
	return groups
}

func (m *Module) encodeCodeSection() []byte {
	var body []byte
	body = AppendUvarint(body, uint64(len(m.funcs)))
	for _, f := range m.funcs {
		var fnBody []byte
		groups := localGroups(f.Locals)
		fnBody = AppendUvarint(fnBody, uint64(len(groups)))
		for _, g := range groups {
			fnBody = AppendUvarint(fnBody, g[0])
			fnBody = append(fnBody, byte(g[1]))
		}
		fnBody = append(fnBody, f.Body...)
		fnBody = append(fnBody, 0x0B) // end
		body = WithSizePrefix(body, fnBody)
	}
	return body
}

func (m *Module) encodeDataSection() []byte {
	var body []byte
	body = AppendUvarint(body, uint64(len(m.data)))
	for _, d := range m.data {
		body = AppendUvarint(body, 2) // active, explicit memory index
		body = AppendUvarint(body, uint64(d.MemIdx))
		body = append(body, 0x42) // i64.const
		body = AppendVarint(body, d.Offset)
		body = append(body, 0x0B) // end
		body = AppendVecBytes(body, d.Data)
	}
	return body
}

func (m *Module) encodeBranchHintSection() []byte {
	byFunc := make(map[uint32][]BranchHint)
	for _, h := range m.hints {
		byFunc[h.FuncIdx] = append(byFunc[h.FuncIdx], h)
	}
	funcIdxs := make([]uint32, 0, len(byFunc))
	for idx := range byFunc {
		funcIdxs = append(funcIdxs, idx)
	}
	sort.Slice(funcIdxs, func(i, j int) bool { return funcIdxs[i] < funcIdxs[j] })

	var body []byte
	body = AppendUvarint(body, uint64(len(funcIdxs)))
	for _, idx := range funcIdxs {
		hints := byFunc[idx]
		sort.Slice(hints, func(i, j int) bool { return hints[i].InstrOffset < hints[j].InstrOffset })
		body = AppendUvarint(body, uint64(idx))
		body = AppendUvarint(body, uint64(len(hints)))
		for _, h := range hints {
			body = AppendUvarint(body, uint64(h.InstrOffset))
			body = AppendUvarint(body, 1) // hint byte-length is always 1
			if h.Likely {
				body = append(body, 1)
			} else {
				body = append(body, 0)
			}
		}
	}
	return body
}

func (m *Module) encodeNameSection() []byte {
	var out []byte

	// Function names subsection (id 1).
	var fnNames []byte
	count := 0
	for i, f := range m.funcs {
		if f.Name == "" {
			continue
		}
		fnNames = AppendUvarint(fnNames, uint64(i))
		fnNames = AppendName(fnNames, f.Name)
		count++
	}
	if count > 0 {
		sub := AppendUvarint(nil, uint64(count))
		sub = append(sub, fnNames...)
		out = append(out, 1)
		out = WithSizePrefix(out, sub)
	}

	// Memory names subsection (id 6).
	var memNames []byte
	memCount := 0
	for i, mem := range m.memories {
		if mem.Name == "" {
			continue
		}
		memNames = AppendUvarint(memNames, uint64(i))
		memNames = AppendName(memNames, mem.Name)
		memCount++
	}
	if memCount > 0 {
		sub := AppendUvarint(nil, uint64(memCount))
		sub = append(sub, memNames...)
		out = append(out, 6)
		out = WithSizePrefix(out, sub)
	}

	// Data segment names subsection (id 9).
	var dataNames []byte
	dataCount := 0
	for i, d := range m.data {
		if d.Name == "" {
			continue
		}
		dataNames = AppendUvarint(dataNames, uint64(i))
		dataNames = AppendName(dataNames, d.Name)
		dataCount++
	}
	if dataCount > 0 {
		sub := AppendUvarint(nil, uint64(dataCount))
		sub = append(sub, dataNames...)
		out = append(out, 9)
		out = WithSizePrefix(out, sub)
	}

	return out
}
