package wasmcompile

import (
	"sort"

	"github.com/coregx/regexwasm/internal/wasmenc"
)

// assemble finishes the module after every layout planner and function
// emitter has run: declares the two linear memories, wires up the stable
// ABI's exports (spec.md §6), optionally compacts the data section, and
// checks every declared function got a body before encoding.
func assemble(c *Context) ([]byte, error) {
	c.Mod.AddMemory(wasmenc.Limits{Min: 0, HasMax: false, Memory64: true}, "haystack")
	statePages := c.stateMemoryPages()
	c.Mod.AddMemory(wasmenc.Limits{Min: statePages, Max: statePages, HasMax: true, Memory64: true}, "state")

	c.Mod.AddMemoryExport("haystack", MemHaystack)
	if c.Config.ExportState {
		c.Mod.AddMemoryExport("state", MemState)
	}

	c.Mod.AddFunctionExport("prepare_input", c.FnPrepareInput)
	c.Mod.AddFunctionExport("start_config", c.FnStartConfig)
	c.Mod.AddFunctionExport("is_match", c.FnIsMatch)
	if c.HasUTF8IsBoundary {
		c.Mod.AddFunctionExport("utf8_is_boundary", c.FnUTF8IsBoundary)
	}
	if c.Config.ExportAllFunctions {
		for i := 0; i < c.Mod.NumFunctions(); i++ {
			// Re-exporting an already-exported index under its own debug
			// name is harmless; wasmenc does not dedup exports, so skip
			// the ones already bound above.
			switch uint32(i) {
			case c.FnPrepareInput, c.FnStartConfig, c.FnIsMatch:
				continue
			case c.FnUTF8IsBoundary:
				if c.HasUTF8IsBoundary {
					continue
				}
			}
			c.Mod.AddFunctionExport(debugExportName(c, uint32(i)), uint32(i))
		}
	}

	if c.Config.CompactDataSection {
		compactDataSection(c.Mod)
	}

	c.Mod.IncludeNames = c.Config.IncludeNames
	return c.Mod.Encode()
}

func debugExportName(c *Context, idx uint32) string {
	if name := c.Mod.FunctionName(idx); name != "" {
		return name
	}
	return "fn_" + itoa(int(idx))
}

// compactDataSection coalesces byte-adjacent active data segments
// targeting the same memory into single segments, reducing section count
// without changing the module's observable memory contents (spec.md §4.8,
// "compact data section pass").
func compactDataSection(m *wasmenc.Module) {
	orig := m.Data()
	if len(orig) == 0 {
		return
	}
	segs := append([]wasmenc.DataSegment{}, orig...)
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].MemIdx != segs[j].MemIdx {
			return segs[i].MemIdx < segs[j].MemIdx
		}
		return segs[i].Offset < segs[j].Offset
	})
	out := make([]wasmenc.DataSegment, 0, len(segs))
	cur := segs[0]
	for _, s := range segs[1:] {
		if s.MemIdx == cur.MemIdx && s.Offset == cur.Offset+int64(len(cur.Data)) {
			cur.Data = append(append([]byte{}, cur.Data...), s.Data...)
			cur.Name = cur.Name + "+" + s.Name
			continue
		}
		out = append(out, cur)
		cur = s
	}
	out = append(out, cur)
	m.SetData(out)
}
