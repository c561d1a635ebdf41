// Package wasmtest instantiates a compiled WASM module under wazero so
// wasmcompile's tests can drive the emitted is_match/prepare_input ABI
// directly, the same way a real host embedding this compiler's output
// would.
package wasmtest

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Module wraps one instantiated compiled regex module.
type Module struct {
	rt  wazero.Runtime
	mod api.Module

	hay   api.Memory
	state api.Memory // nil unless the module exports its state memory

	prepareInput  api.Function
	startConfig   api.Function
	isMatch       api.Function
	utf8IsBoundary api.Function // nil unless the NFA needed UTF-8 boundary checks
}

// New instantiates wasmBytes and resolves the stable ABI exports.
func New(wasmBytes []byte) (*Module, error) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)

	mod, err := rt.Instantiate(ctx, wasmBytes)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate: %w", err)
	}

	hay := mod.ExportedMemory("haystack")
	prepareInput := mod.ExportedFunction("prepare_input")
	startConfig := mod.ExportedFunction("start_config")
	isMatch := mod.ExportedFunction("is_match")
	if hay == nil || prepareInput == nil || startConfig == nil || isMatch == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compiled module is missing a required export")
	}

	return &Module{
		rt:             rt,
		mod:            mod,
		hay:            hay,
		state:          mod.ExportedMemory("state"),
		prepareInput:   prepareInput,
		startConfig:    startConfig,
		isMatch:        isMatch,
		utf8IsBoundary: mod.ExportedFunction("utf8_is_boundary"),
	}, nil
}

// Close releases the runtime.
func (m *Module) Close() error {
	return m.rt.Close(context.Background())
}

// WriteHaystack copies b into haystack memory starting at offset 0.
func (m *Module) WriteHaystack(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if !m.hay.Write(0, b) {
		return fmt.Errorf("haystack write of %d bytes out of range", len(b))
	}
	return nil
}

// PrepareInput calls prepare_input(haystackLen) and returns its status code.
func (m *Module) PrepareInput(haystackLen uint64) (int32, error) {
	res, err := m.prepareInput.Call(context.Background(), haystackLen)
	if err != nil {
		return 0, err
	}
	return int32(res[0]), nil
}

// IsMatch calls is_match with the given anchoring mode and span, against a
// haystack already written via WriteHaystack (or PrepareInput'd empty).
func (m *Module) IsMatch(anchored, anchoredPattern int32, spanStart, spanEnd, haystackLen uint64) (bool, error) {
	res, err := m.isMatch.Call(
		context.Background(),
		uint64(uint32(anchored)),
		uint64(uint32(anchoredPattern)),
		spanStart,
		spanEnd,
		haystackLen,
	)
	if err != nil {
		return false, err
	}
	return res[0] != 0, nil
}

// Run is a convenience wrapper: prepare_input, write the haystack, then run
// an unanchored is_match over the whole span.
func (m *Module) Run(haystack []byte) (bool, error) {
	n := uint64(len(haystack))
	if _, err := m.PrepareInput(n); err != nil {
		return false, fmt.Errorf("prepare_input: %w", err)
	}
	if err := m.WriteHaystack(haystack); err != nil {
		return false, err
	}
	return m.IsMatch(0, 0, 0, n, n)
}
