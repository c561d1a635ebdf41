package wasmenc

// ValType is a WASM value type, encoded as its single-byte type tag.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
	F32 ValType = 0x7D
	F64 ValType = 0x7C
)

// FuncType is a function signature: zero or more parameter types producing
// zero or more result types. The compiler emits 0 to 3 results (the
// transition functions return a pair, start_config a triple), but the
// encoding is general.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (ft FuncType) key() string {
	b := make([]byte, 0, len(ft.Params)+len(ft.Results)+2)
	b = append(b, 0x60)
	for _, p := range ft.Params {
		b = append(b, byte(p))
	}
	b = append(b, '>')
	for _, r := range ft.Results {
		b = append(b, byte(r))
	}
	return string(b)
}

func (ft FuncType) encode(buf []byte) []byte {
	buf = append(buf, 0x60)
	buf = AppendUvarint(buf, uint64(len(ft.Params)))
	for _, p := range ft.Params {
		buf = append(buf, byte(p))
	}
	buf = AppendUvarint(buf, uint64(len(ft.Results)))
	for _, r := range ft.Results {
		buf = append(buf, byte(r))
	}
	return buf
}

// section IDs, in the canonical order spec.md §4.8 requires.
const (
	secType       = 1
	secImport     = 2
	secFunction   = 3
	secMemory     = 5
	secExport     = 7
	secElement    = 9
	secDataCount  = 12
	secCode       = 10
	secData       = 11
	secCustom     = 0
	nameSectionID = "name"
)

// exportKind tags what an export index refers to.
type exportKind byte

const (
	ExportFunc   exportKind = 0x00
	ExportMemory exportKind = 0x02
)

// Limits describes a WASM memory's page bounds. Memory64 selects the
// address-type encoding (i64 offsets/sizes) spec.md §6 requires for both
// linear memories.
type Limits struct {
	Min      uint64
	Max      uint64 // only meaningful if HasMax
	HasMax   bool
	Memory64 bool
}

func (l Limits) encode(buf []byte) []byte {
	// flags bit 0: has max; bit 2 (0x04): memory64 address type.
	flags := byte(0)
	if l.HasMax {
		flags |= 0x01
	}
	if l.Memory64 {
		flags |= 0x04
	}
	buf = append(buf, flags)
	if l.Memory64 {
		buf = AppendUvarint(buf, l.Min)
		if l.HasMax {
			buf = AppendUvarint(buf, l.Max)
		}
	} else {
		buf = AppendUvarint(buf, l.Min)
		if l.HasMax {
			buf = AppendUvarint(buf, l.Max)
		}
	}
	return buf
}
