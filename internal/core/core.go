// Package core provides the intermediate representation, parser, and
// optimization passes shared by every back end of the tape-machine
// compiler.
//
// The surface language has eight commands, each a single character:
//   - > : increment the data pointer
//   - < : decrement the data pointer
//   - + : increment the byte at the data pointer
//   - - : decrement the byte at the data pointer
//   - . : output the byte at the data pointer
//   - , : input a byte and store it at the data pointer
//   - [ : jump forward past matching ] if byte at pointer is zero
//   - ] : jump back to matching [ if byte at pointer is nonzero
//
// All other characters are treated as comments and ignored.
package core

import "fmt"

// Position represents a location in the source file.
type Position struct {
	Offset int // byte offset from start of file
	Line   int // 1-based line number
	Column int // 1-based column number
}

// CellKind identifies the width (or modulus) of a tape cell.
type CellKind int

const (
	Cell8 CellKind = iota
	Cell16
	Cell32
	Cell64
	CellModular
)

var cellKindNames = [...]string{
	Cell8:       "8",
	Cell16:      "16",
	Cell32:      "32",
	Cell64:      "64",
	CellModular: "modular",
}

func (k CellKind) String() string { return cellKindNames[k] }

// Bytes returns the storage width of the cell kind in bytes. CellModular
// cells are stored as uint64 and reduced mod Options.Modulus on every
// write.
func (k CellKind) Bytes() int {
	switch k {
	case Cell8:
		return 1
	case Cell16:
		return 2
	case Cell32:
		return 4
	default: // Cell64, CellModular
		return 8
	}
}

// AddressMode selects how out-of-range tape indices are handled.
type AddressMode int

const (
	Trusting AddressMode = iota
	Wrapping
	Unbounded
)

var addressModeNames = [...]string{
	Trusting:  "trusting",
	Wrapping:  "wrapping",
	Unbounded: "unbounded",
}

func (m AddressMode) String() string { return addressModeNames[m] }

// DefaultTapeSize is the default number of cells (2^16, per the
// traditional tape-machine convention).
const DefaultTapeSize = 1 << 16

// Options controls tape sizing, cell arithmetic, and addressing mode.
// It is threaded explicitly through every component that cares about
// cell width or addressing — the optimizer's transpiler-facing masks,
// the VM, and the JIT back end — rather than captured in a package
// global.
type Options struct {
	CellKind     CellKind
	Modulus      uint64 // only meaningful when CellKind == CellModular
	TapeSize     int
	AddressMode  AddressMode
	TrustingBase int // interior starting offset for Trusting mode
}

// DefaultOptions returns the compiler's default configuration: 8-bit
// cells, a 65536-cell tape, Trusting addressing with the pointer
// parked mid-tape.
func DefaultOptions() Options {
	return Options{
		CellKind:     Cell8,
		TapeSize:     DefaultTapeSize,
		AddressMode:  Trusting,
		TrustingBase: DefaultTapeSize / 2,
	}
}

// Validate reports option-value errors the CLI should surface before
// attempting to compile anything.
func (o Options) Validate() error {
	if o.TapeSize <= 0 {
		return fmt.Errorf("invalid tape size: %d", o.TapeSize)
	}
	if o.CellKind == CellModular && o.Modulus < 2 {
		return fmt.Errorf("invalid cell modulus: %d (must be >= 2)", o.Modulus)
	}
	if o.TrustingBase < 0 || o.TrustingBase >= o.TapeSize {
		return fmt.Errorf("trusting base offset %d out of tape bounds [0, %d)", o.TrustingBase, o.TapeSize)
	}
	return nil
}

// Mask returns the bitmask applied to a cell value on every write, for
// CellKind values other than CellModular (which instead reduces mod
// Modulus). It is the single source of truth every consumer — VM,
// transpilers — uses instead of re-deriving the mask locally.
func (o Options) Mask() uint64 {
	switch o.CellKind {
	case Cell8:
		return 0xFF
	case Cell16:
		return 0xFFFF
	case Cell32:
		return 0xFFFFFFFF
	default: // Cell64, CellModular handled by caller via Reduce
		return ^uint64(0)
	}
}

// Reduce applies the cell's arithmetic (bitmask or modulus reduction)
// to v, returning the stored value.
func (o Options) Reduce(v uint64) uint64 {
	if o.CellKind == CellModular {
		return v % o.Modulus
	}
	return v & o.Mask()
}

// TruncateToByte extracts the low 8 bits of a cell value. The VM uses
// it when writing a cell to its output; the transpilers write the low
// byte through their target language's own output call instead, and
// the JIT only handles 8-bit cells.
func (o Options) TruncateToByte(v uint64) byte {
	return byte(v & 0xFF)
}

// WrapIndex maps a (possibly out-of-range) cell index to an in-bounds
// tape offset according to AddressMode. Trusting mode performs no
// check at all — callers in Trusting mode rely on the TrustingBase
// headroom instead, mirroring the JIT's lack of a bounds check in
// that mode.
func (o Options) WrapIndex(i int64) int {
	if o.AddressMode == Trusting {
		return int(i)
	}
	n := int64(o.TapeSize)
	r := i % n
	if r < 0 {
		r += n
	}
	return int(r)
}
