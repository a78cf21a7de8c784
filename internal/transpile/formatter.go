// Package transpile holds the pieces shared by every source-emitting
// back end (C, Java, Python, and the zombie_ir dump): an
// indentation-tracking line buffer, and the cell-width/mask helpers
// each emitter needs to stay faithful to core.Options instead of
// hardcoding an 8-bit, 0x10000-cell tape the way the original always
// did.
package transpile

import (
	"fmt"
	"strings"

	"github.com/lcox74/zombiec/internal/core"
)

// Formatter is an indent-tracked string builder, ported from the
// original compiler's own Formatter (add_line/indent/unindent) and
// matching the teacher's gas.Generator's own line-at-a-time style.
type Formatter struct {
	depth int
	out   strings.Builder
}

func (f *Formatter) Line(s string) {
	f.out.WriteString(strings.Repeat("    ", f.depth))
	f.out.WriteString(s)
	f.out.WriteByte('\n')
}

func (f *Formatter) Linef(format string, args ...any) {
	f.Line(fmt.Sprintf(format, args...))
}

func (f *Formatter) Indent() { f.depth++ }

func (f *Formatter) Unindent() {
	if f.depth > 0 {
		f.depth--
	}
}

func (f *Formatter) String() string { return f.out.String() }

// CType returns the C integer type wide enough to hold one cell.
func CType(opts core.Options) string {
	switch opts.CellKind {
	case core.Cell8:
		return "uint8_t"
	case core.Cell16:
		return "uint16_t"
	case core.Cell32:
		return "uint32_t"
	default: // Cell64, CellModular
		return "uint64_t"
	}
}

// MaskExpr wraps expr in whatever operation keeps a cell value within
// range after an arithmetic op: a bitmask for power-of-two widths, a
// modulo for CellModular.
func MaskExpr(opts core.Options, expr string) string {
	if opts.CellKind == core.CellModular {
		return fmt.Sprintf("(%s) %% %d", expr, opts.Modulus)
	}
	return fmt.Sprintf("(%s) & %s", expr, MaskLiteral(opts))
}

// MaskLiteral is the hex bitmask literal for opts' cell width.
func MaskLiteral(opts core.Options) string {
	switch opts.CellKind {
	case core.Cell8:
		return "0xFF"
	case core.Cell16:
		return "0xFFFF"
	case core.Cell32:
		return "0xFFFFFFFF"
	default:
		return "0xFFFFFFFFFFFFFFFF"
	}
}

// TapeSizeLiteral is the tape length every emitted program allocates.
func TapeSizeLiteral(opts core.Options) int {
	if opts.TapeSize <= 0 {
		return core.DefaultTapeSize
	}
	return opts.TapeSize
}
