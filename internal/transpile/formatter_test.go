package transpile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/internal/transpile"
)

func TestFormatterIndentsNestedLines(t *testing.T) {
	var f transpile.Formatter
	f.Line("outer")
	f.Indent()
	f.Line("inner")
	f.Indent()
	f.Linef("deepest %d", 1)
	f.Unindent()
	f.Unindent()
	f.Line("outer again")

	assert.Equal(t, "outer\n    inner\n        deepest 1\nouter again\n", f.String())
}

func TestFormatterUnindentFloorsAtZero(t *testing.T) {
	var f transpile.Formatter
	f.Unindent()
	f.Line("top")
	assert.Equal(t, "top\n", f.String())
}

func TestCTypePerCellKind(t *testing.T) {
	cases := map[core.CellKind]string{
		core.Cell8:       "uint8_t",
		core.Cell16:      "uint16_t",
		core.Cell32:      "uint32_t",
		core.Cell64:      "uint64_t",
		core.CellModular: "uint64_t",
	}
	for kind, want := range cases {
		assert.Equal(t, want, transpile.CType(core.Options{CellKind: kind}))
	}
}

func TestMaskExprUsesModuloForCellModular(t *testing.T) {
	opts := core.Options{CellKind: core.CellModular, Modulus: 7}
	assert.Equal(t, "(mem[0] + 1) % 7", transpile.MaskExpr(opts, "mem[0] + 1"))
}

func TestMaskExprUsesBitmaskForFixedWidths(t *testing.T) {
	opts := core.Options{CellKind: core.Cell16}
	assert.Equal(t, "(mem[0] + 1) & 0xFFFF", transpile.MaskExpr(opts, "mem[0] + 1"))
}

func TestMaskLiteralPerCellKind(t *testing.T) {
	assert.Equal(t, "0xFF", transpile.MaskLiteral(core.Options{CellKind: core.Cell8}))
	assert.Equal(t, "0xFFFF", transpile.MaskLiteral(core.Options{CellKind: core.Cell16}))
	assert.Equal(t, "0xFFFFFFFF", transpile.MaskLiteral(core.Options{CellKind: core.Cell32}))
	assert.Equal(t, "0xFFFFFFFFFFFFFFFF", transpile.MaskLiteral(core.Options{CellKind: core.Cell64}))
}

func TestTapeSizeLiteralFallsBackToDefault(t *testing.T) {
	assert.Equal(t, core.DefaultTapeSize, transpile.TapeSizeLiteral(core.Options{TapeSize: 0}))
	assert.Equal(t, 4096, transpile.TapeSizeLiteral(core.Options{TapeSize: 4096}))
}
