// Package python transpiles IR into a standalone Python 3 script.
package python

import (
	"fmt"

	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/internal/transpile"
)

type transpiler struct {
	core.BaseConstVisitor
	f    transpile.Formatter
	opts core.Options
}

// Transpile returns a complete Python script equivalent to instrs.
func Transpile(instrs []core.Instr, opts core.Options) string {
	t := &transpiler{opts: opts}
	t.Self = t

	t.f.Line("import sys")
	t.f.Linef("mem = [0] * %d", transpile.TapeSizeLiteral(opts))
	t.f.Line("ptr = 0")

	core.Walk(t, instrs)

	return t.f.String()
}

func (t *transpiler) cellAt(expr string) string {
	return fmt.Sprintf("mem[(%s) & 0x%x]", expr, transpile.TapeSizeLiteral(t.opts)-1)
}

func (t *transpiler) VisitNop(n *core.Instr) {}

func (t *transpiler) VisitAdd(n *core.Instr) {
	cell := t.cellAt(fmt.Sprintf("ptr + %d", n.Offset))
	t.f.Linef("%s = %s", cell, transpile.MaskExpr(t.opts, fmt.Sprintf("%s + %d", cell, n.Value)))
}

func (t *transpiler) VisitSet(n *core.Instr) {
	t.f.Linef("%s = %d", t.cellAt(fmt.Sprintf("ptr + %d", n.Offset)), n.Value)
}

func (t *transpiler) VisitLinearLoop(n *core.Instr) {
	source := t.cellAt(fmt.Sprintf("ptr + %d", n.Offset))
	for _, off := range core.SortedFactorOffsets(n.Factors) {
		if off == 0 {
			continue
		}
		factor := n.Factors[off]
		target := t.cellAt(fmt.Sprintf("ptr + %d", n.Offset+off))
		t.f.Linef("%s = %s", target, transpile.MaskExpr(t.opts, fmt.Sprintf("%s + %d * %s", target, factor, source)))
	}
	t.f.Linef("%s = 0", source)
}

func (t *transpiler) VisitMovePtr(n *core.Instr) {
	t.f.Linef("ptr += %d", n.Delta)
}

func (t *transpiler) VisitLoop(n *core.Instr) {
	t.f.Linef("while %s != 0:", t.cellAt("ptr"))
	t.f.Indent()
	core.Walk(t, n.Body)
	t.f.Unindent()
}

func (t *transpiler) VisitRead(n *core.Instr) {
	t.f.Linef("%s = sys.stdin.buffer.read(1)[0] if sys.stdin.buffer.peek(1) else 0", t.cellAt(fmt.Sprintf("ptr + %d", n.Offset)))
}

func (t *transpiler) VisitWrite(n *core.Instr) {
	t.f.Linef("sys.stdout.buffer.write(%s.to_bytes(8, 'little')[:1])", t.cellAt(fmt.Sprintf("ptr + %d", n.Offset)))
	t.f.Line("sys.stdout.buffer.flush()")
}
