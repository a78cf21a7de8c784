// Package java transpiles IR into a single-class, single-method Java
// source file.
package java

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

// Transpile returns a complete Java source file equivalent to instrs.
func Transpile(instrs []core.Instr, opts core.Options) string {
	t := &transpiler{opts: opts}
	t.Self = t

	t.f.Line("class Brainfuck {")
	t.f.Indent()
	t.f.Line("public static void main(String[] args) throws java.io.IOException {")
	t.f.Indent()
	t.f.Linef("long[] mem = new long[%d];", transpile.TapeSizeLiteral(opts))
	t.f.Line("int ptr = 0;")
	t.f.Line("")

	core.Walk(t, instrs)

	t.f.Unindent()
	t.f.Line("}")
	t.f.Unindent()
	t.f.Line("}")

	return t.f.String()
}

func (t *transpiler) cellAt(expr string) string {
	return fmt.Sprintf("mem[(int) ((%s) & 0x%sL)]", expr, tapeMaskHex(t.opts))
}

func tapeMaskHex(opts core.Options) string {
	return fmt.Sprintf("%x", uint64(transpile.TapeSizeLiteral(opts)-1))
}

func (t *transpiler) VisitNop(n *core.Instr) {}

func (t *transpiler) VisitAdd(n *core.Instr) {
	cell := t.cellAt(fmt.Sprintf("ptr + %d", n.Offset))
	t.f.Linef("%s = %s;", cell, transpile.MaskExpr(t.opts, fmt.Sprintf("%s + %d", cell, n.Value)))
}

func (t *transpiler) VisitSet(n *core.Instr) {
	cell := t.cellAt(fmt.Sprintf("ptr + %d", n.Offset))
	t.f.Linef("%s = %d;", cell, n.Value)
}

func (t *transpiler) VisitLinearLoop(n *core.Instr) {
	source := t.cellAt(fmt.Sprintf("ptr + %d", n.Offset))
	for _, off := range core.SortedFactorOffsets(n.Factors) {
		if off == 0 {
			continue
		}
		factor := n.Factors[off]
		target := t.cellAt(fmt.Sprintf("ptr + %d", n.Offset+off))
		t.f.Linef("%s = %s;", target, transpile.MaskExpr(t.opts, fmt.Sprintf("%s + %d * %s", target, factor, source)))
	}
	t.f.Linef("%s = 0;", source)
}

func (t *transpiler) VisitMovePtr(n *core.Instr) {
	t.f.Linef("ptr += %d;", n.Delta)
}

func (t *transpiler) VisitLoop(n *core.Instr) {
	t.f.Linef("while (%s != 0) {", t.cellAt("ptr"))
	t.f.Indent()
	core.Walk(t, n.Body)
	t.f.Unindent()
	t.f.Line("}")
}

func (t *transpiler) VisitRead(n *core.Instr) {
	t.f.Linef("%s = System.in.read();", t.cellAt(fmt.Sprintf("ptr + %d", n.Offset)))
}

func (t *transpiler) VisitWrite(n *core.Instr) {
	t.f.Linef("System.out.write((int) %s);", t.cellAt(fmt.Sprintf("ptr + %d", n.Offset)))
	t.f.Line("System.out.flush();")
}
