// Package zombieir emits a human-readable dump of the IR tree, the
// "zombie_ir" target named in the original compiler. It plays the
// role the teacher's internal/codegen/gas package played for GAS
// assembly text: an indent-tracked, line-at-a-time text emitter over
// the same instruction set the other back ends consume, adapted here
// from per-index jump labels to direct nested-block indentation since
// the IR is now a tree rather than a flat, label-addressed array.
package zombieir

import (
	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/internal/transpile"
)

type transpiler struct {
	core.BaseConstVisitor
	f transpile.Formatter
}

// Transpile renders instrs as indented, human-readable IR text.
func Transpile(instrs []core.Instr) string {
	t := &transpiler{}
	t.Self = t
	core.Walk(t, instrs)
	return t.f.String()
}

func (t *transpiler) VisitNop(n *core.Instr) {}

func (t *transpiler) VisitAdd(n *core.Instr) {
	t.f.Linef("@%d += %d", n.Offset, n.Value)
}

func (t *transpiler) VisitSet(n *core.Instr) {
	t.f.Linef("@%d = %d", n.Offset, n.Value)
}

func (t *transpiler) VisitLinearLoop(n *core.Instr) {
	for _, off := range core.SortedFactorOffsets(n.Factors) {
		if off == 0 {
			continue
		}
		t.f.Linef("@%d += %d * @%d", n.Offset+off, n.Factors[off], n.Offset)
	}
	t.f.Linef("@%d = 0 // end linear loop", n.Offset)
}

func (t *transpiler) VisitMovePtr(n *core.Instr) {
	t.f.Linef("ptr += %d", n.Delta)
}

func (t *transpiler) VisitLoop(n *core.Instr) {
	t.f.Line("loop {")
	t.f.Indent()
	core.Walk(t, n.Body)
	t.f.Unindent()
	t.f.Line("}")
}

func (t *transpiler) VisitRead(n *core.Instr) {
	t.f.Linef("read(@%d)", n.Offset)
}

func (t *transpiler) VisitWrite(n *core.Instr) {
	t.f.Linef("write(@%d)", n.Offset)
}
