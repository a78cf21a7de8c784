// Package c transpiles IR into standalone C source, either by
// walking the IR tree directly or, via TranspileDFG, by first
// building a dataflow graph (internal/dfg) and emitting from that --
// the repository's one back end with both a direct and a
// dataflow-graph-based code path.
package c

import (
	"fmt"

	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/internal/dfg"
	"github.com/lcox74/zombiec/internal/transpile"
)

type transpiler struct {
	core.BaseConstVisitor
	f    transpile.Formatter
	opts core.Options
}

// Transpile walks instrs directly and returns a complete C program.
func Transpile(instrs []core.Instr, opts core.Options) string {
	t := &transpiler{opts: opts}
	t.Self = t
	t.header()
	core.Walk(t, instrs)
	t.footer()
	return t.f.String()
}

func (t *transpiler) header() {
	ctype := transpile.CType(t.opts)
	t.f.Line("#include <stdio.h>")
	t.f.Line("#include <stdlib.h>")
	t.f.Line("#include <string.h>")
	t.f.Line("#include <inttypes.h>")
	t.f.Line("")
	t.f.Linef("#define OFF(x) ((%s)(ptr + (%s)(x)))", ctype, ctype)
	t.f.Line("")
	t.f.Line("int main() {")
	t.f.Indent()
	size := transpile.TapeSizeLiteral(t.opts)
	t.f.Linef("%s* mem = (%s*) malloc(%d * sizeof(%s));", ctype, ctype, size, ctype)
	t.f.Linef("memset(mem, 0, %d * sizeof(%s));", size, ctype)
	t.f.Linef("%s ptr = 0;", ctype)
}

func (t *transpiler) footer() {
	t.f.Line("free(mem);")
	t.f.Unindent()
	t.f.Line("}")
}

func (t *transpiler) assign(offset int64, expr string) {
	t.f.Linef("mem[OFF(%d)] = %s;", offset, transpile.MaskExpr(t.opts, expr))
}

func (t *transpiler) VisitNop(n *core.Instr) { t.f.Line("") }

func (t *transpiler) VisitAdd(n *core.Instr) {
	t.assign(n.Offset, fmt.Sprintf("mem[OFF(%d)] + %d", n.Offset, n.Value))
}

func (t *transpiler) VisitSet(n *core.Instr) {
	t.assign(n.Offset, fmt.Sprintf("%d", n.Value))
}

func (t *transpiler) VisitLinearLoop(n *core.Instr) {
	for _, off := range core.SortedFactorOffsets(n.Factors) {
		if off == 0 {
			continue
		}
		factor := n.Factors[off]
		target := n.Offset + off
		t.assign(target, fmt.Sprintf("mem[OFF(%d)] + %d * mem[OFF(%d)]", target, factor, n.Offset))
	}
	t.f.Linef("mem[OFF(%d)] = 0;", n.Offset)
}

func (t *transpiler) VisitMovePtr(n *core.Instr) {
	t.f.Linef("ptr = OFF(%d);", n.Delta)
}

func (t *transpiler) VisitLoop(n *core.Instr) {
	if t.opts.CellKind == core.Cell8 && len(n.Body) == 1 &&
		n.Body[0].Kind == core.MovePtr && n.Body[0].Delta == 1 {
		t.f.Line("ptr = OFF(strlen((char*) &mem[ptr]));")
		return
	}
	t.f.Line("while (mem[OFF(0)]) {")
	t.f.Indent()
	core.Walk(t, n.Body)
	t.f.Unindent()
	t.f.Line("}")
}

func (t *transpiler) VisitRead(n *core.Instr) {
	t.f.Linef("mem[OFF(%d)] = getchar();", n.Offset)
}

func (t *transpiler) VisitWrite(n *core.Instr) {
	t.f.Linef("putchar(mem[OFF(%d)]);", n.Offset)
}

// TranspileDFG builds a dataflow graph over instrs and emits C from
// that instead, flushing pending cell writes (memoffs, named after
// the original pass's own local variable) into memory just before
// each nested loop, whose condition reads mem[OFF(0)], and at the end
// of each block. A Print evaluates its expression directly and does
// not flush.
func TranspileDFG(instrs []core.Instr, opts core.Options) string {
	stmts, arena := dfg.Build(instrs)
	t := &dfgTranspiler{opts: opts, arena: arena}
	t.header()
	t.generate(stmts)
	t.footer()
	return t.f.String()
}

type dfgTranspiler struct {
	f         transpile.Formatter
	opts      core.Options
	arena     *dfg.Arena
	tmpCount  int
}

func (t *dfgTranspiler) header() {
	ctype := transpile.CType(t.opts)
	t.f.Line("#include <stdio.h>")
	t.f.Line("#include <stdlib.h>")
	t.f.Line("#include <string.h>")
	t.f.Line("#include <inttypes.h>")
	t.f.Line("")
	t.f.Linef("#define OFF(x) ((%s)(ptr + (%s)(x)))", ctype, ctype)
	t.f.Line("")
	t.f.Line("int main() {")
	t.f.Indent()
	size := transpile.TapeSizeLiteral(t.opts)
	t.f.Linef("%s* mem = (%s*) calloc(%d, sizeof(%s));", ctype, ctype, size, ctype)
	t.f.Linef("%s ptr = 0;", ctype)
}

func (t *dfgTranspiler) footer() {
	t.f.Unindent()
	t.f.Line("}")
}

func (t *dfgTranspiler) eval(ref dfg.NodeRef) string {
	n := t.arena.Node(ref)
	switch n.Kind {
	case dfg.NodeConst:
		return fmt.Sprintf("%d", n.Value)
	case dfg.NodeCell:
		return fmt.Sprintf("mem[OFF(%d)]", n.Offset)
	case dfg.NodeAdd:
		return fmt.Sprintf("%s + %s", t.eval(n.A), t.eval(n.B))
	case dfg.NodeMultiply:
		return fmt.Sprintf("(%s) * (%s)", t.eval(n.A), t.eval(n.B))
	default: // dfg.NodeRead
		return "getchar()"
	}
}

func (t *dfgTranspiler) generate(stmts []dfg.Stmt) {
	type pending struct {
		offset int64
		tmp    int
	}
	ctype := transpile.CType(t.opts)
	var memoffs []pending
	flush := func() {
		for _, p := range memoffs {
			t.f.Linef("mem[OFF(%d)] = tmp_%d;", p.offset, p.tmp)
		}
		memoffs = nil
	}

	for _, s := range stmts {
		switch s.Kind {
		case dfg.MovePtr:
			t.f.Linef("ptr += %d;", s.Offset)
		case dfg.WriteMem:
			t.f.Linef("%s tmp_%d = %s;", ctype, t.tmpCount, t.eval(s.Value))
			memoffs = append(memoffs, pending{offset: s.Offset, tmp: t.tmpCount})
			t.tmpCount++
		case dfg.Print:
			t.f.Linef("putchar(%s);", t.eval(s.Value))
		case dfg.Loop:
			flush()
			t.f.Line("while (mem[OFF(0)]) {")
			t.f.Indent()
			t.generate(s.Body)
			t.f.Unindent()
			t.f.Line("}")
		}
	}
	flush()
}
