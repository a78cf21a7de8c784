package jit

import (
	"fmt"
	"math"

	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/pkg/amd64"
)

// codeGenerator walks a linearized IR tree and emits x86-64 machine
// code into an Assembler, folding the tape pointer into RDI for the
// whole run (no legacy RDI/RSI split). It implements
// core.ConstVisitor directly rather than through BaseConstVisitor's
// default Loop recursion, since Loop needs to emit the surrounding
// jump pair around its body's code, not just walk it.
type codeGenerator struct {
	asm               *Assembler
	readThunk         int
	writeThunk        int
	err               error
}

func (g *codeGenerator) displacement(offset int64) (int32, bool) {
	if g.err != nil {
		return 0, false
	}
	if offset < math.MinInt32 || offset > math.MaxInt32 {
		g.err = fmt.Errorf("jit: offset %d exceeds the 32-bit displacement range", offset)
		return 0, false
	}
	return int32(offset), true
}

func (g *codeGenerator) VisitNop(n *core.Instr) {}

func (g *codeGenerator) VisitAdd(n *core.Instr) {
	if n.Value == 0 {
		return
	}
	disp, ok := g.displacement(n.Offset)
	if !ok {
		return
	}
	g.asm.emit(amd64.AddImm8Mem(disp, byte(n.Value)))
}

func (g *codeGenerator) VisitSet(n *core.Instr) {
	disp, ok := g.displacement(n.Offset)
	if !ok {
		return
	}
	g.asm.emit(amd64.MovImm8Mem(disp, byte(n.Value)))
}

func (g *codeGenerator) VisitMovePtr(n *core.Instr) {
	if n.Delta == 0 {
		return
	}
	if n.Delta < math.MinInt32 || n.Delta > math.MaxInt32 {
		g.err = fmt.Errorf("jit: pointer delta %d exceeds the 32-bit immediate range", n.Delta)
		return
	}
	g.asm.emit(amd64.AddImm32RDI(int32(n.Delta)))
}

// VisitLoop emits:
//
//	testb $0xff, 0(%rdi)
//	jz    end
//	body:
//	    <body>
//	    testb $0xff, 0(%rdi)
//	    jnz   body
//	end:
//
// The backward jnz target (body) is known as soon as the body is
// emitted; the forward jz target (end) is patched once the whole
// loop is out.
func (g *codeGenerator) VisitLoop(n *core.Instr) {
	if g.err != nil {
		return
	}
	g.asm.emit(amd64.TestImm8Mem(0))
	jzAt := g.asm.pos()
	g.asm.emit(amd64.JzRel32(0))

	bodyStart := g.asm.pos()
	core.Walk(g, n.Body)
	if g.err != nil {
		return
	}

	g.asm.emit(amd64.TestImm8Mem(0))
	jnzAt := g.asm.pos()
	g.asm.emit(amd64.JnzRel32(int32(bodyStart - (jnzAt + 6))))

	end := g.asm.pos()
	g.asm.patchRel32(jzAt+2, int32(end-(jzAt+6)))
}

// VisitLinearLoop emits the closed-form multiply-add: load the
// accumulator once, then for every other offset in Factors, restore
// the accumulator into EAX, scale it, and add it into that cell.
// Offset 0 itself (always factor -1, the decrement that drove the
// loop) is not re-applied via multiply -- it's just zeroed at the
// end, the same terminal state the decrementing loop would reach.
func (g *codeGenerator) VisitLinearLoop(n *core.Instr) {
	disp0, ok := g.displacement(n.Offset)
	if !ok {
		return
	}
	g.asm.emit(amd64.MovzbMemEAX(disp0))
	g.asm.emit(amd64.MovEAXToECX())

	for _, off := range core.SortedFactorOffsets(n.Factors) {
		if off == 0 {
			continue
		}
		factor := n.Factors[off]
		dispT, ok := g.displacement(n.Offset + off)
		if !ok {
			return
		}
		g.asm.emit(amd64.MovECXToEAX())
		if mul := amd64.MulEAX(factor); mul != nil {
			g.asm.emit(mul)
		}
		g.asm.emit(amd64.AddALMem(dispT))
	}

	g.asm.emit(amd64.MovImm8Mem(disp0, 0))
}

// VisitRead/VisitWrite compute the target cell's address into RSI,
// save RDI (the thunk clobbers it as the syscall fd argument), call
// the shared thunk, then restore RDI.
func (g *codeGenerator) VisitRead(n *core.Instr) { g.emitIO(n.Offset, g.readThunk) }

func (g *codeGenerator) VisitWrite(n *core.Instr) { g.emitIO(n.Offset, g.writeThunk) }

func (g *codeGenerator) emitIO(offset int64, thunk int) {
	disp, ok := g.displacement(offset)
	if !ok {
		return
	}
	g.asm.emit(amd64.LeaRSIFromRDI(disp))
	g.asm.emit(amd64.PushRDI())
	callAt := g.asm.pos()
	g.asm.emit(amd64.CallRel32(int32(thunk - (callAt + 5))))
	g.asm.emit(amd64.PopRDI())
}
