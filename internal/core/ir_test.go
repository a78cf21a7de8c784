package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lcox74/zombiec/internal/core"
)

func TestSortedFactorOffsetsIsDeterministic(t *testing.T) {
	factors := map[int64]int64{5: 1, -3: 1, 0: -1, 2: 1}
	assert.Equal(t, []int64{-3, 0, 2, 5}, core.SortedFactorOffsets(factors))
}

func TestDumpRendersNestedLoops(t *testing.T) {
	instrs := []core.Instr{
		core.MakeAdd(0, 3),
		core.MakeLoop([]core.Instr{
			core.MakeLinearLoop(0, map[int64]int64{0: -1, 1: 2}),
		}),
	}
	out := core.Dump(instrs)
	assert.Contains(t, out, "Add   @+0 +3")
	assert.Contains(t, out, "Loop [")
	assert.Contains(t, out, "LinearLoop @+0")
	assert.Contains(t, out, "@+1 *= +2")
}

// countingVisitor counts how many times each hook fires, verifying
// BaseConstVisitor's Self-embedding dispatches recursion back to the
// embedding type rather than looping through the base's own no-op
// methods.
type countingVisitor struct {
	core.BaseConstVisitor
	adds, loops int
}

func (c *countingVisitor) VisitAdd(n *core.Instr) { c.adds++ }
func (c *countingVisitor) VisitLoop(n *core.Instr) {
	c.loops++
	c.BaseConstVisitor.VisitLoop(n)
}

func TestBaseConstVisitorSelfDispatch(t *testing.T) {
	v := &countingVisitor{}
	v.Self = v

	instrs := []core.Instr{
		core.MakeAdd(0, 1),
		core.MakeLoop([]core.Instr{
			core.MakeAdd(1, 1),
			core.MakeLoop([]core.Instr{core.MakeAdd(2, 1)}),
		}),
	}
	core.Walk(v, instrs)

	assert.Equal(t, 3, v.adds)
	assert.Equal(t, 2, v.loops)
}
