package dfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/internal/dfg"
)

func build(t *testing.T, src string) ([]dfg.Stmt, *dfg.Arena) {
	t.Helper()
	instrs, err := core.Parse(core.Tokenize([]byte(src)))
	require.NoError(t, err)
	return dfg.Build(core.Linearize(instrs))
}

// buildRaw builds a dataflow graph straight from the parsed tree,
// without linearization collapsing arithmetic loops into their closed
// form first -- used by tests that need a literal Loop node to survive
// into the graph.
func buildRaw(t *testing.T, src string) ([]dfg.Stmt, *dfg.Arena) {
	t.Helper()
	instrs, err := core.Parse(core.Tokenize([]byte(src)))
	require.NoError(t, err)
	return dfg.Build(instrs)
}

func TestBuildWritePrintsComputedExpression(t *testing.T) {
	stmts, arena := build(t, "+++.")
	require.Len(t, stmts, 1)
	require.Equal(t, dfg.Print, stmts[0].Kind)

	node := arena.Node(stmts[0].Value)
	require.Equal(t, dfg.NodeAdd, node.Kind)

	adder := arena.Node(node.B)
	require.Equal(t, dfg.NodeConst, adder.Kind)
	assert.Equal(t, int64(3), adder.Value)

	cell := arena.Node(node.A)
	assert.Equal(t, dfg.NodeCell, cell.Kind)
	assert.Equal(t, int64(0), cell.Offset)
}

func TestBuildReadThenWriteRoundTrips(t *testing.T) {
	stmts, arena := build(t, ",.")
	require.Len(t, stmts, 1)
	node := arena.Node(stmts[0].Value)
	assert.Equal(t, dfg.NodeRead, node.Kind)
}

// Parse fuses consecutive MovePtr tokens on the fly, so these tests
// build the IR directly to keep two distinct MovePtr nodes around the
// cell-tracking shift logic they're exercising.

func TestBuildMovePtrRoundTripHitsCache(t *testing.T) {
	// Cell 0's addition graph is tracked under key 0, shifted to key -2
	// by the first MovePtr, then shifted back to key 0 by the second --
	// the print at the end should hit that still-cached addition node
	// instead of allocating a fresh opaque Cell, proving the shift is a
	// pure key relabeling, not a flush.
	instrs := []core.Instr{
		core.MakeAdd(0, 1),
		core.MakeMovePtr(2),
		core.MakeMovePtr(-2),
		core.MakeWrite(0),
	}
	stmts, arena := dfg.Build(instrs)
	require.Len(t, stmts, 3)
	assert.Equal(t, dfg.MovePtr, stmts[0].Kind)
	assert.Equal(t, int64(2), stmts[0].Offset)
	assert.Equal(t, dfg.MovePtr, stmts[1].Kind)
	assert.Equal(t, int64(-2), stmts[1].Offset)

	require.Equal(t, dfg.Print, stmts[2].Kind)
	node := arena.Node(stmts[2].Value)
	assert.Equal(t, dfg.NodeAdd, node.Kind)
}

func TestBuildMovePtrMissAllocatesFreshCell(t *testing.T) {
	// The write targets relative offset 0 after the pointer has moved,
	// a different absolute cell than the one written before the move
	// -- a cache miss, so it gets a fresh opaque Cell instead of the
	// addition graph tracked under the pre-move key.
	instrs := []core.Instr{
		core.MakeAdd(0, 1),
		core.MakeMovePtr(1),
		core.MakeWrite(0),
	}
	stmts, arena := dfg.Build(instrs)
	require.Len(t, stmts, 2)
	require.Equal(t, dfg.Print, stmts[1].Kind)
	node := arena.Node(stmts[1].Value)
	assert.Equal(t, dfg.NodeCell, node.Kind)
	assert.Equal(t, int64(0), node.Offset)
}

func TestBuildLoopResetsCellStateAfterLoop(t *testing.T) {
	// After a loop, the outer builder's notion of cell 0 is reset to a
	// fresh Const(0), matching cell_states.clear() in the ported pass,
	// not whatever the loop body computed.
	stmts, arena := buildRaw(t, "+++[-].")
	require.Len(t, stmts, 2)
	assert.Equal(t, dfg.Loop, stmts[0].Kind)
	require.Equal(t, dfg.Print, stmts[1].Kind)

	node := arena.Node(stmts[1].Value)
	require.Equal(t, dfg.NodeConst, node.Kind)
	assert.Equal(t, int64(0), node.Value)
}

func TestArenaSharedAcrossNestedLoops(t *testing.T) {
	// A node reference allocated in the outer scope, before a nested
	// loop is built, still resolves correctly afterward -- the arena is
	// one shared slab for the whole build, not reset per loop.
	instrs := []core.Instr{
		core.MakeAdd(0, 5),
		core.MakeLoop([]core.Instr{
			core.MakeLoop([]core.Instr{core.MakeAdd(1, 1)}),
		}),
		core.MakeWrite(0),
	}
	stmts, arena := dfg.Build(instrs)
	require.Len(t, stmts, 2)
	require.Equal(t, dfg.Print, stmts[1].Kind)

	// The pre-loop addition graph for cell 0 was discarded by the
	// Loop's cell_states reset (see TestBuildLoopResetsCellStateAfterLoop),
	// but its nodes remain valid entries in the shared arena.
	outerAdd := arena.Node(stmts[1].Value)
	assert.Equal(t, dfg.NodeConst, outerAdd.Kind)

	// Refs 0-2 were allocated for the pre-loop Add(0, 5) (Cell, Const,
	// Add) and still resolve after the nested loops were built.
	preLoop := arena.Node(2)
	assert.Equal(t, dfg.NodeAdd, preLoop.Kind)
}
