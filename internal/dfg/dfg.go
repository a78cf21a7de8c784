// Package dfg builds a dataflow graph over a basic block of IR, an
// optional alternative to straight-line codegen that exposes value
// dependencies instead of a sequential instruction list. It is
// consumed only by the C transpiler's DFG-based emitter.
package dfg

import "github.com/lcox74/zombiec/internal/core"

// NodeKind identifies the variant of a graph Node.
type NodeKind int

const (
	NodeCell NodeKind = iota
	NodeConst
	NodeAdd
	NodeMultiply
	NodeRead
)

// Node is one value in the dataflow graph. A-B hold operand
// NodeRefs for NodeAdd/NodeMultiply; Offset/Value are populated for
// NodeCell/NodeConst respectively.
type Node struct {
	Kind   NodeKind
	Offset int64
	Value  int64
	A, B   NodeRef
}

// NodeRef is an index into an Arena's node slab.
type NodeRef int

// Arena is an append-only store of Nodes, shared across an entire
// build. Nothing is ever freed individually; unreachable nodes are
// simply never looked up again and the Go garbage collector is not
// involved since the whole slice stays referenced by the Arena.
type Arena struct {
	nodes []Node
}

func NewArena() *Arena { return &Arena{} }

func (a *Arena) alloc(n Node) NodeRef {
	a.nodes = append(a.nodes, n)
	return NodeRef(len(a.nodes) - 1)
}

// Node looks up a previously allocated node by reference.
func (a *Arena) Node(ref NodeRef) Node { return a.nodes[ref] }

func (a *Arena) Cell(offset int64) NodeRef     { return a.alloc(Node{Kind: NodeCell, Offset: offset}) }
func (a *Arena) Const(value int64) NodeRef     { return a.alloc(Node{Kind: NodeConst, Value: value}) }
func (a *Arena) Add(x, y NodeRef) NodeRef      { return a.alloc(Node{Kind: NodeAdd, A: x, B: y}) }
func (a *Arena) Multiply(x, y NodeRef) NodeRef { return a.alloc(Node{Kind: NodeMultiply, A: x, B: y}) }
func (a *Arena) Read() NodeRef                 { return a.alloc(Node{Kind: NodeRead}) }

// StmtKind identifies the variant of a control-flow Stmt.
type StmtKind int

const (
	Print StmtKind = iota
	WriteMem
	MovePtr
	Loop
)

// Stmt is one entry of a dataflow-graph control-flow list. Offset
// carries the MovePtr delta or the WriteMem target cell; Value
// carries the node evaluated for Print/WriteMem; Body carries a
// nested loop's own statement list.
type Stmt struct {
	Kind   StmtKind
	Offset int64
	Value  NodeRef
	Body   []Stmt
}

// Build constructs a dataflow graph for a basic block of already
// linearized IR (straight-line Add/Set/LinearLoop/Read/Write/MovePtr,
// plus nested Loop for anything linearization couldn't reduce).
// Nodes are shared across the whole call in a single Arena.
func Build(instrs []core.Instr) ([]Stmt, *Arena) {
	arena := NewArena()
	b := newBuilder(arena)
	core.Walk(b, instrs)
	return b.cfg, arena
}

type builder struct {
	core.BaseConstVisitor
	arena *Arena
	cells map[int64]NodeRef
	cfg   []Stmt
}

func newBuilder(arena *Arena) *builder {
	b := &builder{arena: arena, cells: make(map[int64]NodeRef)}
	b.Self = b
	return b
}

// getCell returns the node currently representing the value at
// offset, or allocates a fresh opaque Cell node if nothing has
// written to it yet in this block. A fresh allocation is
// deliberately not cached back into cells — mirroring the ported
// pass, an untouched offset read twice produces two equivalent but
// distinct Cell nodes, which is harmless since both describe the same
// tape location.
func (b *builder) getCell(offset int64) NodeRef {
	if ref, ok := b.cells[offset]; ok {
		return ref
	}
	return b.arena.Cell(offset)
}

func (b *builder) VisitAdd(n *core.Instr) {
	cell := b.getCell(n.Offset)
	adder := b.arena.Const(n.Value)
	b.cells[n.Offset] = b.arena.Add(cell, adder)
}

func (b *builder) VisitSet(n *core.Instr) {
	b.cells[n.Offset] = b.arena.Const(n.Value)
}

func (b *builder) VisitLinearLoop(n *core.Instr) {
	multiplier := b.getCell(n.Offset)
	for _, off := range core.SortedFactorOffsets(n.Factors) {
		fact := n.Factors[off]
		target := n.Offset + off
		if fact == 1 {
			b.cells[target] = multiplier
			continue
		}
		factorNode := b.arena.Const(fact)
		b.cells[target] = b.arena.Multiply(multiplier, factorNode)
	}
	b.cells[n.Offset] = b.arena.Const(0)
}

func (b *builder) VisitRead(n *core.Instr) {
	b.cells[n.Offset] = b.arena.Read()
}

func (b *builder) VisitWrite(n *core.Instr) {
	b.cfg = append(b.cfg, Stmt{Kind: Print, Value: b.getCell(n.Offset)})
}

func (b *builder) VisitMovePtr(n *core.Instr) {
	b.cfg = append(b.cfg, Stmt{Kind: MovePtr, Offset: n.Delta})

	shifted := make(map[int64]NodeRef, len(b.cells))
	for off, ref := range b.cells {
		shifted[off-n.Delta] = ref
	}
	b.cells = shifted
}

func (b *builder) VisitLoop(n *core.Instr) {
	inner := newBuilder(b.arena)
	core.Walk(inner, n.Body)

	b.cfg = append(b.cfg, Stmt{Kind: Loop, Body: inner.cfg})
	b.cells = make(map[int64]NodeRef)
	b.cells[0] = b.arena.Const(0)
}
