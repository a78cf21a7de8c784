package core

// Linearize applies the offset-propagation and loop-linearization pass
// to a freshly parsed IR tree, returning a new, optimized tree. The
// pass is idempotent: running it again over its own output is a
// no-op (modulo Nop placement, which this implementation never
// introduces).
//
// It walks the tree once, tracking a shadow pointer offset. Straight-
// line MovePtr nodes are absorbed into the shadow instead of being
// re-emitted; Add/Set/Read/Write are re-emitted with their offset
// shifted by the shadow. On entering a Loop, the shadow is saved and
// reset to zero for the body; on leaving, a non-zero shadow is
// flushed as a trailing MovePtr inside the body before the loop is
// either replaced by its closed form or kept as-is (see
// classifyLoop).
func Linearize(instrs []Instr) []Instr {
	p := &linearizer{}
	p.visitBlock(instrs)
	return p.out
}

type linearizer struct {
	offset int64
	out    []Instr
}

func (p *linearizer) visitBlock(instrs []Instr) {
	for i := range instrs {
		p.visitOne(&instrs[i])
	}
}

func (p *linearizer) visitOne(n *Instr) {
	switch n.Kind {
	case Nop:
		// dropped: a Nop carries no effect and offset propagation
		// never needs to preserve its position.
	case Add:
		p.out = append(p.out, MakeAdd(n.Offset+p.offset, n.Value))
	case Set:
		p.out = append(p.out, MakeSet(n.Offset+p.offset, n.Value))
	case Read:
		p.out = append(p.out, MakeRead(n.Offset+p.offset))
	case Write:
		p.out = append(p.out, MakeWrite(n.Offset+p.offset))
	case MovePtr:
		p.offset += n.Delta
	case LinearLoop:
		// Offsets are already absolute; pass through unchanged (a
		// second Linearize pass over already-linearized IR is a
		// no-op, per the idempotence property).
		p.out = append(p.out, *n)
	case Loop:
		p.visitLoop(n)
	}
}

// visitLoop classifies a loop body and emits either its closed form
// (LinearLoop, or a degenerate Set-to-zero) or the loop itself with
// any absorbed pointer movement restored around it.
func (p *linearizer) visitLoop(n *Instr) {
	outerOffset := p.offset

	// Recurse into the body with a fresh shadow, collecting both the
	// rewritten body and, in the same pass, the net per-offset Add
	// totals — the classification below needs both: the rewritten
	// body in case linearization doesn't apply, and the totals in
	// case it does.
	inner := &linearizer{}
	increments := make(map[int64]int64)
	dirty := false

	for i := range n.Body {
		child := &n.Body[i]
		inner.visitOne(child)
		if !dirty {
			switch child.Kind {
			case Add:
				increments[child.Offset] += child.Value
			case Nop:
				// no-op, doesn't dirty the classification
			default:
				dirty = true
			}
		}
	}
	if inner.offset != 0 {
		inner.out = append(inner.out, MakeMovePtr(inner.offset))
	}
	body := inner.out

	switch {
	case !dirty && len(increments) == 1:
		if v, ok := increments[0]; ok && v%2 != 0 {
			// [-], [---], ... : this loop terminates in finite time
			// for any starting cell value over an even-cardinality
			// modulus, since decrementing by an odd amount visits
			// every residue including zero.
			p.out = append(p.out, MakeSet(outerOffset, 0))
			return
		}
		p.emitLoop(outerOffset, body)

	case !dirty && increments[0] == -1:
		p.out = append(p.out, MakeLinearLoop(outerOffset, increments))

	default:
		p.emitLoop(outerOffset, body)
	}
}

// emitLoop restores any pointer movement absorbed before this loop
// and appends the loop with its (already offset-propagated) body.
func (p *linearizer) emitLoop(outerOffset int64, body []Instr) {
	if outerOffset != 0 {
		p.out = append(p.out, MakeMovePtr(outerOffset))
	}
	p.out = append(p.out, MakeLoop(body))
	// The MovePtr just emitted already moved the real pointer to
	// outerOffset, so subsequent instructions shift from there, not
	// from outerOffset again.
	p.offset = 0
}
