// Package vm provides a tree-walking interpreter for the compiler's
// IR, used both as the reference implementation the JIT and
// transpilers are checked against and as the execution path for any
// program the JIT declines to handle (non-Cell8 cell widths or
// non-Trusting addressing).
package vm

import (
	"io"
	"os"

	"github.com/lcox74/zombiec/internal/core"
)

// EOFBehavior specifies how the VM handles EOF on input.
type EOFBehavior int

const (
	EOFZero     EOFBehavior = iota // set cell to 0 (default)
	EOFMinusOne                    // set cell to all-ones for the cell width
	EOFNoChange                    // leave cell unchanged
)

// VM interprets an IR tree against a flat tape, honoring the width
// and addressing rules of the core.Options it's run with.
type VM struct {
	input       io.Reader
	output      io.Writer
	eofBehavior EOFBehavior

	opts   core.Options
	memory []uint64
	dp     int64
	ioBuf  [1]byte

	err error
}

// VMOption is a functional option for configuring a VM, mirroring the
// compiler's other components (jit.Option, see internal/jit).
type VMOption func(*VM)

// WithInput sets the input reader (default os.Stdin).
func WithInput(r io.Reader) VMOption {
	return func(v *VM) { v.input = r }
}

// WithOutput sets the output writer (default os.Stdout).
func WithOutput(w io.Writer) VMOption {
	return func(v *VM) { v.output = w }
}

// WithEOFBehavior sets the EOF handling behavior (default EOFZero).
func WithEOFBehavior(b EOFBehavior) VMOption {
	return func(v *VM) { v.eofBehavior = b }
}

// NewVM creates a new VM with the given options.
func NewVM(opts ...VMOption) *VM {
	v := &VM{
		input:       os.Stdin,
		output:      os.Stdout,
		eofBehavior: EOFZero,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run interprets instrs, allocating a fresh tape sized and addressed
// according to opts. It returns opts.Validate's error if opts is
// invalid, otherwise the first RuntimeError encountered, or nil on
// normal termination.
func (v *VM) Run(instrs []core.Instr, opts core.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	v.opts = opts
	v.memory = make([]uint64, opts.TapeSize)
	v.err = nil
	if opts.AddressMode == core.Trusting {
		v.dp = int64(opts.TrustingBase)
	} else {
		v.dp = 0
	}

	core.Walk(v, instrs)
	return v.err
}

func (v *VM) index(offset int64) int {
	return v.opts.WrapIndex(v.dp + offset)
}

// reduceSigned folds a signed intermediate result back into the
// cell's storage width or modulus, the same rule core.Options.Reduce
// applies to unsigned values.
func reduceSigned(opts core.Options, val int64) uint64 {
	if opts.CellKind == core.CellModular {
		m := int64(opts.Modulus)
		r := val % m
		if r < 0 {
			r += m
		}
		return uint64(r)
	}
	return uint64(val) & opts.Mask()
}

func (v *VM) VisitNop(n *core.Instr) {}

func (v *VM) VisitAdd(n *core.Instr) {
	if v.err != nil {
		return
	}
	idx := v.index(n.Offset)
	v.memory[idx] = reduceSigned(v.opts, int64(v.memory[idx])+n.Value)
}

func (v *VM) VisitSet(n *core.Instr) {
	if v.err != nil {
		return
	}
	v.memory[v.index(n.Offset)] = reduceSigned(v.opts, n.Value)
}

func (v *VM) VisitMovePtr(n *core.Instr) {
	if v.err != nil {
		return
	}
	v.dp += n.Delta
}

func (v *VM) VisitLinearLoop(n *core.Instr) {
	if v.err != nil {
		return
	}
	source := v.memory[v.index(n.Offset)]
	for _, off := range core.SortedFactorOffsets(n.Factors) {
		if off == 0 {
			continue
		}
		factor := n.Factors[off]
		idx := v.index(n.Offset + off)
		delta := factor * int64(source)
		v.memory[idx] = reduceSigned(v.opts, int64(v.memory[idx])+delta)
	}
	v.memory[v.index(n.Offset)] = 0
}

func (v *VM) VisitRead(n *core.Instr) {
	if v.err != nil {
		return
	}
	read, err := v.input.Read(v.ioBuf[:])
	idx := v.index(n.Offset)
	if err == io.EOF || read == 0 {
		switch v.eofBehavior {
		case EOFZero:
			v.memory[idx] = v.opts.Reduce(0)
		case EOFMinusOne:
			v.memory[idx] = v.opts.Reduce(^uint64(0))
		case EOFNoChange:
		}
		return
	}
	if err != nil {
		v.err = &RuntimeError{Msg: "input error: " + err.Error(), Pos: n.Pos}
		return
	}
	v.memory[idx] = v.opts.Reduce(uint64(v.ioBuf[0]))
}

func (v *VM) VisitWrite(n *core.Instr) {
	if v.err != nil {
		return
	}
	v.ioBuf[0] = v.opts.TruncateToByte(v.memory[v.index(n.Offset)])
	if _, err := v.output.Write(v.ioBuf[:]); err != nil {
		v.err = &RuntimeError{Msg: "output error: " + err.Error(), Pos: n.Pos}
	}
}

func (v *VM) VisitLoop(n *core.Instr) {
	if v.err != nil {
		return
	}
	for v.memory[v.index(0)] != 0 {
		core.Walk(v, n.Body)
		if v.err != nil {
			return
		}
	}
}
