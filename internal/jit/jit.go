// Package jit compiles linearized IR straight to x86-64 machine code
// and runs it in-process. It covers only Cell8, Trusting-addressed
// programs (see DESIGN.md); the CLI falls back to internal/vm for
// everything else.
package jit

import (
	"fmt"
	"runtime"

	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/pkg/amd64"
)

// Option configures a Program at Compile time.
type Option func(*config)

type config struct {
	inputFD  int
	outputFD int
}

// WithInputFD redirects the Read thunk's syscall to fd instead of 0
// (stdin). The JIT issues raw read(2)/write(2) syscalls, so unlike
// the VM it cannot be pointed at an arbitrary io.Reader -- only a
// file descriptor.
func WithInputFD(fd int) Option { return func(c *config) { c.inputFD = fd } }

// WithOutputFD redirects the Write thunk's syscall to fd instead of 1
// (stdout).
func WithOutputFD(fd int) Option { return func(c *config) { c.outputFD = fd } }

// Program is a compiled, not-yet-executable machine code buffer
// together with the tape layout it expects.
type Program struct {
	code            []byte
	tapePatchOffset int
	tapeSize        int
	trustingBase    int
}

// Compile lowers a linearized IR tree into an x86-64 Program. instrs
// should already have Linearize applied; the JIT does not run passes
// itself. Returns an error if opts names anything outside the JIT's
// supported subset (Cell8, Trusting addressing) or if any offset
// exceeds the 32-bit displacement range a single instruction can
// address.
func Compile(instrs []core.Instr, opts core.Options, jitOpts ...Option) (*Program, error) {
	if opts.CellKind != core.Cell8 {
		return nil, fmt.Errorf("jit: unsupported cell kind %s (JIT only supports Cell8)", opts.CellKind)
	}
	if opts.AddressMode != core.Trusting {
		return nil, fmt.Errorf("jit: unsupported address mode %s (JIT only supports Trusting)", opts.AddressMode)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg := &config{inputFD: 0, outputFD: 1}
	for _, o := range jitOpts {
		o(cfg)
	}

	asm := &Assembler{}
	// The buffer is entered at offset 0: jump over the I/O thunks to
	// the movabs that loads the tape base.
	entryJmp := asm.pos()
	asm.emit(amd64.JmpRel32(0))
	readOff := emitReadThunk(asm, cfg.inputFD)
	writeOff := emitWriteThunk(asm, cfg.outputFD)
	asm.patchRel32(entryJmp+1, int32(asm.pos()-(entryJmp+5)))

	patchOff := asm.pos() + 2 // skip the REX.W + opcode bytes to the imm64 field
	asm.emit(amd64.MovabsRDI(0))

	g := &codeGenerator{asm: asm, readThunk: readOff, writeThunk: writeOff}
	core.Walk(g, instrs)
	if g.err != nil {
		return nil, g.err
	}

	asm.emit(amd64.Ret())

	return &Program{
		code:            asm.code,
		tapePatchOffset: patchOff,
		tapeSize:        opts.TapeSize,
		trustingBase:    opts.TrustingBase,
	}, nil
}

// Run allocates a fresh tape, bakes its base address into the
// compiled code's prologue, and executes it. Every exit path --
// normal return or a recovered panic -- unmaps the executable buffer
// before returning. The I/O thunks do not check the result of their
// read(2)/write(2) syscalls, so a failed read or write is not
// reported as an error.
func (p *Program) Run() (err error) {
	buf, mapErr := newExecBuffer(p.code)
	if mapErr != nil {
		return fmt.Errorf("jit: mapping executable memory: %w", mapErr)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jit: panic during execution: %v", r)
		}
		if relErr := buf.release(); relErr != nil && err == nil {
			err = fmt.Errorf("jit: releasing executable memory: %w", relErr)
		}
	}()

	tape := make([]byte, p.tapeSize)
	base := tapeBaseAddress(tape, p.trustingBase)
	buf.patch(p.tapePatchOffset, base)

	if err := buf.makeExecutable(); err != nil {
		return fmt.Errorf("jit: marking buffer executable: %w", err)
	}

	fn := makeFunc(buf.mem)
	fn()
	runtime.KeepAlive(tape)

	return nil
}
