package jit

import "github.com/lcox74/zombiec/pkg/amd64"

// Linux x86-64 syscall numbers.
const (
	sysRead  = 0
	sysWrite = 1
)

// emitReadThunk appends a thunk that reads one byte from fd into the
// address already loaded in RSI by the call site. It trusts the
// caller to have preserved RDI. The destination is pre-zeroed, so a
// short read (including EOF, which returns 0) leaves the cell at 0 --
// matching the interpreter's default EOFZero behavior, the JIT's only
// supported EOF behavior.
func emitReadThunk(asm *Assembler, fd int) int {
	off := asm.pos()
	asm.emit(amd64.MovImm8MemRSI(0))
	asm.emit(amd64.XorEAXEAX()) // syscall number 0 (read)
	asm.emit(amd64.MovImm32EDI(uint32(fd)))
	asm.emit(amd64.MovImm32EDX(1))
	asm.emit(amd64.Syscall())
	asm.emit(amd64.Ret())
	return off
}

// emitWriteThunk appends a thunk that writes the byte at the address
// in RSI to fd.
func emitWriteThunk(asm *Assembler, fd int) int {
	off := asm.pos()
	asm.emit(amd64.MovImm32EAX(sysWrite))
	asm.emit(amd64.MovImm32EDI(uint32(fd)))
	asm.emit(amd64.MovImm32EDX(1))
	asm.emit(amd64.Syscall())
	asm.emit(amd64.Ret())
	return off
}
