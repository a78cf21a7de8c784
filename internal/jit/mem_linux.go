//go:build linux && amd64

// This file is the one genuinely OS- and architecture-specific part
// of the JIT: obtaining a page of memory the CPU will actually
// execute. Everything else in this package only assumes "x86-64",
// but mmap/mprotect are Linux syscalls, mirroring the teacher's own
// internal/codegen/linux package boundary.
package jit

import "golang.org/x/sys/unix"

const pageSize = 4096

// execBuffer is a page of anonymous memory that starts writable and
// is flipped to executable once code generation is done.
type execBuffer struct {
	mem []byte
}

// newExecBuffer allocates a page-aligned, read-write mapping and
// copies code into it.
func newExecBuffer(code []byte) (*execBuffer, error) {
	size := pageAlign(len(code))
	if size == 0 {
		size = pageSize
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	copy(mem, code)
	return &execBuffer{mem: mem}, nil
}

func pageAlign(n int) int {
	return (n + pageSize - 1) / pageSize * pageSize
}

// patch overwrites 8 bytes starting at offset, used once to bake in
// the tape's base address before the buffer is made executable.
func (b *execBuffer) patch(offset int, value uint64) {
	for i := 0; i < 8; i++ {
		b.mem[offset+i] = byte(value >> (8 * i))
	}
}

// makeExecutable removes write permission and adds execute
// permission. Code must never be mutated after this call.
func (b *execBuffer) makeExecutable() error {
	return unix.Mprotect(b.mem, unix.PROT_READ|unix.PROT_EXEC)
}

// release unmaps the buffer. Called on every exit path from
// Program.Run, including a recovered panic.
func (b *execBuffer) release() error {
	return unix.Munmap(b.mem)
}
