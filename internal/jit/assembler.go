package jit

import "encoding/binary"

// Assembler is a flat, append-only machine code buffer. Unlike the
// teacher's flat-op generator, it keeps no deferred fixup list: a
// backward target is known when its jump is emitted (loop bodies are
// fully emitted before their backward jump, and the two I/O thunks
// are emitted before any call site references them), and the two
// forward jumps -- a loop's jz and the entry jump over the thunks --
// are patched in place by patchRel32 as soon as their target exists.
type Assembler struct {
	code []byte
}

func (a *Assembler) emit(b []byte) { a.code = append(a.code, b...) }

func (a *Assembler) pos() int { return len(a.code) }

// patchRel32 overwrites the 4 bytes at byte offset at with rel,
// used for a loop's forward jz, whose target (the loop's exit point)
// isn't known until the body and backward jnz are emitted, and for
// the entry jump, whose target isn't known until the thunks are.
func (a *Assembler) patchRel32(at int, rel int32) {
	binary.LittleEndian.PutUint32(a.code[at:], uint32(rel))
}
