package amd64

// This file contains x86_64 instruction encoders for the JIT's
// calling convention: the tape pointer lives in RDI for the whole
// run, and every cell access is a [RDI+disp] memory operand. RDI's
// register number (0b111) needs no SIB byte for that form, unlike
// R12 (0b100), which always does.
//
// For details on x86-64 instruction encoding (REX prefixes, ModRM,
// SIB bytes), see: https://wiki.osdev.org/X86-64_Instruction_Encoding

// rdiOperand returns the ModRM (and trailing displacement bytes, if
// any) for a [RDI+disp] memory operand with the given opcode
// extension/reg field packed into bits 3-5.
func rdiOperand(regField byte, disp int32) []byte {
	const rdi = 0x07
	if disp == 0 {
		return []byte{0x00<<6 | regField<<3 | rdi}
	}
	if disp >= -128 && disp <= 127 {
		return []byte{0x01<<6 | regField<<3 | rdi, byte(int8(disp))}
	}
	buf := make([]byte, 5)
	buf[0] = 0x02<<6 | regField<<3 | rdi
	writeLE32(buf[1:], uint32(disp))
	return buf
}

// MovabsRDI encodes: movabs $imm64, %rdi (48 BF <imm64>)
func MovabsRDI(imm64 uint64) []byte {
	buf := make([]byte, 10)
	buf[0] = 0x48 // REX.W
	buf[1] = 0xBF // mov rdi, imm64
	writeLE64(buf[2:], imm64)
	return buf
}

// AddImm32RDI encodes: addq/subq $imm32, %rdi (48 81 C7/EF <imm32>),
// used to move the tape pointer for a MovePtr node. A negative delta
// is encoded as a sub so the immediate stays a small magnitude.
func AddImm32RDI(delta int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48 // REX.W
	buf[1] = 0x81
	if delta >= 0 {
		buf[2] = 0xC7 // /0 add
		writeLE32(buf[3:], uint32(delta))
	} else {
		buf[2] = 0xEF // /5 sub
		writeLE32(buf[3:], uint32(-delta))
	}
	return buf
}

// AddImm8Mem encodes: addb $imm8, disp(%rdi) -- two's-complement add,
// used for both increment and decrement since subtracting k is the
// same bit pattern as adding -k mod 256.
func AddImm8Mem(disp int32, imm8 byte) []byte {
	return append(append([]byte{0x80}, rdiOperand(0, disp)...), imm8)
}

// MovImm8Mem encodes: movb $imm8, disp(%rdi)
func MovImm8Mem(disp int32, imm8 byte) []byte {
	return append(append([]byte{0xC6}, rdiOperand(0, disp)...), imm8)
}

// MovImm8MemRSI encodes: movb $imm8, (%rsi) -- used by the read thunk
// to pre-zero its destination cell before the syscall, so a short
// read (EOF) leaves the cell at 0 instead of whatever was there.
func MovImm8MemRSI(imm8 byte) []byte {
	return []byte{0xC6, 0x06, imm8}
}

// TestImm8Mem encodes: testb $0xff, disp(%rdi), setting flags for a
// following Jz/Jnz.
func TestImm8Mem(disp int32) []byte {
	return append(append([]byte{0xF6}, rdiOperand(0, disp)...), 0xFF)
}

// MovzbMemEAX encodes: movzbl disp(%rdi), %eax
func MovzbMemEAX(disp int32) []byte {
	return append([]byte{0x0F, 0xB6}, rdiOperand(0, disp)...)
}

// AddALMem encodes: addb %al, disp(%rdi) -- adds the low byte of EAX
// into the target cell (opcode 00 /r, ADD r/m8, r8, with r8 = AL = 0).
func AddALMem(disp int32) []byte {
	return append([]byte{0x00}, rdiOperand(0, disp)...)
}

// JzRel32 encodes: jz rel32 (0F 84 <rel32>), relative to end of instruction.
func JzRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x84
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// JnzRel32 encodes: jnz rel32 (0F 85 <rel32>), relative to end of instruction.
func JnzRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x85
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// JmpRel32 encodes: jmp rel32 (E9 <rel32>), relative to end of instruction.
func JmpRel32(rel32 int32) []byte {
	buf := make([]byte, 5)
	buf[0] = 0xE9
	writeLE32(buf[1:], uint32(rel32))
	return buf
}

// CallRel32 encodes: call rel32 (E8 <rel32>), relative to end of instruction.
func CallRel32(rel32 int32) []byte {
	buf := make([]byte, 5)
	buf[0] = 0xE8
	writeLE32(buf[1:], uint32(rel32))
	return buf
}

// Ret encodes: ret (C3)
func Ret() []byte { return []byte{0xC3} }

// Syscall encodes: syscall (0F 05)
func Syscall() []byte { return []byte{0x0F, 0x05} }

// PushRDI / PopRDI save and restore the tape pointer around a thunk's
// syscall, which needs RDI for the file descriptor argument.
func PushRDI() []byte { return []byte{0x57} }
func PopRDI() []byte  { return []byte{0x5F} }

// LeaRSIFromRDI encodes: leaq disp(%rdi), %rsi -- computes the
// address of the cell a Read/Write thunk should transfer, before RDI
// is repurposed to hold the syscall's fd argument.
func LeaRSIFromRDI(disp int32) []byte {
	return append([]byte{0x48, 0x8D}, rdiOperand(0x06 /* rsi */, disp)...)
}

// XorEAXEAX / XorEDIEDI zero a 32-bit register (zero-extended to the
// full 64-bit register, cheaper than an explicit mov $0).
func XorEAXEAX() []byte { return []byte{0x31, 0xC0} }
func XorEDIEDI() []byte { return []byte{0x31, 0xFF} }

// MovImm32EAX / MovImm32EDI / MovImm32EDX load a zero-extended 32-bit
// immediate into the named register, used to set up syscall number,
// fd, and count for the I/O thunks.
func MovImm32EAX(imm32 uint32) []byte { return movImm32(0xB8, imm32) }
func MovImm32EDI(imm32 uint32) []byte { return movImm32(0xBF, imm32) }
func MovImm32EDX(imm32 uint32) []byte { return movImm32(0xBA, imm32) }

func movImm32(opcode byte, imm32 uint32) []byte {
	buf := make([]byte, 5)
	buf[0] = opcode
	writeLE32(buf[1:], imm32)
	return buf
}

// mulEAX multiplies EAX by factor in place, picking the cheapest
// encoding for the small constant factors LinearLoop actually
// produces (neg for -1, add for *2, lea for *3/*5/*9, shl for the
// other powers of two up to 128) and falling back to a general imul
// for anything else.
func mulEAX(factor int64) []byte {
	switch factor {
	case 1:
		return nil
	case -1:
		return []byte{0xF7, 0xD8} // neg eax
	case 2:
		return []byte{0x01, 0xC0} // add eax, eax
	case 3:
		return []byte{0x8D, 0x04, 0x40} // lea eax, [eax+eax*2]
	case 4:
		return []byte{0xC1, 0xE0, 0x02} // shl eax, 2
	case 5:
		return []byte{0x8D, 0x04, 0x80} // lea eax, [eax+eax*4]
	case 8:
		return []byte{0xC1, 0xE0, 0x03} // shl eax, 3
	case 9:
		return []byte{0x8D, 0x04, 0xC0} // lea eax, [eax+eax*8]
	case 16:
		return []byte{0xC1, 0xE0, 0x04} // shl eax, 4
	case 32:
		return []byte{0xC1, 0xE0, 0x05} // shl eax, 5
	case 64:
		return []byte{0xC1, 0xE0, 0x06} // shl eax, 6
	case 128:
		return []byte{0xC1, 0xE0, 0x07} // shl eax, 7
	default:
		return imulEAXImm32(int32(factor)) // imul eax, eax, imm32
	}
}

func imulEAXImm32(imm32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x69
	buf[1] = 0xC0
	writeLE32(buf[2:], uint32(imm32))
	return buf
}

// MulEAX exports mulEAX for the JIT's LinearLoop codegen.
func MulEAX(factor int64) []byte { return mulEAX(factor) }

// MovEAXToECX / MovECXToEAX save and restore EAX around a
// destructive mulEAX sequence, so a LinearLoop with several target
// offsets can reuse the same source value for each.
func MovEAXToECX() []byte { return []byte{0x89, 0xC1} }
func MovECXToEAX() []byte { return []byte{0x89, 0xC8} }
