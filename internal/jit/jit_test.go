package jit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcox74/zombiec/internal/core"
)

const helloWorld = `++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.
>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.`

func compileSrc(t *testing.T, src string) []core.Instr {
	t.Helper()
	instrs, err := core.Parse(core.Tokenize([]byte(src)))
	require.NoError(t, err)
	return core.Linearize(instrs)
}

func TestCompileSucceedsForSupportedSubset(t *testing.T) {
	prog, err := Compile(compileSrc(t, helloWorld), core.DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, prog.code)
	// Every compiled program ends with a bare ret.
	assert.Equal(t, byte(0xC3), prog.code[len(prog.code)-1])
}

func TestCompileIsDeterministic(t *testing.T) {
	// Compiling the same linearized IR twice must byte-for-byte agree
	// -- the JIT has no nondeterministic inputs until Run patches in
	// the tape's runtime base address.
	instrs := compileSrc(t, helloWorld)
	p1, err := Compile(instrs, core.DefaultOptions())
	require.NoError(t, err)
	p2, err := Compile(instrs, core.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, p1.code, p2.code)
	assert.Equal(t, p1.tapePatchOffset, p2.tapePatchOffset)
}

func TestCompilePatchOffsetLandsOnMovabsImmediate(t *testing.T) {
	prog, err := Compile(compileSrc(t, "+."), core.DefaultOptions())
	require.NoError(t, err)
	// MovabsRDI is "48 BF <imm64>"; the patch offset should point two
	// bytes past wherever that instruction starts.
	require.GreaterOrEqual(t, len(prog.code), prog.tapePatchOffset+8)
	assert.Equal(t, byte(0x48), prog.code[prog.tapePatchOffset-2])
	assert.Equal(t, byte(0xBF), prog.code[prog.tapePatchOffset-1])
}

func TestCompileEmbedsThunksBeforeCallSites(t *testing.T) {
	prog, err := Compile(compileSrc(t, ",."), core.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, prog.code, byte(0x0F)) // syscall opcode byte present
	// The first syscall instruction (0F 05) belongs to a thunk, which
	// sits ahead of the movabs that starts the program body.
	sys := bytes.Index(prog.code, []byte{0x0F, 0x05})
	require.GreaterOrEqual(t, sys, 0)
	assert.Less(t, sys, prog.tapePatchOffset-2)
}
