package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcox74/zombiec/internal/core"
)

func parse(t *testing.T, src string) []core.Instr {
	t.Helper()
	instrs, err := core.Parse(core.Tokenize([]byte(src)))
	require.NoError(t, err)
	return instrs
}

func TestParseFusesRuns(t *testing.T) {
	instrs := parse(t, "+++>>--")
	require.Len(t, instrs, 3)
	assert.Equal(t, core.MakeAdd(0, 3), instrs[0])
	assert.Equal(t, core.MakeAdd(2, -2), instrs[1])
	assert.Equal(t, core.MakeMovePtr(2), instrs[2])
}

func TestParseFusesAcrossOffsets(t *testing.T) {
	// ">+>+<<++" touches offset 1 once, offset 2 once, then returns to
	// offset 0 and adds twice -- three distinct Add nodes in ascending
	// offset order. The net pointer movement is zero, so no MovePtr
	// follows them.
	instrs := parse(t, ">+>+<<++")
	require.Len(t, instrs, 3)
	assert.Equal(t, core.MakeAdd(0, 2), instrs[0])
	assert.Equal(t, core.MakeAdd(1, 1), instrs[1])
	assert.Equal(t, core.MakeAdd(2, 1), instrs[2])
}

func TestParseLoopNesting(t *testing.T) {
	instrs := parse(t, "+[-[>+<-]]")
	require.Len(t, instrs, 2)
	assert.Equal(t, core.Add, instrs[0].Kind)

	outer := instrs[1]
	require.Equal(t, core.Loop, outer.Kind)
	require.Len(t, outer.Body, 2)
	assert.Equal(t, core.Add, outer.Body[0].Kind)

	inner := outer.Body[1]
	require.Equal(t, core.Loop, inner.Kind)
	require.Len(t, inner.Body, 2)
}

func TestParseUnmatchedOpenBracket(t *testing.T) {
	_, err := core.Parse(core.Tokenize([]byte("[+")))
	require.Error(t, err)

	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "without matching ']'")
}

func TestParseUnmatchedCloseBracket(t *testing.T) {
	_, err := core.Parse(core.Tokenize([]byte("+]")))
	require.Error(t, err)

	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "without matching '['")
}

func TestParseReadWriteCarryPosition(t *testing.T) {
	instrs := parse(t, ".,")
	require.Len(t, instrs, 2)
	require.NotNil(t, instrs[0].Pos)
	assert.Equal(t, 1, instrs[0].Pos.Column)
	require.NotNil(t, instrs[1].Pos)
	assert.Equal(t, 2, instrs[1].Pos.Column)
}
