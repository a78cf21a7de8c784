package vm

import (
	"fmt"

	"github.com/lcox74/zombiec/internal/core"
)

// RuntimeError represents an error raised while interpreting IR.
type RuntimeError struct {
	Msg string
	Pos *core.Position
}

func (e *RuntimeError) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("runtime error at line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("runtime error: %s", e.Msg)
}
