package ir

import (
	"fmt"

	"tlog.app/go/loc"

	"github.com/slowlang/exprc/compiler/ast"
)

type (
	// CodegenError reports a tree or instruction shape that earlier stages
	// should have rejected. It is an internal error, not a user facing one.
	CodegenError struct {
		Loc ast.Loc
		Msg string

		From loc.PC
	}
)

func NewCodegenError(l ast.Loc, format string, args ...any) CodegenError {
	return CodegenError{
		Loc:  l,
		Msg:  fmt.Sprintf(format, args...),
		From: loc.Caller(1),
	}
}

func (e CodegenError) Error() string {
	return fmt.Sprintf("%v: codegen error: %s", e.Loc, e.Msg)
}
