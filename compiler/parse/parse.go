package parse

import (
	"context"
	"fmt"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/ast"
)

type (
	State struct {
		b []byte

		toks []token
		pos  int
	}

	SyntaxError struct {
		Loc ast.Loc
		Msg string
	}
)

func ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, data)
}

func Parse(ctx context.Context, text []byte) (x *ast.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "size", len(text))
	defer tr.Finish("err", &err)

	s := New(text)

	err = s.tokenize()
	if err != nil {
		return nil, err
	}

	tr.V("tokens").Printw("tokens", "count", len(s.toks))

	return s.program()
}

func New(text []byte) *State {
	return &State{b: text}
}

func newSyntaxError(l ast.Loc, format string, args ...any) SyntaxError {
	return SyntaxError{
		Loc: l,
		Msg: fmt.Sprintf(format, args...),
	}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%v: syntax error: %s", e.Loc, e.Msg)
}
