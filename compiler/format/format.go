package format

import (
	"context"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/exprc/compiler/ast"
)

type (
	printer struct {
		types bool
	}
)

// Format renders x as canonical source text.
func Format(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	var p printer

	return p.format(ctx, b, x, 0)
}

// Typed is like Format but annotates every checked expression with its type.
func Typed(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	p := printer{types: true}

	return p.format(ctx, b, x, 0)
}

func (p *printer) format(ctx context.Context, b []byte, x ast.Node, d int) (_ []byte, err error) {
	if x, ok := x.(*ast.Program); ok {
		return p.formatProgram(ctx, b, x, d)
	}

	t := ast.TypeOf(x)
	typed := p.types && t != nil

	if typed {
		b = append(b, '(')
	}

	switch x := x.(type) {
	case *ast.Literal:
		b = formatLiteral(b, x)
	case *ast.Ident:
		b = append(b, x.Name...)
	case *ast.BinaryOp:
		b, err = p.operand(ctx, b, x.Left, d)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = hfmt.Appendf(b, " %s ", x.Op)

		b, err = p.operand(ctx, b, x.Right, d)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
	case *ast.UnaryOp:
		b = append(b, x.Op...)

		if x.Op == "not" {
			b = append(b, ' ')
		}

		b, err = p.operand(ctx, b, x.X, d)
		if err != nil {
			return nil, errors.Wrap(err, "operand")
		}
	case *ast.IfExpr:
		b, err = p.formatIf(ctx, b, x, d)
	case *ast.Block:
		b = append(b, "{\n"...)

		b, err = p.formatStmts(ctx, b, x.Stmts, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "block")
		}

		b = app(b, d, "}")
	case *ast.VarDecl:
		b = hfmt.Appendf(b, "var %s", x.Name)

		if x.Declared != nil {
			b = hfmt.Appendf(b, ": %v", x.Declared)
		}

		b = append(b, " = "...)

		b, err = p.format(ctx, b, x.Init, d)
		if err != nil {
			return nil, errors.Wrap(err, "var %v", x.Name)
		}
	case *ast.While:
		b = append(b, "while "...)

		b, err = p.format(ctx, b, x.Cond, d)
		if err != nil {
			return nil, errors.Wrap(err, "while cond")
		}

		b = append(b, " do {\n"...)

		b, err = p.formatStmts(ctx, b, x.Body, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "while body")
		}

		b = app(b, d, "}")
	case *ast.Call:
		b = hfmt.Appendf(b, "%s(", x.Func.Name)

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = p.format(ctx, b, a, d)
			if err != nil {
				return nil, errors.Wrap(err, "arg %d", i)
			}
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported type: %T", x)
	}

	if err != nil {
		return nil, err
	}

	if typed {
		b = hfmt.Appendf(b, " : %v)", t)
	}

	return b, nil
}

func (p *printer) formatProgram(ctx context.Context, b []byte, x *ast.Program, d int) (_ []byte, err error) {
	for i, s := range x.Stmts {
		b = app(b, d, "")

		b, err = p.format(ctx, b, s, d)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}

		if i+1 < len(x.Stmts) || !x.Trailing {
			b = append(b, ';')
		}

		b = append(b, '\n')
	}

	return b, nil
}

func (p *printer) formatStmts(ctx context.Context, b []byte, l []ast.Node, d int) (_ []byte, err error) {
	for i, s := range l {
		b = app(b, d, "")

		b, err = p.format(ctx, b, s, d)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}

		if i+1 < len(l) {
			b = append(b, ';')
		}

		b = append(b, '\n')
	}

	return b, nil
}

func (p *printer) formatIf(ctx context.Context, b []byte, x *ast.IfExpr, d int) (_ []byte, err error) {
	b = append(b, "if "...)

	b, err = p.format(ctx, b, x.Cond, d)
	if err != nil {
		return nil, errors.Wrap(err, "if cond")
	}

	b = append(b, " then "...)

	b, err = p.format(ctx, b, x.Then, d)
	if err != nil {
		return nil, errors.Wrap(err, "then")
	}

	if x.Else == nil {
		return b, nil
	}

	b = append(b, " else "...)

	b, err = p.format(ctx, b, x.Else, d)
	if err != nil {
		return nil, errors.Wrap(err, "else")
	}

	return b, nil
}

// operand parenthesizes nested operators so the output does not depend on precedence.
func (p *printer) operand(ctx context.Context, b []byte, x ast.Node, d int) ([]byte, error) {
	switch x.(type) {
	case *ast.BinaryOp, *ast.IfExpr, *ast.UnaryOp:
	default:
		return p.format(ctx, b, x, d)
	}

	if p.types {
		return p.format(ctx, b, x, d)
	}

	b = append(b, '(')

	b, err := p.format(ctx, b, x, d)
	if err != nil {
		return nil, err
	}

	return append(b, ')'), nil
}

func formatLiteral(b []byte, x *ast.Literal) []byte {
	switch v := x.Value.(type) {
	case int64:
		return strconv.AppendInt(b, v, 10)
	case bool:
		return strconv.AppendBool(b, v)
	default:
		return append(b, "{}"...)
	}
}

func app(b []byte, d int, s string) []byte {
	for i := 0; i < d; i++ {
		b = append(b, "    "...)
	}

	return append(b, s...)
}
