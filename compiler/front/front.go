package front

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/scope"
	"github.com/slowlang/exprc/compiler/tp"
)

type (
	binding struct {
		Type tp.Type
		Var  ir.Var
	}

	// gen is the state of one generation run.
	gen struct {
		f *ir.Func

		syms scope.Arena[binding]
		root scope.Frame

		nextlabel ir.Label
	}
)

// Generate lowers a type checked program into the IR function main.
func Generate(ctx context.Context, prog *ast.Program) (f *ir.Func, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: generate")
	defer tr.Finish("err", &err)

	g := newGen("main")

	_, err = g.expr(ctx, g.root, prog)
	if err != nil {
		return nil, err
	}

	if tr.If("dump_ir") {
		tr.Printw("ir", "func", g.f.Name, "vars", len(g.f.Vars), "code", len(g.f.Code))

		for i, x := range g.f.Code {
			tr.Printw("instr", "i", i, "instr", g.f.Format(x), "loc", x.Location())
		}
	}

	return g.f, nil
}

func newGen(name string) *gen {
	g := &gen{
		f: ir.NewFunc(name),
	}

	g.root = g.syms.Push(scope.None)

	for _, l := range [][]builtin.Symbol{builtin.Operators, builtin.UnaryOperators, builtin.Externs} {
		for _, s := range l {
			g.bind(g.root, s.Name, s.Type, g.f.NewVar(s.Name, s.Type))
		}
	}

	for _, op := range builtin.Equality {
		var v ir.Var = -1

		for _, t := range builtin.EqualityOperands {
			ft := tp.Fn(builtin.Bool, t, t)

			if v < 0 {
				v = g.f.NewVar(op, ft)
			}

			g.bind(g.root, op, ft, v)
		}
	}

	return g
}

func (g *gen) bind(f scope.Frame, name string, t tp.Type, v ir.Var) bool {
	return g.syms.Declare(f, name, binding{Type: t, Var: v}, func(b scope.Binding[binding]) bool {
		return tp.Equal(b.Val.Type, t)
	})
}

// lookup finds the innermost binding of name with exactly type t.
func (g *gen) lookup(f scope.Frame, name string, t tp.Type) (ir.Var, bool) {
	b, ok := g.syms.Lookup(f, name, func(b binding) bool {
		return tp.Equal(b.Type, t)
	})

	return b.Var, ok
}

func (g *gen) newLabel() ir.Label {
	l := g.nextlabel
	g.nextlabel++

	return l
}

func (g *gen) newTemp(t tp.Type) ir.Var {
	return g.f.NewVar("", t)
}
