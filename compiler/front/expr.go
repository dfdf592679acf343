package front

import (
	"context"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/scope"
	"github.com/slowlang/exprc/compiler/tp"
)

// expr emits code evaluating x in frame f and returns the variable holding the result.
func (g *gen) expr(ctx context.Context, f scope.Frame, x ast.Node) (ir.Var, error) {
	if ast.TypeOf(x) == nil {
		return 0, ir.NewCodegenError(ast.LocOf(x), "%T is not type checked", x)
	}

	switch x := x.(type) {
	case *ast.Literal:
		return g.literal(x)
	case *ast.Ident:
		v, ok := g.lookup(f, x.Name, x.Type)
		if !ok {
			return 0, ir.NewCodegenError(x.Loc, "unbound variable %v of type %v", x.Name, x.Type)
		}

		return v, nil
	case *ast.BinaryOp:
		switch {
		case x.Op == "=":
			return g.assign(ctx, f, x)
		case builtin.IsShortCircuit(x.Op):
			return g.shortCircuit(ctx, f, x)
		}

		return g.binary(ctx, f, x)
	case *ast.UnaryOp:
		return g.unary(ctx, f, x)
	case *ast.IfExpr:
		return g.ifExpr(ctx, f, x)
	case *ast.Block:
		return g.stmts(ctx, g.syms.Push(f), x.Stmts)
	case *ast.VarDecl:
		return g.varDecl(ctx, f, x)
	case *ast.While:
		return g.while(ctx, f, x)
	case *ast.Call:
		return g.call(ctx, f, x)
	case *ast.Program:
		return g.program(ctx, f, x)
	default:
		return 0, ir.NewCodegenError(ast.LocOf(x), "unsupported node: %T", x)
	}
}

func (g *gen) literal(x *ast.Literal) (ir.Var, error) {
	switch v := x.Value.(type) {
	case int64:
		dst := g.newTemp(tp.Int{})
		g.f.Emit(ir.LoadIntConst{Loc: x.Loc, Value: v, Dest: dst})

		return dst, nil
	case bool:
		dst := g.newTemp(tp.Bool{})
		g.f.Emit(ir.LoadBoolConst{Loc: x.Loc, Value: v, Dest: dst})

		return dst, nil
	case nil:
		return ir.Unit, nil
	default:
		return 0, ir.NewCodegenError(x.Loc, "unsupported literal: %T", x.Value)
	}
}

func (g *gen) assign(ctx context.Context, f scope.Frame, x *ast.BinaryOp) (ir.Var, error) {
	id, ok := x.Left.(*ast.Ident)
	if !ok {
		return 0, ir.NewCodegenError(x.Loc, "assignment to %T", x.Left)
	}

	src, err := g.expr(ctx, f, x.Right)
	if err != nil {
		return 0, err
	}

	dst, err := g.expr(ctx, f, id)
	if err != nil {
		return 0, err
	}

	g.f.Emit(ir.Copy{Loc: x.Loc, Source: src, Dest: dst})

	return dst, nil
}

// shortCircuit evaluates the right operand only if the left one does not decide the result.
//
//	left
//	CondJump(left, Right, Skip)  // or: CondJump(left, Skip, Right)
//	Right: right; Copy(right, res); Jump(End)
//	Skip:  LoadBoolConst(false, res); Jump(End)  // or: true
//	End:
func (g *gen) shortCircuit(ctx context.Context, f scope.Frame, x *ast.BinaryOp) (ir.Var, error) {
	l, err := g.expr(ctx, f, x.Left)
	if err != nil {
		return 0, err
	}

	right := g.newLabel()
	skip := g.newLabel()
	end := g.newLabel()

	res := g.newTemp(tp.Bool{})
	isOr := x.Op == "or"

	if isOr {
		g.f.Emit(ir.CondJump{Loc: x.Loc, Cond: l, Then: skip, Else: right})
	} else {
		g.f.Emit(ir.CondJump{Loc: x.Loc, Cond: l, Then: right, Else: skip})
	}

	g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: right})

	r, err := g.expr(ctx, f, x.Right)
	if err != nil {
		return 0, err
	}

	g.f.Emit(ir.Copy{Loc: x.Loc, Source: r, Dest: res})
	g.f.Emit(ir.Jump{Loc: x.Loc, Label: end})

	g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: skip})
	g.f.Emit(ir.LoadBoolConst{Loc: x.Loc, Value: isOr, Dest: res})
	g.f.Emit(ir.Jump{Loc: x.Loc, Label: end})

	g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: end})

	return res, nil
}

func (g *gen) binary(ctx context.Context, f scope.Frame, x *ast.BinaryOp) (ir.Var, error) {
	l, err := g.expr(ctx, f, x.Left)
	if err != nil {
		return 0, err
	}

	r, err := g.expr(ctx, f, x.Right)
	if err != nil {
		return 0, err
	}

	return g.callOp(f, x.Loc, x.Op, x.Type, []ast.Node{x.Left, x.Right}, []ir.Var{l, r})
}

func (g *gen) unary(ctx context.Context, f scope.Frame, x *ast.UnaryOp) (ir.Var, error) {
	v, err := g.expr(ctx, f, x.X)
	if err != nil {
		return 0, err
	}

	return g.callOp(f, x.Loc, builtin.Unary(x.Op), x.Type, []ast.Node{x.X}, []ir.Var{v})
}

// callOp calls the operator bound as name with the signature derived from operand types.
func (g *gen) callOp(f scope.Frame, l ast.Loc, name string, out tp.Type, ops []ast.Node, args []ir.Var) (ir.Var, error) {
	in := make([]tp.Type, len(ops))

	for i, x := range ops {
		in[i] = ast.TypeOf(x)
	}

	ft := tp.Fn(out, in...)

	fn, ok := g.lookup(f, name, ft)
	if !ok {
		return 0, ir.NewCodegenError(l, "no operator %v of type %v", name, ft)
	}

	dst := g.newTemp(out)
	g.f.Emit(ir.Call{Loc: l, Func: fn, Args: args, Dest: dst})

	return dst, nil
}

func (g *gen) ifExpr(ctx context.Context, f scope.Frame, x *ast.IfExpr) (ir.Var, error) {
	c, err := g.expr(ctx, f, x.Cond)
	if err != nil {
		return 0, err
	}

	then := g.newLabel()

	if x.Else == nil {
		end := g.newLabel()

		g.f.Emit(ir.CondJump{Loc: x.Loc, Cond: c, Then: then, Else: end})
		g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: then})

		_, err = g.expr(ctx, f, x.Then)
		if err != nil {
			return 0, err
		}

		g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: end})

		return ir.Unit, nil
	}

	els := g.newLabel()
	end := g.newLabel()

	res := ir.Unit
	if !tp.Equal(x.Type, tp.Unit{}) {
		res = g.newTemp(x.Type)
	}

	g.f.Emit(ir.CondJump{Loc: x.Loc, Cond: c, Then: then, Else: els})

	for _, br := range []struct {
		l ir.Label
		x ast.Node
	}{{then, x.Then}, {els, x.Else}} {
		g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: br.l})

		v, err := g.expr(ctx, f, br.x)
		if err != nil {
			return 0, err
		}

		if res != ir.Unit {
			g.f.Emit(ir.Copy{Loc: ast.LocOf(br.x), Source: v, Dest: res})
		}

		g.f.Emit(ir.Jump{Loc: x.Loc, Label: end})
	}

	g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: end})

	return res, nil
}

func (g *gen) varDecl(ctx context.Context, f scope.Frame, x *ast.VarDecl) (ir.Var, error) {
	init, err := g.expr(ctx, f, x.Init)
	if err != nil {
		return 0, err
	}

	t := ast.TypeOf(x.Init)
	v := g.newTemp(t)

	if !g.bind(f, x.Name, t, v) {
		return 0, ir.NewCodegenError(x.Loc, "variable %v of type %v already declared in this scope", x.Name, t)
	}

	g.f.Emit(ir.Copy{Loc: x.Loc, Source: init, Dest: v})

	return ir.Unit, nil
}

// while emits
//
//	Cond: cond; CondJump(cond, Body, End)
//	Body: body; Jump(Cond)
//	End:
func (g *gen) while(ctx context.Context, f scope.Frame, x *ast.While) (ir.Var, error) {
	cond := g.newLabel()
	body := g.newLabel()
	end := g.newLabel()

	g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: cond})

	c, err := g.expr(ctx, f, x.Cond)
	if err != nil {
		return 0, err
	}

	g.f.Emit(ir.CondJump{Loc: x.Loc, Cond: c, Then: body, Else: end})
	g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: body})

	_, err = g.stmts(ctx, f, x.Body)
	if err != nil {
		return 0, err
	}

	g.f.Emit(ir.Jump{Loc: x.Loc, Label: cond})
	g.f.Emit(ir.LabelDef{Loc: x.Loc, Label: end})

	return ir.Unit, nil
}

func (g *gen) call(ctx context.Context, f scope.Frame, x *ast.Call) (ir.Var, error) {
	ft, ok := ast.TypeOf(x.Func).(tp.Func)
	if !ok {
		return 0, ir.NewCodegenError(x.Loc, "call of %v of type %v", x.Func.Name, ast.TypeOf(x.Func))
	}

	fn, ok := g.lookup(f, x.Func.Name, ft)
	if !ok {
		return 0, ir.NewCodegenError(x.Loc, "unbound function %v of type %v", x.Func.Name, ft)
	}

	args := make([]ir.Var, len(x.Args))

	for i, a := range x.Args {
		v, err := g.expr(ctx, f, a)
		if err != nil {
			return 0, err
		}

		args[i] = v
	}

	dst := g.newTemp(ft.Out)
	g.f.Emit(ir.Call{Loc: x.Loc, Func: fn, Args: args, Dest: dst})

	return dst, nil
}

// stmts emits l in frame f. The result is the value of the last statement.
func (g *gen) stmts(ctx context.Context, f scope.Frame, l []ast.Node) (v ir.Var, err error) {
	v = ir.Unit

	for _, x := range l {
		v, err = g.expr(ctx, f, x)
		if err != nil {
			return 0, err
		}
	}

	return v, nil
}

func (g *gen) program(ctx context.Context, f scope.Frame, x *ast.Program) (ir.Var, error) {
	v, err := g.stmts(ctx, g.syms.Push(f), x.Stmts)
	if err != nil {
		return 0, err
	}

	if !x.Trailing || len(x.Stmts) == 0 {
		return ir.Unit, nil
	}

	last := x.Stmts[len(x.Stmts)-1]
	t := ast.TypeOf(last)

	name, ok := builtin.PrintFor(t)
	if !ok {
		return ir.Unit, nil
	}

	pr, ok := g.lookup(g.root, name, tp.Fn(tp.Unit{}, t))
	if !ok {
		return 0, ir.NewCodegenError(x.Loc, "no %v function", name)
	}

	g.f.Emit(ir.Call{Loc: ast.LocOf(last), Func: pr, Args: []ir.Var{v}, Dest: ir.Unit})

	return ir.Unit, nil
}
