package analyze

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/scope"
	"github.com/slowlang/exprc/compiler/tp"
)

type (
	// Checker assigns a type to every node of a tree.
	// Nodes are annotated in place.
	Checker struct {
		syms scope.Arena[tp.Type]
		root scope.Frame
	}

	TypeError struct {
		Loc ast.Loc
		Msg string
	}
)

// Analyze type checks a whole tree against the built-in symbols.
func Analyze(ctx context.Context, x ast.Node) (t tp.Type, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "analyze")
	defer tr.Finish("err", &err)

	c := New()

	t, err = c.Check(ctx, c.Root(), x)
	if err != nil {
		return nil, err
	}

	if tr.If("dump_types") {
		ast.Walk(x, func(x ast.Node) bool {
			tr.Printw("node", "loc", ast.LocOf(x), "typ", tlog.NextAsType, x, "type", ast.TypeOf(x))
			return true
		})
	}

	return t, nil
}

// New creates a checker with the built-in operators and runtime functions in its root frame.
func New() *Checker {
	c := &Checker{}

	c.root = c.syms.Push(scope.None)

	for _, l := range [][]builtin.Symbol{builtin.Operators, builtin.UnaryOperators, builtin.Externs} {
		for _, s := range l {
			c.syms.Declare(c.root, s.Name, s.Type, nil)
		}
	}

	return c
}

func (c *Checker) Root() scope.Frame { return c.root }

// push opens a child frame of parent.
func (c *Checker) push(parent scope.Frame) scope.Frame {
	return c.syms.Push(parent)
}

// Declare binds name in frame f. It fails if f already binds name.
func (c *Checker) Declare(f scope.Frame, l ast.Loc, name string, t tp.Type) error {
	if !c.syms.Declare(f, name, t, nil) {
		return newTypeError(l, "variable %v already declared in this scope", name)
	}

	return nil
}

// Check resolves the type of x in frame f and stores it in every visited node.
func (c *Checker) Check(ctx context.Context, f scope.Frame, x ast.Node) (t tp.Type, err error) {
	switch x := x.(type) {
	case *ast.Literal:
		switch x.Value.(type) {
		case int64:
			t = tp.Int{}
		case bool:
			t = tp.Bool{}
		case nil:
			t = tp.Unit{}
		default:
			return nil, newTypeError(x.Loc, "unsupported literal: %T", x.Value)
		}
	case *ast.Ident:
		t, err = c.lookup(f, x)
		if err != nil {
			return nil, err
		}

		if _, ok := t.(tp.Func); ok {
			return nil, newTypeError(x.Loc, "function %v used as a value", x.Name)
		}
	case *ast.BinaryOp:
		t, err = c.checkBinary(ctx, f, x)
	case *ast.UnaryOp:
		t, err = c.checkUnary(ctx, f, x)
	case *ast.IfExpr:
		t, err = c.checkIf(ctx, f, x)
	case *ast.Block:
		t, err = c.checkStmts(ctx, c.push(f), x.Stmts)
	case *ast.VarDecl:
		t, err = c.checkVarDecl(ctx, f, x)
	case *ast.While:
		t, err = c.checkWhile(ctx, f, x)
	case *ast.Call:
		t, err = c.checkCall(ctx, f, x)
	case *ast.Program:
		t, err = c.checkProgram(ctx, f, x)
	default:
		return nil, NewUnsupportedNode(x)
	}

	if err != nil {
		return nil, err
	}

	return ast.SetType(x, t), nil
}

func (c *Checker) lookup(f scope.Frame, x *ast.Ident) (tp.Type, error) {
	t, ok := c.syms.Lookup(f, x.Name, nil)
	if !ok {
		return nil, newTypeError(x.Loc, "unbound variable %v", x.Name)
	}

	return t, nil
}

func (c *Checker) checkBinary(ctx context.Context, f scope.Frame, x *ast.BinaryOp) (tp.Type, error) {
	if x.Op == "=" {
		return c.checkAssign(ctx, f, x)
	}

	l, err := c.Check(ctx, f, x.Left)
	if err != nil {
		return nil, err
	}

	r, err := c.Check(ctx, f, x.Right)
	if err != nil {
		return nil, err
	}

	if builtin.IsEquality(x.Op) {
		if !tp.Equal(l, r) {
			return nil, newTypeError(x.Loc, "%v requires two operands of the same type, got %v and %v", x.Op, l, r)
		}

		return tp.Bool{}, nil
	}

	s, ok := builtin.Lookup(x.Op)
	if !ok || len(s.Type.In) != 2 || s.Extern {
		return nil, newTypeError(x.Loc, "unknown operator %v", x.Op)
	}

	if !tp.EqualList(s.Type.In, []tp.Type{l, r}) {
		return nil, newTypeError(x.Loc, "operator %v expects %v and %v, got %v and %v", x.Op, s.Type.In[0], s.Type.In[1], l, r)
	}

	return s.Type.Out, nil
}

func (c *Checker) checkAssign(ctx context.Context, f scope.Frame, x *ast.BinaryOp) (tp.Type, error) {
	id, ok := x.Left.(*ast.Ident)
	if !ok {
		return nil, newTypeError(x.Loc, "left side of assignment must be a variable")
	}

	l, err := c.Check(ctx, f, id)
	if err != nil {
		return nil, err
	}

	r, err := c.Check(ctx, f, x.Right)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(l, r) {
		return nil, newTypeError(x.Loc, "cannot assign %v to variable %v of type %v", r, id.Name, l)
	}

	return l, nil
}

func (c *Checker) checkUnary(ctx context.Context, f scope.Frame, x *ast.UnaryOp) (tp.Type, error) {
	s, ok := builtin.Lookup(builtin.Unary(x.Op))
	if !ok {
		return nil, newTypeError(x.Loc, "unknown unary operator %v", x.Op)
	}

	t, err := c.Check(ctx, f, x.X)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(s.Type.In[0], t) {
		return nil, newTypeError(x.Loc, "unary %q expects %v, got %v", x.Op, s.Type.In[0], t)
	}

	return s.Type.Out, nil
}

func (c *Checker) checkIf(ctx context.Context, f scope.Frame, x *ast.IfExpr) (tp.Type, error) {
	err := c.checkCond(ctx, f, x.Cond, "if")
	if err != nil {
		return nil, err
	}

	then, err := c.Check(ctx, f, x.Then)
	if err != nil {
		return nil, err
	}

	if x.Else == nil {
		return tp.Unit{}, nil
	}

	els, err := c.Check(ctx, f, x.Else)
	if err != nil {
		return nil, err
	}

	if !tp.Equal(then, els) {
		return nil, newTypeError(x.Loc, "if branches must have the same type, got %v and %v", then, els)
	}

	return then, nil
}

func (c *Checker) checkCond(ctx context.Context, f scope.Frame, x ast.Node, what string) error {
	t, err := c.Check(ctx, f, x)
	if err != nil {
		return err
	}

	if !tp.Equal(t, tp.Bool{}) {
		return newTypeError(ast.LocOf(x), "%v condition must be Bool, got %v", what, t)
	}

	return nil
}

func (c *Checker) checkVarDecl(ctx context.Context, f scope.Frame, x *ast.VarDecl) (tp.Type, error) {
	t, err := c.Check(ctx, f, x.Init)
	if err != nil {
		return nil, err
	}

	if x.Declared != nil && !tp.Equal(x.Declared, t) {
		return nil, newTypeError(x.Loc, "variable %v expects %v, got %v", x.Name, x.Declared, t)
	}

	err = c.Declare(f, x.Loc, x.Name, t)
	if err != nil {
		return nil, err
	}

	return tp.Unit{}, nil
}

func (c *Checker) checkWhile(ctx context.Context, f scope.Frame, x *ast.While) (tp.Type, error) {
	err := c.checkCond(ctx, f, x.Cond, "while")
	if err != nil {
		return nil, err
	}

	_, err = c.checkStmts(ctx, f, x.Body)
	if err != nil {
		return nil, err
	}

	return tp.Unit{}, nil
}

func (c *Checker) checkCall(ctx context.Context, f scope.Frame, x *ast.Call) (tp.Type, error) {
	t, err := c.lookup(f, x.Func)
	if err != nil {
		return nil, err
	}

	ast.SetType(x.Func, t)

	ft, ok := t.(tp.Func)
	if !ok {
		return nil, newTypeError(x.Loc, "%v is not callable, got %v", x.Func.Name, t)
	}

	args := make([]tp.Type, len(x.Args))

	for i, a := range x.Args {
		args[i], err = c.Check(ctx, f, a)
		if err != nil {
			return nil, err
		}
	}

	if !tp.EqualList(ft.In, args) {
		return nil, newTypeError(x.Loc, "function %v expects %v, got %v", x.Func.Name, typeList(ft.In), typeList(args))
	}

	return ft.Out, nil
}

func (c *Checker) checkStmts(ctx context.Context, f scope.Frame, l []ast.Node) (t tp.Type, err error) {
	t = tp.Unit{}

	for _, s := range l {
		t, err = c.Check(ctx, f, s)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (c *Checker) checkProgram(ctx context.Context, f scope.Frame, x *ast.Program) (tp.Type, error) {
	t, err := c.checkStmts(ctx, c.push(f), x.Stmts)
	if err != nil {
		return nil, err
	}

	if !x.Trailing {
		return tp.Unit{}, nil
	}

	return t, nil
}

func typeList(l []tp.Type) string {
	return fmt.Sprintf("%v", l)
}

func newTypeError(l ast.Loc, format string, args ...any) TypeError {
	return TypeError{
		Loc: l,
		Msg: fmt.Sprintf(format, args...),
	}
}

func (e TypeError) Error() string {
	return fmt.Sprintf("%v: type error: %s", e.Loc, e.Msg)
}

func NewUnsupportedNode(x ast.Node) error {
	return errors.New("unsupported node: %T", x)
}
