package ast

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/exprc/compiler/tp"
)

type (
	// Node is implemented only by the node types of this package.
	Node interface {
		base() *Base
	}

	Loc struct {
		Line int
		Col  int
	}

	Base struct {
		Loc Loc

		// Type is set by the type checker.
		Type tp.Type `tlog:",omitempty"`
	}

	// Literal value is int64, bool or nil for Unit.
	Literal struct {
		Base `tlog:",embed"`

		Value any
	}

	Ident struct {
		Base `tlog:",embed"`

		Name string
	}

	BinaryOp struct {
		Base `tlog:",embed"`

		Left  Node
		Op    string
		Right Node
	}

	UnaryOp struct {
		Base `tlog:",embed"`

		Op string
		X  Node
	}

	IfExpr struct {
		Base `tlog:",embed"`

		Cond Node
		Then Node
		Else Node `tlog:",omitempty"`
	}

	Block struct {
		Base `tlog:",embed"`

		Stmts []Node
	}

	VarDecl struct {
		Base `tlog:",embed"`

		Name string
		// Declared is the explicitly written type, if any.
		Declared tp.Type `tlog:",omitempty"`
		Init     Node
	}

	While struct {
		Base `tlog:",embed"`

		Cond Node
		Body []Node
	}

	Call struct {
		Base `tlog:",embed"`

		Func *Ident
		Args []Node
	}

	Program struct {
		Base `tlog:",embed"`

		Stmts []Node

		// Trailing is set when the last statement is not followed by a separator.
		Trailing bool
	}
)

func (b *Base) base() *Base { return b }

func (l Loc) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

func (l Loc) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "%d:%d", l.Line, l.Col)
}

func Int(l Loc, v int64) *Literal { return &Literal{Base: Base{Loc: l}, Value: v} }
func Bool(l Loc, v bool) *Literal { return &Literal{Base: Base{Loc: l}, Value: v} }
func Unit(l Loc) *Literal         { return &Literal{Base: Base{Loc: l}} }

// TypeOf returns the checked type of x or nil if x was not checked yet.
func TypeOf(x Node) tp.Type {
	return x.base().Type
}

func SetType(x Node, t tp.Type) tp.Type {
	x.base().Type = t

	return t
}

func LocOf(x Node) Loc {
	return x.base().Loc
}

// Walk calls f for x and all of its descendants in source order.
// Children are skipped if f returns false.
func Walk(x Node, f func(Node) bool) {
	if x == nil || !f(x) {
		return
	}

	switch x := x.(type) {
	case *Literal, *Ident:
	case *BinaryOp:
		Walk(x.Left, f)
		Walk(x.Right, f)
	case *UnaryOp:
		Walk(x.X, f)
	case *IfExpr:
		Walk(x.Cond, f)
		Walk(x.Then, f)

		if x.Else != nil {
			Walk(x.Else, f)
		}
	case *Block:
		walkList(x.Stmts, f)
	case *VarDecl:
		Walk(x.Init, f)
	case *While:
		Walk(x.Cond, f)
		walkList(x.Body, f)
	case *Call:
		Walk(x.Func, f)
		walkList(x.Args, f)
	case *Program:
		walkList(x.Stmts, f)
	default:
		panic(fmt.Sprintf("unsupported node: %T", x))
	}
}

func walkList(l []Node, f func(Node) bool) {
	for _, x := range l {
		Walk(x, f)
	}
}
