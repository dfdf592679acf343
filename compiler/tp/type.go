package tp

import (
	"strings"

	"tlog.app/go/tlog/tlwire"
)

type (
	Type interface {
		String() string

		tp()
	}

	Int  struct{}
	Bool struct{}
	Unit struct{}

	Func struct {
		In  []Type
		Out Type
	}
)

var (
	_ Type = Int{}
	_ Type = Bool{}
	_ Type = Unit{}
	_ Type = Func{}
)

func (Int) tp()  {}
func (Bool) tp() {}
func (Unit) tp() {}
func (Func) tp() {}

func (Int) String() string  { return "Int" }
func (Bool) String() string { return "Bool" }
func (Unit) String() string { return "Unit" }

func (x Func) String() string {
	var b strings.Builder

	b.WriteByte('(')

	for i, t := range x.In {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(t.String())
	}

	b.WriteString(") => ")
	b.WriteString(x.Out.String())

	return b.String()
}

// Equal is structural type equality.
// Func holds a slice, so types must never be compared with ==.
func Equal(x, y Type) bool {
	switch x := x.(type) {
	case Int:
		_, ok := y.(Int)
		return ok
	case Bool:
		_, ok := y.(Bool)
		return ok
	case Unit:
		_, ok := y.(Unit)
		return ok
	case Func:
		y, ok := y.(Func)
		if !ok || len(x.In) != len(y.In) {
			return false
		}

		for i := range x.In {
			if !Equal(x.In[i], y.In[i]) {
				return false
			}
		}

		return Equal(x.Out, y.Out)
	default:
		return false
	}
}

func EqualList(x, y []Type) bool {
	if len(x) != len(y) {
		return false
	}

	for i := range x {
		if !Equal(x[i], y[i]) {
			return false
		}
	}

	return true
}

// Fn is a shorthand for building function types.
func Fn(out Type, in ...Type) Func {
	return Func{In: in, Out: out}
}

// Named returns the primitive type spelled name in source code.
func Named(name string) (Type, bool) {
	switch name {
	case "Int":
		return Int{}, true
	case "Bool":
		return Bool{}, true
	case "Unit":
		return Unit{}, true
	}

	return nil, false
}

func (x Func) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "%v", x)
}
