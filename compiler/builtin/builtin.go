package builtin

import "github.com/slowlang/exprc/compiler/tp"

type (
	Symbol struct {
		Name string
		Type tp.Func

		// Extern symbols are provided by the runtime support object.
		Extern bool
	}
)

const (
	PrintInt  = "print_int"
	PrintBool = "print_bool"
	ReadInt   = "read_int"
)

var (
	Int  = tp.Int{}
	Bool = tp.Bool{}
	Unit = tp.Unit{}
)

// Operators are the binary operators with a fixed signature.
var Operators = []Symbol{
	{Name: "+", Type: tp.Fn(Int, Int, Int)},
	{Name: "-", Type: tp.Fn(Int, Int, Int)},
	{Name: "*", Type: tp.Fn(Int, Int, Int)},
	{Name: "/", Type: tp.Fn(Int, Int, Int)},
	{Name: "%", Type: tp.Fn(Int, Int, Int)},
	{Name: "<", Type: tp.Fn(Bool, Int, Int)},
	{Name: "<=", Type: tp.Fn(Bool, Int, Int)},
	{Name: ">", Type: tp.Fn(Bool, Int, Int)},
	{Name: ">=", Type: tp.Fn(Bool, Int, Int)},
	{Name: "and", Type: tp.Fn(Bool, Bool, Bool)},
	{Name: "or", Type: tp.Fn(Bool, Bool, Bool)},
}

// Unary operators are bound under a prefixed name so "-" stays the binary minus.
var UnaryOperators = []Symbol{
	{Name: Unary("-"), Type: tp.Fn(Int, Int)},
	{Name: Unary("not"), Type: tp.Fn(Bool, Bool)},
}

var Externs = []Symbol{
	{Name: PrintInt, Type: tp.Fn(Unit, Int), Extern: true},
	{Name: PrintBool, Type: tp.Fn(Unit, Bool), Extern: true},
	{Name: ReadInt, Type: tp.Fn(Int), Extern: true},
}

// Equality operators accept any pair of identical non-function types.
var Equality = []string{"==", "!="}

// EqualityOperands are the operand types equality is defined for.
var EqualityOperands = []tp.Type{Int, Bool, Unit}

func Unary(op string) string {
	return "unary_" + op
}

// Lookup finds an operator or extern by name.
// Equality operators are not listed since their type depends on the operands.
func Lookup(name string) (Symbol, bool) {
	for _, l := range [][]Symbol{Operators, UnaryOperators, Externs} {
		for _, s := range l {
			if s.Name == name {
				return s, true
			}
		}
	}

	return Symbol{}, false
}

func IsEquality(op string) bool {
	return op == "==" || op == "!="
}

func IsShortCircuit(op string) bool {
	return op == "and" || op == "or"
}

// PrintFor returns the runtime printer for a value of type t.
func PrintFor(t tp.Type) (string, bool) {
	switch t.(type) {
	case tp.Int:
		return PrintInt, true
	case tp.Bool:
		return PrintBool, true
	}

	return "", false
}
