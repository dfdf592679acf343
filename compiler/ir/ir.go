package ir

import (
	"fmt"
	"strings"

	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/tp"
)

/*
IR is a linear three-address code with explicit control flow.

	LoadIntConst(Value, Dest)    Dest = integer constant
	LoadBoolConst(Value, Dest)   Dest = boolean constant
	Copy(Source, Dest)           Dest = Source
	Call(Func, Args, Dest)       Dest = Func(Args...)
	Jump(Label)                  goto Label
	CondJump(Cond, Then, Else)   goto Then if Cond != 0 else goto Else
	LabelDef(Label)              defines Label

Variables are mutable machine words, written any number of times.
*/

type (
	Var   int
	Label int

	Instr interface {
		Location() ast.Loc

		instr()
	}

	LoadIntConst struct {
		Loc   ast.Loc
		Value int64
		Dest  Var
	}

	LoadBoolConst struct {
		Loc   ast.Loc
		Value bool
		Dest  Var
	}

	Copy struct {
		Loc    ast.Loc
		Source Var
		Dest   Var
	}

	Call struct {
		Loc  ast.Loc
		Func Var
		Args []Var
		Dest Var
	}

	Jump struct {
		Loc   ast.Loc
		Label Label
	}

	CondJump struct {
		Loc  ast.Loc
		Cond Var
		Then Label
		Else Label
	}

	LabelDef struct {
		Loc   ast.Loc
		Label Label
	}

	VarInfo struct {
		// Name is set for built-in and runtime symbols.
		Name string
		Type tp.Type
	}

	Func struct {
		Name string

		Vars []VarInfo
		Code []Instr
	}
)

// Unit is the sentinel variable holding the value of Unit typed expressions.
const Unit Var = 0

func (x LoadIntConst) Location() ast.Loc  { return x.Loc }
func (x LoadBoolConst) Location() ast.Loc { return x.Loc }
func (x Copy) Location() ast.Loc          { return x.Loc }
func (x Call) Location() ast.Loc          { return x.Loc }
func (x Jump) Location() ast.Loc          { return x.Loc }
func (x CondJump) Location() ast.Loc      { return x.Loc }
func (x LabelDef) Location() ast.Loc      { return x.Loc }

func (LoadIntConst) instr()  {}
func (LoadBoolConst) instr() {}
func (Copy) instr()          {}
func (Call) instr()          {}
func (Jump) instr()          {}
func (CondJump) instr()      {}
func (LabelDef) instr()      {}

func (v Var) String() string   { return fmt.Sprintf("x%d", int(v)) }
func (l Label) String() string { return fmt.Sprintf("L%d", int(l)) }

func (v Var) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "x%d", int(v))
}

func (l Label) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "L%d", int(l))
}

// NewFunc creates a function with only the Unit sentinel defined.
func NewFunc(name string) *Func {
	return &Func{
		Name: name,
		Vars: []VarInfo{
			Unit: {Name: "unit", Type: tp.Unit{}},
		},
	}
}

func (f *Func) NewVar(name string, t tp.Type) Var {
	f.Vars = append(f.Vars, VarInfo{Name: name, Type: t})

	return Var(len(f.Vars) - 1)
}

func (f *Func) Emit(x Instr) {
	f.Code = append(f.Code, x)
}

// VarName is the name of a named variable or its x<N> form.
func (f *Func) VarName(v Var) string {
	if int(v) < len(f.Vars) && f.Vars[v].Name != "" {
		return f.Vars[v].Name
	}

	return v.String()
}

func (f *Func) TypeOf(v Var) tp.Type {
	if int(v) >= len(f.Vars) {
		return nil
	}

	return f.Vars[v].Type
}

// Format renders one instruction with variable names resolved.
func (f *Func) Format(x Instr) string {
	switch x := x.(type) {
	case LoadIntConst:
		return fmt.Sprintf("LoadIntConst(%d, %s)", x.Value, f.VarName(x.Dest))
	case LoadBoolConst:
		return fmt.Sprintf("LoadBoolConst(%t, %s)", x.Value, f.VarName(x.Dest))
	case Copy:
		return fmt.Sprintf("Copy(%s, %s)", f.VarName(x.Source), f.VarName(x.Dest))
	case Call:
		args := make([]string, len(x.Args))

		for i, a := range x.Args {
			args[i] = f.VarName(a)
		}

		return fmt.Sprintf("Call(%s, [%s], %s)", f.VarName(x.Func), strings.Join(args, ", "), f.VarName(x.Dest))
	case Jump:
		return fmt.Sprintf("Jump(%v)", x.Label)
	case CondJump:
		return fmt.Sprintf("CondJump(%s, %v, %v)", f.VarName(x.Cond), x.Then, x.Else)
	case LabelDef:
		return fmt.Sprintf("Label(%v)", x.Label)
	default:
		return fmt.Sprintf("%T", x)
	}
}

// Dump appends the instruction listing to b.
func (f *Func) Dump(b []byte) []byte {
	b = fmt.Appendf(b, "func %s:\n", f.Name)

	for _, x := range f.Code {
		if _, ok := x.(LabelDef); ok {
			b = fmt.Appendf(b, "%s\n", f.Format(x))
			continue
		}

		b = fmt.Appendf(b, "    %s\n", f.Format(x))
	}

	return b
}

// Reads returns the variables x reads.
func Reads(x Instr) []Var {
	switch x := x.(type) {
	case Copy:
		return []Var{x.Source}
	case Call:
		return x.Args
	case CondJump:
		return []Var{x.Cond}
	}

	return nil
}

// Writes returns the variable x writes, if any.
func Writes(x Instr) (Var, bool) {
	switch x := x.(type) {
	case LoadIntConst:
		return x.Dest, true
	case LoadBoolConst:
		return x.Dest, true
	case Copy:
		return x.Dest, true
	case Call:
		return x.Dest, true
	}

	return 0, false
}

// Targets returns the labels x may jump to.
func Targets(x Instr) []Label {
	switch x := x.(type) {
	case Jump:
		return []Label{x.Label}
	case CondJump:
		return []Label{x.Then, x.Else}
	}

	return nil
}
