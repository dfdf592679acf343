package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/tp"
)

func TestFormat(t *testing.T) {
	f := NewFunc("main")

	plus := f.NewVar("+", tp.Fn(tp.Int{}, tp.Int{}, tp.Int{}))
	a := f.NewVar("", tp.Int{})
	b := f.NewVar("", tp.Int{})
	c := f.NewVar("", tp.Int{})

	f.Emit(LoadIntConst{Value: 1, Dest: a})
	f.Emit(LoadIntConst{Value: 2, Dest: b})
	f.Emit(Call{Func: plus, Args: []Var{a, b}, Dest: c})
	f.Emit(LabelDef{Label: 3})
	f.Emit(CondJump{Cond: c, Then: 3, Else: 4})

	assert.Equal(t, "Call(+, [x2, x3], x4)", f.Format(f.Code[2]))
	assert.Equal(t, "CondJump(x4, L3, L4)", f.Format(f.Code[4]))

	assert.Equal(t, `func main:
    LoadIntConst(1, x2)
    LoadIntConst(2, x3)
    Call(+, [x2, x3], x4)
Label(L3)
    CondJump(x4, L3, L4)
`, string(f.Dump(nil)))

	assert.Equal(t, "unit", f.VarName(Unit))
	assert.Equal(t, tp.Type(tp.Int{}), f.TypeOf(c))
	assert.Nil(t, f.TypeOf(100))
}

func TestValidate(t *testing.T) {
	f := NewFunc("main")

	pr := f.NewVar("print_int", tp.Fn(tp.Unit{}, tp.Int{}))
	x := f.NewVar("", tp.Int{})

	f.Emit(LoadIntConst{Value: 1, Dest: x})
	f.Emit(LabelDef{Label: 0})
	f.Emit(Call{Func: pr, Args: []Var{x}, Dest: Unit})
	f.Emit(Jump{Label: 0})

	require.NoError(t, Validate(f))
}

func TestValidateErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		code func(f *Func, x Var) []Instr
		msg  string
	}{
		{"read_before_write", func(f *Func, x Var) []Instr {
			return []Instr{Copy{Loc: ast.Loc{Line: 2, Col: 3}, Source: x, Dest: Unit}}
		}, "2:3: codegen error: variable x1 read before written"},
		{"undefined_label", func(f *Func, x Var) []Instr {
			return []Instr{Jump{Label: 7}}
		}, "0:0: codegen error: jump to undefined label L7"},
		{"duplicate_label", func(f *Func, x Var) []Instr {
			return []Instr{LabelDef{Label: 1}, LabelDef{Label: 1}}
		}, "0:0: codegen error: label L1 defined twice"},
		{"unknown_var", func(f *Func, x Var) []Instr {
			return []Instr{LoadBoolConst{Value: true, Dest: 9}}
		}, "0:0: codegen error: unknown variable x9"},
		{"call_temp", func(f *Func, x Var) []Instr {
			return []Instr{LoadIntConst{Dest: x}, Call{Func: x, Dest: Unit}}
		}, "0:0: codegen error: call of unnamed variable x1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFunc("main")
			x := f.NewVar("", tp.Int{})

			f.Code = tc.code(f, x)

			err := Validate(f)
			require.Error(t, err)

			var cerr CodegenError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.msg, err.Error())
			assert.NotZero(t, cerr.From)
		})
	}
}

func TestReadsWrites(t *testing.T) {
	c := Call{Func: 1, Args: []Var{2, 3}, Dest: 4}

	assert.Equal(t, []Var{2, 3}, Reads(c))

	w, ok := Writes(c)
	assert.True(t, ok)
	assert.Equal(t, Var(4), w)

	_, ok = Writes(Jump{Label: 1})
	assert.False(t, ok)

	assert.Equal(t, []Label{1, 2}, Targets(CondJump{Cond: 1, Then: 1, Else: 2}))
	assert.Nil(t, Targets(LabelDef{Label: 1}))
}
