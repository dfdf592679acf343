package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/format"
	"github.com/slowlang/exprc/compiler/parse"
	"github.com/slowlang/exprc/compiler/tp"
)

func check(t *testing.T, src string) (*ast.Program, tp.Type, error) {
	t.Helper()

	ctx := context.Background()

	x, err := parse.Parse(ctx, []byte(src))
	require.NoError(t, err, "src: %q", src)

	typ, err := Analyze(ctx, x)

	return x, typ, err
}

func TestWellTyped(t *testing.T) {
	for _, tc := range []struct {
		src string
		exp tp.Type
	}{
		{"1", tp.Int{}},
		{"true", tp.Bool{}},
		{"1;", tp.Unit{}},
		{"1 + 2 * 3", tp.Int{}},
		{"1 < 2", tp.Bool{}},
		{"1 == 2", tp.Bool{}},
		{"true != false", tp.Bool{}},
		{"{} == {}", tp.Bool{}},
		{"true and false or true", tp.Bool{}},
		{"-1", tp.Int{}},
		{"not true", tp.Bool{}},
		{"if true then 1 else 2", tp.Int{}},
		{"if true then 1", tp.Unit{}},
		{"var x = 1; x", tp.Int{}},
		{"var x: Int = 1; x = 2", tp.Int{}},
		{"var a = 1; var b = 2; a = b = 3", tp.Int{}},
		{"var x = 0; while x < 3 do { x = x + 1 }", tp.Unit{}},
		{"{ }", tp.Unit{}},
		{"{ 1; true }", tp.Bool{}},
		{"var x = 1; { var x = true; x }", tp.Bool{}},
		{"var x = 1; { var x = true; x }; x", tp.Int{}},
		{"print_int(1)", tp.Unit{}},
		{"read_int() + 1", tp.Int{}},
		{"var x = read_int(); print_bool(x > 0);", tp.Unit{}},
	} {
		x, typ, err := check(t, tc.src)
		require.NoError(t, err, "src: %q", tc.src)

		assert.True(t, tp.Equal(tc.exp, typ), "src: %q: expected %v, got %v", tc.src, tc.exp, typ)

		ast.Walk(x, func(n ast.Node) bool {
			assert.NotNil(t, ast.TypeOf(n), "src: %q: node %T at %v has no type", tc.src, n, ast.LocOf(n))
			return true
		})
	}
}

func TestIllTyped(t *testing.T) {
	for _, tc := range []struct {
		src string
		loc ast.Loc
		msg string
	}{
		{"1 + true", ast.Loc{Line: 1, Col: 3}, "1:3: type error: operator + expects Int and Int, got Int and Bool"},
		{"\n  true < 1", ast.Loc{Line: 2, Col: 8}, "2:8: type error: operator < expects Int and Int, got Bool and Int"},
		{"1 and true", ast.Loc{Line: 1, Col: 3}, ""},
		{"1 == true", ast.Loc{Line: 1, Col: 3}, "1:3: type error: == requires two operands of the same type, got Int and Bool"},
		{"-true", ast.Loc{Line: 1, Col: 1}, ""},
		{"not 1", ast.Loc{Line: 1, Col: 1}, ""},
		{"x", ast.Loc{Line: 1, Col: 1}, "1:1: type error: unbound variable x"},
		{"if true then 1 else false", ast.Loc{Line: 1, Col: 1}, "1:1: type error: if branches must have the same type, got Int and Bool"},
		{"if 1 then 2", ast.Loc{Line: 1, Col: 4}, "1:4: type error: if condition must be Bool, got Int"},
		{"while 1 do { }", ast.Loc{Line: 1, Col: 7}, ""},
		{"var x = 1; var x = 2", ast.Loc{Line: 1, Col: 12}, "1:12: type error: variable x already declared in this scope"},
		{"var x = 1; var x = true", ast.Loc{Line: 1, Col: 12}, ""},
		{"var x: Bool = 1", ast.Loc{Line: 1, Col: 1}, "1:1: type error: variable x expects Bool, got Int"},
		{"var x = 1; x = true", ast.Loc{Line: 1, Col: 14}, ""},
		{"1 = 2", ast.Loc{Line: 1, Col: 3}, "1:3: type error: left side of assignment must be a variable"},
		{"print_int(true)", ast.Loc{Line: 1, Col: 1}, "1:1: type error: function print_int expects [Int], got [Bool]"},
		{"print_int(1, 2)", ast.Loc{Line: 1, Col: 1}, ""},
		{"var f = 1; f(2)", ast.Loc{Line: 1, Col: 12}, "1:12: type error: f is not callable, got Int"},
		{"g()", ast.Loc{Line: 1, Col: 1}, "1:1: type error: unbound variable g"},
		{"var p = print_int", ast.Loc{Line: 1, Col: 9}, "1:9: type error: function print_int used as a value"},
		{"{ var y = 1 }; y", ast.Loc{Line: 1, Col: 16}, ""},
		{"var x = 0; while true do { var x = 1 }", ast.Loc{Line: 1, Col: 28}, ""},
	} {
		_, _, err := check(t, tc.src)
		require.Error(t, err, "src: %q", tc.src)

		var te TypeError
		require.ErrorAs(t, err, &te, "src: %q", tc.src)

		assert.Equal(t, tc.loc, te.Loc, "src: %q: %v", tc.src, err)

		if tc.msg != "" {
			assert.Equal(t, tc.msg, err.Error(), "src: %q", tc.src)
		}
	}
}

func TestBlockShadowing(t *testing.T) {
	x, _, err := check(t, "var x = 1; { var x = true; x }")
	require.NoError(t, err)

	b := x.Stmts[1].(*ast.Block)
	assert.Equal(t, tp.Bool{}, ast.TypeOf(b.Stmts[1]))
	assert.Equal(t, tp.Unit{}, ast.TypeOf(x.Stmts[0]))
}

func TestCalleeType(t *testing.T) {
	x, _, err := check(t, "print_bool(true)")
	require.NoError(t, err)

	c := x.Stmts[0].(*ast.Call)
	assert.True(t, tp.Equal(tp.Fn(tp.Unit{}, tp.Bool{}), ast.TypeOf(c.Func)))
}

func TestCheckerScopes(t *testing.T) {
	ctx := context.Background()

	c := New()
	f := c.push(c.Root())

	require.NoError(t, c.Declare(f, ast.Loc{}, "n", tp.Int{}))
	assert.Error(t, c.Declare(f, ast.Loc{}, "n", tp.Bool{}))

	typ, err := c.Check(ctx, f, &ast.Ident{Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, tp.Int{}, typ)

	_, err = c.Check(ctx, c.Root(), &ast.Ident{Name: "n"})
	assert.Error(t, err)
}

func TestTypedFormat(t *testing.T) {
	ctx := context.Background()

	x, _, err := check(t, "var x = 1; x < 2")
	require.NoError(t, err)

	b, err := format.Typed(ctx, nil, x)
	require.NoError(t, err)

	assert.Equal(t, "(var x = (1 : Int) : Unit);\n((x : Int) < (2 : Int) : Bool)\n", string(b))
}
