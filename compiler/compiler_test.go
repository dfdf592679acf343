package compiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/compiler/analyze"
	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/config"
	"github.com/slowlang/exprc/compiler/interp"
	"github.com/slowlang/exprc/compiler/parse"
	"github.com/slowlang/exprc/compiler/tp"
)

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		src  string
		in   string
		exp  string
	}{
		{"print_var", "var x = 3; print_int(x);", "", "3\n"},
		{"while", "var x = 0; while x < 3 do { x = x + 1 }; print_int(x);", "", "3\n"},
		{"trailing", "1 + 2", "", "3\n"},
		{"trailing_bool", "var x = 4; x % 2 == 0", "", "true\n"},
		{"no_trailing", "1 + 2;", "", ""},
		{"echo", "var n = read_int(); while n > 0 do { print_int(n); n = n - 1 }", "3", "3\n2\n1\n"},
		{"nested_if", "var x = 5; if x < 3 then 1 else if x < 10 then 2 else 3", "", "2\n"},
		{"blocks", "var x = 1; var y = { var x = 10; x + 1 }; x + y", "", "12\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Lower(ctx, tc.name, []byte(tc.src))
			require.NoError(t, err)

			var out bytes.Buffer

			err = interp.Run(ctx, f, interp.Options{
				Stdout:   &out,
				Stdin:    strings.NewReader(tc.in),
				MaxSteps: 10000,
			})
			require.NoError(t, err)

			assert.Equal(t, tc.exp, out.String())
		})
	}
}

func TestCompileTargets(t *testing.T) {
	ctx := context.Background()
	src := []byte("var x = 3; print_int(x);")

	obj, err := Compile(ctx, "a", src, Options{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(obj, []byte(".extern print_int\n")))
	assert.Contains(t, string(obj), "callq print_int\n")

	obj, err = Compile(ctx, "a", src, Options{Target: config.TargetAMD64, Comments: true})
	require.NoError(t, err)
	assert.Contains(t, string(obj), "# Call(print_int, [x20], x21)\n")

	obj, err = Compile(ctx, "a", src, Options{Target: config.TargetLLVM})
	require.NoError(t, err)
	assert.Contains(t, string(obj), "define i32 @main()")

	_, err = Compile(ctx, "a", src, Options{Target: "arm64"})
	assert.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	ctx := context.Background()

	_, err := Compile(ctx, "a", []byte("1 +"), Options{})

	var serr parse.SyntaxError
	require.True(t, errors.As(err, &serr), "err: %v", err)
	assert.Equal(t, ast.Loc{Line: 1, Col: 4}, serr.Loc)

	_, err = Compile(ctx, "a", []byte("var x = 1;\nx + true"), Options{})

	var terr analyze.TypeError
	require.True(t, errors.As(err, &terr), "err: %v", err)
	assert.Equal(t, ast.Loc{Line: 2, Col: 3}, terr.Loc)
	assert.Contains(t, err.Error(), "analyze a")
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	_, typ, err := Check(ctx, "a", []byte("if true then 1 else 2"))
	require.NoError(t, err)
	assert.Equal(t, tp.Type(tp.Int{}), typ)

	_, _, err = Check(ctx, "a", []byte("if true then 1 else false"))

	var terr analyze.TypeError
	require.True(t, errors.As(err, &terr), "err: %v", err)
	assert.Contains(t, terr.Msg, "same type")
}

func TestCompileFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prog.expr")

	err := os.WriteFile(path, []byte("print_bool(true)"), 0o644)
	require.NoError(t, err)

	obj, err := CompileFile(ctx, path, OptionsFrom(config.Default()))
	require.NoError(t, err)
	assert.Contains(t, string(obj), "callq print_bool\n")

	_, err = CompileFile(ctx, filepath.Join(t.TempDir(), "missing.expr"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
