package interp

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/compiler/analyze"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/front"
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/parse"
)

func lower(t *testing.T, src string) *ir.Func {
	t.Helper()

	ctx := context.Background()

	x, err := parse.Parse(ctx, []byte(src))
	require.NoError(t, err, "src: %q", src)

	_, err = analyze.Analyze(ctx, x)
	require.NoError(t, err, "src: %q", src)

	f, err := front.Generate(ctx, x)
	require.NoError(t, err, "src: %q", src)

	return f
}

func run(t *testing.T, src, stdin string) string {
	t.Helper()

	var out bytes.Buffer

	err := Run(context.Background(), lower(t, src), Options{
		Stdout:   &out,
		Stdin:    strings.NewReader(stdin),
		MaxSteps: 100000,
	})
	require.NoError(t, err, "src: %q", src)

	return out.String()
}

func TestRun(t *testing.T) {
	for _, tc := range []struct {
		src string
		in  string
		exp string
	}{
		{"var x = 3; print_int(x);", "", "3\n"},
		{"1 + 2", "", "3\n"},
		{"1 + 2;", "", ""},
		{"1 < 2", "", "true\n"},
		{"7 / 2; 7 % 2", "", "1\n"},
		{"-7 / 2", "", "-3\n"},
		{"-7 % 2", "", "-1\n"},
		{"not (1 == 2)", "", "true\n"},
		{"{} == {}", "", "true\n"},
		{"var x = 0; while x < 3 do { print_int(x); x = x + 1 }; x", "", "0\n1\n2\n3\n"},
		{"if 2 > 1 then 10 else 20", "", "10\n"},
		{"if 2 < 1 then 10 else 20", "", "20\n"},
		{"var x = 1; if x == 1 then { x = 5 }; x", "", "5\n"},
		{"var a = 1; var b = 2; a = b = 3; a + b", "", "6\n"},
		{"var x = 1; { var x = 2; x = 7 }; x", "", "1\n"},
		{"read_int() * 2", "21\n", "42\n"},
		{"print_bool(true or false); print_bool(false and true);", "", "true\nfalse\n"},
		{"var n = 10; var a = 0; var b = 1; while n > 0 do { var t = a + b; a = b; b = t; n = n - 1 }; a", "", "55\n"},
	} {
		assert.Equal(t, tc.exp, run(t, tc.src, tc.in), "src: %q", tc.src)
	}
}

func TestLoopIterations(t *testing.T) {
	var iters int

	f := lower(t, "var x = 0; while x < 3 do { x = x + 1; print_int(x) }")

	err := Run(context.Background(), f, Options{
		Externs: map[string]Extern{
			builtin.PrintInt: func(ctx context.Context, a []int64) (int64, error) {
				iters++
				return 0, nil
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, iters)
}

func TestShortCircuit(t *testing.T) {
	for _, tc := range []struct {
		src   string
		calls int
	}{
		{"false and read_int() > 0", 0},
		{"true or read_int() > 0", 0},
		{"true and read_int() > 0", 1},
		{"false or read_int() > 0", 1},
		{"false and read_int() > 0 and read_int() > 0", 0},
		{"true and (false or read_int() > 0)", 1},
	} {
		var calls int

		err := Run(context.Background(), lower(t, tc.src), Options{
			Stdout: io.Discard,
			Externs: map[string]Extern{
				builtin.ReadInt: func(ctx context.Context, a []int64) (int64, error) {
					calls++
					return 1, nil
				},
			},
		})
		require.NoError(t, err, "src: %q", tc.src)

		assert.Equal(t, tc.calls, calls, "src: %q", tc.src)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	err := Run(ctx, lower(t, "var z = 0; 1 / z"), Options{Stdout: io.Discard})
	assert.ErrorIs(t, err, ErrDivisionByZero)

	err = Run(ctx, lower(t, "while true do { 1 }"), Options{MaxSteps: 1000})
	assert.ErrorIs(t, err, ErrStepLimit)

	ctx, cancel := context.WithCancel(ctx)
	cancel()

	err = Run(ctx, lower(t, "while true do { 1 }"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
