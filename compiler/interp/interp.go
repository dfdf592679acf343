// Package interp executes IR directly.
// It is used to run programs without an assembler and to test code generation.
package interp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/ir"
)

type (
	Extern func(ctx context.Context, args []int64) (int64, error)

	Options struct {
		// Externs override and extend the default runtime functions.
		Externs map[string]Extern

		Stdout io.Writer
		Stdin  io.Reader

		// MaxSteps limits the number of executed instructions. Zero means no limit.
		MaxSteps int
	}

	machine struct {
		f *ir.Func

		slots  []int64
		labels map[ir.Label]int

		externs map[string]Extern
		steps   int
	}

	op func(args []int64) (int64, error)
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrStepLimit      = errors.New("step limit exceeded")
)

var ops = map[string]op{
	"+":   func(a []int64) (int64, error) { return a[0] + a[1], nil },
	"-":   func(a []int64) (int64, error) { return a[0] - a[1], nil },
	"*":   func(a []int64) (int64, error) { return a[0] * a[1], nil },
	"/":   divide(func(x, y int64) int64 { return x / y }),
	"%":   divide(func(x, y int64) int64 { return x % y }),
	"<":   compare(func(x, y int64) bool { return x < y }),
	"<=":  compare(func(x, y int64) bool { return x <= y }),
	">":   compare(func(x, y int64) bool { return x > y }),
	">=":  compare(func(x, y int64) bool { return x >= y }),
	"==":  compare(func(x, y int64) bool { return x == y }),
	"!=":  compare(func(x, y int64) bool { return x != y }),
	"and": func(a []int64) (int64, error) { return a[0] & a[1], nil },
	"or":  func(a []int64) (int64, error) { return a[0] | a[1], nil },

	builtin.Unary("-"):   func(a []int64) (int64, error) { return -a[0], nil },
	builtin.Unary("not"): func(a []int64) (int64, error) { return a[0] ^ 1, nil },
}

// Run executes f until it falls off the end of its code.
func Run(ctx context.Context, f *ir.Func, opts Options) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "interp: run", "func", f.Name)
	defer tr.Finish("err", &err)

	m := &machine{
		f:      f,
		slots:  make([]int64, len(f.Vars)),
		labels: map[ir.Label]int{},
	}

	for i, x := range f.Code {
		if l, ok := x.(ir.LabelDef); ok {
			m.labels[l.Label] = i
		}
	}

	m.externs = DefaultExterns(opts.Stdout, opts.Stdin)

	for name, e := range opts.Externs {
		m.externs[name] = e
	}

	err = m.run(ctx, opts.MaxSteps)

	tr.V("steps").Printw("finished", "steps", m.steps)

	return err
}

// DefaultExterns implement the runtime functions over w and r.
// Nil w and r stand for standard output and standard input.
func DefaultExterns(w io.Writer, r io.Reader) map[string]Extern {
	if w == nil {
		w = os.Stdout
	}

	if r == nil {
		r = os.Stdin
	}

	br := bufio.NewReader(r)

	return map[string]Extern{
		builtin.PrintInt: func(ctx context.Context, a []int64) (int64, error) {
			_, err := fmt.Fprintf(w, "%d\n", a[0])
			return 0, err
		},
		builtin.PrintBool: func(ctx context.Context, a []int64) (int64, error) {
			_, err := fmt.Fprintf(w, "%t\n", a[0] != 0)
			return 0, err
		},
		builtin.ReadInt: func(ctx context.Context, a []int64) (v int64, err error) {
			_, err = fmt.Fscan(br, &v)
			if err != nil {
				return 0, errors.Wrap(err, "read int")
			}

			return v, nil
		},
	}
}

func (m *machine) run(ctx context.Context, limit int) error {
	code := m.f.Code

	for pc := 0; pc < len(code); {
		m.steps++

		if limit != 0 && m.steps > limit {
			return ErrStepLimit
		}

		if m.steps%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		next, err := m.step(ctx, code[pc], pc+1)
		if err != nil {
			return errors.Wrap(err, "%v: %v", code[pc].Location(), m.f.Format(code[pc]))
		}

		pc = next
	}

	return nil
}

func (m *machine) step(ctx context.Context, x ir.Instr, next int) (int, error) {
	switch x := x.(type) {
	case ir.LoadIntConst:
		m.set(x.Dest, x.Value)
	case ir.LoadBoolConst:
		var v int64
		if x.Value {
			v = 1
		}

		m.set(x.Dest, v)
	case ir.Copy:
		m.set(x.Dest, m.slots[x.Source])
	case ir.Call:
		v, err := m.call(ctx, x)
		if err != nil {
			return 0, err
		}

		m.set(x.Dest, v)
	case ir.Jump:
		return m.jump(x.Label)
	case ir.CondJump:
		if m.slots[x.Cond] != 0 {
			return m.jump(x.Then)
		}

		return m.jump(x.Else)
	case ir.LabelDef:
	default:
		return 0, errors.New("unsupported instruction: %T", x)
	}

	return next, nil
}

func (m *machine) call(ctx context.Context, x ir.Call) (int64, error) {
	name := m.f.VarName(x.Func)

	args := make([]int64, len(x.Args))

	for i, a := range x.Args {
		args[i] = m.slots[a]
	}

	if f, ok := ops[name]; ok {
		return f(args)
	}

	if f, ok := m.externs[name]; ok {
		return f(ctx, args)
	}

	return 0, errors.New("unknown function: %v", name)
}

func (m *machine) jump(l ir.Label) (int, error) {
	pc, ok := m.labels[l]
	if !ok {
		return 0, errors.New("undefined label: %v", l)
	}

	return pc, nil
}

// set writes a slot. The Unit sentinel stays zero.
func (m *machine) set(v ir.Var, x int64) {
	if v == ir.Unit {
		return
	}

	m.slots[v] = x
}

func divide(f func(x, y int64) int64) op {
	return func(a []int64) (int64, error) {
		if a[1] == 0 {
			return 0, ErrDivisionByZero
		}

		return f(a[0], a[1]), nil
	}
}

func compare(f func(x, y int64) bool) op {
	return func(a []int64) (int64, error) {
		if f(a[0], a[1]) {
			return 1, nil
		}

		return 0, nil
	}
}
