package back

import (
	"context"
	"fmt"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/asm"
	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/ir"
)

type (
	Options struct {
		// Comments adds the source instruction as a comment before its lowering.
		Comments bool
	}

	Compiler struct {
		Options
	}

	funContext struct {
		*ir.Func
		*Locals
	}
)

func New(opts Options) *Compiler {
	return &Compiler{Options: opts}
}

// CompileFunc appends the assembly of f as the program entry point to b.
func (c *Compiler) CompileFunc(ctx context.Context, b []byte, f *ir.Func) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile func", "name", f.Name, "instrs", len(f.Code))
	defer tr.Finish("err", &err)

	fc := &funContext{
		Func:   f,
		Locals: NewLocals(f),
	}

	if tr.If("dump_vars") {
		for i, v := range fc.Locals.Vars() {
			tr.Printw("local", "var", v, "name", f.VarName(v), "type", f.TypeOf(v), "slot", asm.Slot(i))
		}
	}

	st := len(b)

	b = fmt.Appendf(b, `.extern %s
.extern %s
.extern %s
.section .text
.global %[4]s
.type %[4]s, @function
%[4]s:
pushq %%rbp
movq %%rsp, %%rbp
subq $%[5]d, %%rsp
`, builtin.PrintInt, builtin.PrintBool, builtin.ReadInt, f.Name, fc.FrameSize())

	for i, x := range f.Code {
		if c.Comments {
			b = hfmt.Appendf(b, "# %s\n", f.Format(x))
		}

		var next ir.Instr
		if i+1 < len(f.Code) {
			next = f.Code[i+1]
		}

		b, err = c.instr(ctx, b, fc, x, next)
		if err != nil {
			return nil, err
		}
	}

	b = append(b, `movq $0, %rax
movq %rbp, %rsp
popq %rbp
ret
`...)

	if tr.If("dump_asm") {
		tr.Printw("asm", "func", f.Name, "text", b[st:])
	}

	return b, nil
}

func (c *Compiler) instr(ctx context.Context, b []byte, f *funContext, x, next ir.Instr) (_ []byte, err error) {
	switch x := x.(type) {
	case ir.LoadIntConst:
		dst, err := f.ref(x, x.Dest)
		if err != nil {
			return nil, err
		}

		if asm.IsInt32(x.Value) {
			return asm.Insn(b, "movq $%d, %s", x.Value, dst), nil
		}

		b = asm.Insn(b, "movabsq $%d, %s", x.Value, asm.RAX)

		return f.store(b, x, x.Dest)
	case ir.LoadBoolConst:
		dst, err := f.ref(x, x.Dest)
		if err != nil {
			return nil, err
		}

		v := 0
		if x.Value {
			v = 1
		}

		return asm.Insn(b, "movq $%d, %s", v, dst), nil
	case ir.Copy:
		src, err := f.ref(x, x.Source)
		if err != nil {
			return nil, err
		}

		b = asm.Mov(b, src, asm.RAX)

		return f.store(b, x, x.Dest)
	case ir.Call:
		return c.call(ctx, b, f, x)
	case ir.Jump:
		return asm.Insn(b, "jmp .%v", x.Label), nil
	case ir.CondJump:
		cond, err := f.ref(x, x.Cond)
		if err != nil {
			return nil, err
		}

		b = asm.Insn(b, "cmpq $0, %s", cond)
		b = asm.Insn(b, "jne .%v", x.Then)

		if l, ok := next.(ir.LabelDef); ok && l.Label == x.Else {
			return b, nil
		}

		return asm.Insn(b, "jmp .%v", x.Else), nil
	case ir.LabelDef:
		return hfmt.Appendf(b, "\n.%v:\n", x.Label), nil
	default:
		return nil, ir.NewCodegenError(x.Location(), "unsupported instruction: %T", x)
	}
}

func (c *Compiler) call(ctx context.Context, b []byte, f *funContext, x ir.Call) (_ []byte, err error) {
	name := f.VarName(x.Func)

	refs := make([]string, len(x.Args))

	for i, a := range x.Args {
		refs[i], err = f.ref(x, a)
		if err != nil {
			return nil, err
		}
	}

	if in, ok := asm.Intrinsics[name]; ok {
		b = in(b, asm.Args{Refs: refs, Result: asm.RAX})

		return f.store(b, x, x.Dest)
	}

	if s, ok := builtin.Lookup(name); !ok || !s.Extern {
		return nil, ir.NewCodegenError(x.Loc, "call of %v: neither intrinsic nor extern", name)
	}

	if len(refs) > len(asm.ArgRegs) {
		return nil, ir.NewCodegenError(x.Loc, "call of %v: %d arguments, at most %d supported", name, len(refs), len(asm.ArgRegs))
	}

	for i, r := range refs {
		b = asm.Mov(b, r, asm.ArgRegs[i])
	}

	b = asm.Insn(b, "callq %s", name)

	return f.store(b, x, x.Dest)
}

func (f *funContext) ref(x ir.Instr, v ir.Var) (string, error) {
	r, ok := f.Ref(v)
	if !ok {
		return "", ir.NewCodegenError(x.Location(), "no slot for %v", f.VarName(v))
	}

	return r, nil
}

// store moves %rax into the slot of v. Stores to the Unit sentinel are dropped.
func (f *funContext) store(b []byte, x ir.Instr, v ir.Var) ([]byte, error) {
	if v == ir.Unit {
		return b, nil
	}

	dst, err := f.ref(x, v)
	if err != nil {
		return nil, err
	}

	return asm.Mov(b, asm.RAX, dst), nil
}
