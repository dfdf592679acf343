// Package llvm lowers IR to textual LLVM IR.
//
// Every variable lives in its own stack slot allocated in the entry block.
// Basic blocks follow the control flow graph of package df,
// blocks unreachable from the entry are not emitted.
package llvm

import (
	"context"
	"fmt"

	lir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/builtin"
	"github.com/slowlang/exprc/compiler/df"
	"github.com/slowlang/exprc/compiler/ir"
)

type (
	funContext struct {
		*ir.Func

		mod  *lir.Module
		main *lir.Func

		entry *lir.Block
		block *lir.Block

		slots   map[ir.Var]*lir.InstAlloca
		blocks  map[ir.Label]*lir.Block
		externs map[string]*lir.Func
	}

	binop func(b *lir.Block, x, y value.Value) value.Value
)

var (
	zero = constant.NewInt(types.I64, 0)
	one  = constant.NewInt(types.I64, 1)
)

var binops = map[string]binop{
	"+":   func(b *lir.Block, x, y value.Value) value.Value { return b.NewAdd(x, y) },
	"-":   func(b *lir.Block, x, y value.Value) value.Value { return b.NewSub(x, y) },
	"*":   func(b *lir.Block, x, y value.Value) value.Value { return b.NewMul(x, y) },
	"/":   func(b *lir.Block, x, y value.Value) value.Value { return b.NewSDiv(x, y) },
	"%":   func(b *lir.Block, x, y value.Value) value.Value { return b.NewSRem(x, y) },
	"and": func(b *lir.Block, x, y value.Value) value.Value { return b.NewAnd(x, y) },
	"or":  func(b *lir.Block, x, y value.Value) value.Value { return b.NewOr(x, y) },

	"<":  icmp(enum.IPredSLT),
	"<=": icmp(enum.IPredSLE),
	">":  icmp(enum.IPredSGT),
	">=": icmp(enum.IPredSGE),
	"==": icmp(enum.IPredEQ),
	"!=": icmp(enum.IPredNE),
}

// Compile appends the LLVM assembly of f to b.
func Compile(ctx context.Context, b []byte, f *ir.Func) ([]byte, error) {
	m, err := Generate(ctx, f)
	if err != nil {
		return nil, err
	}

	return append(b, m.String()...), nil
}

// Generate builds a module with f as its main function.
func Generate(ctx context.Context, f *ir.Func) (_ *lir.Module, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "llvm: generate", "func", f.Name)
	defer tr.Finish("err", &err)

	fc := &funContext{
		Func:    f,
		mod:     lir.NewModule(),
		slots:   map[ir.Var]*lir.InstAlloca{},
		blocks:  map[ir.Label]*lir.Block{},
		externs: map[string]*lir.Func{},
	}

	for _, s := range builtin.Externs {
		params := make([]*lir.Param, len(s.Type.In))

		for i := range params {
			params[i] = lir.NewParam("", types.I64)
		}

		fc.externs[s.Name] = fc.mod.NewFunc(s.Name, types.I64, params...)
	}

	fc.main = fc.mod.NewFunc(f.Name, types.I32)
	fc.entry = fc.main.NewBlock("entry")

	for _, x := range f.Code {
		vs := ir.Reads(x)

		if v, ok := ir.Writes(x); ok {
			vs = append(vs, v)
		}

		for _, v := range vs {
			fc.slot(v)
		}
	}

	cfg := df.Build(f)
	live := cfg.Reachable()
	blocks := make([]*lir.Block, len(cfg.Blocks))

	for i, b := range cfg.Blocks {
		if !live.IsSet(i) {
			continue
		}

		name := fmt.Sprintf("b%d", i)
		if b.Label != df.NoLabel {
			name = b.Label.String()
		}

		blocks[i] = fc.main.NewBlock(name)
	}

	for l, i := range cfg.ByLabel {
		if blocks[i] != nil {
			fc.blocks[l] = blocks[i]
		}
	}

	fc.entry.NewBr(blocks[0])

	for i, b := range cfg.Blocks {
		if blocks[i] == nil {
			tr.V("dead").Printw("skip unreachable block", "block", i, "label", b.Label)
			continue
		}

		fc.block = blocks[i]

		for _, x := range f.Code[b.Start:b.End] {
			err = fc.instr(x)
			if err != nil {
				return nil, err
			}
		}

		switch {
		case fc.block.Term != nil:
		case cfg.Falls(f, i):
			fc.block.NewBr(blocks[i+1])
		default:
			fc.block.NewRet(constant.NewInt(types.I32, 0))
		}
	}

	if tr.If("dump_llvm") {
		tr.Printw("llvm", "module", fc.mod.String())
	}

	return fc.mod, nil
}

func (fc *funContext) instr(x ir.Instr) error {
	switch x := x.(type) {
	case ir.LabelDef:
	case ir.LoadIntConst:
		fc.store(constant.NewInt(types.I64, x.Value), x.Dest)
	case ir.LoadBoolConst:
		v := zero
		if x.Value {
			v = one
		}

		fc.store(v, x.Dest)
	case ir.Copy:
		fc.store(fc.load(x.Source), x.Dest)
	case ir.Call:
		return fc.call(x)
	case ir.Jump:
		to, err := fc.target(x, x.Label)
		if err != nil {
			return err
		}

		fc.block.NewBr(to)
	case ir.CondJump:
		then, err := fc.target(x, x.Then)
		if err != nil {
			return err
		}

		els, err := fc.target(x, x.Else)
		if err != nil {
			return err
		}

		c := fc.block.NewICmp(enum.IPredNE, fc.load(x.Cond), zero)

		fc.block.NewCondBr(c, then, els)
	default:
		return ir.NewCodegenError(x.Location(), "unsupported instruction: %T", x)
	}

	return nil
}

func (fc *funContext) call(x ir.Call) error {
	name := fc.VarName(x.Func)

	args := make([]value.Value, len(x.Args))

	for i, a := range x.Args {
		args[i] = fc.load(a)
	}

	var res value.Value

	switch {
	case binops[name] != nil && len(args) == 2:
		res = binops[name](fc.block, args[0], args[1])
	case name == builtin.Unary("-") && len(args) == 1:
		res = fc.block.NewSub(zero, args[0])
	case name == builtin.Unary("not") && len(args) == 1:
		res = fc.block.NewXor(args[0], one)
	case fc.externs[name] != nil:
		res = fc.block.NewCall(fc.externs[name], args...)
	default:
		return ir.NewCodegenError(x.Loc, "call of %v with %d arguments: unsupported", name, len(args))
	}

	fc.store(res, x.Dest)

	return nil
}

func (fc *funContext) slot(v ir.Var) {
	if v == ir.Unit || fc.slots[v] != nil {
		return
	}

	a := fc.entry.NewAlloca(types.I64)
	a.SetName(v.String())

	fc.slots[v] = a
}

func (fc *funContext) target(x ir.Instr, l ir.Label) (*lir.Block, error) {
	b, ok := fc.blocks[l]
	if !ok {
		return nil, ir.NewCodegenError(x.Location(), "jump to undefined label %v", l)
	}

	return b, nil
}

func (fc *funContext) load(v ir.Var) value.Value {
	if v == ir.Unit {
		return zero
	}

	return fc.block.NewLoad(types.I64, fc.slots[v])
}

// store writes a slot. Writes to the Unit sentinel are dropped.
func (fc *funContext) store(x value.Value, v ir.Var) {
	if v == ir.Unit {
		return
	}

	fc.block.NewStore(x, fc.slots[v])
}

func icmp(pred enum.IPred) binop {
	return func(b *lir.Block, x, y value.Value) value.Value {
		c := b.NewICmp(pred, x, y)

		return b.NewZExt(c, types.I64)
	}
}
