package back

import (
	"github.com/slowlang/exprc/compiler/asm"
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/set"
)

type (
	// Locals assigns a frame slot to every variable the code reads or writes.
	// Called functions and the Unit sentinel get no slot.
	Locals struct {
		vars  []ir.Var
		slots map[ir.Var]int
	}
)

// NewLocals collects variables in order of first appearance.
func NewLocals(f *ir.Func) *Locals {
	l := &Locals{
		slots: map[ir.Var]int{},
	}

	seen := set.MakeBits[ir.Var]()

	add := func(v ir.Var) {
		if v == ir.Unit || !seen.Add(v) {
			return
		}

		l.slots[v] = len(l.vars)
		l.vars = append(l.vars, v)
	}

	for _, x := range f.Code {
		for _, v := range ir.Reads(x) {
			add(v)
		}

		if v, ok := ir.Writes(x); ok {
			add(v)
		}
	}

	return l
}

// Ref is the operand addressing v.
// The Unit sentinel always reads as zero.
func (l *Locals) Ref(v ir.Var) (string, bool) {
	if v == ir.Unit {
		return "$0", true
	}

	i, ok := l.slots[v]
	if !ok {
		return "", false
	}

	return asm.Slot(i), true
}

func (l *Locals) Vars() []ir.Var { return l.vars }

// StackUsed is the number of bytes the slots occupy.
func (l *Locals) StackUsed() int {
	return 8 * len(l.vars)
}

// FrameSize is StackUsed rounded up to keep the stack 16 byte aligned at calls.
func (l *Locals) FrameSize() int {
	return (l.StackUsed() + 15) &^ 15
}
