// Package asm holds x86-64 (AT&T syntax) building blocks:
// operand formatting, the SysV argument registers and
// the lowering of built-in operators.
package asm

import (
	"github.com/nikandfor/hacked/hfmt"
)

type (
	// Args are the operands of an intrinsic.
	// Refs are readable operands: stack slots, registers or immediates.
	// Result is the register the result must end up in.
	Args struct {
		Refs   []string
		Result string
	}

	Intrinsic func(b []byte, a Args) []byte
)

const (
	RAX = "%rax"
	RDX = "%rdx"
	RBP = "%rbp"
	RSP = "%rsp"
)

// ArgRegs are the integer argument registers of the SysV calling convention in order.
var ArgRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// Intrinsics lower the built-in operators.
var Intrinsics = map[string]Intrinsic{
	"+":   binary("addq"),
	"-":   binary("subq"),
	"*":   binary("imulq"),
	"and": binary("andq"),
	"or":  binary("orq"),

	"/": divide(RAX),
	"%": divide(RDX),

	"<":  compare("setl"),
	"<=": compare("setle"),
	">":  compare("setg"),
	">=": compare("setge"),
	"==": compare("sete"),
	"!=": compare("setne"),

	"unary_-":   unary("negq %s"),
	"unary_not": unary("xorq $1, %s"),
}

// Slot is the frame slot of the i-th local, counting from 0.
func Slot(i int) string {
	return string(hfmt.Appendf(nil, "-%d(%%rbp)", 8*(i+1)))
}

// IsInt32 reports whether v fits a sign extended 32 bit immediate.
func IsInt32(v int64) bool {
	return v >= -1<<31 && v < 1<<31
}

// Insn appends one instruction line.
func Insn(b []byte, format string, args ...any) []byte {
	b = hfmt.Appendf(b, format, args...)

	return append(b, '\n')
}

// Mov appends movq src, dst unless they are the same operand.
func Mov(b []byte, src, dst string) []byte {
	if src == dst {
		return b
	}

	return Insn(b, "movq %s, %s", src, dst)
}

func binary(op string) Intrinsic {
	return func(b []byte, a Args) []byte {
		b = Mov(b, a.Refs[0], a.Result)
		b = Insn(b, "%s %s, %s", op, a.Refs[1], a.Result)

		return b
	}
}

// divide computes a.Refs[0] / a.Refs[1] and takes the result from res: %rax for quotient, %rdx for remainder.
func divide(res string) Intrinsic {
	return func(b []byte, a Args) []byte {
		b = Mov(b, a.Refs[0], RAX)
		b = Insn(b, "cqto")
		b = Insn(b, "idivq %s", a.Refs[1])
		b = Mov(b, res, a.Result)

		return b
	}
}

func compare(set string) Intrinsic {
	return func(b []byte, a Args) []byte {
		b = Mov(b, a.Refs[0], RDX)
		b = Insn(b, "cmpq %s, %s", a.Refs[1], RDX)
		b = Insn(b, "%s %%al", set)
		b = Insn(b, "movzbq %%al, %s", RAX)
		b = Mov(b, RAX, a.Result)

		return b
	}
}

func unary(format string) Intrinsic {
	return func(b []byte, a Args) []byte {
		b = Mov(b, a.Refs[0], a.Result)
		b = Insn(b, format, a.Result)

		return b
	}
}
