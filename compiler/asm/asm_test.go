package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsics(t *testing.T) {
	a := Args{Refs: []string{"-8(%rbp)", "-16(%rbp)"}, Result: RAX}

	for _, tc := range []struct {
		op  string
		exp string
	}{
		{"+", "movq -8(%rbp), %rax\naddq -16(%rbp), %rax\n"},
		{"-", "movq -8(%rbp), %rax\nsubq -16(%rbp), %rax\n"},
		{"*", "movq -8(%rbp), %rax\nimulq -16(%rbp), %rax\n"},
		{"/", "movq -8(%rbp), %rax\ncqto\nidivq -16(%rbp)\n"},
		{"%", "movq -8(%rbp), %rax\ncqto\nidivq -16(%rbp)\nmovq %rdx, %rax\n"},
		{"<", "movq -8(%rbp), %rdx\ncmpq -16(%rbp), %rdx\nsetl %al\nmovzbq %al, %rax\n"},
		{">=", "movq -8(%rbp), %rdx\ncmpq -16(%rbp), %rdx\nsetge %al\nmovzbq %al, %rax\n"},
		{"==", "movq -8(%rbp), %rdx\ncmpq -16(%rbp), %rdx\nsete %al\nmovzbq %al, %rax\n"},
		{"and", "movq -8(%rbp), %rax\nandq -16(%rbp), %rax\n"},
		{"or", "movq -8(%rbp), %rax\norq -16(%rbp), %rax\n"},
	} {
		f, ok := Intrinsics[tc.op]
		require.True(t, ok, "op %v", tc.op)

		assert.Equal(t, tc.exp, string(f(nil, a)), "op %v", tc.op)
	}

	a = Args{Refs: []string{"-24(%rbp)"}, Result: RAX}

	assert.Equal(t, "movq -24(%rbp), %rax\nnegq %rax\n", string(Intrinsics["unary_-"](nil, a)))
	assert.Equal(t, "movq -24(%rbp), %rax\nxorq $1, %rax\n", string(Intrinsics["unary_not"](nil, a)))
}

func TestIntrinsicsOtherResult(t *testing.T) {
	a := Args{Refs: []string{"-8(%rbp)", "-16(%rbp)"}, Result: "%rcx"}

	assert.Equal(t, "movq -8(%rbp), %rcx\naddq -16(%rbp), %rcx\n", string(Intrinsics["+"](nil, a)))
	assert.Equal(t, "movq -8(%rbp), %rax\ncqto\nidivq -16(%rbp)\nmovq %rax, %rcx\n", string(Intrinsics["/"](nil, a)))
}

func TestOperands(t *testing.T) {
	assert.Equal(t, "-8(%rbp)", Slot(0))
	assert.Equal(t, "-24(%rbp)", Slot(2))

	assert.True(t, IsInt32(5))
	assert.True(t, IsInt32(-1<<31))
	assert.True(t, IsInt32(1<<31-1))
	assert.False(t, IsInt32(1<<31))
	assert.False(t, IsInt32(5000000000))
	assert.False(t, IsInt32(-1<<31-1))

	assert.Equal(t, "", string(Mov(nil, RAX, RAX)))
	assert.Equal(t, "movq %rax, %rdx\n", string(Mov(nil, RAX, RDX)))

	assert.Len(t, ArgRegs, 6)
}
