package df

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/tp"
)

// loop builds
//
//	0: LoadIntConst(0, x)
//	1: Label(L0)
//	2: CondJump(x, L1, L2)
//	3: Label(L1)
//	4: Jump(L0)
//	5: Label(L2)
func loop() *ir.Func {
	f := ir.NewFunc("main")
	x := f.NewVar("", tp.Bool{})

	f.Emit(ir.LoadIntConst{Dest: x})
	f.Emit(ir.LabelDef{Label: 0})
	f.Emit(ir.CondJump{Cond: x, Then: 1, Else: 2})
	f.Emit(ir.LabelDef{Label: 1})
	f.Emit(ir.Jump{Label: 0})
	f.Emit(ir.LabelDef{Label: 2})

	return f
}

func TestBuild(t *testing.T) {
	f := loop()
	g := Build(f)

	require.Len(t, g.Blocks, 4)

	assert.Equal(t, Block{Label: NoLabel, Start: 0, End: 1, Succs: []int{1}}, g.Blocks[0])
	assert.Equal(t, Block{Label: 0, Start: 1, End: 3, Succs: []int{2, 3}, Preds: []int{0, 2}}, g.Blocks[1])
	assert.Equal(t, Block{Label: 1, Start: 3, End: 5, Succs: []int{1}, Preds: []int{1}}, g.Blocks[2])
	assert.Equal(t, Block{Label: 2, Start: 5, End: 6, Preds: []int{1}}, g.Blocks[3])

	assert.Equal(t, map[ir.Label]int{0: 1, 1: 2, 2: 3}, g.ByLabel)

	assert.True(t, g.Falls(f, 0))
	assert.False(t, g.Falls(f, 1))
	assert.False(t, g.Falls(f, 2))
	assert.False(t, g.Falls(f, 3))
}

func TestBuildLeadingLabel(t *testing.T) {
	f := ir.NewFunc("main")

	f.Emit(ir.LabelDef{Label: 3})
	f.Emit(ir.Jump{Label: 3})

	g := Build(f)

	require.Len(t, g.Blocks, 1)
	assert.Equal(t, ir.Label(3), g.Blocks[0].Label)
	assert.Equal(t, []int{0}, g.Blocks[0].Succs)
	assert.Equal(t, []int{0}, g.Blocks[0].Preds)
}

func TestUnreachable(t *testing.T) {
	f := ir.NewFunc("main")
	x := f.NewVar("", tp.Int{})

	f.Emit(ir.Jump{Label: 1})
	f.Emit(ir.LoadIntConst{Value: 1, Dest: x})
	f.Emit(ir.LabelDef{Label: 1})

	g := Build(f)

	require.Len(t, g.Blocks, 3)
	assert.Equal(t, 1, g.Blocks[1].Start)
	assert.Equal(t, NoLabel, g.Blocks[1].Label)

	r := g.Reachable()

	assert.True(t, r.IsSet(0))
	assert.False(t, r.IsSet(1))
	assert.True(t, r.IsSet(2))
}

func TestEmpty(t *testing.T) {
	g := Build(ir.NewFunc("main"))

	require.Len(t, g.Blocks, 1)
	assert.False(t, g.Falls(ir.NewFunc("main"), 0))
	assert.Equal(t, 1, g.Reachable().Size())
}
