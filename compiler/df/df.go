// Package df splits IR code into basic blocks and links them into a control flow graph.
package df

import (
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/set"
)

type (
	Block struct {
		// Label is the label the block starts with, or NoLabel.
		Label ir.Label

		// Code is f.Code[Start:End].
		Start, End int

		Succs []int
		Preds []int
	}

	CFG struct {
		Blocks []Block

		// ByLabel maps a label to the index of the block it starts.
		ByLabel map[ir.Label]int
	}
)

const NoLabel ir.Label = -1

// Build splits f.Code into blocks. A block starts at a label definition
// or after a jump and ends with a jump or right before the next label.
// Jumps to undefined labels have no edge.
func Build(f *ir.Func) *CFG {
	g := &CFG{
		ByLabel: map[ir.Label]int{},
	}

	open := func(i int, l ir.Label) {
		if l != NoLabel {
			g.ByLabel[l] = len(g.Blocks)
		}

		g.Blocks = append(g.Blocks, Block{Label: l, Start: i, End: i})
	}

	open(0, NoLabel)

	for i, x := range f.Code {
		last := &g.Blocks[len(g.Blocks)-1]

		if l, ok := x.(ir.LabelDef); ok {
			if last.End == last.Start && last.Label == NoLabel {
				last.Label = l.Label
				g.ByLabel[l.Label] = len(g.Blocks) - 1
			} else {
				open(i, l.Label)
			}
		}

		last = &g.Blocks[len(g.Blocks)-1]
		last.End = i + 1

		if len(ir.Targets(x)) != 0 && i+1 < len(f.Code) {
			if _, ok := f.Code[i+1].(ir.LabelDef); !ok {
				open(i+1, NoLabel)
			}
		}
	}

	for i := range g.Blocks {
		b := &g.Blocks[i]

		for _, s := range g.succs(f, i) {
			b.Succs = append(b.Succs, s)
			g.Blocks[s].Preds = append(g.Blocks[s].Preds, i)
		}
	}

	return g
}

func (g *CFG) succs(f *ir.Func, i int) []int {
	b := g.Blocks[i]

	var lastInstr ir.Instr
	if b.End > b.Start {
		lastInstr = f.Code[b.End-1]
	}

	var r []int

	switch x := lastInstr.(type) {
	case ir.Jump:
		r = g.addTarget(r, x.Label)
	case ir.CondJump:
		r = g.addTarget(r, x.Then)
		r = g.addTarget(r, x.Else)
	default:
		if i+1 < len(g.Blocks) {
			r = append(r, i+1)
		}
	}

	return r
}

func (g *CFG) addTarget(r []int, l ir.Label) []int {
	s, ok := g.ByLabel[l]
	if !ok {
		return r
	}

	for _, x := range r {
		if x == s {
			return r
		}
	}

	return append(r, s)
}

// Falls reports whether block i continues into block i+1 without a jump.
func (g *CFG) Falls(f *ir.Func, i int) bool {
	b := g.Blocks[i]

	if b.End > b.Start && len(ir.Targets(f.Code[b.End-1])) != 0 {
		return false
	}

	return i+1 < len(g.Blocks)
}

// Reachable returns the blocks reachable from the entry block.
func (g *CFG) Reachable() set.Bits[int] {
	seen := set.MakeBits[int]()

	if len(g.Blocks) == 0 {
		return seen
	}

	q := []int{0}
	seen.Set(0)

	for len(q) != 0 {
		b := q[len(q)-1]
		q = q[:len(q)-1]

		for _, s := range g.Blocks[b].Succs {
			if seen.Add(s) {
				q = append(q, s)
			}
		}
	}

	return seen
}
