// Package scope implements nested name scopes as an arena of frames.
//
// Frames are addressed by index and point to their parent by index,
// so a frame can be dropped by simply not using its index anymore.
package scope

type (
	Frame int

	Arena[V any] struct {
		frames []frame[V]
	}

	frame[V any] struct {
		parent Frame
		binds  []Binding[V]
	}

	Binding[V any] struct {
		Name string
		Val  V
	}
)

// None is the parent of a root frame.
const None Frame = -1

func (a *Arena[V]) Push(parent Frame) Frame {
	a.frames = append(a.frames, frame[V]{parent: parent})

	return Frame(len(a.frames) - 1)
}

// Declare binds name in frame f unless a binding in f matches clash.
func (a *Arena[V]) Declare(f Frame, name string, v V, clash func(Binding[V]) bool) bool {
	fr := &a.frames[f]

	for _, b := range fr.binds {
		if b.Name == name && (clash == nil || clash(b)) {
			return false
		}
	}

	fr.binds = append(fr.binds, Binding[V]{Name: name, Val: v})

	return true
}

// Lookup walks frames from f outwards. Inside a frame bindings are tried
// in declaration order and the first one accepted by match wins.
func (a *Arena[V]) Lookup(f Frame, name string, match func(V) bool) (v V, ok bool) {
	for ; f != None; f = a.frames[f].parent {
		for _, b := range a.frames[f].binds {
			if b.Name != name {
				continue
			}

			if match == nil || match(b.Val) {
				return b.Val, true
			}
		}
	}

	return v, false
}
