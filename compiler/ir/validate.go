package ir

import (
	"github.com/slowlang/exprc/compiler/set"
)

// Validate checks the structural invariants of f:
// every variable is written before it is read unless it is predefined,
// and every jump target is defined exactly once.
//
// Variables with a name (built-ins) and the Unit sentinel are predefined.
// Reads are checked in instruction order, which is conservative for
// backward jumps but matches how the generator emits code.
func Validate(f *Func) error {
	defined := set.MakeBits[Var]()
	labels := set.MakeBits[Label]()

	for v, info := range f.Vars {
		if info.Name != "" {
			defined.Set(Var(v))
		}
	}

	for _, x := range f.Code {
		l, ok := x.(LabelDef)
		if !ok {
			continue
		}

		if !labels.Add(l.Label) {
			return NewCodegenError(l.Loc, "label %v defined twice", l.Label)
		}
	}

	for _, x := range f.Code {
		for _, v := range Reads(x) {
			if int(v) >= len(f.Vars) {
				return NewCodegenError(x.Location(), "unknown variable %v", v)
			}

			if !defined.IsSet(v) {
				return NewCodegenError(x.Location(), "variable %v read before written", f.VarName(v))
			}
		}

		if c, ok := x.(Call); ok {
			if int(c.Func) >= len(f.Vars) || f.Vars[c.Func].Name == "" {
				return NewCodegenError(x.Location(), "call of unnamed variable %v", c.Func)
			}
		}

		if v, ok := Writes(x); ok {
			if int(v) >= len(f.Vars) {
				return NewCodegenError(x.Location(), "unknown variable %v", v)
			}

			defined.Set(v)
		}

		for _, l := range Targets(x) {
			if !labels.IsSet(l) {
				return NewCodegenError(x.Location(), "jump to undefined label %v", l)
			}
		}
	}

	return nil
}
