package lpc

import "fmt"

// FuncFlag bits, spec.md §4.2 "Call mechanics".
type FuncFlag uint16

const (
	FlagInherited FuncFlag = 1 << iota
	FlagUndefined
	FlagTrueVarargs
	FlagStatic
	FlagPrivate
	FlagProtected
	FlagPublic
	FlagNoMask
)

// Inherit records one `inherits "path"` entry: the offset of the
// parent's functions/variables within this program's flattened
// tables (spec.md §4.2).
type Inherit struct {
	Program          *Program
	FunctionOffset   int
	VariableOffset   int
}

// FuncEntry is either an inherited entry (walk Inherits[InheritIdx] to
// find IndexInParent) or a defined entry (Entry is a bytecode offset).
type FuncEntry struct {
	Name  string
	Flags FuncFlag

	Inherited    bool
	InheritIdx   int
	IndexInParent int

	Entry    int // bytecode offset, valid when !Inherited
	NumArg   int
	NumLocal int
}

func (f FuncEntry) Is(flag FuncFlag) bool { return f.Flags&flag != 0 }

// flatEntry is the precomputed (defining-program, defined-index) pair
// described in spec.md §9 "precompute at load time a per-program array
// mapping runtime indices ... avoids the per-call walk of inherit
// entries during setup."
type flatEntry struct {
	Prog  *Program
	Index int
}

// Program is the immutable bytecode image: function table, string
// pool, variable table, inherit list and class definitions, shared
// (refcounted) across every object cloned from it (spec.md §3.2).
type Program struct {
	Path string

	Code      []byte
	Strings   []string
	Functions []FuncEntry
	Variables []string // every variable name, in declaration order; Statics marks the static ones
	Statics   map[string]bool
	Inherits  []Inherit
	Classes   map[string]*ClassDef

	flattened []flatEntry // lazily computed by Flatten()

	progRef  int32 // objects + Flatten-independent refs
	funcRef  int32 // live anonymous functions pointing into this program's code
}

func NewProgram(path string) *Program {
	return &Program{Path: path, Statics: map[string]bool{}, Classes: map[string]*ClassDef{}}
}

func (p *Program) Ref()    { p.progRef++ }
func (p *Program) objRefDrop()  { p.progRef--; p.maybeFree() }
func (p *Program) funcRefDrop() { p.funcRef--; p.maybeFree() }
func (p *Program) funcRefAdd()  { p.funcRef++ }

// maybeFree implements the invariant of spec.md §8: "for all programs
// p: p.func_ref == 0 && ref(p) == 0 => p may be freed." Go's GC does
// the actual reclamation; this only asserts the invariant holds so a
// violation is caught early in tests/debug builds.
func (p *Program) maybeFree() {
	if p.progRef < 0 || p.funcRef < 0 {
		panic(fmt.Sprintf("program %q refcount underflow", p.Path))
	}
}

// Freeable reports whether the program could legally be collected
// right now, per the invariant above.
func (p *Program) Freeable() bool { return p.progRef == 0 && p.funcRef == 0 }

// Flatten computes the runtime-index -> (defining program, index)
// table once, walking inherited entries down to their defining program
// at load time, so setupNewFrame is only ever handed defined entries.
func (p *Program) Flatten() {
	p.flattened = make([]flatEntry, len(p.Functions))
	for i, fn := range p.Functions {
		p.flattened[i] = p.resolveDefining(i, fn)
	}
}

func (p *Program) resolveDefining(idx int, fn FuncEntry) flatEntry {
	if !fn.Inherited {
		return flatEntry{Prog: p, Index: idx}
	}
	parent := p.Inherits[fn.InheritIdx].Program
	parentFn := parent.Functions[fn.IndexInParent]
	return parent.resolveDefining(fn.IndexInParent, parentFn)
}

// Defining returns the (program, index) pair that actually owns the
// bytecode for function runtime index idx.
func (p *Program) Defining(idx int) (*Program, int) {
	if p.flattened == nil {
		p.Flatten()
	}
	fe := p.flattened[idx]
	return fe.Prog, fe.Index
}

// FunctionByName looks up a runtime index by name, honoring
// inheritance (last definition wins, matching override semantics).
func (p *Program) FunctionByName(name string) (int, bool) {
	for i := len(p.Functions) - 1; i >= 0; i-- {
		if p.Functions[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// VariableByName looks up a variable's runtime index, honoring
// inheritance; used by restore_object to map a saved name to a slot.
func (p *Program) VariableByName(name string) (int, bool) {
	for i, v := range p.Variables {
		if v == name {
			return i, true
		}
	}
	return 0, false
}
