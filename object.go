package lpc

import "fmt"

// Object is the heap type backing every LPC object instance: header,
// program pointer, inventory pointers, sentence chain, living-name
// hash link, reset time, and the flexible array of variables
// described in spec.md §3.2.
type Object struct {
	refHeader

	Name       string
	Program    *Program
	Vars       []Value
	Destructed bool

	// Inventory graph (spec.md §4.5)
	Parent  *Object // `environment`
	Sibling *Object
	Child   *Object // `contains` / head of inventory list
	Super   *Object

	// Interactive / sentence state (spec.md §4.5)
	Interactive *Interactive
	Sentences   *Sentence // LIFO chain, most-recently-added first

	// Living-name hash link (command-capable NPCs)
	LivingName string
	livingNext *Object

	// Shadow chain: at most one shadow per object, inserted at the
	// end of the chain.
	Shadowing *Object // the object this one shadows
	Shadow    *Object // the object shadowing this one

	ResetAt   int64 // unix seconds of next scheduled reset
	NoReset   bool  // a reset() apply failed; resets are disabled

	hashNext *Object // object-name hash chain
}

func NewObject(name string, prog *Program) *Object {
	vars := make([]Value, len(prog.Variables))
	for i := range vars {
		vars[i] = UndefinedZero()
	}
	return &Object{Name: name, Program: prog, Vars: vars}
}

func (o *Object) Unref() {
	o.ref--
	if o.ref > 0 {
		return
	}
	for _, v := range o.Vars {
		UnrefValue(v)
	}
	if o.Program != nil {
		o.Program.objRefDrop()
	}
}

func (o *Object) Dump() string { return fmt.Sprintf("<object %s>", o.Name) }

// ObjectRef is the svalue variant that points at an Object; it is the
// thing that actually lives on the evaluator stack, in variables, and
// inside arrays/mappings, so that Resolve (value.go) can rewrite the
// *slot* to 0 once the underlying Object is discovered destructed.
type ObjectRef struct {
	Obj *Object
}

func NewObjectRef(o *Object) *ObjectRef {
	if o != nil {
		o.Ref()
	}
	return &ObjectRef{Obj: o}
}

func (r *ObjectRef) Kind() ValueKind { return KindObject }
func (r *ObjectRef) Dump() string {
	if r.Obj == nil || r.Obj.Destructed {
		return "0"
	}
	return r.Obj.Dump()
}
func (r *ObjectRef) Ref()           { r.Obj.Ref() }
func (r *ObjectRef) Unref()         { r.Obj.Unref() }
func (r *ObjectRef) RefCount() int32 { return r.Obj.RefCount() }

// Interactive models the per-connection state of a user object: the
// comm layer is an external collaborator (spec.md §6.1), so this only
// carries the owning object; pending input lives in Object.Sentences.
type Interactive struct {
	Owner *Object
}

// ---- Inventory graph operations (spec.md §4.5) ----

// MoveInto relocates o into dest's inventory (the `move_object` efun).
func (o *Object) MoveInto(dest *Object) {
	o.removeFromInventory()
	o.Parent = dest
	if dest != nil {
		o.Sibling = dest.Child
		dest.Child = o
	}
}

func (o *Object) removeFromInventory() {
	if o.Parent == nil {
		return
	}
	p := o.Parent
	if p.Child == o {
		p.Child = o.Sibling
	} else {
		for c := p.Child; c != nil; c = c.Sibling {
			if c.Sibling == o {
				c.Sibling = o.Sibling
				break
			}
		}
	}
	o.Parent = nil
	o.Sibling = nil
}

// Contains returns the objects directly inside o (`all_inventory`).
func (o *Object) Contains() []*Object {
	var out []*Object
	for c := o.Child; c != nil; c = c.Sibling {
		out = append(out, c)
	}
	return out
}

// NextInv returns the next sibling in o's environment's inventory.
func (o *Object) NextInv() *Object { return o.Sibling }

// ---- Shadow chain (spec.md §4.5) ----

// AddShadow appends shadow to the end of o's shadow chain, so each
// object keeps at most one direct Shadow. Returns an error only when
// shadow is already the chain's last member.
func (o *Object) AddShadow(shadow *Object) error {
	tail := o
	for tail.Shadow != nil {
		tail = tail.Shadow
	}
	if tail == shadow {
		return fmt.Errorf("object already shadows itself")
	}
	tail.Shadow = shadow
	shadow.Shadowing = tail
	return nil
}

// RemoveShadow severs shadow links on destruction, per spec.md §4.5
// "Destruction ... severs shadow links".
func (o *Object) RemoveShadow() {
	if o.Shadowing != nil {
		o.Shadowing.Shadow = o.Shadow
	}
	if o.Shadow != nil {
		o.Shadow.Shadowing = o.Shadowing
	}
	o.Shadowing = nil
	o.Shadow = nil
}
