package lpc

import "fmt"

// ClassDef is the compile-time shape of a `class` definition: a fixed
// member count and, for diagnostics, the declared member names. The
// compiler (out of scope) is the only producer of ClassDef values; the
// core only needs to know how many slots a class instance carries.
type ClassDef struct {
	Name    string
	Members []string
}

// Class has an identical layout to Array -- ref, size, inline
// item[size] -- distinguished only by tag (spec.md §3.2). Size is
// fixed at compile time per class definition and is not resizable the
// way an array's range-assignment is.
type Class struct {
	refHeader
	Def   *ClassDef
	Items []Value
}

func NewClass(def *ClassDef, items []Value) *Class {
	return &Class{Def: def, Items: items}
}

func (c *Class) Kind() ValueKind { return KindClass }
func (c *Class) Dump() string {
	name := "class"
	if c.Def != nil {
		name = c.Def.Name
	}
	return fmt.Sprintf("(/ %s /)", name)
}
func (c *Class) Size() int { return len(c.Items) }

func (c *Class) Unref() {
	c.ref--
	if c.ref > 0 {
		return
	}
	for _, v := range c.Items {
		UnrefValue(v)
	}
}

func (c *Class) MemberIndex(name string) int {
	if c.Def == nil {
		return -1
	}
	for i, m := range c.Def.Members {
		if m == name {
			return i
		}
	}
	return -1
}

// ClassIndexCursor addresses a single member slot of a class instance.
type ClassIndexCursor struct {
	Cls *Class
	Idx int
}

func (c ClassIndexCursor) Get() Value {
	if c.Idx < 0 || c.Idx >= len(c.Cls.Items) {
		return UndefinedZero()
	}
	return Resolve(&c.Cls.Items[c.Idx])
}

func (c ClassIndexCursor) Set(v Value) error {
	if c.Idx < 0 || c.Idx >= len(c.Cls.Items) {
		return fmt.Errorf("class member index out of bounds: %d", c.Idx)
	}
	UnrefValue(c.Cls.Items[c.Idx])
	RefValue(v)
	c.Cls.Items[c.Idx] = v
	return nil
}

func (c ClassIndexCursor) Dump() string { return fmt.Sprintf("class[%d]", c.Idx) }
