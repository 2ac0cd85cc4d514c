package lpc

import "fmt"

// foreachKind tags which container shape a foreachCursor was built
// over, per spec.md §4.2 "foreach protocol": "a cursor (array index
// with remaining count, mapping-keys array with remaining count, or
// string byte cursor)".
type foreachKind int

const (
	foreachArray foreachKind = iota
	foreachMapping
	foreachString
)

// foreachCursor is the transient bookkeeping value F_FOREACH pushes
// onto the evaluator stack "between the collection and the loop
// variable lvalue(s)" (spec.md §4.2). It is never observed as an
// LPC-visible svalue -- F_NEXT_FOREACH always either advances past it
// or pops it -- so it carries no heap refcount of its own and reports
// KindInvalid if ever asked.
type foreachCursor struct {
	kind foreachKind

	arr *Array  // foreachArray: the array being walked
	str *String // foreachString: the string being walked

	mp   *Mapping // foreachMapping: the original mapping, for value lookup
	keys []Value  // foreachMapping: snapshot of keys, captured once per spec.md §9
	// "Mapping iteration during mutation" -- forbidding it at the
	// invariant level by handing the loop its own frozen key list.

	idx   int
	nvars int
}

func (c *foreachCursor) Kind() ValueKind { return KindInvalid }
func (c *foreachCursor) Dump() string    { return "<foreach-cursor>" }

// newForeachCursor builds the cursor for F_FOREACH, consuming (and,
// for arrays/strings, retaining a reference into) the collection
// value popped off the stack.
func newForeachCursor(coll Value, nvars int) (*foreachCursor, error) {
	switch c := coll.(type) {
	case *Array:
		return &foreachCursor{kind: foreachArray, arr: c, nvars: nvars}, nil
	case *Mapping:
		return &foreachCursor{kind: foreachMapping, mp: c, keys: c.Keys(), nvars: nvars}, nil
	case *String:
		return &foreachCursor{kind: foreachString, str: c, nvars: nvars}, nil
	default:
		return nil, newRuntimeError("value of type %v is not iterable with foreach", coll.Kind())
	}
}

// next yields the values for the current position and advances the
// cursor, or reports false once every element has been produced.
func (c *foreachCursor) next() ([]Value, bool) {
	switch c.kind {
	case foreachArray:
		if c.idx >= len(c.arr.Items) {
			return nil, false
		}
		v := Resolve(&c.arr.Items[c.idx])
		c.idx++
		return []Value{v}, true

	case foreachString:
		if c.idx >= c.str.Len() {
			return nil, false
		}
		v := NewInt(int64(c.str.Value()[c.idx]))
		c.idx++
		return []Value{v}, true

	case foreachMapping:
		if c.idx >= len(c.keys) {
			return nil, false
		}
		k := c.keys[c.idx]
		c.idx++
		if c.nvars <= 1 {
			return []Value{k}, true
		}
		v, _ := c.mp.Get(k)
		return []Value{k, v}, true

	default:
		panic(fmt.Sprintf("foreachCursor: unknown kind %d", c.kind))
	}
}
