package lpc

import (
	"fmt"
	"strconv"
)

// ValueKind tags the payload carried by a Value, mirroring the svalue
// type tag of the reference driver: int, real, string, array, class,
// mapping, buffer, object, function, lvalue (plus the lvalue variants),
// error-handler and invalid.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindInt
	KindFloat
	KindString
	KindArray
	KindMapping
	KindClass
	KindBuffer
	KindObject
	KindFunction
	KindLValue
	KindErrorHandler
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMapping:
		return "mapping"
	case KindClass:
		return "class"
	case KindBuffer:
		return "buffer"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindLValue:
		return "lvalue"
	case KindErrorHandler:
		return "error-handler"
	default:
		return "invalid"
	}
}

// Value is the tagged (type, payload) pair described as svalue. Every
// concrete variant below is either an inline scalar (Int, Float) or a
// thin handle over a refcounted heap type.
type Value interface {
	Kind() ValueKind
	Dump() string
}

// HeapValue is implemented by every refcounted heap type: array,
// mapping, class, buffer, function pointer and object. A ref drop to
// zero triggers the type specific free(), which recursively unrefs
// contained values.
type HeapValue interface {
	Value
	Ref()
	Unref()
	RefCount() int32
}

type refHeader struct {
	ref int32
}

func (h *refHeader) Ref()           { h.ref++ }
func (h *refHeader) RefCount() int32 { return h.ref }

// Int is the inline scalar int variant. Undefined carries the spec's
// "undefined int zero" (0u): the unique value produced automatically
// whenever a dereferenced object pointer is destructed. It is only
// ever combined with a zero payload.
type Int struct {
	V         int64
	Undefined bool
}

func NewInt(v int64) Int { return Int{V: v} }

// UndefinedZero is the canonical 0u value.
func UndefinedZero() Int { return Int{V: 0, Undefined: true} }

func (Int) Kind() ValueKind { return KindInt }
func (i Int) Dump() string  { return strconv.FormatInt(i.V, 10) }

// Undefinedp implements the efun undefinedp(): true only for 0u, never
// for an ordinary int zero produced by arithmetic.
func Undefinedp(v Value) bool {
	i, ok := v.(Int)
	return ok && i.Undefined
}

type Float struct{ V float64 }

func NewFloat(v float64) Float { return Float{V: v} }
func (Float) Kind() ValueKind  { return KindFloat }
func (f Float) Dump() string   { return strconv.FormatFloat(f.V, 'g', -1, 64) }

// StringSubtype records how a String's backing buffer is owned, per
// the spec's three storage modes.
type StringSubtype int

const (
	StringShared StringSubtype = iota
	StringMalloc
	StringConstant
)

// String is the refcounted heap string. A Shared string is a key in
// the process wide interning table (see strings_intern.go) and must be
// released through it; a Malloc string owns a private buffer; a
// Constant string must never be freed.
type String struct {
	refHeader
	Subtype  StringSubtype
	buf      string
	interned *internedString // only set when Subtype == StringShared
}

func NewMallocString(s string) *String {
	return &String{Subtype: StringMalloc, buf: s}
}

func NewConstantString(s string) *String {
	return &String{Subtype: StringConstant, buf: s}
}

func (s *String) Kind() ValueKind { return KindString }
func (s *String) Dump() string    { return fmt.Sprintf("%q", s.buf) }
func (s *String) Value() string   { return s.buf }
func (s *String) Len() int        { return len(s.buf) }

// Unref releases the string. Shared strings go back through the
// interning table so the table's own refcount stays authoritative;
// Malloc strings are simply dropped; Constant strings are never freed.
func (s *String) Unref() {
	s.ref--
	if s.ref > 0 {
		return
	}
	switch s.Subtype {
	case StringShared:
		if s.interned != nil {
			releaseSharedString(s.interned)
		}
	case StringConstant:
		// never freed
	case StringMalloc:
		// backing array is reclaimed by the GC
	}
}

// MutateByte overwrites a single byte of a Malloc string in place,
// enforcing the "no embedded NUL" rule shared by char-lvalue
// assignment and increment/decrement.
func (s *String) MutateByte(i int, b byte) error {
	if s.Subtype != StringMalloc {
		return fmt.Errorf("cannot assign into a %v string in place", s.Subtype)
	}
	if b == 0 {
		return errNulByteAssign
	}
	buf := []byte(s.buf)
	buf[i] = b
	s.buf = string(buf)
	return nil
}

var errNulByteAssign = fmt.Errorf("char lvalue assignment of 0 is forbidden")

// LValue is a typed cursor produced by the indexing/range opcodes in
// lvalue position. It replaces the driver's global "lvalue byte"
// singleton with a value constructed at push time, per the
// re-architecture guidance in spec.md §9.
type LValue struct {
	Cursor LCursor
}

func (LValue) Kind() ValueKind { return KindLValue }
func (l LValue) Dump() string  { return "&" + l.Cursor.Dump() }

// LCursor is implemented by each lvalue flavor: a variable slot, an
// array/mapping/class index, a string byte index, or a range.
type LCursor interface {
	Get() Value
	Set(Value) error
	Dump() string
}

// VarSlotCursor addresses a local or global variable slot directly.
type VarSlotCursor struct {
	Slot *Value
}

func (c VarSlotCursor) Get() Value { return Resolve(c.Slot) }
func (c VarSlotCursor) Set(v Value) error {
	*c.Slot = v
	return nil
}
func (c VarSlotCursor) Dump() string { return "slot" }

// Resolve implements the destructed-object read barrier: reading
// through a slot that holds a reference to a destructed object yields
// 0u (UndefinedZero) and rewrites the slot to 0u so subsequent reads
// stay O(1).
func Resolve(slot *Value) Value {
	if slot == nil {
		return UndefinedZero()
	}
	if obj, ok := (*slot).(*ObjectRef); ok {
		if obj.Obj == nil || obj.Obj.Destructed {
			*slot = UndefinedZero()
			return *slot
		}
	}
	return *slot
}
