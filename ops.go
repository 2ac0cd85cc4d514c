package lpc

import "fmt"

// arith implements the five arithmetic opcodes over the svalue
// combinations spec.md §4.2 requires: int/int, float mixed with
// either operand, string+string and string+number concatenation
// (either order, the number rendered by its Dump) for `+`,
// array+array concatenation for `+`, and mapping+mapping merge for `+`.
func arith(op Opcode, a, b Value) (Value, error) {
	switch op {
	case OpAdd:
		return addValues(a, b)
	case OpSub:
		return numeric(op, a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
	case OpMul:
		return numeric(op, a, b, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
	case OpDiv:
		return divValues(a, b)
	case OpMod:
		return modValues(a, b)
	}
	return nil, fmt.Errorf("not an arithmetic opcode: %v", op)
}

func addValues(a, b Value) (Value, error) {
	switch av := a.(type) {
	case Int:
		switch bv := b.(type) {
		case Int:
			return NewInt(av.V + bv.V), nil
		case Float:
			return NewFloat(float64(av.V) + bv.V), nil
		case *String:
			return NewMallocString(av.Dump() + bv.Value()), nil
		}
	case Float:
		switch bv := b.(type) {
		case Int:
			return NewFloat(av.V + float64(bv.V)), nil
		case Float:
			return NewFloat(av.V + bv.V), nil
		case *String:
			return NewMallocString(av.Dump() + bv.Value()), nil
		}
	case *String:
		switch bv := b.(type) {
		case *String:
			return NewMallocString(av.Value() + bv.Value()), nil
		case Int, Float:
			return NewMallocString(av.Value() + bv.Dump()), nil
		}
		return nil, newRuntimeError("bad argument to +: string + %v", b.Kind())
	case *Array:
		bArr, ok := b.(*Array)
		if !ok {
			return nil, newRuntimeError("bad argument to +: array + %v", b.Kind())
		}
		return av.Concat(bArr), nil
	case *Mapping:
		bMap, ok := b.(*Mapping)
		if !ok {
			return nil, newRuntimeError("bad argument to +: mapping + %v", b.Kind())
		}
		return av.Merge(bMap)
	}
	return nil, newRuntimeError("bad argument types to +: %v, %v", a.Kind(), b.Kind())
}

func numeric(op Opcode, a, b Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (Value, error) {
	ai, aIsInt := a.(Int)
	bi, bIsInt := b.(Int)
	if aIsInt && bIsInt {
		return NewInt(intOp(ai.V, bi.V)), nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError("bad argument types to %v: %v, %v", op, a.Kind(), b.Kind())
	}
	return NewFloat(floatOp(af, bf)), nil
}

func asFloat(v Value) (float64, bool) {
	switch t := v.(type) {
	case Int:
		return float64(t.V), true
	case Float:
		return t.V, true
	}
	return 0, false
}

func divValues(a, b Value) (Value, error) {
	if ai, ok := a.(Int); ok {
		if bi, ok := b.(Int); ok {
			if bi.V == 0 {
				return nil, newRuntimeError("division by zero")
			}
			return NewInt(ai.V / bi.V), nil
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError("bad argument types to /: %v, %v", a.Kind(), b.Kind())
	}
	if bf == 0 {
		return nil, newRuntimeError("division by zero")
	}
	return NewFloat(af / bf), nil
}

func modValues(a, b Value) (Value, error) {
	ai, aok := a.(Int)
	bi, bok := b.(Int)
	if !aok || !bok {
		return nil, newRuntimeError("bad argument types to %%: %v, %v", a.Kind(), b.Kind())
	}
	if bi.V == 0 {
		return nil, newRuntimeError("modulo by zero")
	}
	return NewInt(ai.V % bi.V), nil
}

// compare implements the five comparison opcodes. == honors
// valueEqual's identity semantics for heap types; ordering comparisons
// require numeric or string operands on both sides.
func compare(op Opcode, a, b Value) (Value, error) {
	if op == OpEq {
		if valueEqual(a, b) {
			return NewInt(1), nil
		}
		return NewInt(0), nil
	}

	if as, aok := a.(*String); aok {
		bs, bok := b.(*String)
		if !bok {
			return nil, newRuntimeError("bad argument types to comparison: %v, %v", a.Kind(), b.Kind())
		}
		return boolInt(stringCompare(op, as.Value(), bs.Value())), nil
	}

	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError("bad argument types to comparison: %v, %v", a.Kind(), b.Kind())
	}
	switch op {
	case OpLt:
		return boolInt(af < bf), nil
	case OpGt:
		return boolInt(af > bf), nil
	case OpLe:
		return boolInt(af <= bf), nil
	case OpGe:
		return boolInt(af >= bf), nil
	}
	return nil, fmt.Errorf("not a comparison opcode: %v", op)
}

func stringCompare(op Opcode, a, b string) bool {
	switch op {
	case OpLt:
		return a < b
	case OpGt:
		return a > b
	case OpLe:
		return a <= b
	case OpGe:
		return a >= b
	}
	return false
}

func boolInt(v bool) Int {
	if v {
		return NewInt(1)
	}
	return NewInt(0)
}

// indexValue implements F_INDEX/F_RINDEX in rvalue position over
// every indexable container (spec.md §4.2 "Indexing").
func indexValue(container, idx Value, fromEnd bool) (Value, error) {
	i, ok := idx.(Int)
	if !ok {
		return nil, newRuntimeError("index is not an int")
	}
	switch c := container.(type) {
	case *Array:
		n := resolveIndex(i.V, fromEnd, len(c.Items))
		if n < 0 || n >= len(c.Items) {
			return nil, newRuntimeError("array index out of bounds: %d", n)
		}
		return Resolve(&c.Items[n]), nil
	case *Buffer:
		n := resolveIndex(i.V, fromEnd, len(c.Bytes))
		if n < 0 || n >= len(c.Bytes) {
			return nil, newRuntimeError("buffer index out of bounds: %d", n)
		}
		return NewInt(int64(c.Bytes[n])), nil
	case *String:
		n := resolveIndex(i.V, fromEnd, c.Len())
		if n < 0 || n >= c.Len() {
			return nil, newRuntimeError("string index out of bounds: %d", n)
		}
		return NewInt(int64(c.Value()[n])), nil
	case *Class:
		n := resolveIndex(i.V, fromEnd, len(c.Items))
		if n < 0 || n >= len(c.Items) {
			return nil, newRuntimeError("class index out of bounds: %d", n)
		}
		return Resolve(&c.Items[n]), nil
	case *Mapping:
		v, _ := c.Get(idx)
		return v, nil
	}
	return nil, newRuntimeError("value of type %v is not indexable", container.Kind())
}

// resolveIndex turns a possibly negative, possibly from-end index into
// a 0-based forward offset.
func resolveIndex(i int64, fromEnd bool, size int) int {
	n := int(i)
	if fromEnd {
		n = size - n
	}
	return n
}

// indexCursor produces the lvalue cursor for F_INDEX_LV/F_RINDEX_LV.
func indexCursor(container, idx Value, fromEnd bool) (LCursor, error) {
	switch c := container.(type) {
	case *Mapping:
		return MappingKeyCursor{Map: c, Key: idx}, nil
	}
	i, ok := idx.(Int)
	if !ok {
		return nil, newRuntimeError("index is not an int")
	}
	switch c := container.(type) {
	case *Array:
		return ArrayIndexCursor{Arr: c, Idx: resolveIndex(i.V, fromEnd, len(c.Items))}, nil
	case *Buffer:
		return BufferIndexCursor{Buf: c, Idx: resolveIndex(i.V, fromEnd, len(c.Bytes))}, nil
	case *Class:
		return ClassIndexCursor{Cls: c, Idx: resolveIndex(i.V, fromEnd, len(c.Items))}, nil
	case *String:
		return StringByteCursor{Str: c, Idx: resolveIndex(i.V, fromEnd, c.Len())}, nil
	}
	return nil, newRuntimeError("value of type %v is not indexable in lvalue position", container.Kind())
}

// rangeValue implements the `[a..b]` range read; only arrays, strings
// and buffers support range extraction (spec.md §4.2 "Ranges").
func rangeValue(container, lo, hi Value) (Value, error) {
	loI, ok := lo.(Int)
	if !ok {
		return nil, newRuntimeError("range bound is not an int")
	}
	hiI, ok := hi.(Int)
	if !ok {
		return nil, newRuntimeError("range bound is not an int")
	}
	switch c := container.(type) {
	case *Array:
		start, end := clampRange(loI.V, hiI.V, len(c.Items))
		return ArrayRangeCursor{Arr: c, Start: start, End: end}.Get(), nil
	case *String:
		start, end := clampRange(loI.V, hiI.V, c.Len())
		if start > end {
			return NewMallocString(""), nil
		}
		return NewMallocString(c.Value()[start : end+1]), nil
	case *Buffer:
		start, end := clampRange(loI.V, hiI.V, len(c.Bytes))
		if start > end {
			return NewBuffer(nil), nil
		}
		out := make([]byte, end-start+1)
		copy(out, c.Bytes[start:end+1])
		return NewBuffer(out), nil
	}
	return nil, newRuntimeError("value of type %v does not support ranges", container.Kind())
}

// rangeCursor produces the lvalue cursor for a range in assignment
// position; only arrays support growing/shrinking range assignment.
func rangeCursor(container, lo, hi Value) (LCursor, error) {
	loI, ok := lo.(Int)
	if !ok {
		return nil, newRuntimeError("range bound is not an int")
	}
	hiI, ok := hi.(Int)
	if !ok {
		return nil, newRuntimeError("range bound is not an int")
	}
	arr, ok := container.(*Array)
	if !ok {
		return nil, newRuntimeError("only arrays support range assignment, got %v", container.Kind())
	}
	start, end := clampRange(loI.V, hiI.V, len(arr.Items))
	return ArrayRangeCursor{Arr: arr, Start: start, End: end}, nil
}

func clampRange(lo, hi int64, size int) (int, int) {
	start := int(lo)
	end := int(hi)
	if start < 0 {
		start += size
	}
	if end < 0 {
		end += size
	}
	if start < 0 {
		start = 0
	}
	if end >= size {
		end = size - 1
	}
	return start, end
}

// StringByteCursor addresses a single byte of a Malloc string in
// lvalue position, enforcing the no-embedded-NUL rule (spec.md §4.2
// "char lvalue assignment of 0 is forbidden").
type StringByteCursor struct {
	Str *String
	Idx int
}

func (c StringByteCursor) Get() Value {
	if c.Idx < 0 || c.Idx >= c.Str.Len() {
		return UndefinedZero()
	}
	return NewInt(int64(c.Str.Value()[c.Idx]))
}

func (c StringByteCursor) Set(v Value) error {
	iv, ok := v.(Int)
	if !ok {
		return newRuntimeError("char lvalue assignment requires an int")
	}
	if c.Idx < 0 || c.Idx >= c.Str.Len() {
		return newRuntimeError("string index out of bounds: %d", c.Idx)
	}
	return c.Str.MutateByte(c.Idx, byte(iv.V))
}

func (c StringByteCursor) Dump() string { return fmt.Sprintf("str[%d]", c.Idx) }
