package lpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassIndexCursor(t *testing.T) {
	def := &ClassDef{Name: "point", Members: []string{"x", "y"}}

	t.Run("member lookup by name resolves to its slot index", func(t *testing.T) {
		c := NewClass(def, []Value{NewInt(1), NewInt(2)})
		assert.Equal(t, 0, c.MemberIndex("x"))
		assert.Equal(t, 1, c.MemberIndex("y"))
		assert.Equal(t, -1, c.MemberIndex("z"))
	})

	t.Run("Get/Set address a single member slot", func(t *testing.T) {
		c := NewClass(def, []Value{NewInt(1), NewInt(2)})
		cur := ClassIndexCursor{Cls: c, Idx: 1}
		assert.Equal(t, Int{V: 2}, cur.Get())

		require.NoError(t, cur.Set(NewInt(99)))
		assert.Equal(t, Int{V: 99}, c.Items[1])
	})

	t.Run("out-of-bounds Get returns undefined zero, Set errors", func(t *testing.T) {
		c := NewClass(def, []Value{NewInt(1), NewInt(2)})
		cur := ClassIndexCursor{Cls: c, Idx: 5}
		assert.True(t, Undefinedp(cur.Get()))
		assert.Error(t, cur.Set(NewInt(1)))
	})

	t.Run("Unref at zero releases member values", func(t *testing.T) {
		inner := NewArray([]Value{NewInt(1)})
		inner.Ref()
		c := NewClass(def, []Value{inner, NewInt(0)})
		c.Ref()
		c.Unref()
		assert.Equal(t, int32(0), inner.ref)
	})
}

func TestBuffer(t *testing.T) {
	t.Run("SetBit grows the backing array as needed", func(t *testing.T) {
		b := NewBuffer(nil)
		require.NoError(t, b.SetBit(17))
		assert.Equal(t, 3, len(b.Bytes))
		assert.True(t, b.TestBit(17))
		assert.False(t, b.TestBit(16))
	})

	t.Run("ClearBit beyond current size is a silent no-op", func(t *testing.T) {
		b := NewBuffer([]byte{0x01})
		b.ClearBit(40)
		assert.Equal(t, []byte{0x01}, b.Bytes)
	})

	t.Run("ClearBit within range clears exactly that bit", func(t *testing.T) {
		b := NewBuffer([]byte{0xFF})
		b.ClearBit(0)
		assert.False(t, b.TestBit(0))
		assert.True(t, b.TestBit(1))
	})

	t.Run("SetBit rejects a negative position", func(t *testing.T) {
		b := NewBuffer(nil)
		assert.Error(t, b.SetBit(-1))
	})

	t.Run("BufferIndexCursor reads and writes a single byte", func(t *testing.T) {
		b := NewBuffer([]byte{10, 20, 30})
		cur := BufferIndexCursor{Buf: b, Idx: 1}
		assert.Equal(t, Int{V: 20}, cur.Get())

		require.NoError(t, cur.Set(NewInt(55)))
		assert.Equal(t, byte(55), b.Bytes[1])

		assert.Error(t, cur.Set(NewMallocString("nope")))
	})

	t.Run("BufferIndexCursor out of bounds", func(t *testing.T) {
		b := NewBuffer([]byte{1})
		cur := BufferIndexCursor{Buf: b, Idx: 9}
		assert.True(t, Undefinedp(cur.Get()))
		assert.Error(t, cur.Set(NewInt(1)))
	})
}

func TestStringTable(t *testing.T) {
	t.Run("make_shared_string interns, find_string sees it thereafter", func(t *testing.T) {
		tbl := NewStringTable()
		assert.Nil(t, tbl.FindString("hi"))

		s1 := tbl.MakeSharedString("hi")
		require.NotNil(t, s1)
		assert.Equal(t, StringShared, s1.Subtype)
		assert.Equal(t, 1, tbl.Size())

		s2 := tbl.FindString("hi")
		require.NotNil(t, s2)
		assert.Equal(t, "hi", s2.Value())
	})

	t.Run("release drops the entry once its refcount reaches zero", func(t *testing.T) {
		tbl := NewStringTable()
		s := tbl.MakeSharedString("bye")
		tbl.release(s.interned)
		assert.Equal(t, 0, tbl.Size())
		assert.Nil(t, tbl.FindString("bye"))
	})

	t.Run("a second intern of the same text bumps the existing entry's ref", func(t *testing.T) {
		tbl := NewStringTable()
		tbl.MakeSharedString("dup")
		tbl.MakeSharedString("dup")
		assert.Equal(t, 1, tbl.Size())
		e := tbl.entries["dup"]
		assert.Equal(t, int32(2), e.ref)
	})
}

func TestControlStack(t *testing.T) {
	t.Run("push/pop preserves LIFO order", func(t *testing.T) {
		s := NewControlStack(4)
		require.NoError(t, s.Push(Frame{CallerPC: 1}))
		require.NoError(t, s.Push(Frame{CallerPC: 2}))
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, 2, s.Top().CallerPC)

		top := s.Pop()
		assert.Equal(t, 2, top.CallerPC)
		assert.Equal(t, 1, s.Top().CallerPC)
	})

	t.Run("Push beyond max reports too-deep-recursion", func(t *testing.T) {
		s := NewControlStack(1)
		require.NoError(t, s.Push(Frame{}))
		err := s.Push(Frame{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too deep recursion")
	})

	t.Run("Top on an empty stack is nil", func(t *testing.T) {
		s := NewControlStack(2)
		assert.Nil(t, s.Top())
	})

	t.Run("TruncateTo unwinds to a saved depth", func(t *testing.T) {
		s := NewControlStack(4)
		require.NoError(t, s.Push(Frame{CallerPC: 1}))
		require.NoError(t, s.Push(Frame{CallerPC: 2}))
		require.NoError(t, s.Push(Frame{CallerPC: 3}))
		s.TruncateTo(1)
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, 1, s.Top().CallerPC)
	})
}
