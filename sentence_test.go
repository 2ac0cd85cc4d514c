package lpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRecordingCallback assembles `mixed record(mixed input, mixed
// carry) { result = ({ input, carry }); return 0; }` against a single
// global variable, so a test can observe exactly what arguments
// DeliverInput invoked the callback with.
func buildRecordingCallback() *Program {
	var a asmBuilder
	a.op(OpGlobalLV).u16(0)
	a.op(OpLocal).u8(0)
	a.op(OpLocal).u8(1)
	a.op(OpAggregate).u32(2)
	a.op(OpAssign)
	a.op(OpReturnZero)

	prog := NewProgram("/callback")
	prog.Code = a.code
	prog.Variables = []string{"result"}
	prog.Functions = []FuncEntry{
		{Name: "record", Entry: 0, NumArg: 2, NumLocal: 2},
	}
	return prog
}

func TestInputToCarryoverOrdering(t *testing.T) {
	t.Run("the delivered input precedes the frozen carryover argument", func(t *testing.T) {
		vm := testVM()
		prog := buildRecordingCallback()
		ob := NewObject("player#0", prog)
		ob.Ref() // baseline hold, so the sentence's drop below doesn't free ob
		idx, ok := prog.FunctionByName("record")
		require.True(t, ok)
		fp := &FuncPtr{FKind: FuncLocalLfun, Owner: ob, LfunIndex: idx}
		ob.Ref() // pins ob for the FuncPtr, mirroring NewObjectRef's pin-on-construction

		vm.InputTo(ob, fp, false, []Value{NewMallocString("marker")})

		delivered, err := vm.DeliverInput(ob, "hello")
		require.NoError(t, err)
		assert.True(t, delivered)

		arr, ok := ob.Vars[0].(*Array)
		require.True(t, ok)
		require.Len(t, arr.Items, 2)
		assert.Equal(t, "hello", arr.Items[0].(*String).Value())
		assert.Equal(t, "marker", arr.Items[1].(*String).Value())
	})

	t.Run("the newest registered sentence is consumed first", func(t *testing.T) {
		ob := NewObject("player#0", NewProgram("/player"))
		first := &FuncPtr{FKind: FuncLocalLfun, Owner: ob}
		second := &FuncPtr{FKind: FuncLocalLfun, Owner: ob}

		ob.PushSentence(first, false, false, nil)
		ob.PushSentence(second, false, false, nil)

		popped := ob.PopSentence()
		assert.Same(t, second, popped.Function)
		popped2 := ob.PopSentence()
		assert.Same(t, first, popped2.Function)
		assert.Nil(t, ob.PopSentence())
	})

	t.Run("Sentence.Args places the input before the carryover", func(t *testing.T) {
		s := &Sentence{Carryover: []Value{NewInt(1), NewInt(2)}}
		args := s.Args(NewMallocString("line"))
		require.Len(t, args, 3)
		assert.Equal(t, "line", args[0].(*String).Value())
		assert.Equal(t, Int{V: 1}, args[1])
		assert.Equal(t, Int{V: 2}, args[2])
	})

	t.Run("DeliverInput against an object with nothing pending reports false", func(t *testing.T) {
		vm := testVM()
		ob := NewObject("idle#0", NewProgram("/idle"))
		delivered, err := vm.DeliverInput(ob, "whatever")
		require.NoError(t, err)
		assert.False(t, delivered)
	})

	t.Run("get_char delivers the first raw byte as an int", func(t *testing.T) {
		vm := testVM()
		prog := buildRecordingCallback()
		ob := NewObject("player#0", prog)
		ob.Ref() // baseline hold, so the sentence's drop below doesn't free ob
		idx, _ := prog.FunctionByName("record")
		fp := &FuncPtr{FKind: FuncLocalLfun, Owner: ob, LfunIndex: idx}
		ob.Ref() // pins ob for the FuncPtr, mirroring NewObjectRef's pin-on-construction

		vm.GetChar(ob, fp, false, nil)
		delivered, err := vm.DeliverInput(ob, "Yes")
		require.NoError(t, err)
		assert.True(t, delivered)

		arr, ok := ob.Vars[0].(*Array)
		require.True(t, ok)
		assert.Equal(t, Int{V: int64('Y')}, arr.Items[0])
	})
}
