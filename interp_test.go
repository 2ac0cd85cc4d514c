package lpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAddFunction assembles `int add(int a, int b) { return a + b; }`
// as the sole function of a standalone program.
func buildAddFunction() *Program {
	var a asmBuilder
	a.op(OpLocal).u8(0)
	a.op(OpLocal).u8(1)
	a.op(OpAdd)
	a.op(OpReturn)

	prog := NewProgram("/parent")
	prog.Code = a.code
	prog.Functions = []FuncEntry{
		{Name: "add", Entry: 0, NumArg: 2, NumLocal: 2},
	}
	return prog
}

func TestInheritedCall(t *testing.T) {
	t.Run("child inherits parent's add and resolves through Defining", func(t *testing.T) {
		parent := buildAddFunction()
		child := NewProgram("/child")
		child.Inherits = []Inherit{{Program: parent}}
		child.Functions = []FuncEntry{
			{Name: "add", Inherited: true, InheritIdx: 0, IndexInParent: 0},
		}

		vm := testVM()
		ob := NewObject("child#0", child)

		res, err := vm.Apply(ob, "add", []Value{NewInt(3), NewInt(4)})
		require.NoError(t, err)
		assert.Equal(t, Int{V: 7}, res)
	})
}

// buildCatchDivZero assembles a single no-arg function with one local:
//
//	int create() { local0 = catch(1 / 0); return local0; }
func buildCatchDivZero() *Program {
	var a asmBuilder
	a.op(OpLocalLV).u8(0) // PC 0..1: push lvalue for local 0
	catchAt := len(a.code)
	a.op(OpCatch).u32(0) // placeholder, patched below
	a.op(OpPushInt).i64(1)
	a.op(OpPushInt).i64(0)
	a.op(OpDiv)
	a.op(OpEndCatch)
	target := len(a.code)
	a.op(OpAssign)
	a.op(OpReturn)

	// patch the catch branch offset: relative to the OpCatch instruction
	off := uint32(target - catchAt)
	a.code[catchAt+1] = byte(off >> 24)
	a.code[catchAt+2] = byte(off >> 16)
	a.code[catchAt+3] = byte(off >> 8)
	a.code[catchAt+4] = byte(off)

	prog := NewProgram("/catcher")
	prog.Code = a.code
	prog.Functions = []FuncEntry{
		{Name: "create", Entry: 0, NumArg: 0, NumLocal: 1},
	}
	return prog
}

func TestCatchRuntimeError(t *testing.T) {
	t.Run("catch(1/0) yields the error message as a string", func(t *testing.T) {
		prog := buildCatchDivZero()
		vm := testVM()
		ob := NewObject("catcher#0", prog)

		res, err := vm.CallProgram(ob, "create", nil)
		require.NoError(t, err)
		s, ok := res.(*String)
		require.True(t, ok, "expected a string result, got %T", res)
		assert.Contains(t, s.Value(), "division by zero")
	})

	t.Run("successful catch body returns 0", func(t *testing.T) {
		var a asmBuilder
		a.op(OpLocalLV).u8(0)
		catchAt := len(a.code)
		a.op(OpCatch).u32(0)
		a.op(OpPushInt).i64(1)
		a.op(OpPushInt).i64(1)
		a.op(OpDiv)
		a.op(OpEndCatch)
		target := len(a.code)
		a.op(OpAssign)
		a.op(OpReturn)
		off := uint32(target - catchAt)
		a.code[catchAt+1] = byte(off >> 24)
		a.code[catchAt+2] = byte(off >> 16)
		a.code[catchAt+3] = byte(off >> 8)
		a.code[catchAt+4] = byte(off)

		prog := NewProgram("/catcher2")
		prog.Code = a.code
		prog.Functions = []FuncEntry{{Name: "create", Entry: 0, NumArg: 0, NumLocal: 1}}

		vm := testVM()
		ob := NewObject("catcher2#0", prog)
		res, err := vm.CallProgram(ob, "create", nil)
		require.NoError(t, err)
		assert.Equal(t, Int{V: 0}, res)
	})
}

func TestDestructedObjectReadsAsZero(t *testing.T) {
	t.Run("a global slot holding a destructed object's reference resolves to 0", func(t *testing.T) {
		vm := testVM()
		ownerProg := NewProgram("/owner")
		ownerProg.Variables = []string{"target"}
		owner := NewObject("owner#0", ownerProg)

		targetProg := NewProgram("/target")
		targetProg.Ref() // pairs with the objRefDrop Object.Unref issues on destruct
		target := NewObject("target#0", targetProg)

		owner.Vars[0] = NewObjectRef(target)
		vm.Destruct(target)

		got := Resolve(&owner.Vars[0])
		assert.True(t, Undefinedp(got))
	})
}

// A directly verifiable foreach test: walk the mapping's keys
// via the cursor primitives without relying on hand-patched
// accumulation bytecode, confirming the cursor contract itself.
func TestForeachCursorOverMapping(t *testing.T) {
	t.Run("each of two entries is produced exactly once", func(t *testing.T) {
		m := NewMapping(0)
		require.NoError(t, m.Set(NewMallocString("a"), NewInt(1)))
		require.NoError(t, m.Set(NewMallocString("b"), NewInt(2)))

		cur, err := newForeachCursor(m, 2)
		require.NoError(t, err)

		seen := map[string]int64{}
		for {
			vals, more := cur.next()
			if !more {
				break
			}
			require.Len(t, vals, 2)
			k := vals[0].(*String).Value()
			v := vals[1].(Int).V
			seen[k] = v
		}
		assert.Equal(t, map[string]int64{"a": 1, "b": 2}, seen)
	})

	t.Run("array foreach with one loop variable yields each item once", func(t *testing.T) {
		arr := NewArray([]Value{NewInt(10), NewInt(20), NewInt(30)})
		cur, err := newForeachCursor(arr, 1)
		require.NoError(t, err)

		var got []int64
		for {
			vals, more := cur.next()
			if !more {
				break
			}
			got = append(got, vals[0].(Int).V)
		}
		assert.Equal(t, []int64{10, 20, 30}, got)
	})
}

// TestCallFunctionByAddress exercises OpCallFunctionByAddress end to
// end: `main` pushes two literal args, calls `add` by runtime index,
// then uses add's result. This pins down both defects the bare-bones
// inherited-call test (driven through Apply, which never touches the
// opcode) missed: the call opcode must advance past itself before
// transferring control (so the return address isn't the call
// instruction itself) and must forward the encoded argument count.
func TestCallFunctionByAddress(t *testing.T) {
	t.Run("main calls add(3, 4) by address and adds 1 to the result", func(t *testing.T) {
		var a asmBuilder
		a.op(OpPushInt).i64(3)
		a.op(OpPushInt).i64(4)
		a.op(OpCallFunctionByAddress).u16(1).u8(2)
		a.op(OpPushInt).i64(1)
		a.op(OpAdd)
		a.op(OpReturn)

		addEntry := len(a.code)
		a.op(OpLocal).u8(0)
		a.op(OpLocal).u8(1)
		a.op(OpAdd)
		a.op(OpReturn)

		prog := NewProgram("/caller")
		prog.Code = a.code
		prog.Functions = []FuncEntry{
			{Name: "main", Entry: 0, NumArg: 0, NumLocal: 0},
			{Name: "add", Entry: addEntry, NumArg: 2, NumLocal: 2},
		}

		vm := testVM()
		ob := NewObject("caller#0", prog)
		res, err := vm.CallProgram(ob, "main", nil)
		require.NoError(t, err)
		assert.Equal(t, Int{V: 8}, res)
	})
}

// TestCallInherited exercises OpCallInherited (an explicit `::name()`
// super call): the call's two pushed arguments must survive into the
// parent's add(), not be stranded below FP by a hardcoded nargs=0.
func TestCallInherited(t *testing.T) {
	t.Run("::add(10, 5) forwards both arguments to the parent", func(t *testing.T) {
		parent := buildAddFunction()

		var a asmBuilder
		a.op(OpPushInt).i64(10)
		a.op(OpPushInt).i64(5)
		a.op(OpCallInherited).u16(0).u16(0).u8(2)
		a.op(OpReturn)

		child := NewProgram("/child2")
		child.Code = a.code
		child.Inherits = []Inherit{{Program: parent}}
		child.Functions = []FuncEntry{
			{Name: "main", Entry: 0, NumArg: 0, NumLocal: 0},
		}

		vm := testVM()
		ob := NewObject("child2#0", child)
		res, err := vm.CallProgram(ob, "main", nil)
		require.NoError(t, err)
		assert.Equal(t, Int{V: 15}, res)
	})
}

func TestEvalCostExhaustion(t *testing.T) {
	t.Run("an infinite loop is killed once EvalCost runs out", func(t *testing.T) {
		var a asmBuilder
		a.op(OpJmp).i32(0) // jumps back to its own address: an infinite loop

		prog := NewProgram("/spinner")
		prog.Code = a.code
		prog.Functions = []FuncEntry{{Name: "create", Entry: 0, NumArg: 0, NumLocal: 0}}

		vm := testVM()
		vm.Config.SetInt(ConfigMaxEvalCost, 10)
		vm.ResetEvalCost()
		ob := NewObject("spinner#0", prog)
		_, err := vm.CallProgram(ob, "create", nil)
		require.Error(t, err)
		assert.IsType(t, &UncatchableError{}, err)
	})
}
