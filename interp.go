package lpc

import (
	"encoding/binary"
	"math"
)

func decodeI32(b []byte) int32  { return int32(binary.BigEndian.Uint32(b)) }
func decodeU32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func decodeU16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func decodeI64(b []byte) int64  { return int64(binary.BigEndian.Uint64(b)) }
func decodeF64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// Run executes vm.CurrentProgram's code starting at vm.PC until a
// return pops back past the external call boundary, mirroring the
// teacher's Match loop: a `code:`/`fail:` label pair instead of a
// helper call for the backtrack (here: catch/throw) path.
func (vm *VM) Run() (Value, error) {
code:
	for {
		if vm.EvalCost <= 0 {
			vm.pendingErr = newUncatchableError("too long evaluation time")
			goto fail
		}
		code := vm.CurrentProgram.Code
		op := Opcode(code[vm.PC])
		vm.EvalCost--

		switch op {
		case OpHalt:
			return nil, nil

		case OpPushZero:
			vm.mustPush(NewInt(0))
			vm.PC++

		case OpPushInt:
			v := decodeI64(code[vm.PC+1:])
			vm.mustPush(NewInt(v))
			vm.PC += SizeOf(op)

		case OpPushFloat:
			v := decodeF64(code[vm.PC+1:])
			vm.mustPush(NewFloat(v))
			vm.PC += SizeOf(op)

		case OpPushString:
			idx := decodeU32(code[vm.PC+1:])
			s := vm.CurrentProgram.Strings[idx]
			vm.mustPush(NewConstantString(s))
			vm.PC += SizeOf(op)

		case OpLocal:
			idx := int(code[vm.PC+1])
			vm.mustPush(Resolve(vm.LocalSlot(idx)))
			vm.PC += SizeOf(op)

		case OpGlobal:
			idx := int(decodeU16(code[vm.PC+1:]))
			vm.mustPush(Resolve(vm.GlobalSlot(idx)))
			vm.PC += SizeOf(op)

		case OpLocalLV:
			idx := int(code[vm.PC+1])
			vm.mustPush(LValue{Cursor: VarSlotCursor{Slot: vm.LocalSlot(idx)}})
			vm.PC += SizeOf(op)

		case OpGlobalLV:
			idx := int(decodeU16(code[vm.PC+1:]))
			vm.mustPush(LValue{Cursor: VarSlotCursor{Slot: vm.GlobalSlot(idx)}})
			vm.PC += SizeOf(op)

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			b := vm.Pop()
			a := vm.Pop()
			res, err := arith(op, a, b)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(res)
			vm.PC += SizeOf(op)

		case OpEq, OpLt, OpGt, OpLe, OpGe:
			b := vm.Pop()
			a := vm.Pop()
			res, err := compare(op, a, b)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(res)
			vm.PC += SizeOf(op)

		case OpIndex, OpRIndex:
			idx := vm.Pop()
			container := vm.Pop()
			v, err := indexValue(container, idx, op == OpRIndex)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(v)
			vm.PC += SizeOf(op)

		case OpIndexLV, OpRIndexLV:
			idx := vm.Pop()
			container := vm.Pop()
			cur, err := indexCursor(container, idx, op == OpRIndexLV)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(LValue{Cursor: cur})
			vm.PC += SizeOf(op)

		case OpRange:
			hi := vm.Pop()
			lo := vm.Pop()
			container := vm.Pop()
			v, err := rangeValue(container, lo, hi)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(v)
			vm.PC += SizeOf(op)

		case OpRangeLV:
			hi := vm.Pop()
			lo := vm.Pop()
			container := vm.Pop()
			cur, err := rangeCursor(container, lo, hi)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(LValue{Cursor: cur})
			vm.PC += SizeOf(op)

		case OpJmp:
			off := decodeI32(code[vm.PC+1:])
			vm.PC += int(off)

		case OpJz:
			off := decodeI32(code[vm.PC+1:])
			v := vm.Pop()
			if isFalsy(v) {
				vm.PC += int(off)
			} else {
				vm.PC += SizeOf(op)
			}

		case OpJnz:
			off := decodeI32(code[vm.PC+1:])
			v := vm.Pop()
			if !isFalsy(v) {
				vm.PC += int(off)
			} else {
				vm.PC += SizeOf(op)
			}

		case OpLoopCondLt:
			off := decodeI32(code[vm.PC+1:])
			b := vm.Pop()
			a := vm.Pop()
			res, err := compare(OpLt, a, b)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			if isFalsy(res) {
				vm.PC += int(off)
			} else {
				vm.PC += SizeOf(op)
			}

		case OpLoopIncr:
			top := vm.Top()
			i, ok := top.(Int)
			if !ok {
				vm.pendingErr = newRuntimeError("loop counter is not an int")
				goto fail
			}
			vm.Stack[vm.SP-1] = NewInt(i.V + 1)
			vm.PC += SizeOf(op)

		case OpWhileDec:
			off := decodeI32(code[vm.PC+1:])
			top := vm.Top()
			i, ok := top.(Int)
			if !ok || i.V <= 0 {
				vm.Pop()
				vm.PC += SizeOf(op)
				continue code
			}
			vm.Stack[vm.SP-1] = NewInt(i.V - 1)
			vm.PC += int(off)

		case OpAggregate:
			n := int(decodeU32(code[vm.PC+1:]))
			items := make([]Value, n)
			copy(items, vm.Stack[vm.SP-n:vm.SP])
			vm.SP -= n
			vm.mustPush(NewArray(items))
			vm.PC += SizeOf(op)

		case OpAggregateAssoc:
			n := int(decodeU32(code[vm.PC+1:]))
			m := NewMapping(vm.Config.GetInt(ConfigMaxMappingSize))
			base := vm.SP - n*2
			for i := 0; i < n; i++ {
				k := vm.Stack[base+i*2]
				v := vm.Stack[base+i*2+1]
				m.Set(k, v)
			}
			vm.SP = base
			vm.mustPush(m)
			vm.PC += SizeOf(op)

		case OpNewClass, OpNewEmptyClass:
			idx := int(decodeU32(code[vm.PC+1:]))
			name := vm.CurrentProgram.Strings[idx]
			def, ok := vm.CurrentProgram.Classes[name]
			if !ok {
				vm.pendingErr = newRuntimeError("undefined class %q", name)
				goto fail
			}
			var items []Value
			if op == OpNewClass {
				n := len(def.Members)
				items = make([]Value, n)
				copy(items, vm.Stack[vm.SP-n:vm.SP])
				vm.SP -= n
			} else {
				items = make([]Value, len(def.Members))
				for i := range items {
					items[i] = UndefinedZero()
				}
			}
			vm.mustPush(NewClass(def, items))
			vm.PC += SizeOf(op)

		case OpForeach:
			nvars := int(decodeU32(code[vm.PC+1:]))
			coll := vm.Pop()
			cur, err := newForeachCursor(coll, nvars)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(cur)
			vm.PC += SizeOf(op)

		case OpNextForeach:
			off := decodeI32(code[vm.PC+1:])
			cur, ok := vm.Top().(*foreachCursor)
			if !ok {
				vm.pendingErr = newRuntimeError("next_foreach without a pending cursor")
				goto fail
			}
			vals, more := cur.next()
			if !more {
				vm.Pop()
				vm.PC += int(off)
				continue code
			}
			for _, v := range vals {
				vm.mustPush(v)
			}
			vm.PC += SizeOf(op)

		case OpExitForeach:
			vm.PC += SizeOf(op)

		case OpCallFunctionByAddress:
			idx := int(decodeU16(code[vm.PC+1:]))
			nargs := int(code[vm.PC+3])
			// Advance PC past this instruction before transferring
			// control: setupNewFrame saves the *current* vm.PC as the
			// caller's return address, so it must already point at the
			// next instruction, not at this call opcode itself.
			vm.PC += SizeOf(op)
			if err := vm.callLocal(idx, nargs); err != nil {
				vm.pendingErr = err
				goto fail
			}

		case OpCallInherited:
			inheritIdx := int(decodeU16(code[vm.PC+1:]))
			funcIdx := int(decodeU16(code[vm.PC+3:]))
			nargs := int(code[vm.PC+5])
			vm.PC += SizeOf(op)
			if err := vm.callInherited(inheritIdx, funcIdx, nargs); err != nil {
				vm.pendingErr = err
				goto fail
			}

		case OpSimulEfun, OpEfun:
			idx := int(decodeU16(code[vm.PC+1:]))
			nargs := int(code[vm.PC+3])
			args := make([]Value, nargs)
			copy(args, vm.Stack[vm.SP-nargs:vm.SP])
			vm.SP -= nargs
			var res Value
			var err error
			if op == OpEfun {
				res, err = vm.Efuns.Call(vm, idx, args)
			} else if vm.SimulEfuns == nil {
				err = newUncatchableError("no simul_efun object configured")
			} else if target, ok := vm.SimulEfuns.LookupIndex(idx); ok {
				res, err = vm.CallFunctionPointer(target, args)
			} else {
				err = newRuntimeError("simul_efun not found")
			}
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.mustPush(res)
			vm.PC += SizeOf(op)

		case OpAssign, OpVoidAssign:
			rhs := vm.Pop()
			lv := vm.Pop()
			lval, ok := lv.(LValue)
			if !ok {
				vm.pendingErr = newRuntimeError("assignment target is not an lvalue")
				goto fail
			}
			if err := lval.Cursor.Set(rhs); err != nil {
				vm.pendingErr = err
				goto fail
			}
			if op == OpAssign {
				vm.mustPush(rhs)
			}
			vm.PC += SizeOf(op)

		case OpPreInc, OpPostInc, OpPreDec, OpPostDec:
			lv := vm.Pop()
			lval, ok := lv.(LValue)
			if !ok {
				vm.pendingErr = newRuntimeError("increment target is not an lvalue")
				goto fail
			}
			old := lval.Cursor.Get()
			oi, ok := old.(Int)
			if !ok {
				vm.pendingErr = newRuntimeError("increment target is not an int")
				goto fail
			}
			delta := int64(1)
			if op == OpPreDec || op == OpPostDec {
				delta = -1
			}
			newVal := NewInt(oi.V + delta)
			if err := lval.Cursor.Set(newVal); err != nil {
				vm.pendingErr = err
				goto fail
			}
			if op == OpPreInc || op == OpPreDec {
				vm.mustPush(newVal)
			} else {
				vm.mustPush(oi)
			}
			vm.PC += SizeOf(op)

		case OpCatch:
			target := int(decodeU32(code[vm.PC+1:]))
			ec := vm.SaveContext()
			ec.JumpTarget = vm.PC + SizeOf(op)
			if err := vm.Control.Push(Frame{
				Kind:         FrameCatch,
				SavedContext: ec,
				CatchTarget:  vm.PC + target,
			}); err != nil {
				vm.pendingErr = err
				goto fail
			}
			vm.PC += SizeOf(op)

		case OpEndCatch:
			f := vm.Control.Pop()
			vm.PopContext(f.SavedContext)
			vm.popDiscard() // catch()'s guarded expression value is always discarded
			vm.mustPush(NewInt(0))
			vm.PC += SizeOf(op)

		case OpThrow:
			v := vm.Pop()
			vm.pendingErr = &ThrownValue{Value: v}
			goto fail

		case OpExpandVarargs:
			arr := vm.Pop()
			a, ok := arr.(*Array)
			if !ok {
				vm.pendingErr = newRuntimeError("expand_varargs target is not an array")
				goto fail
			}
			for _, item := range a.Items {
				RefValue(item)
				vm.mustPush(item)
			}
			vm.PC += SizeOf(op)

		case OpReturn, OpReturnZero:
			var rv Value
			if op == OpReturn {
				rv = vm.Pop()
			} else {
				rv = NewInt(0)
			}
			done, err := vm.doReturn(rv)
			if err != nil {
				vm.pendingErr = err
				goto fail
			}
			if done {
				return rv, nil
			}

		default:
			internalInvariant("unknown opcode 0x%02x at pc=%d", byte(op), vm.PC)
		}
	}

fail:
	return vm.unwindToCatch()
}

// unwindToCatch implements spec.md §4.6: search the control stack for
// the nearest catch frame, restore its saved context, and resume
// execution at its handler with the error message (or thrown value)
// pushed as the catch expression's result. Uncatchable errors skip
// every catch frame and propagate straight to the external caller,
// matching call_function's contract.
func (vm *VM) unwindToCatch() (Value, error) {
	pending := vm.pendingErr
	vm.pendingErr = nil

	if !isCatchable(pending) {
		return nil, pending
	}

	for vm.Control.Len() > 0 {
		f := vm.Control.Top()
		if f.Kind != FrameCatch {
			vm.Control.Pop()
			continue
		}
		vm.Control.Pop()
		vm.RestoreContext(f.SavedContext)

		var result Value
		if tv, ok := pending.(*ThrownValue); ok {
			result = tv.Value
		} else {
			result = NewConstantString(pending.Error())
		}
		if err := vm.Push(result); err != nil {
			return nil, err
		}
		vm.PC = f.CatchTarget
		return vm.Run()
	}
	return nil, pending
}

func (vm *VM) mustPush(v Value) {
	if err := vm.Push(v); err != nil {
		internalInvariant("%v", err)
	}
}

func isFalsy(v Value) bool {
	switch t := v.(type) {
	case Int:
		return t.V == 0
	case Float:
		return t.V == 0
	case *String:
		return t.Len() == 0
	case *Array:
		return len(t.Items) == 0
	case *ObjectRef:
		return t.Obj == nil || t.Obj.Destructed
	default:
		return v == nil
	}
}
