package lpc

// api.go is the embedding driver's entry surface into the core
// (spec.md §6.2): the handful of functions a scheduler, a comm layer,
// or an efun implementation actually calls, as opposed to the
// internals of interp.go/dispatch.go they call down into.

// CallProgram invokes one function of ob by name with a fresh eval
// cost budget, the entry point used for reset()/create()/heart_beat()
// and every other externally initiated call into mudlib code.
func (vm *VM) CallProgram(ob *Object, funcName string, args []Value) (Value, error) {
	vm.ResetEvalCost()
	return vm.Apply(ob, funcName, args)
}

// Apply calls a named function on ob without resetting the eval cost
// budget, used internally by efuns that make a sub-call on the
// caller's own budget (spec.md "apply").
func (vm *VM) Apply(ob *Object, funcName string, args []Value) (Value, error) {
	if ob == nil || ob.Destructed {
		return nil, newRuntimeError("apply to a destructed object")
	}
	idx, ok := ob.Program.FunctionByName(funcName)
	if !ok {
		return UndefinedZero(), nil
	}
	prog, defIdx := ob.Program.Defining(idx)
	fe := prog.Functions[defIdx]
	for _, a := range args {
		vm.mustPush(a)
	}
	if err := vm.setupNewFrame(prog, defIdx, fe, len(args), true, ob); err != nil {
		return nil, err
	}
	return vm.Run()
}

// SafeApply calls Apply but never returns an error: a missing
// function, a destructed object, or a runtime error during the call
// all collapse to 0, the way apply() in the reference driver is
// documented to behave for optional hooks.
func (vm *VM) SafeApply(ob *Object, funcName string, args []Value) Value {
	res, err := vm.Apply(ob, funcName, args)
	if err != nil {
		return UndefinedZero()
	}
	return res
}

// ApplyMasterObject invokes a named hook on the configured master
// object, used for compile errors, runtime errors, and connection
// events that don't belong to any one mudlib object.
func (vm *VM) ApplyMasterObject(hook string, args []Value) Value {
	if vm.Master == nil {
		return UndefinedZero()
	}
	return vm.SafeApply(vm.Master.Object(), hook, args)
}

// SafeCallFunctionPointer is CallFunctionPointer with the same
// never-errors contract as SafeApply, for efuns like map/filter/sort_array
// that must keep iterating even if one callback fails.
func (vm *VM) SafeCallFunctionPointer(fp *FuncPtr, args []Value) Value {
	res, err := vm.CallFunctionPointer(fp, args)
	if err != nil {
		return UndefinedZero()
	}
	return res
}

// RuntimeErrorf builds the catchable error value an efun implementation
// returns to signal a bad argument or other ordinary failure; the
// interpreter routes it through unwindToCatch exactly like an
// in-language runtime error (spec.md §7).
func RuntimeErrorf(format string, args ...any) error {
	return newRuntimeError(format, args...)
}

// ThrowValue builds the error value backing the `throw()` efun,
// carrying an arbitrary LPC value instead of a message.
func ThrowValue(v Value) error {
	return &ThrownValue{Value: v}
}

// SetBufferBit is the efun-facing set_bit: it enforces
// __MAX_BITFIELD_BITS__ before delegating to Buffer.SetBit, the bound
// spec.md §6.4 documents as "upper bound for set_bit positions."
func (vm *VM) SetBufferBit(b *Buffer, pos int) error {
	if pos >= vm.Config.GetInt(ConfigMaxBitfieldBits) {
		return newRuntimeError("set_bit: bit position %d exceeds __MAX_BITFIELD_BITS__", pos)
	}
	return b.SetBit(pos)
}

// InputTo registers fn as ob's next pending line-input callback
// (spec.md §4.5 input_to).
func (vm *VM) InputTo(ob *Object, fn *FuncPtr, noEcho bool, carry []Value) {
	RefValue(fn)
	ob.PushSentence(fn, false, noEcho, carry)
}

// GetChar registers fn as ob's next pending single-character callback
// (spec.md §4.5 get_char).
func (vm *VM) GetChar(ob *Object, fn *FuncPtr, noEcho bool, carry []Value) {
	RefValue(fn)
	ob.PushSentence(fn, true, noEcho, carry)
}

// DeliverInput feeds one line (or, for get_char, one raw byte) of
// player input to ob's front-most pending sentence, if any, invoking
// its callback with the (input, *carryover) argument order (spec.md
// §4.5). Reports whether a sentence was actually pending.
func (vm *VM) DeliverInput(ob *Object, input string) (bool, error) {
	s := ob.PopSentence()
	if s == nil {
		return false, nil
	}
	var inputVal Value
	if s.SingleChar {
		if len(input) == 0 {
			return true, nil
		}
		inputVal = NewInt(int64(input[0]))
	} else {
		inputVal = NewMallocString(input)
	}
	_, err := vm.CallFunctionPointer(s.Function, s.Args(inputVal))
	UnrefValue(s.Function)
	return true, err
}
