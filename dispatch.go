package lpc

// dispatch.go implements spec.md §4.2 "Call mechanics": setupNewFrame
// (reached directly, through callLocal, or through callInherited) and
// setupFakeFrame, the ways a call can push a control-stack frame and
// redirect the interpreter into a callee's bytecode.

// callLocal dispatches F_CALL_FUNCTION_BY_ADDRESS: idx is a runtime
// function index into the current object's own (already flattened)
// function table.
func (vm *VM) callLocal(idx, nargs int) error {
	prog, defIdx := vm.CurrentProgram.Defining(idx)
	fe := prog.Functions[defIdx]
	if fe.Is(FlagUndefined) {
		return newRuntimeError("undefined function called")
	}
	return vm.setupNewFrame(prog, defIdx, fe, nargs, false, vm.CurrentObject)
}

// callInherited dispatches F_CALL_INHERITED (`::name()`), walking one
// explicit inherit edge before resolving to the defining program and
// handing the call to setupNewFrame.
func (vm *VM) callInherited(inheritIdx, funcIdx, nargs int) error {
	if inheritIdx < 0 || inheritIdx >= len(vm.CurrentProgram.Inherits) {
		return newRuntimeError("bad inherit index %d", inheritIdx)
	}
	parent := vm.CurrentProgram.Inherits[inheritIdx].Program
	prog, defIdx := parent.Defining(funcIdx)
	fe := prog.Functions[defIdx]
	return vm.setupNewFrame(prog, defIdx, fe, nargs, false, vm.CurrentObject)
}

// setupNewFrame pushes the caller's linkage, switches the VM to the
// callee's program and object, reserves stack slots for declared
// locals beyond the arguments already pushed by the caller, and jumps
// PC to the function's entry point. external marks the frame as the
// boundary of a natively initiated call (apply/call_function_pointer)
// so doReturn hands control back to Go instead of resuming bytecode.
func (vm *VM) setupNewFrame(prog *Program, funcIdx int, fe FuncEntry, nargs int, external bool, newObject *Object) error {
	if fe.Inherited {
		internalInvariant("setupNewFrame given an unresolved inherited entry")
	}

	frame := Frame{
		Kind:          FrameFunction,
		External:      external,
		CallerPC:      vm.PC,
		CallerFP:      vm.FP,
		CallerProgram: vm.CurrentProgram,
		CallerObject:  vm.CurrentObject,
		PrevObject:    vm.PreviousObject,
		LocalCount:    fe.NumLocal,
	}
	if err := vm.Control.Push(frame); err != nil {
		return err
	}

	vm.PreviousObject = vm.CurrentObject
	vm.CurrentObject = newObject
	vm.CurrentProgram = prog
	vm.FP = vm.SP - nargs

	if !fe.Is(FlagTrueVarargs) {
		for vm.SP-vm.FP < fe.NumArg {
			vm.mustPush(NewInt(0))
		}
	}
	for i := vm.SP - vm.FP; i < fe.NumLocal; i++ {
		vm.mustPush(UndefinedZero())
	}

	vm.PC = fe.Entry
	return nil
}

// setupFakeFrame implements the `function pointer to a functional`
// call path: the closure's bytecode runs with CurrentObject switched
// to its declared Owner, but the control-stack frame records
// FakeOwner so backtraces and origin-sensitive efuns (like
// previous_object) attribute the call to the pointer's creator.
func (vm *VM) setupFakeFrame(fp *FuncPtr, args []Value, external bool) error {
	owner := fp.Owner
	if owner == nil || owner.Destructed {
		return newRuntimeError("function pointer's owning object has been destructed")
	}
	prog, defIdx := fp.Prog.Defining(fp.Entry)
	fe := prog.Functions[defIdx]

	for _, a := range fp.Bound {
		RefValue(a)
		vm.mustPush(a)
	}
	for _, a := range args {
		vm.mustPush(a)
	}
	nargs := len(fp.Bound) + len(args)

	frame := Frame{
		Kind:          FrameFake,
		External:      external,
		CallerPC:      vm.PC,
		CallerFP:      vm.FP,
		CallerProgram: vm.CurrentProgram,
		CallerObject:  vm.CurrentObject,
		PrevObject:    vm.PreviousObject,
		LocalCount:    fe.NumLocal,
		FakeOwner:     owner,
	}
	if err := vm.Control.Push(frame); err != nil {
		return err
	}

	vm.PreviousObject = vm.CurrentObject
	vm.CurrentObject = owner
	vm.CurrentProgram = prog
	vm.FP = vm.SP - nargs
	for i := vm.SP - vm.FP; i < fe.NumLocal; i++ {
		vm.mustPush(UndefinedZero())
	}
	vm.PC = fe.Entry
	return nil
}

// doReturn unwinds to the nearest non-catch frame (any still-open
// catch frames below the function's own return point had their
// F_END_CATCH skipped by an early return, so they are discarded here
// along with their saved context), discards the callee's locals, and
// restores the caller's PC/FP/program/object. The boolean result
// reports whether the popped frame was an external call boundary,
// signalling Run's caller to stop instead of resuming bytecode.
func (vm *VM) doReturn(rv Value) (bool, error) {
	for vm.Control.Len() > 0 && vm.Control.Top().Kind == FrameCatch {
		f := vm.Control.Pop()
		vm.PopContext(f.SavedContext)
	}
	if vm.Control.Len() == 0 {
		return true, nil
	}
	f := vm.Control.Pop()

	for vm.SP > vm.FP {
		vm.popDiscard()
	}

	vm.PC = f.CallerPC
	vm.FP = f.CallerFP
	vm.CurrentProgram = f.CallerProgram
	vm.CurrentObject = f.CallerObject
	vm.PreviousObject = f.PrevObject

	if f.External {
		return true, nil
	}
	vm.mustPush(rv)
	return false, nil
}

// CallFunctionPointer implements call_function_pointer's native half:
// dispatch by FuncPtr.FKind to a local/inherited function call, an
// efun, a simul_efun, or a functional's fake frame, then run to
// completion of that one call.
func (vm *VM) CallFunctionPointer(fp *FuncPtr, args []Value) (Value, error) {
	if !fp.CallableOwnerLive() {
		return nil, newRuntimeError("function pointer's object has been destructed")
	}

	switch fp.FKind {
	case FuncLocalLfun:
		for _, a := range args {
			vm.mustPush(a)
		}
		prog, defIdx := fp.Owner.Program.Defining(fp.LfunIndex)
		fe := prog.Functions[defIdx]
		if err := vm.setupNewFrame(prog, defIdx, fe, len(args), true, fp.Owner); err != nil {
			return nil, err
		}
		return vm.Run()

	case FuncEfun:
		return vm.Efuns.Call(vm, fp.EfunIndex, args)

	case FuncSimulEfun:
		if vm.SimulEfuns == nil {
			return nil, newUncatchableError("no simul_efun object configured")
		}
		target, ok := vm.SimulEfuns.LookupIndex(fp.SimulIndex)
		if !ok {
			return nil, newRuntimeError("simul_efun not found")
		}
		return vm.CallFunctionPointer(target, args)

	case FuncFunctional, FuncAnonymous:
		if err := vm.setupFakeFrame(fp, args, true); err != nil {
			return nil, err
		}
		return vm.Run()
	}
	return nil, newUncatchableError("unknown function pointer kind")
}
