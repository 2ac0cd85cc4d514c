package lpc

// VM groups the global process state of spec.md §9 -- sp, fp, csp, pc,
// current_object, previous_object, current_prog, command_giver --
// into a single value threaded through the interpreter, instead of the
// reference driver's set of global C variables.
type VM struct {
	Stack []Value // evaluator stack, preallocated to __EVALUATOR_STACK_SIZE__
	SP    int     // index one past the top of Stack

	Control *ControlStack

	PC  int
	FP  int // frame pointer: base of the current frame's locals within Stack

	CurrentObject  *Object
	PreviousObject *Object
	CurrentProgram *Program
	CommandGiver   *Object

	CurrentContext *ErrorContext
	pendingErr     error // set immediately before every `goto fail` in interp.go

	Config *Config

	EvalCost int // remaining instructions this tick

	Efuns        *EfunRegistry
	SimulEfuns   SimulEfunRegistry
	Master       MasterObject
	Sandbox      PathSandbox
	Comm         CommLayer
	Objects      *ObjectTable
	Strings      *StringTable
}

var errStackOverflow = newUncatchableError("stack full")

func NewVM(cfg *Config) *VM {
	vm := &VM{
		Stack:   make([]Value, cfg.GetInt(ConfigEvaluatorStackSize)),
		Control: NewControlStack(cfg.GetInt(ConfigMaxCallDepth)),
		Config:  cfg,
		Strings: defaultStringTable,
		Objects: NewObjectTable(cfg.GetInt(ConfigLivingHashTableSize)),
	}
	vm.ResetEvalCost()
	return vm
}

// ResetEvalCost refills the per-tick instruction budget; called by the
// outer scheduler before each externally initiated call (spec.md §4.2).
func (vm *VM) ResetEvalCost() {
	vm.EvalCost = vm.Config.GetInt(ConfigMaxEvalCost)
}

func (vm *VM) Push(v Value) error {
	if vm.SP >= len(vm.Stack) {
		return errStackOverflow
	}
	vm.Stack[vm.SP] = v
	vm.SP++
	return nil
}

func (vm *VM) Pop() Value {
	vm.SP--
	v := vm.Stack[vm.SP]
	vm.Stack[vm.SP] = nil
	return v
}

// popDiscard pops and unrefs, used when unwinding the stack without
// needing the value (context restore, frame teardown).
func (vm *VM) popDiscard() {
	v := vm.Pop()
	UnrefValue(v)
}

func (vm *VM) Top() Value {
	return vm.Stack[vm.SP-1]
}

// Slot returns the address of a stack slot for lvalue construction.
func (vm *VM) Slot(i int) *Value {
	return &vm.Stack[i]
}

// LocalSlot addresses local variable i (0-based) of the current frame.
func (vm *VM) LocalSlot(i int) *Value {
	return vm.Slot(vm.FP + i)
}

// GlobalSlot addresses global variable i (0-based) of the current
// object: i indexes the object's Vars directly, and no inherit
// variable offset is added here or by OpGlobal/OpGlobalLV.
func (vm *VM) GlobalSlot(i int) *Value {
	return &vm.CurrentObject.Vars[i]
}
