package lpc

// Opcode is a single bytecode instruction tag, a flat byte enumeration
// the way the teacher's vm_instructions.go types each map to one wire
// opcode, except here all instructions share one concrete numeric
// space instead of one Go type per instruction (spec.md §4.2).
type Opcode byte

const (
	OpHalt Opcode = iota

	// literals/constants
	OpPushInt
	OpPushFloat
	OpPushString
	OpPushZero

	// local/global access
	OpLocal
	OpGlobal
	OpLocalLV
	OpGlobalLV

	// arithmetic/comparison
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpLt
	OpGt
	OpLe
	OpGe

	// indexing
	OpIndex
	OpRIndex
	OpIndexLV
	OpRIndexLV

	// ranges
	OpRange
	OpRangeLV

	// branches
	OpJmp
	OpJz
	OpJnz
	OpLoopCondLt
	OpLoopIncr
	OpWhileDec

	// aggregates
	OpAggregate
	OpAggregateAssoc
	OpNewClass
	OpNewEmptyClass

	// foreach
	OpForeach
	OpNextForeach
	OpExitForeach

	// calls
	OpCallFunctionByAddress
	OpCallInherited
	OpSimulEfun
	OpEfun

	// assignment
	OpAssign
	OpVoidAssign

	// incr/decr
	OpPreInc
	OpPostInc
	OpPreDec
	OpPostDec

	// catch/throw
	OpCatch
	OpEndCatch
	OpThrow

	// varargs
	OpExpandVarargs

	// return
	OpReturn
	OpReturnZero

	opLast
)

// opNames mirrors the teacher's disassembly side table (vm_program.go's
// PrettyString switch), kept as data instead of per-type Name() methods
// since every opcode shares the same Instruction shape here.
var opNames = map[Opcode]string{
	OpHalt:                  "halt",
	OpPushInt:               "push_int",
	OpPushFloat:             "push_float",
	OpPushString:            "push_string",
	OpPushZero:              "push_zero",
	OpLocal:                 "local",
	OpGlobal:                "global",
	OpLocalLV:               "local_lv",
	OpGlobalLV:              "global_lv",
	OpAdd:                   "add",
	OpSub:                   "sub",
	OpMul:                   "mul",
	OpDiv:                   "div",
	OpMod:                   "mod",
	OpEq:                    "eq",
	OpLt:                    "lt",
	OpGt:                    "gt",
	OpLe:                    "le",
	OpGe:                    "ge",
	OpIndex:                 "index",
	OpRIndex:                "rindex",
	OpIndexLV:               "index_lv",
	OpRIndexLV:              "rindex_lv",
	OpRange:                 "range",
	OpRangeLV:               "range_lv",
	OpJmp:                   "jmp",
	OpJz:                    "jz",
	OpJnz:                   "jnz",
	OpLoopCondLt:            "loop_cond_lt",
	OpLoopIncr:              "loop_incr",
	OpWhileDec:              "while_dec",
	OpAggregate:             "aggregate",
	OpAggregateAssoc:        "aggregate_assoc",
	OpNewClass:              "new_class",
	OpNewEmptyClass:         "new_empty_class",
	OpForeach:               "foreach",
	OpNextForeach:           "next_foreach",
	OpExitForeach:           "exit_foreach",
	OpCallFunctionByAddress: "call_function_by_address",
	OpCallInherited:         "call_inherited",
	OpSimulEfun:             "simul_efun",
	OpEfun:                  "efun",
	OpAssign:                "assign",
	OpVoidAssign:            "void_assign",
	OpPreInc:                "pre_inc",
	OpPostInc:               "post_inc",
	OpPreDec:                "pre_dec",
	OpPostDec:               "post_dec",
	OpCatch:                 "catch",
	OpEndCatch:              "end_catch",
	OpThrow:                 "throw",
	OpExpandVarargs:         "expand_varargs",
	OpReturn:                "return",
	OpReturnZero:            "return_zero",
}

func (op Opcode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "unknown"
}

// opSizes gives each instruction's total encoded size in bytes
// (opcode byte plus operands), used both by the interpreter to
// advance PC and by the disassembler to step through Code.
var opSizes = map[Opcode]int{
	OpHalt:      1,
	OpPushZero:  1,
	OpPushInt:   9, // opcode + int64 operand
	OpPushFloat: 9, // opcode + float64 operand
	OpPushString: 5, // opcode + uint32 string-table index

	OpLocal:    2,
	OpGlobal:   3, // opcode + uint16 index
	OpLocalLV:  2,
	OpGlobalLV: 3,

	OpAdd: 1, OpSub: 1, OpMul: 1, OpDiv: 1, OpMod: 1,
	OpEq: 1, OpLt: 1, OpGt: 1, OpLe: 1, OpGe: 1,

	OpIndex: 1, OpRIndex: 1, OpIndexLV: 1, OpRIndexLV: 1,
	OpRange: 1, OpRangeLV: 1,

	OpJmp: 5, OpJz: 5, OpJnz: 5, // opcode + int32 branch offset
	OpLoopCondLt: 5, OpLoopIncr: 1, OpWhileDec: 5,

	OpAggregate: 5, OpAggregateAssoc: 5, // opcode + uint32 count
	OpNewClass: 5, OpNewEmptyClass: 5,

	// OpForeach: opcode + uint32 loop-variable count (1 for an array
	// item/string byte, 1 or 2 for a mapping key[/value] pair).
	// OpNextForeach: opcode + int32 PC-relative offset to jump to once
	// the cursor is exhausted.
	OpForeach: 5, OpNextForeach: 5, OpExitForeach: 1,

	OpCallFunctionByAddress: 4, // opcode + uint16 function index + uint8 nargs
	OpCallInherited:         6, // opcode + uint16 inherit idx + uint16 function idx + uint8 nargs
	OpSimulEfun:              4, // opcode + uint16 index + uint8 nargs
	OpEfun:                   4, // opcode + uint16 index + uint8 nargs

	OpAssign: 1, OpVoidAssign: 1,
	OpPreInc: 1, OpPostInc: 1, OpPreDec: 1, OpPostDec: 1,

	OpCatch: 5, OpEndCatch: 1, OpThrow: 1,

	OpExpandVarargs: 1,

	OpReturn: 1, OpReturnZero: 1,
}

// SizeOf returns an instruction's encoded width, falling back to 1 for
// any opcode that carries no operand table entry.
func SizeOf(op Opcode) int {
	if n, ok := opSizes[op]; ok {
		return n
	}
	return 1
}
