package lpc

import (
	"fmt"
	"strings"

	"github.com/taedlar/neolith-core/ascii"
)

// Disassemble renders prog's bytecode as one line per instruction,
// opcode names and operands colorized per ascii.DefaultTheme the same
// way the teacher's PrettyString colorizes its own PEG bytecode dump
// (vm_program.go), generalized here to this package's flat Opcode
// space instead of langlang's per-type Instruction set.
func Disassemble(prog *Program) string {
	theme := ascii.DefaultTheme
	var b strings.Builder
	pc := 0
	for pc < len(prog.Code) {
		op := Opcode(prog.Code[pc])
		size := SizeOf(op)
		fmt.Fprintf(&b, "%s  %s",
			ascii.Color(theme.Muted, "%04d", pc),
			ascii.Color(theme.Operator, "%-24s", op.String()))
		writeOperands(&b, theme, prog, op, prog.Code[pc:min(pc+size, len(prog.Code))])
		b.WriteByte('\n')
		if size <= 0 {
			break // malformed stream; stop rather than loop forever
		}
		pc += size
	}
	return b.String()
}

func writeOperands(b *strings.Builder, theme ascii.Theme, prog *Program, op Opcode, raw []byte) {
	if len(raw) <= 1 {
		return
	}
	operand := raw[1:]
	switch op {
	case OpPushInt:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Literal, "%d", decodeI64(operand)))
	case OpPushFloat:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Literal, "%g", decodeF64(operand)))
	case OpPushString:
		idx := decodeU32(operand)
		s := ""
		if int(idx) < len(prog.Strings) {
			s = prog.Strings[idx]
		}
		fmt.Fprintf(b, " %s", ascii.Color(theme.Literal, "%q", s))
	case OpLocal, OpLocalLV:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Operand, "local[%d]", operand[0]))
	case OpGlobal, OpGlobalLV:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Operand, "global[%d]", decodeU16(operand)))
	case OpJmp, OpJz, OpJnz, OpLoopCondLt, OpWhileDec, OpNextForeach:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Span, "%+d", decodeI32(operand)))
	case OpAggregate, OpAggregateAssoc, OpForeach:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Operand, "n=%d", decodeU32(operand)))
	case OpNewClass, OpNewEmptyClass:
		idx := decodeU32(operand)
		name := ""
		if int(idx) < len(prog.Strings) {
			name = prog.Strings[idx]
		}
		fmt.Fprintf(b, " %s", ascii.Color(theme.Label, "%s", name))
	case OpCallFunctionByAddress:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Operand, "fn[%d] argc=%d", decodeU16(operand), operand[2]))
	case OpCallInherited:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Operand, "inherit[%d].fn[%d] argc=%d", decodeU16(operand), decodeU16(operand[2:]), operand[4]))
	case OpSimulEfun, OpEfun:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Operand, "#%d argc=%d", decodeU16(operand), operand[2]))
	case OpCatch:
		fmt.Fprintf(b, " %s", ascii.Color(theme.Catch, "+%d", decodeU32(operand)))
	}
}
