package lpc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	t.Run("one line per instruction, with decoded operands", func(t *testing.T) {
		var a asmBuilder
		a.op(OpPushInt).i64(42)
		a.op(OpLocal).u8(3)
		a.op(OpJmp).i32(-6)
		a.op(OpReturn)

		prog := NewProgram("/disasm")
		prog.Code = a.code

		out := Disassemble(prog)
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		assert.Len(t, lines, 4)
		assert.Contains(t, lines[0], "push_int")
		assert.Contains(t, lines[0], "42")
		assert.Contains(t, lines[1], "local[3]")
		assert.Contains(t, lines[2], "-6")
		assert.Contains(t, lines[3], "return")
	})

	t.Run("push_string resolves the program's string table", func(t *testing.T) {
		var a asmBuilder
		a.op(OpPushString).u32(0)

		prog := NewProgram("/strs")
		prog.Code = a.code
		prog.Strings = []string{"hello"}

		out := Disassemble(prog)
		assert.Contains(t, out, `"hello"`)
	})

	t.Run("an empty program disassembles to an empty string", func(t *testing.T) {
		prog := NewProgram("/empty")
		assert.Equal(t, "", Disassemble(prog))
	})
}
