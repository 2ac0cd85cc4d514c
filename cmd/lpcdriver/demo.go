package main

import (
	"encoding/binary"

	lpc "github.com/taedlar/neolith-core"
)

// asm is a tiny hand-rolled assembler for the handful of opcodes the
// demo program needs; a real driver gets this from its compiler
// (spec.md §1 Non-goals), which this module never implements.
type asm struct {
	code []byte
}

func (a *asm) op(op lpc.Opcode) *asm {
	a.code = append(a.code, byte(op))
	return a
}

func (a *asm) i64(v int64) *asm {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	a.code = append(a.code, b[:]...)
	return a
}

// demoProgram hand-assembles a single-function object program
// equivalent to:
//
//	int create() { return 3 + 4; }
func demoProgram() *lpc.Program {
	prog := lpc.NewProgram("/demo/object")

	a := &asm{}
	a.op(lpc.OpPushInt).i64(3)
	a.op(lpc.OpPushInt).i64(4)
	a.op(lpc.OpAdd)
	a.op(lpc.OpReturn)
	prog.Code = a.code

	prog.Functions = []lpc.FuncEntry{
		{Name: "create", Entry: 0, NumArg: 0, NumLocal: 0},
	}
	return prog
}
