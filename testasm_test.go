package lpc

import (
	"encoding/binary"
	"math"
)

// asmBuilder is a tiny hand-rolled assembler used only by this
// package's own tests, standing in for the out-of-scope compiler so
// the interpreter's opcode groups can be exercised directly against
// known bytecode, the same way the teacher's own vm_test.go builds
// Instruction slices by hand instead of going through a parser.
type asmBuilder struct {
	code []byte
}

func (a *asmBuilder) op(op Opcode) *asmBuilder {
	a.code = append(a.code, byte(op))
	return a
}

func (a *asmBuilder) u8(v byte) *asmBuilder {
	a.code = append(a.code, v)
	return a
}

func (a *asmBuilder) u16(v uint16) *asmBuilder {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	a.code = append(a.code, b[:]...)
	return a
}

func (a *asmBuilder) u32(v uint32) *asmBuilder {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	a.code = append(a.code, b[:]...)
	return a
}

func (a *asmBuilder) i32(v int32) *asmBuilder { return a.u32(uint32(v)) }

func (a *asmBuilder) i64(v int64) *asmBuilder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	a.code = append(a.code, b[:]...)
	return a
}

func (a *asmBuilder) f64(v float64) *asmBuilder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	a.code = append(a.code, b[:]...)
	return a
}

// testVM builds a VM with small, test-friendly stack sizes and a
// disabled sandbox/efun surface, sufficient for pure-interpreter
// tests that never touch the filesystem or call an efun.
func testVM() *VM {
	cfg := NewConfig()
	cfg.SetInt(ConfigEvaluatorStackSize, 256)
	cfg.SetInt(ConfigMaxCallDepth, 64)
	cfg.SetInt(ConfigMaxEvalCost, 100000)
	vm := NewVM(cfg)
	vm.Efuns = NewEfunRegistry(nil)
	return vm
}
