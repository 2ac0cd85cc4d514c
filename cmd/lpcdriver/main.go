// Command lpcdriver is a minimal embedding of the core: it loads a
// single precompiled demo program (no preprocessor/codegen, per
// spec.md §1's Non-goals), instantiates one object from it, applies a
// named function, and optionally prints the disassembly first.
// Adapted from the teacher's cmd/langlang/main.go flag-based args
// struct + flag.String/.Bool pattern.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	lpc "github.com/taedlar/neolith-core"
	"github.com/taedlar/neolith-core/testdouble"
)

type args struct {
	disasm   *bool
	funcName *string
	saveDir  *string
}

func readArgs() *args {
	a := &args{
		disasm:   flag.Bool("disasm", false, "Print the demo program's disassembly before running it"),
		funcName: flag.String("call", "create", "Name of the function to apply on the demo object"),
		saveDir:  flag.String("save-dir", ".", "Directory the path sandbox confines save files to"),
	}
	flag.Parse()
	return a
}

func main() {
	a := readArgs()

	cfg := lpc.NewConfig()
	vm := lpc.NewVM(cfg)
	vm.Sandbox = testdouble.JailSandbox{Root: *a.saveDir}
	vm.SimulEfuns = testdouble.EmptySimulEfuns{}
	vm.Efuns = lpc.NewEfunRegistry(nil)

	prog := demoProgram()
	prog.Flatten()

	if *a.disasm {
		fmt.Fprint(os.Stdout, lpc.Disassemble(prog))
	}

	ob, err := vm.CreateObject("demo#0", prog)
	if err != nil {
		log.Fatalf("lpcdriver: create: %v", err)
	}

	res, err := vm.CallProgram(ob, *a.funcName, nil)
	if err != nil {
		log.Fatalf("lpcdriver: call %s: %v", *a.funcName, err)
	}
	fmt.Fprintf(os.Stdout, "%s() => %s\n", *a.funcName, dump(res))
}

func dump(v lpc.Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.Dump()
}
