// Package testdouble supplies minimal fakes for the external
// collaborators named in spec.md §6.1 (Compiler, PathSandbox,
// MasterObject, SimulEfunRegistry, CommLayer): enough behavior for
// tests and the lpcdriver CLI demo to drive the core end to end
// without a real preprocessor, telnet layer, or filesystem jail.
// Grounded on the teacher's own practice of testing against small
// in-memory fakes rather than its real file-loading backend (see
// grammar_import_loaders_test.go's table-driven fake paths).
package testdouble

import (
	"fmt"
	"path/filepath"
	"strings"

	lpc "github.com/taedlar/neolith-core"
)

// PrecompiledLoader is a Compiler fake that serves Program values
// registered ahead of time by path, standing in for a real
// preprocessor/codegen pipeline.
type PrecompiledLoader struct {
	programs map[string]*lpc.Program
}

func NewPrecompiledLoader() *PrecompiledLoader {
	return &PrecompiledLoader{programs: make(map[string]*lpc.Program)}
}

func (l *PrecompiledLoader) Register(path string, prog *lpc.Program) {
	l.programs[path] = prog
}

func (l *PrecompiledLoader) Compile(path string) (*lpc.Program, error) {
	prog, ok := l.programs[path]
	if !ok {
		return nil, fmt.Errorf("testdouble: no program registered for %q", path)
	}
	return prog, nil
}

// JailSandbox is a PathSandbox fake that confines every resolved path
// beneath a root directory: the virtual path is cleaned against "/",
// so a leading ".." cannot climb above Root -- the minimum
// behavior spec.md §6.1's check_valid_path callback is required to
// provide, without consulting a real master object.
type JailSandbox struct {
	Root string
}

func (s JailSandbox) Resolve(virtualPath string) (string, error) {
	clean := filepath.Clean("/" + virtualPath)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("testdouble: path escapes jail: %q", virtualPath)
	}
	return filepath.Join(s.Root, clean), nil
}

// FixedMaster is a MasterObject fake returning a single pre-built
// object for every apply_master_ob call.
type FixedMaster struct {
	Ob *lpc.Object
}

func (m FixedMaster) Object() *lpc.Object { return m.Ob }

// EmptySimulEfuns is a SimulEfunRegistry fake with no registrations,
// the default for tests that don't exercise simul_efun dispatch.
type EmptySimulEfuns struct{}

func (EmptySimulEfuns) Lookup(name string) (*lpc.FuncPtr, bool)  { return nil, false }
func (EmptySimulEfuns) LookupIndex(idx int) (*lpc.FuncPtr, bool) { return nil, false }

// RecordingComm is a CommLayer fake that appends every write to an
// in-memory transcript per object, so tests can assert on what a
// command would have sent a player.
type RecordingComm struct {
	Transcript map[*lpc.Object][]string
	Closed     map[*lpc.Object]bool
}

func NewRecordingComm() *RecordingComm {
	return &RecordingComm{
		Transcript: make(map[*lpc.Object][]string),
		Closed:     make(map[*lpc.Object]bool),
	}
}

func (c *RecordingComm) Write(ob *lpc.Object, text string) error {
	c.Transcript[ob] = append(c.Transcript[ob], text)
	return nil
}

func (c *RecordingComm) Close(ob *lpc.Object) error {
	c.Closed[ob] = true
	return nil
}
