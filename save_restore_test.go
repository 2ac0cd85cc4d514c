package lpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// jailSandbox resolves every virtual path beneath Root, the same way
// testdouble.JailSandbox does; this in-package test cannot import
// testdouble, which itself imports this package.
type jailSandbox struct {
	Root string
}

func (s jailSandbox) Resolve(virtualPath string) (string, error) {
	return filepath.Join(s.Root, filepath.Clean("/"+virtualPath)), nil
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	t.Run("int and a mapping-of-array variable survive a save/restore round trip", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "save"), 0o755))
		vm := testVM()
		vm.Sandbox = jailSandbox{Root: dir}

		prog := NewProgram("/player")
		prog.Variables = []string{"x", "m"}
		prog.Statics = map[string]bool{}
		ob := NewObject("player#0", prog)

		ob.Vars[0] = NewInt(42)
		m := NewMapping(0)
		require.NoError(t, m.Set(NewMallocString("inv"), NewArray([]Value{NewInt(1), NewInt(2)})))
		ob.Vars[1] = m

		require.NoError(t, vm.SaveObject(ob, "/save/player", false))

		saved, err := os.ReadFile(filepath.Join(dir, "save", "player.o"))
		require.NoError(t, err)
		require.Contains(t, string(saved), "#/player")
		require.Contains(t, string(saved), "x 42")

		fresh := NewObject("player#1", prog)
		require.NoError(t, vm.RestoreObject(fresh, "/save/player", false))

		xi, ok := fresh.Vars[0].(Int)
		require.True(t, ok)
		require.Equal(t, int64(42), xi.V)

		rm, ok := fresh.Vars[1].(*Mapping)
		require.True(t, ok)
		av, found := rm.Get(NewMallocString("inv"))
		require.True(t, found)
		arr, ok := av.(*Array)
		require.True(t, ok)
		require.Len(t, arr.Items, 2)
		require.Equal(t, Int{V: 1}, arr.Items[0])
		require.Equal(t, Int{V: 2}, arr.Items[1])
	})

	t.Run("noclear leaves an already-set variable alone when the file omits it", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "save"), 0o755))
		vm := testVM()
		vm.Sandbox = jailSandbox{Root: dir}

		prog := NewProgram("/npc")
		prog.Variables = []string{"hp", "name"}
		saver := NewObject("npc#0", prog)
		saver.Vars[0] = NewInt(10)
		require.NoError(t, vm.SaveObject(saver, "/save/npc", false))

		target := NewObject("npc#1", prog)
		target.Vars[1] = NewMallocString("Grunt")
		require.NoError(t, vm.RestoreObject(target, "/save/npc", true))

		hp := target.Vars[0].(Int)
		require.Equal(t, int64(10), hp.V)
		name := target.Vars[1].(*String)
		require.Equal(t, "Grunt", name.Value())
	})

	t.Run("static variables are never written or restored", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "save"), 0o755))
		vm := testVM()
		vm.Sandbox = jailSandbox{Root: dir}

		prog := NewProgram("/thing")
		prog.Variables = []string{"counter"}
		prog.Statics = map[string]bool{"counter": true}
		ob := NewObject("thing#0", prog)
		ob.Vars[0] = NewInt(99)

		require.NoError(t, vm.SaveObject(ob, "/save/thing", true))
		saved, err := os.ReadFile(filepath.Join(dir, "save", "thing.o"))
		require.NoError(t, err)
		require.NotContains(t, string(saved), "counter")
	})

	t.Run("a malformed line is skipped rather than aborting the whole restore", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(dir, 0o755))
		path := filepath.Join(dir, "broken.o")
		require.NoError(t, os.WriteFile(path, []byte("#/broken\nx 1\ny ???not-a-value\nz 3\n"), 0o644))

		vm := testVM()
		vm.Sandbox = jailSandbox{Root: dir}

		prog := NewProgram("/broken")
		prog.Variables = []string{"x", "y", "z"}
		ob := NewObject("broken#0", prog)

		require.NoError(t, vm.RestoreObject(ob, "/broken", false))
		assert := require.New(t)
		assert.Equal(int64(1), ob.Vars[0].(Int).V)
		assert.True(Undefinedp(ob.Vars[1]))
		assert.Equal(int64(3), ob.Vars[2].(Int).V)
	})
}
