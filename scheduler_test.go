package lpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerAdvance(t *testing.T) {
	t.Run("an elapsed reset time triggers reset and reschedules", func(t *testing.T) {
		vm := testVM()
		vm.Config.SetInt(ConfigTimeToReset, 1000)
		prog := buildCreateOnly("/room")
		prog.Functions = append(prog.Functions, FuncEntry{Name: "reset", Entry: 0, NumArg: 0, NumLocal: 0})
		ob, err := vm.CreateObject("room#0", prog)
		require.NoError(t, err)
		ob.ResetAt = 100

		sched := NewScheduler(vm)
		sched.Advance(200)

		assert.True(t, ob.ResetAt > 200)
	})

	t.Run("a destructed object is never reset", func(t *testing.T) {
		vm := testVM()
		prog := buildCreateOnly("/gone")
		ob := NewObject("gone#0", prog)
		ob.ResetAt = 0
		ob.Destructed = true

		sched := NewScheduler(vm)
		assert.NotPanics(t, func() { sched.Advance(500) })
	})

	t.Run("Tick resets the eval cost budget before running fn", func(t *testing.T) {
		vm := testVM()
		vm.EvalCost = 0
		sched := NewScheduler(vm)

		var seen int
		err := sched.Tick(func() error {
			seen = vm.EvalCost
			return nil
		})
		require.NoError(t, err)
		assert.True(t, seen > 0)
	})
}
