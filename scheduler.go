package lpc

// Scheduler drives the "one tick" boundary spec.md §5 describes:
// between two externally initiated executions, any object whose reset
// time has elapsed is reset.
// There is exactly one of these per VM, run synchronously by whatever
// embeds the core (no goroutines: spec.md §5 "strictly single-threaded
// cooperative"), the same discipline as the teacher's single-threaded
// Match loop.
type Scheduler struct {
	vm  *VM
	now int64

	// RandFrac supplies the [0,1) draw ScheduleReset uses to jitter
	// an object's next reset time; defaults to always picking the
	// midpoint of the allowed window. Tests substitute a fixed or
	// sequenced value to make reset timing deterministic.
	RandFrac func() float64
}

func NewScheduler(vm *VM) *Scheduler {
	return &Scheduler{vm: vm, RandFrac: func() float64 { return 0.5 }}
}

// Advance moves the scheduler's clock to now and runs one sweep: reset
// every object whose ResetAt has elapsed and schedule its next reset.
// It does not flush objects whose refcount has reached zero; their
// memory is reclaimed by the Go garbage collector.
func (s *Scheduler) Advance(now int64) {
	s.now = now
	for _, ob := range s.vm.Objects.All() {
		if ob.NoReset || ob.Destructed {
			continue
		}
		if ob.ResetAt <= now {
			s.vm.Reset(ob)
			s.vm.ScheduleReset(ob, now, s.RandFrac())
		}
	}
}

// Tick resets the per-call eval cost budget and runs fn, the shape
// every externally initiated call into mudlib code takes (heart_beat,
// a comm-layer input callback, a timed call-out): spec.md §4.2 "The
// cost is refilled by the outer scheduler before each externally
// initiated call."
func (s *Scheduler) Tick(fn func() error) error {
	s.vm.ResetEvalCost()
	return fn()
}
