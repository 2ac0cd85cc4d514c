package lpc

// lifecycle.go implements spec.md §4.5 "Object lifecycle": creation
// (__INIT then create), reset scheduling, and destruction, grounded on
// the teacher's own load-then-transform compile pipeline in api.go
// (GrammarFromFile -> transform -> ready-to-run), generalized here to
// load-then-initialize an LPC object instead of a grammar.

// CreateObject instantiates a fresh clone of prog: allocates the
// object with every non-static variable initialized to 0u, applies
// the compiler-generated __INIT (silently skipped if the program
// defines none, since __INIT is produced by the out-of-scope
// compiler), then calls create exactly once, and finally schedules the
// object's first reset (spec.md §3.4, §4.5).
func (vm *VM) CreateObject(name string, prog *Program) (*Object, error) {
	ob := NewObject(name, prog)
	prog.Ref()
	vm.Objects.Add(ob)

	if _, ok := prog.FunctionByName("__INIT"); ok {
		if _, err := vm.CallProgram(ob, "__INIT", nil); err != nil {
			return ob, err
		}
	}
	if _, err := vm.CallProgram(ob, "create", nil); err != nil {
		return ob, err
	}
	vm.ScheduleReset(ob, 0, 0.5)
	return ob, nil
}

// ScheduleReset picks ob's next reset time uniformly from [now+T/2,
// now+T] for the configured __TIME_TO_RESET__, per spec.md §3.4. The
// core has no wall-clock or RNG of its own (spec.md §1 non-goals), so
// now and frac (a value in [0,1]) are supplied by the caller -- the
// scheduler in production, a fixed value in tests.
func (vm *VM) ScheduleReset(ob *Object, now int64, frac float64) {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	t := int64(vm.Config.GetInt(ConfigTimeToReset))
	half := t / 2
	ob.ResetAt = now + half + int64(frac*float64(t-half))
}

// Reset applies the reset hook if resets have not been disabled for
// ob by a prior failure, per spec.md §4.5/§7 "errors inside reset
// disable resets for that object."
func (vm *VM) Reset(ob *Object) {
	if ob.NoReset || ob.Destructed {
		return
	}
	if _, err := vm.CallProgram(ob, "reset", nil); err != nil {
		ob.NoReset = true
	}
}

// Destruct implements spec.md §4.5 "Destruction": marks the destructed
// flag, severs sentences and shadow links, removes ob from the object
// and living-name tables, and decrements ob's own refcount. The
// allocation itself is freed only when the refcount later reaches
// zero (handled by Go's GC once every HeapValue reference is gone);
// until then, Resolve's destructed-object read barrier makes every
// remaining reference observe 0.
func (vm *VM) Destruct(ob *Object) {
	if ob.Destructed {
		return
	}
	ob.Destructed = true
	ob.RemoveAllSentences()
	ob.RemoveShadow()
	ob.removeFromInventory()
	vm.Objects.ClearLiving(ob)
	vm.Objects.Remove(ob)
	ob.Unref()
}
