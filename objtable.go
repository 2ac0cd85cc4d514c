package lpc

// ObjectTable is the driver's global object registry: a name -> Object
// hash (one entry per loaded object, spec.md §4.5) plus the
// living-name hash used by command-capable NPC lookup and a list of
// every loaded object, in load order.
type ObjectTable struct {
	byName  map[string]*Object
	living  []*livingEntry
	all     []*Object
}

type livingEntry struct {
	name string
	ob   *Object
}

func NewObjectTable(livingHashSize int) *ObjectTable {
	return &ObjectTable{
		byName: make(map[string]*Object),
		living: make([]*livingEntry, 0, livingHashSize),
	}
}

// Add registers a freshly loaded object under its clone/master name.
func (t *ObjectTable) Add(o *Object) {
	t.byName[o.Name] = o
	t.all = append(t.all, o)
}

// Find looks up an object by its full name ("room/kitchen#3").
func (t *ObjectTable) Find(name string) (*Object, bool) {
	o, ok := t.byName[name]
	if ok && o.Destructed {
		return nil, false
	}
	return o, ok
}

// Remove drops o from the name table, called during destruct cleanup.
func (t *ObjectTable) Remove(o *Object) {
	delete(t.byName, o.Name)
	for i, cand := range t.all {
		if cand == o {
			t.all = append(t.all[:i], t.all[i+1:]...)
			break
		}
	}
}

// SetLiving registers o as a command-capable NPC findable by
// find_living (spec.md §4.5). An object may hold at most one living
// name at a time.
func (t *ObjectTable) SetLiving(name string, o *Object) {
	t.ClearLiving(o)
	o.LivingName = name
	t.living = append(t.living, &livingEntry{name: name, ob: o})
}

// ClearLiving removes any living-name registration for o, called on
// destruction or when the mudlib reassigns the name elsewhere.
func (t *ObjectTable) ClearLiving(o *Object) {
	if o.LivingName == "" {
		return
	}
	for i, e := range t.living {
		if e.ob == o {
			t.living = append(t.living[:i], t.living[i+1:]...)
			break
		}
	}
	o.LivingName = ""
}

// FindLiving returns the command-capable object registered under
// name, skipping over destructed stragglers.
func (t *ObjectTable) FindLiving(name string) (*Object, bool) {
	for _, e := range t.living {
		if e.name == name && !e.ob.Destructed {
			return e.ob, true
		}
	}
	return nil, false
}

// All returns every currently loaded, non-destructed object.
func (t *ObjectTable) All() []*Object {
	out := make([]*Object, 0, len(t.all))
	for _, o := range t.all {
		if !o.Destructed {
			out = append(out, o)
		}
	}
	return out
}
