package lpc

import "sync"

// internedString is one entry of the process wide shared-string table.
// The core does not specify the lexer/identifier machinery built on
// top of this table (out of scope per spec.md §1), but the value
// model's `shared` string subtype cannot be expressed without the
// table itself, so a minimal version lives here.
type internedString struct {
	text string
	ref  int32
}

// StringTable is the process wide interning table referenced by
// findstring/make_shared_string/ref_string/free_string in spec.md
// §6.1. Only one instance normally exists per driver (see
// defaultStringTable, which NewVM installs), but the type can also be
// instantiated on its own so that tests can run with independent tables.
type StringTable struct {
	mu      sync.Mutex
	entries map[string]*internedString
}

func NewStringTable() *StringTable {
	return &StringTable{entries: make(map[string]*internedString)}
}

// defaultStringTable backs the package level helpers used by code that
// does not thread an explicit table through (mirrors the single global
// table of the reference driver).
var defaultStringTable = NewStringTable()

// FindString returns the existing shared entry for s, or nil if the
// table has nothing interned under that text.
func (t *StringTable) FindString(s string) *String {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[s]
	if !ok {
		return nil
	}
	e.ref++
	return &String{Subtype: StringShared, buf: e.text, interned: e}
}

// MakeSharedString interns s, creating the table entry on first use.
func (t *StringTable) MakeSharedString(s string) *String {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[s]
	if !ok {
		e = &internedString{text: s}
		t.entries[s] = e
	}
	e.ref++
	return &String{Subtype: StringShared, buf: s, interned: e}
}

func (t *StringTable) release(e *internedString) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.ref--
	if e.ref <= 0 {
		delete(t.entries, e.text)
	}
}

func (t *StringTable) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func findstring(s string) *String          { return defaultStringTable.FindString(s) }
func makeSharedString(s string) *String    { return defaultStringTable.MakeSharedString(s) }
func releaseSharedString(e *internedString) { defaultStringTable.release(e) }
