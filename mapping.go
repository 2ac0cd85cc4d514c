package lpc

import "fmt"

const mappingInitialBuckets = 8

// mappingFillRatio bounds count/table_size before a grow is forced;
// spec.md §3.2/§4.3 call the slack counter "unfilled" and specify
// growth triggers "when unfilled crosses a fill threshold".
const mappingFillRatio = 0.75

// mapNode is one (key, value) pair in a bucket's singly linked chain.
// Chains preserve insertion order within a bucket, which together with
// bucket-major iteration gives Mapping its documented iteration order.
type mapNode struct {
	key, val Value
	next     *mapNode
}

// Mapping is the refcounted hash-table heap type of spec.md §3.2. The
// bucket table size is always a power of two; lookup masks the key
// hash with tableSize-1 instead of using a modulo.
type Mapping struct {
	refHeader
	buckets  []*mapNode
	count    int
	unfilled int // buckets.len*fillRatio - count, recomputed on grow
	maxSize  int // __MAX_MAPPING_SIZE__, 0 means unbounded
}

func NewMapping(maxSize int) *Mapping {
	m := &Mapping{buckets: make([]*mapNode, mappingInitialBuckets), maxSize: maxSize}
	m.unfilled = m.threshold()
	return m
}

func (m *Mapping) Kind() ValueKind { return KindMapping }
func (m *Mapping) Dump() string    { return fmt.Sprintf("([ %d entries ])", m.count) }
func (m *Mapping) Size() int       { return m.count }

func (m *Mapping) Unref() {
	m.ref--
	if m.ref > 0 {
		return
	}
	for _, b := range m.buckets {
		for n := b; n != nil; n = n.next {
			UnrefValue(n.key)
			UnrefValue(n.val)
		}
	}
}

func (m *Mapping) threshold() int {
	return int(float64(len(m.buckets))*mappingFillRatio) - m.count
}

// mapHash produces the pointer-hash-for-heap-types / value-hash-for-
// scalars described in spec.md §4.3.
func mapHash(v Value) uint64 {
	switch t := v.(type) {
	case Int:
		return uint64(t.V)
	case Float:
		return uint64(t.V)
	case *String:
		var h uint64 = 14695981039346656037
		for i := 0; i < len(t.buf); i++ {
			h ^= uint64(t.buf[i])
			h *= 1099511628211
		}
		return h
	default:
		if hv, ok := v.(HeapValue); ok {
			// pointer-hash: the identity of the heap allocation
			var h uint64 = 14695981039346656037
			for _, c := range fmt.Sprintf("%p", hv) {
				h ^= uint64(c)
				h *= 1099511628211
			}
			return h
		}
		return 0
	}
}

// valueEqual implements the same equality predicate as `==` on
// svalues, used both for `==` itself and for mapping key lookup
// (spec.md §4.3 "Key equality uses the same predicate as == on
// svalues").
func valueEqual(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av.V == bv.V
	case Float:
		bv, ok := b.(Float)
		return ok && av.V == bv.V
	case *String:
		bv, ok := b.(*String)
		return ok && av.buf == bv.buf
	case *ObjectRef:
		bv, ok := b.(*ObjectRef)
		return ok && av.Obj == bv.Obj
	default:
		ah, aok := a.(HeapValue)
		bh, bok := b.(HeapValue)
		return aok && bok && ah == bh
	}
}

func (m *Mapping) bucketIndex(key Value) int {
	return int(mapHash(key) & uint64(len(m.buckets)-1))
}

// Get returns the value at key, or (0u, false) per spec.md §4.2
// "mappings ... creating an absent key returns 0u".
func (m *Mapping) Get(key Value) (Value, bool) {
	// destructed-object keys are collected lazily; a lookup against
	// one always misses, matching "lazy cleanup at read time".
	if ref, ok := key.(*ObjectRef); ok && (ref.Obj == nil || ref.Obj.Destructed) {
		return UndefinedZero(), false
	}
	idx := m.bucketIndex(key)
	for n := m.buckets[idx]; n != nil; n = n.next {
		if valueEqual(n.key, key) {
			return n.val, true
		}
	}
	return UndefinedZero(), false
}

// Set inserts or overwrites key -> val, growing the table if the
// unfilled slack counter would go negative.
func (m *Mapping) Set(key, val Value) error {
	idx := m.bucketIndex(key)
	for n := m.buckets[idx]; n != nil; n = n.next {
		if valueEqual(n.key, key) {
			UnrefValue(n.val)
			RefValue(val)
			n.val = val
			return nil
		}
	}
	if m.maxSize > 0 && m.count >= m.maxSize {
		return fmt.Errorf("mapping too large")
	}
	m.unfilled--
	if m.unfilled < 0 {
		if err := m.grow(); err != nil {
			return err
		}
		idx = m.bucketIndex(key)
	}
	RefValue(key)
	RefValue(val)
	node := &mapNode{key: key, val: val}
	// append at tail of the bucket chain to preserve insertion order
	if m.buckets[idx] == nil {
		m.buckets[idx] = node
	} else {
		tail := m.buckets[idx]
		for tail.next != nil {
			tail = tail.next
		}
		tail.next = node
	}
	m.count++
	return nil
}

// Delete removes key if present.
func (m *Mapping) Delete(key Value) {
	idx := m.bucketIndex(key)
	var prev *mapNode
	for n := m.buckets[idx]; n != nil; n = n.next {
		if valueEqual(n.key, key) {
			if prev == nil {
				m.buckets[idx] = n.next
			} else {
				prev.next = n.next
			}
			UnrefValue(n.key)
			UnrefValue(n.val)
			m.count--
			m.unfilled++
			return
		}
		prev = n
	}
}

func (m *Mapping) grow() error {
	newSize := len(m.buckets) * 2
	if m.maxSize > 0 && newSize > m.maxSize*2 {
		return fmt.Errorf("mapping too large")
	}
	newBuckets := make([]*mapNode, newSize)
	mask := uint64(newSize - 1)
	// rehash preserving each bucket's internal (insertion) order
	for _, b := range m.buckets {
		for n := b; n != nil; {
			next := n.next
			n.next = nil
			idx := int(mapHash(n.key) & mask)
			if newBuckets[idx] == nil {
				newBuckets[idx] = n
			} else {
				tail := newBuckets[idx]
				for tail.next != nil {
					tail = tail.next
				}
				tail.next = n
			}
			n = next
		}
	}
	m.buckets = newBuckets
	m.unfilled = m.threshold()
	return nil
}

// Keys returns a bucket-major, insertion-order-within-bucket snapshot
// of every key currently stored. foreach captures exactly this
// snapshot for the duration of the loop (spec.md §9 "Mapping iteration
// during mutation").
func (m *Mapping) Keys() []Value {
	out := make([]Value, 0, m.count)
	for _, b := range m.buckets {
		for n := b; n != nil; n = n.next {
			if ref, ok := n.key.(*ObjectRef); ok && (ref.Obj == nil || ref.Obj.Destructed) {
				continue
			}
			out = append(out, n.key)
		}
	}
	return out
}

// Merge implements mapping `+`: entries of b overwrite entries of a.
func (a *Mapping) Merge(b *Mapping) (*Mapping, error) {
	out := NewMapping(a.maxSize)
	for _, k := range a.Keys() {
		v, _ := a.Get(k)
		if err := out.Set(k, v); err != nil {
			return nil, err
		}
	}
	for _, k := range b.Keys() {
		v, _ := b.Get(k)
		if err := out.Set(k, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MappingKeyCursor is the lvalue produced when indexing a mapping in
// lvalue position.
type MappingKeyCursor struct {
	Map *Mapping
	Key Value
}

func (c MappingKeyCursor) Get() Value {
	v, _ := c.Map.Get(c.Key)
	return v
}

func (c MappingKeyCursor) Set(v Value) error { return c.Map.Set(c.Key, v) }
func (c MappingKeyCursor) Dump() string      { return "map[key]" }
