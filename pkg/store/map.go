package store

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

// Map is the array-backed implementation of Store. Keys and values live in
// two parallel slices and lookups use binary search on the key slice.
type Map[K constraints.Ordered, V any] struct {
	kind   Kind
	keys   []K
	values []V
}

// Ensure Map implements the Store interface
var _ Store[int, any] = (*Map[int, any])(nil)

// NewMap creates an empty object-keyed map with the given initial capacity
func NewMap[K constraints.Ordered, V any](capacity int) *Map[K, V] {
	return newMap[K, V](KindObject, capacity)
}

// NewArrayMap creates an empty simple array map
func NewArrayMap[K constraints.Ordered, V any]() *Map[K, V] {
	return NewMap[K, V](0)
}

// NewIntMap creates an empty sparse array keyed by int
func NewIntMap[V any]() *Map[int, V] {
	return newMap[int, V](KindInt, 0)
}

// NewLongMap creates an empty sparse array keyed by int64
func NewLongMap[V any]() *Map[int64, V] {
	return newMap[int64, V](KindLong, 0)
}

// NewKind creates an empty map of the given kind. The kind only labels the
// map; the key type is still chosen by the caller.
func NewKind[K constraints.Ordered, V any](kind Kind, capacity int) *Map[K, V] {
	return newMap[K, V](kind, capacity)
}

// Of builds an object-keyed map from parallel key and value slices.
// Keys need not be sorted; later duplicates win.
func Of[K constraints.Ordered, V any](keys []K, values []V) (*Map[K, V], error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("keys and values must have the same length: %d != %d", len(keys), len(values))
	}
	m := NewMap[K, V](len(keys))
	for i, k := range keys {
		m.Put(k, values[i])
	}
	return m, nil
}

func newMap[K constraints.Ordered, V any](kind Kind, capacity int) *Map[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Map[K, V]{
		kind:   kind,
		keys:   make([]K, 0, capacity),
		values: make([]V, 0, capacity),
	}
}

// Kind returns the flavor of the map
func (m *Map[K, V]) Kind() Kind {
	return m.kind
}

// Size returns the number of entries
func (m *Map[K, V]) Size() int {
	return len(m.keys)
}

// KeyAt returns the key at the given physical index
func (m *Map[K, V]) KeyAt(index int) K {
	return m.keys[index]
}

// ValueAt returns the value at the given physical index
func (m *Map[K, V]) ValueAt(index int) V {
	return m.values[index]
}

// SetValueAt overwrites the value at the given physical index
func (m *Map[K, V]) SetValueAt(index int, value V) {
	m.values[index] = value
}

// IndexOfKey returns the index of key or ^insertionPoint if absent
func (m *Map[K, V]) IndexOfKey(key K) int {
	i := sort.Search(len(m.keys), func(i int) bool {
		return m.keys[i] >= key
	})
	if i < len(m.keys) && m.keys[i] == key {
		return i
	}
	return ^i
}

// Get returns the value mapped to key
func (m *Map[K, V]) Get(key K) (V, bool) {
	if i := m.IndexOfKey(key); i >= 0 {
		return m.values[i], true
	}
	var zero V
	return zero, false
}

// Put inserts or replaces the mapping for key
func (m *Map[K, V]) Put(key K, value V) {
	i := m.IndexOfKey(key)
	if i >= 0 {
		m.values[i] = value
		return
	}

	i = ^i
	var zeroK K
	var zeroV V
	m.keys = append(m.keys, zeroK)
	m.values = append(m.values, zeroV)
	copy(m.keys[i+1:], m.keys[i:])
	copy(m.values[i+1:], m.values[i:])
	m.keys[i] = key
	m.values[i] = value
}

// Append adds a mapping. When key is not greater than the last key the call
// falls back to Put so that ordering is preserved.
func (m *Map[K, V]) Append(key K, value V) {
	if n := len(m.keys); n > 0 && key <= m.keys[n-1] {
		m.Put(key, value)
		return
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// RemoveAt deletes the entry at the given physical index
func (m *Map[K, V]) RemoveAt(index int) {
	copy(m.keys[index:], m.keys[index+1:])
	copy(m.values[index:], m.values[index+1:])

	last := len(m.keys) - 1
	var zeroK K
	var zeroV V
	m.keys[last] = zeroK
	m.values[last] = zeroV
	m.keys = m.keys[:last]
	m.values = m.values[:last]
}

// Delete removes the mapping for key
func (m *Map[K, V]) Delete(key K) bool {
	i := m.IndexOfKey(key)
	if i < 0 {
		return false
	}
	m.RemoveAt(i)
	return true
}

// Clear removes every entry while keeping the allocated capacity
func (m *Map[K, V]) Clear() {
	clear(m.keys)
	clear(m.values)
	m.keys = m.keys[:0]
	m.values = m.values[:0]
}

// Clone returns a shallow copy of the map with the same kind
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := newMap[K, V](m.kind, len(m.keys))
	c.keys = append(c.keys, m.keys...)
	c.values = append(c.values, m.values...)
	return c
}

// String renders the map as {k1=v1, k2=v2}
func (m *Map[K, V]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i := range m.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v=%v", m.keys[i], m.values[i])
	}
	b.WriteByte('}')
	return b.String()
}
