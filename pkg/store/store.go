// Package store provides the sorted, array-backed sparse maps that iterables
// traverse.
package store

import (
	"golang.org/x/exp/constraints"
)

// Store defines the interface of a mutable, key-ordered sparse container.
// Keys are kept in strictly ascending order by the implementation and
// entries are addressed by their zero-based physical index.
type Store[K constraints.Ordered, V any] interface {
	// Size returns the number of entries
	Size() int

	// KeyAt returns the key stored at the given physical index
	KeyAt(index int) K

	// ValueAt returns the value stored at the given physical index
	ValueAt(index int) V

	// SetValueAt overwrites the value stored at the given physical index
	SetValueAt(index int, value V)

	// IndexOfKey returns the physical index of key, or the bitwise
	// complement of its insertion point when the key is absent
	IndexOfKey(key K) int

	// Get returns the value mapped to key
	Get(key K) (V, bool)

	// Put inserts or replaces the mapping for key
	Put(key K, value V)

	// Append adds a mapping, optimized for keys greater than every key
	// already present
	Append(key K, value V)

	// RemoveAt deletes the entry at the given physical index
	RemoveAt(index int)

	// Delete removes the mapping for key and reports whether it existed
	Delete(key K) bool

	// Clear removes every entry
	Clear()
}

// Kind identifies the flavor of a backing store
type Kind int

const (
	// KindObject is a simple array map keyed by arbitrary ordered values
	KindObject Kind = iota
	// KindInt is a sparse array keyed by int
	KindInt
	// KindLong is a sparse array keyed by int64
	KindLong
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "array-map"
	case KindInt:
		return "sparse-array"
	case KindLong:
		return "long-sparse-array"
	default:
		return "unknown"
	}
}

// Kinded is implemented by stores that expose their flavor
type Kinded interface {
	Kind() Kind
}
