package iterator

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

var (
	// ErrNoCurrentElement is returned when the cursor is not positioned on an
	// element, e.g. before the first advance or after a removal
	ErrNoCurrentElement = errors.New("no current element")

	// ErrExhausted is returned when advancing past the end of the iteration
	ErrExhausted = errors.New("iteration exhausted")
)

// Iterator defines the cursor used to traverse a sparse store as key/value
// entries. It is single-use and not safe for concurrent use.
type Iterator[K constraints.Ordered, V any] interface {
	// Next advances to the next accepted entry
	Next() bool

	// Advance moves to the next accepted entry and returns it, or fails
	// with ErrExhausted
	Advance() (Entry[K, V], error)

	// Entry returns the current entry
	Entry() (Entry[K, V], error)

	// Key returns the current key, or the zero value when not positioned
	Key() K

	// Value returns the current value, or the zero value when not positioned
	Value() V

	// Index returns the current physical index, or -1 when not positioned
	Index() int

	// Position returns the logical position of the current entry
	Position() int

	// Valid returns true if the iterator is positioned at an entry
	Valid() bool

	// SetValue overwrites the value of the current entry in the store
	SetValue(value V) error

	// Remove deletes the current entry from the store
	Remove() error
}

// Pair is the detached, immutable copy of an entry
type Pair[K constraints.Ordered, V any] struct {
	Key   K
	Value V
}

// String returns "key=value"
func (p Pair[K, V]) String() string {
	return fmt.Sprintf("%v=%v", p.Key, p.Value)
}

// Entry is a live view of the element at a physical index of a store. It is
// valid only until the cursor that produced it advances or the store is
// mutated; use Detach to keep a copy.
type Entry[K constraints.Ordered, V any] struct {
	store store.Store[K, V]
	index int
}

// NewEntry returns the view of the element at index
func NewEntry[K constraints.Ordered, V any](s store.Store[K, V], index int) Entry[K, V] {
	return Entry[K, V]{store: s, index: index}
}

// Key returns the entry key
func (e Entry[K, V]) Key() K {
	return e.store.KeyAt(e.index)
}

// Value returns the entry value
func (e Entry[K, V]) Value() V {
	return e.store.ValueAt(e.index)
}

// Index returns the physical index of the entry
func (e Entry[K, V]) Index() int {
	return e.index
}

// SetValue writes value through to the store
func (e Entry[K, V]) SetValue(value V) {
	e.store.SetValueAt(e.index, value)
}

// Detach returns an immutable copy of the entry
func (e Entry[K, V]) Detach() Pair[K, V] {
	return Pair[K, V]{Key: e.Key(), Value: e.Value()}
}

// String returns "key=value"
func (e Entry[K, V]) String() string {
	return e.Detach().String()
}

// KeyOf returns the key of a pair
func KeyOf[K constraints.Ordered, V any](p Pair[K, V]) K {
	return p.Key
}

// ValueOf returns the value of a pair
func ValueOf[K constraints.Ordered, V any](p Pair[K, V]) V {
	return p.Value
}
