// Package filtered provides the cursor that walks a sparse store through a
// filter chain, forward or in reverse, and supports removing the current
// entry without disturbing the rest of the traversal.
package filtered

import (
	"golang.org/x/exp/constraints"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

type state int

const (
	stateNotStarted state = iota
	stateScanning
	statePositioned
	stateRemoved
	stateExhausted
)

// String returns the name of the state
func (s state) String() string {
	switch s {
	case stateNotStarted:
		return "not-started"
	case stateScanning:
		return "scanning"
	case statePositioned:
		return "positioned"
	case stateRemoved:
		return "removed"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Spanner is implemented by filters accepting only the entries of s in the
// physical range [from, to). A cursor whose chain starts with a Spanner scans
// that range alone.
type Spanner[K constraints.Ordered, V any] interface {
	Span(s store.Store[K, V]) (from, to int)
}

// Ensure Cursor implements the Iterator interface
var _ iterator.Iterator[int, any] = (*Cursor[int, any])(nil)

// Cursor is a single-use iterator over the entries of a store accepted by a
// filter chain. Filters always see physical indices; the reverse flag only
// changes the scan direction and therefore the order in which counts
// accumulate.
type Cursor[K constraints.Ordered, V any] struct {
	store   store.Store[K, V]
	chain   filter.Chain[iterator.Pair[K, V]]
	reverse bool

	pass  *filter.Pass[iterator.Pair[K, V]]
	state state

	// next physical candidate and the scan window [lower, size). The upper
	// end shrinks with the entries removed by this cursor.
	next  int
	lower int
	size  int

	index    int
	position int

	// entries removed by this cursor ahead of the scan; physical indices of
	// later candidates are shifted down by this amount
	shift int

	scanned int
	removed int
}

// NewCursor creates a cursor over s. The filter chain is prepared lazily on
// the first advance.
func NewCursor[K constraints.Ordered, V any](s store.Store[K, V], chain filter.Chain[iterator.Pair[K, V]], reverse bool) *Cursor[K, V] {
	return &Cursor[K, V]{
		store:    s,
		chain:    chain,
		reverse:  reverse,
		index:    -1,
		position: -1,
	}
}

// storeSource exposes a store as a filter source of detached pairs
type storeSource[K constraints.Ordered, V any] struct {
	store store.Store[K, V]
}

func (s storeSource[K, V]) Size() int {
	return s.store.Size()
}

func (s storeSource[K, V]) At(index int) iterator.Pair[K, V] {
	return iterator.Pair[K, V]{Key: s.store.KeyAt(index), Value: s.store.ValueAt(index)}
}

func (c *Cursor[K, V]) begin() {
	c.lower, c.size = 0, c.store.Size()
	if s, ok := c.chain.Head().(Spanner[K, V]); ok {
		c.lower, c.size = s.Span(c.store)
	}
	if c.reverse {
		c.next = c.size - 1
	} else {
		c.next = c.lower
	}
	c.pass = c.chain.Begin(storeSource[K, V]{store: c.store}, c.reverse)
}

func (c *Cursor[K, V]) hasCandidate() bool {
	if c.reverse {
		return c.next >= c.lower
	}
	return c.next < c.size
}

// Next advances to the next accepted entry
func (c *Cursor[K, V]) Next() bool {
	switch c.state {
	case stateExhausted:
		return false
	case stateNotStarted:
		c.begin()
	}

	c.state = stateScanning
	src := storeSource[K, V]{store: c.store}
	for c.hasCandidate() {
		i := c.next
		if c.reverse {
			c.next--
		} else {
			c.next++
		}
		c.scanned++

		if c.pass.Test(src.At(i), i+c.shift) {
			c.index = i
			c.position++
			c.state = statePositioned
			return true
		}
	}

	c.index = -1
	c.state = stateExhausted
	return false
}

// Advance moves to the next accepted entry and returns it
func (c *Cursor[K, V]) Advance() (iterator.Entry[K, V], error) {
	if !c.Next() {
		return iterator.Entry[K, V]{}, iterator.ErrExhausted
	}
	return iterator.NewEntry(c.store, c.index), nil
}

// Entry returns the current entry
func (c *Cursor[K, V]) Entry() (iterator.Entry[K, V], error) {
	switch c.state {
	case statePositioned:
		return iterator.NewEntry(c.store, c.index), nil
	case stateExhausted:
		return iterator.Entry[K, V]{}, iterator.ErrExhausted
	default:
		return iterator.Entry[K, V]{}, iterator.ErrNoCurrentElement
	}
}

// Key returns the current key
func (c *Cursor[K, V]) Key() K {
	if !c.Valid() {
		var zero K
		return zero
	}
	return c.store.KeyAt(c.index)
}

// Value returns the current value
func (c *Cursor[K, V]) Value() V {
	if !c.Valid() {
		var zero V
		return zero
	}
	return c.store.ValueAt(c.index)
}

// Index returns the current physical index
func (c *Cursor[K, V]) Index() int {
	if !c.Valid() {
		return -1
	}
	return c.index
}

// Position returns the logical position of the last accepted entry
func (c *Cursor[K, V]) Position() int {
	return c.position
}

// Valid returns true if the cursor is positioned at an entry
func (c *Cursor[K, V]) Valid() bool {
	return c.state == statePositioned
}

// SetValue overwrites the value of the current entry
func (c *Cursor[K, V]) SetValue(value V) error {
	if !c.Valid() {
		return iterator.ErrNoCurrentElement
	}
	c.store.SetValueAt(c.index, value)
	return nil
}

// Remove deletes the current entry from the store. The scan resumes with the
// following candidate; entries already rejected are not tested again.
func (c *Cursor[K, V]) Remove() error {
	if !c.Valid() {
		return iterator.ErrNoCurrentElement
	}

	c.store.RemoveAt(c.index)
	c.size--
	if !c.reverse {
		c.next--
		c.shift++
	}
	c.removed++
	c.index = -1
	c.state = stateRemoved
	return nil
}

// Scanned returns the number of candidates tested so far
func (c *Cursor[K, V]) Scanned() int {
	return c.scanned
}

// Accepted returns the number of entries the cursor has been positioned on
func (c *Cursor[K, V]) Accepted() int {
	return c.position + 1
}

// Removed returns the number of entries deleted through the cursor
func (c *Cursor[K, V]) Removed() int {
	return c.removed
}

// Reversed reports whether the cursor scans from the highest index down
func (c *Cursor[K, V]) Reversed() bool {
	return c.reverse
}
