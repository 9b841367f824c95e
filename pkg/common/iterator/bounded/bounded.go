// Package bounded restricts a traversal to a range of keys: the start bound
// is inclusive and the end bound exclusive.
package bounded

import (
	"golang.org/x/exp/constraints"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

// Bounds is an immutable key range. A missing bound leaves that side open.
type Bounds[K constraints.Ordered] struct {
	start    K
	end      K
	hasStart bool
	hasEnd   bool
}

// Between creates the range [start, end)
func Between[K constraints.Ordered](start, end K) Bounds[K] {
	return Bounds[K]{start: start, end: end, hasStart: true, hasEnd: true}
}

// AtLeast creates the range [start, +inf)
func AtLeast[K constraints.Ordered](start K) Bounds[K] {
	return Bounds[K]{start: start, hasStart: true}
}

// Below creates the range (-inf, end)
func Below[K constraints.Ordered](end K) Bounds[K] {
	return Bounds[K]{end: end, hasEnd: true}
}

// Unbounded creates a range containing every key
func Unbounded[K constraints.Ordered]() Bounds[K] {
	return Bounds[K]{}
}

// WithStart returns a copy of b with a new inclusive start bound
func (b Bounds[K]) WithStart(start K) Bounds[K] {
	b.start, b.hasStart = start, true
	return b
}

// WithEnd returns a copy of b with a new exclusive end bound
func (b Bounds[K]) WithEnd(end K) Bounds[K] {
	b.end, b.hasEnd = end, true
	return b
}

// Start returns the start bound and whether it is set
func (b Bounds[K]) Start() (K, bool) {
	return b.start, b.hasStart
}

// End returns the end bound and whether it is set
func (b Bounds[K]) End() (K, bool) {
	return b.end, b.hasEnd
}

// IsEmpty reports whether no key can satisfy the bounds
func (b Bounds[K]) IsEmpty() bool {
	return b.hasStart && b.hasEnd && b.start >= b.end
}

// Contains reports whether key lies within the bounds
func (b Bounds[K]) Contains(key K) bool {
	if b.hasStart && key < b.start {
		return false
	}
	if b.hasEnd && key >= b.end {
		return false
	}
	return true
}

// Span returns the physical index range [from, to) of the entries of s whose
// keys lie within b. Keys are sorted, so two binary searches suffice.
func Span[K constraints.Ordered, V any](b Bounds[K], s store.Store[K, V]) (from, to int) {
	from, to = 0, s.Size()
	if b.IsEmpty() {
		return 0, 0
	}
	if b.hasStart {
		from = insertionPoint(s.IndexOfKey(b.start))
	}
	if b.hasEnd {
		to = insertionPoint(s.IndexOfKey(b.end))
	}
	if to < from {
		to = from
	}
	return from, to
}

func insertionPoint(i int) int {
	if i < 0 {
		return ^i
	}
	return i
}

type keyFilter[K constraints.Ordered, V any] struct {
	bounds Bounds[K]
}

func (f keyFilter[K, V]) Matches(p iterator.Pair[K, V], _, _ int) bool {
	return f.bounds.Contains(p.Key)
}

func (f keyFilter[K, V]) Span(s store.Store[K, V]) (from, to int) {
	return Span(f.bounds, s)
}

// Filter returns a filter accepting the entries whose key lies within b. As
// the first stage of a chain it limits the cursor scan to the Span of b.
func Filter[K constraints.Ordered, V any](b Bounds[K]) filter.Filter[iterator.Pair[K, V]] {
	if b.IsEmpty() {
		return filter.None[iterator.Pair[K, V]]()
	}
	return keyFilter[K, V]{bounds: b}
}
