package filter

import (
	"math"
)

type first[E any] struct {
	n int
}

func (f first[E]) Matches(_ E, count, _ int) bool {
	return count < f.n
}

// First accepts the first n elements presented to it
func First[E any](n int) Filter[E] {
	return first[E]{n: n}
}

type last[E any] struct {
	n int
}

// Matches rejects everything until the filter has been prepared
func (f last[E]) Matches(E, int, int) bool {
	return false
}

func (f last[E]) Prepare(total int) Filter[E] {
	threshold := total - f.n
	return FilterFunc[E](func(_ E, count, _ int) bool {
		return count >= threshold
	})
}

// Last accepts the last n elements presented to it. It is an advanced filter:
// a chain runs a pre-pass counting the candidates before using it.
func Last[E any](n int) Filter[E] {
	return last[E]{n: n}
}

type indexSet[E any] struct {
	indices map[int]struct{}
}

func (f indexSet[E]) Matches(_ E, _, index int) bool {
	_, ok := f.indices[index]
	return ok
}

// Indices accepts the elements located at the given physical indices
func Indices[E any](indices ...int) Filter[E] {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return indexSet[E]{indices: set}
}

type indexRange[E any] struct {
	from, to int
}

func (f indexRange[E]) Matches(_ E, _, index int) bool {
	return f.from <= index && index <= f.to
}

// IndexRange accepts the elements whose physical index is within [from, to]
func IndexRange[E any](from, to int) Filter[E] {
	return indexRange[E]{from: from, to: to}
}

// From accepts the elements whose physical index is at least from
func From[E any](from int) Filter[E] {
	return IndexRange[E](from, math.MaxInt)
}

// To accepts the elements whose physical index is at most to
func To[E any](to int) Filter[E] {
	return IndexRange[E](math.MinInt, to)
}
