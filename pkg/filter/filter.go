// Package filter provides the predicates used to narrow an iteration and the
// chain that composes them.
//
// A Filter is evaluated once per candidate element with two positional
// arguments: count, the number of elements already presented to the filter in
// the current pass, and index, the physical position of the element in the
// backing store. Filters are immutable and can be shared by any number of
// chains; per-pass state lives in a Pass.
package filter

import (
	"errors"
)

// ErrIllegalConfiguration is returned when a filter is built with a missing
// required collaborator such as a nil translator or predicate.
var ErrIllegalConfiguration = errors.New("illegal filter configuration")

// Filter decides whether an element is part of an iteration
type Filter[E any] interface {
	// Matches reports whether element, presented as the count-th candidate
	// of this pass and located at the given physical index, is accepted
	Matches(element E, count, index int) bool
}

// Preparer is implemented by advanced filters which need to know the total
// number of candidates before the pass begins. Prepare returns the filter to
// be used for a single pass.
type Preparer[E any] interface {
	Filter[E]
	Prepare(total int) Filter[E]
}

// FilterFunc adapts an ordinary function to the Filter interface
type FilterFunc[E any] func(element E, count, index int) bool

// Matches calls f(element, count, index)
func (f FilterFunc[E]) Matches(element E, count, index int) bool {
	return f(element, count, index)
}

// Func returns a filter accepting the elements for which pred returns true
func Func[E any](pred func(element E) bool) (Filter[E], error) {
	if pred == nil {
		return nil, ErrIllegalConfiguration
	}
	return FilterFunc[E](func(element E, _, _ int) bool {
		return pred(element)
	}), nil
}

// Must returns f, panicking when err is not nil. It wraps the constructors
// whose collaborators are known to be present.
func Must[E any](f Filter[E], err error) Filter[E] {
	if err != nil {
		panic(err)
	}
	return f
}

// All returns a filter accepting every element
func All[E any]() Filter[E] {
	return FilterFunc[E](func(E, int, int) bool { return true })
}

// None returns a filter rejecting every element
func None[E any]() Filter[E] {
	return FilterFunc[E](func(E, int, int) bool { return false })
}

type inverse[E any] struct {
	filter Filter[E]
}

func (f inverse[E]) Matches(element E, count, index int) bool {
	return !f.filter.Matches(element, count, index)
}

type inversePreparer[E any] struct {
	inverse[E]
	preparer Preparer[E]
}

func (f inversePreparer[E]) Prepare(total int) Filter[E] {
	return Not(f.preparer.Prepare(total))
}

// Not returns the logical negation of f. When f is a Preparer the returned
// filter is one too, so that exclusions compose with advanced filters.
func Not[E any](f Filter[E]) Filter[E] {
	if f == nil {
		return None[E]()
	}
	if p, ok := f.(Preparer[E]); ok {
		return inversePreparer[E]{inverse: inverse[E]{filter: f}, preparer: p}
	}
	return inverse[E]{filter: f}
}
