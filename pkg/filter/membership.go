package filter

import (
	"iter"
	"reflect"
	"slices"

	"golang.org/x/exp/constraints"
)

type valueSet[E any, T comparable] struct {
	translator Translator[E, T]
	values     map[T]struct{}
}

func (f valueSet[E, T]) Matches(element E, _, _ int) bool {
	_, ok := f.values[f.translator.Translate(element)]
	return ok
}

// In accepts the elements whose translation is one of values
func In[E any, T comparable](translator Translator[E, T], values ...T) (Filter[E], error) {
	return InSeq(translator, slices.Values(values))
}

// InSeq accepts the elements whose translation is produced by seq. The
// sequence is consumed once, when the filter is built.
func InSeq[E any, T comparable](translator Translator[E, T], seq iter.Seq[T]) (Filter[E], error) {
	if translator == nil || seq == nil {
		return nil, ErrIllegalConfiguration
	}
	set := make(map[T]struct{})
	for v := range seq {
		set[v] = struct{}{}
	}
	return valueSet[E, T]{translator: translator, values: set}, nil
}

type sortedValues[E any, T constraints.Integer] struct {
	translator Translator[E, T]
	values     []T
}

func (f sortedValues[E, T]) Matches(element E, _, _ int) bool {
	_, found := slices.BinarySearch(f.values, f.translator.Translate(element))
	return found
}

// InSorted accepts the elements whose integer translation is one of values.
// The slice is cloned and sorted, membership is tested by binary search.
func InSorted[E any, T constraints.Integer](translator Translator[E, T], values []T) (Filter[E], error) {
	if translator == nil {
		return nil, ErrIllegalConfiguration
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sortedValues[E, T]{translator: translator, values: sorted}, nil
}

type valueList[E, T any] struct {
	translator Translator[E, T]
	values     []T
	eq         func(a, b T) bool
}

func (f valueList[E, T]) Matches(element E, _, _ int) bool {
	t := f.translator.Translate(element)
	for _, v := range f.values {
		if f.eq(t, v) {
			return true
		}
	}
	return false
}

// InFunc accepts the elements whose translation equals one of values
// according to eq. It serves value types that are not comparable.
func InFunc[E, T any](translator Translator[E, T], values []T, eq func(a, b T) bool) (Filter[E], error) {
	if translator == nil || eq == nil {
		return nil, ErrIllegalConfiguration
	}
	return valueList[E, T]{translator: translator, values: slices.Clone(values), eq: eq}, nil
}

// Equal accepts the elements whose translation equals target
func Equal[E any, T comparable](translator Translator[E, T], target T) (Filter[E], error) {
	if translator == nil {
		return nil, ErrIllegalConfiguration
	}
	return FilterFunc[E](func(element E, _, _ int) bool {
		return translator.Translate(element) == target
	}), nil
}

// EqualFunc accepts the elements whose translation equals target according
// to eq
func EqualFunc[E, T any](translator Translator[E, T], target T, eq func(a, b T) bool) (Filter[E], error) {
	if translator == nil || eq == nil {
		return nil, ErrIllegalConfiguration
	}
	return FilterFunc[E](func(element E, _, _ int) bool {
		return eq(translator.Translate(element), target)
	}), nil
}

// IsNil accepts the elements whose translation is nil
func IsNil[E, T any](translator Translator[E, T]) (Filter[E], error) {
	if translator == nil {
		return nil, ErrIllegalConfiguration
	}
	return FilterFunc[E](func(element E, _, _ int) bool {
		return isNil(translator.Translate(element))
	}), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
