package iterable

import (
	"golang.org/x/exp/constraints"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator/bounded"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
)

// Narrowing appends a single filter to the configuration it was obtained
// from. Filters added through But are negated.
type Narrowing[K constraints.Ordered, V any] struct {
	it     *Iterable[K, V]
	negate bool
}

// Only returns a builder whose filters restrict the traversal
func (it *Iterable[K, V]) Only() Narrowing[K, V] {
	return Narrowing[K, V]{it: it}
}

// But returns a builder whose filters exclude entries from the traversal
func (it *Iterable[K, V]) But() Narrowing[K, V] {
	return Narrowing[K, V]{it: it, negate: true}
}

func keyTranslator[K constraints.Ordered, V any]() filter.TranslatorFunc[iterator.Pair[K, V], K] {
	return iterator.KeyOf[K, V]
}

func valueTranslator[K constraints.Ordered, V any]() filter.TranslatorFunc[iterator.Pair[K, V], V] {
	return iterator.ValueOf[K, V]
}

// Filter appends f, negated when the builder comes from But
func (n Narrowing[K, V]) Filter(f filter.Filter[iterator.Pair[K, V]]) *Iterable[K, V] {
	if n.negate {
		f = filter.Not(f)
	}
	return n.it.Filter(f)
}

// First keeps the first count entries met in traversal order
func (n Narrowing[K, V]) First(count int) *Iterable[K, V] {
	return n.Filter(filter.First[iterator.Pair[K, V]](count))
}

// Last keeps the last count entries met in traversal order
func (n Narrowing[K, V]) Last(count int) *Iterable[K, V] {
	return n.Filter(filter.Last[iterator.Pair[K, V]](count))
}

// From keeps the entries at physical index i or above
func (n Narrowing[K, V]) From(i int) *Iterable[K, V] {
	return n.Filter(filter.From[iterator.Pair[K, V]](i))
}

// To keeps the entries at physical index i or below
func (n Narrowing[K, V]) To(i int) *Iterable[K, V] {
	return n.Filter(filter.To[iterator.Pair[K, V]](i))
}

// Index keeps the entries at the given physical indices
func (n Narrowing[K, V]) Index(indices ...int) *Iterable[K, V] {
	return n.Filter(filter.Indices[iterator.Pair[K, V]](indices...))
}

// Range keeps the entries whose physical index is in [from, to]
func (n Narrowing[K, V]) Range(from, to int) *Iterable[K, V] {
	return n.Filter(filter.IndexRange[iterator.Pair[K, V]](from, to))
}

// Key keeps the entry mapped to key
func (n Narrowing[K, V]) Key(key K) *Iterable[K, V] {
	return n.Filter(filter.Must(filter.Equal[iterator.Pair[K, V], K](keyTranslator[K, V](), key)))
}

// Keys keeps the entries mapped to one of keys
func (n Narrowing[K, V]) Keys(keys ...K) *Iterable[K, V] {
	return n.Filter(filter.Must(filter.In[iterator.Pair[K, V], K](keyTranslator[K, V](), keys...)))
}

// KeysBetween keeps the entries whose key is in [start, end)
func (n Narrowing[K, V]) KeysBetween(start, end K) *Iterable[K, V] {
	return n.Filter(bounded.Filter[K, V](bounded.Between(start, end)))
}

// KeysWithin keeps the entries whose key lies within b
func (n Narrowing[K, V]) KeysWithin(b bounded.Bounds[K]) *Iterable[K, V] {
	return n.Filter(bounded.Filter[K, V](b))
}

// Value keeps the entries whose value equals value
func (n Narrowing[K, V]) Value(value V) *Iterable[K, V] {
	return n.Filter(filter.Must(filter.EqualFunc[iterator.Pair[K, V], V](valueTranslator[K, V](), value, n.it.valuesEqual)))
}

// Values keeps the entries whose value equals one of values
func (n Narrowing[K, V]) Values(values ...V) *Iterable[K, V] {
	return n.Filter(filter.Must(filter.InFunc[iterator.Pair[K, V], V](valueTranslator[K, V](), values, n.it.valuesEqual)))
}

// NilValue keeps the entries whose value is nil
func (n Narrowing[K, V]) NilValue() *Iterable[K, V] {
	return n.Filter(filter.Must(filter.IsNil[iterator.Pair[K, V], V](valueTranslator[K, V]())))
}

// Where keeps the entries for which pred returns true. A nil predicate fails
// with filter.ErrIllegalConfiguration.
func (n Narrowing[K, V]) Where(pred func(key K, value V) bool) (*Iterable[K, V], error) {
	if pred == nil {
		return nil, filter.ErrIllegalConfiguration
	}
	f, err := filter.Func(func(p iterator.Pair[K, V]) bool {
		return pred(p.Key, p.Value)
	})
	if err != nil {
		return nil, err
	}
	return n.Filter(f), nil
}

// In keeps the entries that other also yields, with an equal value. The
// entries of other are collected when the filter is built.
func (n Narrowing[K, V]) In(other *Iterable[K, V]) *Iterable[K, V] {
	values := other.ToMap()
	f := filter.FilterFunc[iterator.Pair[K, V]](func(p iterator.Pair[K, V], _, _ int) bool {
		v, ok := values[p.Key]
		return ok && n.it.valuesEqual(p.Value, v)
	})
	return n.Filter(f)
}

// OnlyProjected keeps the entries whose projection is one of values
func OnlyProjected[K constraints.Ordered, V any, T comparable](it *Iterable[K, V], translator filter.Translator[iterator.Pair[K, V], T], values ...T) (*Iterable[K, V], error) {
	f, err := filter.In(translator, values...)
	if err != nil {
		return nil, err
	}
	return it.Only().Filter(f), nil
}

// ButProjected excludes the entries whose projection is one of values
func ButProjected[K constraints.Ordered, V any, T comparable](it *Iterable[K, V], translator filter.Translator[iterator.Pair[K, V], T], values ...T) (*Iterable[K, V], error) {
	f, err := filter.In(translator, values...)
	if err != nil {
		return nil, err
	}
	return it.But().Filter(f), nil
}

// OnlySorted keeps the entries whose integer projection is one of values.
// Membership is tested by binary search on a sorted copy of values.
func OnlySorted[K constraints.Ordered, V any, T constraints.Integer](it *Iterable[K, V], translator filter.Translator[iterator.Pair[K, V], T], values []T) (*Iterable[K, V], error) {
	f, err := filter.InSorted(translator, values)
	if err != nil {
		return nil, err
	}
	return it.Only().Filter(f), nil
}

// ButSorted excludes the entries whose integer projection is one of values
func ButSorted[K constraints.Ordered, V any, T constraints.Integer](it *Iterable[K, V], translator filter.Translator[iterator.Pair[K, V], T], values []T) (*Iterable[K, V], error) {
	f, err := filter.InSorted(translator, values)
	if err != nil {
		return nil, err
	}
	return it.But().Filter(f), nil
}
