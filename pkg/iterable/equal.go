package iterable

import (
	"reflect"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

// IsEqualTo compares the filtered entries with other. Stores and Go maps are
// compared as maps, ignoring order. Slices of pairs or values and other
// iterables are compared in traversal order.
func (it *Iterable[K, V]) IsEqualTo(other any) bool {
	switch o := other.(type) {
	case *Iterable[K, V]:
		return it.pairsEqual(o.Pairs())
	case []iterator.Pair[K, V]:
		return it.pairsEqual(o)
	case []V:
		values := it.Values()
		if len(values) != len(o) {
			return false
		}
		for i := range values {
			if !it.valuesEqual(values[i], o[i]) {
				return false
			}
		}
		return true
	case map[K]V:
		return it.mapEqual(len(o), func(k K) (V, bool) {
			v, ok := o[k]
			return v, ok
		})
	case store.Store[K, V]:
		return it.mapEqual(o.Size(), o.Get)
	default:
		return false
	}
}

// IsStrictlyEqualTo is IsEqualTo restricted to stores of the same concrete
// type and kind as the backing store
func (it *Iterable[K, V]) IsStrictlyEqualTo(other any) bool {
	o, ok := other.(store.Store[K, V])
	if !ok || reflect.TypeOf(o) != reflect.TypeOf(it.store) {
		return false
	}
	if k, ok := o.(store.Kinded); ok && k.Kind() != it.kind() {
		return false
	}
	return it.IsEqualTo(o)
}

func (it *Iterable[K, V]) pairsEqual(other []iterator.Pair[K, V]) bool {
	pairs := it.Pairs()
	if len(pairs) != len(other) {
		return false
	}
	for i, p := range pairs {
		if p.Key != other[i].Key || !it.valuesEqual(p.Value, other[i].Value) {
			return false
		}
	}
	return true
}

func (it *Iterable[K, V]) mapEqual(size int, get func(K) (V, bool)) bool {
	pairs := it.Pairs()
	if len(pairs) != size {
		return false
	}
	for _, p := range pairs {
		v, ok := get(p.Key)
		if !ok || !it.valuesEqual(p.Value, v) {
			return false
		}
	}
	return true
}
