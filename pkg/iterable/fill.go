package iterable

import (
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator/filtered"
)

// fillSlice copies the projection of every filtered entry into dst starting
// at offset. Nothing is written when dst cannot hold them all.
func fillSlice[K constraints.Ordered, V any, T any](it *Iterable[K, V], dst []T, offset int, project func(c *filtered.Cursor[K, V]) T) (int, error) {
	var items []T
	err := it.run(opFill, func(c *filtered.Cursor[K, V]) error {
		for c.Next() {
			items = append(items, project(c))
		}
		if offset < 0 || offset+len(items) > len(dst) {
			return fmt.Errorf("%w: %d elements at offset %d, capacity %d",
				ErrDestinationTooSmall, len(items), offset, len(dst))
		}
		copy(dst[offset:], items)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// FillValues copies the filtered values into dst starting at offset and
// returns how many were written
func (it *Iterable[K, V]) FillValues(dst []V, offset int) (int, error) {
	return fillSlice(it, dst, offset, func(c *filtered.Cursor[K, V]) V {
		return c.Value()
	})
}

// FillKeys copies the filtered keys into dst starting at offset
func (it *Iterable[K, V]) FillKeys(dst []K, offset int) (int, error) {
	return fillSlice(it, dst, offset, func(c *filtered.Cursor[K, V]) K {
		return c.Key()
	})
}

// FillPairs copies detached filtered entries into dst starting at offset
func (it *Iterable[K, V]) FillPairs(dst []iterator.Pair[K, V], offset int) (int, error) {
	return fillSlice(it, dst, offset, func(c *filtered.Cursor[K, V]) iterator.Pair[K, V] {
		return iterator.Pair[K, V]{Key: c.Key(), Value: c.Value()}
	})
}

// FillInto copies the filtered entries into dst, which must be a slice or a
// pointer to an array. Values are written when the element type accepts V,
// detached pairs when it accepts iterator.Pair[K, V]. Any other element type
// fails with ErrTypeMismatch.
func (it *Iterable[K, V]) FillInto(dst any, offset int) (int, error) {
	target := reflect.ValueOf(dst)
	switch {
	case target.Kind() == reflect.Slice:
	case target.Kind() == reflect.Pointer && !target.IsNil() && target.Elem().Kind() == reflect.Array:
		target = target.Elem()
	default:
		err := fmt.Errorf("%w: cannot fill %T", ErrTypeMismatch, dst)
		it.settings.metrics.RecordError(it.settings.ctx, opFill, err)
		return 0, err
	}

	elem := target.Type().Elem()
	var project func(c *filtered.Cursor[K, V]) any
	switch {
	case reflect.TypeFor[V]().AssignableTo(elem):
		project = func(c *filtered.Cursor[K, V]) any { return c.Value() }
	case reflect.TypeFor[iterator.Pair[K, V]]().AssignableTo(elem):
		project = func(c *filtered.Cursor[K, V]) any {
			return iterator.Pair[K, V]{Key: c.Key(), Value: c.Value()}
		}
	default:
		err := fmt.Errorf("%w: %v does not accept %v", ErrTypeMismatch, elem, reflect.TypeFor[V]())
		it.settings.metrics.RecordError(it.settings.ctx, opFill, err)
		return 0, err
	}

	items := make([]any, target.Len())
	n, err := fillSlice(it, items, offset, project)
	if err != nil {
		return 0, err
	}
	for i := offset; i < offset+n; i++ {
		v := reflect.ValueOf(items[i])
		if !v.IsValid() {
			v = reflect.Zero(elem)
		}
		target.Index(i).Set(v)
	}
	return n, nil
}

// AppendValues appends the filtered values to dst and returns the extended
// slice
func (it *Iterable[K, V]) AppendValues(dst []V) []V {
	it.scan(opFill, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			dst = append(dst, c.Value())
		}
	})
	return dst
}
