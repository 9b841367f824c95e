package iterable

import (
	"golang.org/x/exp/constraints"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator/filtered"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

// kindOf returns the store flavor matching the key type
func kindOf[K constraints.Ordered]() store.Kind {
	var zero K
	switch any(zero).(type) {
	case int:
		return store.KindInt
	case int64:
		return store.KindLong
	default:
		return store.KindObject
	}
}

// Translate copies the filtered entries into a new store, translating keys
// and values. When two entries translate to the same key the later one in
// traversal order wins. The receiver store is not modified.
func Translate[K constraints.Ordered, V any, K2 constraints.Ordered, V2 any](
	it *Iterable[K, V],
	keys filter.Translator[iterator.Pair[K, V], K2],
	values filter.Translator[iterator.Pair[K, V], V2],
) (*Iterable[K2, V2], error) {
	if keys == nil || values == nil {
		return nil, filter.ErrIllegalConfiguration
	}
	dst := store.NewKind[K2, V2](kindOf[K2](), 0)
	it.scan(opTranslate, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			p := iterator.Pair[K, V]{Key: c.Key(), Value: c.Value()}
			dst.Put(keys.Translate(p), values.Translate(p))
		}
	})
	return &Iterable[K2, V2]{store: dst, reverse: it.reverse, settings: it.settings}, nil
}

// TranslateKeys copies the filtered entries into a new store with translated
// keys
func TranslateKeys[K constraints.Ordered, V any, K2 constraints.Ordered](
	it *Iterable[K, V],
	keys filter.Translator[iterator.Pair[K, V], K2],
) (*Iterable[K2, V], error) {
	return Translate[K, V, K2, V](it, keys, valueTranslator[K, V]())
}

// TranslateValues copies the filtered entries into a new store of the same
// kind with translated values
func TranslateValues[K constraints.Ordered, V any, V2 any](
	it *Iterable[K, V],
	values filter.Translator[iterator.Pair[K, V], V2],
) (*Iterable[K, V2], error) {
	if values == nil {
		return nil, filter.ErrIllegalConfiguration
	}
	dst := store.NewKind[K, V2](it.kind(), 0)
	it.scan(opTranslate, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			dst.Put(c.Key(), values.Translate(iterator.Pair[K, V]{Key: c.Key(), Value: c.Value()}))
		}
	})
	return &Iterable[K, V2]{store: dst, reverse: it.reverse, settings: it.settings}, nil
}

// TranslateBack maps every filtered value into T, applies transform and
// writes the reverted result into dst under the same key. dst may be the
// backing store itself.
func TranslateBack[K constraints.Ordered, V any, T any](
	it *Iterable[K, V],
	translator filter.Bidirectional[V, T],
	transform func(T) T,
	dst store.Store[K, V],
) error {
	if translator == nil || transform == nil {
		return filter.ErrIllegalConfiguration
	}
	return it.run(opTranslate, func(c *filtered.Cursor[K, V]) error {
		for c.Next() {
			dst.Put(c.Key(), translator.Revert(transform(translator.Translate(c.Value()))))
		}
		return nil
	})
}
