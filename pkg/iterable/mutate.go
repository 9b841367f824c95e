package iterable

import (
	"fmt"
	"slices"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator/filtered"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

// indices materializes the physical indices accepted by the configuration
func indices(c interface {
	Next() bool
	Index() int
}) []int {
	var idx []int
	for c.Next() {
		idx = append(idx, c.Index())
	}
	return idx
}

// Remove deletes every filtered entry from the backing store. The indices
// are collected first and deleted from the highest down. The result iterates
// the deleted entries, in the direction of the receiver.
func (it *Iterable[K, V]) Remove() *Iterable[K, V] {
	deleted := it.newStore(0)
	_ = it.execute(opRemove, func(c *filtered.Cursor[K, V]) (int, error) {
		idx := indices(c)
		slices.Sort(idx)
		for i := len(idx) - 1; i >= 0; i-- {
			it.deleteAt(idx[i], deleted)
		}
		return len(idx), nil
	})
	it.settings.logger.WithFields(map[string]interface{}{
		"op":      opRemove,
		"removed": deleted.Size(),
	}).Debug("removed filtered entries")
	return it.derive(deleted, filter.Chain[iterator.Pair[K, V]]{}, it.reverse)
}

// Retain deletes every entry of the backing store the filters reject. The
// result iterates the deleted entries, in the direction of the receiver.
func (it *Iterable[K, V]) Retain() *Iterable[K, V] {
	deleted := it.newStore(0)
	_ = it.execute(opRetain, func(c *filtered.Cursor[K, V]) (int, error) {
		keep := make(map[int]struct{})
		for _, i := range indices(c) {
			keep[i] = struct{}{}
		}
		n := 0
		for i := it.store.Size() - 1; i >= 0; i-- {
			if _, ok := keep[i]; !ok {
				it.deleteAt(i, deleted)
				n++
			}
		}
		return n, nil
	})
	it.settings.logger.WithFields(map[string]interface{}{
		"op":      opRetain,
		"removed": deleted.Size(),
	}).Debug("removed rejected entries")
	return it.derive(deleted, filter.Chain[iterator.Pair[K, V]]{}, it.reverse)
}

func (it *Iterable[K, V]) deleteAt(i int, deleted *store.Map[K, V]) {
	deleted.Put(it.store.KeyAt(i), it.store.ValueAt(i))
	it.store.RemoveAt(i)
}

// ReplaceValues overwrites the value of every filtered entry with its
// translation, in place. It returns the number of replaced values.
func (it *Iterable[K, V]) ReplaceValues(translator filter.Translator[iterator.Pair[K, V], V]) (int, error) {
	if translator == nil {
		return 0, filter.ErrIllegalConfiguration
	}
	n := 0
	err := it.run(opReplace, func(c *filtered.Cursor[K, V]) error {
		for c.Next() {
			v := translator.Translate(iterator.Pair[K, V]{Key: c.Key(), Value: c.Value()})
			if err := c.SetValue(v); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// PutInto writes the filtered entries into dst, replacing existing mappings.
// It returns the number of entries written.
func (it *Iterable[K, V]) PutInto(dst store.Store[K, V]) int {
	var pairs []iterator.Pair[K, V]
	it.scan(opPut, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			pairs = append(pairs, iterator.Pair[K, V]{Key: c.Key(), Value: c.Value()})
		}
		for _, p := range pairs {
			dst.Put(p.Key, p.Value)
		}
	})
	return len(pairs)
}

// AppendTo appends the filtered entries to dst. It fails with ErrKeyExists,
// leaving dst untouched, if dst already maps one of the keys.
func (it *Iterable[K, V]) AppendTo(dst store.Store[K, V]) error {
	return it.run(opAppend, func(c *filtered.Cursor[K, V]) error {
		var pairs []iterator.Pair[K, V]
		for c.Next() {
			k := c.Key()
			if dst.IndexOfKey(k) >= 0 {
				return fmt.Errorf("%w: %v", ErrKeyExists, k)
			}
			pairs = append(pairs, iterator.Pair[K, V]{Key: k, Value: c.Value()})
		}
		// reverse traversal yields descending keys
		if c.Reversed() {
			slices.Reverse(pairs)
		}
		for _, p := range pairs {
			dst.Append(p.Key, p.Value)
		}
		return nil
	})
}
