package iterable

import (
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator/filtered"
)

// find returns the logical position and physical index of the first entry
// accepted by match, or -1 for both
func (it *Iterable[K, V]) find(match func(c *filtered.Cursor[K, V]) bool) (position, index int) {
	position, index = -1, -1
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			if match(c) {
				position, index = c.Position(), c.Index()
				return
			}
		}
	})
	return position, index
}

func (it *Iterable[K, V]) keyMatcher(key K) func(c *filtered.Cursor[K, V]) bool {
	return func(c *filtered.Cursor[K, V]) bool {
		return c.Key() == key
	}
}

func (it *Iterable[K, V]) valueMatcher(value V) func(c *filtered.Cursor[K, V]) bool {
	return func(c *filtered.Cursor[K, V]) bool {
		return it.valuesEqual(c.Value(), value)
	}
}

// ContainsKey reports whether a filtered entry is mapped to key
func (it *Iterable[K, V]) ContainsKey(key K) bool {
	_, index := it.find(it.keyMatcher(key))
	return index >= 0
}

// ContainsValue reports whether a filtered entry holds value
func (it *Iterable[K, V]) ContainsValue(value V) bool {
	_, index := it.find(it.valueMatcher(value))
	return index >= 0
}

// ContainsEntry reports whether a filtered entry maps key to value
func (it *Iterable[K, V]) ContainsEntry(key K, value V) bool {
	_, index := it.find(func(c *filtered.Cursor[K, V]) bool {
		return c.Key() == key && it.valuesEqual(c.Value(), value)
	})
	return index >= 0
}

// FirstPositionOfKey returns the logical position of key, or -1
func (it *Iterable[K, V]) FirstPositionOfKey(key K) int {
	position, _ := it.find(it.keyMatcher(key))
	return position
}

// FirstPositionOfValue returns the logical position of the first entry
// holding value, or -1
func (it *Iterable[K, V]) FirstPositionOfValue(value V) int {
	position, _ := it.find(it.valueMatcher(value))
	return position
}

// FirstIndexOfKey returns the physical index of key among the filtered
// entries, or -1
func (it *Iterable[K, V]) FirstIndexOfKey(key K) int {
	_, index := it.find(it.keyMatcher(key))
	return index
}

// FirstIndexOfValue returns the physical index of the first filtered entry
// holding value, or -1
func (it *Iterable[K, V]) FirstIndexOfValue(value V) int {
	_, index := it.find(it.valueMatcher(value))
	return index
}

// CountOfValue returns the number of filtered entries holding value
func (it *Iterable[K, V]) CountOfValue(value V) int {
	n := 0
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			if it.valuesEqual(c.Value(), value) {
				n++
			}
		}
	})
	return n
}

// ContainsAllKeys reports whether every key is mapped by a filtered entry
func (it *Iterable[K, V]) ContainsAllKeys(keys ...K) bool {
	missing := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		missing[k] = struct{}{}
	}
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for len(missing) > 0 && c.Next() {
			delete(missing, c.Key())
		}
	})
	return len(missing) == 0
}

// ContainsAnyKey reports whether at least one key is mapped by a filtered
// entry
func (it *Iterable[K, V]) ContainsAnyKey(keys ...K) bool {
	wanted := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	_, index := it.find(func(c *filtered.Cursor[K, V]) bool {
		_, ok := wanted[c.Key()]
		return ok
	})
	return index >= 0
}

// ContainsAllValues reports whether every value is held by a filtered entry
func (it *Iterable[K, V]) ContainsAllValues(values ...V) bool {
	missing := append([]V(nil), values...)
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for len(missing) > 0 && c.Next() {
			v := c.Value()
			kept := missing[:0]
			for _, m := range missing {
				if !it.valuesEqual(v, m) {
					kept = append(kept, m)
				}
			}
			missing = kept
		}
	})
	return len(missing) == 0
}

// ContainsAnyValue reports whether at least one value is held by a filtered
// entry
func (it *Iterable[K, V]) ContainsAnyValue(values ...V) bool {
	_, index := it.find(func(c *filtered.Cursor[K, V]) bool {
		v := c.Value()
		for _, candidate := range values {
			if it.valuesEqual(v, candidate) {
				return true
			}
		}
		return false
	})
	return index >= 0
}

// ContainsAll reports whether every entry yielded by other is also yielded
// by the receiver. Neither side is modified.
func (it *Iterable[K, V]) ContainsAll(other *Iterable[K, V]) bool {
	own := it.ToMap()
	for k, v := range other.All() {
		mine, ok := own[k]
		if !ok || !it.valuesEqual(mine, v) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether at least one entry yielded by other is also
// yielded by the receiver
func (it *Iterable[K, V]) ContainsAny(other *Iterable[K, V]) bool {
	own := it.ToMap()
	for k, v := range other.All() {
		if mine, ok := own[k]; ok && it.valuesEqual(mine, v) {
			return true
		}
	}
	return false
}
