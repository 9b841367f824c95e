package iterable

import (
	"context"
	"iter"
	"reflect"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/constraints"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator/filtered"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/log"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

// settings are shared, read-only, by every configuration derived from the
// same New call
type settings struct {
	ctx     context.Context
	logger  log.Logger
	metrics Metrics
	equal   func(a, b any) bool
}

// Option configures an Iterable
type Option func(*settings)

// WithLogger sets the logger used to report bulk mutations and failures
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMetrics sets the sink receiving one record per terminal operation
func WithMetrics(metrics Metrics) Option {
	return func(s *settings) {
		s.metrics = metrics
	}
}

// WithContext sets the context passed to the metrics sink
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		s.ctx = ctx
	}
}

// WithEqual overrides the value equality used by value filters, queries and
// IsEqualTo
func WithEqual(equal func(a, b any) bool) Option {
	return func(s *settings) {
		s.equal = equal
	}
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// DefaultEqual compares two values with == when their type is comparable and
// has no Equal method, so pointers compare by identity. Other values, such as
// slices and maps, are compared structurally with unexported fields included.
// Types with an Equal method are compared through it.
func DefaultEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if _, ok := va.Type().MethodByName("Equal"); !ok && va.Comparable() && vb.Comparable() {
		return a == b
	}
	return cmp.Equal(a, b, exportAll)
}

// Iterable is an immutable traversal configuration over a store
type Iterable[K constraints.Ordered, V any] struct {
	store    store.Store[K, V]
	chain    filter.Chain[iterator.Pair[K, V]]
	reverse  bool
	settings *settings
}

// New creates an unfiltered, forward Iterable over s. The store is borrowed,
// never copied.
func New[K constraints.Ordered, V any](s store.Store[K, V], opts ...Option) *Iterable[K, V] {
	cfg := &settings{
		ctx:     context.Background(),
		logger:  log.GetDefaultLogger(),
		metrics: NewNoopMetrics(),
		equal:   DefaultEqual,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Iterable[K, V]{store: s, settings: cfg}
}

// derive returns an Iterable over s sharing the receiver settings
func (it *Iterable[K, V]) derive(s store.Store[K, V], chain filter.Chain[iterator.Pair[K, V]], reverse bool) *Iterable[K, V] {
	return &Iterable[K, V]{store: s, chain: chain, reverse: reverse, settings: it.settings}
}

// Store returns the backing store
func (it *Iterable[K, V]) Store() store.Store[K, V] {
	return it.store
}

// Chain returns the accumulated filter chain
func (it *Iterable[K, V]) Chain() filter.Chain[iterator.Pair[K, V]] {
	return it.chain
}

// IsReversed reports whether traversal starts from the highest index
func (it *Iterable[K, V]) IsReversed() bool {
	return it.reverse
}

// Reverse returns the same configuration scanning in the opposite direction
func (it *Iterable[K, V]) Reverse() *Iterable[K, V] {
	return it.derive(it.store, it.chain, !it.reverse)
}

// Filter returns a configuration with f appended to the chain
func (it *Iterable[K, V]) Filter(f filter.Filter[iterator.Pair[K, V]]) *Iterable[K, V] {
	return it.derive(it.store, it.chain.Append(f), it.reverse)
}

// Unfiltered returns the configuration with an empty chain, keeping the
// direction
func (it *Iterable[K, V]) Unfiltered() *Iterable[K, V] {
	return it.derive(it.store, filter.Chain[iterator.Pair[K, V]]{}, it.reverse)
}

// Cursor creates a new cursor bound to the configuration
func (it *Iterable[K, V]) Cursor() *filtered.Cursor[K, V] {
	return filtered.NewCursor(it.store, it.chain, it.reverse)
}

func (it *Iterable[K, V]) storeKind() string {
	if k, ok := it.store.(store.Kinded); ok {
		return k.Kind().String()
	}
	return "custom"
}

// run drives fn with a fresh cursor and records the traversal
func (it *Iterable[K, V]) run(op string, fn func(c *filtered.Cursor[K, V]) error) error {
	return it.execute(op, func(c *filtered.Cursor[K, V]) (int, error) {
		return 0, fn(c)
	})
}

// execute is run for operations deleting entries without the cursor. fn
// returns the number of those deletions.
func (it *Iterable[K, V]) execute(op string, fn func(c *filtered.Cursor[K, V]) (int, error)) error {
	start := time.Now()
	c := it.Cursor()
	removed, err := fn(c)
	if err != nil {
		it.settings.metrics.RecordError(it.settings.ctx, op, err)
		it.settings.logger.WithField("op", op).Warn("operation failed: %v", err)
		return err
	}
	it.settings.metrics.RecordTraversal(it.settings.ctx, Traversal{
		Operation: op,
		StoreKind: it.storeKind(),
		Reversed:  it.reverse,
		Chain:     it.chain.Len(),
		Scanned:   c.Scanned(),
		Accepted:  c.Accepted(),
		Removed:   c.Removed() + removed,
		Duration:  time.Since(start),
	})
	return nil
}

// scan is run for operations which cannot fail
func (it *Iterable[K, V]) scan(op string, fn func(c *filtered.Cursor[K, V])) {
	_ = it.run(op, func(c *filtered.Cursor[K, V]) error {
		fn(c)
		return nil
	})
}

func (it *Iterable[K, V]) valuesEqual(a, b V) bool {
	return it.settings.equal(a, b)
}

// All returns the filtered entries as a key/value sequence. Each range over
// the sequence starts a new traversal.
func (it *Iterable[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		it.scan(opScan, func(c *filtered.Cursor[K, V]) {
			for c.Next() {
				if !yield(c.Key(), c.Value()) {
					return
				}
			}
		})
	}
}

// Entries returns the filtered entries as live views. An entry is only valid
// until the sequence advances.
func (it *Iterable[K, V]) Entries() iter.Seq[iterator.Entry[K, V]] {
	return func(yield func(iterator.Entry[K, V]) bool) {
		it.scan(opScan, func(c *filtered.Cursor[K, V]) {
			for c.Next() {
				e, _ := c.Entry()
				if !yield(e) {
					return
				}
			}
		})
	}
}

// ForEach calls fn once per filtered entry with the cursor positioned on it.
// fn may update or remove the current entry through the cursor. Iteration
// stops at the first error, which is returned.
func (it *Iterable[K, V]) ForEach(fn func(c iterator.Iterator[K, V]) error) error {
	return it.run(opScan, func(c *filtered.Cursor[K, V]) error {
		for c.Next() {
			if err := fn(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys returns the filtered keys in traversal order
func (it *Iterable[K, V]) Keys() []K {
	var keys []K
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			keys = append(keys, c.Key())
		}
	})
	return keys
}

// Values returns the filtered values in traversal order
func (it *Iterable[K, V]) Values() []V {
	var values []V
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			values = append(values, c.Value())
		}
	})
	return values
}

// Pairs returns detached copies of the filtered entries in traversal order
func (it *Iterable[K, V]) Pairs() []iterator.Pair[K, V] {
	var pairs []iterator.Pair[K, V]
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			pairs = append(pairs, iterator.Pair[K, V]{Key: c.Key(), Value: c.Value()})
		}
	})
	return pairs
}

// Count returns the number of filtered entries
func (it *Iterable[K, V]) Count() int {
	n := 0
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			n++
		}
	})
	return n
}

// IsEmpty reports whether no entry passes the filters
func (it *Iterable[K, V]) IsEmpty() bool {
	empty := true
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		empty = !c.Next()
	})
	return empty
}

// ToMap copies the filtered entries into a Go map
func (it *Iterable[K, V]) ToMap() map[K]V {
	m := make(map[K]V)
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			m[c.Key()] = c.Value()
		}
	})
	return m
}

// ToStore copies the filtered entries into a new store of the same kind
func (it *Iterable[K, V]) ToStore() *store.Map[K, V] {
	dst := it.newStore(0)
	it.scan(opScan, func(c *filtered.Cursor[K, V]) {
		for c.Next() {
			dst.Put(c.Key(), c.Value())
		}
	})
	return dst
}

func (it *Iterable[K, V]) kind() store.Kind {
	if k, ok := it.store.(store.Kinded); ok {
		return k.Kind()
	}
	return store.KindObject
}

func (it *Iterable[K, V]) newStore(capacity int) *store.Map[K, V] {
	return store.NewKind[K, V](it.kind(), capacity)
}
