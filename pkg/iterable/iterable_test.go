package iterable_test

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator/bounded"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/log"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/iterable"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/stats"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/telemetry"
)

type pair = iterator.Pair[int, int]

// newStore creates a store with keys 0..n-1 mapped to themselves
func newStore(n int) *store.Map[int, int] {
	s := store.NewIntMap[int]()
	for i := 0; i < n; i++ {
		s.Append(i, i)
	}
	return s
}

func newIterable(s store.Store[int, int], opts ...iterable.Option) *iterable.Iterable[int, int] {
	return iterable.New(s, append([]iterable.Option{iterable.WithLogger(log.NewNopLogger())}, opts...)...)
}

func TestChainComposition(t *testing.T) {
	it := newIterable(newStore(6))

	twice := it.Only().Index(0, 2, 3, 5).Only().From(2).Keys()
	once := it.Filter(filter.Indices[pair](0, 2, 3, 5)).Filter(filter.From[pair](2)).Keys()

	assert.Equal(t, []int{2, 3, 5}, twice)
	assert.Equal(t, once, twice)
}

func TestButIsComplement(t *testing.T) {
	it := newIterable(newStore(5))

	assert.Equal(t, []int{3, 4}, it.Only().Last(2).Keys())
	assert.Equal(t, []int{0, 1, 2}, it.But().Last(2).Keys())
	assert.Equal(t, []int{1, 3}, it.Only().Index(1, 3).Keys())
	assert.Equal(t, []int{0, 2, 4}, it.But().Index(1, 3).Keys())
}

func TestReverseTwiceIsIdentity(t *testing.T) {
	it := newIterable(newStore(5)).Only().Range(1, 3)

	assert.Equal(t, it.Keys(), it.Reverse().Reverse().Keys())
	assert.Equal(t, []int{3, 2, 1}, it.Reverse().Keys())
	assert.False(t, it.Reverse().Reverse().IsReversed())
}

func TestRemoveDuringForwardIteration(t *testing.T) {
	s := newStore(5)
	it := newIterable(s)

	err := it.ForEach(func(c iterator.Iterator[int, int]) error {
		if c.Key()%2 == 1 {
			return c.Remove()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []pair{{Key: 0, Value: 0}, {Key: 2, Value: 2}, {Key: 4, Value: 4}}, it.Pairs())
}

func TestFirstWithReverse(t *testing.T) {
	it := newIterable(newStore(5))

	assert.Equal(t, []int{0, 1, 2}, it.Only().First(3).Keys())
	assert.Equal(t, []int{4, 3, 2}, it.Reverse().Only().First(3).Keys())
	assert.Equal(t, []int{1, 0}, it.Reverse().Only().Last(2).Keys())
}

func TestRetainMatchesRemoveOfComplement(t *testing.T) {
	filters := map[string]filter.Filter[pair]{
		"indices": filter.Indices[pair](1, 3),
		"last":    filter.Last[pair](2),
		"values":  filter.Must(filter.In[pair, int](filter.TranslatorFunc[pair, int](iterator.ValueOf[int, int]), 0, 4)),
	}
	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			retained := newStore(5)
			removed := newStore(5)

			newIterable(retained).Only().Filter(f).Retain()
			newIterable(removed).But().Filter(f).Remove()

			assert.Equal(t, retained.String(), removed.String())
		})
	}
}

func TestDoubleRemoveFails(t *testing.T) {
	it := newIterable(newStore(3))

	err := it.ForEach(func(c iterator.Iterator[int, int]) error {
		require.NoError(t, c.Remove())
		return c.Remove()
	})
	assert.ErrorIs(t, err, iterator.ErrNoCurrentElement)
}

func TestFromThenButLast(t *testing.T) {
	it := newIterable(newStore(5))
	assert.Equal(t, []int{2}, it.Only().From(2).But().Last(2).Keys())
}

func TestRemoveReturnsDeletedEntries(t *testing.T) {
	s := newStore(5)

	deleted := newIterable(s).Only().To(2).Reverse().Remove()

	assert.Equal(t, []int{2, 1, 0}, deleted.Values())
	assert.True(t, deleted.IsReversed())
	assert.Equal(t, "{3=3, 4=4}", s.String())
	assert.Equal(t, store.KindInt, deleted.ToStore().Kind())
}

func TestRetainReturnsRejectedEntries(t *testing.T) {
	s := newStore(5)

	deleted := newIterable(s).Only().Index(1, 3).Retain()

	assert.Equal(t, []int{0, 2, 4}, deleted.Keys())
	assert.Equal(t, "{1=1, 3=3}", s.String())
}

func TestContainsAnyValue(t *testing.T) {
	it := newIterable(newStore(5))

	assert.False(t, it.ContainsAnyValue(-2, -3))
	assert.True(t, it.ContainsAnyValue(2, 3))
	assert.False(t, it.Only().To(1).ContainsAnyValue(2, 3))
}

func TestQueries(t *testing.T) {
	s, err := store.Of([]int{0, 1, 2, 3, 4}, []int{7, 8, 7, 9, 7})
	require.NoError(t, err)
	it := newIterable(s)

	assert.True(t, it.ContainsKey(3))
	assert.False(t, it.Only().To(2).ContainsKey(3))
	assert.True(t, it.ContainsValue(9))
	assert.True(t, it.ContainsEntry(1, 8))
	assert.False(t, it.ContainsEntry(1, 7))
	assert.Equal(t, 3, it.CountOfValue(7))
	assert.Equal(t, 2, it.Only().From(1).CountOfValue(7))

	narrowed := it.Only().From(2)
	assert.Equal(t, 1, narrowed.FirstPositionOfKey(3))
	assert.Equal(t, 3, narrowed.FirstIndexOfKey(3))
	assert.Equal(t, -1, narrowed.FirstPositionOfKey(1))
	assert.Equal(t, -1, narrowed.FirstIndexOfKey(1))
	assert.Equal(t, 0, narrowed.FirstPositionOfValue(7))
	assert.Equal(t, 2, narrowed.FirstIndexOfValue(7))
	assert.Equal(t, 0, narrowed.Reverse().FirstPositionOfValue(7))
	assert.Equal(t, 4, narrowed.Reverse().FirstIndexOfValue(7))

	assert.True(t, it.ContainsAllKeys(0, 4))
	assert.False(t, it.ContainsAllKeys(0, 5))
	assert.True(t, it.ContainsAnyKey(5, 4))
	assert.False(t, it.ContainsAnyKey(5, 6))
	assert.True(t, it.ContainsAllValues(7, 8, 9))
	assert.False(t, it.ContainsAllValues(7, 10))
	assert.True(t, it.ContainsAllKeys())
}

func TestContainsAllAndAny(t *testing.T) {
	it := newIterable(newStore(5))

	assert.True(t, it.ContainsAll(it.Only().Range(1, 2)))
	assert.False(t, it.Only().To(1).ContainsAll(it.Only().Range(1, 2)))
	assert.True(t, it.Only().To(1).ContainsAny(it.Only().Range(1, 2)))
	assert.False(t, it.Only().To(0).ContainsAny(it.Only().Range(1, 2)))

	other := newStore(3)
	other.Put(1, 10)
	assert.False(t, it.ContainsAll(newIterable(other)))
}

func TestNarrowingByKeyAndValue(t *testing.T) {
	it := newIterable(newStore(5))

	assert.Equal(t, []int{3}, it.Only().Key(3).Keys())
	assert.Equal(t, []int{0, 2, 4}, it.But().Keys(1, 3).Keys())
	assert.Equal(t, []int{1, 2}, it.Only().KeysBetween(1, 3).Keys())
	assert.Equal(t, []int{2}, it.Only().Value(2).Keys())
	assert.Equal(t, []int{0, 4}, it.Only().Values(0, 4).Keys())
	assert.Equal(t, []int{1, 2, 3}, it.But().Values(0, 4).Keys())

	odd, err := it.Only().Where(func(k, _ int) bool { return k%2 == 1 })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, odd.Keys())

	_, err = it.Only().Where(nil)
	assert.ErrorIs(t, err, filter.ErrIllegalConfiguration)

	assert.Equal(t, []int{1, 2}, it.Only().In(it.Only().Range(1, 2)).Keys())
}

func TestKeysWithin(t *testing.T) {
	it := newIterable(newStore(5))

	assert.Equal(t, []int{3, 4}, it.Only().KeysWithin(bounded.AtLeast(3)).Keys())
	assert.Equal(t, []int{0, 1, 2}, it.But().KeysWithin(bounded.AtLeast(3)).Keys())
	assert.Equal(t, []int{0, 1}, it.Only().KeysWithin(bounded.Below(2)).Keys())
	assert.Equal(t, []int{3, 2}, it.Reverse().Only().KeysWithin(bounded.Between(2, 4)).Keys())
	assert.Empty(t, it.Only().KeysWithin(bounded.Between(3, 3)).Keys())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, it.But().KeysWithin(bounded.Between(3, 3)).Keys())
}

func TestUnfiltered(t *testing.T) {
	it := newIterable(newStore(5))

	narrowed := it.Only().To(1).Reverse()
	assert.Equal(t, []int{1, 0}, narrowed.Keys())

	all := narrowed.Unfiltered()
	assert.True(t, all.IsReversed())
	assert.Equal(t, 0, all.Chain().Len())
	assert.Equal(t, []int{4, 3, 2, 1, 0}, all.Keys())
	assert.Equal(t, []int{1, 0}, narrowed.Keys())
}

func TestNilValue(t *testing.T) {
	one := 1
	s := store.NewArrayMap[string, *int]()
	s.Put("a", &one)
	s.Put("b", nil)
	it := iterable.New[string, *int](s, iterable.WithLogger(log.NewNopLogger()))

	assert.Equal(t, []string{"b"}, it.Only().NilValue().Keys())
	assert.Equal(t, []string{"a"}, it.But().NilValue().Keys())
}

func TestProjectedMembership(t *testing.T) {
	it := newIterable(newStore(5))
	parity := filter.TranslatorFunc[pair, int](func(p pair) int { return p.Value % 2 })

	even, err := iterable.OnlyProjected[int, int, int](it, parity, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, even.Keys())

	odd, err := iterable.ButProjected[int, int, int](it, parity, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, odd.Keys())

	values := []int{3, 1}
	sorted, err := iterable.OnlySorted[int, int, int](it, filter.TranslatorFunc[pair, int](iterator.ValueOf[int, int]), values)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, sorted.Keys())
	assert.Equal(t, []int{3, 1}, values)

	rest, err := iterable.ButSorted[int, int, int](it, filter.TranslatorFunc[pair, int](iterator.ValueOf[int, int]), values)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, rest.Keys())

	_, err = iterable.OnlyProjected[int, int, int](it, nil, 0)
	assert.ErrorIs(t, err, filter.ErrIllegalConfiguration)
}

func TestSameConfigurationYieldsSameSequence(t *testing.T) {
	it := newIterable(newStore(5)).Only().Last(3).Reverse()

	assert.Equal(t, []int{2, 1, 0}, it.Keys())
	assert.Equal(t, it.Keys(), it.Keys())
	assert.Equal(t, 3, it.Count())
	assert.False(t, it.IsEmpty())
	assert.True(t, it.Only().Index(4).IsEmpty())
	assert.Equal(t, map[int]int{0: 0, 1: 1, 2: 2}, it.ToMap())
}

func TestAllStopsEarly(t *testing.T) {
	it := newIterable(newStore(5))

	var keys []int
	for k := range it.All() {
		if k == 2 {
			break
		}
		keys = append(keys, k)
	}
	assert.Equal(t, []int{0, 1}, keys)

	var detached []pair
	for e := range it.Reverse().Only().First(2).Entries() {
		detached = append(detached, e.Detach())
	}
	assert.Equal(t, []pair{{Key: 4, Value: 4}, {Key: 3, Value: 3}}, detached)
}

func TestReplaceValues(t *testing.T) {
	s := newStore(5)
	it := newIterable(s)

	n, err := it.Only().From(3).ReplaceValues(filter.TranslatorFunc[pair, int](func(p pair) int {
		return p.Value * 10
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "{0=0, 1=1, 2=2, 3=30, 4=40}", s.String())

	_, err = it.ReplaceValues(nil)
	assert.ErrorIs(t, err, filter.ErrIllegalConfiguration)
}

func TestPutInto(t *testing.T) {
	dst := store.NewIntMap[int]()
	dst.Put(1, 100)
	dst.Put(9, 9)

	n := newIterable(newStore(5)).Only().To(1).PutInto(dst)

	assert.Equal(t, 2, n)
	assert.Equal(t, "{0=0, 1=1, 9=9}", dst.String())
}

func TestAppendTo(t *testing.T) {
	it := newIterable(newStore(5))

	dst := store.NewIntMap[int]()
	require.NoError(t, it.Reverse().Only().From(3).AppendTo(dst))
	assert.Equal(t, "{3=3, 4=4}", dst.String())

	err := it.Only().Range(2, 3).AppendTo(dst)
	assert.ErrorIs(t, err, iterable.ErrKeyExists)
	assert.Equal(t, "{3=3, 4=4}", dst.String())
}

func TestTranslate(t *testing.T) {
	s := newStore(5)
	it := newIterable(s)

	negated, err := iterable.TranslateKeys[int, int, int](it.Only().From(3),
		filter.TranslatorFunc[pair, int](func(p pair) int { return -p.Key }))
	require.NoError(t, err)
	assert.Equal(t, []int{-4, -3}, negated.Keys())
	assert.Equal(t, []int{4, 3}, negated.Values())
	assert.Equal(t, store.KindInt, negated.ToStore().Kind())

	names, err := iterable.TranslateValues[int, int, string](it.Only().To(1),
		filter.TranslatorFunc[pair, string](func(p pair) string { return strconv.Itoa(p.Value) }))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, names.Values())

	labels, err := iterable.Translate[int, int, string, int](it.Only().Range(1, 2),
		filter.TranslatorFunc[pair, string](func(p pair) string { return "k" + strconv.Itoa(p.Key) }),
		filter.TranslatorFunc[pair, int](iterator.ValueOf[int, int]))
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, labels.Keys())
	assert.Equal(t, store.KindObject, labels.ToStore().Kind())

	_, err = iterable.TranslateValues[int, int, string](it, nil)
	assert.ErrorIs(t, err, filter.ErrIllegalConfiguration)

	assert.Equal(t, "{0=0, 1=1, 2=2, 3=3, 4=4}", s.String())
}

func TestTranslateBack(t *testing.T) {
	s := newStore(5)
	it := newIterable(s)

	text, err := filter.Reversible(strconv.Itoa, func(v string) int {
		n, _ := strconv.Atoi(v)
		return n
	})
	require.NoError(t, err)

	err = iterable.TranslateBack[int, int, string](it.Only().From(3), text, func(v string) string { return v + "0" }, s)
	require.NoError(t, err)
	assert.Equal(t, "{0=0, 1=1, 2=2, 3=30, 4=40}", s.String())

	err = iterable.TranslateBack[int, int, string](it, text, nil, s)
	assert.ErrorIs(t, err, filter.ErrIllegalConfiguration)
}

func TestFillValues(t *testing.T) {
	it := newIterable(newStore(5))

	dst := make([]int, 7)
	n, err := it.FillValues(dst, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{0, 0, 0, 1, 2, 3, 4}, dst)

	small := []int{-1, -1, -1}
	_, err = it.FillValues(small, 0)
	assert.ErrorIs(t, err, iterable.ErrDestinationTooSmall)
	assert.Equal(t, []int{-1, -1, -1}, small)

	_, err = it.Only().To(1).FillValues(small, 2)
	assert.ErrorIs(t, err, iterable.ErrDestinationTooSmall)

	_, err = it.FillValues(dst, -1)
	assert.ErrorIs(t, err, iterable.ErrDestinationTooSmall)

	keys := make([]int, 2)
	n, err = it.Reverse().Only().First(2).FillKeys(keys, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{4, 3}, keys)

	pairs := make([]pair, 1)
	_, err = it.Only().Key(2).FillPairs(pairs, 0)
	require.NoError(t, err)
	assert.Equal(t, pair{Key: 2, Value: 2}, pairs[0])

	assert.Equal(t, []int{9, 3, 4}, it.Only().From(3).AppendValues([]int{9}))
}

func TestFillInto(t *testing.T) {
	it := newIterable(newStore(3))

	var array [4]int
	n, err := it.FillInto(&array, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, [4]int{0, 0, 1, 2}, array)

	anything := make([]any, 3)
	_, err = it.FillInto(anything, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2}, anything)

	pairs := make([]pair, 3)
	_, err = it.FillInto(pairs, 0)
	require.NoError(t, err)
	assert.Equal(t, pair{Key: 1, Value: 1}, pairs[1])

	_, err = it.FillInto(make([]string, 3), 0)
	assert.ErrorIs(t, err, iterable.ErrTypeMismatch)

	_, err = it.FillInto(array, 0)
	assert.ErrorIs(t, err, iterable.ErrTypeMismatch)

	_, err = it.FillInto(make([]int, 2), 0)
	assert.ErrorIs(t, err, iterable.ErrDestinationTooSmall)
}

func TestIsEqualTo(t *testing.T) {
	s := newStore(3)
	it := newIterable(s)

	assert.True(t, it.IsEqualTo(map[int]int{0: 0, 1: 1, 2: 2}))
	assert.False(t, it.IsEqualTo(map[int]int{0: 0, 1: 1}))
	assert.True(t, it.IsEqualTo(s.Clone()))
	assert.True(t, it.Only().To(1).IsEqualTo(newStore(2)))
	assert.True(t, it.IsEqualTo([]int{0, 1, 2}))
	assert.False(t, it.IsEqualTo([]int{2, 1, 0}))
	assert.True(t, it.Reverse().IsEqualTo([]int{2, 1, 0}))
	assert.True(t, it.Reverse().IsEqualTo(map[int]int{0: 0, 1: 1, 2: 2}))
	assert.True(t, it.IsEqualTo([]pair{{Key: 0, Value: 0}, {Key: 1, Value: 1}, {Key: 2, Value: 2}}))
	assert.True(t, it.Only().From(1).IsEqualTo(it.But().First(1)))
	assert.False(t, it.IsEqualTo(it.Reverse()))
	assert.False(t, it.IsEqualTo("{0=0, 1=1, 2=2}"))
}

func TestIsStrictlyEqualTo(t *testing.T) {
	s := newStore(3)
	it := newIterable(s)

	assert.True(t, it.IsStrictlyEqualTo(s.Clone()))
	assert.False(t, it.IsStrictlyEqualTo(map[int]int{0: 0, 1: 1, 2: 2}))

	array := store.NewArrayMap[int, int]()
	for i := 0; i < 3; i++ {
		array.Put(i, i)
	}
	assert.True(t, it.IsEqualTo(array))
	assert.False(t, it.IsStrictlyEqualTo(array))
}

func TestWithEqual(t *testing.T) {
	s := store.NewArrayMap[string, string]()
	s.Put("a", "Alpha")
	s.Put("b", "beta")

	it := iterable.New[string, string](s,
		iterable.WithLogger(log.NewNopLogger()),
		iterable.WithEqual(func(a, b any) bool {
			return bytes.EqualFold([]byte(a.(string)), []byte(b.(string)))
		}))

	assert.True(t, it.ContainsValue("ALPHA"))
	assert.Equal(t, []string{"b"}, it.Only().Value("BETA").Keys())
}

func TestDefaultEqual(t *testing.T) {
	one, other := 1, 1
	s := store.NewArrayMap[string, *int]()
	s.Put("a", &one)
	it := iterable.New[string, *int](s, iterable.WithLogger(log.NewNopLogger()))

	assert.True(t, it.ContainsValue(&one))
	assert.False(t, it.ContainsValue(&other))
	assert.Empty(t, it.Only().Value(&other).Keys())

	assert.True(t, iterable.DefaultEqual([]int{1, 2}, []int{1, 2}))
	assert.False(t, iterable.DefaultEqual([]int{1, 2}, []int{2, 1}))
	assert.True(t, iterable.DefaultEqual(nil, nil))
	assert.False(t, iterable.DefaultEqual(1, nil))
	assert.False(t, iterable.DefaultEqual(1, int64(1)))
	assert.True(t, iterable.DefaultEqual(pair{Key: 1, Value: 2}, pair{Key: 1, Value: 2}))
}

func TestNoopMetrics(t *testing.T) {
	it := newIterable(newStore(3), iterable.WithMetrics(iterable.NewNoopMetrics()))

	assert.Equal(t, 3, it.Count())
	assert.Equal(t, []int{0}, it.Only().To(0).Remove().Keys())
	assert.Equal(t, []int{1, 2}, it.Keys())
}

func TestStatsMetrics(t *testing.T) {
	collector := stats.NewAtomicCollector()
	it := newIterable(newStore(5), iterable.WithMetrics(iterable.NewStatsMetrics(collector)))

	it.Only().To(2).Remove()
	_, err := it.FillValues(nil, 0)
	require.Error(t, err)

	got := collector.GetStats()
	assert.Equal(t, uint64(1), got["remove_ops"])
	assert.Equal(t, uint64(3), got["elements_removed"])
	assert.Equal(t, uint64(5), got["elements_scanned"])
	assert.Equal(t, uint64(1), got["errors"].(map[string]uint64)["destination_too_small"])
}

func TestTelemetryMetrics(t *testing.T) {
	tel, reader, err := telemetry.NewInMemory()
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	it := newIterable(newStore(5), iterable.WithMetrics(iterable.NewTelemetryMetrics(tel)))
	assert.Equal(t, 2, it.Only().From(3).Count())
	it.Only().Key(0).Remove()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums[telemetry.MetricOperations])
	assert.Equal(t, int64(3), sums[telemetry.MetricAccepted])
	assert.Equal(t, int64(1), sums[telemetry.MetricRemoved])
}

func TestRemoveLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewStandardLogger(log.WithOutput(&buf), log.WithLevel(log.LevelDebug))
	it := iterable.New[int, int](newStore(5), iterable.WithLogger(logger))

	it.Only().First(2).Remove()
	assert.Contains(t, buf.String(), "removed=2")
	assert.Contains(t, buf.String(), "removed filtered entries")

	buf.Reset()
	_, err := it.FillKeys(nil, 0)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "[WARN]")
}
