package store

import (
	"testing"
)

func TestMapPutKeepsKeysSorted(t *testing.T) {
	m := NewIntMap[string]()
	m.Put(5, "five")
	m.Put(1, "one")
	m.Put(3, "three")
	m.Put(3, "THREE")

	if m.Size() != 3 {
		t.Fatalf("expected size 3, got %d", m.Size())
	}

	expectedKeys := []int{1, 3, 5}
	expectedValues := []string{"one", "THREE", "five"}
	for i := range expectedKeys {
		if m.KeyAt(i) != expectedKeys[i] {
			t.Errorf("key at %d: expected %d, got %d", i, expectedKeys[i], m.KeyAt(i))
		}
		if m.ValueAt(i) != expectedValues[i] {
			t.Errorf("value at %d: expected %s, got %s", i, expectedValues[i], m.ValueAt(i))
		}
	}
}

func TestMapIndexOfKey(t *testing.T) {
	m := NewLongMap[int]()
	for _, k := range []int64{10, 20, 30} {
		m.Append(k, int(k))
	}

	if i := m.IndexOfKey(20); i != 1 {
		t.Errorf("expected index 1, got %d", i)
	}

	i := m.IndexOfKey(25)
	if i >= 0 {
		t.Fatalf("expected negative index for missing key, got %d", i)
	}
	if ^i != 2 {
		t.Errorf("expected insertion point 2, got %d", ^i)
	}

	if i := m.IndexOfKey(5); ^i != 0 {
		t.Errorf("expected insertion point 0, got %d", ^i)
	}
}

func TestMapAppendFallsBackToPut(t *testing.T) {
	m := NewArrayMap[string, int]()
	m.Append("b", 2)
	m.Append("c", 3)
	m.Append("a", 1)
	m.Append("c", 33)

	if m.String() != "{a=1, b=2, c=33}" {
		t.Errorf("unexpected map contents: %s", m.String())
	}
}

func TestMapRemoveAtAndDelete(t *testing.T) {
	m := NewIntMap[int]()
	for i := 0; i < 5; i++ {
		m.Put(i, i*10)
	}

	m.RemoveAt(0)
	if m.Size() != 4 || m.KeyAt(0) != 1 {
		t.Fatalf("unexpected state after RemoveAt: %s", m)
	}

	if !m.Delete(3) {
		t.Error("expected Delete(3) to report an existing key")
	}
	if m.Delete(3) {
		t.Error("expected second Delete(3) to report a missing key")
	}

	if m.String() != "{1=10, 2=20, 4=40}" {
		t.Errorf("unexpected map contents: %s", m.String())
	}

	if v, ok := m.Get(4); !ok || v != 40 {
		t.Errorf("expected Get(4) = 40, got %d (%v)", v, ok)
	}
	if _, ok := m.Get(0); ok {
		t.Error("expected Get(0) to miss")
	}
}

func TestMapCloneAndClear(t *testing.T) {
	m := NewLongMap[string]()
	m.Put(1, "a")
	m.Put(2, "b")

	c := m.Clone()
	m.Clear()

	if m.Size() != 0 {
		t.Errorf("expected empty map after Clear, got %s", m)
	}
	if c.Size() != 2 || c.Kind() != KindLong {
		t.Errorf("clone was affected by Clear or lost its kind: %s (%s)", c, c.Kind())
	}
}

func TestOf(t *testing.T) {
	m, err := Of([]string{"z", "x", "y"}, []int{26, 24, 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.String() != "{x=24, y=25, z=26}" {
		t.Errorf("unexpected map contents: %s", m.String())
	}
	if m.Kind() != KindObject {
		t.Errorf("expected %s, got %s", KindObject, m.Kind())
	}

	if _, err := Of([]string{"a"}, []int{}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestNewMap(t *testing.T) {
	m := NewMap[string, int](8)
	if m.Kind() != KindObject || m.Size() != 0 {
		t.Errorf("expected empty array-map, got kind %s with %d entries", m.Kind(), m.Size())
	}
	m.Put("b", 2)
	m.Put("a", 1)
	if m.String() != "{a=1, b=2}" {
		t.Errorf("unexpected map contents: %s", m.String())
	}

	if a := NewArrayMap[string, int](); a.Kind() != KindObject {
		t.Errorf("expected %s, got %s", KindObject, a.Kind())
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindObject, "array-map"},
		{KindInt, "sparse-array"},
		{KindLong, "long-sparse-array"},
		{Kind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Kind(%d).String() = %s, expected %s", tt.kind, got, tt.expected)
		}
	}
}

func TestNewKind(t *testing.T) {
	m := NewKind[int64, string](KindLong, 4)
	if m.Kind() != KindLong || m.Size() != 0 {
		t.Errorf("expected empty long map, got kind %s with %d entries", m.Kind(), m.Size())
	}

	m = NewKind[int64, string](KindInt, -1)
	m.Append(2, "b")
	if m.Kind() != KindInt || m.String() != "{2=b}" {
		t.Errorf("unexpected map %s of kind %s", m, m.Kind())
	}
}
