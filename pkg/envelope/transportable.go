package envelope

import (
	"encoding"
	"fmt"

	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
)

// Transportable is a detached entry that can marshal itself. It carries the
// codecs needed to restore it.
type Transportable[K constraints.Ordered, V any] struct {
	iterator.Pair[K, V]

	keys   Codec[K]
	values Codec[V]
}

var (
	_ encoding.BinaryMarshaler   = (*Transportable[int, any])(nil)
	_ encoding.BinaryUnmarshaler = (*Transportable[int, any])(nil)
)

// NewTransportable returns an empty transportable entry, ready to be
// unmarshaled
func NewTransportable[K constraints.Ordered, V any](keys Codec[K], values Codec[V]) *Transportable[K, V] {
	return &Transportable[K, V]{keys: keys, values: values}
}

// Transport copies the current entry into a transportable one
func Transport[K constraints.Ordered, V any](keys Codec[K], values Codec[V], e iterator.Entry[K, V]) *Transportable[K, V] {
	return &Transportable[K, V]{Pair: e.Detach(), keys: keys, values: values}
}

// MarshalBinary encodes the key and the value as two length-prefixed fields
func (t *Transportable[K, V]) MarshalBinary() ([]byte, error) {
	key, err := t.keys.Append(nil, t.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode key %v: %w", t.Key, err)
	}
	value, err := t.values.Append(nil, t.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value of key %v: %w", t.Key, err)
	}
	b := protowire.AppendBytes(nil, key)
	return protowire.AppendBytes(b, value), nil
}

// UnmarshalBinary restores an entry written by MarshalBinary
func (t *Transportable[K, V]) UnmarshalBinary(data []byte) error {
	key, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return fmt.Errorf("%w: key: %v", ErrInvalidEnvelope, protowire.ParseError(n))
	}
	value, m := protowire.ConsumeBytes(data[n:])
	if m < 0 {
		return fmt.Errorf("%w: value: %v", ErrInvalidEnvelope, protowire.ParseError(m))
	}
	if n+m != len(data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidEnvelope, len(data)-n-m)
	}

	k, err := t.keys.Decode(key)
	if err != nil {
		return err
	}
	v, err := t.values.Decode(value)
	if err != nil {
		return err
	}
	t.Key, t.Value = k, v
	return nil
}
