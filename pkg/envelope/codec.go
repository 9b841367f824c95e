package envelope

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Codec converts keys or values to and from their wire form
type Codec[T any] interface {
	// Append appends the encoding of v to b
	Append(b []byte, v T) ([]byte, error)

	// Decode parses a value previously produced by Append
	Decode(b []byte) (T, error)
}

func consumeVarint(b []byte) (uint64, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEnvelope, protowire.ParseError(n))
	}
	if n != len(b) {
		return 0, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEnvelope, len(b)-n)
	}
	return v, nil
}

type int64Codec struct{}

func (int64Codec) Append(b []byte, v int64) ([]byte, error) {
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v)), nil
}

func (int64Codec) Decode(b []byte) (int64, error) {
	v, err := consumeVarint(b)
	if err != nil {
		return 0, err
	}
	return protowire.DecodeZigZag(v), nil
}

// Int64 encodes int64 values as zigzag varints
func Int64() Codec[int64] {
	return int64Codec{}
}

type intCodec struct{}

func (intCodec) Append(b []byte, v int) ([]byte, error) {
	return int64Codec{}.Append(b, int64(v))
}

func (intCodec) Decode(b []byte) (int, error) {
	v, err := int64Codec{}.Decode(b)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt || v > math.MaxInt {
		return 0, fmt.Errorf("%w: %d overflows int", ErrInvalidEnvelope, v)
	}
	return int(v), nil
}

// Int encodes int values as zigzag varints
func Int() Codec[int] {
	return intCodec{}
}

type int32Codec struct{}

func (int32Codec) Append(b []byte, v int32) ([]byte, error) {
	return int64Codec{}.Append(b, int64(v))
}

func (int32Codec) Decode(b []byte) (int32, error) {
	v, err := int64Codec{}.Decode(b)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d overflows int32", ErrInvalidEnvelope, v)
	}
	return int32(v), nil
}

// Int32 encodes int32 values as zigzag varints
func Int32() Codec[int32] {
	return int32Codec{}
}

type uint64Codec struct{}

func (uint64Codec) Append(b []byte, v uint64) ([]byte, error) {
	return protowire.AppendVarint(b, v), nil
}

func (uint64Codec) Decode(b []byte) (uint64, error) {
	return consumeVarint(b)
}

// Uint64 encodes uint64 values as varints
func Uint64() Codec[uint64] {
	return uint64Codec{}
}

type float64Codec struct{}

func (float64Codec) Append(b []byte, v float64) ([]byte, error) {
	return protowire.AppendFixed64(b, math.Float64bits(v)), nil
}

func (float64Codec) Decode(b []byte) (float64, error) {
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEnvelope, protowire.ParseError(n))
	}
	if n != len(b) {
		return 0, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEnvelope, len(b)-n)
	}
	return math.Float64frombits(v), nil
}

// Float64 encodes float64 values as fixed 64 bit words
func Float64() Codec[float64] {
	return float64Codec{}
}

type boolCodec struct{}

func (boolCodec) Append(b []byte, v bool) ([]byte, error) {
	return protowire.AppendVarint(b, protowire.EncodeBool(v)), nil
}

func (boolCodec) Decode(b []byte) (bool, error) {
	v, err := consumeVarint(b)
	if err != nil {
		return false, err
	}
	return protowire.DecodeBool(v), nil
}

// Bool encodes booleans as a one byte varint
func Bool() Codec[bool] {
	return boolCodec{}
}

type stringCodec struct{}

func (stringCodec) Append(b []byte, v string) ([]byte, error) {
	return append(b, v...), nil
}

func (stringCodec) Decode(b []byte) (string, error) {
	return string(b), nil
}

// String encodes strings as their raw bytes
func String() Codec[string] {
	return stringCodec{}
}

type bytesCodec struct{}

func (bytesCodec) Append(b []byte, v []byte) ([]byte, error) {
	return append(b, v...), nil
}

func (bytesCodec) Decode(b []byte) ([]byte, error) {
	return append([]byte(nil), b...), nil
}

// Bytes encodes byte slices verbatim. Decoded slices are copies.
func Bytes() Codec[[]byte] {
	return bytesCodec{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Append(b []byte, v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return append(b, data...), nil
}

func (jsonCodec[T]) Decode(b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return v, nil
}

// JSON encodes arbitrary values as JSON documents
func JSON[T any]() Codec[T] {
	return jsonCodec[T]{}
}
