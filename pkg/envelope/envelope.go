// Package envelope serializes detached entries so they can leave the process.
//
// An envelope is laid out as
//
//	magic (4) | version (1) | compression (1) | body length (4) | body | xxhash64 (8)
//
// The body is a varint entry count followed by a length-prefixed key and a
// length-prefixed value per entry, optionally compressed as a whole. The
// checksum covers every byte before it.
package envelope

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/stats"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/telemetry"
)

const (
	// Magic marks the start of an envelope ("SPRS")
	Magic = uint32(0x53505253)
	// CurrentVersion is the envelope format version
	CurrentVersion = uint8(1)

	headerSize   = 10
	checksumSize = 8

	// MaxBodySize bounds the body length accepted by decoders
	MaxBodySize = 64 << 20
)

var (
	// ErrInvalidEnvelope is returned when the data is not a well formed envelope
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrChecksumMismatch is returned when the trailer does not match the content
	ErrChecksumMismatch = errors.New("envelope checksum mismatch")

	// ErrUnknownCodec is returned when an unsupported compression codec is specified
	ErrUnknownCodec = errors.New("unknown compression codec")

	// ErrInvalidCompressedData is returned when the body cannot be decompressed
	ErrInvalidCompressedData = errors.New("invalid compressed data")

	// ErrClosed is returned when an encoder or decoder is used after Close
	ErrClosed = errors.New("envelope codec closed")
)

type options struct {
	compression Compression
	zstdLevel   int
	collector   stats.Collector
	tel         telemetry.Telemetry
	ctx         context.Context
}

// Option configures an Encoder or a Decoder
type Option func(*options)

// WithCompression sets the codec applied to the body by encoders
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithZstdLevel sets the zstd compression level, from 1 to 22
func WithZstdLevel(level int) Option {
	return func(o *options) {
		o.zstdLevel = level
	}
}

// WithStats tracks encoded and decoded bytes in collector
func WithStats(collector stats.Collector) Option {
	return func(o *options) {
		o.collector = collector
	}
}

// WithTelemetry records envelope sizes and latencies through tel
func WithTelemetry(tel telemetry.Telemetry) Option {
	return func(o *options) {
		o.tel = tel
	}
}

// WithContext sets the context passed to telemetry
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		compression: CompressionNone,
		zstdLevel:   3,
		tel:         telemetry.NewNoop(),
		ctx:         context.Background(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) record(op string, compression Compression, n int, start time.Time, err error) {
	if o.collector != nil {
		if err != nil {
			o.collector.TrackError(op + "_failed")
		} else {
			o.collector.TrackOperationWithLatency(stats.OperationType(op), uint64(time.Since(start).Nanoseconds()))
			o.collector.TrackBytes(op == telemetry.OpTypeEncode, uint64(n))
		}
	}

	attrs := []attribute.KeyValue{
		attribute.String(telemetry.AttrComponent, telemetry.ComponentEnvelope),
		attribute.String(telemetry.AttrOperationType, op),
		attribute.String(telemetry.AttrCompression, compression.String()),
	}
	if err != nil {
		o.tel.RecordCounter(o.ctx, telemetry.MetricErrors, 1, attrs...)
		return
	}
	telemetry.RecordDuration(o.ctx, o.tel, telemetry.MetricOperationLatency, start, attrs...)
	telemetry.RecordElements(o.ctx, o.tel, telemetry.MetricEnvelopeBytes, n, attrs...)
}

// Encoder writes entries as envelopes. It is safe for concurrent use.
type Encoder[K constraints.Ordered, V any] struct {
	keys   Codec[K]
	values Codec[V]
	opts   *options
	comp   *compressor
}

// NewEncoder creates an encoder using the given key and value codecs
func NewEncoder[K constraints.Ordered, V any](keys Codec[K], values Codec[V], opts ...Option) (*Encoder[K, V], error) {
	if keys == nil || values == nil {
		return nil, fmt.Errorf("key and value codecs are required")
	}
	o := newOptions(opts)
	if o.compression > CompressionZstd {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, o.compression)
	}
	comp, err := newCompressor(o.zstdLevel)
	if err != nil {
		return nil, err
	}
	return &Encoder[K, V]{keys: keys, values: values, opts: o, comp: comp}, nil
}

// Close releases the compression state
func (e *Encoder[K, V]) Close() error {
	e.comp.close()
	return nil
}

// Marshal returns the envelope holding pairs
func (e *Encoder[K, V]) Marshal(pairs []iterator.Pair[K, V]) (data []byte, err error) {
	start := time.Now()
	defer func() {
		e.opts.record(telemetry.OpTypeEncode, e.opts.compression, len(data), start, err)
	}()

	body := protowire.AppendVarint(nil, uint64(len(pairs)))
	var field []byte
	for _, p := range pairs {
		if field, err = e.keys.Append(field[:0], p.Key); err != nil {
			return nil, fmt.Errorf("failed to encode key %v: %w", p.Key, err)
		}
		body = protowire.AppendBytes(body, field)
		if field, err = e.values.Append(field[:0], p.Value); err != nil {
			return nil, fmt.Errorf("failed to encode value of key %v: %w", p.Key, err)
		}
		body = protowire.AppendBytes(body, field)
	}

	body, err = e.comp.compress(body, e.opts.compression)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds %d", ErrInvalidEnvelope, len(body), MaxBodySize)
	}

	data = make([]byte, headerSize, headerSize+len(body)+checksumSize)
	binary.LittleEndian.PutUint32(data[0:4], Magic)
	data[4] = CurrentVersion
	data[5] = byte(e.opts.compression)
	binary.LittleEndian.PutUint32(data[6:10], uint32(len(body)))
	data = append(data, body...)
	data = binary.LittleEndian.AppendUint64(data, xxhash.Sum64(data))
	return data, nil
}

// Encode writes the envelope holding pairs to w and returns the number of
// bytes written
func (e *Encoder[K, V]) Encode(w io.Writer, pairs []iterator.Pair[K, V]) (int, error) {
	data, err := e.Marshal(pairs)
	if err != nil {
		return 0, err
	}
	return w.Write(data)
}

// EncodeSeq writes the entries produced by seq, e.g. Iterable.All
func (e *Encoder[K, V]) EncodeSeq(w io.Writer, seq iter.Seq2[K, V]) (int, error) {
	var pairs []iterator.Pair[K, V]
	for k, v := range seq {
		pairs = append(pairs, iterator.Pair[K, V]{Key: k, Value: v})
	}
	return e.Encode(w, pairs)
}

// Decoder reads envelopes written by an Encoder with the same codecs
type Decoder[K constraints.Ordered, V any] struct {
	keys   Codec[K]
	values Codec[V]
	opts   *options
	comp   *compressor
}

// NewDecoder creates a decoder using the given key and value codecs. The
// compression is read from each envelope.
func NewDecoder[K constraints.Ordered, V any](keys Codec[K], values Codec[V], opts ...Option) (*Decoder[K, V], error) {
	if keys == nil || values == nil {
		return nil, fmt.Errorf("key and value codecs are required")
	}
	o := newOptions(opts)
	comp, err := newCompressor(o.zstdLevel)
	if err != nil {
		return nil, err
	}
	return &Decoder[K, V]{keys: keys, values: values, opts: o, comp: comp}, nil
}

// Close releases the compression state
func (d *Decoder[K, V]) Close() error {
	d.comp.close()
	return nil
}

// Unmarshal parses a complete envelope
func (d *Decoder[K, V]) Unmarshal(data []byte) (pairs []iterator.Pair[K, V], err error) {
	start := time.Now()
	compression := CompressionNone
	defer func() {
		d.opts.record(telemetry.OpTypeDecode, compression, len(data), start, err)
	}()

	if len(data) < headerSize+checksumSize {
		return nil, fmt.Errorf("%w: %d bytes is too small", ErrInvalidEnvelope, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != Magic {
		return nil, fmt.Errorf("%w: magic %x, expected %x", ErrInvalidEnvelope, magic, Magic)
	}
	if version := data[4]; version != CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, version)
	}
	compression = Compression(data[5])
	size := int(binary.LittleEndian.Uint32(data[6:10]))
	if len(data) != headerSize+size+checksumSize {
		return nil, fmt.Errorf("%w: body length %d does not match %d bytes", ErrInvalidEnvelope, size, len(data))
	}

	end := headerSize + size
	expected := binary.LittleEndian.Uint64(data[end:])
	if actual := xxhash.Sum64(data[:end]); actual != expected {
		return nil, fmt.Errorf("%w: envelope has %d, calculated %d", ErrChecksumMismatch, expected, actual)
	}

	body, err := d.comp.decompress(data[headerSize:end], compression)
	if err != nil {
		return nil, err
	}
	return d.parseBody(body)
}

func (d *Decoder[K, V]) parseBody(body []byte) ([]iterator.Pair[K, V], error) {
	count, n := protowire.ConsumeVarint(body)
	if n < 0 {
		return nil, fmt.Errorf("%w: entry count: %v", ErrInvalidEnvelope, protowire.ParseError(n))
	}
	body = body[n:]
	// every entry takes at least two bytes
	if count > uint64(len(body)/2) {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrInvalidEnvelope, count, len(body))
	}

	pairs := make([]iterator.Pair[K, V], 0, count)
	for i := uint64(0); i < count; i++ {
		field, n := protowire.ConsumeBytes(body)
		if n < 0 {
			return nil, fmt.Errorf("%w: key of entry %d: %v", ErrInvalidEnvelope, i, protowire.ParseError(n))
		}
		body = body[n:]
		key, err := d.keys.Decode(field)
		if err != nil {
			return nil, fmt.Errorf("key of entry %d: %w", i, err)
		}

		field, n = protowire.ConsumeBytes(body)
		if n < 0 {
			return nil, fmt.Errorf("%w: value of entry %d: %v", ErrInvalidEnvelope, i, protowire.ParseError(n))
		}
		body = body[n:]
		value, err := d.values.Decode(field)
		if err != nil {
			return nil, fmt.Errorf("value of entry %d: %w", i, err)
		}

		pairs = append(pairs, iterator.Pair[K, V]{Key: key, Value: value})
	}
	if len(body) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEnvelope, len(body))
	}
	return pairs, nil
}

// Decode reads exactly one envelope from r
func (d *Decoder[K, V]) Decode(r io.Reader) ([]iterator.Pair[K, V], error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidEnvelope, err)
	}
	size := binary.LittleEndian.Uint32(header[6:10])
	if size > MaxBodySize {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds %d", ErrInvalidEnvelope, size, MaxBodySize)
	}

	data := make([]byte, headerSize+int(size)+checksumSize)
	copy(data, header)
	if _, err := io.ReadFull(r, data[headerSize:]); err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrInvalidEnvelope, err)
	}
	return d.Unmarshal(data)
}

// ReadInto reads one envelope from r and puts its entries into dst. It
// returns the number of entries read. dst is untouched on failure.
func (d *Decoder[K, V]) ReadInto(r io.Reader, dst store.Store[K, V]) (int, error) {
	pairs, err := d.Decode(r)
	if err != nil {
		return 0, err
	}
	for _, p := range pairs {
		dst.Put(p.Key, p.Value)
	}
	return len(pairs), nil
}
