package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/stats"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
)

type entry = iterator.Pair[int64, string]

func samplePairs() []entry {
	return []entry{
		{Key: -3, Value: "minus three"},
		{Key: 0, Value: ""},
		{Key: 7, Value: strings.Repeat("seven ", 40)},
	}
}

func newCodecs(t *testing.T, opts ...Option) (*Encoder[int64, string], *Decoder[int64, string]) {
	t.Helper()
	enc, err := NewEncoder(Int64(), String(), opts...)
	if err != nil {
		t.Fatalf("Failed to create encoder: %v", err)
	}
	t.Cleanup(func() { enc.Close() })
	dec, err := NewDecoder(Int64(), String(), opts...)
	if err != nil {
		t.Fatalf("Failed to create decoder: %v", err)
	}
	t.Cleanup(func() { dec.Close() })
	return enc, dec
}

func TestEncodeDecode(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionSnappy, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			enc, dec := newCodecs(t, WithCompression(c))

			var buf bytes.Buffer
			n, err := enc.Encode(&buf, samplePairs())
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if n != buf.Len() {
				t.Errorf("Expected %d bytes written, got %d", buf.Len(), n)
			}
			if got := Compression(buf.Bytes()[5]); got != c {
				t.Errorf("Expected compression %v in header, got %v", c, got)
			}

			pairs, err := dec.Decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(pairs, samplePairs()) {
				t.Errorf("Expected %v, got %v", samplePairs(), pairs)
			}
		})
	}
}

func TestCompressionShrinksRepetitiveBody(t *testing.T) {
	plain, _ := newCodecs(t)
	zstd, _ := newCodecs(t, WithCompression(CompressionZstd))

	a, err := plain.Marshal(samplePairs())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b, err := zstd.Marshal(samplePairs())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(b) >= len(a) {
		t.Errorf("Expected zstd envelope smaller than %d bytes, got %d", len(a), len(b))
	}
}

func TestDecodeConsecutiveEnvelopes(t *testing.T) {
	enc, dec := newCodecs(t)

	var buf bytes.Buffer
	if _, err := enc.Encode(&buf, samplePairs()[:1]); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := enc.Encode(&buf, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	first, err := dec.Decode(&buf)
	if err != nil || len(first) != 1 {
		t.Fatalf("Expected one entry, got %v (%v)", first, err)
	}
	second, err := dec.Decode(&buf)
	if err != nil || len(second) != 0 {
		t.Fatalf("Expected no entries, got %v (%v)", second, err)
	}
	if _, err := dec.Decode(&buf); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected ErrInvalidEnvelope on empty input, got %v", err)
	}
}

func TestCorruption(t *testing.T) {
	enc, dec := newCodecs(t)
	data, err := enc.Marshal(samplePairs())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	flipped := bytes.Clone(data)
	flipped[headerSize+2] ^= 0xff
	if _, err := dec.Unmarshal(flipped); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}

	badMagic := bytes.Clone(data)
	badMagic[0] = 0
	if _, err := dec.Unmarshal(badMagic); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected ErrInvalidEnvelope for bad magic, got %v", err)
	}

	if _, err := dec.Unmarshal(data[:len(data)-1]); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected ErrInvalidEnvelope for truncated data, got %v", err)
	}
	if _, err := dec.Unmarshal(data[:4]); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected ErrInvalidEnvelope for short data, got %v", err)
	}
}

func TestReadInto(t *testing.T) {
	enc, dec := newCodecs(t, WithCompression(CompressionSnappy))

	var buf bytes.Buffer
	if _, err := enc.Encode(&buf, samplePairs()); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	dst := store.NewLongMap[string]()
	dst.Put(0, "replaced")
	dst.Put(100, "kept")
	n, err := dec.ReadInto(&buf, dst)
	if err != nil {
		t.Fatalf("ReadInto failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 entries, got %d", n)
	}
	if dst.Size() != 4 {
		t.Errorf("Expected 4 entries in store, got %d", dst.Size())
	}
	if v, _ := dst.Get(0); v != "" {
		t.Errorf("Expected key 0 overwritten, got %q", v)
	}
}

func TestEncodeSeq(t *testing.T) {
	enc, dec := newCodecs(t)

	var buf bytes.Buffer
	seq := func(yield func(int64, string) bool) {
		_ = yield(1, "one") && yield(2, "two")
	}
	if _, err := enc.EncodeSeq(&buf, seq); err != nil {
		t.Fatalf("EncodeSeq failed: %v", err)
	}
	pairs, err := dec.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	expected := []entry{{Key: 1, Value: "one"}, {Key: 2, Value: "two"}}
	if !reflect.DeepEqual(pairs, expected) {
		t.Errorf("Expected %v, got %v", expected, pairs)
	}
}

func TestUnknownCompression(t *testing.T) {
	if _, err := NewEncoder(Int64(), String(), WithCompression(Compression(9))); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("Expected ErrUnknownCodec, got %v", err)
	}
	if _, err := ParseCompression("lz4"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("Expected ErrUnknownCodec, got %v", err)
	}
	if c, err := ParseCompression(" ZSTD "); err != nil || c != CompressionZstd {
		t.Errorf("Expected zstd, got %v (%v)", c, err)
	}
	if _, err := NewEncoder[int64, string](nil, String()); err == nil {
		t.Error("Expected error for missing key codec")
	}
}

func TestUseAfterClose(t *testing.T) {
	enc, dec := newCodecs(t, WithCompression(CompressionZstd))
	data, err := enc.Marshal(samplePairs())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	enc.Close()
	if _, err := enc.Marshal(samplePairs()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from closed encoder, got %v", err)
	}
	var buf bytes.Buffer
	if _, err := enc.Encode(&buf, samplePairs()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from closed encoder, got %v", err)
	}

	dec.Close()
	if _, err := dec.Unmarshal(data); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from closed decoder, got %v", err)
	}
}

func TestOversizedSnappyBody(t *testing.T) {
	body := protowire.AppendVarint(nil, MaxBodySize+1)
	body = append(body, 0x00, 0x01, 0x02, 0x03)

	data := make([]byte, headerSize, headerSize+len(body)+checksumSize)
	binary.LittleEndian.PutUint32(data[0:4], Magic)
	data[4] = CurrentVersion
	data[5] = byte(CompressionSnappy)
	binary.LittleEndian.PutUint32(data[6:10], uint32(len(body)))
	data = append(data, body...)
	data = binary.LittleEndian.AppendUint64(data, xxhash.Sum64(data))

	_, dec := newCodecs(t)
	if _, err := dec.Unmarshal(data); !errors.Is(err, ErrInvalidCompressedData) {
		t.Errorf("Expected ErrInvalidCompressedData, got %v", err)
	}
}

func TestStatsTracking(t *testing.T) {
	collector := stats.NewAtomicCollector()
	enc, dec := newCodecs(t, WithStats(collector))

	data, err := enc.Marshal(samplePairs())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := dec.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, err := dec.Unmarshal(data[:3]); err == nil {
		t.Fatal("Expected error for short data")
	}

	got := collector.GetStats()
	if got["total_bytes_encoded"] != uint64(len(data)) {
		t.Errorf("Expected %d encoded bytes, got %v", len(data), got["total_bytes_encoded"])
	}
	if got["total_bytes_decoded"] != uint64(len(data)) {
		t.Errorf("Expected %d decoded bytes, got %v", len(data), got["total_bytes_decoded"])
	}
	if got["encode_ops"] != uint64(1) {
		t.Errorf("Expected 1 encode op, got %v", got["encode_ops"])
	}
	if errs := got["errors"].(map[string]uint64); errs["decode_failed"] != 1 {
		t.Errorf("Expected 1 decode failure, got %v", errs)
	}
}

func TestCodecs(t *testing.T) {
	check := func(name string, err error, ok bool) {
		t.Helper()
		if err != nil || !ok {
			t.Errorf("%s: round trip failed (%v)", name, err)
		}
	}

	b, _ := Int().Append(nil, math.MinInt)
	i, err := Int().Decode(b)
	check("int", err, i == math.MinInt)

	b, _ = Int32().Append(nil, -42)
	i32, err := Int32().Decode(b)
	check("int32", err, i32 == -42)

	b, _ = Uint64().Append(nil, math.MaxUint64)
	u, err := Uint64().Decode(b)
	check("uint64", err, u == math.MaxUint64)

	b, _ = Float64().Append(nil, 2.5)
	f, err := Float64().Decode(b)
	check("float64", err, f == 2.5)

	b, _ = Bool().Append(nil, true)
	v, err := Bool().Decode(b)
	check("bool", err, v)

	b, _ = Bytes().Append(nil, []byte{1, 2})
	raw, err := Bytes().Decode(b)
	check("bytes", err, bytes.Equal(raw, []byte{1, 2}))

	type point struct{ X, Y int }
	b, _ = JSON[point]().Append(nil, point{X: 1, Y: 2})
	p, err := JSON[point]().Decode(b)
	check("json", err, p == point{X: 1, Y: 2})

	big, _ := Int64().Append(nil, math.MaxInt64)
	if _, err := Int32().Decode(big); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected overflow error, got %v", err)
	}
	if _, err := Int64().Decode([]byte{0x80}); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected truncated varint error, got %v", err)
	}
	if _, err := JSON[point]().Decode([]byte("{")); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected invalid JSON error, got %v", err)
	}
}

func TestTransportable(t *testing.T) {
	s := store.NewLongMap[string]()
	s.Put(12, "twelve")

	out := Transport(Int64(), String(), iterator.NewEntry[int64, string](s, 0))
	data, err := out.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	s.SetValueAt(0, "changed")

	in := NewTransportable(Int64(), String())
	if err := in.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if in.Key != 12 || in.Value != "twelve" {
		t.Errorf("Expected 12=twelve, got %v", in.Pair)
	}
	if err := in.UnmarshalBinary(append(data, 0)); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Expected ErrInvalidEnvelope for trailing bytes, got %v", err)
	}
}
