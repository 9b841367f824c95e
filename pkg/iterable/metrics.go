package iterable

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/filter"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/stats"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/telemetry"
)

const (
	opScan      = telemetry.OpTypeScan
	opRemove    = telemetry.OpTypeRemove
	opRetain    = telemetry.OpTypeRetain
	opReplace   = telemetry.OpTypeReplace
	opTranslate = telemetry.OpTypeTranslate
	opFill      = telemetry.OpTypeFill
	opPut       = telemetry.OpTypePut
	opAppend    = telemetry.OpTypeAppend
)

// Traversal summarizes one terminal operation
type Traversal struct {
	Operation string
	StoreKind string
	Reversed  bool
	Chain     int
	Scanned   int
	Accepted  int
	Removed   int
	Duration  time.Duration
}

// Metrics receives the outcome of every terminal operation
type Metrics interface {
	// RecordTraversal records a completed terminal operation
	RecordTraversal(ctx context.Context, t Traversal)

	// RecordError records a failed terminal operation
	RecordError(ctx context.Context, op string, err error)
}

// NoopMetrics discards everything
type NoopMetrics struct{}

// NewNoopMetrics creates a metrics sink that records nothing
func NewNoopMetrics() Metrics {
	return NoopMetrics{}
}

func (NoopMetrics) RecordTraversal(context.Context, Traversal) {}

func (NoopMetrics) RecordError(context.Context, string, error) {}

// TelemetryMetrics records terminal operations as OpenTelemetry instruments
type TelemetryMetrics struct {
	tel telemetry.Telemetry
}

// NewTelemetryMetrics creates a Metrics implementation backed by tel
func NewTelemetryMetrics(tel telemetry.Telemetry) *TelemetryMetrics {
	return &TelemetryMetrics{tel: tel}
}

// RecordTraversal records the operation count, latency and element counters
func (m *TelemetryMetrics) RecordTraversal(ctx context.Context, t Traversal) {
	attrs := []attribute.KeyValue{
		attribute.String(telemetry.AttrComponent, telemetry.ComponentIterable),
		attribute.String(telemetry.AttrOperationType, t.Operation),
		attribute.String(telemetry.AttrStoreKind, t.StoreKind),
		attribute.Bool(telemetry.AttrReversed, t.Reversed),
		attribute.Int(telemetry.AttrChainLength, t.Chain),
	}

	m.tel.RecordCounter(ctx, telemetry.MetricOperations, 1,
		append(attrs, attribute.String(telemetry.AttrStatus, telemetry.StatusSuccess))...)
	m.tel.RecordHistogram(ctx, telemetry.MetricOperationLatency, t.Duration.Seconds(), attrs...)
	telemetry.RecordElements(ctx, m.tel, telemetry.MetricScanned, t.Scanned, attrs...)
	telemetry.RecordElements(ctx, m.tel, telemetry.MetricAccepted, t.Accepted, attrs...)
	telemetry.RecordElements(ctx, m.tel, telemetry.MetricRemoved, t.Removed, attrs...)
}

// RecordError records a failed operation
func (m *TelemetryMetrics) RecordError(ctx context.Context, op string, err error) {
	attrs := []attribute.KeyValue{
		attribute.String(telemetry.AttrComponent, telemetry.ComponentIterable),
		attribute.String(telemetry.AttrOperationType, op),
		attribute.String(telemetry.AttrErrorType, errorType(err)),
	}
	m.tel.RecordCounter(ctx, telemetry.MetricErrors, 1, attrs...)
	m.tel.RecordCounter(ctx, telemetry.MetricOperations, 1,
		append(attrs, attribute.String(telemetry.AttrStatus, telemetry.StatusError))...)
}

// StatsMetrics records terminal operations into an atomic stats collector
type StatsMetrics struct {
	collector stats.Collector
}

// NewStatsMetrics creates a Metrics implementation backed by collector
func NewStatsMetrics(collector stats.Collector) *StatsMetrics {
	return &StatsMetrics{collector: collector}
}

// RecordTraversal tracks the operation latency and element counters
func (m *StatsMetrics) RecordTraversal(_ context.Context, t Traversal) {
	m.collector.TrackOperationWithLatency(stats.OperationType(t.Operation), uint64(t.Duration.Nanoseconds()))
	m.collector.TrackElements(uint64(t.Scanned), uint64(t.Accepted), uint64(t.Removed))
}

// RecordError tracks the error by type
func (m *StatsMetrics) RecordError(_ context.Context, _ string, err error) {
	m.collector.TrackError(errorType(err))
}

// MultiMetrics fans out to several sinks
type MultiMetrics []Metrics

func (mm MultiMetrics) RecordTraversal(ctx context.Context, t Traversal) {
	for _, m := range mm {
		m.RecordTraversal(ctx, t)
	}
}

func (mm MultiMetrics) RecordError(ctx context.Context, op string, err error) {
	for _, m := range mm {
		m.RecordError(ctx, op, err)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrDestinationTooSmall):
		return "destination_too_small"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrKeyExists):
		return "key_exists"
	case errors.Is(err, filter.ErrIllegalConfiguration):
		return "illegal_configuration"
	case errors.Is(err, iterator.ErrNoCurrentElement):
		return "no_current_element"
	case errors.Is(err, iterator.ErrExhausted):
		return "exhausted"
	default:
		return "other"
	}
}
