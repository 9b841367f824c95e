// ABOUTME: Core telemetry abstraction interface over OpenTelemetry for sparse iterable instrumentation
// ABOUTME: Provides metric recording, tracing, and lifecycle management with a no-op implementation

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides the core abstraction over OpenTelemetry for the iteration engine.
// Components use this interface to record metrics and spans without depending directly on OpenTelemetry.
type Telemetry interface {
	// RecordHistogram records a histogram value with optional attributes.
	RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue)

	// RecordCounter records a counter increment with optional attributes.
	RecordCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue)

	// StartSpan creates a new tracing span with the given name and attributes.
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)

	// Shutdown flushes and stops all telemetry providers.
	Shutdown(ctx context.Context) error
}

// NoopTelemetry provides a no-operation implementation of Telemetry for tests or disabled setups.
type NoopTelemetry struct{}

// NewNoop creates a new no-operation telemetry instance.
func NewNoop() Telemetry {
	return &NoopTelemetry{}
}

// RecordHistogram is a no-op.
func (n *NoopTelemetry) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) {
}

// RecordCounter is a no-op.
func (n *NoopTelemetry) RecordCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
}

// StartSpan returns the original context and the span already stored in it.
func (n *NoopTelemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

// Shutdown is a no-op.
func (n *NoopTelemetry) Shutdown(ctx context.Context) error {
	return nil
}

// RecordDuration records the seconds elapsed since start in a histogram.
func RecordDuration(ctx context.Context, tel Telemetry, name string, start time.Time, attrs ...attribute.KeyValue) {
	tel.RecordHistogram(ctx, name, time.Since(start).Seconds(), attrs...)
}

// RecordElements records a number of elements in a counter. Zero counts are skipped.
func RecordElements(ctx context.Context, tel Telemetry, name string, n int, attrs ...attribute.KeyValue) {
	if n == 0 {
		return
	}
	tel.RecordCounter(ctx, name, int64(n), attrs...)
}

// Metric names
const (
	MetricOperations       = "sparse.operations"
	MetricOperationLatency = "sparse.operation.duration"
	MetricScanned          = "sparse.elements.scanned"
	MetricAccepted         = "sparse.elements.accepted"
	MetricRemoved          = "sparse.elements.removed"
	MetricErrors           = "sparse.errors"
	MetricEnvelopeBytes    = "sparse.envelope.bytes"
)

// Common attribute keys for consistent naming across components
const (
	AttrOperationType = "operation.type"
	AttrComponent     = "component"
	AttrStatus        = "status"
	AttrErrorType     = "error.type"
	AttrStoreKind     = "store.kind"
	AttrReversed      = "iteration.reversed"
	AttrChainLength   = "chain.length"
	AttrCompression   = "envelope.compression"
	AttrCommand       = "shell.command"
)

// Common attribute values
const (
	OpTypeScan      = "scan"
	OpTypeRemove    = "remove"
	OpTypeRetain    = "retain"
	OpTypeReplace   = "replace"
	OpTypeTranslate = "translate"
	OpTypeFill      = "fill"
	OpTypePut       = "put"
	OpTypeAppend    = "append"
	OpTypeEncode    = "encode"
	OpTypeDecode    = "decode"

	StatusSuccess = "success"
	StatusError   = "error"

	ComponentIterable = "iterable"
	ComponentEnvelope = "envelope"
	ComponentShell    = "shell"
)
