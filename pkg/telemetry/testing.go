// ABOUTME: Test helpers for telemetry: a disabled instance and an in-memory provider
// ABOUTME: The in-memory provider records into a manual reader so tests can collect real metric data

package telemetry

import (
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// NewForTesting returns a no-op telemetry instance for use in tests.
func NewForTesting() Telemetry {
	return NewNoop()
}

// NewInMemory returns an enabled provider without exporters whose metrics are
// collected through the returned manual reader.
func NewInMemory() (Telemetry, *sdkmetric.ManualReader, error) {
	reader := sdkmetric.NewManualReader()
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporters = nil
	tel, err := New(cfg, WithReader(reader))
	if err != nil {
		return nil, nil, err
	}
	return tel, reader, nil
}
