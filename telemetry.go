package flowgraph

import (
	"context"

	"github.com/flowgraph-io/flowgraph/internal/infrastructure/telemetry"
)

// TelemetryConfig holds OpenTelemetry provider settings.
type TelemetryConfig = telemetry.Config

// TelemetryProvider exports engine metrics through Prometheus.
type TelemetryProvider = telemetry.Provider

// DefaultTelemetryConfig returns the default telemetry settings.
func DefaultTelemetryConfig() TelemetryConfig { return telemetry.DefaultConfig() }

// NewTelemetryProvider creates a provider with a Prometheus reader;
// attach provider.Observer() to an engine to record runs.
func NewTelemetryProvider(ctx context.Context, cfg TelemetryConfig) (*TelemetryProvider, error) {
	return telemetry.NewProvider(ctx, cfg)
}
