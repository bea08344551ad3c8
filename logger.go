package flowgraph

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/flowgraph-io/flowgraph/internal/infrastructure/logger"
	"github.com/flowgraph-io/flowgraph/internal/infrastructure/monitoring"
)

// RunObserver receives execution lifecycle events.
type RunObserver = monitoring.RunObserver

// ConsoleLogger is an observer writing structured execution logs.
type ConsoleLogger = monitoring.ConsoleLogger

// MetricsCollector aggregates in-process execution metrics.
type MetricsCollector = monitoring.MetricsCollector

// NetworkMetrics are the per-network aggregates.
type NetworkMetrics = monitoring.NetworkMetrics

// OpMetrics are the per-operation aggregates.
type OpMetrics = monitoring.OpMetrics

// MetricsSummary is the collector-wide rollup.
type MetricsSummary = monitoring.MetricsSummary

// SetupLogger configures and returns the process logger at the given
// level ("debug", "info", "warn", ...).
func SetupLogger(level string) zerolog.Logger { return logger.Setup(level) }

// SetupLoggerWriter is SetupLogger with an explicit destination.
func SetupLoggerWriter(level string, w io.Writer) zerolog.Logger {
	return logger.SetupWriter(level, w)
}

// NewConsoleLogger creates a logging observer on top of log.
func NewConsoleLogger(log zerolog.Logger) *ConsoleLogger {
	return monitoring.NewConsoleLogger(log)
}

// NewMetricsCollector creates an empty metrics collector.
func NewMetricsCollector() *MetricsCollector { return monitoring.NewMetricsCollector() }

// NewMetricsObserver adapts a collector to the RunObserver interface.
func NewMetricsObserver(collector *MetricsCollector) RunObserver {
	return monitoring.NewRecordingObserver(collector)
}
