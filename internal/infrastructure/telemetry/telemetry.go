package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	meterName = "flowgraph"

	metricRunsTotal   = "flowgraph.runs.total"
	metricRunFailures = "flowgraph.runs.failures.total"
	metricRunDuration = "flowgraph.run.duration"
	metricOpsTotal    = "flowgraph.ops.total"
	metricOpFailures  = "flowgraph.ops.failures.total"
	metricOpDuration  = "flowgraph.op.duration"
	metricEvictions   = "flowgraph.evictions.total"
)

// Config holds telemetry configuration.
type Config struct {
	// ServiceName identifies the service in exported metrics.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment, e.g. "production" or "development".
	Environment string
}

// DefaultConfig returns the default telemetry configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "flowgraph",
		ServiceVersion: "0.1.0",
		Environment:    "development",
	}
}

// Provider wires an OpenTelemetry meter to a Prometheus exporter and
// exposes the engine's instruments.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	runsTotal   metric.Int64Counter
	runFailures metric.Int64Counter
	runDuration metric.Float64Histogram
	opsTotal    metric.Int64Counter
	opFailures  metric.Int64Counter
	opDuration  metric.Float64Histogram
	evictions   metric.Int64Counter
}

// NewProvider creates a telemetry provider with a Prometheus reader and
// installs it as the global meter provider.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p := &Provider{}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(meterName)

	if err := p.initInstruments(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) initInstruments() error {
	var err error
	if p.runsTotal, err = p.meter.Int64Counter(metricRunsTotal,
		metric.WithDescription("Total plan executions")); err != nil {
		return err
	}
	if p.runFailures, err = p.meter.Int64Counter(metricRunFailures,
		metric.WithDescription("Failed plan executions")); err != nil {
		return err
	}
	if p.runDuration, err = p.meter.Float64Histogram(metricRunDuration,
		metric.WithDescription("Plan execution duration"), metric.WithUnit("s")); err != nil {
		return err
	}
	if p.opsTotal, err = p.meter.Int64Counter(metricOpsTotal,
		metric.WithDescription("Total operation executions")); err != nil {
		return err
	}
	if p.opFailures, err = p.meter.Int64Counter(metricOpFailures,
		metric.WithDescription("Failed operation executions")); err != nil {
		return err
	}
	if p.opDuration, err = p.meter.Float64Histogram(metricOpDuration,
		metric.WithDescription("Operation execution duration"), metric.WithUnit("s")); err != nil {
		return err
	}
	if p.evictions, err = p.meter.Int64Counter(metricEvictions,
		metric.WithDescription("Intermediate values evicted")); err != nil {
		return err
	}
	return nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

// Observer returns a monitoring observer feeding these instruments.
func (p *Provider) Observer() *Observer { return &Observer{provider: p} }

// Observer adapts the provider to the engine's RunObserver interface.
type Observer struct {
	provider *Provider
}

func networkAttr(network string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("network", network))
}

func opAttr(op string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("op", op))
}

// OnRunStarted implements monitoring.RunObserver.
func (o *Observer) OnRunStarted(network, runID string) {
	o.provider.runsTotal.Add(context.Background(), 1, networkAttr(network))
}

// OnRunCompleted implements monitoring.RunObserver.
func (o *Observer) OnRunCompleted(network, runID string, duration time.Duration) {
	o.provider.runDuration.Record(context.Background(), duration.Seconds(), networkAttr(network))
}

// OnRunFailed implements monitoring.RunObserver.
func (o *Observer) OnRunFailed(network, runID string, err error, duration time.Duration) {
	o.provider.runFailures.Add(context.Background(), 1, networkAttr(network))
	o.provider.runDuration.Record(context.Background(), duration.Seconds(), networkAttr(network))
}

// OnOpStarted implements monitoring.RunObserver.
func (o *Observer) OnOpStarted(runID, op string) {
	o.provider.opsTotal.Add(context.Background(), 1, opAttr(op))
}

// OnOpCompleted implements monitoring.RunObserver.
func (o *Observer) OnOpCompleted(runID, op string, duration time.Duration) {
	o.provider.opDuration.Record(context.Background(), duration.Seconds(), opAttr(op))
}

// OnOpFailed implements monitoring.RunObserver.
func (o *Observer) OnOpFailed(runID, op string, err error, duration time.Duration, endured bool) {
	o.provider.opFailures.Add(context.Background(), 1, opAttr(op))
	o.provider.opDuration.Record(context.Background(), duration.Seconds(), opAttr(op))
}

// OnOpCancelled implements monitoring.RunObserver.
func (o *Observer) OnOpCancelled(runID, op string) {}

// OnOpRescheduled implements monitoring.RunObserver.
func (o *Observer) OnOpRescheduled(runID, op string, missing []string) {}

// OnDataEvicted implements monitoring.RunObserver.
func (o *Observer) OnDataEvicted(runID, key string) {
	o.provider.evictions.Add(context.Background(), 1)
}
