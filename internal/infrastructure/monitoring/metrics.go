package monitoring

import (
	"sync"
	"time"
)

// MetricsCollector collects execution metrics for networks and
// operations: counts, durations, success/failure rates.
type MetricsCollector struct {
	// networkMetrics stores metrics per network name
	networkMetrics map[string]*NetworkMetrics
	// opMetrics stores metrics per operation name
	opMetrics map[string]*OpMetrics
	// mu protects concurrent access
	mu sync.RWMutex
}

// NetworkMetrics represents metrics for one network.
type NetworkMetrics struct {
	Network         string        `json:"network"`
	RunCount        int           `json:"run_count"`
	SuccessCount    int           `json:"success_count"`
	FailureCount    int           `json:"failure_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	LastRunAt       time.Time     `json:"last_run_at"`
}

// OpMetrics represents metrics for one operation name.
type OpMetrics struct {
	Op              string        `json:"op"`
	ExecutionCount  int           `json:"execution_count"`
	SuccessCount    int           `json:"success_count"`
	FailureCount    int           `json:"failure_count"`
	CancelledCount  int           `json:"cancelled_count"`
	RescheduleCount int           `json:"reschedule_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
}

// NewMetricsCollector creates a new MetricsCollector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		networkMetrics: make(map[string]*NetworkMetrics),
		opMetrics:      make(map[string]*OpMetrics),
	}
}

// RecordRun records metrics for one plan execution.
func (mc *MetricsCollector) RecordRun(network string, duration time.Duration, success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	metrics, ok := mc.networkMetrics[network]
	if !ok {
		metrics = &NetworkMetrics{
			Network:     network,
			MinDuration: duration,
			MaxDuration: duration,
		}
		mc.networkMetrics[network] = metrics
	}

	metrics.RunCount++
	if success {
		metrics.SuccessCount++
	} else {
		metrics.FailureCount++
	}

	metrics.TotalDuration += duration
	metrics.AverageDuration = metrics.TotalDuration / time.Duration(metrics.RunCount)
	metrics.LastRunAt = time.Now()

	if duration < metrics.MinDuration {
		metrics.MinDuration = duration
	}
	if duration > metrics.MaxDuration {
		metrics.MaxDuration = duration
	}
}

// RecordOp records metrics for one operation execution.
func (mc *MetricsCollector) RecordOp(op string, duration time.Duration, success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	metrics := mc.op(op)
	metrics.ExecutionCount++
	if success {
		metrics.SuccessCount++
	} else {
		metrics.FailureCount++
	}

	metrics.TotalDuration += duration
	metrics.AverageDuration = metrics.TotalDuration / time.Duration(metrics.ExecutionCount)

	if metrics.ExecutionCount == 1 || duration < metrics.MinDuration {
		metrics.MinDuration = duration
	}
	if duration > metrics.MaxDuration {
		metrics.MaxDuration = duration
	}
}

// RecordOpCancelled counts an operation cancellation.
func (mc *MetricsCollector) RecordOpCancelled(op string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.op(op).CancelledCount++
}

// RecordOpRescheduled counts a partial result.
func (mc *MetricsCollector) RecordOpRescheduled(op string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.op(op).RescheduleCount++
}

func (mc *MetricsCollector) op(op string) *OpMetrics {
	metrics, ok := mc.opMetrics[op]
	if !ok {
		metrics = &OpMetrics{Op: op}
		mc.opMetrics[op] = metrics
	}
	return metrics
}

// GetNetworkMetrics returns a copy of the metrics for one network.
func (mc *MetricsCollector) GetNetworkMetrics(network string) *NetworkMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if metrics, ok := mc.networkMetrics[network]; ok {
		c := *metrics
		return &c
	}
	return nil
}

// GetOpMetrics returns a copy of the metrics for one operation name.
func (mc *MetricsCollector) GetOpMetrics(op string) *OpMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if metrics, ok := mc.opMetrics[op]; ok {
		c := *metrics
		return &c
	}
	return nil
}

// GetSuccessRate returns the success rate for a network.
func (mc *MetricsCollector) GetSuccessRate(network string) float64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if metrics, ok := mc.networkMetrics[network]; ok && metrics.RunCount > 0 {
		return float64(metrics.SuccessCount) / float64(metrics.RunCount)
	}
	return 0.0
}

// Reset resets all metrics.
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.networkMetrics = make(map[string]*NetworkMetrics)
	mc.opMetrics = make(map[string]*OpMetrics)
}

// MetricsSummary is a summary of all collected metrics.
type MetricsSummary struct {
	TotalNetworks      int     `json:"total_networks"`
	TotalRuns          int     `json:"total_runs"`
	TotalSuccesses     int     `json:"total_successes"`
	TotalFailures      int     `json:"total_failures"`
	OverallSuccessRate float64 `json:"overall_success_rate"`
	TotalOpExecutions  int     `json:"total_op_executions"`
	TotalOpCancelled   int     `json:"total_op_cancelled"`
	TotalOpReschedules int     `json:"total_op_reschedules"`
}

// GetSummary returns a summary of all metrics.
func (mc *MetricsCollector) GetSummary() *MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	summary := &MetricsSummary{TotalNetworks: len(mc.networkMetrics)}
	for _, nm := range mc.networkMetrics {
		summary.TotalRuns += nm.RunCount
		summary.TotalSuccesses += nm.SuccessCount
		summary.TotalFailures += nm.FailureCount
	}
	if summary.TotalRuns > 0 {
		summary.OverallSuccessRate = float64(summary.TotalSuccesses) / float64(summary.TotalRuns)
	}
	for _, om := range mc.opMetrics {
		summary.TotalOpExecutions += om.ExecutionCount
		summary.TotalOpCancelled += om.CancelledCount
		summary.TotalOpReschedules += om.RescheduleCount
	}
	return summary
}

// RecordingObserver adapts the collector to the RunObserver interface so
// it can be attached to an engine directly.
type RecordingObserver struct {
	collector *MetricsCollector
}

// NewRecordingObserver creates a RunObserver feeding the collector.
func NewRecordingObserver(collector *MetricsCollector) *RecordingObserver {
	return &RecordingObserver{collector: collector}
}

// OnRunStarted implements RunObserver.
func (r *RecordingObserver) OnRunStarted(network, runID string) {}

// OnRunCompleted implements RunObserver.
func (r *RecordingObserver) OnRunCompleted(network, runID string, duration time.Duration) {
	r.collector.RecordRun(network, duration, true)
}

// OnRunFailed implements RunObserver.
func (r *RecordingObserver) OnRunFailed(network, runID string, err error, duration time.Duration) {
	r.collector.RecordRun(network, duration, false)
}

// OnOpStarted implements RunObserver.
func (r *RecordingObserver) OnOpStarted(runID, op string) {}

// OnOpCompleted implements RunObserver.
func (r *RecordingObserver) OnOpCompleted(runID, op string, duration time.Duration) {
	r.collector.RecordOp(op, duration, true)
}

// OnOpFailed implements RunObserver.
func (r *RecordingObserver) OnOpFailed(runID, op string, err error, duration time.Duration, endured bool) {
	r.collector.RecordOp(op, duration, false)
}

// OnOpCancelled implements RunObserver.
func (r *RecordingObserver) OnOpCancelled(runID, op string) {
	r.collector.RecordOpCancelled(op)
}

// OnOpRescheduled implements RunObserver.
func (r *RecordingObserver) OnOpRescheduled(runID, op string, missing []string) {
	r.collector.RecordOpRescheduled(op)
}

// OnDataEvicted implements RunObserver.
func (r *RecordingObserver) OnDataEvicted(runID, key string) {}
