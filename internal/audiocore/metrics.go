package audiocore

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
	"github.com/tphakala/audiomix/internal/observability/metrics"
)

// MetricsCollector forwards audiocore events to the Prometheus collectors.
// A collector without metrics is a no-op.
type MetricsCollector struct {
	metrics *metrics.AudioMixMetrics
	enabled bool
}

// globalMetrics is a package-level metrics instance
var (
	globalMetrics atomic.Pointer[MetricsCollector]
	metricsLogger atomic.Pointer[slog.Logger]
)

// InitMetrics installs the global metrics collector. Passing nil disables
// metrics.
func InitMetrics(metricsInstance *metrics.AudioMixMetrics) {
	logger := logging.ForService("audiocore")
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "metrics")
	metricsLogger.Store(logger)

	mc := &MetricsCollector{
		metrics: metricsInstance,
		enabled: metricsInstance != nil,
	}
	globalMetrics.Store(mc)

	if metricsInstance != nil {
		logger.Info("metrics collector initialized")
	} else {
		logger.Debug("metrics collector disabled")
	}
}

// GetMetrics returns the global metrics collector
func GetMetrics() *MetricsCollector {
	mc := globalMetrics.Load()
	if mc == nil {
		// Return a no-op collector if metrics not initialized
		return &MetricsCollector{enabled: false}
	}
	return mc
}

// Enabled reports whether events are recorded
func (mc *MetricsCollector) Enabled() bool {
	return mc.enabled && mc.metrics != nil
}

// errorType returns the error category used as a metric label
func errorType(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return "unknown"
}

// RecordProcessorExecution records a successful processor execution
func (mc *MetricsCollector) RecordProcessorExecution(processorID, processorType string, duration time.Duration) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordProcessorExecution(processorID, processorType, "success")
	if duration > 0 {
		mc.metrics.RecordProcessorDuration(processorID, processorType, duration.Seconds())
	}
}

// RecordProcessorError records a failed processor execution
func (mc *MetricsCollector) RecordProcessorError(processorID, processorType string, err error) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordProcessorExecution(processorID, processorType, "error")
	mc.metrics.RecordProcessorError(processorID, processorType, errorType(err))
}

// RecordProcessorDrop records a frame dropped by a processor
func (mc *MetricsCollector) RecordProcessorDrop(processorID, processorType string) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordProcessorDrop(processorID, processorType)
}

// RecordFifoGrowth records a FIFO reallocation
func (mc *MetricsCollector) RecordFifoGrowth(fifoID string, oldCapacity, newCapacity int) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordFifoGrowth(fifoID, newCapacity)

	if logger := metricsLogger.Load(); logger != nil && logger.Enabled(context.TODO(), slog.LevelDebug) {
		logger.Debug("fifo grown",
			"fifo_id", fifoID,
			"old_capacity", oldCapacity,
			"new_capacity", newCapacity)
	}
}

// RecordMixerTick records a mixer read that emitted a frame
func (mc *MetricsCollector) RecordMixerTick(mixerID string, duration time.Duration) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordMixerTick(mixerID, duration.Seconds())
}

// RecordMixerIdleTick records a mixer read that produced no output
func (mc *MetricsCollector) RecordMixerIdleTick(mixerID, policy string) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordMixerIdleTick(mixerID, policy)
}

// UpdateMixerState records input counts and the gain divisor
func (mc *MetricsCollector) UpdateMixerState(mixerID string, linked, active int, scaleNorm float64) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.UpdateMixerInputs(mixerID, linked, active)
	mc.metrics.UpdateMixerScaleNorm(mixerID, scaleNorm)
}

// RecordMixerInputTransition records a mixer input changing state
func (mc *MetricsCollector) RecordMixerInputTransition(mixerID, state string) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordMixerInputTransition(mixerID, state)
}

// RecordSourceFrame records a decoded frame
func (mc *MetricsCollector) RecordSourceFrame(sourceID, sourceType string, bytes int) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordSourceFrame(sourceID, sourceType, bytes)
}

// RecordSourceError records a decode failure
func (mc *MetricsCollector) RecordSourceError(sourceID, sourceType string, err error) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordSourceError(sourceID, sourceType, errorType(err))

	if logger := metricsLogger.Load(); logger != nil {
		logger.Info("source error recorded",
			"source_id", sourceID,
			"source_type", sourceType,
			"error", err)
	}
}

// RecordSinkFrame records a frame handed to a sink consumer
func (mc *MetricsCollector) RecordSinkFrame(sinkID, sinkType string, bytes int) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordSinkFrame(sinkID, sinkType, bytes)
}

// RecordSinkResamplerRebuild records a sink rebuilding its resampler
func (mc *MetricsCollector) RecordSinkResamplerRebuild(sinkID string) {
	if !mc.Enabled() {
		return
	}
	mc.metrics.RecordSinkResamplerRebuild(sinkID)
}
