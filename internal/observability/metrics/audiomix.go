// Package metrics provides Prometheus metrics for the audiomix pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AudioMixMetrics contains Prometheus metrics for mixer, buffer, processor,
// source and sink operations
type AudioMixMetrics struct {
	registry *prometheus.Registry

	// Mixer metrics
	mixerTicks        *prometheus.CounterVec
	mixerIdleTicks    *prometheus.CounterVec
	mixerActiveInputs *prometheus.GaugeVec
	mixerLinkedInputs *prometheus.GaugeVec
	mixerScaleNorm    *prometheus.GaugeVec
	mixerTickDuration *prometheus.HistogramVec
	mixerInputState   *prometheus.CounterVec

	// FIFO metrics
	fifoGrowths  *prometheus.CounterVec
	fifoCapacity *prometheus.GaugeVec

	// Processor chain metrics
	processorExecutions *prometheus.CounterVec
	processorDrops      *prometheus.CounterVec
	processorErrors     *prometheus.CounterVec
	processorDuration   *prometheus.HistogramVec

	// Source metrics
	sourceFrames *prometheus.CounterVec
	sourceBytes  *prometheus.CounterVec
	sourceErrors *prometheus.CounterVec

	// Sink metrics
	sinkFrames      *prometheus.CounterVec
	sinkBytes       *prometheus.CounterVec
	sinkResamplings *prometheus.CounterVec

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewAudioMixMetrics creates and registers new audiomix metrics
func NewAudioMixMetrics(registry *prometheus.Registry) (*AudioMixMetrics, error) {
	m := &AudioMixMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *AudioMixMetrics) initMetrics() {
	// Mixer metrics
	m.mixerTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_mixer_ticks_total",
			Help: "Total number of mixer reads that emitted a frame",
		},
		[]string{"mixer_id"},
	)

	m.mixerIdleTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_mixer_idle_ticks_total",
			Help: "Total number of mixer reads that produced no output",
		},
		[]string{"mixer_id", "policy"},
	)

	m.mixerActiveInputs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audiomix_mixer_active_inputs",
			Help: "Number of mixer inputs currently producing audio",
		},
		[]string{"mixer_id"},
	)

	m.mixerLinkedInputs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audiomix_mixer_linked_inputs",
			Help: "Number of mixer inputs with a linked source",
		},
		[]string{"mixer_id"},
	)

	m.mixerScaleNorm = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audiomix_mixer_scale_norm",
			Help: "Current gain normalization divisor of the mixer",
		},
		[]string{"mixer_id"},
	)

	m.mixerTickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiomix_mixer_tick_duration_seconds",
			Help:    "Time taken by one mixer read",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10us to ~160ms
		},
		[]string{"mixer_id"},
	)

	m.mixerInputState = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_mixer_input_transitions_total",
			Help: "Total number of mixer input state transitions",
		},
		[]string{"mixer_id", "state"},
	)

	// FIFO metrics
	m.fifoGrowths = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_fifo_growths_total",
			Help: "Total number of FIFO buffer reallocations",
		},
		[]string{"fifo_id"},
	)

	m.fifoCapacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audiomix_fifo_capacity_samples",
			Help: "Current FIFO capacity in samples per channel",
		},
		[]string{"fifo_id"},
	)

	// Processor chain metrics
	m.processorExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_processor_executions_total",
			Help: "Total number of processor executions",
		},
		[]string{"processor_id", "processor_type", "status"},
	)

	m.processorDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_processor_dropped_frames_total",
			Help: "Total number of frames dropped by a processor",
		},
		[]string{"processor_id", "processor_type"},
	)

	m.processorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_processor_errors_total",
			Help: "Total number of processor errors",
		},
		[]string{"processor_id", "processor_type", "error_type"},
	)

	m.processorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiomix_processor_duration_seconds",
			Help:    "Time taken by a processor for one frame",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 16), // 1us to ~32ms
		},
		[]string{"processor_id", "processor_type"},
	)

	// Source metrics
	m.sourceFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_source_frames_total",
			Help: "Total number of frames decoded by a source",
		},
		[]string{"source_id", "source_type"},
	)

	m.sourceBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_source_bytes_total",
			Help: "Total number of PCM bytes decoded by a source",
		},
		[]string{"source_id", "source_type"},
	)

	m.sourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_source_errors_total",
			Help: "Total number of source errors",
		},
		[]string{"source_id", "source_type", "error_type"},
	)

	// Sink metrics
	m.sinkFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_sink_frames_total",
			Help: "Total number of frames consumed by a sink",
		},
		[]string{"sink_id", "sink_type"},
	)

	m.sinkBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_sink_bytes_total",
			Help: "Total number of PCM bytes consumed by a sink",
		},
		[]string{"sink_id", "sink_type"},
	)

	m.sinkResamplings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiomix_sink_resampler_rebuilds_total",
			Help: "Total number of resampler rebuilds caused by input format changes",
		},
		[]string{"sink_id"},
	)

	m.collectors = []prometheus.Collector{
		m.mixerTicks,
		m.mixerIdleTicks,
		m.mixerActiveInputs,
		m.mixerLinkedInputs,
		m.mixerScaleNorm,
		m.mixerTickDuration,
		m.mixerInputState,
		m.fifoGrowths,
		m.fifoCapacity,
		m.processorExecutions,
		m.processorDrops,
		m.processorErrors,
		m.processorDuration,
		m.sourceFrames,
		m.sourceBytes,
		m.sourceErrors,
		m.sinkFrames,
		m.sinkBytes,
		m.sinkResamplings,
	}
}

// Describe implements prometheus.Collector
func (m *AudioMixMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *AudioMixMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// Mixer metrics methods

// RecordMixerTick records one mixer read that emitted a frame
func (m *AudioMixMetrics) RecordMixerTick(mixerID string, duration float64) {
	m.mixerTicks.WithLabelValues(mixerID).Inc()
	m.mixerTickDuration.WithLabelValues(mixerID).Observe(duration)
}

// RecordMixerIdleTick records a mixer read stopped by the duration policy
func (m *AudioMixMetrics) RecordMixerIdleTick(mixerID, policy string) {
	m.mixerIdleTicks.WithLabelValues(mixerID, policy).Inc()
}

// UpdateMixerInputs updates the linked and active input gauges
func (m *AudioMixMetrics) UpdateMixerInputs(mixerID string, linked, active int) {
	m.mixerLinkedInputs.WithLabelValues(mixerID).Set(float64(linked))
	m.mixerActiveInputs.WithLabelValues(mixerID).Set(float64(active))
}

// UpdateMixerScaleNorm updates the scale norm gauge
func (m *AudioMixMetrics) UpdateMixerScaleNorm(mixerID string, norm float64) {
	m.mixerScaleNorm.WithLabelValues(mixerID).Set(norm)
}

// RecordMixerInputTransition records an input entering the given state
func (m *AudioMixMetrics) RecordMixerInputTransition(mixerID, state string) {
	m.mixerInputState.WithLabelValues(mixerID, state).Inc()
}

// FIFO metrics methods

// RecordFifoGrowth records a FIFO reallocation and its new capacity
func (m *AudioMixMetrics) RecordFifoGrowth(fifoID string, newCapacity int) {
	m.fifoGrowths.WithLabelValues(fifoID).Inc()
	m.fifoCapacity.WithLabelValues(fifoID).Set(float64(newCapacity))
}

// Processor metrics methods

// RecordProcessorExecution records a processor execution
func (m *AudioMixMetrics) RecordProcessorExecution(processorID, processorType, status string) {
	m.processorExecutions.WithLabelValues(processorID, processorType, status).Inc()
}

// RecordProcessorDrop records a frame dropped by a processor
func (m *AudioMixMetrics) RecordProcessorDrop(processorID, processorType string) {
	m.processorDrops.WithLabelValues(processorID, processorType).Inc()
}

// RecordProcessorError records a processor error
func (m *AudioMixMetrics) RecordProcessorError(processorID, processorType, errorType string) {
	m.processorErrors.WithLabelValues(processorID, processorType, errorType).Inc()
}

// RecordProcessorDuration records processor execution time
func (m *AudioMixMetrics) RecordProcessorDuration(processorID, processorType string, duration float64) {
	m.processorDuration.WithLabelValues(processorID, processorType).Observe(duration)
}

// Source metrics methods

// RecordSourceFrame records a decoded frame and its size
func (m *AudioMixMetrics) RecordSourceFrame(sourceID, sourceType string, bytes int) {
	m.sourceFrames.WithLabelValues(sourceID, sourceType).Inc()
	m.sourceBytes.WithLabelValues(sourceID, sourceType).Add(float64(bytes))
}

// RecordSourceError records a source error
func (m *AudioMixMetrics) RecordSourceError(sourceID, sourceType, errorType string) {
	m.sourceErrors.WithLabelValues(sourceID, sourceType, errorType).Inc()
}

// Sink metrics methods

// RecordSinkFrame records a frame handed to a sink consumer
func (m *AudioMixMetrics) RecordSinkFrame(sinkID, sinkType string, bytes int) {
	m.sinkFrames.WithLabelValues(sinkID, sinkType).Inc()
	m.sinkBytes.WithLabelValues(sinkID, sinkType).Add(float64(bytes))
}

// RecordSinkResamplerRebuild records a resampler rebuilt after a format change
func (m *AudioMixMetrics) RecordSinkResamplerRebuild(sinkID string) {
	m.sinkResamplings.WithLabelValues(sinkID).Inc()
}
