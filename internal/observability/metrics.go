// Package observability wires the audiomix Prometheus collectors to a
// registry and exports them.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	AudioMix *metrics.AudioMixMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors
// and installing them as the audiocore metrics sink.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	audioMixMetrics, err := metrics.NewAudioMixMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create audiomix metrics: %w", err)
	}

	m := &Metrics{
		registry: registry,
		AudioMix: audioMixMetrics,
	}

	audiocore.InitMetrics(audioMixMetrics)

	return m, nil
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values in the node exporter
// textfile collector format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

// Totals gathers the registry and sums each metric family over its label
// values. Histograms and summaries count observations.
func (m *Metrics) Totals() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	totals := make(map[string]float64, len(families))
	for _, mf := range families {
		var sum float64
		for _, metric := range mf.GetMetric() {
			sum += sampleValue(mf.GetType(), metric)
		}
		totals[mf.GetName()] = sum
	}
	return totals, nil
}

func sampleValue(t dto.MetricType, metric *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return metric.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return metric.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(metric.GetHistogram().GetSampleCount())
	case dto.MetricType_SUMMARY:
		return float64(metric.GetSummary().GetSampleCount())
	default:
		return metric.GetUntyped().GetValue()
	}
}
