package mixer

import (
	"log/slog"

	"github.com/tphakala/audiomix/internal/audiocore"
)

// Option configures a Mixer
type Option func(*Mixer)

// WithFormat sets the output format. Every input is converted to it.
func WithFormat(format audiocore.AudioFormat) Option {
	return func(m *Mixer) { m.format = format }
}

// WithMaxInputs sets the number of input slots
func WithMaxInputs(n int) Option {
	return func(m *Mixer) { m.maxInputs = n }
}

// WithDropOutTransition sets the time in seconds over which the output
// level settles after an input stops. Zero or less settles at once.
func WithDropOutTransition(seconds float64) Option {
	return func(m *Mixer) { m.dropOut = seconds }
}

// WithDurationPolicy sets when the mixer stops producing output
func WithDurationPolicy(p DurationPolicy) Option {
	return func(m *Mixer) { m.policy = p }
}

// WithFifoSamples sets the initial per input FIFO allocation
func WithFifoSamples(n int) Option {
	return func(m *Mixer) { m.fifoSamples = n }
}

// WithMetrics overrides the metrics collector
func WithMetrics(mc *audiocore.MetricsCollector) Option {
	return func(m *Mixer) {
		if mc != nil {
			m.metrics = mc
		}
	}
}

// WithLogger overrides the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mixer) {
		if logger != nil {
			m.logger = logger
		}
	}
}
