// Package sinks delivers frames to their final destination.
//
// A Sink is a sources.Listener with a fixed target format. It runs an
// optional filter chain, converts every frame to the target format and hands
// the result to a Consumer.
package sinks

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/audiocore/processors"
	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
)

// Consumer receives frames in the sink's target format
type Consumer interface {
	Consume(frame *audiocore.Frame) error
}

// ConsumerFunc adapts a function to a Consumer
type ConsumerFunc func(frame *audiocore.Frame) error

// Consume calls f
func (f ConsumerFunc) Consume(frame *audiocore.Frame) error { return f(frame) }

// Option configures a Sink
type Option func(*Sink)

// WithID sets the sink identifier used in logs and metrics
func WithID(id string) Option {
	return func(s *Sink) { s.id = id }
}

// WithType sets the sink type label reported to metrics
func WithType(typ string) Option {
	return func(s *Sink) { s.typ = typ }
}

// WithChain runs chain on every frame before format conversion
func WithChain(chain *audiocore.ProcessorChain) Option {
	return func(s *Sink) { s.chain = chain }
}

// Sink converts incoming frames to a target format
type Sink struct {
	id        string
	typ       string
	chain     *audiocore.ProcessorChain
	resampler *processors.ResampleProcessor
	consumer  Consumer
	closed    bool
	frames    int64
	metrics   *audiocore.MetricsCollector
	logger    *slog.Logger
}

// New creates a sink delivering frames in target format to consumer
func New(target audiocore.AudioFormat, consumer Consumer, opts ...Option) (*Sink, error) {
	if consumer == nil {
		return nil, errors.Newf("sink consumer must not be nil").
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}

	s := &Sink{
		id:       uuid.New().String(),
		typ:      "sink",
		consumer: consumer,
		metrics:  audiocore.GetMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	rp, err := processors.NewResampleProcessor(s.id+"-resample", target)
	if err != nil {
		return nil, err
	}
	rp.OnRebuild(func(in, out audiocore.AudioFormat) {
		s.metrics.RecordSinkResamplerRebuild(s.id)
		s.logger.Debug("sink resampler rebuilt",
			"input_format", in.String(),
			"output_format", out.String())
	})
	s.resampler = rp

	logger := logging.ForService("audiocore")
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger.With(
		"component", "sink",
		"sink_id", s.id,
		"sink_type", s.typ)

	return s, nil
}

// ID returns the sink identifier
func (s *Sink) ID() string { return s.id }

// Format returns the target format
func (s *Sink) Format() audiocore.AudioFormat { return s.resampler.OutputFormat() }

// SetFormat changes the target format
func (s *Sink) SetFormat(target audiocore.AudioFormat) error {
	return s.resampler.SetOutputFormat(target)
}

// IsClosed reports whether the sink has been closed
func (s *Sink) IsClosed() bool { return s.closed }

// Frames returns the number of frames delivered to the consumer
func (s *Sink) Frames() int64 { return s.frames }

// OnFrame filters and converts frame and passes it to the consumer. Frames
// arriving after Close are dropped.
func (s *Sink) OnFrame(frame *audiocore.Frame) error {
	if s.closed {
		return nil
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	var err error
	if s.chain != nil {
		if frame, err = s.chain.Process(ctx, frame); err != nil || frame == nil {
			return err
		}
	}
	if frame, err = s.resampler.Process(ctx, frame); err != nil || frame == nil {
		return err
	}

	s.frames++
	s.metrics.RecordSinkFrame(s.id, s.typ, len(frame.Data))
	return s.consumer.Consume(frame)
}

// Close drops the resampler and stops delivery. It does not close the
// consumer.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.resampler.Reset()
	if s.chain != nil {
		s.chain.Reset()
	}
	s.logger.Debug("sink closed", "frames", s.frames)
	return nil
}
