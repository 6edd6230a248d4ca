// Package mixer combines up to N audio sources into one PCM stream.
//
// Every linked source feeds a per slot FIFO through a sink that converts its
// frames to the mixer's output format. Each Read pulls from the sources until
// every FIFO holds the requested number of samples or its source ends, then
// sums the inputs with a shared gain of 1/scaleNorm. When an input stops,
// scaleNorm falls linearly to the new input count over the dropout
// transition, so the remaining inputs grow louder gradually.
//
// A Mixer is not safe for concurrent use.
package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/audiocore/sinks"
	"github.com/tphakala/audiomix/internal/audiocore/sources"
	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
)

// InputState is the lifecycle state of an input slot
type InputState int

const (
	// InputOff slots have no source
	InputOff InputState = iota
	// InputOn slots contribute to the mix
	InputOn
	// InputInactive slots have run dry but keep their source until unlinked
	InputInactive
)

func (s InputState) String() string {
	switch s {
	case InputOff:
		return "off"
	case InputOn:
		return "on"
	case InputInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

type input struct {
	index  int
	state  InputState
	source sources.Source
	sink   *sinks.Sink
	fifo   *audiocore.FifoBuffer
	scale  float64
}

func (in *input) consume(frame *audiocore.Frame) error {
	return in.fifo.Put(frame, 0, frame.NumSamples)
}

// Mixer mixes linked sources and emits fixed size frames to its listeners
type Mixer struct {
	sources.Emitter

	id          string
	format      audiocore.AudioFormat
	maxInputs   int
	dropOut     float64
	policy      DurationPolicy
	fifoSamples int

	inputs    []*input
	numInputs int
	numActive int
	scaleNorm float64
	scratch   *audiocore.SampleBuffer
	closed    bool

	metrics *audiocore.MetricsCollector
	logger  *slog.Logger
}

// New creates a mixer. Without options it mixes three inputs into
// 44.1 kHz stereo S16 and runs while any input is active.
func New(opts ...Option) (*Mixer, error) {
	id := uuid.New().String()
	logger := logging.ForService("audiocore")
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mixer{
		id:          id,
		format:      audiocore.DefaultFormat(),
		maxInputs:   audiocore.DefaultMaxInputs,
		dropOut:     audiocore.DefaultDropOutTransition,
		policy:      Longest,
		fifoSamples: audiocore.DefaultFifoSamples,
		metrics:     audiocore.GetMetrics(),
		logger:      logger.With("component", "mixer", "mixer_id", id),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.format.Validate(); err != nil {
		return nil, err
	}
	if m.maxInputs < 1 {
		return nil, invalidOption("max_inputs", m.maxInputs, "mixer needs at least one input slot")
	}
	if math.IsNaN(m.dropOut) || math.IsInf(m.dropOut, 0) {
		return nil, invalidOption("dropout_transition", m.dropOut, "dropout transition must be finite")
	}
	if !m.policy.IsValid() {
		return nil, invalidOption("duration_policy", int(m.policy), "unknown duration policy")
	}

	m.inputs = make([]*input, m.maxInputs)
	for i := range m.inputs {
		fifo, err := audiocore.NewFifoBuffer(m.format, m.fifoSamples)
		if err != nil {
			return nil, err
		}
		fifoID := fmt.Sprintf("%s/%d", m.id, i)
		fifo.OnGrow(func(oldCapacity, newCapacity int) {
			m.metrics.RecordFifoGrowth(fifoID, oldCapacity, newCapacity)
		})
		m.inputs[i] = &input{index: i, fifo: fifo}
	}

	m.logger.Debug("mixer created",
		"format", m.format.String(),
		"max_inputs", m.maxInputs,
		"dropout_transition", m.dropOut,
		"policy", m.policy.String())
	return m, nil
}

func invalidOption(name string, value any, msg string) error {
	return errors.Newf("%s", msg).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("option", name).
		Context("value", value).
		Build()
}

// ID returns the mixer identifier
func (m *Mixer) ID() string { return m.id }

// OutputFormat returns the format of emitted frames
func (m *Mixer) OutputFormat() audiocore.AudioFormat { return m.format }

// MaxInputs returns the number of input slots
func (m *Mixer) MaxInputs() int { return m.maxInputs }

// NumInputs returns the number of linked inputs, active or not
func (m *Mixer) NumInputs() int { return m.numInputs }

// NumActiveInputs returns the number of inputs still contributing samples
func (m *Mixer) NumActiveInputs() int {
	m.numActive = m.countActive()
	return m.numActive
}

// DropOutTransition returns the level transition time in seconds
func (m *Mixer) DropOutTransition() float64 { return m.dropOut }

// DurationPolicy returns the policy deciding when output stops
func (m *Mixer) DurationPolicy() DurationPolicy { return m.policy }

// ScaleNorm returns the current gain divisor
func (m *Mixer) ScaleNorm() float64 { return m.scaleNorm }

// IsClosed reports whether Close has been called
func (m *Mixer) IsClosed() bool { return m.closed }

// InputState returns the state of slot idx, InputOff when out of range
func (m *Mixer) InputState(idx int) InputState {
	if idx < 0 || idx >= len(m.inputs) {
		return InputOff
	}
	return m.inputs[idx].state
}

// InputGain returns the gain applied to slot idx in the last Read
func (m *Mixer) InputGain(idx int) float64 {
	if idx < 0 || idx >= len(m.inputs) {
		return 0
	}
	return m.inputs[idx].scale
}

// Link attaches src to slot idx and opens it if needed
func (m *Mixer) Link(idx int, src sources.Source) error {
	return m.LinkFiltered(idx, src, nil)
}

// LinkFiltered attaches src to slot idx and runs chain on its frames before
// they are converted to the output format. A slot that has run dry is
// unlinked first; linking an active slot fails with ErrInputActive.
func (m *Mixer) LinkFiltered(idx int, src sources.Source, chain *audiocore.ProcessorChain) error {
	if m.closed {
		return m.closedError("link")
	}
	if err := m.checkIndex("link", idx); err != nil {
		return err
	}
	if src == nil {
		return errors.Newf("no audio source specified for input %d", idx).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("mixer_id", m.id).
			Context("input", idx).
			Build()
	}

	in := m.inputs[idx]
	switch in.state {
	case InputOn:
		return errors.New(audiocore.ErrInputActive).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("mixer_id", m.id).
			Context("input", idx).
			Build()
	case InputInactive:
		if err := m.Unlink(idx); err != nil {
			return err
		}
	}

	sink, err := sinks.New(m.format, sinks.ConsumerFunc(in.consume),
		sinks.WithID(fmt.Sprintf("%s/%d", m.id, idx)),
		sinks.WithType("mixer_input"),
		sinks.WithChain(chain))
	if err != nil {
		return err
	}

	src.AddListener(sink)
	if !src.IsOpen() {
		if err := src.Open(); err != nil {
			src.RemoveListener(sink)
			return err
		}
	}

	in.source = src
	in.sink = sink
	in.scale = 1
	m.setState(in, InputOn)
	m.numInputs++

	m.logger.Info("input linked",
		"input", idx,
		"source_id", src.ID(),
		"source_type", src.Type(),
		"source_format", src.Format().String())
	return nil
}

// Unlink detaches and closes the source of slot idx and drops its queued
// samples. Unlinking an empty slot is a no-op.
func (m *Mixer) Unlink(idx int) error {
	if err := m.checkIndex("unlink", idx); err != nil {
		return err
	}
	in := m.inputs[idx]
	if in.state == InputOff {
		return nil
	}

	in.source.RemoveListener(in.sink)
	closeErr := in.source.Close()
	_ = in.sink.Close()
	in.fifo.Clear()

	sourceID := in.source.ID()
	in.source = nil
	in.sink = nil
	in.scale = 0
	m.setState(in, InputOff)
	m.numInputs--

	m.logger.Info("input unlinked", "input", idx, "source_id", sourceID)
	return closeErr
}

// Read mixes n samples and emits them as one frame. It returns false
// without emitting when the duration policy reports no output: no input is
// active, the first input has ended under First, or any linked input has
// ended under Shortest. The output PTS only advances when a frame is
// emitted.
func (m *Mixer) Read(n int) (bool, error) {
	if m.closed {
		return false, m.closedError("read")
	}
	if n < 1 {
		return false, errors.Newf("sample count must be positive, got %d", n).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("mixer_id", m.id).
			Build()
	}
	start := time.Now()

	for _, in := range m.inputs {
		if in.state != InputOn {
			continue
		}
		if err := m.fill(in, n); err != nil {
			return false, err
		}
		if in.fifo.Delay() == 0 {
			m.setState(in, InputInactive)
		}
	}

	if !m.hasOutput() {
		m.metrics.RecordMixerIdleTick(m.id, m.policy.String())
		m.metrics.UpdateMixerState(m.id, m.numInputs, m.numActive, m.scaleNorm)
		return false, nil
	}
	m.updateScales(n)

	out, err := audiocore.AllocateBuffer(m.format, n, 0)
	if err != nil {
		return false, err
	}
	if err := m.mixInputs(out, n); err != nil {
		return false, err
	}

	if err := m.Emit(out.Frame()); err != nil {
		return false, err
	}
	m.metrics.RecordMixerTick(m.id, time.Since(start))
	return true, nil
}

// fill pulls from the source until the FIFO holds n samples or the source
// ends
func (m *Mixer) fill(in *input, n int) error {
	for in.fifo.Delay() < n {
		more, err := in.source.Read()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func (m *Mixer) countActive() int {
	active := 0
	for _, in := range m.inputs {
		if in.state == InputOn {
			active++
		}
	}
	return active
}

// hasOutput recounts active inputs and applies the duration policy
func (m *Mixer) hasOutput() bool {
	m.numActive = m.countActive()
	switch {
	case m.numActive == 0:
		return false
	case m.policy == First && m.inputs[0].state != InputOn:
		return false
	case m.policy == Shortest && m.numActive != m.numInputs:
		return false
	}
	return true
}

// updateScales moves scaleNorm towards the active input count and assigns
// per input gains
func (m *Mixer) updateScales(n int) {
	active := float64(m.numActive)
	if m.scaleNorm > active {
		if m.dropOut > 0 {
			m.scaleNorm -= float64(n) / (m.dropOut * float64(m.format.SampleRate))
		} else {
			m.scaleNorm = active
		}
	}
	m.scaleNorm = max(m.scaleNorm, active)

	for _, in := range m.inputs {
		if in.state == InputOn {
			in.scale = 1 / m.scaleNorm
		} else {
			in.scale = 0
		}
	}
	m.metrics.UpdateMixerState(m.id, m.numInputs, m.numActive, m.scaleNorm)
}

// mixInputs scales each active input's queued samples and adds them to out
func (m *Mixer) mixInputs(out *audiocore.SampleBuffer, n int) error {
	if m.scratch == nil || m.scratch.Capacity() < n {
		scratch, err := audiocore.AllocateBuffer(m.format, n, 0)
		if err != nil {
			return err
		}
		m.scratch = scratch
	}

	for _, in := range m.inputs {
		if in.state != InputOn {
			continue
		}
		count := min(n, in.fifo.Delay())
		m.scratch.Clear()
		if err := m.scratch.SetLimit(count); err != nil {
			return err
		}
		if err := in.fifo.Get(m.scratch.Frame(), 0, count); err != nil {
			return err
		}
		if err := m.scratch.ScaleAll(in.scale); err != nil {
			return err
		}
		m.scratch.Rewind()
		if err := out.Mix(m.scratch); err != nil {
			return err
		}
		out.Rewind()

		if m.logger.Enabled(context.Background(), slog.LevelDebug) && count < n {
			m.logger.Debug("input short of samples",
				"input", in.index,
				"available", count,
				"requested", n)
		}
	}
	return nil
}

func (m *Mixer) setState(in *input, state InputState) {
	if in.state == state {
		return
	}
	in.state = state
	m.metrics.RecordMixerInputTransition(m.id, state.String())
}

func (m *Mixer) checkIndex(op string, idx int) error {
	if idx >= 0 && idx < m.maxInputs {
		return nil
	}
	return errors.Newf("input index %d out of range [0, %d)", idx, m.maxInputs).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("mixer_id", m.id).
		Context("operation", op).
		Context("input", idx).
		Build()
}

func (m *Mixer) closedError(op string) error {
	return errors.New(audiocore.ErrMixerClosed).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryState).
		Context("mixer_id", m.id).
		Context("operation", op).
		Build()
}

// Close unlinks every input and releases the FIFOs. Closing twice is a
// no-op.
func (m *Mixer) Close() error {
	if m.closed {
		return nil
	}
	var errs []error
	for i, in := range m.inputs {
		if err := m.Unlink(i); err != nil {
			errs = append(errs, err)
		}
		_ = in.fifo.Close()
	}
	m.scratch = nil
	m.closed = true
	m.logger.Info("mixer closed", "samples_emitted", m.NextPTS())
	return errors.Join(errs...)
}
