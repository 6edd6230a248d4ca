// Package sources decodes audio files into PCM frames.
//
// A Source pushes every frame it decodes to its listeners. Each Read call
// decodes and emits at most one frame; the frame's PTS counts samples from
// the start of the stream.
package sources

import (
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
)

// DefaultFrameSamples is the number of sample frames a decoder emits per
// Read when the codec does not impose its own block size
const DefaultFrameSamples = 4096

// Listener receives decoded frames. The frame belongs to the listener.
// Implementations must be comparable, usually a pointer.
type Listener interface {
	OnFrame(frame *audiocore.Frame) error
}

// Source is a pull driven audio decoder
type Source interface {
	ID() string
	Type() string
	Open() error
	IsOpen() bool
	// Read decodes and emits the next frame. It returns false at the end of
	// the stream.
	Read() (bool, error)
	ReadAll() error
	EOF() bool
	Close() error
	AddListener(l Listener) bool
	RemoveListener(l Listener) bool
	// Format is valid once the source is open
	Format() audiocore.AudioFormat
}

// decoder produces interleaved PCM in the format returned by open.
// decode returns io.EOF at the end of the stream.
type decoder interface {
	open() (audiocore.AudioFormat, error)
	decode() ([]byte, error)
	close() error
}

// Emitter keeps the listener list of a source and stamps outgoing frames
type Emitter struct {
	listeners []Listener
	nextPTS   int64
}

// AddListener registers l. It returns false for nil or duplicate listeners.
func (e *Emitter) AddListener(l Listener) bool {
	if l == nil || slices.Contains(e.listeners, l) {
		return false
	}
	e.listeners = append(e.listeners, l)
	return true
}

// RemoveListener unregisters l and reports whether it was registered
func (e *Emitter) RemoveListener(l Listener) bool {
	if l == nil {
		return false
	}
	i := slices.Index(e.listeners, l)
	if i < 0 {
		return false
	}
	e.listeners = slices.Delete(e.listeners, i, i+1)
	return true
}

// Listeners returns the number of registered listeners
func (e *Emitter) Listeners() int { return len(e.listeners) }

// NextPTS returns the PTS the next frame will carry
func (e *Emitter) NextPTS() int64 { return e.nextPTS }

// ResetPTS restarts the timestamps at zero
func (e *Emitter) ResetPTS() { e.nextPTS = 0 }

// Emit stamps frame with the next PTS and hands it to every listener. All
// listeners but the last receive a copy.
func (e *Emitter) Emit(frame *audiocore.Frame) error {
	frame.PTS = e.nextPTS
	e.nextPTS += int64(frame.NumSamples)

	last := len(e.listeners) - 1
	for i, l := range e.listeners {
		f := frame
		if i < last {
			f = frame.Clone()
		}
		if err := l.OnFrame(f); err != nil {
			return err
		}
	}
	return nil
}

// DecoderSource drives a decoder and emits what it produces
type DecoderSource struct {
	Emitter
	id      string
	typ     string
	path    string
	dec     decoder
	format  audiocore.AudioFormat
	isOpen  bool
	eof     bool
	metrics *audiocore.MetricsCollector
	logger  *slog.Logger
}

func newDecoderSource(typ, path string, dec decoder) *DecoderSource {
	id := uuid.New().String()
	logger := logging.ForService("audiocore")
	if logger == nil {
		logger = slog.Default()
	}
	return &DecoderSource{
		id:      id,
		typ:     typ,
		path:    path,
		dec:     dec,
		metrics: audiocore.GetMetrics(),
		logger: logger.With(
			"component", "source",
			"source_id", id,
			"source_type", typ),
	}
}

// ID returns the unique identifier of the source
func (s *DecoderSource) ID() string { return s.id }

// Type returns the codec label of the source
func (s *DecoderSource) Type() string { return s.typ }

// Path returns the decoded file, empty for generated sources
func (s *DecoderSource) Path() string { return s.path }

// IsOpen reports whether the source is open
func (s *DecoderSource) IsOpen() bool { return s.isOpen }

// EOF reports whether the end of the stream has been reached
func (s *DecoderSource) EOF() bool { return s.eof }

// Format returns the decoded format
func (s *DecoderSource) Format() audiocore.AudioFormat { return s.format }

// Open prepares the decoder. Opening an open source does nothing.
func (s *DecoderSource) Open() error {
	if s.isOpen {
		return nil
	}
	format, err := s.dec.open()
	if err != nil {
		_ = s.dec.close()
		s.metrics.RecordSourceError(s.id, s.typ, err)
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSource).
			Context("operation", "open").
			Context("source_type", s.typ).
			Context("path", s.path).
			Build()
	}
	s.format = format
	s.isOpen = true
	s.eof = false
	s.ResetPTS()

	s.logger.Info("audio source opened",
		"path", s.path,
		"format", format.String())
	return nil
}

// Read decodes one frame and emits it. It returns false once the stream is
// exhausted and an error when decoding or a listener fails.
func (s *DecoderSource) Read() (bool, error) {
	if !s.isOpen {
		return false, errors.New(audiocore.ErrSourceNotOpen).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("source_id", s.id).
			Build()
	}
	if s.eof {
		return false, nil
	}

	data, err := s.dec.decode()
	if errors.Is(err, io.EOF) {
		s.eof = true
		s.logger.Debug("end of stream", "samples", s.NextPTS())
		if len(data) == 0 {
			return false, nil
		}
	} else if err != nil {
		s.metrics.RecordSourceError(s.id, s.typ, err)
		return false, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSource).
			Context("operation", "decode").
			Context("source_type", s.typ).
			Context("path", s.path).
			Build()
	}
	if len(data) == 0 {
		return !s.eof, nil
	}

	frame, err := audiocore.WrapFrame(s.format, data, 0)
	if err != nil {
		return false, err
	}
	s.metrics.RecordSourceFrame(s.id, s.typ, len(data))
	if err := s.Emit(frame); err != nil {
		return false, err
	}
	return true, nil
}

// ReadAll reads until the end of the stream
func (s *DecoderSource) ReadAll() error {
	for {
		more, err := s.Read()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Close releases the decoder and clears the EOF flag. Listeners stay
// registered.
func (s *DecoderSource) Close() error {
	if !s.isOpen {
		return nil
	}
	s.isOpen = false
	s.eof = false
	if err := s.dec.close(); err != nil {
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "close").
			Context("path", s.path).
			Build()
	}
	return nil
}

// interleave packs raw integer samples into a byte slice of enc. shift moves
// values up to the encoding's width.
func interleave(enc audiocore.SampleFormat, samples []int, shift uint) []byte {
	codec := audiocore.CodecFor(enc)
	size := codec.Size()
	data := make([]byte, len(samples)*size)
	for i, v := range samples {
		codec.Store(data[i*size:], float64(v<<shift))
	}
	return data
}
