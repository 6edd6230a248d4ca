package audiocore

import (
	"time"

	"github.com/tphakala/audiomix/internal/errors"
)

// Frame is a block of PCM sample frames in a single format. PTS is the
// position of the first sample, counted in samples since the start of the
// stream (time base 1/SampleRate). A frame is owned by whichever stage holds
// it; producers must not touch a frame after handing it on.
type Frame struct {
	Format     AudioFormat
	NumSamples int
	PTS        int64
	Data       []byte
}

// NewFrame allocates a silent frame of numSamples sample frames.
func NewFrame(format AudioFormat, numSamples int, pts int64) (*Frame, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if numSamples < 0 {
		return nil, errors.Newf("number of samples must not be negative: %d", numSamples).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}

	f := &Frame{
		Format:     format,
		NumSamples: numSamples,
		PTS:        pts,
		Data:       make([]byte, format.BytesFor(numSamples)),
	}
	if !format.Encoding.IsSigned() {
		CodecFor(format.Encoding).SilenceBytes(f.Data)
	}
	return f, nil
}

// WrapFrame adopts data as the payload of a frame. The length of data must
// be a whole number of sample frames.
func WrapFrame(format AudioFormat, data []byte, pts int64) (*Frame, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	frameSize := format.FrameSize()
	if len(data)%frameSize != 0 {
		return nil, errors.New(ErrInvalidFrame).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("data_length", len(data)).
			Context("frame_size", frameSize).
			Build()
	}
	return &Frame{
		Format:     format,
		NumSamples: len(data) / frameSize,
		PTS:        pts,
		Data:       data,
	}, nil
}

// Validate checks the format and that the payload length matches the
// sample count.
func (f *Frame) Validate() error {
	if f == nil {
		return errors.New(ErrInvalidFrame).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("reason", "nil frame").
			Build()
	}
	if err := f.Format.Validate(); err != nil {
		return err
	}
	if want := f.Format.BytesFor(f.NumSamples); f.NumSamples < 0 || len(f.Data) != want {
		return errors.New(ErrInvalidFrame).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("data_length", len(f.Data)).
			Context("expected_length", want).
			Build()
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return &Frame{
		Format:     f.Format,
		NumSamples: f.NumSamples,
		PTS:        f.PTS,
		Data:       data,
	}
}

// Duration returns the playing time of the frame.
func (f *Frame) Duration() time.Duration {
	return f.Format.DurationOf(int64(f.NumSamples))
}

// TimestampMicros returns the PTS in microseconds.
func (f *Frame) TimestampMicros() int64 {
	return SamplesToMicros(f.PTS, f.Format.SampleRate)
}

// EndPTS returns the PTS one past the last sample of the frame.
func (f *Frame) EndPTS() int64 {
	return f.PTS + int64(f.NumSamples)
}

// Truncate shortens the frame to its first n sample frames in place. Planar
// channel planes are moved down to stay contiguous.
func (f *Frame) Truncate(n int) {
	if n < 0 || n >= f.NumSamples {
		return
	}
	if f.Format.IsPlanar() {
		size := f.Format.SampleSize()
		plane, stride := n*size, f.NumSamples*size
		for c := 1; c < f.Format.Channels; c++ {
			copy(f.Data[c*plane:(c+1)*plane], f.Data[c*stride:c*stride+plane])
		}
	}
	f.Data = f.Data[:f.Format.BytesFor(n)]
	f.NumSamples = n
}
