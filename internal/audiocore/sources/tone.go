package sources

import (
	"io"
	"math"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// toneDecoder synthesises samples instead of reading a file
type toneDecoder struct {
	format     audiocore.AudioFormat
	total      int64
	frameSize  int
	pos        int64
	sampleFunc func(pos int64, ch int) float64
}

// NewToneSource creates a source emitting numSamples sample frames of a
// constant value, given in the native domain of the format's encoding, in
// frames of frameSize samples.
func NewToneSource(format audiocore.AudioFormat, value float64, numSamples int64, frameSize int) (*DecoderSource, error) {
	return newToneSource(format, numSamples, frameSize, func(int64, int) float64 {
		return value
	})
}

// NewSineSource creates a source emitting a sine wave of freq Hz. amplitude
// is relative to full scale.
func NewSineSource(format audiocore.AudioFormat, freq, amplitude float64, numSamples int64, frameSize int) (*DecoderSource, error) {
	codec := audiocore.CodecFor(format.Encoding)
	step := 2 * math.Pi * freq / float64(format.SampleRate)
	return newToneSource(format, numSamples, frameSize, func(pos int64, _ int) float64 {
		return codec.FromUnit(amplitude * math.Sin(step*float64(pos)))
	})
}

func newToneSource(format audiocore.AudioFormat, numSamples int64, frameSize int, fn func(int64, int) float64) (*DecoderSource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if numSamples < 0 || frameSize < 1 {
		return nil, errors.Newf("invalid tone length: %d samples in frames of %d", numSamples, frameSize).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	return newDecoderSource("tone", "", &toneDecoder{
		format:     format,
		total:      numSamples,
		frameSize:  frameSize,
		sampleFunc: fn,
	}), nil
}

func (d *toneDecoder) open() (audiocore.AudioFormat, error) {
	d.pos = 0
	return d.format, nil
}

func (d *toneDecoder) decode() ([]byte, error) {
	n := min(int64(d.frameSize), d.total-d.pos)
	if n <= 0 {
		return nil, io.EOF
	}

	buf, err := audiocore.AllocateBuffer(d.format, int(n), 0)
	if err != nil {
		return nil, err
	}
	for i := range n {
		for c := range d.format.Channels {
			if err := buf.Put(d.sampleFunc(d.pos+i, c)); err != nil {
				return nil, err
			}
		}
	}
	d.pos += n
	return buf.Frame().Data, nil
}

func (d *toneDecoder) describe() streamInfo {
	return streamInfo{
		codec:    "tone",
		bitDepth: d.format.Encoding.Bits(),
		duration: durationOf(d.total, d.format.SampleRate),
	}
}

func (d *toneDecoder) close() error { return nil }
