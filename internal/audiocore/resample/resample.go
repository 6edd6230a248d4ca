// Package resample converts PCM frames between audio formats. Sample rate
// conversion uses Catmull-Rom cubic interpolation and carries history across
// calls so consecutive frames of a stream join without discontinuities.
package resample

import (
	"math"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// history holds the input frames kept between calls: the frame before the
// interpolation position and the two after it.
const history = 3

// Resampler converts frames of one audio format into another. It changes
// sample rate, encoding and channel count in one pass. Samples are carried
// in the [-1, 1] unit domain between decoding and encoding.
//
// A Resampler is not safe for concurrent use.
type Resampler struct {
	in, out  audiocore.AudioFormat
	inCodec  *audiocore.Codec
	outCodec *audiocore.Codec
	ratio    float64 // input samples per output sample
	sameRate bool
	lowPass  bool
	filter   []float64 // one-pole low-pass state per output channel
	primed   bool
	pending  []float64 // interleaved unit samples, out.Channels wide
	// Interpolation position relative to pending: frame idx plus
	// frac/out.SampleRate. Kept exact so output does not depend on chunking.
	idx    int
	frac   int
	mapped []float64
	closed bool
}

// New creates a resampler from in to out.
func New(in, out audiocore.AudioFormat) (*Resampler, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}

	ratio := float64(in.SampleRate) / float64(out.SampleRate)
	return &Resampler{
		in:       in,
		out:      out,
		inCodec:  audiocore.CodecFor(in.Encoding),
		outCodec: audiocore.CodecFor(out.Encoding),
		ratio:    ratio,
		sameRate: in.SampleRate == out.SampleRate,
		// Anti-aliasing when downsampling
		lowPass: ratio > 1,
		filter:  make([]float64, out.Channels),
		mapped:  make([]float64, out.Channels),
	}, nil
}

// InputFormat returns the format accepted by Resample.
func (r *Resampler) InputFormat() audiocore.AudioFormat { return r.in }

// OutputFormat returns the format produced by Resample.
func (r *Resampler) OutputFormat() audiocore.AudioFormat { return r.out }

// MinOutputSamples returns the destination size that is always large enough
// for converting numIn input samples.
func (r *Resampler) MinOutputSamples(numIn int) int {
	if r.sameRate {
		return numIn
	}
	return int(math.Ceil(float64(numIn+history)/r.ratio)) + 1
}

// Resample converts src and writes the result to the start of dst. It
// returns the number of samples written, which can be less than the input
// length while the interpolation history fills.
func (r *Resampler) Resample(dst, src *audiocore.Frame) (int, error) {
	if r.closed {
		return 0, errors.New(audiocore.ErrBufferClosed).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("operation", "resample").
			Build()
	}
	if err := r.checkFrames(dst, src); err != nil {
		return 0, err
	}
	if need := r.MinOutputSamples(src.NumSamples); dst.NumSamples < need {
		return 0, errors.New(audiocore.ErrBufferOverflow).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryBuffer).
			Context("operation", "resample").
			Context("requested", need).
			Context("available", dst.NumSamples).
			Build()
	}

	in, err := audiocore.WrapBuffer(src)
	if err != nil {
		return 0, err
	}
	out, err := audiocore.WrapBuffer(dst)
	if err != nil {
		return 0, err
	}

	if r.sameRate {
		for in.HasRemaining() {
			if err := r.readMapped(in); err != nil {
				return 0, err
			}
			if err := r.write(out, r.mapped); err != nil {
				return 0, err
			}
		}
		return out.Position(), nil
	}

	for in.HasRemaining() {
		if err := r.readMapped(in); err != nil {
			return 0, err
		}
		r.appendPending()
	}
	return r.interpolate(out)
}

// Close releases the interpolation history. Closing twice is a no-op.
func (r *Resampler) Close() error {
	r.closed = true
	r.pending = nil
	return nil
}

func (r *Resampler) checkFrames(dst, src *audiocore.Frame) error {
	if src == nil || dst == nil {
		return errors.Newf("resample requires source and destination frames").
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	for _, c := range []struct {
		want, got audiocore.AudioFormat
		role      string
	}{{r.in, src.Format, "source"}, {r.out, dst.Format, "destination"}} {
		if c.want != c.got {
			return errors.New(audiocore.ErrIncompatibleFormat).
				Component(audiocore.ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("operation", "resample").
				Context("frame", c.role).
				Context("expected_format", c.want.String()).
				Context("actual_format", c.got.String()).
				Build()
		}
	}
	return nil
}

// readMapped reads one input sample frame into r.mapped, remapping channels.
func (r *Resampler) readMapped(in *audiocore.SampleBuffer) error {
	inCh, outCh := r.in.Channels, r.out.Channels

	var sum float64
	for c := 0; c < inCh; c++ {
		v, err := in.Get()
		if err != nil {
			return err
		}
		u := r.inCodec.ToUnit(v)
		switch {
		case outCh == 1:
			sum += u
		case inCh == 1:
			for o := range r.mapped {
				r.mapped[o] = u
			}
		default:
			for o := c; o < outCh; o += inCh {
				r.mapped[o] = u
			}
		}
	}
	if outCh == 1 {
		r.mapped[0] = sum / float64(inCh)
	}
	return nil
}

func (r *Resampler) appendPending() {
	if r.lowPass {
		if !r.primed {
			copy(r.filter, r.mapped)
		}
		for c, v := range r.mapped {
			r.filter[c] = 0.5*v + 0.5*r.filter[c]
			r.mapped[c] = r.filter[c]
		}
	}
	if !r.primed {
		// Repeat the first frame so the stream start has a left neighbour
		r.pending = append(r.pending, r.mapped...)
		r.idx, r.frac = 1, 0
		r.primed = true
	}
	r.pending = append(r.pending, r.mapped...)
}

// interpolate emits every output sample whose neighbourhood is available and
// drops the input frames no longer needed.
func (r *Resampler) interpolate(out *audiocore.SampleBuffer) (int, error) {
	ch := r.out.Channels
	frames := len(r.pending) / ch
	inRate, outRate := r.in.SampleRate, r.out.SampleRate

	for {
		i := r.idx
		if i+2 >= frames || !out.HasRemaining() {
			break
		}
		t := float64(r.frac) / float64(outRate)
		for c := 0; c < ch; c++ {
			r.mapped[c] = catmullRom(
				r.pending[(i-1)*ch+c],
				r.pending[i*ch+c],
				r.pending[(i+1)*ch+c],
				r.pending[(i+2)*ch+c],
				t)
		}
		if err := r.write(out, r.mapped); err != nil {
			return 0, err
		}
		r.frac += inRate
		r.idx += r.frac / outRate
		r.frac %= outRate
	}

	// Keep the left neighbour of the next position
	drop := min(r.idx-1, frames)
	if drop > 0 {
		r.pending = append(r.pending[:0], r.pending[drop*ch:]...)
		r.idx -= drop
	}
	return out.Position(), nil
}

func (r *Resampler) write(out *audiocore.SampleBuffer, unit []float64) error {
	for _, u := range unit {
		if err := out.Put(r.outCodec.FromUnit(u)); err != nil {
			return err
		}
	}
	return nil
}

// catmullRom interpolates between y1 and y2 at fraction t.
func catmullRom(y0, y1, y2, y3, t float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	return ((a0*t+a1)*t+a2)*t + y1
}
