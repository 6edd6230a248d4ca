package processors

import (
	"context"
	"log/slog"
	"time"

	"github.com/tphakala/audiomix/internal/audiocore"
)

// FadeDirection selects a fade-in or a fade-out
type FadeDirection int

const (
	FadeIn FadeDirection = iota
	FadeOut
)

func (d FadeDirection) String() string {
	if d == FadeOut {
		return "fade_out"
	}
	return "fade_in"
}

// FadeProcessor ramps the gain of a stream between silence and unity over
// [start, start+duration), shaped by a curve.
//
// A fade-in silences everything before start and leaves everything after the
// fade untouched. A fade-out leaves everything before start untouched and
// silences everything after the fade.
type FadeProcessor struct {
	id        string
	direction FadeDirection
	curve     CurveType
	window    sampleWindow
	logger    *slog.Logger
}

// NewFadeProcessor creates a fade processor. The duration must be positive.
func NewFadeProcessor(id string, direction FadeDirection, start, duration time.Duration, curve CurveType) (*FadeProcessor, error) {
	if direction != FadeIn && direction != FadeOut {
		return nil, invalidParam("direction", int(direction), "must be fade in or fade out")
	}
	if start < 0 {
		return nil, invalidParam("start", start, "must not be negative")
	}
	if duration <= 0 {
		return nil, invalidParam("duration", duration, "must be positive")
	}
	if !curve.IsValid() {
		return nil, invalidParam("curve", int(curve), "unknown curve type")
	}

	return &FadeProcessor{
		id:        id,
		direction: direction,
		curve:     curve,
		window:    sampleWindow{start: start, duration: duration},
		logger:    newLogger("fade_processor", id),
	}, nil
}

// ID returns the processor identifier
func (fp *FadeProcessor) ID() string { return fp.id }

// Type returns the processor type label
func (fp *FadeProcessor) Type() string { return TypeFade }

// Direction returns whether this is a fade-in or a fade-out
func (fp *FadeProcessor) Direction() FadeDirection { return fp.direction }

// Curve returns the gain curve
func (fp *FadeProcessor) Curve() CurveType { return fp.curve }

// Reset drops the cached sample offsets
func (fp *FadeProcessor) Reset() { fp.window.reset() }

// Process applies the fade gain to the frame in place
func (fp *FadeProcessor) Process(ctx context.Context, frame *audiocore.Frame) (*audiocore.Frame, error) {
	if frame == nil {
		return nil, nilFrameError(fp.id)
	}

	start, length := fp.window.at(frame.Format.SampleRate)
	// A duration shorter than one sample at this rate
	length = max(length, 1)
	end := start + length
	cur := frame.PTS
	n := int64(frame.NumSamples)

	var offset, dir int64
	switch fp.direction {
	case FadeIn:
		if cur >= end {
			return frame, nil
		}
		if cur+n <= start {
			return frame, silenceRange(frame, 0, frame.NumSamples)
		}
		offset, dir = cur-start, 1
	default:
		if cur+n <= start {
			return frame, nil
		}
		if cur >= end {
			return frame, silenceRange(frame, 0, frame.NumSamples)
		}
		offset, dir = end-cur, -1
	}

	if fp.logger.Enabled(ctx, slog.LevelDebug) {
		fp.logger.Debug("applying fade",
			"direction", fp.direction.String(),
			"curve", fp.curve.String(),
			"pts", cur)
	}

	b, err := audiocore.WrapBuffer(frame)
	if err != nil {
		return nil, err
	}
	ch := frame.Format.Channels
	for p := int64(0); p < n; p++ {
		gain := fp.curve.Apply(float64(offset+p*dir) / float64(length))
		for c := 0; c < ch; c++ {
			if err := b.Scale(gain); err != nil {
				return nil, err
			}
		}
	}
	return frame, nil
}
