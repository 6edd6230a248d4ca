package processors

import (
	"context"
	"log/slog"
	"time"

	"github.com/tphakala/audiomix/internal/audiocore"
)

// TrimProcessor keeps the samples inside [start, start+duration) of a
// stream. Frames wholly outside the window are dropped; frames straddling
// an edge keep their length with the outside part silenced. A zero duration
// keeps everything from start to the end of the stream.
type TrimProcessor struct {
	id     string
	window sampleWindow
	logger *slog.Logger
}

// NewTrimProcessor creates a trim processor
func NewTrimProcessor(id string, start, duration time.Duration) (*TrimProcessor, error) {
	if start < 0 {
		return nil, invalidParam("start", start, "must not be negative")
	}
	if duration < 0 {
		return nil, invalidParam("duration", duration, "must not be negative")
	}

	return &TrimProcessor{
		id:     id,
		window: sampleWindow{start: start, duration: duration},
		logger: newLogger("trim_processor", id),
	}, nil
}

// ID returns the processor identifier
func (tp *TrimProcessor) ID() string { return tp.id }

// Type returns the processor type label
func (tp *TrimProcessor) Type() string { return TypeTrim }

// Start returns the window start
func (tp *TrimProcessor) Start() time.Duration { return tp.window.start }

// Duration returns the window length, zero when unbounded
func (tp *TrimProcessor) Duration() time.Duration { return tp.window.duration }

// Reset drops the cached sample offsets
func (tp *TrimProcessor) Reset() { tp.window.reset() }

// Process drops or silences frame content outside the trim window
func (tp *TrimProcessor) Process(ctx context.Context, frame *audiocore.Frame) (*audiocore.Frame, error) {
	if frame == nil {
		return nil, nilFrameError(tp.id)
	}

	start, length := tp.window.at(frame.Format.SampleRate)
	bounded := length > 0
	end := start + length
	cur := frame.PTS
	n := int64(frame.NumSamples)

	if cur+n <= start || (bounded && cur >= end) {
		if tp.logger.Enabled(ctx, slog.LevelDebug) {
			tp.logger.Debug("frame outside trim window dropped",
				"pts", cur,
				"num_samples", n)
		}
		return nil, nil
	}

	if cur < start {
		if err := silenceRange(frame, 0, int(start-cur)); err != nil {
			return nil, err
		}
	}
	if bounded && end < cur+n {
		if err := silenceRange(frame, int(end-cur), frame.NumSamples); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
