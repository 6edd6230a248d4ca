package processors

import (
	"context"
	"log/slog"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/audiocore/resample"
)

// ResampleProcessor converts frames to a target format. Frames already in
// the target format pass through untouched. The resampler is built on the
// first frame that needs one and rebuilt whenever the input format changes.
type ResampleProcessor struct {
	id        string
	target    audiocore.AudioFormat
	resampler *resample.Resampler
	onRebuild func(in, out audiocore.AudioFormat)
	logger    *slog.Logger
}

// NewResampleProcessor creates a processor converting to target
func NewResampleProcessor(id string, target audiocore.AudioFormat) (*ResampleProcessor, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &ResampleProcessor{
		id:     id,
		target: target,
		logger: newLogger("resample_processor", id),
	}, nil
}

func (rp *ResampleProcessor) ID() string   { return rp.id }
func (rp *ResampleProcessor) Type() string { return TypeResample }

// OutputFormat returns the target format
func (rp *ResampleProcessor) OutputFormat() audiocore.AudioFormat { return rp.target }

// SetOutputFormat changes the target format. The current resampler is
// released and a new one is built for the next frame.
func (rp *ResampleProcessor) SetOutputFormat(target audiocore.AudioFormat) error {
	if err := target.Validate(); err != nil {
		return err
	}
	rp.target = target
	rp.release()
	return nil
}

// OnRebuild registers a callback invoked whenever a resampler is built
func (rp *ResampleProcessor) OnRebuild(fn func(in, out audiocore.AudioFormat)) {
	rp.onRebuild = fn
}

// Active reports whether a resampler is currently held
func (rp *ResampleProcessor) Active() bool { return rp.resampler != nil }

// Reset releases the resampler and its history
func (rp *ResampleProcessor) Reset() { rp.release() }

func (rp *ResampleProcessor) release() {
	if rp.resampler != nil {
		_ = rp.resampler.Close()
		rp.resampler = nil
	}
}

// Process returns frame unchanged when it matches the target format, else a
// new frame in the target format. While the interpolation history fills the
// result can be nil, which drops the frame.
func (rp *ResampleProcessor) Process(ctx context.Context, frame *audiocore.Frame) (*audiocore.Frame, error) {
	if frame == nil {
		return nil, nilFrameError(rp.id)
	}

	if frame.Format == rp.target {
		rp.release()
		return frame, nil
	}

	if rp.resampler == nil || rp.resampler.InputFormat() != frame.Format {
		rp.release()
		r, err := resample.New(frame.Format, rp.target)
		if err != nil {
			return nil, err
		}
		rp.resampler = r
		rp.logger.Debug("resampler created",
			"input_format", frame.Format.String(),
			"output_format", rp.target.String())
		if rp.onRebuild != nil {
			rp.onRebuild(frame.Format, rp.target)
		}
	}

	pts := audiocore.RescaleRound(frame.PTS, int64(rp.target.SampleRate), int64(frame.Format.SampleRate))
	out, err := audiocore.NewFrame(rp.target, rp.resampler.MinOutputSamples(frame.NumSamples), pts)
	if err != nil {
		return nil, err
	}
	n, err := rp.resampler.Resample(out, frame)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	out.Truncate(n)

	if rp.logger.Enabled(ctx, slog.LevelDebug) {
		rp.logger.Debug("frame resampled",
			"input_samples", frame.NumSamples,
			"output_samples", n)
	}
	return out, nil
}
