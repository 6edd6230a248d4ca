// Package processors provides the audio filters run by an audiocore
// ProcessorChain: trim, fade, volume, balance and resample.
//
// Filters transform frames in place where the output has the input's format,
// and validate their parameters at construction.
package processors

import (
	"log/slog"
	"time"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
)

// Processor type labels reported to metrics
const (
	TypeTrim     = "trim"
	TypeFade     = "fade"
	TypeVolume   = "volume"
	TypeBalance  = "balance"
	TypeResample = "resample"
)

func newLogger(component, id string) *slog.Logger {
	logger := logging.ForService("audiocore")
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(
		"component", component,
		"processor_id", id)
}

func invalidParam(name string, value any, msg string) error {
	return errors.Newf("%s: %s", name, msg).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context(name, value).
		Build()
}

func nilFrameError(id string) error {
	return errors.Newf("input frame is nil").
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("processor_id", id).
		Build()
}

// sampleWindow converts a start offset and length to sample counts at a
// frame's rate, caching the result until the rate changes.
type sampleWindow struct {
	start, duration time.Duration
	rate            int
	startSample     int64
	numSamples      int64
}

func (w *sampleWindow) at(rate int) (start, length int64) {
	if w.rate != rate {
		w.rate = rate
		w.startSample = audiocore.NumSamples(rate, w.start)
		w.numSamples = audiocore.NumSamples(rate, w.duration)
	}
	return w.startSample, w.numSamples
}

func (w *sampleWindow) reset() { w.rate = 0 }

// silenceRange silences sample frames [from, to) of frame.
func silenceRange(frame *audiocore.Frame, from, to int) error {
	if from >= to {
		return nil
	}
	b, err := audiocore.WrapBuffer(frame)
	if err != nil {
		return err
	}
	if err := b.SetLimit(to); err != nil {
		return err
	}
	if err := b.SetPosition(from); err != nil {
		return err
	}
	return b.SilenceAll()
}
