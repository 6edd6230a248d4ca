package processors

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/tphakala/audiomix/internal/audiocore"
)

// Volume limits
const (
	MinVolume = 0.0
	MaxVolume = 3.0
)

// VolumeProcessor scales every sample by a multiplier
type VolumeProcessor struct {
	id     string
	volume atomic.Value // stores float64
	logger *slog.Logger
}

// NewVolumeProcessor creates a new volume processor
func NewVolumeProcessor(id string, volume float64) (*VolumeProcessor, error) {
	if err := validateVolume(volume); err != nil {
		return nil, err
	}

	processor := &VolumeProcessor{
		id:     id,
		logger: newLogger("volume_processor", id),
	}
	processor.volume.Store(volume)

	processor.logger.Debug("volume processor created",
		"initial_volume", volume)

	return processor, nil
}

func validateVolume(v float64) error {
	if !(v >= MinVolume && v <= MaxVolume) {
		return invalidParam("volume", v, "must be between 0.0 and 3.0")
	}
	return nil
}

// ID returns a unique identifier for this processor
func (vp *VolumeProcessor) ID() string {
	return vp.id
}

// Type returns the processor type label
func (vp *VolumeProcessor) Type() string { return TypeVolume }

// Reset is a no-op; the volume has no per-stream state
func (vp *VolumeProcessor) Reset() {}

// Process scales the frame in place
func (vp *VolumeProcessor) Process(ctx context.Context, frame *audiocore.Frame) (*audiocore.Frame, error) {
	if frame == nil {
		return nil, nilFrameError(vp.id)
	}

	volume := vp.Volume()

	// If volume is 1.0, return input unchanged
	if volume == 1.0 {
		return frame, nil
	}

	b, err := audiocore.WrapBuffer(frame)
	if err != nil {
		return nil, err
	}
	if err := b.ScaleAll(volume); err != nil {
		return nil, err
	}

	if vp.logger.Enabled(ctx, slog.LevelDebug) {
		vp.logger.Debug("applied volume",
			"volume", volume,
			"format", frame.Format.String(),
			"num_samples", frame.NumSamples)
	}
	return frame, nil
}

// SetVolume updates the multiplier
func (vp *VolumeProcessor) SetVolume(volume float64) error {
	if err := validateVolume(volume); err != nil {
		return err
	}

	vp.volume.Store(volume)
	vp.logger.Info("volume updated",
		"new_volume", volume)
	return nil
}

// Volume returns the current multiplier
func (vp *VolumeProcessor) Volume() float64 {
	return vp.volume.Load().(float64)
}
