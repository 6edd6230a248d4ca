package processors

import (
	"time"

	"github.com/tphakala/audiomix/internal/audiocore"
)

// TrimSettings configures a TrimProcessor
type TrimSettings struct {
	Enabled  bool
	Start    time.Duration
	Duration time.Duration
}

// VolumeSettings configures a VolumeProcessor
type VolumeSettings struct {
	Enabled bool
	Volume  float64
}

// BalanceSettings configures a BalanceProcessor
type BalanceSettings struct {
	Enabled bool
	Balance float64
}

// FadeSettings configures a FadeProcessor
type FadeSettings struct {
	Enabled  bool
	Start    time.Duration
	Duration time.Duration
	Curve    CurveType
}

// FilterSettings holds the per-input filters. Chains are always built in
// field order.
type FilterSettings struct {
	Trim    TrimSettings
	Volume  VolumeSettings
	Balance BalanceSettings
	FadeIn  FadeSettings
	FadeOut FadeSettings
}

// Enabled reports whether any filter is enabled
func (s FilterSettings) Enabled() bool {
	return s.Trim.Enabled || s.Volume.Enabled || s.Balance.Enabled ||
		s.FadeIn.Enabled || s.FadeOut.Enabled
}

// BuildChain links the enabled filters in the order trim, volume, balance,
// fade-in, fade-out. It returns nil when no filter is enabled.
func BuildChain(s FilterSettings) (*audiocore.ProcessorChain, error) {
	if !s.Enabled() {
		return nil, nil
	}

	builders := []struct {
		enabled bool
		build   func() (audiocore.AudioProcessor, error)
	}{
		{s.Trim.Enabled, func() (audiocore.AudioProcessor, error) {
			return NewTrimProcessor(TypeTrim, s.Trim.Start, s.Trim.Duration)
		}},
		{s.Volume.Enabled, func() (audiocore.AudioProcessor, error) {
			return NewVolumeProcessor(TypeVolume, s.Volume.Volume)
		}},
		{s.Balance.Enabled, func() (audiocore.AudioProcessor, error) {
			return NewBalanceProcessor(TypeBalance, s.Balance.Balance)
		}},
		{s.FadeIn.Enabled, func() (audiocore.AudioProcessor, error) {
			return NewFadeProcessor("fade_in", FadeIn, s.FadeIn.Start, s.FadeIn.Duration, s.FadeIn.Curve)
		}},
		{s.FadeOut.Enabled, func() (audiocore.AudioProcessor, error) {
			return NewFadeProcessor("fade_out", FadeOut, s.FadeOut.Start, s.FadeOut.Duration, s.FadeOut.Curve)
		}},
	}

	chain := audiocore.NewProcessorChain()
	for _, b := range builders {
		if !b.enabled {
			continue
		}
		p, err := b.build()
		if err != nil {
			return nil, err
		}
		if err := chain.AddProcessor(p); err != nil {
			return nil, err
		}
	}
	return chain, nil
}
