// Package convert turns configuration values into audiocore types
package convert

import (
	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/audiocore/mixer"
	"github.com/tphakala/audiomix/internal/audiocore/processors"
	"github.com/tphakala/audiomix/internal/conf"
)

// MixerFormat returns the output format described by the mixer settings
func MixerFormat(m conf.MixerSettings) (audiocore.AudioFormat, error) {
	enc, err := audiocore.ParseSampleFormat(m.Encoding)
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	return audiocore.NewAudioFormat(m.SampleRate, enc, m.Channels)
}

// MixerOptions returns the mixer options for the mixer settings
func MixerOptions(m conf.MixerSettings) ([]mixer.Option, error) {
	format, err := MixerFormat(m)
	if err != nil {
		return nil, err
	}
	policy, err := mixer.ParseDurationPolicy(m.Duration)
	if err != nil {
		return nil, err
	}
	return []mixer.Option{
		mixer.WithFormat(format),
		mixer.WithMaxInputs(m.MaxInputs),
		mixer.WithDropOutTransition(m.DropOutTransition),
		mixer.WithDurationPolicy(policy),
		mixer.WithFifoSamples(m.FifoSamples),
	}, nil
}

// FilterSettings returns the filter settings of one input. A missing volume
// or balance leaves that filter disabled.
func FilterSettings(in conf.InputSettings) (processors.FilterSettings, error) {
	fs := processors.FilterSettings{
		Trim: processors.TrimSettings{
			Enabled:  in.Trim.Enabled,
			Start:    in.Trim.Start,
			Duration: in.Trim.Duration,
		},
	}
	if in.Volume != nil {
		fs.Volume = processors.VolumeSettings{Enabled: true, Volume: *in.Volume}
	}
	if in.Balance != nil {
		fs.Balance = processors.BalanceSettings{Enabled: true, Balance: *in.Balance}
	}

	var err error
	if fs.FadeIn, err = fade(in.FadeIn); err != nil {
		return fs, err
	}
	if fs.FadeOut, err = fade(in.FadeOut); err != nil {
		return fs, err
	}
	return fs, nil
}

func fade(f conf.FadeSettings) (processors.FadeSettings, error) {
	if !f.Enabled {
		return processors.FadeSettings{}, nil
	}
	curve := processors.CurveTRI
	if f.Curve != "" {
		c, err := processors.ParseCurveType(f.Curve)
		if err != nil {
			return processors.FadeSettings{}, err
		}
		curve = c
	}
	return processors.FadeSettings{
		Enabled:  true,
		Start:    f.Start,
		Duration: f.Duration,
		Curve:    curve,
	}, nil
}

// Chain builds the filter chain of one input, nil when it has no filters
func Chain(in conf.InputSettings) (*audiocore.ProcessorChain, error) {
	fs, err := FilterSettings(in)
	if err != nil {
		return nil, err
	}
	return processors.BuildChain(fs)
}
