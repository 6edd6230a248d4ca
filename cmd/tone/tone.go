// Package tone implements the tone command, which writes a test signal
package tone

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/audiocore/sinks"
	"github.com/tphakala/audiomix/internal/audiocore/sources"
	"github.com/tphakala/audiomix/internal/conf"
	"github.com/tphakala/audiomix/internal/errors"
)

// Options describes the generated signal
type Options struct {
	Path       string
	Frequency  float64 // Hz, 0 writes silence
	Amplitude  float64 // relative to full scale
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
}

// Command creates the tone command
func Command(settings *conf.Settings) *cobra.Command {
	opts := Options{
		Frequency:  440,
		Amplitude:  0.5,
		Duration:   time.Second,
		SampleRate: settings.Mixer.SampleRate,
		Channels:   settings.Mixer.Channels,
		BitDepth:   settings.Output.BitDepth,
	}

	cmd := &cobra.Command{
		Use:   "tone <output.wav>",
		Short: "Write a sine test tone to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			// settings are reloaded after flag parsing, so unset flags follow them
			if !cmd.Flags().Changed("samplerate") {
				opts.SampleRate = settings.Mixer.SampleRate
			}
			if !cmd.Flags().Changed("channels") {
				opts.Channels = settings.Mixer.Channels
			}
			if !cmd.Flags().Changed("bitdepth") {
				opts.BitDepth = settings.Output.BitDepth
			}
			samples, err := Generate(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d samples of %g Hz to %s\n", samples, opts.Frequency, opts.Path)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&opts.Frequency, "freq", "f", opts.Frequency, "Tone frequency in Hz")
	cmd.Flags().Float64VarP(&opts.Amplitude, "amplitude", "a", opts.Amplitude, "Amplitude between 0 and 1")
	cmd.Flags().DurationVarP(&opts.Duration, "length", "l", opts.Duration, "Tone length")
	cmd.Flags().IntVar(&opts.SampleRate, "samplerate", opts.SampleRate, "Sample rate in Hz")
	cmd.Flags().IntVar(&opts.Channels, "channels", opts.Channels, "Channel count")
	cmd.Flags().IntVar(&opts.BitDepth, "bitdepth", opts.BitDepth, "WAV bit depth: 8, 16, 24 or 32")
	return cmd
}

// Generate writes the tone and returns the number of sample frames written
func Generate(opts Options) (int64, error) {
	if opts.Amplitude < 0 || opts.Amplitude > 1 || opts.Frequency < 0 || opts.Duration < 0 {
		return 0, errors.Newf("invalid tone: %g Hz at amplitude %g for %s", opts.Frequency, opts.Amplitude, opts.Duration).
			Category(errors.CategoryValidation).
			Build()
	}
	format, err := audiocore.NewAudioFormat(opts.SampleRate, audiocore.FormatF32, opts.Channels)
	if err != nil {
		return 0, err
	}
	numSamples := audiocore.RescaleRound(int64(opts.Duration), int64(opts.SampleRate), int64(time.Second))

	src, err := sources.NewSineSource(format, opts.Frequency, opts.Amplitude, numSamples, sources.DefaultFrameSamples)
	if err != nil {
		return 0, err
	}
	w, err := sinks.NewWAVWriter(opts.Path, format, opts.BitDepth)
	if err != nil {
		return 0, err
	}
	src.AddListener(w)

	err = src.Open()
	if err == nil {
		err = src.ReadAll()
	}
	err = errors.Join(err, src.Close(), w.Close())
	if err != nil {
		return 0, err
	}
	return w.Written(), nil
}
