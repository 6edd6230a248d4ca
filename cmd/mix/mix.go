// Package mix implements the mix command
package mix

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/audiomix/cmd/convert"
	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/audiocore/mixer"
	"github.com/tphakala/audiomix/internal/audiocore/sinks"
	"github.com/tphakala/audiomix/internal/audiocore/sinks/malgo"
	"github.com/tphakala/audiomix/internal/audiocore/sources"
	"github.com/tphakala/audiomix/internal/conf"
	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
)

// drainTimeout bounds how long playback may take to empty its queue
const drainTimeout = 5 * time.Second

// Summary describes a finished mix
type Summary struct {
	Inputs      int
	Samples     int64
	Duration    time.Duration
	Output      string
	Interrupted bool
}

// Command creates the mix command
func Command(settings *conf.Settings) *cobra.Command {
	var play bool

	cmd := &cobra.Command{
		Use:   "mix [files...]",
		Short: "Mix audio files into one stream",
		Long: `Mix up to mixer.maxinputs audio files and write the result to a WAV file
or play it on the sound card. Files given on the command line replace the
inputs of the configuration file; glob patterns such as "music/**/*.flac"
are expanded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				paths, err := convert.ExpandPaths(args)
				if err != nil {
					return err
				}
				settings.Inputs = make([]conf.InputSettings, len(paths))
				for i, p := range paths {
					settings.Inputs[i] = conf.InputSettings{Path: p}
				}
				settings.Mixer.MaxInputs = max(settings.Mixer.MaxInputs, len(paths))
			}
			if play {
				settings.Output.Type = conf.OutputPlayback
			}

			summary, err := Run(cmd.Context(), settings)
			if err != nil {
				return err
			}
			status := "done"
			if summary.Interrupted {
				status = "interrupted"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: mixed %d inputs, %d samples (%s) to %s\n",
				status, summary.Inputs, summary.Samples, summary.Duration.Round(time.Millisecond), summary.Output)
			return nil
		},
	}

	setupFlags(cmd, &play)
	return cmd
}

// setupFlags binds the mix flags to their configuration keys
func setupFlags(cmd *cobra.Command, play *bool) {
	cmd.Flags().StringP("output", "o", viper.GetString("output.path"), "Output WAV file")
	cmd.Flags().Int("bitdepth", viper.GetInt("output.bitdepth"), "Output WAV bit depth: 8, 16, 24 or 32")
	cmd.Flags().String("device", viper.GetString("output.device"), "Playback device name")
	cmd.Flags().String("policy", viper.GetString("mixer.duration"), "Duration policy: first, shortest or longest")
	cmd.Flags().Int("tick", viper.GetInt("mixer.ticksamples"), "Samples mixed per tick")
	cmd.Flags().BoolVar(play, "play", false, "Play the mix instead of writing a file")

	for key, flag := range map[string]string{
		"output.path":       "output",
		"output.bitdepth":   "bitdepth",
		"output.device":     "device",
		"mixer.duration":    "policy",
		"mixer.ticksamples": "tick",
	} {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

// output receives mixed frames
type output interface {
	OnFrame(frame *audiocore.Frame) error
	Close() error
}

// Run mixes the configured inputs until the mixer runs dry or ctx is
// cancelled. A cancelled mix still finalises its output.
func Run(ctx context.Context, settings *conf.Settings) (summary *Summary, err error) {
	base := logging.ForService("cli")
	if base == nil {
		base = slog.Default()
	}
	logger := base.With("component", "mix")

	if len(settings.Inputs) == 0 {
		return nil, errors.Newf("no inputs to mix").
			Category(errors.CategoryValidation).
			Build()
	}

	opts, err := convert.MixerOptions(settings.Mixer)
	if err != nil {
		return nil, err
	}
	m, err := mixer.New(append(opts, mixer.WithLogger(base.With("component", "mixer")))...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for i, in := range settings.Inputs {
		if err := link(m, i, in); err != nil {
			return nil, err
		}
	}

	out, name, err := openOutput(ctx, settings.Output, m.OutputFormat())
	if err != nil {
		return nil, err
	}
	m.AddListener(out)

	summary = &Summary{Inputs: m.NumInputs(), Output: name}
	start := time.Now()
	mixErr := mixLoop(ctx, m, settings.Mixer.TickSamples)
	if errors.Is(mixErr, context.Canceled) || errors.Is(mixErr, context.DeadlineExceeded) {
		summary.Interrupted = true
		mixErr = nil
	}

	if cerr := out.Close(); cerr != nil && mixErr == nil {
		mixErr = cerr
	}
	if mixErr != nil {
		return nil, mixErr
	}

	summary.Samples = m.NextPTS()
	summary.Duration = m.OutputFormat().DurationOf(summary.Samples)
	logger.Info("mix finished",
		"inputs", summary.Inputs,
		"samples", summary.Samples,
		"output", name,
		"interrupted", summary.Interrupted,
		"elapsed", time.Since(start))
	return summary, nil
}

// link opens one input with its filter chain and links it to slot idx
func link(m *mixer.Mixer, idx int, in conf.InputSettings) error {
	chain, err := convert.Chain(in)
	if err != nil {
		return err
	}
	src, err := sources.Open(in.Path)
	if err != nil {
		return err
	}
	if err := m.LinkFiltered(idx, src, chain); err != nil {
		_ = src.Close()
		return err
	}
	return nil
}

// mixLoop reads ticks until the mixer reports no more output. Cancellation
// is checked between ticks.
func mixLoop(ctx context.Context, m *mixer.Mixer, tick int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := m.Read(tick)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// openOutput creates the destination selected by the output settings
func openOutput(ctx context.Context, o conf.OutputSettings, format audiocore.AudioFormat) (output, string, error) {
	switch o.Type {
	case conf.OutputWAV:
		w, err := sinks.NewWAVWriter(o.Path, format, o.BitDepth)
		if err != nil {
			return nil, "", err
		}
		return w, o.Path, nil

	case conf.OutputPlayback:
		p, err := newPlayback(ctx, o, format)
		if err != nil {
			return nil, "", err
		}
		name := o.Device
		if name == "" {
			name = "default device"
		}
		return p, name, nil

	case conf.OutputNull:
		s, err := sinks.New(format, sinks.ConsumerFunc(func(*audiocore.Frame) error { return nil }),
			sinks.WithType(conf.OutputNull))
		if err != nil {
			return nil, "", err
		}
		return s, conf.OutputNull, nil

	default:
		return nil, "", errors.Newf("unknown output type %q", o.Type).
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// playback converts mixed frames to a device format and queues them
type playback struct {
	ctx    context.Context
	sink   *sinks.Sink
	player *malgo.Player
}

func newPlayback(ctx context.Context, o conf.OutputSettings, format audiocore.AudioFormat) (*playback, error) {
	player, err := malgo.NewPlayer(malgo.Config{
		DeviceName: o.Device,
		Format:     malgo.PlaybackFormat(format),
		BufferMs:   o.BufferMs,
	})
	if err != nil {
		return nil, err
	}
	sink, err := sinks.New(player.Format(), player, sinks.WithType(conf.OutputPlayback))
	if err != nil {
		return nil, err
	}
	if err := player.Start(); err != nil {
		return nil, err
	}
	return &playback{ctx: ctx, sink: sink, player: player}, nil
}

func (p *playback) OnFrame(frame *audiocore.Frame) error { return p.sink.OnFrame(frame) }

// Close waits for queued audio to play out, then stops the device
func (p *playback) Close() error {
	ctx, cancel := context.WithTimeout(p.ctx, drainTimeout)
	defer cancel()
	drainErr := p.player.Drain(ctx)
	_ = p.sink.Close()
	if err := p.player.Stop(); err != nil {
		return err
	}
	if drainErr != nil && !errors.Is(drainErr, context.Canceled) {
		return drainErr
	}
	return nil
}
