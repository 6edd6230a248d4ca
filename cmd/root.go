package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/audiomix/cmd/config"
	"github.com/tphakala/audiomix/cmd/mix"
	"github.com/tphakala/audiomix/cmd/probe"
	"github.com/tphakala/audiomix/cmd/tone"
	"github.com/tphakala/audiomix/internal/buildinfo"
	"github.com/tphakala/audiomix/internal/conf"
	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
	"github.com/tphakala/audiomix/internal/observability"
	"github.com/tphakala/audiomix/internal/privacy"
)

// runtimeState holds what initialize sets up and finalize tears down
type runtimeState struct {
	configPath string
	logFile    string
	closers    []func() error
	flush      func()
	metrics    *observability.Metrics
}

// RootCommand creates and returns the root command. settings is shared with
// the subcommands and is reloaded, with flags applied, before any of them
// runs.
func RootCommand(info *buildinfo.Context, settings *conf.Settings) *cobra.Command {
	state := &runtimeState{}

	rootCmd := &cobra.Command{
		Use:           "audiomix",
		Short:         "Real-time PCM audio mixer",
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, state)

	rootCmd.AddCommand(
		mix.Command(settings),
		probe.Command(settings),
		tone.Command(settings),
		config.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := conf.Load(state.configPath)
		if err != nil {
			return err
		}
		*settings = *loaded
		return initialize(info, settings, state)
	}

	// finalize also runs when a command fails, which PersistentPostRunE does not
	for _, sub := range rootCmd.Commands() {
		run := sub.RunE
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			return errors.Join(err, finalize(settings, state))
		}
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, state *runtimeState) {
	rootCmd.PersistentFlags().StringVar(&state.configPath, "config", "", "Config file, default searches ./config.yaml and the user config directory")
	rootCmd.PersistentFlags().StringVar(&state.logFile, "log-file", "", "Write JSON logs to this file with rotation")
	rootCmd.PersistentFlags().BoolP("debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Bool("metrics", viper.GetBool("metrics.enabled"), "Collect Prometheus metrics")
	rootCmd.PersistentFlags().String("metrics-file", viper.GetString("metrics.textfile"), "Write metrics in textfile collector format on exit")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("metrics.enabled", rootCmd.PersistentFlags().Lookup("metrics"))
	_ = viper.BindPFlag("metrics.textfile", rootCmd.PersistentFlags().Lookup("metrics-file"))
}

// initialize sets up logging, telemetry and metrics once settings are final
func initialize(info *buildinfo.Context, settings *conf.Settings, state *runtimeState) error {
	// stdout is reserved for command output
	logging.Init()
	logging.SetOutput(os.Stderr, os.Stderr)
	level := slog.LevelWarn
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.SetLevel(level)

	logConf := settings.Main.Log
	if state.logFile != "" {
		logConf.Enabled = true
		logConf.Path = state.logFile
	}
	if logConf.Enabled {
		fileLevel := slog.LevelInfo
		if settings.Debug {
			fileLevel = slog.LevelDebug
		}
		logger, closeFn, err := logging.NewFileLogger(logConf.Path, settings.Main.Name, fileLevel, logConf)
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryFileIO).
				Context("operation", "open_log_file").
				Context("path", logConf.Path).
				Build()
		}
		logging.SetStructured(logger)
		state.closers = append(state.closers, closeFn)
	}

	if settings.Sentry.Enabled {
		errors.SetPrivacyScrubber(privacy.ScrubMessage)
		flush, err := errors.InitSentry(settings.Sentry.DSN, info.Version())
		if err != nil {
			return err
		}
		state.flush = flush
	}

	if settings.Metrics.Enabled {
		metrics, err := observability.NewMetrics()
		if err != nil {
			return err
		}
		state.metrics = metrics
	}

	if logger := logging.ForService("cli"); logger != nil {
		logger.Info("audiomix starting",
			"version", info.Version(),
			"build_date", info.BuildDate(),
			"system_id", info.SystemID(),
			"debug", settings.Debug,
			"metrics", settings.Metrics.Enabled)
	}
	return nil
}

// finalize writes the metrics textfile and releases what initialize opened
func finalize(settings *conf.Settings, state *runtimeState) error {
	var errs []error
	if state.metrics != nil {
		logMetricTotals(state.metrics)
		if settings.Metrics.TextFile != "" {
			errs = append(errs, state.metrics.WriteTextfile(settings.Metrics.TextFile))
		}
		state.metrics = nil
	}
	if state.flush != nil {
		state.flush()
		state.flush = nil
	}
	for _, closeFn := range state.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
		}
	}
	state.closers = nil
	return errors.Join(errs...)
}

// logMetricTotals logs the collected metrics at debug level
func logMetricTotals(m *observability.Metrics) {
	logger := logging.ForService("cli")
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	totals, err := m.Totals()
	if err != nil {
		logger.Warn("failed to gather metrics", "error", err)
		return
	}
	names := slices.Sorted(maps.Keys(totals))
	attrs := make([]any, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, slog.Float64(name, totals[name]))
	}
	logger.Debug("metric totals", attrs...)
}
