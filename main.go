package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/audiomix/cmd"
	"github.com/tphakala/audiomix/internal/buildinfo"
	"github.com/tphakala/audiomix/internal/conf"
	"github.com/tphakala/audiomix/internal/privacy"
)

// buildDate and version are set at build time with -ldflags
var (
	buildDate string
	version   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a failed ID only leaves telemetry reporting "unknown"
	systemID, _ := privacy.GenerateSystemID()
	info := buildinfo.NewContext(version, buildDate, systemID)

	// Defaults, the default config file and the environment seed flag
	// defaults; the root command reloads with --config and flags applied.
	settings := conf.Setting()

	rootCmd := cmd.RootCommand(info, settings)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
