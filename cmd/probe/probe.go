// Package probe implements the probe command
package probe

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/audiomix/cmd/convert"
	"github.com/tphakala/audiomix/internal/audiocore/sources"
	"github.com/tphakala/audiomix/internal/conf"
	"github.com/tphakala/audiomix/internal/cpuspec"
	"github.com/tphakala/audiomix/internal/errors"
)

// Result is the outcome of probing one file
type Result struct {
	Path  string
	Props *sources.InputProperties
	Err   error
}

// Command creates the probe command
func Command(settings *conf.Settings) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "probe [files...]",
		Short: "Show the stream properties of audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := convert.ExpandPaths(args)
			if err != nil {
				return err
			}

			cache := sources.NewProbeCache(settings.Probe.CacheTTL)
			results, err := Run(cmd.Context(), cache, paths, jobs)
			if err != nil {
				return err
			}
			if failed := Print(cmd.OutOrStdout(), results); failed > 0 {
				return errors.Newf("%d of %d files could not be probed", failed, len(results)).
					Category(errors.CategoryValidation).
					Build()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", cpuspec.GetCPUSpec().Workers(), "Number of files probed in parallel")
	return cmd
}

// Run probes paths with at most jobs files open at a time. Per file errors
// are kept in the results; only cancellation fails the run.
func Run(ctx context.Context, cache *sources.ProbeCache, paths []string, jobs int) ([]Result, error) {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			props, err := cache.Probe(path)
			results[i] = Result{Path: path, Props: props, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Print writes results as an aligned table and returns the number of
// failed files
func Print(w io.Writer, results []Result) int {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCODEC\tFORMAT\tBITRATE\tDURATION")

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\n", r.Path, r.Err)
			continue
		}
		p := r.Props
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d kb/s\t%s\n",
			r.Path, p.CodecName, p.Format, p.BitRate/1000, p.Duration.Round(time.Millisecond))
	}
	_ = tw.Flush()
	return failed
}
