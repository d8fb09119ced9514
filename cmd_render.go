package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitchart/internal/chart"
	"github.com/sadopc/habitchart/internal/ingest"
	"github.com/sadopc/habitchart/internal/series"
	"github.com/sadopc/habitchart/internal/watch"
)

var (
	renderWidth  int
	renderHeight int
	renderWatch  bool
	renderPolicy policyFlags
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Print the blood pressure chart for an export",
	Long: `Render draws the chart to stdout. With --watch it redraws whenever the
file changes, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "chart width in cells (default from config)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "chart height in rows (default from config)")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "redraw when the file changes")
	renderPolicy.register(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	path := args[0]
	policy, err := renderPolicy.policy(cmd)
	if err != nil {
		return err
	}

	width, height := renderWidth, renderHeight
	if width <= 0 {
		width = cfg.Chart.Width
	}
	if height <= 0 {
		height = cfg.Chart.Height
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if err := renderOnce(ctx, out, path, policy, width, height); err != nil {
		if !renderWatch {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	}
	if !renderWatch {
		return nil
	}

	changes, err := watch.Watch(ctx, path, logger)
	if err != nil {
		return err
	}
	for range changes {
		fmt.Fprintln(out)
		if err := renderOnce(ctx, out, path, policy, width, height); err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("render failed", zap.String("path", path), zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
	return nil
}

// renderOnce runs one pass over path and writes the chart, legend and stats.
func renderOnce(ctx context.Context, w io.Writer, path string, p series.Policy, width, height int) error {
	res, err := ingest.Load(ctx, path, p, ingest.WithLogger(logger))
	if err != nil {
		return err
	}
	ds := res.Dataset

	first, last := ds.Span()
	fmt.Fprintf(w, "%s  %s → %s  (%d dates, %d/%d days all habits completed)\n",
		path, first, last, ds.Len(), ds.CompletedDays(), ds.Len())

	body := chart.Terminal(ds, width, height)
	if body == "" {
		fmt.Fprintln(w, "nothing to plot: no blood pressure readings or completed days")
	} else {
		fmt.Fprintln(w, body)
		fmt.Fprintln(w, chart.Legend())
	}

	st := ds.Stats
	fmt.Fprintf(w, "%d rows  %d readings  %d malformed  %d duplicates  %d undated\n",
		st.Rows, st.Readings, st.MalformedMemos, st.DuplicateReadings, st.Undated)
	return nil
}
