package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitchart/internal/export"
	"github.com/sadopc/habitchart/internal/ingest"
	"github.com/sadopc/habitchart/internal/series"
)

var (
	exportFormat string
	exportOut    string
	exportWidth  int
	exportHeight int
	exportPolicy policyFlags
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the aligned series as CSV, JSON or PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatCSV), "output format: csv, json or png")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default habitchart-export-YYYY-MM-DD.<ext> in the export directory)")
	exportCmd.Flags().IntVar(&exportWidth, "width", 1200, "PNG width in pixels")
	exportCmd.Flags().IntVar(&exportHeight, "height", 600, "PNG height in pixels")
	exportPolicy.register(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	policy, err := exportPolicy.policy(cmd)
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = export.FileName(cfg.ExportDir, f, time.Now())
	}

	if err := exportFile(cmd.Context(), args[0], out, f, policy, exportWidth, exportHeight); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
	return nil
}

func exportFile(ctx context.Context, path, out string, f export.Format, p series.Policy, width, height int) error {
	res, err := ingest.Load(ctx, path, p, ingest.WithLogger(logger))
	if err != nil {
		return err
	}
	err = export.Write(f, res.Dataset, out, export.Options{
		Source: path,
		Width:  width,
		Height: height,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	logger.Info("exported", zap.String("format", string(f)), zap.String("out", out), zap.Int("dates", res.Dataset.Len()))
	return nil
}
