package export

import (
	"fmt"
	"os"

	"github.com/sadopc/habitchart/internal/chart"
	"github.com/sadopc/habitchart/internal/series"
)

// ToPNG renders the chart to an image file. No file is left behind on failure.
func ToPNG(ds series.Dataset, path string, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png file: %w", err)
	}
	if err := chart.WritePNG(f, ds, width, height); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png file: %w", err)
	}
	return nil
}
