// Package export writes an aligned dataset to disk.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/habitchart/internal/series"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPNG  Format = "png"
)

var Formats = []Format{FormatCSV, FormatJSON, FormatPNG}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or png)", s)
}

// FileName returns habitchart-export-YYYY-MM-DD.<ext> inside dir.
func FileName(dir string, f Format, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("habitchart-export-%s.%s", now.Format(time.DateOnly), f))
}

// Options carries what some formats need beyond the dataset.
type Options struct {
	Source string
	Width  int
	Height int
}

// Write dispatches to the writer for f.
func Write(f Format, ds series.Dataset, path string, opts Options) error {
	switch f {
	case FormatCSV:
		return ToCSV(ds, path)
	case FormatJSON:
		return ToJSON(ds, opts.Source, path)
	case FormatPNG:
		return ToPNG(ds, path, opts.Width, opts.Height)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}
