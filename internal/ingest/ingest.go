// Package ingest runs one pass over a habit export: open, parse, build.
package ingest

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/habitchart/internal/habits"
	"github.com/sadopc/habitchart/internal/series"
)

// Result is the outcome of a successful pass over a file.
type Result struct {
	Path     string
	Dataset  series.Dataset
	LoadedAt time.Time
}

type options struct {
	log *zap.Logger
	now func() time.Time
}

type Option func(*options)

// WithLogger sets the logger used for per-pass summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides time.Now for LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Read parses r and builds the aligned dataset. A cancelled ctx ends the pass
// early and returns ctx.Err() with no dataset.
func Read(ctx context.Context, r io.Reader, p series.Policy, opts ...Option) (series.Dataset, error) {
	return read(ctx, r, p, buildOptions(opts))
}

func read(ctx context.Context, r io.Reader, p series.Policy, o options) (series.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return series.Dataset{}, err
	}
	hr := habits.NewReader(r)
	ds := series.Build(untilDone(ctx, hr.Rows(), o.log), p)
	if err := ctx.Err(); err != nil {
		return series.Dataset{}, err
	}
	if err := hr.Err(); err != nil {
		return series.Dataset{}, err
	}
	o.log.Debug("header mapped", zap.Strings("columns", hr.Columns()))
	return ds, nil
}

// Load opens path and runs Read over it.
func Load(ctx context.Context, path string, p series.Policy, opts ...Option) (Result, error) {
	o := buildOptions(opts)
	log := o.log.With(zap.String("path", path))
	o.log = log
	start := o.now()

	f, err := os.Open(path)
	if err != nil {
		log.Error("open export failed", zap.Error(err))
		return Result{}, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	ds, err := read(ctx, f, p, o)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("pass cancelled", zap.Error(err))
			return Result{}, err
		}
		log.Error("read export failed", zap.Error(err))
		return Result{}, fmt.Errorf("read export: %w", err)
	}

	loadedAt := o.now()
	log.Info("pass complete",
		zap.Int("rows", ds.Stats.Rows),
		zap.Int("dates", ds.Len()),
		zap.Int("readings", ds.Stats.Readings),
		zap.Int("malformed", ds.Stats.MalformedMemos),
		zap.Int("duplicates", ds.Stats.DuplicateReadings),
		zap.Int("undated", ds.Stats.Undated),
		zap.Duration("duration", loadedAt.Sub(start)),
	)
	return Result{Path: path, Dataset: ds, LoadedAt: loadedAt}, nil
}

// untilDone stops rows once ctx is done.
func untilDone(ctx context.Context, rows iter.Seq[series.Row], log *zap.Logger) iter.Seq[series.Row] {
	return func(yield func(series.Row) bool) {
		n := 0
		for r := range rows {
			if ctx.Err() != nil {
				log.Debug("stopping row scan", zap.Int("rows_seen", n))
				return
			}
			n++
			if !yield(r) {
				return
			}
		}
	}
}
