package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sadopc/habitchart/internal/series"
)

var markerColor = drawing.ColorFromHex("34D399")

// WritePNG renders the dataset as a PNG image of the given pixel size.
func WritePNG(w io.Writer, ds series.Dataset, width, height int) error {
	if ds.Empty() {
		return ErrNoData
	}
	times, parsed := Times(ds.Dates)
	b, ok := plotBounds(ds, times)
	if !ok {
		return ErrNoData
	}

	sys := gochart.TimeSeries{
		Name:  "Systolic",
		Style: gochart.Style{StrokeColor: gochart.ColorRed, StrokeWidth: 2, DotColor: gochart.ColorRed, DotWidth: 3},
	}
	dia := gochart.TimeSeries{
		Name:  "Diastolic",
		Style: gochart.Style{StrokeColor: gochart.ColorBlue, StrokeWidth: 2, DotColor: gochart.ColorBlue, DotWidth: 3},
	}
	done := gochart.TimeSeries{
		Name:  "All habits completed",
		Style: gochart.Style{StrokeWidth: gochart.Disabled, StrokeColor: markerColor, DotColor: markerColor, DotWidth: 5},
	}
	for i, t := range times {
		if s := ds.Systolic[i]; s.Valid {
			sys.XValues = append(sys.XValues, t)
			sys.YValues = append(sys.YValues, float64(s.Int))
		}
		if d := ds.Diastolic[i]; d.Valid {
			dia.XValues = append(dia.XValues, t)
			dia.YValues = append(dia.YValues, float64(d.Int))
		}
		if m := ds.AllHabitsCompleted[i]; plottableMarker(m) {
			done.XValues = append(done.XValues, t)
			done.YValues = append(done.YValues, m.Value)
		}
	}

	// go-chart rejects series without values.
	var plotted []gochart.Series
	for _, ts := range []gochart.TimeSeries{sys, dia, done} {
		if len(ts.XValues) > 0 {
			plotted = append(plotted, ts)
		}
	}

	xFormat := gochart.TimeValueFormatterWithFormat(time.DateOnly)
	if !parsed {
		xFormat = indexFormatter(ds.Dates)
	}
	ch := gochart.Chart{
		Title:      "Blood pressure",
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: gochart.XAxis{
			Range:          &gochart.ContinuousRange{Min: gochart.TimeToFloat64(b.tmin), Max: gochart.TimeToFloat64(b.tmax)},
			ValueFormatter: xFormat,
		},
		YAxis: gochart.YAxis{
			Name:  "mmHg",
			Range: &gochart.ContinuousRange{Min: b.ymin, Max: b.ymax},
		},
		Series: plotted,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

// indexFormatter labels fallback positions with the original date keys.
func indexFormatter(dates []string) gochart.ValueFormatter {
	epoch := gochart.TimeToFloat64(fallbackEpoch)
	day := float64(24 * time.Hour)
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return ""
		}
		i := int(math.Round((f - epoch) / day))
		if i < 0 || i >= len(dates) {
			return ""
		}
		return dates[i]
	}
}
