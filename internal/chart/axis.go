// Package chart renders an aligned dataset for the terminal and as PNG.
package chart

import (
	"errors"
	"time"

	"github.com/sadopc/habitchart/internal/series"
)

// ErrNoData is returned when a dataset has nothing to plot.
var ErrNoData = errors.New("no readings or completed days to plot")

const yPadding = 10

// fallbackEpoch anchors index positions when dates do not parse.
var fallbackEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Times maps each date to a position on the time axis. Dates are parsed as
// 2006-01-02 or RFC 3339. If any date fails to parse, every date is placed
// one day apart in index order instead, keeping the lexicographic alignment.
func Times(dates []string) (times []time.Time, parsed bool) {
	times = make([]time.Time, len(dates))
	for i, d := range dates {
		t, err := parseDate(d)
		if err != nil {
			return indexTimes(len(dates)), false
		}
		times[i] = t
	}
	return times, true
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func indexTimes(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = fallbackEpoch.AddDate(0, 0, i)
	}
	return out
}

// bounds is the plotted area of a dataset.
type bounds struct {
	tmin, tmax time.Time
	ymin, ymax float64
}

// plotBounds covers every reading and marker. Markers whose value is not a
// finite number within series.MaxMarkerMagnitude are left out. The time range
// is widened by a day when it would otherwise be empty.
func plotBounds(ds series.Dataset, times []time.Time) (bounds, bool) {
	var (
		b     bounds
		found bool
	)
	include := func(v float64) {
		if !found {
			b.ymin, b.ymax = v, v
			found = true
			return
		}
		b.ymin = min(b.ymin, v)
		b.ymax = max(b.ymax, v)
	}
	for i := range ds.Dates {
		if ds.Systolic[i].Valid {
			include(float64(ds.Systolic[i].Int))
		}
		if ds.Diastolic[i].Valid {
			include(float64(ds.Diastolic[i].Int))
		}
		if m := ds.AllHabitsCompleted[i]; plottableMarker(m) {
			include(m.Value)
		}
	}
	if !found {
		return bounds{}, false
	}

	b.ymin -= yPadding
	b.ymax += yPadding
	b.tmin, b.tmax = times[0], times[len(times)-1]
	if !b.tmax.After(b.tmin) {
		b.tmax = b.tmin.AddDate(0, 0, 1)
	}
	return b, true
}

func plottableMarker(m series.Marker) bool {
	return m.Valid && series.CheckMarkerValue(m.Value) == nil
}

// Legend describes the chart series for display next to a terminal chart.
func Legend() string {
	return systolicStyle.Render("━ systolic") + "  " +
		diastolicStyle.Render("━ diastolic") + "  " +
		markerStyle.Render(string(markerRune)+" all habits completed")
}
