package chart

import (
	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitchart/internal/series"
)

const (
	systolicSet  = "systolic"
	diastolicSet = "diastolic"
	markerRune   = '◆'
)

var (
	systolicStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	diastolicStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	markerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Bold(true)
)

// Terminal draws the dataset as a braille line chart. Systolic and diastolic
// are lines; completed days are markers at the policy's marker value.
// It returns "" when there is nothing to plot.
func Terminal(ds series.Dataset, width, height int) string {
	if width < 10 || height < 4 || ds.Empty() {
		return ""
	}
	times, _ := Times(ds.Dates)
	b, ok := plotBounds(ds, times)
	if !ok {
		return ""
	}

	tslc := timeserieslinechart.New(width, height,
		timeserieslinechart.WithTimeRange(b.tmin, b.tmax),
		timeserieslinechart.WithYRange(b.ymin, b.ymax),
		timeserieslinechart.WithXLabelFormatter(timeserieslinechart.DateTimeLabelFormatter()),
	)
	tslc.SetDataSetStyle(systolicSet, systolicStyle)
	tslc.SetDataSetStyle(diastolicSet, diastolicStyle)

	for i, t := range times {
		if s := ds.Systolic[i]; s.Valid {
			tslc.PushDataSet(systolicSet, timeserieslinechart.TimePoint{Time: t, Value: float64(s.Int)})
		}
		if d := ds.Diastolic[i]; d.Valid {
			tslc.PushDataSet(diastolicSet, timeserieslinechart.TimePoint{Time: t, Value: float64(d.Int)})
		}
	}
	tslc.DrawBrailleAll()

	for i, m := range ds.AllHabitsCompleted {
		if !plottableMarker(m) {
			continue
		}
		p := canvas.Float64Point{X: float64(times[i].Unix()), Y: m.Value}
		tslc.DrawRuneWithStyle(p, markerRune, markerStyle)
	}
	return tslc.View()
}
