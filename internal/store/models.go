package store

import (
	"time"

	"github.com/sadopc/habitchart/internal/series"
)

type Setting struct {
	Key   string
	Value string
}

// Import is one completed pass over an export file. Only counts are kept,
// never the rows themselves.
type Import struct {
	ID         string
	Path       string
	ImportedAt time.Time
	Rows       int
	Dates      int
	Readings   int
	Malformed  int
	Undated    int
}

// Setting keys.
const (
	KeyBPHabit     = "bp_habit"
	KeyMarkerValue = "marker_value"
	KeyWatchFile   = "watch_file"
	KeyChartHeight = "chart_height"
)

// Preferences is the typed view of the settings table.
type Preferences struct {
	BPHabit     string
	MarkerValue float64
	WatchFile   bool
	ChartHeight int
}

func DefaultPreferences() Preferences {
	return Preferences{
		BPHabit:     series.DefaultBloodPressureHabit,
		MarkerValue: series.DefaultMarkerValue,
		WatchFile:   true,
		ChartHeight: 16,
	}
}

// Policy returns the build policy these preferences describe.
func (p Preferences) Policy() series.Policy {
	habit := p.BPHabit
	if habit == "" {
		habit = series.DefaultBloodPressureHabit
	}
	return series.Policy{
		Classify:    series.HabitContains(habit),
		MarkerValue: p.MarkerValue,
	}
}
