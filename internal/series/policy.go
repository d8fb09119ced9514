package series

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultBloodPressureHabit = "Take Blood Pressure"
	DefaultMarkerValue        = 50
)

// MaxMarkerMagnitude bounds the marker value so the chart y-range stays drawable.
const MaxMarkerMagnitude = 1e6

var ErrMarkerValue = errors.New("invalid marker value")

// CheckMarkerValue rejects NaN, infinities and values beyond MaxMarkerMagnitude.
func CheckMarkerValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v is not a finite number", ErrMarkerValue, v)
	}
	if math.Abs(v) > MaxMarkerMagnitude {
		return fmt.Errorf("%w: %v is outside ±%g", ErrMarkerValue, v, float64(MaxMarkerMagnitude))
	}
	return nil
}

// Policy controls how rows are turned into series.
type Policy struct {
	// Classify picks out blood-pressure rows. Nil means DefaultPolicy's classifier.
	Classify Classifier
	// MarkerValue is the y-value plotted for a date on which every habit was completed.
	MarkerValue float64
}

func DefaultPolicy() Policy {
	return Policy{
		Classify:    HabitContains(DefaultBloodPressureHabit),
		MarkerValue: DefaultMarkerValue,
	}
}

func (p Policy) classify(r Row) Kind {
	if p.Classify == nil {
		return HabitContains(DefaultBloodPressureHabit)(r)
	}
	return p.Classify(r)
}
