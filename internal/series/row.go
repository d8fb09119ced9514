package series

import "strings"

// Row is one record of a habit export. Any field may be empty.
type Row struct {
	Date  string
	Habit string
	Value string
	Memo  string
}

// Kind classifies what a row records.
type Kind int

const (
	KindHabit Kind = iota
	KindBloodPressure
)

func (k Kind) String() string {
	switch k {
	case KindBloodPressure:
		return "blood_pressure"
	default:
		return "habit"
	}
}

// Classifier decides the Kind of a row.
type Classifier func(Row) Kind

// HabitContains marks a row as a blood-pressure entry when its Habit field
// contains substr.
func HabitContains(substr string) Classifier {
	return func(r Row) Kind {
		if strings.Contains(r.Habit, substr) {
			return KindBloodPressure
		}
		return KindHabit
	}
}
