package series

import (
	"encoding/json"
	"strconv"
)

// NullInt is an integer that may be absent. Absent values marshal to JSON null.
type NullInt struct {
	Int   int
	Valid bool
}

func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Int)), nil
}

func (n *NullInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullInt{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NullInt{Int: v, Valid: true}
	return nil
}

// String returns the decimal value, or "" when absent.
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Int)
}

// Marker is one point of the all-habits-completed overlay. It carries its
// own x-value because it is drawn as a scatter over the line series.
type Marker struct {
	Date  string
	Value float64
	Valid bool
}

type markerJSON struct {
	X string   `json:"x"`
	Y *float64 `json:"y"`
}

func (m Marker) MarshalJSON() ([]byte, error) {
	out := markerJSON{X: m.Date}
	if m.Valid {
		v := m.Value
		out.Y = &v
	}
	return json.Marshal(out)
}

func (m *Marker) UnmarshalJSON(data []byte) error {
	var in markerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = Marker{Date: in.X}
	if in.Y != nil {
		m.Value = *in.Y
		m.Valid = true
	}
	return nil
}

// Tally counts the habit rows logged on one date.
type Tally struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// AllCompleted reports whether at least one habit was logged and all of them were completed.
func (t Tally) AllCompleted() bool {
	return t.Total > 0 && t.Total == t.Completed
}

// Stats records what a build pass saw, including rows it skipped.
type Stats struct {
	Rows              int `json:"rows"`
	Undated           int `json:"undated"`
	Readings          int `json:"readings"`
	MalformedMemos    int `json:"malformed_memos"`
	DuplicateReadings int `json:"duplicate_readings"`
}

// Dataset is the aligned output of Build. Every slice has len(Dates) entries
// and index i refers to Dates[i].
type Dataset struct {
	Dates              []string
	Systolic           []NullInt
	Diastolic          []NullInt
	AllHabitsCompleted []Marker
	Tallies            []Tally
	Stats              Stats
}

func (d Dataset) Len() int { return len(d.Dates) }

func (d Dataset) Empty() bool { return len(d.Dates) == 0 }

// Span returns the first and last date, or empty strings for an empty dataset.
func (d Dataset) Span() (first, last string) {
	if len(d.Dates) == 0 {
		return "", ""
	}
	return d.Dates[0], d.Dates[len(d.Dates)-1]
}

// CompletedDays counts the dates carrying an all-habits-completed marker.
func (d Dataset) CompletedDays() int {
	n := 0
	for _, m := range d.AllHabitsCompleted {
		if m.Valid {
			n++
		}
	}
	return n
}
