package series

import (
	"iter"
	"regexp"
	"slices"
	"sort"
	"strconv"
)

var (
	readingPattern = regexp.MustCompile(`(\d+)/(\d+)`)
	leadingInt     = regexp.MustCompile(`^\s*([+-]?\d+)`)
)

// Reading is one systolic/diastolic pair.
type Reading struct {
	Systolic  int
	Diastolic int
}

// ParseReading extracts the first "systolic/diastolic" pair from a memo.
// Out-of-range numbers saturate.
func ParseReading(memo string) (Reading, bool) {
	m := readingPattern.FindStringSubmatch(memo)
	if m == nil {
		return Reading{}, false
	}
	// Atoi returns the clamped value alongside a range error.
	sys, _ := strconv.Atoi(m[1])
	dia, _ := strconv.Atoi(m[2])
	return Reading{Systolic: sys, Diastolic: dia}, true
}

// ParseValue reads the leading integer of s. Empty or non-numeric input is 0.
// Out-of-range values saturate.
func ParseValue(s string) int {
	m := leadingInt.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, _ := strconv.Atoi(m[1])
	return v
}

// accumulator holds the per-pass state of Build.
type accumulator struct {
	policy   Policy
	tallies  map[string]*Tally
	readings map[string]Reading
	stats    Stats
}

func newAccumulator(p Policy) *accumulator {
	return &accumulator{
		policy:   p,
		tallies:  make(map[string]*Tally),
		readings: make(map[string]Reading),
	}
}

func (a *accumulator) add(r Row) {
	a.stats.Rows++
	if r.Date == "" {
		a.stats.Undated++
		return
	}

	t, ok := a.tallies[r.Date]
	if !ok {
		t = &Tally{}
		a.tallies[r.Date] = t
	}
	t.Total++
	if ParseValue(r.Value) > 0 {
		t.Completed++
	}

	if a.policy.classify(r) != KindBloodPressure {
		return
	}
	reading, ok := ParseReading(r.Memo)
	if !ok {
		a.stats.MalformedMemos++
		return
	}
	if _, seen := a.readings[r.Date]; seen {
		a.stats.DuplicateReadings++
		return
	}
	a.readings[r.Date] = reading
	a.stats.Readings++
}

func (a *accumulator) dataset() Dataset {
	dates := make([]string, 0, len(a.tallies))
	for d := range a.tallies {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	ds := Dataset{
		Dates:              dates,
		Systolic:           make([]NullInt, len(dates)),
		Diastolic:          make([]NullInt, len(dates)),
		AllHabitsCompleted: make([]Marker, len(dates)),
		Tallies:            make([]Tally, len(dates)),
		Stats:              a.stats,
	}
	for i, d := range dates {
		if r, ok := a.readings[d]; ok {
			ds.Systolic[i] = NullInt{Int: r.Systolic, Valid: true}
			ds.Diastolic[i] = NullInt{Int: r.Diastolic, Valid: true}
		}
		t := *a.tallies[d]
		ds.Tallies[i] = t
		ds.AllHabitsCompleted[i] = Marker{Date: d}
		if t.AllCompleted() {
			ds.AllHabitsCompleted[i].Value = a.policy.MarkerValue
			ds.AllHabitsCompleted[i].Valid = true
		}
	}
	return ds
}

// Build folds rows into an aligned dataset in a single pass. Readings are
// first-wins per date, so the result depends on row order only there.
func Build(rows iter.Seq[Row], p Policy) Dataset {
	acc := newAccumulator(p)
	for r := range rows {
		acc.add(r)
	}
	return acc.dataset()
}

// BuildSlice is Build over an in-memory slice.
func BuildSlice(rows []Row, p Policy) Dataset {
	return Build(slices.Values(rows), p)
}
