package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/habitchart/internal/series"
)

type jsonExport struct {
	ExportedAt         string           `json:"exported_at"`
	Source             string           `json:"source"`
	Count              int              `json:"count"`
	Dates              []string         `json:"dates"`
	Systolic           []series.NullInt `json:"systolic"`
	Diastolic          []series.NullInt `json:"diastolic"`
	AllHabitsCompleted []series.Marker  `json:"all_habits_completed"`
	Tallies            []series.Tally   `json:"tallies"`
	Stats              series.Stats     `json:"stats"`
}

// ToJSON writes the aligned dataset. Absent values are encoded as null.
func ToJSON(ds series.Dataset, source, path string) error {
	export := jsonExport{
		ExportedAt:         time.Now().UTC().Format(time.RFC3339),
		Source:             source,
		Count:              ds.Len(),
		Dates:              nonNil(ds.Dates),
		Systolic:           nonNil(ds.Systolic),
		Diastolic:          nonNil(ds.Diastolic),
		AllHabitsCompleted: nonNil(ds.AllHabitsCompleted),
		Tallies:            nonNil(ds.Tallies),
		Stats:              ds.Stats,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// nonNil keeps empty sequences as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
