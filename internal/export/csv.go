package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/habitchart/internal/series"
)

var csvHeader = []string{"Date", "Systolic", "Diastolic", "Habits", "Completed", "AllHabitsCompleted"}

// ToCSV writes one row per date. Absent readings and markers are empty cells.
func ToCSV(ds series.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for i, d := range ds.Dates {
		row := []string{
			d,
			ds.Systolic[i].String(),
			ds.Diastolic[i].String(),
			strconv.Itoa(ds.Tallies[i].Total),
			strconv.Itoa(ds.Tallies[i].Completed),
			formatMarker(ds.AllHabitsCompleted[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatMarker(m series.Marker) string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}
