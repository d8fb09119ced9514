package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sadopc/habitchart/internal/ingest"
	"github.com/sadopc/habitchart/internal/series"
	"github.com/sadopc/habitchart/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewChart viewState = iota
	viewFiles
	viewHistory
	viewSettings
)

var viewNames = []string{"Chart", "Files", "History", "Settings"}

// --- Messages ---

// fileSelectedMsg asks the app to start a pass over path.
type fileSelectedMsg struct {
	path string
}

// loadDoneMsg carries the outcome of the pass tagged gen.
type loadDoneMsg struct {
	gen    uint64
	result ingest.Result
	err    error
}

type watchStartedMsg struct {
	path string
	ch   <-chan string
}

type fileChangedMsg struct {
	path string
	ch   <-chan string
}

type watchClosedMsg struct {
	ch <-chan string
}

type importRecordedMsg struct {
	imp *store.Import
}

type prefsSavedMsg struct {
	prefs store.Preferences
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func statsLine(s series.Stats) string {
	return fmt.Sprintf("%d rows  %d readings  %d malformed  %d duplicates  %d undated",
		s.Rows, s.Readings, s.MalformedMemos, s.DuplicateReadings, s.Undated)
}

func spanLabel(ds series.Dataset) string {
	first, last := ds.Span()
	switch {
	case first == "":
		return "no dates"
	case first == last:
		return first
	default:
		return fmt.Sprintf("%s → %s  (%d dates)", first, last, ds.Len())
	}
}

func shortPath(p string) string {
	dir, file := filepath.Split(p)
	parent := filepath.Base(filepath.Clean(dir))
	if parent == "." || parent == string(filepath.Separator) {
		return file
	}
	return filepath.Join(parent, file)
}

func formatWhen(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
