package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/habitchart/internal/config"
	"github.com/sadopc/habitchart/internal/export"
	"github.com/sadopc/habitchart/internal/ingest"
	"github.com/sadopc/habitchart/internal/series"
	"github.com/sadopc/habitchart/internal/store"
)

const sampleExport = "Date,Habit,Value,Memo\n" +
	"2024-01-01,Take Blood Pressure,1,120/80\n" +
	"2024-01-01,Exercise,1,\n" +
	"2024-01-02,Take Blood Pressure,1,125/82\n" +
	"2024-01-02,Exercise,0,\n"

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestApp returns a sized app that does not watch files.
func newTestApp(t *testing.T) App {
	t.Helper()
	s := newTestStore(t)
	prefs := store.DefaultPreferences()
	prefs.WatchFile = false
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{ExportDir: t.TempDir(), StartDir: t.TempDir()}
	app := NewApp(s, cfg, nil, "")
	app.width = 120
	app.height = 40
	app.chart.setSize(120, 36)
	app.history.setSize(120, 36)
	t.Cleanup(app.Close)
	return app
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return app, cmd
}

// runCmd executes cmd and flattens batches into their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runCmd(c)...)
	}
	return out
}

func sampleResult(path string) ingest.Result {
	ds := series.BuildSlice([]series.Row{
		{Date: "2024-01-01", Habit: "Take Blood Pressure", Value: "1", Memo: "120/80"},
	}, series.DefaultPolicy())
	return ingest.Result{Path: path, Dataset: ds, LoadedAt: time.Now()}
}

// ============================================================
// Helpers
// ============================================================

func TestStatsLine(t *testing.T) {
	got := statsLine(series.Stats{Rows: 10, Readings: 3, MalformedMemos: 1, DuplicateReadings: 2, Undated: 4})
	want := "10 rows  3 readings  1 malformed  2 duplicates  4 undated"
	if got != want {
		t.Fatalf("statsLine = %q, want %q", got, want)
	}
}

func TestSpanLabel(t *testing.T) {
	tests := []struct {
		dates []string
		want  string
	}{
		{nil, "no dates"},
		{[]string{"2024-01-01"}, "2024-01-01"},
		{[]string{"2024-01-01", "2024-01-05"}, "2024-01-01 → 2024-01-05  (2 dates)"},
	}
	for _, tt := range tests {
		if got := spanLabel(series.Dataset{Dates: tt.dates}); got != tt.want {
			t.Errorf("spanLabel(%v) = %q, want %q", tt.dates, got, tt.want)
		}
	}
}

func TestShortPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/home/me/exports/habits.csv", filepath.Join("exports", "habits.csv")},
		{"habits.csv", "habits.csv"},
		{"/habits.csv", "habits.csv"},
	}
	for _, tt := range tests {
		if got := shortPath(tt.in); got != tt.want {
			t.Errorf("shortPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDayLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-03-09", "09"},
		{"day 12", "12"},
		{"7", "7"},
	}
	for _, tt := range tests {
		if got := dayLabel(tt.in); got != tt.want {
			t.Errorf("dayLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a-very-long-file-name.csv", 8); got != "a-very-…" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	if viewNames[viewChart] != "Chart" || viewNames[viewSettings] != "Settings" {
		t.Fatal("view names out of order")
	}
}

// ============================================================
// Load sequencing
// ============================================================

func TestLoadUpdatesChart(t *testing.T) {
	app := newTestApp(t)
	path := writeExport(t, sampleExport)

	app, cmd := update(t, app, fileSelectedMsg{path: path})
	if app.chart.loading != path {
		t.Fatal("chart should show the pass in flight")
	}
	done, ok := cmd().(loadDoneMsg)
	if !ok {
		t.Fatal("load command should produce loadDoneMsg")
	}
	if done.err != nil {
		t.Fatalf("load: %v", done.err)
	}

	app, cmd = update(t, app, done)
	if !app.chart.hasData() {
		t.Fatal("chart should have data after load")
	}
	if app.chart.result.Dataset.Len() != 2 {
		t.Fatalf("dates = %d, want 2", app.chart.result.Dataset.Len())
	}
	if app.history.dataset.Len() != 2 {
		t.Fatal("history should receive the dataset")
	}
	if app.statusErr {
		t.Fatalf("unexpected error status %q", app.status)
	}

	// The follow-up command records the import.
	var recorded bool
	for _, m := range runCmd(cmd) {
		if _, ok := m.(importRecordedMsg); ok {
			recorded = true
		}
	}
	if !recorded {
		t.Fatal("expected import to be recorded")
	}
	imports, _ := app.store.ListImports(0)
	if len(imports) != 1 || imports[0].Path != path || imports[0].Readings != 2 {
		t.Fatalf("imports = %+v", imports)
	}
}

func TestStaleLoadDiscarded(t *testing.T) {
	app := newTestApp(t)

	app, _ = app.startLoad("first.csv")
	app, _ = app.startLoad("second.csv")
	if app.loadGen != 2 {
		t.Fatalf("loadGen = %d, want 2", app.loadGen)
	}

	app, _ = update(t, app, loadDoneMsg{gen: 1, result: sampleResult("first.csv")})
	if app.chart.result != nil {
		t.Fatal("result of a superseded pass must be discarded")
	}

	app, _ = update(t, app, loadDoneMsg{gen: 2, result: sampleResult("second.csv")})
	if app.chart.result == nil || app.chart.result.Path != "second.csv" {
		t.Fatal("latest pass should be shown")
	}
}

func TestStartLoadCancelsPrevious(t *testing.T) {
	app := newTestApp(t)
	path := writeExport(t, sampleExport)

	app, first := app.startLoad(path)
	app, _ = app.startLoad(path)

	msg := first().(loadDoneMsg)
	if !errors.Is(msg.err, context.Canceled) {
		t.Fatalf("first pass err = %v, want context.Canceled", msg.err)
	}
	app, _ = update(t, app, msg)
	if app.chart.result != nil || app.statusErr {
		t.Fatal("cancelled pass must not touch the screen")
	}
}

func TestLoadErrorKeepsLastDataset(t *testing.T) {
	app := newTestApp(t)
	app, _ = app.startLoad("good.csv")
	app, _ = update(t, app, loadDoneMsg{gen: app.loadGen, result: sampleResult("good.csv")})

	app, _ = app.startLoad("bad.csv")
	app, _ = update(t, app, loadDoneMsg{gen: app.loadGen, err: errors.New("read export: boom")})

	if !app.statusErr || !strings.Contains(app.status, "boom") {
		t.Fatalf("status = %q, want load error", app.status)
	}
	if app.chart.result == nil || app.chart.result.Path != "good.csv" {
		t.Fatal("last good dataset should stay on screen")
	}
	if !strings.Contains(app.chart.view(), "boom") {
		t.Fatal("chart view should show the error")
	}
}

func TestReloadWithoutFileIsNoop(t *testing.T) {
	app := newTestApp(t)
	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("R")})
	if cmd != nil || app.loadGen != 0 {
		t.Fatal("reload with no file should do nothing")
	}
}

func TestFileChangedFromStaleWatchIgnored(t *testing.T) {
	app := newTestApp(t)
	stale := make(chan string)
	app, cmd := update(t, app, fileChangedMsg{path: "x.csv", ch: stale})
	if cmd != nil || app.loadGen != 0 {
		t.Fatal("change from a stale watcher should be ignored")
	}
}

func TestWatchStartedForOtherPathIgnored(t *testing.T) {
	app := newTestApp(t)
	app.watchPath = "current.csv"
	ch := make(chan string)
	app, cmd := update(t, app, watchStartedMsg{path: "old.csv", ch: ch})
	if cmd != nil || app.watchCh != nil {
		t.Fatal("superseded watcher should be ignored")
	}
}

func TestPrefsSavedReloads(t *testing.T) {
	app := newTestApp(t)
	app, _ = app.startLoad("a.csv")
	gen := app.loadGen

	prefs := store.DefaultPreferences()
	prefs.WatchFile = false
	prefs.ChartHeight = 22
	app, cmd := update(t, app, prefsSavedMsg{prefs: prefs})
	if cmd == nil || app.loadGen != gen+1 {
		t.Fatal("saving settings should re-run the current pass")
	}
	if app.chart.chartHeight != 22 {
		t.Fatalf("chart height = %d, want 22", app.chart.chartHeight)
	}
}

// ============================================================
// Export
// ============================================================

func TestExportWithoutData(t *testing.T) {
	app := newTestApp(t)
	msg := app.doExport(export.FormatCSV)()
	st, ok := msg.(statusMsg)
	if !ok || !st.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestExportWritesFile(t *testing.T) {
	app := newTestApp(t)
	app, _ = app.startLoad("a.csv")
	app, _ = update(t, app, loadDoneMsg{gen: app.loadGen, result: sampleResult("a.csv")})

	for _, f := range export.Formats {
		msg := app.doExport(f)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("export %s: got %#v", f, msg)
		}
		if filepath.Dir(done.path) != app.cfg.ExportDir {
			t.Fatalf("export written to %s, want dir %s", done.path, app.cfg.ExportDir)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("export %s missing: %v", f, err)
		}
	}
}

func TestExportPickerNavigation(t *testing.T) {
	app := newTestApp(t)
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	for range 5 {
		app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	}
	if app.exportCursor != len(export.Formats)-1 {
		t.Fatalf("cursor = %d, want clamp at %d", app.exportCursor, len(export.Formats)-1)
	}
	if !strings.Contains(app.View(), "PNG") {
		t.Fatal("picker should list PNG")
	}
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Files
// ============================================================

func TestFilesRecentSelection(t *testing.T) {
	s := newTestStore(t)
	f := newFilesModel(s, t.TempDir())
	f.setSize(100, 30)

	f, _ = f.update(recentDataMsg{paths: []string{"/a.csv", "/b.csv"}})
	f, _ = f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if !f.viewRecent {
		t.Fatal("r should focus the recent list")
	}
	f, _ = f.update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := f.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should select a recent file")
	}
	sel, ok := cmd().(fileSelectedMsg)
	if !ok || sel.path != "/b.csv" {
		t.Fatalf("selected %#v, want /b.csv", sel)
	}
}

func TestFilesRecentEmptyCannotFocus(t *testing.T) {
	s := newTestStore(t)
	f := newFilesModel(s, t.TempDir())
	f, _ = f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if f.viewRecent {
		t.Fatal("recent list should not take focus when empty")
	}
}

func TestFilesRefreshReadsStore(t *testing.T) {
	s := newTestStore(t)
	s.RecordImport(store.Import{Path: "/data/x.csv"})
	f := newFilesModel(s, t.TempDir())

	msg, ok := f.refresh()().(recentDataMsg)
	if !ok || len(msg.paths) != 1 || msg.paths[0] != "/data/x.csv" {
		t.Fatalf("recent = %#v", msg)
	}
}

// ============================================================
// History
// ============================================================

func TestHistoryWindow(t *testing.T) {
	s := newTestStore(t)
	h := newHistoryModel(s)
	h.setSize(40, 20) // 32 columns, 10 bars

	var rows []series.Row
	for d := 1; d <= 25; d++ {
		rows = append(rows, series.Row{Date: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly), Habit: "A", Value: "1"})
	}
	h.setDataset(series.BuildSlice(rows, series.DefaultPolicy()))

	from, to := h.window()
	if to != 25 || to-from != h.visibleBars() {
		t.Fatalf("window = [%d,%d), want the most recent %d dates", from, to, h.visibleBars())
	}

	h, _ = h.update(tea.KeyMsg{Type: tea.KeyUp})
	if from2, to2 := h.window(); to2 != 24 || from2 != from-1 {
		t.Fatalf("scrolling back should shift the window, got [%d,%d)", from2, to2)
	}
	h, _ = h.update(tea.KeyMsg{Type: tea.KeyDown})
	h, _ = h.update(tea.KeyMsg{Type: tea.KeyDown})
	if h.offset != 0 {
		t.Fatalf("offset = %d, should not go below 0", h.offset)
	}
}

func TestHistoryImportsTable(t *testing.T) {
	s := newTestStore(t)
	s.RecordImport(store.Import{Path: "/data/habits.csv", Rows: 42})
	h := newHistoryModel(s)
	h.setSize(120, 30)

	h, _ = h.update(h.refresh()())
	if len(h.imports) != 1 {
		t.Fatalf("imports = %d, want 1", len(h.imports))
	}
	if !strings.Contains(h.view(), "habits.csv") {
		t.Fatal("history view should list the import")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsFormPreferences(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	*m.bpHabit = "  BP  "
	*m.markerValue = "65.5"
	*m.chartHeight = "20"
	*m.watchFile = false

	got := m.formPreferences()
	want := store.Preferences{BPHabit: "BP", MarkerValue: 65.5, WatchFile: false, ChartHeight: 20}
	if got != want {
		t.Fatalf("formPreferences = %+v, want %+v", got, want)
	}
}

func TestSettingsFormPreferencesIgnoresNonFiniteMarker(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	*m.bpHabit = "BP"
	*m.chartHeight = "16"
	for _, v := range []string{"NaN", "+Inf", "1e300"} {
		*m.markerValue = v
		if got := m.formPreferences().MarkerValue; got != series.DefaultMarkerValue {
			t.Fatalf("marker %q: got %v, want default", v, got)
		}
	}
}

func TestSettingsSavePersists(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	*m.bpHabit = "Blood pressure"
	*m.markerValue = "40"
	*m.chartHeight = "12"
	*m.watchFile = true

	saved := m.formPreferences()
	if err := s.SavePreferences(saved); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Preferences()
	if p != saved {
		t.Fatalf("stored = %+v, want %+v", p, saved)
	}
}

func TestSettingsValidators(t *testing.T) {
	if validateHabit("  ") == nil {
		t.Fatal("blank habit should be rejected")
	}
	if validateMarker("fifty") == nil || validateMarker("50") != nil {
		t.Fatal("marker validation wrong")
	}
	for _, v := range []string{"NaN", "Inf", "-Inf", "1e300", "2000000"} {
		if validateMarker(v) == nil {
			t.Fatalf("marker %q should be rejected", v)
		}
	}
	if validateHeight("3") == nil || validateHeight("101") == nil || validateHeight("16") != nil {
		t.Fatal("height validation wrong")
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{store.KeyWatchFile, "true", "on"},
		{store.KeyWatchFile, "false", "off"},
		{store.KeyChartHeight, "16", "16 rows"},
		{store.KeyBPHabit, "Take Blood Pressure", `"Take Blood Pressure"`},
		{store.KeyMarkerValue, "50", "50"},
		{"unknown", "x", "x"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.key, tt.value); got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s, config.Config{}, nil, "")

	if app.activeView != viewChart {
		t.Fatal("default view should be chart")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("overlays should be hidden by default")
	}
	if app.prefs != store.DefaultPreferences() {
		t.Fatalf("prefs = %+v", app.prefs)
	}
}

func TestAppInitialPath(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s, config.Config{StartDir: t.TempDir()}, nil, "/data/export.csv")
	if app.Init() == nil {
		t.Fatal("Init should return commands")
	}
	if app.initialPath != "/data/export.csv" {
		t.Fatal("initial path not kept")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	app := newTestApp(t)
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppTabCycles(t *testing.T) {
	app := newTestApp(t)
	for i := range viewNames {
		if app.activeView != viewState(i) {
			t.Fatalf("step %d: view = %d", i, app.activeView)
		}
		app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyTab})
	}
	if app.activeView != viewChart {
		t.Fatal("tab should wrap back to chart")
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)
	app, _ = update(t, app, loadDoneMsg{gen: 0, result: sampleResult("a.csv")})

	for _, v := range []viewState{viewChart, viewFiles, viewHistory, viewSettings} {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)
	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(s, config.Config{}, nil, "")
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	app, _ = update(t, app, statusMsg{text: "test status"})

	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestChartViewEmpty(t *testing.T) {
	c := newChartModel(16)
	c.setSize(100, 30)
	if !strings.Contains(c.view(), "No export loaded") {
		t.Fatal("empty chart view should prompt for a file")
	}
	c.setSize(10, 30)
	if c.view() != "Terminal too small" {
		t.Fatal("narrow terminal should be reported")
	}
}

func TestChartViewShowsStats(t *testing.T) {
	c := newChartModel(16)
	c.setSize(100, 30)
	c.setResult(sampleResult("/data/export.csv"))
	out := c.view()
	for _, want := range []string{"export.csv", "1 readings", "systolic"} {
		if !strings.Contains(out, want) {
			t.Fatalf("chart view missing %q", want)
		}
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test: just verify they render)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"completedBar", func() string { return completedBarStyle.Render("test") }},
		{"missedBar", func() string { return missedBarStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
