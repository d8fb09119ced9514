package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/habitchart/internal/config"
	"github.com/sadopc/habitchart/internal/export"
	"github.com/sadopc/habitchart/internal/ingest"
	"github.com/sadopc/habitchart/internal/store"
	"github.com/sadopc/habitchart/internal/watch"
)

// PNG exports from the TUI use a fixed pixel size.
const (
	pngWidth  = 1200
	pngHeight = 600
)

// App is the root Bubble Tea model.
type App struct {
	store *store.Store
	cfg   config.Config
	log   *zap.Logger
	prefs store.Preferences

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	chart    chartModel
	files    filesModel
	history  historyModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool

	initialPath string

	// Only the pass tagged loadGen may update the screen.
	loadGen    uint64
	loadPath   string
	cancelLoad context.CancelFunc

	watchPath   string
	watchCancel context.CancelFunc
	watchCh     <-chan string
}

func NewApp(s *store.Store, cfg config.Config, log *zap.Logger, initialPath string) App {
	if log == nil {
		log = zap.NewNop()
	}
	prefs, err := s.Preferences()
	if err != nil {
		log.Warn("read preferences", zap.Error(err))
	}

	h := help.New()
	h.ShowAll = false

	return App{
		store:       s,
		cfg:         cfg,
		log:         log,
		prefs:       prefs,
		activeView:  viewChart,
		chart:       newChartModel(prefs.ChartHeight),
		files:       newFilesModel(s, cfg.StartDir),
		history:     newHistoryModel(s),
		settings:    newSettingsModel(s),
		help:        h,
		initialPath: initialPath,
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.files.Init(),
		a.history.refresh(),
		a.settings.refresh(),
	}
	if a.initialPath != "" {
		cmds = append(cmds, selectFile(a.initialPath))
	}
	return tea.Batch(cmds...)
}

// Close cancels the pass in flight and stops watching.
func (a App) Close() {
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	if a.watchCancel != nil {
		a.watchCancel()
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.chart.setSize(a.width, contentHeight)
		a.files.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.Close()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Reload):
			if a.loadPath == "" {
				return a, nil
			}
			return a.startLoad(a.loadPath)
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewChart
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewFiles
			return a, a.files.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case fileSelectedMsg:
		a.activeView = viewChart
		return a.startLoad(msg.path)

	case loadDoneMsg:
		return a.finishLoad(msg)

	case watchStartedMsg:
		if msg.path != a.watchPath {
			// Superseded; its context is already cancelled.
			return a, nil
		}
		a.watchCh = msg.ch
		return a, waitForChange(msg.ch)

	case fileChangedMsg:
		if msg.ch != a.watchCh {
			return a, nil
		}
		a.log.Info("export changed on disk", zap.String("path", msg.path))
		var cmd tea.Cmd
		a, cmd = a.startLoad(msg.path)
		return a, tea.Batch(cmd, waitForChange(msg.ch))

	case watchClosedMsg:
		if msg.ch == a.watchCh {
			a.watchCh = nil
		}
		return a, nil

	case importRecordedMsg:
		return a, tea.Batch(a.history.refresh(), a.files.refresh())

	case prefsSavedMsg:
		a.prefs = msg.prefs
		a.chart.chartHeight = msg.prefs.ChartHeight
		a.status, a.statusErr = "Settings saved", false
		if !msg.prefs.WatchFile {
			a.stopWatch()
		}
		if a.loadPath == "" {
			return a, nil
		}
		return a.startLoad(a.loadPath)

	case statusMsg:
		a.status, a.statusErr = msg.text, msg.isError
		return a, nil

	case exportDoneMsg:
		a.status, a.statusErr = "Exported to "+msg.path, false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// startLoad cancels the pass in flight and starts a new one for path.
func (a App) startLoad(path string) (App, tea.Cmd) {
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelLoad = cancel
	a.loadGen++
	a.loadPath = path
	a.chart.loading = path

	gen, policy, log := a.loadGen, a.prefs.Policy(), a.log.With(zap.Uint64("gen", a.loadGen))
	log.Debug("starting pass", zap.String("path", path))
	return a, func() tea.Msg {
		res, err := ingest.Load(ctx, path, policy, ingest.WithLogger(log))
		return loadDoneMsg{gen: gen, result: res, err: err}
	}
}

func (a App) finishLoad(msg loadDoneMsg) (App, tea.Cmd) {
	if msg.gen != a.loadGen {
		a.log.Debug("discarding stale pass", zap.Uint64("gen", msg.gen), zap.Uint64("current", a.loadGen))
		return a, nil
	}
	if a.cancelLoad != nil {
		a.cancelLoad()
		a.cancelLoad = nil
	}

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return a, nil
		}
		a.chart.setError(msg.err)
		a.status, a.statusErr = fmt.Sprintf("Load error: %v", msg.err), true
		return a, nil
	}

	res := msg.result
	a.chart.setResult(res)
	a.history.setDataset(res.Dataset)
	a.status, a.statusErr = fmt.Sprintf("Loaded %s", shortPath(res.Path)), false

	cmds := []tea.Cmd{a.recordImport(res)}
	if a.prefs.WatchFile {
		var cmd tea.Cmd
		a, cmd = a.startWatch(res.Path)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) recordImport(res ingest.Result) tea.Cmd {
	s := a.store
	return func() tea.Msg {
		st := res.Dataset.Stats
		imp, err := s.RecordImport(store.Import{
			Path:       res.Path,
			ImportedAt: res.LoadedAt,
			Rows:       st.Rows,
			Dates:      res.Dataset.Len(),
			Readings:   st.Readings,
			Malformed:  st.MalformedMemos,
			Undated:    st.Undated,
		})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import log error: %v", err), isError: true}
		}
		return importRecordedMsg{imp: imp}
	}
}

// startWatch watches path unless it is already being watched.
func (a App) startWatch(path string) (App, tea.Cmd) {
	if a.watchPath == path && a.watchCancel != nil {
		return a, nil
	}
	a.stopWatch()

	ctx, cancel := context.WithCancel(context.Background())
	a.watchCancel = cancel
	a.watchPath = path
	log := a.log
	return a, func() tea.Msg {
		ch, err := watch.Watch(ctx, path, log)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Watch error: %v", err), isError: true}
		}
		return watchStartedMsg{path: path, ch: ch}
	}
}

func (a *App) stopWatch() {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.watchCancel = nil
	a.watchPath = ""
	a.watchCh = nil
}

func waitForChange(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return watchClosedMsg{ch: ch}
		}
		return fileChangedMsg{path: path, ch: ch}
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The file picker reads directories asynchronously; keep it fed even
	// while another view is showing.
	if _, isKey := msg.(tea.KeyMsg); !isKey && a.activeView != viewFiles {
		var cmd tea.Cmd
		a.files, cmd = a.files.update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	switch a.activeView {
	case viewFiles:
		a.files, cmd = a.files.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	cmds = append(cmds, cmd)

	// Data messages belong to a view even when it is not showing.
	switch msg.(type) {
	case importsDataMsg:
		if a.activeView != viewHistory {
			a.history, cmd = a.history.update(msg)
			cmds = append(cmds, cmd)
		}
	case settingsDataMsg:
		if a.activeView != viewSettings {
			a.settings, cmd = a.settings.update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) isFormActive() bool {
	return a.activeView == viewSettings && a.settings.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewFiles:
		return a.files.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewChart:
		content = a.chart.view()
	case viewFiles:
		content = a.files.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("habitchart")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	watching := ""
	if a.watchCh != nil {
		watching = successStyle.Render(" ● watching")
	}

	left := footerStyle.Render(helpView)
	right := watching + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range export.Formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(string(f))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  → "+a.cfg.ExportDir))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(export.Formats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(export.Formats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	if !a.chart.hasData() {
		return func() tea.Msg {
			return statusMsg{text: "Nothing to export: load a habit export first", isError: true}
		}
	}
	res := *a.chart.result
	dir := a.cfg.ExportDir
	log := a.log
	return func() tea.Msg {
		path := export.FileName(dir, f, time.Now())
		err := export.Write(f, res.Dataset, path, export.Options{
			Source: res.Path,
			Width:  pngWidth,
			Height: pngHeight,
		})
		if err != nil {
			log.Error("export failed", zap.String("format", string(f)), zap.Error(err))
			return statusMsg{text: fmt.Sprintf("%s error: %v", strings.ToUpper(string(f)), err), isError: true}
		}
		log.Info("exported", zap.String("format", string(f)), zap.String("path", path))
		return exportDoneMsg{path: filepath.Clean(path)}
	}
}
