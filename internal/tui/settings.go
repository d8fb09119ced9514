package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitchart/internal/series"
	"github.com/sadopc/habitchart/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	bpHabit     *string
	markerValue *string
	watchFile   *bool
	chartHeight *string
}

func newSettingsModel(s *store.Store) settingsModel {
	habit, marker, height := "", "", ""
	watch := true
	return settingsModel{
		store:       s,
		bpHabit:     &habit,
		markerValue: &marker,
		watchFile:   &watch,
		chartHeight: &height,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Edit) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	p, _ := s.store.Preferences()
	*s.bpHabit = p.BPHabit
	*s.markerValue = strconv.FormatFloat(p.MarkerValue, 'f', -1, 64)
	*s.watchFile = p.WatchFile
	*s.chartHeight = strconv.Itoa(p.ChartHeight)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Blood pressure habit").
				Description("Rows whose habit contains this text carry readings").
				Value(s.bpHabit).Validate(validateHabit),
			huh.NewInput().Title("Completion marker value").
				Description("Y-value plotted on days every habit was completed").
				Value(s.markerValue).Validate(validateMarker),
		).Title("Series"),
		huh.NewGroup(
			huh.NewInput().Title("Chart height (rows)").Value(s.chartHeight).Validate(validateHeight),
			huh.NewConfirm().Title("Reload when the file changes").Value(s.watchFile),
		).Title("Display"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save()
	}

	return s, cmd
}

// formPreferences converts the form fields, falling back to defaults for
// anything the validators let through unparsed.
func (s settingsModel) formPreferences() store.Preferences {
	p := store.DefaultPreferences()
	if v := strings.TrimSpace(*s.bpHabit); v != "" {
		p.BPHabit = v
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(*s.markerValue), 64); err == nil && series.CheckMarkerValue(f) == nil {
		p.MarkerValue = f
	}
	if n, err := strconv.Atoi(strings.TrimSpace(*s.chartHeight)); err == nil && n > 0 {
		p.ChartHeight = n
	}
	p.WatchFile = *s.watchFile
	return p
}

func (s settingsModel) save() tea.Cmd {
	prefs := s.formPreferences()
	return tea.Sequence(
		func() tea.Msg {
			if err := s.store.SavePreferences(prefs); err != nil {
				return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
			}
			return prefsSavedMsg{prefs: prefs}
		},
		s.refresh(),
	)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(settingLabel(setting.Key))
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingLabel(k string) string {
	switch k {
	case store.KeyBPHabit:
		return "Blood pressure habit"
	case store.KeyMarkerValue:
		return "Marker value"
	case store.KeyWatchFile:
		return "Watch file"
	case store.KeyChartHeight:
		return "Chart height"
	}
	return k
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.KeyWatchFile:
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "on"
			}
			return "off"
		}
	case store.KeyChartHeight:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d rows", n)
		}
	case store.KeyBPHabit:
		return fmt.Sprintf("%q", v)
	}
	return v
}

func validateHabit(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("habit name is required")
	}
	return nil
}

func validateMarker(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("must be a number")
	}
	if series.CheckMarkerValue(f) != nil {
		return fmt.Errorf("must be a finite number between -%g and %g", float64(series.MaxMarkerMagnitude), float64(series.MaxMarkerMagnitude))
	}
	return nil
}

func validateHeight(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 4 || n > 100 {
		return errors.New("must be a whole number between 4 and 100")
	}
	return nil
}
