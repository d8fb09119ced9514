package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitchart/internal/series"
	"github.com/sadopc/habitchart/internal/store"
)

const importsLimit = 10

type historyModel struct {
	store  *store.Store
	width  int
	height int

	dataset series.Dataset
	imports []store.Import
	offset  int // dates scrolled back from the most recent

	chart barchart.Model
}

func newHistoryModel(s *store.Store) historyModel {
	return historyModel{
		store: s,
		chart: barchart.New(60, 10),
	}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
	h.buildChart()
}

func (h *historyModel) setDataset(ds series.Dataset) {
	h.dataset = ds
	h.offset = 0
	h.buildChart()
}

type importsDataMsg struct {
	imports []store.Import
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		imports, _ := h.store.ListImports(importsLimit)
		return importsDataMsg{imports: imports}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case importsDataMsg:
		h.imports = msg.imports
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.offset+h.visibleBars() < h.dataset.Len() {
				h.offset++
				h.buildChart()
			}
		case key.Matches(msg, keys.Down):
			if h.offset > 0 {
				h.offset--
				h.buildChart()
			}
		}
	}
	return h, nil
}

func (h historyModel) chartSize() (int, int) {
	w := max(20, h.width-8)
	ht := 10
	if h.height > 30 {
		ht = 14
	}
	return w, ht
}

// visibleBars is how many dates fit: one bar column plus a gap each.
func (h historyModel) visibleBars() int {
	w, _ := h.chartSize()
	return max(1, w/3)
}

// window returns the [from, to) index range of dates on screen.
func (h historyModel) window() (int, int) {
	n := h.dataset.Len()
	to := n - h.offset
	from := max(0, to-h.visibleBars())
	return from, to
}

func (h *historyModel) buildChart() {
	w, ht := h.chartSize()
	h.chart = barchart.New(w, ht)

	from, to := h.window()
	if from >= to {
		return
	}

	var bars []barchart.BarData
	for i := from; i < to; i++ {
		t := h.dataset.Tallies[i]
		bars = append(bars, barchart.BarData{
			Label: dayLabel(h.dataset.Dates[i]),
			Values: []barchart.BarValue{
				{Name: "completed", Value: float64(t.Completed), Style: completedBarStyle},
				{Name: "missed", Value: float64(t.Total - t.Completed), Style: missedBarStyle},
			},
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

// dayLabel shortens 2006-01-02 keys to the day of month.
func dayLabel(date string) string {
	if len(date) >= 10 && date[4] == '-' && date[7] == '-' {
		return date[8:10]
	}
	if len(date) > 2 {
		return date[len(date)-2:]
	}
	return date
}

func (h historyModel) view() string {
	w := h.width - 4

	var rangeLabel string
	if from, to := h.window(); from < to {
		rangeLabel = mutedStyle.Render(fmt.Sprintf("%s → %s", h.dataset.Dates[from], h.dataset.Dates[to-1]))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Habit completion"), "  ", rangeLabel)

	var chartView string
	if h.dataset.Empty() {
		chartView = mutedStyle.Render("  No export loaded")
	} else {
		chartView = h.chart.View()
	}

	legend := "  " + completedBarStyle.Render("█ completed") + "  " + missedBarStyle.Render("█ missed")
	nav := mutedStyle.Render("  ↑/↓: scroll dates")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", h.renderImportsTable(w), "", nav,
		),
	)
}

func (h historyModel) renderImportsTable(w int) string {
	if len(h.imports) == 0 {
		return mutedStyle.Render("  No imports yet")
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Imports"))
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-16s %-28s %6s %6s %8s %9s", "When", "File", "Rows", "Dates", "Readings", "Malformed")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 80))))

	for _, imp := range h.imports {
		rows = append(rows, fmt.Sprintf("  %-16s %-28s %6d %6d %8d %9d",
			formatWhen(imp.ImportedAt), truncate(shortPath(imp.Path), 28),
			imp.Rows, imp.Dates, imp.Readings, imp.Malformed,
		))
	}
	return strings.Join(rows, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
