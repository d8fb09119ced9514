package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitchart/internal/chart"
	"github.com/sadopc/habitchart/internal/ingest"
)

type chartModel struct {
	width  int
	height int

	chartHeight int
	result      *ingest.Result
	loading     string // path of the pass in flight, if any
	lastErr     error
}

func newChartModel(chartHeight int) chartModel {
	return chartModel{chartHeight: chartHeight}
}

func (c *chartModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c *chartModel) setResult(res ingest.Result) {
	c.result = &res
	c.loading = ""
	c.lastErr = nil
}

func (c *chartModel) setError(err error) {
	c.loading = ""
	c.lastErr = err
}

func (c chartModel) hasData() bool {
	return c.result != nil && !c.result.Dataset.Empty()
}

func (c chartModel) view() string {
	if c.width < 20 {
		return "Terminal too small"
	}
	w := c.width - 4

	if c.result == nil {
		return c.renderEmpty(w)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		c.renderInfoPanel(w),
		c.renderChartPanel(w),
	)
}

func (c chartModel) renderEmpty(w int) string {
	title := titleStyle.Render("No export loaded")
	hint := mutedStyle.Render("Press 2 to pick a habit export, or pass a file on the command line")
	rows := []string{title, "", hint}
	if c.loading != "" {
		rows = append(rows, "", warningStyle.Render("Loading "+shortPath(c.loading)+"…"))
	}
	if c.lastErr != nil {
		rows = append(rows, "", errorStyle.Render(c.lastErr.Error()))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (c chartModel) renderInfoPanel(w int) string {
	ds := c.result.Dataset
	file := highlightStyle.Render(shortPath(c.result.Path))
	loaded := mutedStyle.Render("loaded " + formatWhen(c.result.LoadedAt))
	header := fmt.Sprintf("%s  %s", file, loaded)

	span := subtitleStyle.Render(spanLabel(ds))
	completed := successStyle.Render(fmt.Sprintf("%d/%d days all habits completed", ds.CompletedDays(), ds.Len()))

	rows := []string{header, span + "  " + completed}
	if st := ds.Stats; st.MalformedMemos > 0 {
		rows = append(rows, accentStyle.Render(fmt.Sprintf("%d blood pressure memos had no reading", st.MalformedMemos)))
	}
	if c.loading != "" {
		rows = append(rows, warningStyle.Render("Reloading…"))
	}
	if c.lastErr != nil {
		rows = append(rows, errorStyle.Render(c.lastErr.Error()))
	}
	return panelStyle.Padding(0, 2).Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (c chartModel) renderChartPanel(w int) string {
	ds := c.result.Dataset
	h := c.chartHeight
	if avail := c.height - 10; avail < h {
		h = avail
	}

	body := chart.Terminal(ds, w-6, h)
	if body == "" {
		body = mutedStyle.Render("Nothing to plot: no blood pressure readings or completed days")
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Blood pressure"),
		body,
		"",
		chart.Legend(),
		mutedStyle.Render(statsLine(ds.Stats)),
	))
}
