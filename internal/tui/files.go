package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitchart/internal/store"
)

var exportTypes = []string{".csv", ".tsv", ".txt"}

const recentLimit = 8

type filesModel struct {
	store  *store.Store
	width  int
	height int

	picker filepicker.Model

	recent       []string
	recentCursor int
	viewRecent   bool // true = cursor is in the recent list
}

func newFilesModel(s *store.Store, startDir string) filesModel {
	fp := filepicker.New()
	fp.CurrentDirectory = startDir
	fp.AllowedTypes = exportTypes
	fp.AutoHeight = false
	fp.SetHeight(10)
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorPrimary)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorSecondary)
	fp.Styles.Selected = selectedItemStyle
	return filesModel{
		store:  s,
		picker: fp,
	}
}

func (f filesModel) Init() tea.Cmd {
	return tea.Batch(f.picker.Init(), f.refresh())
}

func (f *filesModel) setSize(w, h int) {
	f.width = w
	f.height = h
	f.picker.SetHeight(max(3, h-8-min(len(f.recent), recentLimit)))
}

type recentDataMsg struct {
	paths []string
}

func (f filesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		paths, _ := f.store.RecentPaths(recentLimit)
		return recentDataMsg{paths: paths}
	}
}

func (f filesModel) update(msg tea.Msg) (filesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case recentDataMsg:
		f.recent = msg.paths
		if f.recentCursor >= len(f.recent) {
			f.recentCursor = max(0, len(f.recent)-1)
		}
		if len(f.recent) == 0 {
			f.viewRecent = false
		}
		return f, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Recent) && len(f.recent) > 0 {
			f.viewRecent = !f.viewRecent
			return f, nil
		}
		if f.viewRecent {
			return f.updateRecent(msg)
		}
	}

	var cmd tea.Cmd
	f.picker, cmd = f.picker.Update(msg)

	if ok, path := f.picker.DidSelectFile(msg); ok {
		return f, tea.Batch(cmd, selectFile(path))
	}
	if ok, path := f.picker.DidSelectDisabledFile(msg); ok {
		return f, tea.Batch(cmd, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("%s is not a habit export (%s)", shortPath(path), strings.Join(exportTypes, ", ")), isError: true}
		})
	}
	return f, cmd
}

func (f filesModel) updateRecent(msg tea.KeyMsg) (filesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if f.recentCursor > 0 {
			f.recentCursor--
		}
	case key.Matches(msg, keys.Down):
		if f.recentCursor < len(f.recent)-1 {
			f.recentCursor++
		}
	case key.Matches(msg, keys.Enter):
		if f.recentCursor < len(f.recent) {
			return f, selectFile(f.recent[f.recentCursor])
		}
	case key.Matches(msg, keys.Back):
		f.viewRecent = false
	}
	return f, nil
}

func selectFile(path string) tea.Cmd {
	return func() tea.Msg { return fileSelectedMsg{path: path} }
}

func (f filesModel) view() string {
	w := f.width - 4

	pickerStyle, recentStyle := activePanelStyle, panelStyle
	if f.viewRecent {
		pickerStyle, recentStyle = panelStyle, activePanelStyle
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Open export"), "  ", mutedStyle.Render(f.picker.CurrentDirectory))
	picker := pickerStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "", f.picker.View(),
		mutedStyle.Render("  enter/l: open  h/esc: up  r: recent files"),
	))

	if len(f.recent) == 0 {
		return picker
	}
	return lipgloss.JoinVertical(lipgloss.Left, picker, recentStyle.Width(w).Render(f.renderRecent()))
}

func (f filesModel) renderRecent() string {
	rows := []string{titleStyle.Render("Recent")}
	for i, p := range f.recent {
		cursor := "  "
		style := normalItemStyle
		if f.viewRecent && i == f.recentCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+p))
	}
	return strings.Join(rows, "\n")
}
