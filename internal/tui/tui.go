// Package tui implements the Bubble Tea browser over a critical files report.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/triage/internal/diff"
	"github.com/sprite-ai/triage/internal/model"
)

// Model is the top-level Bubble Tea model for triage.
type Model struct {
	report  *model.CriticalFilesReport
	tier    *model.TierRecommendation // optional
	diffSet *diff.DiffSet             // optional; files without a diff show details only

	// UI state
	width  int
	height int

	// File list, in ranked order
	fileIndex int

	// Detail viewport
	scrollOffset int
	viewHeight   int

	// Rendered lines for the current file
	lines []renderedLine

	splitView bool
	showHelp  bool
}

// New creates a TUI model over a report. rec and ds may be nil.
func New(report *model.CriticalFilesReport, rec *model.TierRecommendation, ds *diff.DiffSet) Model {
	if report == nil {
		report = &model.CriticalFilesReport{}
	}
	m := Model{
		report:  report,
		tier:    rec,
		diffSet: ds,
	}
	m.updateLines()
	return m
}

func (m *Model) files() []model.FileScore {
	return m.report.AllFiles
}

// selected reports whether the file at index i is in the top-N.
func (m *Model) selected(i int) bool {
	return i < len(m.report.TopFiles)
}

func (m *Model) updateLines() {
	files := m.files()
	if len(files) == 0 {
		m.lines = nil
		return
	}
	fs := files[m.fileIndex]
	m.lines = renderDetails(fs, m.selected(m.fileIndex))
	if m.diffSet != nil {
		if f := m.diffSet.File(fs.Path); f != nil {
			m.lines = append(m.lines, renderFile(f)...)
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 4 // status bar + borders
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, keys.Quit) {
				return m, tea.Quit
			}
			m.showHelp = false
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.scrollOffset < len(m.lines)-1 {
				m.scrollOffset++
			}

		case key.Matches(msg, keys.Up):
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}

		case key.Matches(msg, keys.Top):
			m.scrollOffset = 0

		case key.Matches(msg, keys.Bottom):
			m.scrollOffset = max(0, len(m.lines)-1)

		case key.Matches(msg, keys.NextFile):
			if m.fileIndex < len(m.files())-1 {
				m.fileIndex++
				m.scrollOffset = 0
				m.updateLines()
			}

		case key.Matches(msg, keys.PrevFile):
			if m.fileIndex > 0 {
				m.fileIndex--
				m.scrollOffset = 0
				m.updateLines()
			}

		case key.Matches(msg, keys.NextHunk):
			m.jumpToNextHunk()

		case key.Matches(msg, keys.PrevHunk):
			m.jumpToPrevHunk()

		case key.Matches(msg, keys.Toggle):
			m.splitView = !m.splitView

		case key.Matches(msg, keys.Help):
			m.showHelp = true
		}
	}

	return m, nil
}

func (m *Model) jumpToNextHunk() {
	for i := m.scrollOffset + 1; i < len(m.lines); i++ {
		if m.lines[i].IsHunk {
			m.scrollOffset = i
			return
		}
	}
}

func (m *Model) jumpToPrevHunk() {
	for i := m.scrollOffset - 1; i >= 0; i-- {
		if m.lines[i].IsHunk {
			m.scrollOffset = i
			return
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	fileListWidth := m.fileListWidth()
	detailWidth := m.width - fileListWidth - 1 // -1 for gap

	fileList := m.renderFileList(fileListWidth, m.height-2)
	detail := m.renderDetailView(detailWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, fileList, " ", detail)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) fileListWidth() int {
	maxLen := 20
	for _, f := range m.files() {
		maxLen = max(maxLen, len(f.Path))
	}
	w := maxLen + 10 // padding + score
	w = min(w, m.width/3)
	return max(w, 20)
}

func (m Model) renderFileList(width, height int) string {
	var b strings.Builder
	files := m.files()

	for i, f := range files {
		name := f.Path
		maxName := width - 11
		if maxName > 0 && len(name) > maxName {
			name = "…" + name[len(name)-maxName+1:]
		}

		marker := " "
		if m.selected(i) {
			marker = "●"
		}
		line := fmt.Sprintf("%s %-*s %4d", marker, maxName, name, f.Score)

		var style lipgloss.Style
		switch {
		case i == m.fileIndex:
			style = fileItemSelectedStyle
		case m.selected(i):
			style = fileItemTopStyle
		default:
			style = fileItemStyle
		}

		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(files)-1 {
			b.WriteByte('\n')
		}
	}

	innerHeight := height - 2 // borders
	return fileListStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) renderDetailView(width, height int) string {
	innerHeight := height - 2
	files := m.files()
	if len(files) == 0 {
		return diffViewStyle.Width(width).Height(innerHeight).Render("No changes")
	}

	f := files[m.fileIndex]
	innerWidth := width - 4 // borders + padding
	visibleLines := max(innerHeight-2, 1)

	var b strings.Builder
	b.WriteString(fileHeaderStyle.Render(f.Path))
	b.WriteByte('\n')

	end := min(m.scrollOffset+visibleLines, len(m.lines))
	for i := m.scrollOffset; i < end; i++ {
		if m.splitView {
			halfWidth := (innerWidth - 3) / 2 // -3 for separator
			left, right := styleLineSplit(m.lines[i], halfWidth)
			b.WriteString(left)
			if right != "" {
				b.WriteString(" │ ")
				b.WriteString(right)
			}
		} else {
			b.WriteString(styleLine(m.lines[i], innerWidth))
		}
		if i < end-1 {
			b.WriteByte('\n')
		}
	}

	return diffViewStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) renderStatusBar() string {
	files := m.files()

	left := fmt.Sprintf(" File %d/%d", min(m.fileIndex+1, len(files)), len(files))
	if len(m.lines) > 0 {
		left += fmt.Sprintf("  Line %d/%d", m.scrollOffset+1, len(m.lines))
	}
	if m.tier != nil {
		left += "  Tier " + tierStyles[m.tier.Tier].Render(m.tier.Tier.String())
	}

	right := fmt.Sprintf("top %d  %s  ? help ", len(m.report.TopFiles), m.report.Algorithm)

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("triage: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	if m.tier != nil {
		b.WriteString(fmt.Sprintf("  Tier %s: %s\n\n", m.tier.Tier, m.tier.Reason))
	}

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Scroll up"},
		{"↓/j", "Scroll down"},
		{"g/G", "Top / bottom"},
		{"n/Tab", "Next file"},
		{"N/S-Tab", "Previous file"},
		{"]", "Next hunk"},
		{"[", "Previous hunk"},
		{"v", "Toggle unified/split view"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press any key to close help"))

	return b.String()
}

// Run starts the TUI application.
func Run(report *model.CriticalFilesReport, rec *model.TierRecommendation, ds *diff.DiffSet) error {
	p := tea.NewProgram(New(report, rec, ds), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
