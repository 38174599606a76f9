// Package historyui provides the Bubble Tea session history interface.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/stats"
)

const (
	tabSessions = iota
	tabSummary
	tabAnalysis
)

const loadTimeout = 5 * time.Second

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source reads a user's sessions and their derived views.
type Source interface {
	List(ctx context.Context, requesterID, ownerID string, limit int) ([]model.Session, error)
	Summary(ctx context.Context, requesterID, ownerID string, limit int) (model.Summary, error)
	Analysis(ctx context.Context, ownerID, sessionID string) (model.Analysis, error)
}

// Model implements the Bubble Tea history UI.
type Model struct {
	src    Source
	userID string
	cfg    model.HistoryConfig
	now    func() time.Time

	sessions []model.Session
	summary  model.Summary
	analysis *model.Analysis
	errMsg   string

	tabs      []string
	activeTab int
	table     table.Model
	viewports []viewport.Model

	width  int
	height int

	limitMode  bool
	limitInput textinput.Model
	limitError string
}

// NewModel constructs a history UI for the user and loads their sessions.
func NewModel(src Source, userID string, cfg model.HistoryConfig) *Model {
	if cfg.CurveWindow <= 0 {
		cfg.CurveWindow = 1
	}
	m := &Model{
		src:    src,
		userID: userID,
		cfg:    cfg,
		now:    time.Now,
		tabs:   []string{"Sessions", "Summary", "Analysis"},
	}
	m.table = table.New(
		table.WithColumns(sessionColumns()),
		table.WithFocused(true),
		table.WithStyles(tableStyles()),
	)
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.limitInput = textinput.New()
	m.limitInput.Prompt = "Last sessions: "
	m.limitInput.CharLimit = 3
	m.limitInput.Cursor.SetMode(cursor.CursorBlink)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.limitMode {
			return m.updateLimit(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow++
			m.renderContents()
			return m, nil
		case "-":
			if m.cfg.CurveWindow > 1 {
				m.cfg.CurveWindow--
			}
			m.renderContents()
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		case "/":
			m.limitMode = true
			m.limitError = ""
			m.limitInput.SetValue(strconv.Itoa(m.cfg.Last))
			return m, m.limitInput.Focus()
		case "enter":
			if m.activeTab == tabSessions {
				m.loadSelectedAnalysis()
				return m, tea.ClearScreen
			}
			return m, nil
		}
		if m.activeTab == tabSessions {
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateLimit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.limitMode = false
		m.limitInput.Blur()
		return m, nil
	case tea.KeyEnter:
		n, err := strconv.Atoi(strings.TrimSpace(m.limitInput.Value()))
		if err != nil || n <= 0 {
			m.limitError = "enter a positive number"
			return m, nil
		}
		m.cfg.Last = n
		m.limitMode = false
		m.limitInput.Blur()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.limitInput, cmd = m.limitInput.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	sessions, err := m.src.List(ctx, m.userID, m.userID, m.cfg.Last)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	summary, err := m.src.Summary(ctx, m.userID, m.userID, m.cfg.Last)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.sessions = sessions
	m.summary = summary
	m.table.SetRows(sessionRows(sessions, m.now()))
	m.renderContents()
}

func (m *Model) loadSelectedAnalysis() {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.sessions) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	a, err := m.src.Analysis(ctx, m.userID, m.sessions[idx].ID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.analysis = &a
	m.activeTab = tabAnalysis
	m.table.Blur()
	m.renderContents()
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabSessions {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.limitMode {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.table.SetWidth(m.width)
	m.table.SetHeight(bodyHeight)
}

func (m *Model) renderContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabSummary].SetContent(renderSummary(m.summary, m.cfg.CurveWindow, width))
	if m.analysis == nil {
		m.viewports[tabAnalysis].SetContent("Select a session and press enter.")
		return
	}
	var buf bytes.Buffer
	if err := stats.RenderAnalysis(&buf, *m.analysis); err != nil {
		m.viewports[tabAnalysis].SetContent(fmt.Sprintf("Failed to render analysis: %v", err))
		return
	}
	m.viewports[tabAnalysis].SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
	last := "default"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	settings := fmt.Sprintf("User: %s  last=%s  window=%d", m.cfg.Username, last, m.cfg.CurveWindow)
	return tabs + "\n" + headerStyle.Render(truncateLine(settings, m.width))
}

func (m *Model) renderBody() string {
	if m.activeTab == tabSessions {
		if len(m.sessions) == 0 {
			return "No sessions found."
		}
		return tableMutedStyle.Render(m.table.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Scroll: up/down  Analyze: enter  Window: -/=  Last: /  Refresh: r  Quit: q"
	lines := []string{headerStyle.Render(truncateLine(help, m.width))}
	if m.limitMode {
		line := m.limitInput.View()
		if m.limitError != "" {
			line += "  " + errorStyle.Render(m.limitError)
		}
		lines = append(lines, line)
	} else if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "WPM", Width: 5},
		{Title: "Accuracy", Width: 9},
		{Title: "Errors", Width: 6},
		{Title: "Test", Width: 5},
		{Title: "Missed words", Width: 30},
	}
}

func sessionRows(sessions []model.Session, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, table.Row{
			humanize.RelTime(s.CreatedAt, now, "ago", "from now"),
			fmt.Sprintf("%.0f", s.WPM),
			fmt.Sprintf("%.0f%%", s.Accuracy),
			humanize.Comma(int64(s.TotalErrors)),
			fmt.Sprintf("%ds", s.Duration),
			strings.Join(s.ErrorWords, ", "),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func renderSummary(s model.Summary, window, width int) string {
	if s.Sessions == 0 {
		return "No sessions found."
	}
	cards := []string{
		metricCard("Sessions", humanize.Comma(int64(s.Sessions))),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", s.AverageWPM)),
		metricCard("Best WPM", fmt.Sprintf("%.0f", s.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", s.AverageAccuracy)),
	}
	var top string
	if width < 80 {
		top = strings.Join(cards, "\n")
	} else {
		top = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, s, window); err != nil {
		return top + "\n\n" + fmt.Sprintf("Failed to render summary: %v", err)
	}
	return strings.TrimRight(top+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
