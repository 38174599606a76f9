// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/typing"
)

// SaveFunc persists a finished test.
type SaveFunc func(ctx context.Context, c model.Candidate) (model.Session, error)

// Options configure a typing model.
type Options struct {
	Duration    int
	NextPassage func() string
	Save        SaveFunc
	// History seeds the footer averages.
	History model.Summary
	Now     func() time.Time
}

type tickMsg struct {
	run int
}

type savedMsg struct {
	session model.Session
	err     error
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	opts  Options
	state typing.State
	run   int

	passage []rune
	width   int
	height  int

	result  *typing.State
	saved   *model.Session
	saveErr error
	saving  bool

	hasLast  bool
	lastWPM  float64
	lastAcc  float64
	count    int
	avgWPM   float64
	avgAcc   float64
	quitting bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	resultStyle      = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Duration != model.Duration15 && opts.Duration != model.Duration30 {
		opts.Duration = model.Duration30
	}
	m := &Model{
		opts:   opts,
		count:  opts.History.Sessions,
		avgWPM: opts.History.AverageWPM,
		avgAcc: opts.History.AverageAccuracy,
	}
	m.reset()
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
		return m, nil
	case tickMsg:
		if msg.run != m.run || m.state.Phase != typing.Running {
			return m, nil
		}
		m.state = typing.Reduce(m.state, typing.Tick{})
		if m.state.Phase == typing.Ended {
			return m, m.finish()
		}
		return m, tick(m.run)
	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.saveErr = msg.err
			return m, nil
		}
		m.saved = &msg.session
		m.record(msg.session)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if m.result != nil {
		switch msg.String() {
		case "enter", "r":
			m.reset()
			return m, nil
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		if m.state.Phase == typing.Running {
			m.state = typing.Reduce(m.state, typing.Stop{At: m.opts.Now()})
			return m, m.finish()
		}
		m.quitting = true
		return m, tea.Quit
	case tea.KeyBackspace, tea.KeyDelete:
		if m.state.Phase != typing.Running {
			return m, nil
		}
		typed := []rune(m.state.Typed)
		if len(typed) == 0 {
			return m, nil
		}
		m.state = typing.Reduce(m.state, typing.Keystroke{Text: string(typed[:len(typed)-1]), At: m.opts.Now()})
		return m, nil
	case tea.KeySpace:
		return m.handleRunes([]rune{' '})
	case tea.KeyRunes:
		return m.handleRunes(msg.Runes)
	}
	return m, nil
}

func (m *Model) handleRunes(runes []rune) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.state.Phase == typing.Idle {
		m.run++
		m.state = typing.Reduce(m.state, typing.Start{
			Duration: m.opts.Duration,
			Passage:  string(m.passage),
			At:       m.opts.Now(),
		})
		cmd = tick(m.run)
	}
	if m.state.Phase != typing.Running {
		return m, cmd
	}
	typed := []rune(m.state.Typed)
	room := len(m.passage) - len(typed)
	if room <= 0 {
		return m, cmd
	}
	if len(runes) > room {
		runes = runes[:room]
	}
	typed = append(typed, runes...)
	now := m.opts.Now()
	m.state = typing.Reduce(m.state, typing.Keystroke{Text: string(typed), At: now})
	if len(typed) == len(m.passage) {
		m.state = typing.Reduce(m.state, typing.Stop{At: now})
		return m, m.finish()
	}
	return m, cmd
}

// finish freezes the result and saves it when a saver is configured.
func (m *Model) finish() tea.Cmd {
	final := m.state
	m.result = &final
	m.run++
	if m.opts.Save == nil || len(final.Typed) == 0 {
		return nil
	}
	m.saving = true
	save := m.opts.Save
	candidate := final.Candidate()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := save(ctx, candidate)
		return savedMsg{session: s, err: err}
	}
}

func (m *Model) record(s model.Session) {
	m.hasLast = true
	m.lastWPM = s.WPM
	m.lastAcc = s.Accuracy
	n := float64(m.count)
	m.avgWPM = (m.avgWPM*n + s.WPM) / (n + 1)
	m.avgAcc = (m.avgAcc*n + s.Accuracy) / (n + 1)
	m.count++
}

func (m *Model) reset() {
	m.state = typing.State{}
	m.result = nil
	m.saved = nil
	m.saveErr = nil
	m.saving = false
	text := ""
	if m.opts.NextPassage != nil {
		text = m.opts.NextPassage()
	}
	m.passage = []rune(text)
}

func tick(run int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{run: run}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var content string
	if m.result != nil {
		content = m.renderResult()
	} else {
		content = m.renderPassage()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderPassage() string {
	if len(m.passage) == 0 {
		return "No passage available."
	}
	typed := []rune(m.state.Typed)
	cells := buildCells(m.passage, typed)
	if m.width == 0 {
		return joinCells(cells)
	}
	width := int(float64(m.width) * 0.70)
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().Width(width).Render(wrapCells(cells, width))
}

func (m *Model) renderResult() string {
	r := m.result
	metrics := r.Metrics()
	lines := []string{
		fmt.Sprintf("%s %s   %s %s   %s %s",
			labelStyle.Render("WPM"), valueStyle.Render(fmt.Sprintf("%.0f", metrics.WPM)),
			labelStyle.Render("Accuracy"), valueStyle.Render(fmt.Sprintf("%.0f%%", metrics.Accuracy)),
			labelStyle.Render("Errors"), valueStyle.Render(fmt.Sprintf("%d", metrics.TotalErrors)),
		),
		labelStyle.Render(fmt.Sprintf("%ds test, %.1fs typed", r.Duration, r.Elapsed())),
	}
	if len(r.ErrorWords) > 0 {
		lines = append(lines, "", labelStyle.Render("Missed: ")+incorrectStyle.Render(strings.Join(r.ErrorWords, ", ")))
	}
	switch {
	case m.saving:
		lines = append(lines, "", labelStyle.Render("Saving..."))
	case m.saveErr != nil:
		lines = append(lines, "", incorrectStyle.Render("Not saved: "+m.saveErr.Error()))
	case m.saved != nil:
		lines = append(lines, "", labelStyle.Render("Saved session "+m.saved.ID))
	}
	lines = append(lines, "", footerStyle.Render("enter: new test  q: quit"))
	return resultStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	switch m.state.Phase {
	case typing.Running:
		segments = append(segments, fmt.Sprintf("Time %ds", m.state.Remaining))
	case typing.Idle:
		segments = append(segments, fmt.Sprintf("%ds test, start typing", m.opts.Duration))
	}
	if len(m.passage) > 0 {
		progress := int(float64(len([]rune(m.state.Typed))) / float64(len(m.passage)) * 100)
		segments = append(segments, fmt.Sprintf("Progress %d%%", progress))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc))
	}
	if m.count > 0 {
		segments = append(segments, fmt.Sprintf("Avg %.1f WPM · %.1f%%", m.avgWPM, m.avgAcc))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
