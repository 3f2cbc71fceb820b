package timer

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	coretimer "github.com/julianstephens/habitual/internal/timer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(1, 2)

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	motivationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(1, 0)

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// TickMsg carries the generation of the timer that asked for it so ticks
// from a closed timer are dropped.
type TickMsg struct {
	Gen  int
	Time time.Time
}

// SessionSavedMsg is sent after a running session was stopped.
type SessionSavedMsg struct {
	HabitID string
	Seconds int
	Err     error
}

type CloseMsg struct{}

type ShowChartMsg struct {
	ID string
}

type KeyMap struct {
	Toggle key.Binding
	Chart  key.Binding
	Close  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "start/stop"),
		),
		Chart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chart"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
	}
}

type Model struct {
	habit   models.Habit
	session *coretimer.Session
	keys    KeyMap
	gen     int
	width   int
	height  int
}

func New() Model {
	return Model{keys: DefaultKeyMap()}
}

// Open binds the view to a habit session. Any running session is discarded.
func (m *Model) Open(habit models.Habit, session *coretimer.Session) {
	if m.session != nil {
		m.session.Discard()
	}
	m.gen++
	m.habit = habit
	m.session = session
}

// Close discards a running session and invalidates pending ticks.
func (m *Model) Close() {
	if m.session != nil {
		m.session.Discard()
	}
	m.gen++
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) Running() bool {
	return m.session != nil && m.session.Running()
}

func (m Model) Elapsed() int {
	if m.session == nil {
		return 0
	}
	return m.session.Elapsed()
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, Time: t}
	})
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case TickMsg:
		if msg.Gen != m.gen || !m.session.Tick() {
			return m, nil
		}
		return m, m.tick()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Toggle):
			if !m.session.Running() {
				m.session.Start()
				return m, m.tick()
			}
			seconds, err := m.session.Stop(context.Background())
			m.gen++
			// a failed write still leaves the session in the repository
			if err == nil || errors.IsStorage(err) {
				m.habit.Sessions = append(m.habit.Sessions, seconds)
			}
			habitID := m.habit.ID
			return m, func() tea.Msg { return SessionSavedMsg{HabitID: habitID, Seconds: seconds, Err: err} }
		case key.Matches(msg, m.keys.Chart):
			if m.session.Running() || len(m.habit.Sessions) == 0 {
				return m, nil
			}
			id := m.habit.ID
			return m, func() tea.Msg { return ShowChartMsg{ID: id} }
		case key.Matches(msg, m.keys.Close):
			m.Close()
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	parts := []string{
		titleStyle.Render(m.habit.Name),
		clockStyle.Render(coretimer.FormatTime(m.Elapsed())),
	}
	if m.Running() {
		parts = append(parts, motivationStyle.Render(coretimer.Motivation(m.Elapsed(), m.habit.Sessions)))
		parts = append(parts, hintStyle.Render("[space] stop and save · [esc] discard"))
	} else {
		hint := "[space] start · [esc] close"
		if len(m.habit.Sessions) > 0 {
			hint = "[space] start · [c] chart · [esc] close"
		}
		parts = append(parts, hintStyle.Render(hint))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}
