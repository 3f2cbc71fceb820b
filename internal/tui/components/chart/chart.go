package chart

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	corechart "github.com/julianstephens/habitual/internal/chart"
	"github.com/julianstephens/habitual/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(0, 0, 1, 0)

	plotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("105"))
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(1, 0, 0, 0)
)

type BackMsg struct {
	ID string
}

type CloseMsg struct{}

type KeyMap struct {
	Back  key.Binding
	Close key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Back: key.NewBinding(
			key.WithKeys("t", "b"),
			key.WithHelp("t", "back to timer"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
	}
}

type Model struct {
	habit  models.Habit
	keys   KeyMap
	width  int
	height int
}

func New() Model {
	return Model{keys: DefaultKeyMap()}
}

func (m *Model) SetHabit(h models.Habit) {
	m.habit = h
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			id := m.habit.ID
			return m, func() tea.Msg { return BackMsg{ID: id} }
		case key.Matches(msg, m.keys.Close):
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// plotSize leaves room for labels, title and hints around the plot.
func (m Model) plotSize() (int, int) {
	w, h := 50, 10
	if m.width > 0 {
		w = max(m.width-16, 10)
	}
	if m.height > 0 {
		h = max(m.height-12, 4)
	}
	return w, h
}

func (m Model) View() string {
	w, h := m.plotSize()
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.habit.Name),
		plotStyle.Render(corechart.Render(m.habit.Sessions, w, h)),
		hintStyle.Render("[t] back to timer · [esc] close"),
	)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}
