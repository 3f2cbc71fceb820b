package notifications

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

type RefreshMsg struct{}

type CancelAllMsg struct{}

type KeyMap struct {
	Refresh   key.Binding
	CancelAll key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		CancelAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "cancel all"),
		),
	}
}

type Model struct {
	table      table.Model
	keys       KeyMap
	permission models.Permission
	count      int
}

func New(width, height int) Model {
	columns := []table.Column{
		{Title: "Next", Width: 18},
		{Title: "Habit", Width: 24},
		{Title: "Day", Width: 10},
		{Title: "Time", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height, 3)),
		table.WithWidth(width),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	t.SetStyles(s)

	return Model{table: t, keys: DefaultKeyMap(), permission: models.PermissionUndetermined}
}

// SetNotifications fills the table. names maps habit ids to display names.
func (m *Model) SetNotifications(list []models.Notification, names map[string]string) {
	rows := make([]table.Row, 0, len(list))
	for _, n := range list {
		name, ok := names[n.Payload.HabitID]
		if !ok {
			name = "(deleted habit)"
		}
		rows = append(rows, table.Row{
			n.Trigger.Date.Format(constants.ReminderFormat),
			name,
			n.Payload.Day,
			n.Payload.Time,
		})
	}
	m.count = len(rows)
	m.table.SetRows(rows)
}

func (m *Model) SetPermission(p models.Permission) {
	m.permission = p
}

func (m *Model) SetSize(width, height int) {
	m.table.SetWidth(width)
	m.table.SetHeight(max(height, 3))
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, func() tea.Msg { return RefreshMsg{} }
		case key.Matches(msg, m.keys.CancelAll):
			if m.count > 0 {
				return m, func() tea.Msg { return CancelAllMsg{} }
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := "Permission: " + string(m.permission)
	if m.count == 0 {
		return header + "\n\n  No reminders scheduled.\n  Edit a habit's schedule with 'e' on the Habits tab."
	}
	return header + "\n\n" + m.table.View() + "\n\n[r] refresh · [X] cancel all"
}
