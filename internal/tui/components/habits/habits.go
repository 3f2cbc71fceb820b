package habits

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/timer"
)

type AddHabitMsg struct{}

type EditScheduleMsg struct {
	ID string
}

type StartTimerMsg struct {
	ID string
}

type ShowChartMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID string
}

type Item struct {
	Habit models.Habit
}

func (i Item) Title() string {
	if i.Habit.Schedule == nil {
		return "○ " + i.Habit.Name
	}
	return "● " + i.Habit.Name
}

func (i Item) Description() string {
	schedule := "not scheduled"
	if s := i.Habit.Schedule; s != nil {
		schedule = fmt.Sprintf("%s at %s", s.FormatDays(), s.StartTime)
	}
	n := len(i.Habit.Sessions)
	if n == 0 {
		return schedule + " · no sessions"
	}
	return fmt.Sprintf("%s · %d session(s), avg %s", schedule, n, timer.FormatTime(int(timer.Average(i.Habit.Sessions))))
}

func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Add      key.Binding
	Schedule key.Binding
	Timer    key.Binding
	Chart    key.Binding
	Delete   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit schedule"),
		),
		Timer: key.NewBinding(
			key.WithKeys("enter", "t"),
			key.WithHelp("enter/t", "timer"),
		),
		Chart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chart"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(habits []models.Habit, width, height int) Model {
	l := list.New(toItems(habits), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	keys := DefaultKeyMap()
	bindings := func() []key.Binding {
		return []key.Binding{keys.Add, keys.Schedule, keys.Timer, keys.Chart, keys.Delete}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	return Model{list: l, keys: keys}
}

func toItems(habits []models.Habit) []list.Item {
	items := make([]list.Item, len(habits))
	for i, h := range habits {
		items[i] = Item{Habit: h}
	}
	return items
}

func (m *Model) SetHabits(habits []models.Habit) {
	m.list.SetItems(toItems(habits))
}

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Selected returns the highlighted habit.
func (m Model) Selected() (models.Habit, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Habit, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddHabitMsg{} }
		}
		if h, ok := m.Selected(); ok {
			switch {
			case key.Matches(msg, m.keys.Schedule):
				return m, func() tea.Msg { return EditScheduleMsg{ID: h.ID} }
			case key.Matches(msg, m.keys.Timer):
				return m, func() tea.Msg { return StartTimerMsg{ID: h.ID} }
			case key.Matches(msg, m.keys.Chart):
				return m, func() tea.Msg { return ShowChartMsg{ID: h.ID} }
			case key.Matches(msg, m.keys.Delete):
				return m, func() tea.Msg { return DeleteHabitMsg{ID: h.ID} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
