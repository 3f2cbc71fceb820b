package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notification"
	"github.com/julianstephens/habitual/internal/scheduler"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/tui/components/chart"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
	"github.com/julianstephens/habitual/internal/tui/components/notifications"
	"github.com/julianstephens/habitual/internal/tui/components/timer"
	"github.com/julianstephens/habitual/internal/validation"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateNotifications
	StateScheduleForm
	StateTimer
	StateChart
	StateConfirmDelete
	StateConfirmPermission
)

var tabTitles = []string{"Habits", "Reminders"}

type ScheduleFormModel struct {
	Name      string
	Days      []models.Weekday
	StartTime string
}

// Deps are the services the TUI drives.
type Deps struct {
	Repo          *storage.Repository
	Scheduler     *scheduler.Scheduler
	Notifications *notification.LocalService
	Metrics       *metrics.Metrics
}

type Model struct {
	ctx                context.Context
	repo               *storage.Repository
	scheduler          *scheduler.Scheduler
	notifications      *notification.LocalService
	metrics            *metrics.Metrics
	state              SessionState
	chartReturn        SessionState
	keys               KeyMap
	help               help.Model
	habitsModel        habits.Model
	timerModel         timer.Model
	chartModel         chart.Model
	notificationsModel notifications.Model
	form               *huh.Form
	scheduleForm       *ScheduleFormModel
	editingID          string
	habitToDeleteID    string
	pendingSchedule    *models.Habit
	status             string
	statusIsError      bool
	validationWarning  string
	quitting           bool
	width              int
	height             int
}

func NewModel(ctx context.Context, d Deps) Model {
	m := Model{
		ctx:                ctx,
		repo:               d.Repo,
		scheduler:          d.Scheduler,
		notifications:      d.Notifications,
		metrics:            d.Metrics,
		state:              StateHabits,
		keys:               DefaultKeyMap(),
		help:               help.New(),
		habitsModel:        habits.New(d.Repo.List(), 0, 0),
		timerModel:         timer.New(),
		chartModel:         chart.New(),
		notificationsModel: notifications.New(0, 0),
	}
	m.refreshNotifications()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateHabits, StateNotifications:
		return []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	case StateConfirmDelete, StateConfirmPermission:
		return []key.Binding{m.keys.Yes, m.keys.No}
	}
	return nil
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Enter}
	return [][]key.Binding{global, navigation}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusIsError = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusIsError = true
}

func (m *Model) refreshHabits() {
	m.habitsModel.SetHabits(m.repo.List())
	m.updateValidationStatus()
}

func (m *Model) refreshNotifications() {
	list, err := m.scheduler.Upcoming(m.ctx)
	if err != nil {
		m.setError("Could not load reminders: %v", err)
		return
	}
	names := make(map[string]string)
	for _, h := range m.repo.List() {
		names[h.ID] = h.Name
	}
	m.notificationsModel.SetNotifications(list, names)
	if p, err := m.notifications.Permission(m.ctx); err == nil {
		m.notificationsModel.SetPermission(p)
	}
	m.updateValidationStatus()
}

// updateValidationStatus checks the stored data and updates the warning banner
func (m *Model) updateValidationStatus() {
	habitList := m.repo.List()
	result := validation.ValidateHabits(habitList)
	if list, err := m.notifications.ListScheduled(m.ctx); err == nil {
		result.Conflicts = append(result.Conflicts, validation.ValidateNotifications(habitList, list).Conflicts...)
	}
	if result.HasConflicts() {
		m.validationWarning = fmt.Sprintf("⚠ %d validation warning(s), run 'habitual doctor'", len(result.Conflicts))
	} else {
		m.validationWarning = ""
	}
}
