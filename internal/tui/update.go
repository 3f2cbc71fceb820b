package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	coretimer "github.com/julianstephens/habitual/internal/timer"
	"github.com/julianstephens/habitual/internal/tui/components/chart"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
	"github.com/julianstephens/habitual/internal/tui/components/notifications"
	"github.com/julianstephens/habitual/internal/tui/components/timer"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		h, v := docStyle.GetFrameSize()
		m.habitsModel.SetSize(msg.Width-h, msg.Height-v-4)
		m.notificationsModel.SetSize(msg.Width-h, msg.Height-v-8)
		m.timerModel.SetSize(msg.Width, msg.Height-4)
		m.chartModel.SetSize(msg.Width, msg.Height-4)
		return m, nil
	}

	// Ticks always go to the timer, which drops stale ones.
	if _, ok := msg.(timer.TickMsg); ok {
		var cmd tea.Cmd
		m.timerModel, cmd = m.timerModel.Update(msg)
		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		m.timerModel.Close()
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateScheduleForm:
		return m.updateScheduleForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	case StateConfirmPermission:
		return m.updateConfirmPermission(msg)
	}

	switch msg := msg.(type) {
	case habits.AddHabitMsg:
		m.openScheduleForm(models.Habit{})
		return m, m.form.Init()
	case habits.EditScheduleMsg:
		h, err := m.repo.Get(msg.ID)
		if err != nil {
			m.setError("%v", err)
			return m, nil
		}
		m.openScheduleForm(h)
		return m, m.form.Init()
	case habits.StartTimerMsg:
		m.openTimer(msg.ID)
		return m, nil
	case habits.ShowChartMsg:
		m.openChart(msg.ID, StateHabits)
		return m, nil
	case timer.ShowChartMsg:
		m.openChart(msg.ID, StateTimer)
		return m, nil
	case habits.DeleteHabitMsg:
		m.habitToDeleteID = msg.ID
		m.state = StateConfirmDelete
		return m, nil
	case timer.SessionSavedMsg:
		m.handleSessionSaved(msg)
		return m, nil
	case timer.CloseMsg, chart.CloseMsg:
		m.timerModel.Close()
		m.state = StateHabits
		return m, nil
	case chart.BackMsg:
		if m.chartReturn == StateTimer {
			m.state = StateTimer
		} else {
			m.openTimer(msg.ID)
		}
		return m, nil
	case notifications.RefreshMsg:
		m.refreshNotifications()
		return m, nil
	case notifications.CancelAllMsg:
		if err := m.scheduler.CancelAll(m.ctx); err != nil {
			m.setError("Could not cancel reminders: %v", err)
		} else {
			m.setStatus("All reminders cancelled")
		}
		m.refreshNotifications()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case StateTimer:
		m.timerModel, cmd = m.timerModel.Update(msg)
		return m, cmd
	case StateChart:
		m.chartModel, cmd = m.chartModel.Update(msg)
		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.habitsModel.Filtering() {
		if handled, cmd := m.handleGlobalKeys(keyMsg); handled {
			return m, cmd
		}
	}

	switch m.state {
	case StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case StateNotifications:
		m.notificationsModel, cmd = m.notificationsModel.Update(msg)
	}
	return m, cmd
}

// handleGlobalKeys handles key presses shared by the tab views
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return true, nil
	case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.ShiftTab):
		if m.state == StateHabits {
			m.state = StateNotifications
			m.refreshNotifications()
		} else {
			m.state = StateHabits
		}
		return true, nil
	}
	return false, nil
}

func (m *Model) openScheduleForm(h models.Habit) {
	m.editingID = h.ID
	m.scheduleForm = &ScheduleFormModel{Name: h.Name}
	title := "New habit"
	if h.ID != "" {
		title = "Schedule for " + h.Name
	}
	if h.Schedule != nil {
		m.scheduleForm.Days = append([]models.Weekday(nil), h.Schedule.Days...)
		m.scheduleForm.StartTime = h.Schedule.StartTime
	}
	m.form = newScheduleForm(m.scheduleForm, title)
	m.state = StateScheduleForm
}

func (m Model) updateScheduleForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateHabits
		m.setStatus("")
		h, err := m.repo.SaveSchedule(m.ctx, storage.Draft{
			ID:        m.editingID,
			Name:      m.scheduleForm.Name,
			Days:      m.scheduleForm.Days,
			StartTime: m.scheduleForm.StartTime,
		})
		switch {
		case errors.IsValidation(err):
			m.setError("%v", err)
			return m, nil
		case err != nil:
			// The habit is kept in memory; carry on so reminders match it.
			m.setError("Saved %q but could not persist it: %v", h.Name, err)
		}
		m.refreshHabits()
		return m.requestSchedule(h)
	case huh.StateAborted:
		m.state = StateHabits
		return m, nil
	}
	return m, cmd
}

// requestSchedule asks for permission first when it was never answered.
func (m Model) requestSchedule(h models.Habit) (tea.Model, tea.Cmd) {
	p, err := m.notifications.Permission(m.ctx)
	if err != nil {
		m.setError("Could not read notification permission: %v", err)
		return m, nil
	}
	if p == models.PermissionUndetermined {
		m.pendingSchedule = &h
		m.state = StateConfirmPermission
		return m, nil
	}
	m.scheduleHabit(h)
	return m, nil
}

func (m *Model) scheduleHabit(h models.Habit) {
	result, err := m.scheduler.ScheduleHabit(m.ctx, h)
	switch {
	case errors.Is(err, errors.ErrPermissionDenied):
		m.setError("Saved %q. Reminders are off; enable them with 'habitual notifications permission grant'", h.Name)
	case err != nil:
		m.setError("Saved %q but reminders failed: %v", h.Name, err)
	case len(result.Failures) > 0:
		m.setError("Saved %q: %d reminder(s) scheduled, %d failed", h.Name, len(result.Scheduled), len(result.Failures))
	case !result.OK():
		m.setStatus(fmt.Sprintf("Saved %q with no reminder days", h.Name))
	default:
		if !m.statusIsError {
			m.setStatus(fmt.Sprintf("Saved %q: %d weekly reminder(s)", h.Name, len(result.Scheduled)))
		}
	}
	m.refreshNotifications()
}

func (m Model) updateConfirmPermission(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.pendingSchedule == nil {
		return m, nil
	}
	answer := models.PermissionUndetermined
	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		answer = models.PermissionGranted
	case key.Matches(keyMsg, m.keys.No):
		answer = models.PermissionDenied
	default:
		return m, nil
	}

	h := *m.pendingSchedule
	m.pendingSchedule = nil
	m.state = StateHabits
	if err := m.notifications.SetPermission(m.ctx, answer); err != nil {
		m.setError("Could not store notification permission: %v", err)
		return m, nil
	}
	m.scheduleHabit(h)
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		id := m.habitToDeleteID
		m.habitToDeleteID = ""
		m.state = StateHabits
		err := m.repo.Delete(m.ctx, id)
		switch {
		case err != nil && !errors.IsStorage(err):
			m.setError("%v", err)
			return m, nil
		case err != nil:
			m.setError("Deleted, but could not persist: %v", err)
		default:
			m.setStatus("Habit deleted")
		}
		if _, err := m.scheduler.CancelHabit(m.ctx, id); err != nil {
			logger.Warn("Failed to cancel reminders of deleted habit", "habit", id, "error", err)
		}
		m.refreshHabits()
		m.refreshNotifications()
	case key.Matches(keyMsg, m.keys.No):
		m.habitToDeleteID = ""
		m.state = StateHabits
	}
	return m, nil
}

func (m *Model) openTimer(id string) {
	h, err := m.repo.Get(id)
	if err != nil {
		m.setError("%v", err)
		return
	}
	m.timerModel.Open(h, coretimer.NewSession(h.ID, m.repo, m.metrics))
	m.state = StateTimer
}

func (m *Model) openChart(id string, from SessionState) {
	h, err := m.repo.Get(id)
	if err != nil {
		m.setError("%v", err)
		return
	}
	m.chartModel.SetHabit(h)
	m.chartReturn = from
	m.state = StateChart
}

func (m *Model) handleSessionSaved(msg timer.SessionSavedMsg) {
	m.state = StateHabits
	name := msg.HabitID
	if h, err := m.repo.Get(msg.HabitID); err == nil {
		name = h.Name
	}
	switch {
	case errors.IsStorage(msg.Err):
		m.setError("Recorded %s for %s but could not persist it: %v", coretimer.FormatTime(msg.Seconds), name, msg.Err)
	case msg.Err != nil:
		m.setError("Could not record session: %v", msg.Err)
	default:
		m.setStatus(fmt.Sprintf("Recorded %s for %s", coretimer.FormatTime(msg.Seconds), name))
	}
	m.refreshHabits()
}
