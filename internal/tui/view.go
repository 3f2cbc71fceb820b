package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateHabits:
		content = docStyle.Render(m.habitsModel.View())
	case StateNotifications:
		content = docStyle.Render(m.notificationsModel.View())
	case StateScheduleForm:
		content = docStyle.Render(m.form.View())
	case StateTimer:
		content = m.timerModel.View()
	case StateChart:
		content = m.chartModel.View()
	case StateConfirmDelete:
		content = m.viewConfirm(dangerStyle.Render("Delete this habit and its reminders?"))
	case StateConfirmPermission:
		content = m.viewConfirm(
			warningStyle.Render("Allow habitual to show habit reminders?"),
			"You can change this later with 'habitual notifications permission'.",
		)
	}

	parts := []string{m.viewTabs()}
	if m.validationWarning != "" {
		parts = append(parts, warningStyle.Render(m.validationWarning))
	}
	parts = append(parts, content)
	if m.status != "" {
		if m.statusIsError {
			parts = append(parts, errorStatusStyle.Render(m.status))
		} else {
			parts = append(parts, statusStyle.Render(m.status))
		}
	}
	parts = append(parts, m.help.View(m))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	active := -1
	switch m.state {
	case StateHabits, StateTimer, StateChart, StateScheduleForm, StateConfirmDelete, StateConfirmPermission:
		active = 0
	case StateNotifications:
		active = 1
	}
	tabs := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		if i == active {
			tabs[i] = activeTabStyle.Render(title)
		} else {
			tabs[i] = inactiveTabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewConfirm(lines ...string) string {
	lines = append(lines, "", "[y] Yes", "[n] No")
	body := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if m.width > 0 && m.height > 4 {
		return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, body)
	}
	return body
}
