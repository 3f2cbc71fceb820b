package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/validation"
)

func newScheduleForm(f *ScheduleFormModel, title string) *huh.Form {
	options := make([]huh.Option[models.Weekday], 0, len(models.AllWeekdays))
	for _, d := range models.AllWeekdays {
		options = append(options, huh.NewOption(d.String(), d))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit name").
				Value(&f.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name cannot be empty")
					}
					return nil
				}),
			huh.NewMultiSelect[models.Weekday]().
				Title("Days").
				Options(options...).
				Value(&f.Days),
			huh.NewInput().
				Title("Start time (HH:MM)").
				Placeholder("09:30").
				Value(&f.StartTime).
				Validate(func(s string) error {
					if !validation.ValidateTimeFormat(strings.TrimSpace(s)) {
						return errors.New("use 24-hour HH:MM, e.g. 09:30")
					}
					return nil
				}),
		).Title(title),
	).WithShowHelp(true)
}
