package habits

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/scheduler"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/timer"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a new habit."`
	List     HabitListCmd     `cmd:"" help:"List habits."`
	Show     HabitShowCmd     `cmd:"" help:"Show a habit with its sessions and reminders."`
	Schedule HabitScheduleCmd `cmd:"" help:"Set the weekly reminder schedule of a habit."`
	Delete   HabitDeleteCmd   `cmd:"" help:"Delete a habit and cancel its reminders."`
}

type HabitAddCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Repo.Create(ctx.Ctx, c.Name)
	if err != nil {
		return err
	}
	ctx.Printf("Added habit: %s\n", habit.Name)
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits := ctx.Repo.List()
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "SCHEDULE", "SESSIONS", "AVERAGE")
	for _, h := range habits {
		t.Row(h.Name, FormatSchedule(h.Schedule), strconv.Itoa(len(h.Sessions)), formatAverage(h.Sessions))
	}
	ctx.Println(t.String())
	return nil
}

type HabitShowCmd struct {
	Name string `arg:"" help:"Habit name or id."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Name)
	if err != nil {
		return err
	}

	ctx.Printf("Name:     %s\n", habit.Name)
	ctx.Printf("ID:       %s\n", habit.ID)
	ctx.Printf("Schedule: %s\n", FormatSchedule(habit.Schedule))
	ctx.Printf("Sessions: %d (average %s)\n", len(habit.Sessions), formatAverage(habit.Sessions))
	if n := len(habit.Sessions); n > 0 {
		ctx.Printf("Last:     %s\n", timer.FormatTime(habit.Sessions[n-1]))
	}

	upcoming, err := ctx.Scheduler.Upcoming(ctx.Ctx)
	if err != nil {
		return err
	}
	var lines []string
	for _, n := range upcoming {
		if n.Payload.HabitID == habit.ID {
			lines = append(lines, "  "+n.Trigger.Date.In(ctx.Location).Format(constants.ReminderFormat))
		}
	}
	if len(lines) == 0 {
		ctx.Println("Reminders: none")
		return nil
	}
	ctx.Println("Reminders:")
	ctx.Println(strings.Join(lines, "\n"))
	return nil
}

type HabitScheduleCmd struct {
	Name string `arg:"" help:"Habit name. A new habit is created when none matches."`
	Days string `help:"Comma-separated weekdays (mon,wed,fri or 0-6 with 0=Sunday)." required:""`
	At   string `help:"Reminder time in HH:MM format." required:""`
}

func (c *HabitScheduleCmd) Run(ctx *cli.Context) error {
	days, err := cli.ParseWeekdays(c.Days)
	if err != nil {
		return err
	}

	draft := storage.Draft{Name: c.Name, Days: days, StartTime: c.At}
	if existing, err := ctx.Repo.FindByName(c.Name); err == nil {
		draft.ID = existing.ID
		draft.Name = existing.Name
	}

	habit, err := ctx.Repo.SaveSchedule(ctx.Ctx, draft)
	if err != nil {
		return err
	}
	ctx.Printf("Saved schedule for %s: %s\n", habit.Name, FormatSchedule(habit.Schedule))

	result, err := ctx.Scheduler.ScheduleHabit(ctx.Ctx, habit)
	return ReportSchedule(ctx, result, err)
}

// ReportSchedule prints the outcome of a scheduling attempt. A refused
// permission is a warning; failing every day is an error.
func ReportSchedule(ctx *cli.Context, result scheduler.Result, err error) error {
	if errors.Is(err, errors.ErrPermissionDenied) {
		ctx.Println("⚠ Notifications are not allowed. The schedule was saved without reminders.")
		ctx.Println("  Run 'habitual notifications permission grant' to enable them.")
		return nil
	}
	if err != nil {
		return err
	}

	for _, f := range result.Failures {
		ctx.Printf("❌ %s: %v\n", f.Day, f.Err)
	}
	if !result.OK() && len(result.Failures) > 0 {
		return fmt.Errorf("no reminders could be scheduled")
	}
	ctx.Printf("✓ Scheduled %d reminder(s)\n", len(result.Scheduled))
	return nil
}

type HabitDeleteCmd struct {
	Name string `arg:"" help:"Habit name or id."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Name)
	if err != nil {
		return err
	}
	if err := ctx.Repo.Delete(ctx.Ctx, habit.ID); err != nil {
		return err
	}
	cancelled, err := ctx.Scheduler.CancelHabit(ctx.Ctx, habit.ID)
	if err != nil {
		return fmt.Errorf("habit deleted but its reminders could not be cancelled: %w", err)
	}
	ctx.Printf("Deleted habit: %s (%d reminder(s) cancelled)\n", habit.Name, cancelled)
	return nil
}

// FormatSchedule renders a schedule as "Mon, Wed at 07:30".
func FormatSchedule(s *models.Schedule) string {
	if s == nil || len(s.Days) == 0 {
		return "not scheduled"
	}
	return fmt.Sprintf("%s at %s", s.FormatDays(), s.StartTime)
}

func formatAverage(sessions []int) string {
	if len(sessions) == 0 {
		return "-"
	}
	return timer.FormatTime(int(timer.Average(sessions)))
}
