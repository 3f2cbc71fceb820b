package notifications

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

type NotificationsCmd struct {
	List       NotificationsListCmd      `cmd:"" help:"List scheduled reminders, soonest first." default:"1"`
	CancelAll  NotificationsCancelAllCmd `cmd:"" help:"Cancel every scheduled reminder."`
	Permission PermissionCmd             `cmd:"" help:"Grant or revoke notification permission."`
}

type NotificationsListCmd struct{}

func (c *NotificationsListCmd) Run(ctx *cli.Context) error {
	perm, err := ctx.Notifications.Permission(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Printf("Permission: %s\n", perm)

	upcoming, err := ctx.Scheduler.Upcoming(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		ctx.Println("No reminders scheduled.")
		return nil
	}

	names := make(map[string]string)
	for _, h := range ctx.Repo.List() {
		names[h.ID] = h.Name
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("HABIT", "NEXT", "REPEATS", "ID")
	for _, n := range upcoming {
		name, ok := names[n.Payload.HabitID]
		if !ok {
			name = "(deleted) " + n.Payload.HabitID
		}
		repeats := "once"
		if n.Trigger.Repeats {
			repeats = "weekly"
		}
		t.Row(name, n.Trigger.Date.In(ctx.Location).Format(constants.ReminderFormat), repeats, n.ID)
	}
	ctx.Println(t.String())
	return nil
}

type NotificationsCancelAllCmd struct{}

func (c *NotificationsCancelAllCmd) Run(ctx *cli.Context) error {
	upcoming, err := ctx.Scheduler.Upcoming(ctx.Ctx)
	if err != nil {
		return err
	}
	if err := ctx.Scheduler.CancelAll(ctx.Ctx); err != nil {
		return err
	}
	ctx.Printf("Cancelled %d reminder(s)\n", len(upcoming))
	return nil
}

type PermissionCmd struct {
	Grant  PermissionGrantCmd  `cmd:"" help:"Allow habit reminders."`
	Revoke PermissionRevokeCmd `cmd:"" help:"Stop habit reminders and cancel the scheduled ones."`
}

type PermissionGrantCmd struct{}

func (c *PermissionGrantCmd) Run(ctx *cli.Context) error {
	if err := ctx.Notifications.SetPermission(ctx.Ctx, models.PermissionGranted); err != nil {
		return err
	}
	ctx.Println("✓ Notifications allowed")
	ctx.Println("  Run 'habitual habit schedule' to (re)create reminders.")
	return nil
}

type PermissionRevokeCmd struct{}

func (c *PermissionRevokeCmd) Run(ctx *cli.Context) error {
	if err := ctx.Notifications.SetPermission(ctx.Ctx, models.PermissionDenied); err != nil {
		return err
	}
	if err := ctx.Scheduler.CancelAll(ctx.Ctx); err != nil {
		return err
	}
	ctx.Println("✓ Notifications denied and scheduled reminders cancelled")
	return nil
}
