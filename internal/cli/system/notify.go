package system

import (
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/notification"
	"github.com/julianstephens/habitual/internal/notifier"
)

// NotifyCmd runs a single dispatch pass. Meant to be called from cron.
type NotifyCmd struct {
	DryRun bool `help:"Print notifications to stdout instead of sending them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	sender := newSender(ctx, c.DryRun)
	d := notification.NewDispatcher(ctx.Notifications, sender, ctx.Clock, ctx.Location, constants.DefaultDispatchInterval, ctx.Metrics)

	result, err := d.DispatchDue(ctx.Ctx)
	if err != nil {
		return err
	}
	if c.DryRun {
		ctx.Printf("[DryRun] %d due, %d failed\n", result.Sent+result.Failed, result.Failed)
	}
	return nil
}

func newSender(ctx *cli.Context, dryRun bool) notification.Sender {
	if dryRun {
		return &notifier.LogSender{Out: ctx.Out}
	}
	return notifier.New()
}
