package notifications

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func newTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC))
	ctx, err := cli.NewContext(context.Background(), kv.NewMemory(), cli.Config{Store: "memory", Timezone: "UTC"},
		cli.WithClock(clock), cli.WithOutput(&out))
	require.NoError(t, err)
	require.NoError(t, ctx.Load())
	return ctx, &out
}

func scheduleHabit(t *testing.T, ctx *cli.Context, name string, days ...models.Weekday) models.Habit {
	t.Helper()
	habit, err := ctx.Repo.SaveSchedule(ctx.Ctx, storage.Draft{Name: name, Days: days, StartTime: "07:30"})
	require.NoError(t, err)
	result, err := ctx.Scheduler.ScheduleHabit(ctx.Ctx, habit)
	require.NoError(t, err)
	require.Len(t, result.Scheduled, len(days))
	return habit
}

func TestListEmpty(t *testing.T) {
	ctx, out := newTestContext(t)
	require.NoError(t, (&NotificationsListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Permission: undetermined")
	assert.Contains(t, out.String(), "No reminders scheduled.")
}

func TestListShowsHabitNames(t *testing.T) {
	ctx, out := newTestContext(t)
	require.NoError(t, (&PermissionGrantCmd{}).Run(ctx))
	scheduleHabit(t, ctx, "Read", 1)
	orphan := scheduleHabit(t, ctx, "Run", 6)
	require.NoError(t, ctx.Repo.Delete(ctx.Ctx, orphan.ID))

	out.Reset()
	require.NoError(t, (&NotificationsListCmd{}).Run(ctx))
	got := out.String()
	assert.Contains(t, got, "Permission: granted")
	assert.Contains(t, got, "Read")
	assert.Contains(t, got, "Mon Jun 10 07:30")
	assert.Contains(t, got, "(deleted) "+orphan.ID)
	assert.Contains(t, got, "weekly")
}

func TestCancelAll(t *testing.T) {
	ctx, out := newTestContext(t)
	require.NoError(t, (&PermissionGrantCmd{}).Run(ctx))
	scheduleHabit(t, ctx, "Read", 1, 3, 5)

	out.Reset()
	require.NoError(t, (&NotificationsCancelAllCmd{}).Run(ctx))
	assert.Equal(t, "Cancelled 3 reminder(s)\n", out.String())

	upcoming, err := ctx.Scheduler.Upcoming(ctx.Ctx)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
	assert.Len(t, ctx.Repo.List(), 1, "habits are kept")
}

func TestPermissionGrantAndRevoke(t *testing.T) {
	ctx, _ := newTestContext(t)

	require.NoError(t, (&PermissionGrantCmd{}).Run(ctx))
	perm, err := ctx.Notifications.Permission(ctx.Ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionGranted, perm)

	scheduleHabit(t, ctx, "Read", 2)

	require.NoError(t, (&PermissionRevokeCmd{}).Run(ctx))
	perm, err = ctx.Notifications.Permission(ctx.Ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionDenied, perm)

	upcoming, err := ctx.Scheduler.Upcoming(ctx.Ctx)
	require.NoError(t, err)
	assert.Empty(t, upcoming, "revoking cancels scheduled reminders")

	granted, err := ctx.Notifications.RequestPermission(ctx.Ctx)
	require.NoError(t, err)
	assert.False(t, granted)
}
