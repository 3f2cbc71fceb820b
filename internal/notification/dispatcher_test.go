package notification

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []models.Notification
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[n.Payload.HabitID] {
		return stderrors.New("tray unreachable")
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestDispatchDue(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newTestService(t)
	sender := &recordingSender{}
	m := metrics.New(prometheus.NewRegistry())
	d := NewDispatcher(svc, sender, clock, time.UTC, time.Minute, m)

	_, err := svc.Schedule(ctx, weekly("due", baseTime.Add(-time.Minute)))
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, weekly("exact", baseTime))
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, weekly("later", baseTime.Add(time.Hour)))
	require.NoError(t, err)

	result, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Sent: 2}, result)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsDispatched.WithLabelValues(metrics.ResultSent)))

	list, err := svc.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, n := range list {
		assert.True(t, n.Trigger.Date.After(baseTime), "%s should be in the future", n.Payload.HabitID)
	}
	assert.Equal(t, baseTime.Add(-time.Minute).AddDate(0, 0, 7), list[0].Trigger.Date)
	assert.Equal(t, baseTime.AddDate(0, 0, 7), list[1].Trigger.Date)

	result, err = d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, result, "nothing fires twice")
}

func TestDispatchRemovesOneShots(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newTestService(t)
	d := NewDispatcher(svc, &recordingSender{}, clock, time.UTC, time.Minute, nil)

	_, err := svc.Schedule(ctx, Request{
		Payload: models.Payload{HabitID: "once"},
		Trigger: models.Trigger{Date: baseTime.Add(-time.Second)},
	})
	require.NoError(t, err)

	result, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	list, err := svc.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchFailureStillAdvances(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newTestService(t)
	sender := &recordingSender{fail: map[string]bool{"broken": true}}
	d := NewDispatcher(svc, sender, clock, time.UTC, time.Minute, nil)

	_, err := svc.Schedule(ctx, weekly("broken", baseTime.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, weekly("fine", baseTime.Add(-time.Hour)))
	require.NoError(t, err)

	result, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Sent: 1, Failed: 1}, result)

	list, err := svc.ListScheduled(ctx)
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Trigger.Date.After(baseTime))
	}
}

func TestAdvanceSkipsMissedWeeks(t *testing.T) {
	date := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.May, 30, 12, 0, 0, 0, time.UTC)

	got := Advance(date, constants.WeeklyInterval, now)
	assert.Equal(t, time.Date(2024, time.June, 5, 9, 0, 0, 0, time.UTC), got)

	got = Advance(date, time.Hour, date.Add(90*time.Minute))
	assert.Equal(t, date.Add(2*time.Hour), got)

	future := now.Add(time.Hour)
	assert.Equal(t, future, Advance(future, constants.WeeklyInterval, now))
}

func TestAdvanceKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	date := time.Date(2024, time.March, 4, 8, 30, 0, 0, loc)
	now := time.Date(2024, time.March, 11, 9, 0, 0, 0, loc)

	got := Advance(date, constants.WeeklyInterval, now)
	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 18, got.Day())
}

func TestDispatchDueKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	ctx := context.Background()
	first := time.Date(2024, time.March, 4, 9, 0, 0, 0, loc)
	clock := clockwork.NewFakeClockAt(first.Add(time.Minute))
	svc := NewLocalService(kv.NewMemory(), WithClock(clock))
	d := NewDispatcher(svc, &recordingSender{}, clock, loc, time.Minute, nil)

	_, err = svc.Schedule(ctx, weekly("read", first))
	require.NoError(t, err)

	result, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Sent: 1}, result)

	list, err := svc.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	next := list[0].Trigger.Date.In(loc)
	assert.Equal(t, time.Date(2024, time.March, 11, 9, 0, 0, 0, loc).Unix(), next.Unix())
	assert.Equal(t, 9, next.Hour())

	// a second week past the change stays at 09:00 too
	clock.Advance(7 * 24 * time.Hour)
	_, err = d.DispatchDue(ctx)
	require.NoError(t, err)
	list, err = svc.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 18, 9, 0, 0, 0, loc).Unix(), list[0].Trigger.Date.Unix())
}

func TestRunDispatchesOnTick(t *testing.T) {
	svc, clock, _ := newTestService(t)
	sender := &recordingSender{}
	d := NewDispatcher(svc, sender, clock, time.UTC, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := svc.Schedule(ctx, weekly("soon", baseTime.Add(30*time.Second)))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 0, sender.count())

	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
