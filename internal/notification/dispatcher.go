package notification

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
)

// Sender delivers a notification to the user.
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
}

// DispatchResult counts the notifications handled by one pass.
type DispatchResult struct {
	Sent   int
	Failed int
}

// Dispatcher fires due notifications from a LocalService.
type Dispatcher struct {
	service  *LocalService
	sender   Sender
	clock    clockwork.Clock
	location *time.Location
	interval time.Duration
	metrics  *metrics.Metrics
}

// NewDispatcher builds a Dispatcher. Repeating triggers are advanced in loc,
// the user's timezone, since stored dates only keep a fixed UTC offset.
func NewDispatcher(service *LocalService, sender Sender, clock clockwork.Clock, loc *time.Location, interval time.Duration, m *metrics.Metrics) *Dispatcher {
	if interval <= 0 {
		interval = constants.DefaultDispatchInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		service:  service,
		sender:   sender,
		clock:    clock,
		location: loc,
		interval: interval,
		metrics:  m,
	}
}

// DispatchDue sends every notification whose trigger date is not after now.
// Repeating triggers move forward by whole intervals until they are in the
// future; one-shot notifications are removed. A failed send is counted and
// the notification is advanced anyway.
func (d *Dispatcher) DispatchDue(ctx context.Context) (DispatchResult, error) {
	start := d.clock.Now()
	defer func() { d.metrics.ObserveDispatch(d.clock.Since(start)) }()

	now := d.clock.Now()
	list, err := d.service.ListScheduled(ctx)
	if err != nil {
		return DispatchResult{}, err
	}

	var result DispatchResult
	handled := make(map[string]bool)
	for _, n := range list {
		if !n.Due(now) {
			continue
		}
		handled[n.ID] = true
		if err := d.sender.Send(ctx, n); err != nil {
			result.Failed++
			d.metrics.Dispatched(metrics.ResultFailed)
			logger.Warn("Failed to deliver notification", "id", n.ID, "habit", n.Payload.HabitID, "error", err)
			continue
		}
		result.Sent++
		d.metrics.Dispatched(metrics.ResultSent)
		logger.Info("Delivered notification", "id", n.ID, "habit", n.Payload.HabitID)
	}

	if len(handled) == 0 {
		return result, nil
	}

	// Re-read so changes made while sending are not lost.
	err = d.service.update(ctx, func(current []models.Notification) []models.Notification {
		kept := current[:0]
		for _, n := range current {
			if !handled[n.ID] {
				kept = append(kept, n)
				continue
			}
			if !n.Trigger.Repeats || n.Trigger.Interval <= 0 {
				continue
			}
			n.Trigger.Date = Advance(n.Trigger.Date.In(d.location), n.Trigger.Interval, now)
			kept = append(kept, n)
		}
		return kept
	})
	return result, err
}

// Advance moves date forward by whole multiples of interval until it is
// strictly after now. Weekly intervals step by calendar weeks in date's
// location, keeping the wall clock time across DST changes.
func Advance(date time.Time, interval time.Duration, now time.Time) time.Time {
	if interval <= 0 {
		return date
	}
	if interval == constants.WeeklyInterval {
		for !date.After(now) {
			date = date.AddDate(0, 0, 7)
		}
		return date
	}
	if !date.After(now) {
		steps := now.Sub(date)/interval + 1
		date = date.Add(steps * interval)
	}
	return date
}

// Run calls DispatchDue once immediately and then on every tick until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	logger.Info("Dispatcher started", "interval", d.interval)
	d.pass(ctx)

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Dispatcher stopped")
			return ctx.Err()
		case <-ticker.Chan():
			d.pass(ctx)
		}
	}
}

func (d *Dispatcher) pass(ctx context.Context) {
	result, err := d.DispatchDue(ctx)
	if err != nil {
		logger.Error("Dispatch pass failed", "error", err)
		return
	}
	if result.Sent+result.Failed > 0 {
		logger.Debug("Dispatch pass complete", "sent", result.Sent, "failed", result.Failed)
	}
}
