// Package scheduler turns a habit's weekly schedule into repeating
// reminders on a notification.Service.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notification"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

// NextOccurrence returns the first instant strictly after now that falls on
// weekday at hour:minute in now's location. The result is at most seven
// days ahead.
func NextOccurrence(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+days, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+days+7, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Result reports what ScheduleHabit did.
type Result struct {
	// IDs of the notifications created, one per scheduled day.
	Scheduled []string
	// Per-day failures. The remaining days were still scheduled.
	Failures         []*errors.ScheduleError
	PermissionDenied bool
}

// OK reports whether at least one reminder was scheduled.
func (r Result) OK() bool {
	return len(r.Scheduled) > 0
}

type Scheduler struct {
	service notification.Service
	clock   clockwork.Clock
	loc     *time.Location
	metrics *metrics.Metrics
}

func New(service notification.Service, clock clockwork.Clock, loc *time.Location, m *metrics.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{service: service, clock: clock, loc: loc, metrics: m}
}

// ScheduleHabit replaces the habit's reminders with one weekly reminder per
// scheduled day. Nothing is touched when the schedule is invalid or
// permission is refused.
func (s *Scheduler) ScheduleHabit(ctx context.Context, habit models.Habit) (Result, error) {
	if habit.Schedule == nil {
		return Result{}, errors.NewValidationError("schedule", "habit %q has no schedule", habit.Name)
	}
	if err := validation.ValidateSchedule(*habit.Schedule); err != nil {
		return Result{}, err
	}
	hour, minute, err := validation.ParseClock(habit.Schedule.StartTime)
	if err != nil {
		return Result{}, err
	}

	granted, err := s.service.RequestPermission(ctx)
	if err != nil {
		return Result{}, err
	}
	if !granted {
		logger.Warn("Notification permission not granted", "habit", habit.ID)
		return Result{PermissionDenied: true}, errors.ErrPermissionDenied
	}

	if _, err := s.CancelHabit(ctx, habit.ID); err != nil {
		return Result{}, err
	}

	var result Result
	now := utils.NowIn(s.clock, s.loc)
	hhmm := fmt.Sprintf("%02d:%02d", hour, minute)
	for _, day := range habit.Schedule.Days {
		at := NextOccurrence(now, time.Weekday(day), hour, minute)
		id, err := s.service.Schedule(ctx, notification.Request{
			Content: models.Content{
				Title: "Time for your habit: " + habit.Name,
				Body:  fmt.Sprintf("Scheduled: %s, %s", day, hhmm),
			},
			Payload: models.Payload{
				HabitID: habit.ID,
				Day:     day.String(),
				Time:    habit.Schedule.StartTime,
			},
			Trigger: models.Trigger{
				Date:     at,
				Repeats:  true,
				Interval: constants.WeeklyInterval,
			},
		})
		if err != nil {
			logger.Error("Failed to schedule reminder", "habit", habit.ID, "day", day, "error", err)
			s.metrics.ScheduleFailed()
			result.Failures = append(result.Failures, &errors.ScheduleError{HabitID: habit.ID, Day: day.String(), Err: err})
			continue
		}
		s.metrics.Scheduled()
		result.Scheduled = append(result.Scheduled, id)
	}

	logger.Info("Scheduled habit reminders", "habit", habit.ID, "scheduled", len(result.Scheduled), "failed", len(result.Failures))
	return result, nil
}

// CancelHabit cancels every reminder whose payload belongs to habitID and
// returns how many were cancelled.
func (s *Scheduler) CancelHabit(ctx context.Context, habitID string) (int, error) {
	scheduled, err := s.service.ListScheduled(ctx)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, n := range scheduled {
		if n.Payload.HabitID != habitID {
			continue
		}
		if err := s.service.Cancel(ctx, n.ID); err != nil {
			return cancelled, fmt.Errorf("failed to cancel notification %s: %w", n.ID, err)
		}
		cancelled++
	}
	if cancelled > 0 {
		logger.Debug("Cancelled habit reminders", "habit", habitID, "count", cancelled)
	}
	return cancelled, nil
}

// Upcoming lists scheduled reminders, soonest first.
func (s *Scheduler) Upcoming(ctx context.Context) ([]models.Notification, error) {
	list, err := s.service.ListScheduled(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Trigger.Date.Before(list[j].Trigger.Date)
	})
	return list, nil
}

func (s *Scheduler) CancelAll(ctx context.Context) error {
	return s.service.CancelAll(ctx)
}
