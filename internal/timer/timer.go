// Package timer counts practice sessions and phrases progress against
// earlier sessions.
package timer

import (
	"context"
	"fmt"
	"math"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Timer is a one-second counter with no pause. The zero value is idle at 0.
type Timer struct {
	state   State
	seconds int
}

func (t *Timer) State() State  { return t.state }
func (t *Timer) Running() bool { return t.state == Running }
func (t *Timer) Elapsed() int  { return t.seconds }

// Start begins counting. Starting a running timer does nothing.
func (t *Timer) Start() {
	t.state = Running
}

// Tick adds one second while running and reports whether it did.
func (t *Timer) Tick() bool {
	if t.state != Running {
		return false
	}
	t.seconds++
	return true
}

// Stop returns the captured count and resets to idle at 0. The bool is
// false when the timer was not running.
func (t *Timer) Stop() (int, bool) {
	wasRunning := t.state == Running
	captured := t.seconds
	t.Reset()
	return captured, wasRunning
}

// Reset drops the count without reporting it.
func (t *Timer) Reset() {
	t.state = Idle
	t.seconds = 0
}

// SessionRecorder stores a finished session for a habit.
type SessionRecorder interface {
	AppendSession(ctx context.Context, habitID string, seconds int) error
}

// Session is a timer bound to one habit.
type Session struct {
	Timer
	HabitID  string
	recorder SessionRecorder
	metrics  *metrics.Metrics
}

func NewSession(habitID string, recorder SessionRecorder, m *metrics.Metrics) *Session {
	return &Session{HabitID: habitID, recorder: recorder, metrics: m}
}

// Stop ends a running session and appends its length to the habit. The
// counter is reset even when recording fails. Stopping an idle session
// records nothing.
func (s *Session) Stop(ctx context.Context) (int, error) {
	seconds, wasRunning := s.Timer.Stop()
	if !wasRunning {
		return 0, nil
	}
	if err := s.recorder.AppendSession(ctx, s.HabitID, seconds); err != nil {
		logger.Error("Failed to record session", "habit", s.HabitID, "seconds", seconds, "error", err)
		return seconds, err
	}
	s.metrics.SessionRecorded()
	logger.Info("Session recorded", "habit", s.HabitID, "seconds", seconds)
	return seconds, nil
}

// Discard closes the session without recording it.
func (s *Session) Discard() {
	if s.Running() {
		logger.Debug("Session discarded", "habit", s.HabitID, "seconds", s.Elapsed())
	}
	s.Reset()
}

// Average is the mean session length in seconds, 0 for no sessions.
func Average(sessions []int) float64 {
	if len(sessions) == 0 {
		return 0
	}
	total := 0
	for _, s := range sessions {
		total += s
	}
	return float64(total) / float64(len(sessions))
}

// Motivation compares the running session with the mean of earlier ones.
func Motivation(elapsed int, prior []int) string {
	if len(prior) == 0 {
		return "Great start! Keep it up!"
	}

	avg := Average(prior)
	switch {
	case float64(elapsed) > avg:
		diff := elapsed/60 - int(avg)/60
		return fmt.Sprintf("Great! You're %d %s longer than usual!", diff, minutes(diff))
	case elapsed > 0:
		remaining := int(math.Ceil((avg - float64(elapsed)) / 60))
		return fmt.Sprintf("%d more %s to your usual!", remaining, minutes(remaining))
	default:
		return "Ready to beat your last result?"
	}
}

func minutes(n int) string {
	if n == 1 {
		return "minute"
	}
	return "minutes"
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
