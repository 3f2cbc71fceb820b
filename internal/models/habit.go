package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a day of the week using Go's ordinals (Sunday=0 ... Saturday=6).
// It is stored as its English name.
type Weekday time.Weekday

// AllWeekdays lists the weekdays in display order, Monday first.
var AllWeekdays = []Weekday{
	Weekday(time.Monday),
	Weekday(time.Tuesday),
	Weekday(time.Wednesday),
	Weekday(time.Thursday),
	Weekday(time.Friday),
	Weekday(time.Saturday),
	Weekday(time.Sunday),
}

var weekdayAliases = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts a full name, a three letter abbreviation or an
// ordinal 0-6 (0=Sunday).
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayAliases[s]; ok {
		return Weekday(wd), nil
	}
	num, err := strconv.Atoi(s)
	if err == nil && num >= 0 && num <= 6 {
		return Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

func (d Weekday) String() string {
	return time.Weekday(d).String()
}

// Short returns the three letter abbreviation.
func (d Weekday) Short() string {
	return d.String()[:3]
}

func (d Weekday) Valid() bool {
	return d >= Weekday(time.Sunday) && d <= Weekday(time.Saturday)
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday ordinal %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(text []byte) error {
	wd, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = wd
	return nil
}

// Schedule is the weekly reminder plan of a habit.
type Schedule struct {
	Days      []Weekday `json:"days"`
	StartTime string    `json:"startTime"` // HH:MM format
}

// Habit is a user-defined recurring activity.
type Habit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Completed bool      `json:"completed"`
	Sessions  []int     `json:"sessions"` // seconds per completed session
	Schedule  *Schedule `json:"schedule,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate repository state.
func (h Habit) Clone() Habit {
	c := h
	if h.Sessions != nil {
		c.Sessions = append([]int(nil), h.Sessions...)
	}
	if h.Schedule != nil {
		s := *h.Schedule
		s.Days = append([]Weekday(nil), h.Schedule.Days...)
		c.Schedule = &s
	}
	return c
}

// FormatDays renders the scheduled days as "Mon, Wed, Fri".
func (s Schedule) FormatDays() string {
	days := make([]string, len(s.Days))
	for i, d := range s.Days {
		days[i] = d.Short()
	}
	return strings.Join(days, ", ")
}
