package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

// timePattern accepts 24-hour HH:MM with an optional leading zero on the hour.
var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateTimeFormat reports whether s is a 24-hour HH:MM time of day.
func ValidateTimeFormat(s string) bool {
	return timePattern.MatchString(s)
}

// ParseClock splits a validated HH:MM string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	if !ValidateTimeFormat(s) {
		return 0, 0, errors.NewValidationError("time", "%q is not in HH:MM format", s)
	}
	parts := strings.SplitN(s, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute, nil
}

// ValidateHabitName rejects empty or whitespace-only names.
func ValidateHabitName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewValidationError("name", "habit name cannot be empty")
	}
	return nil
}

// ValidateSchedule checks the start time and that every day is a real weekday.
func ValidateSchedule(s models.Schedule) error {
	if !ValidateTimeFormat(s.StartTime) {
		return errors.NewValidationError("time", "%q is not in HH:MM format", s.StartTime)
	}
	for _, d := range s.Days {
		if !d.Valid() {
			return errors.NewValidationError("days", "unknown weekday ordinal %d", int(d))
		}
	}
	return nil
}

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateHabitID   ConflictType = "duplicate_habit_id"
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictInvalidSchedule    ConflictType = "invalid_schedule"
	ConflictEmptySchedule      ConflictType = "empty_schedule"
	ConflictNegativeSession    ConflictType = "negative_session"
	ConflictOrphanNotification ConflictType = "orphan_notification"
)

// Conflict represents a detected problem in the stored habits or notifications
type Conflict struct {
	Type        ConflictType
	Description string
	HabitIDs    []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// ValidateHabits checks a loaded habit collection for data that the
// repository would never write itself, e.g. after a manual edit.
func ValidateHabits(habits []models.Habit) ValidationResult {
	var result ValidationResult
	seenIDs := make(map[string]bool)
	seenNames := make(map[string]string)

	for _, h := range habits {
		if seenIDs[h.ID] {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitID,
				Description: fmt.Sprintf("habit id %s is used more than once", h.ID),
				HabitIDs:    []string{h.ID},
			})
		}
		seenIDs[h.ID] = true

		key := strings.ToLower(strings.TrimSpace(h.Name))
		if other, ok := seenNames[key]; ok {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("habit name %q is used more than once", h.Name),
				HabitIDs:    []string{other, h.ID},
			})
		} else {
			seenNames[key] = h.ID
		}

		if h.Schedule != nil {
			if err := ValidateSchedule(*h.Schedule); err != nil {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidSchedule,
					Description: fmt.Sprintf("habit %q: %v", h.Name, err),
					HabitIDs:    []string{h.ID},
				})
			} else if len(h.Schedule.Days) == 0 {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictEmptySchedule,
					Description: fmt.Sprintf("habit %q has a start time but no days", h.Name),
					HabitIDs:    []string{h.ID},
				})
			}
		}

		for _, s := range h.Sessions {
			if s < 0 {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictNegativeSession,
					Description: fmt.Sprintf("habit %q has a negative session length (%d)", h.Name, s),
					HabitIDs:    []string{h.ID},
				})
				break
			}
		}
	}

	return result
}

// ValidateNotifications reports scheduled notifications whose habit no longer exists.
func ValidateNotifications(habits []models.Habit, notifications []models.Notification) ValidationResult {
	var result ValidationResult
	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}

	for _, n := range notifications {
		if n.Payload.HabitID == "" || known[n.Payload.HabitID] {
			continue
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictOrphanNotification,
			Description: fmt.Sprintf("notification %s references missing habit %s", n.ID, n.Payload.HabitID),
			HabitIDs:    []string{n.Payload.HabitID},
		})
	}
	return result
}
