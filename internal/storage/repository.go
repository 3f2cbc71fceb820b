// Package storage holds the habit repository: the single owner of the habit
// list, persisted wholesale as one JSON document in a kv.Store.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/validation"
)

// Draft is the input of the schedule editor. An empty or unknown ID creates a new habit.
type Draft struct {
	ID        string
	Name      string
	Days      []models.Weekday
	StartTime string
}

// Repository owns the in-memory habit list. Every mutation is applied in
// memory first and then the whole list is written back. A failed write is
// reported as a *errors.StorageError and the in-memory change is kept.
// A Repository is not safe for concurrent use.
type Repository struct {
	store  kv.Store
	habits []models.Habit
	newID  func() (string, error)
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{
		store: store,
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

// Load replaces the in-memory list with the stored one. A missing key is an empty list.
func (r *Repository) Load(ctx context.Context) error {
	raw, found, err := r.store.Get(ctx, constants.HabitsKey)
	if err != nil {
		return &errors.StorageError{Op: "read", Err: err}
	}
	if !found || strings.TrimSpace(raw) == "" {
		r.habits = nil
		return nil
	}

	var habits []models.Habit
	if err := json.Unmarshal([]byte(raw), &habits); err != nil {
		return &errors.StorageError{Op: "decode", Err: err}
	}
	r.habits = habits
	logger.Debug("Loaded habits", "count", len(habits))
	return nil
}

// Save writes the whole in-memory list.
func (r *Repository) Save(ctx context.Context) error {
	habits := r.habits
	if habits == nil {
		habits = []models.Habit{}
	}
	data, err := json.Marshal(habits)
	if err != nil {
		return &errors.StorageError{Op: "encode", Err: err}
	}
	if err := r.store.Set(ctx, constants.HabitsKey, string(data)); err != nil {
		logger.Error("Failed to save habits", "error", err)
		return &errors.StorageError{Op: "write", Err: err}
	}
	return nil
}

// List returns a copy of the habits in insertion order.
func (r *Repository) List() []models.Habit {
	out := make([]models.Habit, len(r.habits))
	for i, h := range r.habits {
		out[i] = h.Clone()
	}
	return out
}

func (r *Repository) indexOf(id string) int {
	for i, h := range r.habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the habit with the given id.
func (r *Repository) Get(id string) (models.Habit, error) {
	i := r.indexOf(id)
	if i < 0 {
		return models.Habit{}, fmt.Errorf("%w: %s", errors.ErrHabitNotFound, id)
	}
	return r.habits[i].Clone(), nil
}

// FindByName returns the habit whose name matches, ignoring case and surrounding space.
func (r *Repository) FindByName(name string) (models.Habit, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, h := range r.habits {
		if strings.ToLower(strings.TrimSpace(h.Name)) == key {
			return h.Clone(), nil
		}
	}
	return models.Habit{}, fmt.Errorf("%w: %q", errors.ErrHabitNotFound, name)
}

func (r *Repository) nameTaken(name, exceptID string) bool {
	h, err := r.FindByName(name)
	return err == nil && h.ID != exceptID
}

// Create adds an unscheduled habit.
func (r *Repository) Create(ctx context.Context, name string) (models.Habit, error) {
	if err := validation.ValidateHabitName(name); err != nil {
		return models.Habit{}, err
	}
	if r.nameTaken(name, "") {
		return models.Habit{}, errors.NewValidationError("name", "habit %q already exists", name)
	}

	id, err := r.newID()
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to generate habit id: %w", err)
	}
	habit := models.Habit{ID: id, Name: strings.TrimSpace(name), Sessions: []int{}}
	r.habits = append(r.habits, habit)
	logger.Info("Created habit", "id", id, "name", habit.Name)

	return habit.Clone(), r.Save(ctx)
}

// SaveSchedule validates the draft and then creates or updates the habit.
// Updating keeps the habit's sessions and completed flag.
func (r *Repository) SaveSchedule(ctx context.Context, d Draft) (models.Habit, error) {
	if err := validation.ValidateHabitName(d.Name); err != nil {
		return models.Habit{}, err
	}
	schedule := models.Schedule{Days: dedupeDays(d.Days), StartTime: strings.TrimSpace(d.StartTime)}
	if err := validation.ValidateSchedule(schedule); err != nil {
		return models.Habit{}, err
	}

	i := -1
	if d.ID != "" {
		i = r.indexOf(d.ID)
	}
	if r.nameTaken(d.Name, d.ID) {
		return models.Habit{}, errors.NewValidationError("name", "habit %q already exists", d.Name)
	}

	var habit models.Habit
	if i >= 0 {
		r.habits[i].Name = strings.TrimSpace(d.Name)
		r.habits[i].Schedule = &schedule
		habit = r.habits[i]
		logger.Info("Updated habit schedule", "id", habit.ID, "days", schedule.FormatDays(), "time", schedule.StartTime)
	} else {
		id, err := r.newID()
		if err != nil {
			return models.Habit{}, fmt.Errorf("failed to generate habit id: %w", err)
		}
		habit = models.Habit{
			ID:       id,
			Name:     strings.TrimSpace(d.Name),
			Sessions: []int{},
			Schedule: &schedule,
		}
		r.habits = append(r.habits, habit)
		logger.Info("Created scheduled habit", "id", id, "days", schedule.FormatDays(), "time", schedule.StartTime)
	}

	return habit.Clone(), r.Save(ctx)
}

// Delete removes exactly one habit and keeps the order of the rest.
func (r *Repository) Delete(ctx context.Context, id string) error {
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", errors.ErrHabitNotFound, id)
	}
	r.habits = append(r.habits[:i:i], r.habits[i+1:]...)
	logger.Info("Deleted habit", "id", id)
	return r.Save(ctx)
}

// AppendSession records one finished session of the given length in seconds.
func (r *Repository) AppendSession(ctx context.Context, id string, seconds int) error {
	if seconds < 0 {
		return errors.NewValidationError("session", "length cannot be negative (%d)", seconds)
	}
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", errors.ErrHabitNotFound, id)
	}
	r.habits[i].Sessions = append(r.habits[i].Sessions, seconds)
	logger.Debug("Recorded session", "id", id, "seconds", seconds)
	return r.Save(ctx)
}

func dedupeDays(days []models.Weekday) []models.Weekday {
	seen := make(map[models.Weekday]bool, len(days))
	out := make([]models.Weekday, 0, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
