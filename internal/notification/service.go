// Package notification implements the local scheduled-notification service
// and the dispatcher that delivers due notifications.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// Request describes a notification to schedule.
type Request struct {
	Content models.Content
	Payload models.Payload
	Trigger models.Trigger
}

// Service is the notification platform the scheduler talks to.
type Service interface {
	RequestPermission(ctx context.Context) (bool, error)
	Schedule(ctx context.Context, req Request) (string, error)
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	ListScheduled(ctx context.Context) ([]models.Notification, error)
}

// Prompter asks the user whether reminders may be shown.
type Prompter func(ctx context.Context) (bool, error)

// LocalService keeps scheduled notifications in a kv.Store. Every call
// reads the stored list so separate processes sharing a store see each
// other's changes.
type LocalService struct {
	mu     sync.Mutex
	store  kv.Store
	clock  clockwork.Clock
	prompt Prompter
	newID  func() (string, error)
}

type Option func(*LocalService)

func WithClock(c clockwork.Clock) Option {
	return func(s *LocalService) { s.clock = c }
}

func WithPrompter(p Prompter) Option {
	return func(s *LocalService) { s.prompt = p }
}

func NewLocalService(store kv.Store, opts ...Option) *LocalService {
	s := &LocalService{
		store: store,
		clock: clockwork.NewRealClock(),
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Permission returns the stored permission state.
func (s *LocalService) Permission(ctx context.Context) (models.Permission, error) {
	raw, found, err := s.store.Get(ctx, constants.PermissionKey)
	if err != nil {
		return "", &errors.StorageError{Op: "read", Err: err}
	}
	if !found {
		return models.PermissionUndetermined, nil
	}
	switch p := models.Permission(strings.TrimSpace(raw)); p {
	case models.PermissionGranted, models.PermissionDenied:
		return p, nil
	default:
		return models.PermissionUndetermined, nil
	}
}

// SetPermission stores an explicit answer, bypassing the prompt.
func (s *LocalService) SetPermission(ctx context.Context, p models.Permission) error {
	if err := s.store.Set(ctx, constants.PermissionKey, string(p)); err != nil {
		return &errors.StorageError{Op: "write", Err: err}
	}
	logger.Info("Notification permission updated", "permission", p)
	return nil
}

// RequestPermission returns true when reminders are allowed. An undetermined
// state asks the prompter once and stores the answer. Without a prompter the
// state stays undetermined and the request is refused.
func (s *LocalService) RequestPermission(ctx context.Context) (bool, error) {
	current, err := s.Permission(ctx)
	if err != nil {
		return false, err
	}
	switch current {
	case models.PermissionGranted:
		return true, nil
	case models.PermissionDenied:
		return false, nil
	}

	if s.prompt == nil {
		logger.Debug("No permission prompter configured")
		return false, nil
	}
	granted, err := s.prompt(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to ask for notification permission: %w", err)
	}
	answer := models.PermissionDenied
	if granted {
		answer = models.PermissionGranted
	}
	if err := s.SetPermission(ctx, answer); err != nil {
		return granted, err
	}
	return granted, nil
}

func (s *LocalService) load(ctx context.Context) ([]models.Notification, error) {
	raw, found, err := s.store.Get(ctx, constants.NotificationsKey)
	if err != nil {
		return nil, &errors.StorageError{Op: "read", Err: err}
	}
	if !found || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var list []models.Notification
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, &errors.StorageError{Op: "decode", Err: err}
	}
	return list, nil
}

func (s *LocalService) save(ctx context.Context, list []models.Notification) error {
	if list == nil {
		list = []models.Notification{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return &errors.StorageError{Op: "encode", Err: err}
	}
	if err := s.store.Set(ctx, constants.NotificationsKey, string(data)); err != nil {
		return &errors.StorageError{Op: "write", Err: err}
	}
	return nil
}

// Schedule stores a notification and returns its id.
func (s *LocalService) Schedule(ctx context.Context, req Request) (string, error) {
	if req.Trigger.Date.IsZero() {
		return "", errors.NewValidationError("trigger", "date is required")
	}
	if req.Trigger.Repeats && req.Trigger.Interval <= 0 {
		return "", errors.NewValidationError("trigger", "repeating trigger needs a positive interval")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("failed to generate notification id: %w", err)
	}
	list = append(list, models.Notification{
		ID:        id,
		Content:   req.Content,
		Payload:   req.Payload,
		Trigger:   req.Trigger,
		CreatedAt: s.clock.Now(),
	})
	if err := s.save(ctx, list); err != nil {
		return "", err
	}
	logger.Debug("Scheduled notification", "id", id, "habit", req.Payload.HabitID, "at", req.Trigger.Date.Format(time.RFC3339))
	return id, nil
}

// Cancel removes one notification.
func (s *LocalService) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i, n := range list {
		if n.ID == id {
			list = append(list[:i:i], list[i+1:]...)
			return s.save(ctx, list)
		}
	}
	return fmt.Errorf("%w: %s", errors.ErrNotificationNotFound, id)
}

// CancelAll removes every scheduled notification.
func (s *LocalService) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Info("Cancelling all scheduled notifications")
	return s.save(ctx, nil)
}

// ListScheduled returns the stored notifications in scheduling order.
func (s *LocalService) ListScheduled(ctx context.Context) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// update applies fn to the stored list under the lock and saves the result.
func (s *LocalService) update(ctx context.Context, fn func([]models.Notification) []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, fn(list))
}
