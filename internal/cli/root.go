package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notification"
	"github.com/julianstephens/habitual/internal/scheduler"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

// Config is the resolved global flag set.
type Config struct {
	Store    string
	Debug    bool
	Timezone string
}

// Context is handed to every command's Run method.
type Context struct {
	Ctx           context.Context
	Config        Config
	Store         kv.Store
	Repo          *storage.Repository
	Notifications *notification.LocalService
	Scheduler     *scheduler.Scheduler
	Clock         clockwork.Clock
	Location      *time.Location
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics
	Out           io.Writer
}

// Option customizes a Context built by NewContext.
type Option func(*Context, *[]notification.Option)

func WithClock(c clockwork.Clock) Option {
	return func(ctx *Context, _ *[]notification.Option) { ctx.Clock = c }
}

func WithOutput(w io.Writer) Option {
	return func(ctx *Context, _ *[]notification.Option) { ctx.Out = w }
}

// WithPrompter sets how an undetermined notification permission is asked for.
func WithPrompter(p notification.Prompter) Option {
	return func(_ *Context, opts *[]notification.Option) {
		*opts = append(*opts, notification.WithPrompter(p))
	}
}

// NewContext wires the services on top of store. The store is not opened.
func NewContext(ctx context.Context, store kv.Store, cfg Config, opts ...Option) (*Context, error) {
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Ctx:      ctx,
		Config:   cfg,
		Store:    store,
		Clock:    clockwork.NewRealClock(),
		Location: loc,
		Out:      os.Stdout,
	}
	var serviceOpts []notification.Option
	for _, opt := range opts {
		opt(c, &serviceOpts)
	}
	serviceOpts = append(serviceOpts, notification.WithClock(c.Clock))

	c.Registry = metrics.NewRegistry()
	c.Metrics = metrics.New(c.Registry)
	c.Repo = storage.NewRepository(store)
	c.Notifications = notification.NewLocalService(store, serviceOpts...)
	c.Scheduler = scheduler.New(c.Notifications, c.Clock, loc, c.Metrics)
	return c, nil
}

// Load opens the store and reads the habit list.
func (c *Context) Load() error {
	if err := c.Store.Open(c.Ctx); err != nil {
		return err
	}
	return c.Repo.Load(c.Ctx)
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Now is the current time in the configured timezone.
func (c *Context) Now() time.Time {
	return utils.NowIn(c.Clock, c.Location)
}

// FindHabit looks a habit up by name, falling back to its id.
func (c *Context) FindHabit(nameOrID string) (models.Habit, error) {
	if h, err := c.Repo.FindByName(nameOrID); err == nil {
		return h, nil
	}
	h, err := c.Repo.Get(nameOrID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("%w: %q", errors.ErrHabitNotFound, nameOrID)
	}
	return h, nil
}

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) ([]models.Weekday, error) {
	var weekdays []models.Weekday
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		wd, err := models.ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		weekdays = append(weekdays, wd)
	}
	if len(weekdays) == 0 {
		return nil, errors.NewValidationError("days", "at least one weekday is required")
	}
	return weekdays, nil
}

// ConfigDir is where logs and other local state live. SQLite stores use
// the directory of the database file.
func ConfigDir(location string) string {
	if location != "" && !kv.IsMemory(location) && !kv.IsPostgres(location) && !kv.IsRedis(location) && location != "keyring" {
		if path, err := kv.ExpandPath(location); err == nil {
			return filepath.Dir(path)
		}
	}
	path, err := kv.ExpandPath(constants.DefaultConfigPath)
	if err != nil {
		return filepath.Join(os.TempDir(), constants.AppName)
	}
	return filepath.Dir(path)
}

// ConfirmPrompter asks for notification permission on the terminal.
func ConfirmPrompter(ctx context.Context) (bool, error) {
	allow := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow habitual to send habit reminders?").
				Affirmative("Allow").
				Negative("Don't allow").
				Value(&allow),
		),
	)
	err := form.RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return allow, nil
}
