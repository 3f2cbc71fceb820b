package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type DoctorCmd struct{}

type checkLevel int

const (
	levelFail checkLevel = iota
	levelWarn
)

type check struct {
	name       string
	level      checkLevel
	needsStore bool
	run        func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Schema version", level: levelFail, needsStore: true, run: checkSchemaVersion},
	{name: "Habit data", level: levelFail, needsStore: true, run: checkHabits},
	{name: "Reminders", level: levelFail, needsStore: true, run: checkReminders},
	{name: "Notification permission", level: levelWarn, needsStore: true, run: checkPermission},
	{name: "Timezone", level: levelFail, run: checkTimezone},
	{name: "Tray app", level: levelWarn, run: checkTray},
	{name: "OS keyring", level: levelWarn, run: checkKeyring},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	storeReachable := true
	if err := checkStoreReachable(ctx); err != nil {
		ctx.Printf("❌ Store reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		storeReachable = false
	} else {
		ctx.Printf("✓ Store reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsStore && !storeReachable {
			ctx.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.level == levelWarn:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Some checks failed.")
		return errors.New("diagnostics failed")
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Open(ctx.Ctx); err != nil {
		return err
	}
	return ctx.Store.Ping(ctx.Ctx)
}

func checkSchemaVersion(ctx *cli.Context) error {
	sqlStore, ok := ctx.Store.(*kv.SQLStore)
	if !ok {
		return nil
	}
	current, latest, err := sqlStore.SchemaVersion()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("schema version %d, expected %d", current, latest)
	}
	return nil
}

func checkHabits(ctx *cli.Context) error {
	if err := ctx.Repo.Load(ctx.Ctx); err != nil {
		return err
	}
	result := validation.ValidateHabits(ctx.Repo.List())
	if result.HasConflicts() {
		return errors.New(result.FormatReport())
	}
	return nil
}

func checkReminders(ctx *cli.Context) error {
	scheduled, err := ctx.Notifications.ListScheduled(ctx.Ctx)
	if err != nil {
		return err
	}
	result := validation.ValidateNotifications(ctx.Repo.List(), scheduled)
	if result.HasConflicts() {
		return errors.New(result.FormatReport())
	}
	return nil
}

func checkPermission(ctx *cli.Context) error {
	perm, err := ctx.Notifications.Permission(ctx.Ctx)
	if err != nil {
		return err
	}
	if perm != models.PermissionGranted {
		return fmt.Errorf("permission is %s, reminders will not be scheduled", perm)
	}
	return nil
}

func checkTimezone(ctx *cli.Context) error {
	if !utils.ValidateTimezone(ctx.Config.Timezone) {
		return fmt.Errorf("invalid timezone %q", ctx.Config.Timezone)
	}
	return nil
}

func checkTray(*cli.Context) error {
	return notifier.CheckTray()
}

func checkKeyring(*cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}
