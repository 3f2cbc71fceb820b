package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/kv"
)

type InitCmd struct {
	Force bool `help:"Reset storage, deleting every habit and reminder."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	location := ctx.Store.Location()
	fileBacked := !kv.IsMemory(location) && !kv.IsPostgres(location) && !kv.IsRedis(location)

	if c.Force && fileBacked {
		if _, err := os.Stat(location); err == nil {
			// Close first to release the file handle
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(location); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", location)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(ctx.Ctx); err != nil {
		return err
	}

	if c.Force && !fileBacked {
		if err := ctx.Store.Set(ctx.Ctx, constants.HabitsKey, "[]"); err != nil {
			return err
		}
		if err := ctx.Notifications.CancelAll(ctx.Ctx); err != nil {
			return err
		}
		ctx.Println("Cleared existing habits and reminders")
	}

	if err := ctx.Repo.Load(ctx.Ctx); err != nil {
		return err
	}
	ctx.Printf("Initialized habitual storage at: %s\n", displayLocation(location))
	if n := len(ctx.Repo.List()); n > 0 {
		ctx.Printf("Found %d existing habit(s)\n", n)
	}
	return nil
}

// displayLocation hides passwords of connection strings.
func displayLocation(location string) string {
	if kv.IsPostgres(location) || kv.IsRedis(location) {
		return maskPassword(location)
	}
	return location
}
