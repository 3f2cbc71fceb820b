package system

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/notification"
	"github.com/julianstephens/habitual/internal/server"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd runs the dispatcher daemon with its health and metrics endpoints.
type ServeCmd struct {
	Addr     string        `help:"Listen address for health and metrics." default:"127.0.0.1:9464" env:"HABITUAL_ADDR"`
	Interval time.Duration `help:"How often due reminders are checked." default:"30s"`
	DryRun   bool          `help:"Print notifications to stdout instead of sending them."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}

	d := notification.NewDispatcher(ctx.Notifications, newSender(ctx, c.DryRun), ctx.Clock, ctx.Location, c.Interval, ctx.Metrics)
	srv := server.New(ctx.Registry, ctx.Scheduler, []server.HealthCheck{
		{Name: "store", Check: ctx.Store.Ping},
	})

	runCtx, cancel := context.WithCancel(ctx.Ctx)
	defer cancel()

	dispatchDone := make(chan error, 1)
	go func() { dispatchDone <- d.Run(runCtx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start(c.Addr) }()

	ctx.Printf("Serving on %s, checking reminders every %s\n", c.Addr, c.Interval)

	var err error
	select {
	case <-runCtx.Done():
		logger.Info("Shutdown signal received")
	case err = <-serveErr:
		logger.Error("Server stopped", "error", err)
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("Server shutdown error", "error", shutdownErr)
	}
	<-dispatchDone
	return err
}
