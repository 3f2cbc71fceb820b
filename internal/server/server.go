// Package server exposes health, metrics and upcoming reminders while the
// dispatcher daemon runs.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
)

// UpcomingLister returns scheduled reminders, soonest first.
type UpcomingLister interface {
	Upcoming(ctx context.Context) ([]models.Notification, error)
}

type Server struct {
	echo         *echo.Echo
	registry     *prometheus.Registry
	upcoming     UpcomingLister
	healthChecks []HealthCheck
	startTime    time.Time
}

func New(registry *prometheus.Registry, upcoming UpcomingLister, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		registry:     registry,
		upcoming:     upcoming,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	s.echo.GET("/notifications", s.handleUpcoming)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	logger.Info("Starting server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

type upcomingItem struct {
	ID      string    `json:"id"`
	HabitID string    `json:"habitId"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	At      time.Time `json:"at"`
	Repeats bool      `json:"repeats"`
}

func (s *Server) handleUpcoming(c echo.Context) error {
	list, err := s.upcoming.Upcoming(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list notifications", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
	}

	items := make([]upcomingItem, 0, len(list))
	for _, n := range list {
		items = append(items, upcomingItem{
			ID:      n.ID,
			HabitID: n.Payload.HabitID,
			Title:   n.Content.Title,
			Body:    n.Content.Body,
			At:      n.Trigger.Date,
			Repeats: n.Trigger.Repeats,
		})
	}
	if err := c.JSON(http.StatusOK, items); err != nil {
		return fmt.Errorf("failed to write notifications response: %w", err)
	}
	return nil
}
