package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
)

type upcomingFunc func(ctx context.Context) ([]models.Notification, error)

func (f upcomingFunc) Upcoming(ctx context.Context) ([]models.Notification, error) { return f(ctx) }

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func noUpcoming(context.Context) ([]models.Notification, error) { return nil, nil }

func newTestServer(t *testing.T, upcoming upcomingFunc, checks ...HealthCheck) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	return New(reg, upcoming, checks), reg
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	srv, _ := newTestServer(t, noUpcoming)
	rec := get(t, srv, "/health/live")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"uptime"`)
}

func TestReadiness(t *testing.T) {
	srv, _ := newTestServer(t, noUpcoming, HealthCheck{Name: "store", Check: healthOK})
	rec := get(t, srv, "/health/ready")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestReadinessStoreDown(t *testing.T) {
	srv, _ := newTestServer(t, noUpcoming,
		HealthCheck{Name: "store", Check: healthErr("connection refused")},
		HealthCheck{Name: "other", Check: healthOK},
	)
	rec := get(t, srv, "/health/ready")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"failed_check":"store"`)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, reg := newTestServer(t, noUpcoming)
	m := metrics.New(reg)
	m.Dispatched(metrics.ResultSent)

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `habitual_notifications_dispatched_total{result="sent"} 1`)
}

func TestUpcomingEndpoint(t *testing.T) {
	at := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)
	srv, _ := newTestServer(t, func(context.Context) ([]models.Notification, error) {
		return []models.Notification{{
			ID:      "n1",
			Content: models.Content{Title: "Time for your habit: Read", Body: "Scheduled: Monday, 09:30"},
			Payload: models.Payload{HabitID: "h1", Day: "Monday", Time: "09:30"},
			Trigger: models.Trigger{Date: at, Repeats: true},
		}}, nil
	})

	rec := get(t, srv, "/notifications")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []upcomingItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "h1", items[0].HabitID)
	assert.True(t, items[0].At.Equal(at))
	assert.True(t, items[0].Repeats)
}

func TestUpcomingEndpointError(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context) ([]models.Notification, error) {
		return nil, errors.New("boom")
	})

	rec := get(t, srv, "/notifications")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestUpcomingEndpointEmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t, noUpcoming)
	rec := get(t, srv, "/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
