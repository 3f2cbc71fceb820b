package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Scheduled()
	m.Scheduled()
	m.ScheduleFailed()
	m.Dispatched(ResultSent)
	m.Dispatched(ResultSent)
	m.Dispatched(ResultFailed)
	m.SessionRecorded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsScheduled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsScheduleFailure))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsDispatched.WithLabelValues(ResultSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDispatched.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsRecorded))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Scheduled()
		m.ScheduleFailed()
		m.Dispatched(ResultSent)
		m.SessionRecorded()
		m.ObserveDispatch(time.Second)
	})
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.Scheduled()
	m.ObserveDispatch(20 * time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "habitual_notifications_scheduled_total 1")
	assert.Contains(t, body, "habitual_dispatch_duration_seconds_count 1")
	assert.True(t, strings.Contains(body, "go_goroutines"), "runtime collectors are registered")
}
