package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "habitual"

// Dispatch results used as the "result" label.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics holds the reminder and session counters. All methods are safe on a
// nil receiver so callers without a registry can pass nil.
type Metrics struct {
	NotificationsScheduled       prometheus.Counter
	NotificationsScheduleFailure prometheus.Counter
	NotificationsDispatched      *prometheus.CounterVec
	SessionsRecorded             prometheus.Counter
	DispatchDuration             prometheus.Histogram
}

// New creates and registers the metrics on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_scheduled_total",
			Help:      "Total number of weekly reminders scheduled.",
		}),
		NotificationsScheduleFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_schedule_failures_total",
			Help:      "Total number of weekdays that could not be scheduled.",
		}),
		NotificationsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Total number of due reminders delivered, by result.",
		}, []string{"result"}),
		SessionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_recorded_total",
			Help:      "Total number of practice sessions recorded.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of one dispatch pass in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}

	reg.MustRegister(
		m.NotificationsScheduled,
		m.NotificationsScheduleFailure,
		m.NotificationsDispatched,
		m.SessionsRecorded,
		m.DispatchDuration,
	)
	return m
}

func (m *Metrics) Scheduled() {
	if m != nil {
		m.NotificationsScheduled.Inc()
	}
}

func (m *Metrics) ScheduleFailed() {
	if m != nil {
		m.NotificationsScheduleFailure.Inc()
	}
}

func (m *Metrics) Dispatched(result string) {
	if m != nil {
		m.NotificationsDispatched.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SessionRecorded() {
	if m != nil {
		m.SessionsRecorded.Inc()
	}
}

func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m != nil {
		m.DispatchDuration.Observe(d.Seconds())
	}
}
