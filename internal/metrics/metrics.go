package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quiztaker"

// Metrics holds the Prometheus collectors for the engine and the reference API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted  prometheus.Counter
	SessionsResumed  prometheus.Counter
	ActiveSessions   prometheus.Gauge
	Submissions      *prometheus.CounterVec
	SnapshotWrites   *prometheus.CounterVec
	TimerCheckpoints prometheus.Counter
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New registers collectors on a private registry so several instances can coexist.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Quiz sessions started from a fresh fetch",
		}),
		SessionsResumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "resumed_total",
			Help:      "Quiz sessions restored from a scratch snapshot",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently in the active phase",
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "submissions_total",
			Help:      "Submissions by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		SnapshotWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scratch",
			Name:      "writes_total",
			Help:      "Snapshot persists by outcome",
		}, []string{"outcome"}),
		TimerCheckpoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "checkpoints_total",
			Help:      "Periodic crash-recovery checkpoints written by the countdown",
		}),
		RequestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Reference API requests",
		}, []string{"route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Reference API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionResumed() {
	if m == nil {
		return
	}
	m.SessionsResumed.Inc()
	m.ActiveSessions.Inc()
}

// SessionEnded is called when a session leaves the active phase for good.
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) Submission(trigger, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(trigger, outcome).Inc()
}

func (m *Metrics) SnapshotWrite(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SnapshotWrites.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Checkpoint() {
	if m == nil {
		return
	}
	m.TimerCheckpoints.Inc()
}

func (m *Metrics) ObserveRequest(route, status string, started time.Time) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}
