package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides observability for message handling.
type Metrics struct {
	Messages        *prometheus.CounterVec
	MessageLatency  *prometheus.HistogramVec
	GroupsDropped   prometheus.Counter
	SyncFailures    prometheus.Counter
	DuplicateClaims prometheus.Counter
}

// New creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simtax_messages_total",
			Help: "StUF messages handled by operation and response status",
		}, []string{"operation", "status"}),

		MessageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simtax_message_duration_seconds",
			Help:    "Duration of message handling including external calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),

		GroupsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simtax_grievance_groups_dropped_total",
			Help: "Grievance groups discarded because they carried no grievance kind or had no owner",
		}),

		SyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simtax_sync_trigger_failures_total",
			Help: "Failed requests to synchronize a citizen's assessments",
		}),

		DuplicateClaims: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simtax_duplicate_objections_total",
			Help: "Objections rejected because one already exists for the assessment",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Messages, m.MessageLatency, m.GroupsDropped, m.SyncFailures, m.DuplicateClaims)
	}
	return m
}

// ObserveMessage records the outcome and latency of one handled message.
func (m *Metrics) ObserveMessage(operation string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(operation, statusClass(status)).Inc()
	m.MessageLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// AddGroupsDropped counts discarded grievance groups.
func (m *Metrics) AddGroupsDropped(n int) {
	if m != nil && n > 0 {
		m.GroupsDropped.Add(float64(n))
	}
}

// IncrementSyncFailures counts a failed sync trigger.
func (m *Metrics) IncrementSyncFailures() {
	if m != nil {
		m.SyncFailures.Inc()
	}
}

// IncrementDuplicates counts a rejected duplicate objection.
func (m *Metrics) IncrementDuplicates() {
	if m != nil {
		m.DuplicateClaims.Inc()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
