// Package metrics publishes zenjournal counters and timings through Prometheus.
// A nil *Recorder is valid and records nothing, so components can take one as
// an optional dependency.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zenjournal"

// Recorder aggregates store timings and domain counters.
type Recorder struct {
	kvDuration *prometheus.HistogramVec
	thoughts   *prometheus.CounterVec
	cycles     prometheus.Counter
	sessions   *prometheus.CounterVec
}

// NewRecorder constructs a recorder and registers its collectors with reg.
// When reg is nil the collectors are created but not registered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		kvDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kv",
			Name:      "operation_duration_seconds",
			Help:      "Duration of key-value store operations by driver, operation and status.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"driver", "op", "status"}),
		thoughts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thoughts_total",
			Help:      "Thought store mutations by operation.",
		}, []string{"op"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zen",
			Name:      "cycles_total",
			Help:      "Completed breathing cycles across all sessions.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zen",
			Name:      "sessions_total",
			Help:      "Finalized zen sessions by whether they were credited as complete.",
		}, []string{"credited"}),
	}
	if reg != nil {
		reg.MustRegister(r.kvDuration, r.thoughts, r.cycles, r.sessions)
	}
	return r
}

// Observe records a store operation outcome.
func (r *Recorder) Observe(_ context.Context, driver, operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.kvDuration.WithLabelValues(driver, operation, status).Observe(duration.Seconds())
}

// Thought counts one thought store mutation ("add", "update", "remove").
func (r *Recorder) Thought(op string) {
	if r == nil {
		return
	}
	r.thoughts.WithLabelValues(op).Inc()
}

// Cycle counts one completed breathing cycle.
func (r *Recorder) Cycle() {
	if r == nil {
		return
	}
	r.cycles.Inc()
}

// Session counts one finalized session.
func (r *Recorder) Session(credited bool) {
	if r == nil {
		return
	}
	label := "false"
	if credited {
		label = "true"
	}
	r.sessions.WithLabelValues(label).Inc()
}
