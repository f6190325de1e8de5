package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Relay outcomes. Dead-lettered events are labelled with their DLQ reason.
const (
	OutcomePublished = "published"
	OutcomeRetry     = "retry"
)

// OutboxMetrics tracks the outbox relay.
type OutboxMetrics struct {
	settled *prometheus.CounterVec
	send    *prometheus.HistogramVec
	backlog prometheus.Gauge
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_settled_total",
			Help:      "Outbox rows handled by the relay, by outcome.",
		}, []string{"event_type", "outcome"}),
		send: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_send_duration_seconds",
			Help:      "Time from publish to server acknowledgement.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
		}, []string{"topic"}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_backlog",
			Help:      "Outbox rows not yet published or dead-lettered.",
		}),
	}
	reg.MustRegister(m.settled, m.send, m.backlog)
	return m
}

// Settled counts one row leaving a relay pass with the given outcome.
func (m *OutboxMetrics) Settled(eventType, outcome string) {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *OutboxMetrics) ObserveSend(topic string, elapsed time.Duration) {
	if m == nil || m.send == nil {
		return
	}
	m.send.WithLabelValues(normalizeLabel(topic)).Observe(elapsed.Seconds())
}

func (m *OutboxMetrics) SetBacklog(n int64) {
	if m == nil || m.backlog == nil {
		return
	}
	m.backlog.Set(float64(n))
}
