package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// PlacementMetrics records the outcome of order placement transactions.
type PlacementMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	units    *prometheus.CounterVec
}

// NewPlacementMetrics registers placement metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewPlacementMetrics(reg prometheus.Registerer) *PlacementMetrics {
	if reg == nil {
		return &PlacementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_placement_duration_seconds",
		Help:      "Duration of order placement transactions in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"channel"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_placements_total",
		Help:      "Order placements by channel and outcome code.",
	}, []string{"channel", "outcome"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_units_decremented_total",
		Help:      "Units removed from inventory by committed placements.",
	}, []string{"channel"})
	reg.MustRegister(duration, outcomes, units)
	return &PlacementMetrics{duration: duration, outcomes: outcomes, units: units}
}

// Observe records one finished placement. outcome is "ok" or an error code.
func (m *PlacementMetrics) Observe(channel, outcome string, elapsed time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	channel = normalizeLabel(channel)
	m.duration.WithLabelValues(channel).Observe(elapsed.Seconds())
	m.outcomes.WithLabelValues(channel, normalizeLabel(outcome)).Inc()
}

// AddUnits counts units decremented by a committed placement.
func (m *PlacementMetrics) AddUnits(channel string, units int) {
	if m == nil || m.units == nil || units <= 0 {
		return
	}
	m.units.WithLabelValues(normalizeLabel(channel)).Add(float64(units))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
