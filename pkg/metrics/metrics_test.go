package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample finds the series of family name carrying label=value.
func sample(t *testing.T, reg *prometheus.Registry, name, label, value string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" {
				return m
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m
				}
			}
		}
	}
	t.Fatalf("no sample %s{%s=%q}", name, label, value)
	return nil
}

func TestPlacementMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlacementMetrics(reg)
	m.Observe("pos", "ok", 250*time.Millisecond)
	m.Observe("pos", "INSUFFICIENT_STOCK", 10*time.Millisecond)
	m.AddUnits("pos", 3)
	m.AddUnits("pos", 0)

	assert.Equal(t, 1.0, sample(t, reg, "storefront_order_placements_total", "outcome", "ok").GetCounter().GetValue())
	assert.Equal(t, 1.0, sample(t, reg, "storefront_order_placements_total", "outcome", "INSUFFICIENT_STOCK").GetCounter().GetValue())
	assert.Equal(t, 3.0, sample(t, reg, "storefront_inventory_units_decremented_total", "channel", "pos").GetCounter().GetValue())
	assert.InDelta(t, 0.26, sample(t, reg, "storefront_order_placement_duration_seconds", "channel", "pos").GetHistogram().GetSampleSum(), 0.001)
}

func TestOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.Settled("order_placed", OutcomePublished)
	m.Settled("order_placed", OutcomeRetry)
	m.Settled("order_placed", "max_attempts")
	m.ObserveSend("orders", 40*time.Millisecond)
	m.SetBacklog(7)

	assert.Equal(t, 1.0, sample(t, reg, "storefront_outbox_events_settled_total", "outcome", "max_attempts").GetCounter().GetValue())
	assert.Equal(t, uint64(1), sample(t, reg, "storefront_outbox_send_duration_seconds", "topic", "orders").GetHistogram().GetSampleCount())
	assert.Equal(t, 7.0, sample(t, reg, "storefront_outbox_backlog", "", "").GetGauge().GetValue())
}

func TestHTTPMetricsAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/v1/orders/{orderId}", http.MethodGet, http.StatusNotFound, 12*time.Millisecond)

	got := sample(t, reg, "storefront_http_requests_total", "status", "404")
	assert.Equal(t, 1.0, got.GetCounter().GetValue())

	resp := httptest.NewRecorder()
	Handler(reg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "storefront_http_request_duration_ms")
}

func TestNilRegistererIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPlacementMetrics(nil).Observe("online", "ok", time.Second)
		NewOutboxMetrics(nil).Settled("order_placed", OutcomePublished)
		NewHTTPMetrics(nil).Observe("/health", "GET", 200, time.Millisecond)

		var outbox *OutboxMetrics
		outbox.SetBacklog(3)
		var placement *PlacementMetrics
		placement.AddUnits("online", 2)
	})
}
