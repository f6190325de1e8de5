package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

type fakeDB struct {
	pingErr error
	txErr   error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(&gorm.DB{})
}

type deadLetter struct {
	row      models.OutboxEvent
	reason   enums.OutboxDLQErrorReason
	attempts int
	cause    error
}

type fakeQueue struct {
	rows      []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	dead      []deadLetter
	backlog   int64
	claimErr  error
}

func (q *fakeQueue) Claim(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if q.claimErr != nil {
		return nil, q.claimErr
	}
	n := min(limit, len(q.rows))
	out := q.rows[:n]
	q.rows = q.rows[n:]
	return out, nil
}

func (q *fakeQueue) Published(_ *gorm.DB, id uuid.UUID) error {
	q.published = append(q.published, id)
	return nil
}

func (q *fakeQueue) Failed(_ *gorm.DB, id uuid.UUID, _ error) error {
	q.failed = append(q.failed, id)
	return nil
}

func (q *fakeQueue) DeadLetter(_ *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, attempts int) error {
	q.dead = append(q.dead, deadLetter{row: row, reason: reason, attempts: attempts, cause: cause})
	return nil
}

func (q *fakeQueue) Backlog(context.Context) (int64, error) { return q.backlog, nil }

type sent struct {
	topic string
	msg   *gcppubsub.Message
}

type fakeSink struct {
	mu      sync.Mutex
	sent    []sent
	err     error
	pingErr error
}

func (s *fakeSink) Ping(context.Context) error { return s.pingErr }

func (s *fakeSink) Send(_ context.Context, topic string, msg *gcppubsub.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, sent{topic: topic, msg: msg})
	return "msg-1", nil
}

type countingMetrics struct {
	outcomes map[string]int
	backlog  int64
}

func (m *countingMetrics) Settled(_, outcome string) {
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

func (m *countingMetrics) ObserveSend(string, time.Duration) {}
func (m *countingMetrics) SetBacklog(n int64)                { m.backlog = n }

func testCatalog(t *testing.T) *registry.Catalog {
	t.Helper()
	c, err := registry.NewCatalog(config.PubSubConfig{OrdersTopic: "orders", ReturnsTopic: "returns", InventoryTopic: "inventory"})
	require.NoError(t, err)
	return c
}

func orderRow(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	orderID := uuid.New()
	data, err := json.Marshal(payloads.OrderPlacedEvent{OrderID: orderID, Status: enums.OrderStatusPending})
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.Envelope{Version: 1, EventID: uuid.NewString(), OccurredAt: time.Now().UTC(), Data: data})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID: uuid.New(),
		OutboxSubject: models.OutboxSubject{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
		},
		Payload:      payload,
		AttemptCount: attempts,
		CreatedAt:    time.Now().UTC(),
	}
}

func newTestRelay(t *testing.T, q *fakeQueue, sink *fakeSink, m *countingMetrics, classify func(error) bool) *Relay {
	t.Helper()
	r, err := NewRelay(RelayParams{
		Outbox:   config.OutboxConfig{BatchSize: 10, PollIntervalMS: 1, MaxAttempts: 3},
		Logger:   logger.New(logger.Options{ServiceName: "relay-test", Level: logger.ParseLevel("error")}),
		DB:       &fakeDB{},
		Queue:    q,
		Catalog:  testCatalog(t),
		Sink:     sink,
		Metrics:  m,
		Classify: classify,
	})
	require.NoError(t, err)
	return r
}

func TestDrainPublishesWithAttributes(t *testing.T) {
	row := orderRow(t, 0)
	q := &fakeQueue{rows: []models.OutboxEvent{row}}
	sink := &fakeSink{}
	m := &countingMetrics{}

	n, err := newTestRelay(t, q, sink, m, nil).drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []uuid.UUID{row.ID}, q.published)
	require.Len(t, sink.sent, 1)
	require.Equal(t, "orders", sink.sent[0].topic)

	attrs := sink.sent[0].msg.Attributes
	require.Equal(t, string(enums.EventOrderPlaced), attrs["event_type"])
	require.Equal(t, string(enums.AggregateOrder), attrs["aggregate_type"])
	require.Equal(t, row.AggregateID.String(), attrs["aggregate_id"])
	require.NotEmpty(t, attrs["event_id"])
	require.NotEmpty(t, attrs["created_at"])
	require.JSONEq(t, string(row.Payload), string(sink.sent[0].msg.Data))
	require.Equal(t, 1, m.outcomes[metrics.OutcomePublished])
}

func TestDrainRetriesTransientFailure(t *testing.T) {
	row := orderRow(t, 0)
	q := &fakeQueue{rows: []models.OutboxEvent{row}}
	m := &countingMetrics{}

	_, err := newTestRelay(t, q, &fakeSink{err: errors.New("unavailable")}, m, nil).drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{row.ID}, q.failed)
	require.Empty(t, q.dead)
	require.Equal(t, 1, m.outcomes[metrics.OutcomeRetry])
}

func TestDrainDeadLettersOnLastAttempt(t *testing.T) {
	row := orderRow(t, 2)
	q := &fakeQueue{rows: []models.OutboxEvent{row}}
	m := &countingMetrics{}

	_, err := newTestRelay(t, q, &fakeSink{err: errors.New("unavailable")}, m, nil).drain(context.Background())
	require.NoError(t, err)
	require.Empty(t, q.failed)
	require.Len(t, q.dead, 1)
	require.Equal(t, enums.OutboxDLQReasonMaxAttempts, q.dead[0].reason)
	require.Equal(t, 3, q.dead[0].attempts)
	require.ErrorContains(t, q.dead[0].cause, "unavailable")
	require.Equal(t, 1, m.outcomes[string(enums.OutboxDLQReasonMaxAttempts)])
}

func TestDrainDeadLettersUndecodableRow(t *testing.T) {
	row := orderRow(t, 0)
	row.AggregateType = enums.AggregateReturn
	q := &fakeQueue{rows: []models.OutboxEvent{row}}
	sink := &fakeSink{}

	_, err := newTestRelay(t, q, sink, &countingMetrics{}, nil).drain(context.Background())
	require.NoError(t, err)
	require.Empty(t, sink.sent)
	require.Len(t, q.dead, 1)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, q.dead[0].reason)
	require.Equal(t, 1, q.dead[0].attempts)
}

func TestDrainHonoursSinkClassifier(t *testing.T) {
	gone := errors.New("topic deleted")
	q := &fakeQueue{rows: []models.OutboxEvent{orderRow(t, 0)}}

	_, err := newTestRelay(t, q, &fakeSink{err: gone}, &countingMetrics{}, func(err error) bool {
		return errors.Is(err, gone)
	}).drain(context.Background())
	require.NoError(t, err)
	require.Len(t, q.dead, 1)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, q.dead[0].reason)
}

func TestDrainSurfacesClaimErrors(t *testing.T) {
	q := &fakeQueue{claimErr: errors.New("db down")}
	_, err := newTestRelay(t, q, &fakeSink{}, &countingMetrics{}, nil).drain(context.Background())
	require.ErrorContains(t, err, "db down")
}

func TestRunStopsWhenDependencyIsDown(t *testing.T) {
	r := newTestRelay(t, &fakeQueue{}, &fakeSink{pingErr: errors.New("no topic")}, &countingMetrics{}, nil)
	require.ErrorContains(t, r.Run(context.Background()), "pubsub not ready")
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	q := &fakeQueue{rows: []models.OutboxEvent{orderRow(t, 0), orderRow(t, 0)}, backlog: 0}
	sink := &fakeSink{}
	m := &countingMetrics{backlog: -1}
	r := newTestRelay(t, q, sink, m, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.Run(ctx), context.DeadlineExceeded)
	require.Len(t, q.published, 2)
	require.Zero(t, m.backlog)
}

func TestNewRelayRequiresDependencies(t *testing.T) {
	_, err := NewRelay(RelayParams{Logger: logger.New(logger.Options{ServiceName: "t"})})
	require.ErrorContains(t, err, "database")
}

func TestBackoffDoublesAndResets(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 400*time.Millisecond)
	within := func(d, base time.Duration) bool { return d >= base && d < base+base/jitterFraction+1 }

	require.True(t, within(b.Next(), 100*time.Millisecond))
	require.True(t, within(b.Next(), 200*time.Millisecond))
	require.True(t, within(b.Next(), 400*time.Millisecond))
	require.True(t, within(b.Next(), 400*time.Millisecond))
	b.Reset()
	require.True(t, within(b.Next(), 100*time.Millisecond))
	require.Zero(t, jitter(0))
}
