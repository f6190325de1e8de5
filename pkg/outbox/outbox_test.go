package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func openStore(t *testing.T) (*gorm.DB, *Store) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:outbox_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return conn, NewStore(conn)
}

func queued(t *testing.T, conn *gorm.DB, store *Store, n int) []models.OutboxEvent {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < n; i++ {
		require.NoError(t, store.Append(conn, &models.OutboxEvent{
			OutboxSubject: models.OutboxSubject{
				EventType:     enums.EventOrderPlaced,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
			},
			Payload:   json.RawMessage(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	rows, err := store.Claim(conn, n, 0)
	require.NoError(t, err)
	require.Len(t, rows, n)
	return rows
}

func TestWriterEmitsEnvelope(t *testing.T) {
	conn, store := openStore(t)
	w := NewWriter(store, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return w.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: uuid.New(), Role: "EMPLOYEE"},
			Data:          map[string]string{"order_id": orderID.String()},
		})
	})
	require.NoError(t, err)

	rows, err := store.Claim(conn, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, orderID, rows[0].AggregateID)
	require.True(t, rows[0].Pending())

	var env Envelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	require.Equal(t, envelopeVersion, env.Version)
	require.True(t, env.OccurredAt.Equal(fixed))
	require.NotEmpty(t, env.EventID)
	require.Equal(t, "EMPLOYEE", env.Actor.Role)
	require.JSONEq(t, `{"order_id":"`+orderID.String()+`"}`, string(env.Data))
}

func TestWriterRollsBackWithCaller(t *testing.T) {
	conn, store := openStore(t)
	w := NewWriter(store, nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, w.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateReturn,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		}))
		return errors.New("abort")
	})
	require.Error(t, err)

	n, err := store.Backlog(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestWriterRejectsBadEvents(t *testing.T) {
	conn, store := openStore(t)
	w := NewWriter(store, nil)

	require.ErrorIs(t, w.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPlaced}), errNoTx)
	require.ErrorContains(t, w.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.OutboxEventType("bogus"),
		AggregateType: enums.AggregateOrder,
	}), "unknown event type")
	require.ErrorContains(t, w.Emit(context.Background(), conn, DomainEvent{
		EventType: enums.EventOrderPlaced,
	}), "unknown aggregate type")
}

func TestClaimOrdersOldestFirstAndHonoursAttempts(t *testing.T) {
	conn, store := openStore(t)
	rows := queued(t, conn, store, 3)
	require.True(t, rows[0].CreatedAt.Before(rows[1].CreatedAt))

	require.NoError(t, store.Published(conn, rows[0].ID))
	require.NoError(t, store.Failed(conn, rows[1].ID, errors.New("pubsub down")))

	pending, err := store.Claim(conn, 10, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, rows[1].ID, pending[0].ID)
	require.Equal(t, 1, pending[0].AttemptCount)
	require.Equal(t, "pubsub down", *pending[0].LastError)

	require.NoError(t, store.Failed(conn, rows[1].ID, errors.New("pubsub down")))
	pending, err = store.Claim(conn, 10, 2)
	require.NoError(t, err)
	require.Len(t, pending, 1, "rows out of attempts are no longer claimed")
	require.Equal(t, rows[2].ID, pending[0].ID)
}

func TestDeadLetterMovesRowAndClipsError(t *testing.T) {
	conn, store := openStore(t)
	row := queued(t, conn, store, 1)[0]
	long := strings.Repeat("x", maxErrorText+50)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return store.DeadLetter(tx, row, enums.OutboxDLQReasonNonRetryable, errors.New(long), 4)
	}))

	entry, err := store.DeadLetterFor(context.Background(), row.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	require.Equal(t, row.AggregateID, entry.AggregateID)
	require.Equal(t, 4, entry.AttemptCount)
	require.Len(t, *entry.ErrorMessage, maxErrorText)
	require.False(t, entry.FailedAt.IsZero())

	n, err := store.Backlog(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	missing, err := store.DeadLetterFor(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestActorFromContextWithoutIdentity(t *testing.T) {
	require.Nil(t, ActorFromContext(context.Background()))
}

func TestOpenEnvelopeRejectsMissingData(t *testing.T) {
	_, err := OpenEnvelope([]byte(`{"version":1,"eventId":"e-1","data":null}`))
	require.ErrorIs(t, err, errEmptyData)

	_, err = OpenEnvelope([]byte(`{not json`))
	require.Error(t, err)

	env, err := OpenEnvelope([]byte(`{"version":1,"eventId":"e-2","data":{"orderId":"x"}}`))
	require.NoError(t, err)
	require.Equal(t, "e-2", env.EventID)
}
