package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(config.PubSubConfig{
		OrdersTopic:    "orders-topic",
		ReturnsTopic:   "returns-topic",
		InventoryTopic: "inventory-topic",
	})
	require.NoError(t, err)
	return c
}

func row(t *testing.T, event enums.OutboxEventType, aggregate enums.OutboxAggregateType, id uuid.UUID, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		OutboxSubject: models.OutboxSubject{EventType: event, AggregateType: aggregate, AggregateID: id},
		Payload:       payload,
	}
}

func TestResolveDecodesTypedPayload(t *testing.T) {
	orderID := uuid.New()
	resolved, err := testCatalog(t).Resolve(row(t, enums.EventOrderPlaced, enums.AggregateOrder, orderID, payloads.OrderPlacedEvent{
		OrderID:     orderID,
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("40.00"),
	}))
	require.NoError(t, err)
	require.Equal(t, "orders-topic", resolved.Topic)
	require.NotEmpty(t, resolved.Envelope.EventID)

	payload, ok := resolved.Payload.(*payloads.OrderPlacedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	require.Equal(t, orderID, payload.OrderID)
	require.True(t, payload.TotalAmount.Equal(decimal.NewFromInt(40)))
}

func TestResolveRoutesByAggregate(t *testing.T) {
	c := testCatalog(t)

	resolved, err := c.Resolve(row(t, enums.EventReturnRequested, enums.AggregateReturn, uuid.New(), payloads.ReturnRequestedEvent{Reason: "too small"}))
	require.NoError(t, err)
	require.Equal(t, "returns-topic", resolved.Topic)

	resolved, err = c.Resolve(row(t, enums.EventInventoryAdjusted, enums.AggregateInventory, uuid.New(), payloads.InventoryAdjustedEvent{}))
	require.NoError(t, err)
	require.Equal(t, "inventory-topic", resolved.Topic)

	require.Equal(t, []string{"inventory-topic", "orders-topic", "returns-topic"}, c.Topics())
}

func TestResolveFailuresArePermanent(t *testing.T) {
	c := testCatalog(t)
	garbage := row(t, enums.EventOrderPlaced, enums.AggregateOrder, uuid.New(), nil)
	garbage.Payload = json.RawMessage(`not-json`)

	cases := map[string]models.OutboxEvent{
		"unknown type":       row(t, enums.OutboxEventType("coupon_redeemed"), enums.AggregateOrder, uuid.New(), map[string]string{"a": "b"}),
		"aggregate mismatch": row(t, enums.EventOrderPlaced, enums.AggregateReturn, uuid.New(), payloads.OrderPlacedEvent{}),
		"missing aggregate":  row(t, enums.EventOrderPlaced, enums.AggregateOrder, uuid.Nil, payloads.OrderPlacedEvent{}),
		"null data":          row(t, enums.EventOrderPlaced, enums.AggregateOrder, uuid.New(), nil),
		"wrong data shape":   row(t, enums.EventOrderPlaced, enums.AggregateOrder, uuid.New(), []int{1, 2}),
		"garbage envelope":   garbage,
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Resolve(r)
			require.Error(t, err)
			require.True(t, IsPermanent(err), "expected permanent error, got %v", err)
		})
	}
}

func TestNewCatalogRequiresEveryTopic(t *testing.T) {
	_, err := NewCatalog(config.PubSubConfig{OrdersTopic: "orders", ReturnsTopic: "returns"})
	require.ErrorContains(t, err, "inventory topic")
}

func TestPermanentSurvivesWrapping(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("send: %w", Permanent(base))
	require.True(t, IsPermanent(wrapped))
	require.ErrorIs(t, wrapped, base)
	require.False(t, IsPermanent(base))
	require.NoError(t, Permanent(nil))
}
