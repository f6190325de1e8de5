// Package registry maps outbox event types to their topic and payload schema
// and decodes queued rows before they are sent.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// Route binds an event type to the aggregate it belongs to and the topic it
// is published on.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

func route[T any](event enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) Route {
	return Route{
		EventType:     event,
		AggregateType: aggregate,
		Topic:         topic,
		decode: func(raw json.RawMessage) (any, error) {
			v := new(T)
			if err := json.Unmarshal(raw, v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// Resolved is a queued row that passed every check and is ready to send.
type Resolved struct {
	Route
	Envelope outbox.Envelope
	Payload  any
}

// Catalog knows every event type the relay may publish.
type Catalog struct {
	routes map[enums.OutboxEventType]Route
}

// NewCatalog builds the catalog from the configured topic names.
func NewCatalog(cfg config.PubSubConfig) (*Catalog, error) {
	for name, topic := range map[string]string{
		"orders":    cfg.OrdersTopic,
		"returns":   cfg.ReturnsTopic,
		"inventory": cfg.InventoryTopic,
	} {
		if topic == "" {
			return nil, fmt.Errorf("registry: %s topic is required", name)
		}
	}

	c := &Catalog{routes: map[enums.OutboxEventType]Route{}}
	for _, r := range []Route{
		route[payloads.OrderPlacedEvent](enums.EventOrderPlaced, enums.AggregateOrder, cfg.OrdersTopic),
		route[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder, cfg.OrdersTopic),
		route[payloads.OrderPaymentOverriddenEvent](enums.EventOrderPaymentOverridden, enums.AggregateOrder, cfg.OrdersTopic),
		route[payloads.ReturnRequestedEvent](enums.EventReturnRequested, enums.AggregateReturn, cfg.ReturnsTopic),
		route[payloads.ReturnStatusChangedEvent](enums.EventReturnStatusChanged, enums.AggregateReturn, cfg.ReturnsTopic),
		route[payloads.InventoryAdjustedEvent](enums.EventInventoryAdjusted, enums.AggregateInventory, cfg.InventoryTopic),
	} {
		c.routes[r.EventType] = r
	}
	return c, nil
}

// Topics lists the distinct topics in sorted order.
func (c *Catalog) Topics() []string {
	var topics []string
	for _, r := range c.routes {
		topics = append(topics, r.Topic)
	}
	slices.Sort(topics)
	return slices.Compact(topics)
}

// Resolve checks row against its route and decodes the typed payload. Every
// failure is permanent: retrying the same bytes cannot succeed.
func (c *Catalog) Resolve(row models.OutboxEvent) (*Resolved, error) {
	r, ok := c.routes[row.EventType]
	switch {
	case !ok:
		return nil, Permanent(fmt.Errorf("unsupported event type %s", row.EventType))
	case r.AggregateType != row.AggregateType:
		return nil, Permanent(fmt.Errorf("event %s belongs to %s, row says %s", row.EventType, r.AggregateType, row.AggregateType))
	case row.AggregateID == uuid.Nil:
		return nil, Permanent(errors.New("missing aggregate_id"))
	}

	env, err := outbox.OpenEnvelope(row.Payload)
	if err != nil {
		return nil, Permanent(fmt.Errorf("%s: %w", row.EventType, err))
	}
	payload, err := r.decode(env.Data)
	if err != nil {
		return nil, Permanent(fmt.Errorf("decode %s data: %w", row.EventType, err))
	}
	return &Resolved{Route: r, Envelope: env, Payload: payload}, nil
}
