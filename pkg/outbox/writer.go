package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// DomainEvent describes a state change to record alongside the write that caused it.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("outbox: unknown event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("outbox: unknown aggregate type %q", e.AggregateType)
	}
	return nil
}

// Emitter is what domain services depend on to record events.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

// Writer turns domain events into outbox rows.
type Writer struct {
	store *Store
	logg  *logger.Logger
	now   func() time.Time
}

func NewWriter(store *Store, logg *logger.Logger) *Writer {
	return &Writer{store: store, logg: logg, now: time.Now}
}

// Emit wraps event in a Envelope and appends it through tx, so the row
// commits or rolls back with the caller's own writes.
func (w *Writer) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errNoTx
	}
	if err := event.validate(); err != nil {
		return err
	}
	env, err := w.envelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("outbox: encode envelope: %w", err)
	}
	row := &models.OutboxEvent{
		OutboxSubject: models.OutboxSubject{
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			AggregateID:   event.AggregateID,
		},
		Payload: payload,
	}
	if err := w.store.Append(tx, row); err != nil {
		return err
	}
	if w.logg != nil {
		w.logg.Debug(w.logg.WithFields(ctx, map[string]any{
			"event_id":     env.EventID,
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}

func (w *Writer) envelope(event DomainEvent) (Envelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return Envelope{}, fmt.Errorf("outbox: encode %s data: %w", event.EventType, err)
	}
	env := Envelope{
		Version:    event.Version,
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Data:       data,
	}
	if env.Version == 0 {
		env.Version = envelopeVersion
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = w.now().UTC()
	}
	return env, nil
}
