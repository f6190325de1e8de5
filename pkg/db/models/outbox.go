package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OutboxSubject names what an outbox row is about. It is shared by the queue
// and the dead-letter table so a DLQ row can be built from its source row.
type OutboxSubject struct {
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
}

// OutboxEvent is a queued domain event. Rows are written in the transaction
// of the change they describe and only ever move forward: pending, then
// published or dead-lettered.
type OutboxEvent struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OutboxSubject
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount int             `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string         `gorm:"column:last_error"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	PublishedAt  *time.Time      `gorm:"column:published_at"`
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// Pending reports whether the relay still owns the row.
func (e OutboxEvent) Pending() bool {
	return e.PublishedAt == nil
}

// OutboxDLQ keeps a copy of an event the relay gave up on.
type OutboxDLQ struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	EventID uuid.UUID `gorm:"column:event_id;type:uuid;not null"`
	OutboxSubject
	Payload      json.RawMessage            `gorm:"column:payload_json;type:jsonb;not null"`
	ErrorReason  enums.OutboxDLQErrorReason `gorm:"column:error_reason;type:text;not null"`
	ErrorMessage *string                    `gorm:"column:error_message"`
	AttemptCount int                        `gorm:"column:attempt_count;not null;default:0"`
	FailedAt     time.Time                  `gorm:"column:failed_at"`
	CreatedAt    time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	if d.FailedAt.IsZero() {
		d.FailedAt = time.Now().UTC()
	}
	return nil
}

func (OutboxDLQ) TableName() string {
	return "outbox_dlq"
}
