package main

import (
	"context"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

// delivery is what happened to one row on this pass.
type delivery struct {
	resolved *registry.Resolved
	serverID string
	err      error
	reason   enums.OutboxDLQErrorReason
}

func (d delivery) ok() bool { return d.err == nil }

func (r *Relay) deliver(ctx context.Context, row models.OutboxEvent) delivery {
	resolved, err := r.catalog.Resolve(row)
	if err != nil {
		return delivery{err: err, reason: enums.OutboxDLQReasonNonRetryable}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	started := time.Now()
	id, err := r.sink.Send(sendCtx, resolved.Topic, message(row, resolved))
	r.metrics.ObserveSend(resolved.Topic, time.Since(started))

	d := delivery{resolved: resolved, serverID: id, err: err}
	if err != nil && (registry.IsPermanent(err) || r.permanent(err)) {
		d.reason = enums.OutboxDLQReasonNonRetryable
	}
	return d
}

// settle writes the outcome of d back to the queue. Only queue errors are
// returned; they abort the batch transaction.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, d delivery) error {
	logCtx := r.logg.WithFields(ctx, fields(row, d))
	attempt := row.AttemptCount + 1

	if d.ok() {
		if err := r.queue.Published(tx, row.ID); err != nil {
			return fmt.Errorf("mark %s published: %w", row.ID, err)
		}
		r.metrics.Settled(string(row.EventType), metrics.OutcomePublished)
		r.logg.Info(logCtx, "outbox event published")
		return nil
	}

	cause := d.err
	if d.reason == "" && attempt >= r.maxAttempts {
		d.reason = enums.OutboxDLQReasonMaxAttempts
		cause = fmt.Errorf("gave up after %d attempts: %w", attempt, d.err)
	}
	logCtx = r.logg.WithField(logCtx, "error", cause.Error())

	if d.reason == "" {
		if err := r.queue.Failed(tx, row.ID, cause); err != nil {
			return fmt.Errorf("mark %s failed: %w", row.ID, err)
		}
		r.metrics.Settled(string(row.EventType), metrics.OutcomeRetry)
		r.logg.Warn(logCtx, "outbox publish failed, will retry")
		return nil
	}

	if err := r.queue.DeadLetter(tx, row, d.reason, cause, attempt); err != nil {
		return fmt.Errorf("dead-letter %s: %w", row.ID, err)
	}
	r.metrics.Settled(string(row.EventType), string(d.reason))
	r.logg.Warn(r.logg.WithField(logCtx, "dlq_reason", d.reason), "outbox event dead-lettered")
	return nil
}

func message(row models.OutboxEvent, resolved *registry.Resolved) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func fields(row models.OutboxEvent, d delivery) map[string]any {
	f := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
	}
	if d.resolved != nil {
		f["topic"] = d.resolved.Topic
		f["event_id"] = d.resolved.Envelope.EventID
	}
	if d.serverID != "" {
		f["message_id"] = d.serverID
	}
	return f
}
