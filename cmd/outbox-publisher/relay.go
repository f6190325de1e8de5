package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	sendTimeout        = 15 * time.Second
	maxIdleBackoff     = 10 * time.Second
)

type database interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type queue interface {
	Claim(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	Published(tx *gorm.DB, id uuid.UUID) error
	Failed(tx *gorm.DB, id uuid.UUID, cause error) error
	DeadLetter(tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, attempts int) error
	Backlog(context.Context) (int64, error)
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.Resolved, error)
}

// Sink delivers one message and returns the server-assigned id.
type Sink interface {
	Ping(context.Context) error
	Send(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error)
}

type relayMetrics interface {
	Settled(eventType, outcome string)
	ObserveSend(topic string, elapsed time.Duration)
	SetBacklog(n int64)
}

type RelayParams struct {
	Outbox   config.OutboxConfig
	Logger   *logger.Logger
	DB       database
	Queue    queue
	Catalog  resolver
	Sink     Sink
	Metrics  relayMetrics
	Classify func(error) bool
}

// Relay drains outbox_events into Pub/Sub. Each batch is claimed, sent and
// settled inside one transaction, so a crash mid-batch releases the rows.
type Relay struct {
	logg        *logger.Logger
	db          database
	queue       queue
	catalog     resolver
	sink        Sink
	metrics     relayMetrics
	permanent   func(error) bool
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database is required")
	case p.Queue == nil:
		return nil, errors.New("outbox queue is required")
	case p.Catalog == nil:
		return nil, errors.New("event catalog is required")
	case p.Sink == nil:
		return nil, errors.New("sink is required")
	}
	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		queue:       p.Queue,
		catalog:     p.Catalog,
		sink:        p.Sink,
		metrics:     p.Metrics,
		permanent:   p.Classify,
		batchSize:   orDefault(p.Outbox.BatchSize, defaultBatchSize),
		maxAttempts: orDefault(p.Outbox.MaxAttempts, defaultMaxAttempts),
		poll:        time.Duration(orDefault(p.Outbox.PollIntervalMS, int(defaultPoll/time.Millisecond))) * time.Millisecond,
	}
	if r.metrics == nil {
		r.metrics = metrics.NewOutboxMetrics(nil)
	}
	if r.permanent == nil {
		r.permanent = func(error) bool { return false }
	}
	return r, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// Run pings its dependencies, then loops until ctx is cancelled. A full batch
// is followed immediately by the next one; otherwise the relay waits one poll
// interval. Batch errors back off exponentially up to maxIdleBackoff.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	wait := newBackoff(r.poll, maxIdleBackoff)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			if err := sleep(ctx, wait.Next()); err != nil {
				return err
			}
		case n >= r.batchSize:
			wait.Reset()
		default:
			wait.Reset()
			r.refreshBacklog(ctx)
			if err := sleep(ctx, jitter(r.poll)); err != nil {
				return err
			}
		}
	}
}

func (r *Relay) ready(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	if err := r.sink.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub not ready: %w", err)
	}
	r.logg.Info(ctx, "outbox relay dependencies ready")
	return nil
}

// drain handles one batch and returns how many rows it claimed.
func (r *Relay) drain(ctx context.Context) (int, error) {
	claimed := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.queue.Claim(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		claimed = len(rows)
		for _, row := range rows {
			if err := r.settle(ctx, tx, row, r.deliver(ctx, row)); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

func (r *Relay) refreshBacklog(ctx context.Context) {
	n, err := r.queue.Backlog(ctx)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "outbox backlog unavailable")
		return
	}
	r.metrics.SetBacklog(n)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
