package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const maxErrorText = 1024

var errNoTx = errors.New("outbox: transaction required")

// Store reads and writes outbox_events and outbox_dlq. Every write takes the
// caller's transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// Append queues row inside tx.
func (s *Store) Append(tx *gorm.DB, row *models.OutboxEvent) error {
	if tx == nil {
		return errNoTx
	}
	return tx.Create(row).Error
}

// Claim returns up to limit pending rows, oldest first, that still have
// attempts left. On Postgres the rows stay locked FOR UPDATE SKIP LOCKED until
// tx ends, so concurrent relays never hand out the same row.
func (s *Store) Claim(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errNoTx
	}
	q := tx.Where("published_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	if db.IsPostgres(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var rows []models.OutboxEvent
	err := q.Order("created_at, id").Limit(limit).Find(&rows).Error
	return rows, err
}

// Published closes the row after a confirmed send.
func (s *Store) Published(tx *gorm.DB, id uuid.UUID) error {
	return s.update(tx, id, map[string]any{"published_at": time.Now().UTC()})
}

// Failed records a retryable failure and spends one attempt.
func (s *Store) Failed(tx *gorm.DB, id uuid.UUID, cause error) error {
	return s.update(tx, id, map[string]any{
		"last_error":    clip(cause.Error()),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// DeadLetter copies row into outbox_dlq and retires it from the queue. Both
// writes share tx.
func (s *Store) DeadLetter(tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, attempts int) error {
	if tx == nil {
		return errNoTx
	}
	text := clip(cause.Error())
	entry := models.OutboxDLQ{
		EventID:       row.ID,
		OutboxSubject: row.OutboxSubject,
		Payload:       row.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &text,
		AttemptCount:  attempts,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	return s.update(tx, row.ID, map[string]any{
		"last_error":    text,
		"attempt_count": attempts,
		"published_at":  time.Now().UTC(),
	})
}

// DeadLetterFor returns the DLQ entry of an event, or nil when it has none.
func (s *Store) DeadLetterFor(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Backlog counts rows the relay has yet to settle.
func (s *Store) Backlog(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("published_at IS NULL").Count(&n).Error
	return n, err
}

func (s *Store) update(tx *gorm.DB, id uuid.UUID, cols map[string]any) error {
	if tx == nil {
		return errNoTx
	}
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(cols).Error
}

func clip(text string) string {
	if runes := []rune(text); len(runes) > maxErrorText {
		return string(runes[:maxErrorText])
	}
	return text
}
