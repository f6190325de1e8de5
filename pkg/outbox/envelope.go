package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
)

const envelopeVersion = 1

// ActorRef is the caller behind an event: the employee for POS sales, the
// customer for online orders, nobody for guest checkouts.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// Envelope is what outbox_events.payload holds and what subscribers receive.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

var errEmptyData = errors.New("envelope has no data")

// OpenEnvelope decodes a stored payload and rejects envelopes without data.
func OpenEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return env, errEmptyData
	}
	return env, nil
}

// ActorFromContext is nil for anonymous requests.
func ActorFromContext(ctx context.Context) *ActorRef {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil
	}
	return &ActorRef{UserID: identity.UserID, Role: string(identity.Role)}
}
