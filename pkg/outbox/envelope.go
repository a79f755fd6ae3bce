package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/pkg/types"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// ActorFrom converts an authenticated actor into an envelope reference.
func ActorFrom(actor types.Actor) *ActorRef {
	if actor.IsZero() {
		return nil
	}
	return &ActorRef{UserID: actor.UserID, Role: string(actor.Role)}
}

// PayloadEnvelope is the versioned JSON document stored in
// outbox_events.payload and published verbatim. CorrelationID is the
// request id of the HTTP call that queued the event, when there was one.
type PayloadEnvelope struct {
	Version       int             `json:"version"`
	EventID       string          `json:"eventId"`
	OccurredAt    time.Time       `json:"occurredAt"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Actor         *ActorRef       `json:"actor,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// Decode unmarshals the event body into dst.
func (e PayloadEnvelope) Decode(dst any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.EventID)
	}
	return json.Unmarshal(e.Data, dst)
}
