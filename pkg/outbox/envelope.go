package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies the staff member whose action produced the event.
type ActorRef struct {
	ActorID int64 `json:"actorId"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Actor builds an ActorRef, returning nil for an unknown actor.
func Actor(actorID int64) *ActorRef {
	if actorID <= 0 {
		return nil
	}
	return &ActorRef{ActorID: actorID}
}
