package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry records one domain event for later review.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	EventID    string          `json:"event_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Filter narrows List.
type Filter struct {
	Action     string
	EntityType string
	EntityID   string
}
