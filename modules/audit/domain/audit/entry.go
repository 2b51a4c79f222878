package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable line of the decision trail. The core only ever
// appends; nothing inside it reads the trail back except the compliance
// listing surface.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	At         time.Time       `json:"at"`
}
