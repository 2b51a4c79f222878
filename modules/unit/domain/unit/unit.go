package unit

import (
	"time"

	"github.com/google/uuid"
)

// Unit is one node of the organizational tree. The workflow core only ever
// reads units; creation and editing happen in an administrative surface
// outside this repository.
type Unit struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
