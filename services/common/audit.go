package common

import "time"

// Audit carries the creation/modification metadata every persisted
// entity has. Actor references are nullable: rows created before the
// actor existed, or by system jobs, have none.
type Audit struct {
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	CreatedBy  *int64    `json:"created_by,omitempty"`
	ModifiedBy *int64    `json:"modified_by,omitempty"`
}
