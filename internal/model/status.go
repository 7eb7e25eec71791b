package model

import (
	"time"

	"github.com/google/uuid"
)

// Status is a lane on a department board. Label is unique per scope but may repeat
// across scopes.
type Status struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ScopeID   uuid.UUID `gorm:"column:department_id;type:uuid;not null;uniqueIndex:idx_statuses_scope_label"`
	Label     string    `gorm:"not null;uniqueIndex:idx_statuses_scope_label"`
	Color     string
	Position  int `gorm:"not null"`
	CreatedAt time.Time
}

// StatusFields carries a partial status update. Nil fields are left untouched.
type StatusFields struct {
	Label    *string
	Color    *string
	Position *int
}
