package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ScopeID    uuid.UUID  `gorm:"column:department_id;type:uuid;not null;index"`
	StatusID   *uuid.UUID `gorm:"type:uuid;index"`
	Title      string     `gorm:"not null"`
	Priority   string
	AssignedTo *uuid.UUID `gorm:"type:uuid"`
	DueDate    *time.Time
	CreatedAt  time.Time
}

// HasStatus reports whether the task points at the given status id.
func (t Task) HasStatus(id uuid.UUID) bool {
	return t.StatusID != nil && *t.StatusID == id
}
