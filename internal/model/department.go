package model

import (
	"time"

	"github.com/google/uuid"
)

// Workspace groups the departments of one client. Its owner can edit every
// department in it.
type Workspace struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time
}

// Department is the scope that owns a set of statuses and tasks.
type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	CreatedAt   time.Time

	Workspace Workspace `gorm:"foreignKey:WorkspaceID"`
}
