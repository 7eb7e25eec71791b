package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

// Роли пользователей в отделе
const (
	RoleViewer Role = "viewer" // может только просматривать
	RoleEditor Role = "editor" // может двигать задачи и менять статусы
)

// Allows reports whether r is at least required.
func (r Role) Allows(required Role) bool {
	switch required {
	case RoleViewer:
		return r == RoleViewer || r == RoleEditor
	case RoleEditor:
		return r == RoleEditor
	}
	return false
}

// DepartmentMember grants a user access to one department's board.
type DepartmentMember struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_members_department_user"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_members_department_user"`
	Role         Role      `gorm:"not null;check:role IN ('viewer', 'editor')"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}
