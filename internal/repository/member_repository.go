package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workboard/internal/model"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// AddMember добавляет пользователя в отдел с указанной ролью или меняет роль
func (r *MemberRepository) AddMember(ctx context.Context, departmentID, userID uuid.UUID, role model.Role) error {
	// Используем транзакцию для предотвращения гонок
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.DepartmentMember
		err := tx.Where("department_id = ? AND user_id = ?", departmentID, userID).First(&existing).Error

		// Если запись уже существует, обновляем роль
		if err == nil {
			return tx.Model(&existing).Update("role", role).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&model.DepartmentMember{
			DepartmentID: departmentID,
			UserID:       userID,
			Role:         role,
		}).Error
	})
}

// RemoveMember удаляет доступ пользователя к отделу
func (r *MemberRepository) RemoveMember(ctx context.Context, departmentID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("department_id = ? AND user_id = ?", departmentID, userID).
		Delete(&model.DepartmentMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// ListMembers возвращает участников отдела вместе с пользователями
func (r *MemberRepository) ListMembers(ctx context.Context, departmentID uuid.UUID) ([]model.DepartmentMember, error) {
	var members []model.DepartmentMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("department_id = ?", departmentID).
		Order("created_at").
		Find(&members).Error
	return members, err
}

// CheckAccess reports whether userID holds at least required in every one of
// departmentIDs. Owners of a department's workspace always pass.
func (r *MemberRepository) CheckAccess(ctx context.Context, departmentIDs []uuid.UUID, userID uuid.UUID, required model.Role) (bool, error) {
	if len(departmentIDs) == 0 {
		return false, nil
	}

	var owned []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Joins("JOIN workspaces ON workspaces.id = departments.workspace_id").
		Where("departments.id IN ? AND workspaces.owner_id = ?", departmentIDs, userID).
		Pluck("departments.id", &owned).Error
	if err != nil {
		return false, err
	}

	granted := make(map[uuid.UUID]bool, len(departmentIDs))
	for _, id := range owned {
		granted[id] = true
	}
	if len(granted) < len(departmentIDs) {
		var members []model.DepartmentMember
		err := r.db.WithContext(ctx).
			Where("department_id IN ? AND user_id = ?", departmentIDs, userID).
			Find(&members).Error
		if err != nil {
			return false, err
		}
		for _, m := range members {
			if m.Role.Allows(required) {
				granted[m.DepartmentID] = true
			}
		}
	}

	for _, id := range departmentIDs {
		if !granted[id] {
			return false, nil
		}
	}
	return true, nil
}
