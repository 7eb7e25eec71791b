package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workboard/internal/model"
)

type StatusRepository struct {
	db  *gorm.DB
	pub Publisher
}

func NewStatusRepository(db *gorm.DB, pub Publisher) *StatusRepository {
	return &StatusRepository{db: db, pub: pub}
}

// GetByScope returns the statuses of one department ordered by position, ties by
// creation time.
func (r *StatusRepository) GetByScope(ctx context.Context, scopeID uuid.UUID) ([]model.Status, error) {
	var statuses []model.Status
	err := r.db.WithContext(ctx).
		Where("department_id = ?", scopeID).
		Order("position").
		Order("created_at").
		Find(&statuses).Error
	return statuses, err
}

func (r *StatusRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Status, error) {
	var status model.Status
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

// Create inserts a status. A label already used in the department yields
// ErrDuplicateStatus.
func (r *StatusRepository) Create(ctx context.Context, status *model.Status) error {
	if err := r.db.WithContext(ctx).Create(status).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateStatus
		}
		return err
	}
	notify(ctx, r.pub, model.TableStatuses, status.ScopeID, status.ID, model.ChangeInsert)
	return nil
}

// Update writes only the non-nil fields.
func (r *StatusRepository) Update(ctx context.Context, id uuid.UUID, fields model.StatusFields) error {
	status, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if status == nil {
		return ErrStatusNotFound
	}

	updates := map[string]any{}
	if fields.Label != nil {
		updates["label"] = *fields.Label
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}
	if fields.Position != nil {
		updates["position"] = *fields.Position
	}
	if len(updates) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&model.Status{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateStatus
		}
		return err
	}
	notify(ctx, r.pub, model.TableStatuses, status.ScopeID, id, model.ChangeUpdate)
	return nil
}

// BulkUpsert writes every given status in one statement, overwriting position
// on id conflict. Callers pass a whole department so the result does not depend
// on which of two racing reorders lands first.
func (r *StatusRepository) BulkUpsert(ctx context.Context, statuses []model.Status) error {
	if len(statuses) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position"}),
		}).
		Create(&statuses).Error
	if err != nil {
		return err
	}

	scopes := map[uuid.UUID]uuid.UUID{}
	for _, s := range statuses {
		if _, ok := scopes[s.ScopeID]; !ok {
			scopes[s.ScopeID] = s.ID
		}
	}
	for scopeID, first := range scopes {
		notify(ctx, r.pub, model.TableStatuses, scopeID, first, model.ChangeUpsert)
	}
	return nil
}

// Delete removes a status. Tasks pointing at it are kept.
func (r *StatusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	status, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if status == nil {
		return ErrStatusNotFound
	}
	if err := r.db.WithContext(ctx).Delete(&model.Status{}, "id = ?", id).Error; err != nil {
		return err
	}
	notify(ctx, r.pub, model.TableStatuses, status.ScopeID, id, model.ChangeDelete)
	return nil
}
