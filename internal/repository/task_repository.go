package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workboard/internal/model"
)

type TaskRepository struct {
	db  *gorm.DB
	pub Publisher
}

func NewTaskRepository(db *gorm.DB, pub Publisher) *TaskRepository {
	return &TaskRepository{db: db, pub: pub}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return err
	}
	notify(ctx, r.pub, model.TableTasks, task.ScopeID, task.ID, model.ChangeInsert)
	return nil
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetByScope retrieves all tasks of a department in creation order
func (r *TaskRepository) GetByScope(ctx context.Context, scopeID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).Where("department_id = ?", scopeID).Order("created_at").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// UpdateStatus points a task at another status. The status id is not checked
// against the statuses table; dangling references are allowed.
func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID, statusID uuid.UUID) error {
	var scopeID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		scopeID = task.ScopeID
		return tx.Model(&model.Task{}).Where("id = ?", taskID).Update("status_id", statusID).Error
	})
	if err != nil {
		return err
	}
	notify(ctx, r.pub, model.TableTasks, scopeID, taskID, model.ChangeUpdate)
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	task, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	notify(ctx, r.pub, model.TableTasks, task.ScopeID, id, model.ChangeDelete)
	return nil
}
