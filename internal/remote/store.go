package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"workboard/internal/board"
	"workboard/internal/model"
	"workboard/internal/repository"
)

type statusRepository interface {
	GetByScope(ctx context.Context, scopeID uuid.UUID) ([]model.Status, error)
	Create(ctx context.Context, status *model.Status) error
	Update(ctx context.Context, id uuid.UUID, fields model.StatusFields) error
	BulkUpsert(ctx context.Context, statuses []model.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskRepository interface {
	GetByScope(ctx context.Context, scopeID uuid.UUID) ([]model.Task, error)
	UpdateStatus(ctx context.Context, taskID, statusID uuid.UUID) error
}

// Store is the board.RemoteStore backed by the repositories. Fetches go through
// the cache one department at a time and come back in the order the
// departments were given.
type Store struct {
	statuses statusRepository
	tasks    taskRepository
	cache    *Cache
}

var _ board.RemoteStore = (*Store)(nil)

func NewStore(statuses statusRepository, tasks taskRepository, cache *Cache) *Store {
	if cache == nil {
		cache = NewCache(nil, 0)
	}
	return &Store{statuses: statuses, tasks: tasks, cache: cache}
}

func (s *Store) FetchStatuses(ctx context.Context, scopeIDs []uuid.UUID) ([]model.Status, error) {
	var all []model.Status
	for _, id := range scopeIDs {
		statuses, err := s.cache.Statuses(ctx, id, s.statuses.GetByScope)
		if err != nil {
			return nil, fmt.Errorf("fetch statuses of %s: %w", id, err)
		}
		all = append(all, statuses...)
	}
	return all, nil
}

func (s *Store) FetchTasks(ctx context.Context, scopeIDs []uuid.UUID) ([]model.Task, error) {
	var all []model.Task
	for _, id := range scopeIDs {
		tasks, err := s.cache.Tasks(ctx, id, s.tasks.GetByScope)
		if err != nil {
			return nil, fmt.Errorf("fetch tasks of %s: %w", id, err)
		}
		all = append(all, tasks...)
	}
	return all, nil
}

func (s *Store) CreateStatus(ctx context.Context, scopeID uuid.UUID, label string, position int, color string) (model.Status, error) {
	status := model.Status{ScopeID: scopeID, Label: label, Color: color, Position: position}
	if err := s.statuses.Create(ctx, &status); err != nil {
		return model.Status{}, translate(err)
	}
	s.cache.Evict(ctx, scopeID)
	return status, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, fields model.StatusFields) error {
	if err := s.statuses.Update(ctx, id, fields); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) BulkUpsertStatuses(ctx context.Context, statuses []model.Status) error {
	if err := s.statuses.BulkUpsert(ctx, statuses); err != nil {
		return err
	}
	seen := map[uuid.UUID]bool{}
	for _, st := range statuses {
		if !seen[st.ScopeID] {
			seen[st.ScopeID] = true
			s.cache.Evict(ctx, st.ScopeID)
		}
	}
	return nil
}

func (s *Store) DeleteStatus(ctx context.Context, id uuid.UUID) error {
	return translate(s.statuses.Delete(ctx, id))
}

func (s *Store) UpdateTask(ctx context.Context, id uuid.UUID, statusID uuid.UUID) error {
	return translate(s.tasks.UpdateStatus(ctx, id, statusID))
}

// translate maps repository errors onto the board's error set, keeping the
// original in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicateStatus):
		return fmt.Errorf("%w: %w", board.ErrDuplicateLabel, err)
	case errors.Is(err, repository.ErrStatusNotFound):
		return fmt.Errorf("%w: %w", board.ErrStatusNotFound, err)
	case errors.Is(err, repository.ErrTaskNotFound):
		return fmt.Errorf("%w: %w", board.ErrTaskNotFound, err)
	}
	return err
}
