package board

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"workboard/internal/model"
)

// TaskStore holds the tasks currently known for a board.
type TaskStore struct {
	remote TaskRemote

	mu         sync.RWMutex
	tasks      []model.Task
	loaded     bool
	stale      map[uuid.UUID]struct{}
	loadSeq    uint64
	appliedSeq uint64
}

func NewTaskStore(remote TaskRemote) *TaskStore {
	return &TaskStore{remote: remote, stale: make(map[uuid.UUID]struct{})}
}

// Load fetches the tasks of scopeIDs and replaces the cache. A load that
// finishes after a newer one has already landed is discarded.
func (s *TaskStore) Load(ctx context.Context, scopeIDs []uuid.UUID) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	tasks, err := s.remote.FetchTasks(ctx, scopeIDs)
	if err != nil {
		return &PersistenceError{Op: "fetch tasks", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.appliedSeq {
		return nil
	}
	s.appliedSeq = seq
	s.tasks = slices.Clone(tasks)
	s.loaded = true
	for _, id := range scopeIDs {
		delete(s.stale, id)
	}
	return nil
}

func (s *TaskStore) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *TaskStore) Get(id uuid.UUID) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// ApplyStatusChange points the task at newStatusID in memory only. Unknown task
// ids are ignored.
func (s *TaskStore) ApplyStatusChange(taskID, newStatusID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			id := newStatusID
			s.tasks[i].StatusID = &id
			return
		}
	}
}

// Invalidate marks scopeIDs as no longer reflecting the remote store. The tasks
// stay visible until a Load covering those scopes replaces them.
func (s *TaskStore) Invalidate(scopeIDs []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range scopeIDs {
		s.stale[id] = struct{}{}
	}
}

// Stale reports whether the next read should re-fetch: nothing was loaded yet or
// some scope was invalidated since.
func (s *TaskStore) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loaded || len(s.stale) > 0
}
