package board_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"workboard/internal/board"
	"workboard/internal/model"
)

// fakeRemote is an in-memory remote store. Writes can be made to fail or to
// block until released.
type fakeRemote struct {
	mu       sync.Mutex
	statuses []model.Status
	tasks    []model.Task

	failUpdateTask error
	failUpsert     error
	failFetchTasks error
	block          chan struct{}

	taskUpdates []taskUpdate
	upserts     [][]model.Status
	fetches     int
}

type taskUpdate struct {
	TaskID   uuid.UUID
	StatusID uuid.UUID
}

var errRemoteDown = errors.New("remote down")

func (f *fakeRemote) FetchStatuses(_ context.Context, scopeIDs []uuid.UUID) ([]model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Status
	for _, scope := range scopeIDs {
		var inScope []model.Status
		for _, s := range f.statuses {
			if s.ScopeID == scope {
				inScope = append(inScope, s)
			}
		}
		out = append(out, board.SortByPosition(inScope)...)
	}
	return out, nil
}

func (f *fakeRemote) FetchTasks(_ context.Context, scopeIDs []uuid.UUID) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failFetchTasks != nil {
		return nil, f.failFetchTasks
	}
	var out []model.Task
	for _, t := range f.tasks {
		if slices.Contains(scopeIDs, t.ScopeID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateStatus(_ context.Context, scopeID uuid.UUID, label string, position int, color string) (model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.statuses {
		if s.ScopeID == scopeID && s.Label == label {
			return model.Status{}, board.ErrDuplicateLabel
		}
	}
	s := model.Status{ID: uuid.New(), ScopeID: scopeID, Label: label, Color: color, Position: position}
	f.statuses = append(f.statuses, s)
	return s, nil
}

func (f *fakeRemote) UpdateStatus(_ context.Context, id uuid.UUID, fields model.StatusFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.statuses {
		if f.statuses[i].ID != id {
			continue
		}
		if fields.Label != nil {
			f.statuses[i].Label = *fields.Label
		}
		if fields.Color != nil {
			f.statuses[i].Color = *fields.Color
		}
		if fields.Position != nil {
			f.statuses[i].Position = *fields.Position
		}
		return nil
	}
	return errors.New("not found")
}

func (f *fakeRemote) BulkUpsertStatuses(_ context.Context, statuses []model.Status) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, slices.Clone(statuses))
	if f.failUpsert != nil {
		return f.failUpsert
	}
	for _, in := range statuses {
		for i := range f.statuses {
			if f.statuses[i].ID == in.ID {
				f.statuses[i] = in
			}
		}
	}
	return nil
}

func (f *fakeRemote) DeleteStatus(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = slices.DeleteFunc(f.statuses, func(s model.Status) bool { return s.ID == id })
	return nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, id uuid.UUID, statusID uuid.UUID) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskUpdates = append(f.taskUpdates, taskUpdate{TaskID: id, StatusID: statusID})
	if f.failUpdateTask != nil {
		return f.failUpdateTask
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			sid := statusID
			f.tasks[i].StatusID = &sid
		}
	}
	return nil
}

func (f *fakeRemote) wait() {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (f *fakeRemote) snapshotTasks() []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tasks)
}

func status(scope uuid.UUID, label string, pos int) model.Status {
	return model.Status{ID: uuid.New(), ScopeID: scope, Label: label, Position: pos}
}

func task(scope uuid.UUID, statusID *uuid.UUID, title string) model.Task {
	return model.Task{ID: uuid.New(), ScopeID: scope, StatusID: statusID, Title: title}
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
