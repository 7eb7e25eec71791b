package board

import (
	"context"

	"github.com/google/uuid"

	"workboard/internal/model"
)

// StatusRemote is the part of the remote store the status registry needs.
type StatusRemote interface {
	FetchStatuses(ctx context.Context, scopeIDs []uuid.UUID) ([]model.Status, error)
	// CreateStatus returns an error matching ErrDuplicateLabel when the label is taken.
	CreateStatus(ctx context.Context, scopeID uuid.UUID, label string, position int, color string) (model.Status, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, fields model.StatusFields) error
	BulkUpsertStatuses(ctx context.Context, statuses []model.Status) error
	DeleteStatus(ctx context.Context, id uuid.UUID) error
}

// TaskRemote is the part of the remote store the task store and move engine need.
type TaskRemote interface {
	FetchTasks(ctx context.Context, scopeIDs []uuid.UUID) ([]model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, statusID uuid.UUID) error
}

type RemoteStore interface {
	StatusRemote
	TaskRemote
}

// Notifier delivers change notifications for a table. Events only ever trigger a
// full reload; they are never applied as patches.
type Notifier interface {
	Subscribe(ctx context.Context, table string, onChange func(model.ChangeEvent)) (Subscription, error)
}

type Subscription interface {
	Close() error
}
