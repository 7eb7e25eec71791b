package board

import (
	"context"

	"github.com/google/uuid"

	"workboard/internal/model"
)

// CreateLane inserts a status at the end of scopeID and reloads once the insert
// is confirmed. Unlike moves, failures are returned to the caller.
func (e *Engine) CreateLane(ctx context.Context, scopeID uuid.UUID, label, color string) (model.Status, error) {
	if !e.hasScope(scopeID) {
		return model.Status{}, ErrUnknownScope
	}
	status, err := e.statuses.CreateStatus(ctx, scopeID, label, color)
	if err != nil {
		return model.Status{}, err
	}
	e.refresh(ctx, "create lane")
	return status, nil
}

// DeleteLane removes a status and reloads once the delete is confirmed. Its tasks
// move to the unassigned lane.
func (e *Engine) DeleteLane(ctx context.Context, id uuid.UUID) error {
	if err := e.statuses.DeleteStatus(ctx, id); err != nil {
		return err
	}
	e.refresh(ctx, "delete lane")
	return nil
}

// UpdateLane renames or recolors a status. A new label goes through the same
// checks as CreateLane.
func (e *Engine) UpdateLane(ctx context.Context, id uuid.UUID, fields model.StatusFields) error {
	status, ok := e.statuses.ByID(id)
	if !ok {
		return ErrStatusNotFound
	}
	if fields.Label != nil {
		if err := e.statuses.CheckLabel(status.ScopeID, *fields.Label, id); err != nil {
			return err
		}
	}
	if err := e.remote.UpdateStatus(ctx, id, fields); err != nil {
		if fields.Label != nil && isDuplicateLabel(err) {
			return &DuplicateLabelError{ScopeID: status.ScopeID, Label: *fields.Label}
		}
		return &PersistenceError{Op: "update status", Err: err}
	}
	e.refresh(ctx, "update lane")
	return nil
}

// refresh reloads after a confirmed write. The write already succeeded, so a
// failed reload only marks the board stale.
func (e *Engine) refresh(ctx context.Context, op string) {
	if err := e.Load(ctx); err != nil {
		e.tasks.Invalidate(e.scopes)
		e.log.WithError(err).WithField("op", op).Warn("reload after write failed")
	}
}
