package board

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type MoveState int32

const (
	MoveIdle MoveState = iota
	MoveOptimisticApplied
	MovePersisted
	MoveReconciling
)

func (s MoveState) String() string {
	switch s {
	case MoveIdle:
		return "idle"
	case MoveOptimisticApplied:
		return "optimistic_applied"
	case MovePersisted:
		return "persisted"
	case MoveReconciling:
		return "reconciling"
	}
	return "unknown"
}

// Move tracks one drag gesture through the optimistic apply / persist /
// reconcile protocol. Done is closed once the move reached Persisted, or
// Reconciling and its reload finished. A persist that never returns leaves the
// move in OptimisticApplied.
type Move struct {
	state atomic.Int32
	done  chan struct{}
	err   error
}

func newMove() *Move {
	return &Move{done: make(chan struct{})}
}

func noopMove() *Move {
	m := newMove()
	close(m.done)
	return m
}

func (m *Move) State() MoveState {
	return MoveState(m.state.Load())
}

func (m *Move) Done() <-chan struct{} {
	return m.done
}

// Err is the persist failure, if any. Only valid after Done is closed.
func (m *Move) Err() error {
	return m.err
}

func (m *Move) set(s MoveState) {
	m.state.Store(int32(s))
}

type MoveRequest struct {
	TaskID      uuid.UUID
	SourceLane  string
	DestLane    string
	SourceIndex int
	DestIndex   int
}

// MoveTask applies a task drag optimistically and persists the new status in the
// background. Validation errors are returned before anything changes; persist
// failures are logged and reconciled by a full reload, never returned.
func (e *Engine) MoveTask(ctx context.Context, req MoveRequest) (*Move, error) {
	if req.SourceLane == req.DestLane && req.SourceIndex == req.DestIndex {
		return noopMove(), nil
	}

	task, ok := e.tasks.Get(req.TaskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	statusID, err := e.resolveLane(req.DestLane, task.ScopeID)
	if err != nil {
		return nil, err
	}

	log := e.log.WithFields(logrus.Fields{
		"task":   req.TaskID,
		"status": statusID,
		"lane":   req.DestLane,
	})

	m := newMove()
	e.tasks.ApplyStatusChange(req.TaskID, statusID)
	m.set(MoveOptimisticApplied)
	e.notify()

	e.persist(ctx, m, log, "update task", func(ctx context.Context) error {
		return e.remote.UpdateTask(ctx, req.TaskID, statusID)
	}, e.reconcile)
	return m, nil
}

// ReorderLane moves a lane within its scope, rewrites every position in the scope
// optimistically and bulk upserts the whole scope in the background. On failure
// the statuses are reloaded.
func (e *Engine) ReorderLane(ctx context.Context, scopeID uuid.UUID, fromIndex, toIndex int) (*Move, error) {
	if !e.hasScope(scopeID) {
		return nil, ErrUnknownScope
	}
	if fromIndex == toIndex {
		return noopMove(), nil
	}

	reindexed, err := e.statuses.ReorderStatus(scopeID, fromIndex, toIndex)
	if err != nil {
		return nil, err
	}

	log := e.log.WithFields(logrus.Fields{
		"scope": scopeID,
		"from":  fromIndex,
		"to":    toIndex,
	})

	m := newMove()
	m.set(MoveOptimisticApplied)
	e.notify()

	e.persist(ctx, m, log, "bulk upsert statuses", func(ctx context.Context) error {
		return e.remote.BulkUpsertStatuses(ctx, reindexed)
	}, e.reloadStatuses)
	return m, nil
}

// persist runs write on a detached goroutine and calls reload if it fails. The
// request context only contributes values; cancelling it does not cancel the write.
func (e *Engine) persist(ctx context.Context, m *Move, log logrus.FieldLogger, op string, write, reload func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer close(m.done)

		if err := write(ctx); err != nil {
			m.err = &PersistenceError{Op: op, Err: err}
			m.set(MoveReconciling)
			log.WithError(err).Warn("persist failed, reloading board")
			if err := reload(ctx); err != nil {
				log.WithError(err).Error("reconciling reload failed, board stays stale")
			}
			return
		}
		m.set(MovePersisted)
		log.Debug("move persisted")
	}()
}

func (e *Engine) resolveLane(key string, taskScope uuid.UUID) (uuid.UUID, error) {
	if key == "" || key == UnassignedLaneKey {
		return uuid.Nil, ErrUnknownLane
	}
	// Flat boards key lanes by status id but still accept a label.
	if !e.grouped {
		if id, err := uuid.Parse(key); err == nil {
			if _, ok := e.statuses.ByID(id); ok {
				return id, nil
			}
		}
	}

	all := e.statuses.All()
	id, ok := e.policy(all, key, taskScope)
	if !ok {
		return uuid.Nil, ErrUnknownLane
	}
	if s, _ := e.statuses.ByID(id); s.ScopeID != taskScope {
		e.log.WithFields(logrus.Fields{
			"lane":       key,
			"candidates": len(e.statuses.IDsForLabel(key)),
			"chosen":     id,
		}).Info("no status with this label in the task's scope, using first match")
	}
	return id, nil
}
