package board

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrEmptyLabel is returned before any remote call when a lane label is blank.
	ErrEmptyLabel = errors.New("status label must not be empty")

	// ErrReservedLabel is returned for a label that would share the key of the
	// synthetic unassigned lane on a grouped board.
	ErrReservedLabel = errors.New("status label is reserved")

	// ErrDuplicateLabel matches every *DuplicateLabelError via errors.Is.
	ErrDuplicateLabel = errors.New("status label already exists in scope")

	ErrUnknownLane     = errors.New("lane not found on board")
	ErrUnknownScope    = errors.New("scope is not part of this board")
	ErrTaskNotFound    = errors.New("task not found on board")
	ErrStatusNotFound  = errors.New("status not found on board")
	ErrIndexOutOfRange = errors.New("lane index out of range")
)

// DuplicateLabelError is a recoverable, user-facing failure of CreateLane or UpdateLane.
type DuplicateLabelError struct {
	ScopeID uuid.UUID
	Label   string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("failed to create status %q: it might already exist", e.Label)
}

func (e *DuplicateLabelError) Is(target error) bool {
	return target == ErrDuplicateLabel
}

// PersistenceError wraps any failed remote store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("remote store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func isDuplicateLabel(err error) bool {
	return errors.Is(err, ErrDuplicateLabel)
}
