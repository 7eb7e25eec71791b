package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common repository errors
var (
	// ErrStatusNotFound is returned when a status is not found
	ErrStatusNotFound = errors.New("status not found")

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrDuplicateStatus is returned when a label already exists in the department
	ErrDuplicateStatus = errors.New("status with this label already exists")

	// ErrDuplicateUser is returned when the email is already registered
	ErrDuplicateUser = errors.New("user with this email already exists")

	// ErrMemberNotFound is returned when the user is not a member of the department
	ErrMemberNotFound = errors.New("member not found")

	// ErrWorkspaceNotFound is returned when a workspace is not found
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

const pgUniqueViolation = "23505"

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
