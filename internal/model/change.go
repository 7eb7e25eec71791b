package model

import "github.com/google/uuid"

const (
	TableStatuses = "statuses"
	TableTasks    = "tasks"
)

type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
	ChangeUpsert ChangeOp = "upsert"
)

// ChangeEvent is published on the change feed after every successful write.
type ChangeEvent struct {
	Table    string    `json:"table"`
	ScopeID  uuid.UUID `json:"scope_id"`
	RecordID uuid.UUID `json:"record_id"`
	Op       ChangeOp  `json:"op"`
}
