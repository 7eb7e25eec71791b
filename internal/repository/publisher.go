package repository

import (
	"context"

	"github.com/google/uuid"

	"workboard/internal/model"
)

// Publisher receives a change event after every committed write.
type Publisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
}

// notify publishes best effort: the write is already committed, so a failed
// publish only delays other boards until their next reload.
func notify(ctx context.Context, pub Publisher, table string, scopeID, recordID uuid.UUID, op model.ChangeOp) {
	if pub == nil {
		return
	}
	_ = pub.Publish(ctx, model.ChangeEvent{Table: table, ScopeID: scopeID, RecordID: recordID, Op: op})
}
