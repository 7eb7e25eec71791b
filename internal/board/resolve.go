package board

import (
	"github.com/google/uuid"

	"workboard/internal/model"
)

// ResolutionPolicy picks the concrete status id a task gets when it is dropped
// on a grouped lane. statuses holds every loaded record in fetch order.
type ResolutionPolicy func(statuses []model.Status, label string, taskScope uuid.UUID) (uuid.UUID, bool)

// PreferTaskScope takes the status with that label in the task's own scope, and
// otherwise the first status anywhere with that label. The fallback writes a
// status id from a foreign scope; whether that is right is an open question, so
// it is kept as an explicit policy rather than treated as an error.
func PreferTaskScope(statuses []model.Status, label string, taskScope uuid.UUID) (uuid.UUID, bool) {
	var fallback *model.Status
	for i := range statuses {
		s := &statuses[i]
		if s.Label != label {
			continue
		}
		if s.ScopeID == taskScope {
			return s.ID, true
		}
		if fallback == nil {
			fallback = s
		}
	}
	if fallback == nil {
		return uuid.Nil, false
	}
	return fallback.ID, true
}
