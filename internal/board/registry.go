package board

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"workboard/internal/model"
)

// LanePriority is the expected workflow order. A label ranks at the index of the
// first term it contains (case-sensitive); labels matching nothing rank last.
var LanePriority = []string{"To Do", "Shooting", "Editing", "CG", "Review", "Completed"}

// Deduplicate keeps the first status seen for every label. Dropped records stay
// available through Registry.IDsForLabel.
func Deduplicate(records []model.Status) []model.Status {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.Status, 0, len(records))
	for _, s := range records {
		if _, ok := seen[s.Label]; ok {
			continue
		}
		seen[s.Label] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Order sorts statuses by LanePriority. The sort is stable, so records with the
// same rank keep their fetch order and Order(Order(x)) == Order(x).
func Order(records []model.Status) []model.Status {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.Status) int {
		return priorityRank(a.Label) - priorityRank(b.Label)
	})
	return out
}

func priorityRank(label string) int {
	for i, term := range LanePriority {
		if strings.Contains(label, term) {
			return i
		}
	}
	return len(LanePriority)
}

// SortByPosition orders statuses by position, ties broken by input order.
func SortByPosition(records []model.Status) []model.Status {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.Status) int {
		return a.Position - b.Position
	})
	return out
}

// Registry holds every status record loaded for a board, in fetch order.
type Registry struct {
	remote  StatusRemote
	grouped bool

	mu         sync.RWMutex
	records    []model.Status
	loadSeq    uint64
	appliedSeq uint64
}

func NewRegistry(remote StatusRemote, grouped bool) *Registry {
	return &Registry{remote: remote, grouped: grouped}
}

// Load fetches the statuses of scopeIDs and replaces the cache. A load that
// finishes after a newer one has already landed is discarded.
func (r *Registry) Load(ctx context.Context, scopeIDs []uuid.UUID) error {
	r.mu.Lock()
	r.loadSeq++
	seq := r.loadSeq
	r.mu.Unlock()

	records, err := r.remote.FetchStatuses(ctx, scopeIDs)
	if err != nil {
		return &PersistenceError{Op: "fetch statuses", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.appliedSeq {
		return nil
	}
	r.appliedSeq = seq
	r.records = slices.Clone(records)
	return nil
}

// All returns every loaded record, duplicates included.
func (r *Registry) All() []model.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

// Lanes returns the canonical lane list: position order for a single-scope board,
// deduplicated and priority ordered for a grouped one.
func (r *Registry) Lanes() []model.Status {
	return laneOrder(r.All(), r.grouped)
}

func (r *Registry) ByID(id uuid.UUID) (model.Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.records {
		if s.ID == id {
			return s, true
		}
	}
	return model.Status{}, false
}

// IDsForLabel lists every underlying status id carrying label, in fetch order.
func (r *Registry) IDsForLabel(label string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []uuid.UUID
	for _, s := range r.records {
		if s.Label == label {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// InScope returns the statuses of one scope in position order.
func (r *Registry) InScope(scopeID uuid.UUID) []model.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inScopeLocked(scopeID)
}

func (r *Registry) inScopeLocked(scopeID uuid.UUID) []model.Status {
	var out []model.Status
	for _, s := range r.records {
		if s.ScopeID == scopeID {
			out = append(out, s)
		}
	}
	return SortByPosition(out)
}

// CheckLabel validates a label for scopeID. except is ignored during the
// duplicate check so a status can keep its own label on update.
func (r *Registry) CheckLabel(scopeID uuid.UUID, label string, except uuid.UUID) error {
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}
	if strings.EqualFold(strings.TrimSpace(label), UnassignedLaneKey) {
		return ErrReservedLabel
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.records {
		if s.ScopeID == scopeID && s.Label == label && s.ID != except {
			return &DuplicateLabelError{ScopeID: scopeID, Label: label}
		}
	}
	return nil
}

// NextPosition is max position in scope + 1, or 0 for an empty scope.
func (r *Registry) NextPosition(scopeID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	next := 0
	for _, s := range r.records {
		if s.ScopeID == scopeID && s.Position >= next {
			next = s.Position + 1
		}
	}
	return next
}

// CreateStatus validates the label locally and inserts the status remotely. The
// cache is not touched; callers reload afterwards.
func (r *Registry) CreateStatus(ctx context.Context, scopeID uuid.UUID, label, color string) (model.Status, error) {
	if err := r.CheckLabel(scopeID, label, uuid.Nil); err != nil {
		return model.Status{}, err
	}
	status, err := r.remote.CreateStatus(ctx, scopeID, label, r.NextPosition(scopeID), color)
	if err != nil {
		if isDuplicateLabel(err) {
			return model.Status{}, &DuplicateLabelError{ScopeID: scopeID, Label: label}
		}
		return model.Status{}, &PersistenceError{Op: "create status", Err: err}
	}
	return status, nil
}

// ReorderStatus moves the status at fromIndex of the scope's ordered list to
// toIndex and rewrites every position in the scope to its new index. It returns
// the rewritten records.
func (r *Registry) ReorderStatus(scopeID uuid.UUID, fromIndex, toIndex int) ([]model.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := r.inScopeLocked(scopeID)
	if fromIndex < 0 || fromIndex >= len(ordered) || toIndex < 0 || toIndex >= len(ordered) {
		return nil, ErrIndexOutOfRange
	}

	moved := ordered[fromIndex]
	ordered = slices.Delete(ordered, fromIndex, fromIndex+1)
	ordered = slices.Insert(ordered, toIndex, moved)

	positions := make(map[uuid.UUID]int, len(ordered))
	for i := range ordered {
		ordered[i].Position = i
		positions[ordered[i].ID] = i
	}
	for i := range r.records {
		if pos, ok := positions[r.records[i].ID]; ok {
			r.records[i].Position = pos
		}
	}
	return ordered, nil
}

// DeleteStatus removes the status remotely. Tasks referencing it are left alone
// and fall into the unassigned lane after the next reload.
func (r *Registry) DeleteStatus(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.ByID(id); !ok {
		return ErrStatusNotFound
	}
	if err := r.remote.DeleteStatus(ctx, id); err != nil {
		return &PersistenceError{Op: "delete status", Err: err}
	}
	return nil
}
