package hub

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workboard/internal/board"
)

type entry struct {
	engine *board.Engine
	cancel context.CancelFunc
}

// Hub shares one loaded board engine between all requests that look at the
// same departments in the same mode.
type Hub struct {
	remote   board.RemoteStore
	notifier board.Notifier
	log      logrus.FieldLogger

	mu      sync.Mutex
	engines map[string]entry
	closed  bool
}

// New creates a hub. notifier may be nil, in which case boards only reload on
// their own writes.
func New(remote board.RemoteStore, notifier board.Notifier, log logrus.FieldLogger) *Hub {
	return &Hub{
		remote:   remote,
		notifier: notifier,
		log:      log,
		engines:  make(map[string]entry),
	}
}

// Get returns the engine for scopes, loading it on first use. A board left
// stale by a failed reconciliation is reloaded before it is handed out.
func (h *Hub) Get(ctx context.Context, scopes []uuid.UUID, grouped bool) (*board.Engine, error) {
	key := boardKey(scopes, grouped)

	h.mu.Lock()
	ent, ok := h.engines[key]
	h.mu.Unlock()

	if ok {
		if ent.engine.Stale() {
			if err := ent.engine.Load(ctx); err != nil {
				return nil, err
			}
		}
		return ent.engine, nil
	}

	log := h.log.WithField("board", key)
	e := board.NewEngine(h.remote, scopes, grouped, board.WithLogger(log))
	if err := e.Load(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.engines[key]; ok {
		return existing.engine, nil
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	if h.notifier != nil && !h.closed {
		if err := e.Watch(watchCtx, h.notifier); err != nil {
			log.WithError(err).Warn("change feed unavailable, board reloads on its own writes only")
		}
	}
	h.engines[key] = entry{engine: e, cancel: cancel}
	return e, nil
}

// Invalidate drops every board that includes scopeID. The next Get builds a
// fresh one.
func (h *Hub) Invalidate(scopeID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, ent := range h.engines {
		if slices.Contains(ent.engine.Scopes(), scopeID) {
			ent.cancel()
			delete(h.engines, key)
		}
	}
}

// Len reports how many boards are loaded.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.engines)
}

// Close stops every watcher and waits for in-flight persists.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	engines := make([]*board.Engine, 0, len(h.engines))
	for _, ent := range h.engines {
		ent.cancel()
		engines = append(engines, ent.engine)
	}
	h.mu.Unlock()

	for _, e := range engines {
		e.Wait()
	}
}

func boardKey(scopes []uuid.UUID, grouped bool) string {
	ids := make([]string, len(scopes))
	for i, id := range scopes {
		ids[i] = id.String()
	}
	slices.Sort(ids)
	mode := "flat"
	if grouped {
		mode = "grouped"
	}
	return mode + ":" + strings.Join(ids, ",")
}
