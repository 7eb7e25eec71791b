package board

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"workboard/internal/model"
)

// Engine is one board instance: a status registry and task store for a fixed set
// of scopes, plus the move protocol that mutates them. It is safe for concurrent
// use; persist calls run on detached goroutines and are never sequenced.
type Engine struct {
	scopes  []uuid.UUID
	grouped bool
	remote  RemoteStore
	policy  ResolutionPolicy
	log     logrus.FieldLogger

	statuses *Registry
	tasks    *TaskStore

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int

	inflight sync.WaitGroup
}

type Option func(*Engine)

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func WithResolutionPolicy(p ResolutionPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// NewEngine builds an empty board for scopes. grouped merges lanes by label
// across scopes. Call Load before reading.
func NewEngine(remote RemoteStore, scopes []uuid.UUID, grouped bool, opts ...Option) *Engine {
	e := &Engine{
		scopes:    slices.Clone(scopes),
		grouped:   grouped,
		remote:    remote,
		policy:    PreferTaskScope,
		log:       logrus.StandardLogger(),
		statuses:  NewRegistry(remote, grouped),
		tasks:     NewTaskStore(remote),
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("grouped", grouped)
	return e
}

func (e *Engine) Scopes() []uuid.UUID {
	return slices.Clone(e.scopes)
}

func (e *Engine) Statuses() *Registry {
	return e.statuses
}

func (e *Engine) Tasks() *TaskStore {
	return e.tasks
}

// Load fetches statuses and tasks concurrently and replaces both caches.
func (e *Engine) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.statuses.Load(gctx, e.scopes)
	})
	g.Go(func() error {
		return e.tasks.Load(gctx, e.scopes)
	})
	err := g.Wait()
	e.notify()
	return err
}

// Stale reports whether the task cache needs a reload before it can be trusted.
func (e *Engine) Stale() bool {
	return e.tasks.Stale()
}

// Board projects the current caches. It never touches the remote store. A task
// whose lane is missing from a lane list read during a reload shows as
// unassigned until the next change notification.
func (e *Engine) Board() Board {
	return project(e.statuses.Lanes(), e.statuses.All(), e.tasks.Tasks(), e.grouped)
}

// OnChange registers fn to run after every cache mutation, optimistic or
// reconciled. The returned func unregisters it.
func (e *Engine) OnChange(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Wait blocks until every detached persist call, and any reconciliation it
// triggered, has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Watch reloads the board whenever the notifier reports a change in one of its
// scopes. Subscriptions end when ctx is done.
func (e *Engine) Watch(ctx context.Context, n Notifier) error {
	onChange := func(ev model.ChangeEvent) {
		if !e.hasScope(ev.ScopeID) {
			return
		}
		e.tasks.Invalidate([]uuid.UUID{ev.ScopeID})
		if err := e.Load(ctx); err != nil {
			e.log.WithError(err).WithField("table", ev.Table).Warn("reload after change notification failed")
		}
	}

	var subs []Subscription
	for _, table := range []string{model.TableStatuses, model.TableTasks} {
		sub, err := n.Subscribe(ctx, table, onChange)
		if err != nil {
			for _, s := range subs {
				_ = s.Close()
			}
			return err
		}
		subs = append(subs, sub)
	}

	go func() {
		<-ctx.Done()
		for _, s := range subs {
			_ = s.Close()
		}
	}()
	return nil
}

func (e *Engine) hasScope(id uuid.UUID) bool {
	return slices.Contains(e.scopes, id)
}

// Reload picks up writes made outside the engine. The board stays stale until a
// reload succeeds.
func (e *Engine) Reload(ctx context.Context) error {
	return e.reconcile(ctx)
}

// reconcile throws away optimistic state and reloads from the remote store.
func (e *Engine) reconcile(ctx context.Context) error {
	e.tasks.Invalidate(e.scopes)
	return e.Load(ctx)
}

func (e *Engine) reloadStatuses(ctx context.Context) error {
	err := e.statuses.Load(ctx, e.scopes)
	e.notify()
	return err
}
