package remote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workboard/internal/board"
	"workboard/internal/model"
	"workboard/internal/repository"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return m, rc
}

type stubStatuses struct {
	mu        sync.Mutex
	byScope   map[uuid.UUID][]model.Status
	calls     int
	createErr error
	created   []model.Status
}

func (s *stubStatuses) GetByScope(_ context.Context, scopeID uuid.UUID) ([]model.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.byScope[scopeID], nil
}

func (s *stubStatuses) Create(_ context.Context, status *model.Status) error {
	if s.createErr != nil {
		return s.createErr
	}
	status.ID = uuid.New()
	s.created = append(s.created, *status)
	return nil
}

func (s *stubStatuses) Update(context.Context, uuid.UUID, model.StatusFields) error {
	return repository.ErrStatusNotFound
}

func (s *stubStatuses) BulkUpsert(context.Context, []model.Status) error { return nil }

func (s *stubStatuses) Delete(context.Context, uuid.UUID) error { return nil }

type stubTasks struct {
	byScope map[uuid.UUID][]model.Task
	err     error
}

func (s *stubTasks) GetByScope(_ context.Context, scopeID uuid.UUID) ([]model.Task, error) {
	return s.byScope[scopeID], s.err
}

func (s *stubTasks) UpdateStatus(context.Context, uuid.UUID, uuid.UUID) error {
	return repository.ErrTaskNotFound
}

func TestFeed_PublishSubscribe(t *testing.T) {
	_, rc := newRedis(t)
	log, _ := logtest.NewNullLogger()
	feed := NewFeed(rc, "board-changes", log)

	got := make(chan model.ChangeEvent, 4)
	sub, err := feed.Subscribe(context.Background(), model.TableTasks, func(ev model.ChangeEvent) {
		got <- ev
	})
	require.NoError(t, err)
	defer sub.Close()

	scopeID := uuid.New()
	require.NoError(t, feed.Publish(context.Background(), model.ChangeEvent{
		Table: model.TableStatuses, ScopeID: scopeID, RecordID: uuid.New(), Op: model.ChangeInsert,
	}))
	want := model.ChangeEvent{Table: model.TableTasks, ScopeID: scopeID, RecordID: uuid.New(), Op: model.ChangeUpdate}
	require.NoError(t, feed.Publish(context.Background(), want))

	select {
	case ev := <-got:
		// statuses events are filtered out, so the first one delivered is the task event
		assert.Equal(t, want, ev)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestFeed_SkipsMalformedPayload(t *testing.T) {
	_, rc := newRedis(t)
	log, hook := logtest.NewNullLogger()
	feed := NewFeed(rc, "board-changes", log)

	got := make(chan model.ChangeEvent, 1)
	sub, err := feed.Subscribe(context.Background(), model.TableTasks, func(ev model.ChangeEvent) {
		got <- ev
	})
	require.NoError(t, err)

	require.NoError(t, rc.Publish(context.Background(), "board-changes", "not json").Err())
	want := model.ChangeEvent{Table: model.TableTasks, ScopeID: uuid.New(), Op: model.ChangeDelete}
	require.NoError(t, feed.Publish(context.Background(), want))

	select {
	case ev := <-got:
		assert.Equal(t, want, ev)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	require.NoError(t, sub.Close())
	assert.NotEmpty(t, hook.AllEntries())
}

func TestFeed_CloseStopsDelivery(t *testing.T) {
	_, rc := newRedis(t)
	log, _ := logtest.NewNullLogger()
	feed := NewFeed(rc, "board-changes", log)

	var mu sync.Mutex
	calls := 0
	sub, err := feed.Subscribe(context.Background(), model.TableTasks, func(model.ChangeEvent) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	require.NoError(t, feed.Publish(context.Background(), model.ChangeEvent{Table: model.TableTasks}))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}

func TestCache_ReadThroughAndEvict(t *testing.T) {
	m, rc := newRedis(t)
	cache := NewCache(rc, time.Minute)
	scopeID := uuid.New()
	repo := &stubStatuses{byScope: map[uuid.UUID][]model.Status{
		scopeID: {{ID: uuid.New(), ScopeID: scopeID, Label: "To Do"}},
	}}

	first, err := cache.Statuses(context.Background(), scopeID, repo.GetByScope)
	require.NoError(t, err)
	second, err := cache.Statuses(context.Background(), scopeID, repo.GetByScope)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)
	assert.True(t, m.Exists(statusesCacheKey(scopeID)))

	cache.Evict(context.Background(), scopeID)
	assert.False(t, m.Exists(statusesCacheKey(scopeID)))

	_, err = cache.Statuses(context.Background(), scopeID, repo.GetByScope)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestCache_EvictDuringLoadSkipsStore(t *testing.T) {
	// Arrange: the event for a newer write evicts while the old rows are in flight
	m, rc := newRedis(t)
	cache := NewCache(rc, time.Minute)
	scopeID := uuid.New()
	stale := []model.Status{{ID: uuid.New(), ScopeID: scopeID, Label: "To Do"}}
	calls := 0
	load := func(ctx context.Context, id uuid.UUID) ([]model.Status, error) {
		calls++
		if calls == 1 {
			cache.Evict(ctx, id)
		}
		return stale, nil
	}

	// Act
	got, err := cache.Statuses(context.Background(), scopeID, load)

	// Assert: the caller still gets its rows, the cache stays empty
	require.NoError(t, err)
	assert.Equal(t, stale, got)
	assert.False(t, m.Exists(statusesCacheKey(scopeID)))

	_, err = cache.Statuses(context.Background(), scopeID, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, m.Exists(statusesCacheKey(scopeID)))
}

func TestCache_CorruptEntryFallsBack(t *testing.T) {
	m, rc := newRedis(t)
	cache := NewCache(rc, time.Minute)
	scopeID := uuid.New()
	repo := &stubStatuses{byScope: map[uuid.UUID][]model.Status{
		scopeID: {{ID: uuid.New(), ScopeID: scopeID, Label: "Review"}},
	}}
	require.NoError(t, m.Set(statusesCacheKey(scopeID), "{broken"))

	statuses, err := cache.Statuses(context.Background(), scopeID, repo.GetByScope)

	require.NoError(t, err)
	assert.Len(t, statuses, 1)
	assert.Equal(t, 1, repo.calls)
}

func TestCache_ZeroTTLDisables(t *testing.T) {
	m, rc := newRedis(t)
	cache := NewCache(rc, 0)
	scopeID := uuid.New()
	repo := &stubStatuses{}

	_, _ = cache.Statuses(context.Background(), scopeID, repo.GetByScope)
	_, _ = cache.Statuses(context.Background(), scopeID, repo.GetByScope)

	assert.Equal(t, 2, repo.calls)
	assert.False(t, m.Exists(statusesCacheKey(scopeID)))
}

type recordingPublisher struct {
	events []model.ChangeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.ChangeEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func TestCache_PublisherEvictsBeforeForwarding(t *testing.T) {
	m, rc := newRedis(t)
	cache := NewCache(rc, time.Minute)
	scopeID := uuid.New()
	require.NoError(t, m.Set(tasksCacheKey(scopeID), "[]"))
	next := &recordingPublisher{}

	err := cache.Publisher(next).Publish(context.Background(), model.ChangeEvent{Table: model.TableTasks, ScopeID: scopeID})

	require.NoError(t, err)
	assert.False(t, m.Exists(tasksCacheKey(scopeID)))
	assert.Len(t, next.events, 1)
}

func TestStore_FetchKeepsScopeOrder(t *testing.T) {
	_, rc := newRedis(t)
	a, b := uuid.New(), uuid.New()
	statuses := &stubStatuses{byScope: map[uuid.UUID][]model.Status{
		a: {{ID: uuid.New(), ScopeID: a, Label: "Done"}},
		b: {{ID: uuid.New(), ScopeID: b, Label: "To Do"}, {ID: uuid.New(), ScopeID: b, Label: "Done"}},
	}}
	tasks := &stubTasks{byScope: map[uuid.UUID][]model.Task{
		b: {{ID: uuid.New(), ScopeID: b}},
	}}
	store := NewStore(statuses, tasks, NewCache(rc, time.Minute))

	got, err := store.FetchStatuses(context.Background(), []uuid.UUID{b, a})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, b, got[0].ScopeID)
	assert.Equal(t, a, got[2].ScopeID)

	gotTasks, err := store.FetchTasks(context.Background(), []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.Len(t, gotTasks, 1)
}

func TestStore_FetchTasksError(t *testing.T) {
	store := NewStore(&stubStatuses{}, &stubTasks{err: errors.New("connection refused")}, nil)

	_, err := store.FetchTasks(context.Background(), []uuid.UUID{uuid.New()})

	assert.ErrorContains(t, err, "connection refused")
}

func TestStore_TranslatesRepositoryErrors(t *testing.T) {
	statuses := &stubStatuses{createErr: repository.ErrDuplicateStatus}
	store := NewStore(statuses, &stubTasks{}, nil)

	_, err := store.CreateStatus(context.Background(), uuid.New(), "To Do", 0, "")
	assert.ErrorIs(t, err, board.ErrDuplicateLabel)
	assert.ErrorIs(t, err, repository.ErrDuplicateStatus)

	err = store.UpdateStatus(context.Background(), uuid.New(), model.StatusFields{})
	assert.ErrorIs(t, err, board.ErrStatusNotFound)

	err = store.UpdateTask(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
}

func TestStore_CreateStatusEvictsScope(t *testing.T) {
	m, rc := newRedis(t)
	scopeID := uuid.New()
	require.NoError(t, m.Set(statusesCacheKey(scopeID), "[]"))
	statuses := &stubStatuses{}
	store := NewStore(statuses, &stubTasks{}, NewCache(rc, time.Minute))

	created, err := store.CreateStatus(context.Background(), scopeID, "Editing", 2, "#00f")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 2, created.Position)
	assert.False(t, m.Exists(statusesCacheKey(scopeID)))
}

func TestLocalFeed_PublishSubscribe(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	feed := NewLocalFeed(log)

	got := make(chan model.ChangeEvent, 4)
	sub, err := feed.Subscribe(context.Background(), model.TableTasks, func(ev model.ChangeEvent) {
		got <- ev
	})
	require.NoError(t, err)
	defer sub.Close()

	scopeID := uuid.New()
	require.NoError(t, feed.Publish(context.Background(), model.ChangeEvent{
		Table: model.TableStatuses, ScopeID: scopeID, Op: model.ChangeInsert,
	}))
	want := model.ChangeEvent{Table: model.TableTasks, ScopeID: scopeID, RecordID: uuid.New(), Op: model.ChangeUpdate}
	require.NoError(t, feed.Publish(context.Background(), want))

	select {
	case ev := <-got:
		assert.Equal(t, want, ev)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestLocalFeed_CloseStopsDelivery(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	feed := NewLocalFeed(log)

	var mu sync.Mutex
	delivered := 0
	sub, err := feed.Subscribe(context.Background(), model.TableStatuses, func(model.ChangeEvent) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	require.NoError(t, feed.Publish(context.Background(), model.ChangeEvent{Table: model.TableStatuses, ScopeID: uuid.New()}))

	feed.mu.RLock()
	assert.Empty(t, feed.subs)
	feed.mu.RUnlock()
	mu.Lock()
	assert.Zero(t, delivered)
	mu.Unlock()
}
