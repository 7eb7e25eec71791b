package remote

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"workboard/internal/board"
	"workboard/internal/model"
)

// localBuffer matches the per-subscription channel size go-redis uses.
const localBuffer = 100

// LocalFeed is the in-process change feed used when redis is not configured.
// It has the same contract as Feed but only reaches boards of this process.
type LocalFeed struct {
	mu   sync.RWMutex
	subs map[*localSubscriber]struct{}
	log  logrus.FieldLogger
}

type localSubscriber struct {
	table  string
	events chan model.ChangeEvent
}

func NewLocalFeed(log logrus.FieldLogger) *LocalFeed {
	return &LocalFeed{subs: make(map[*localSubscriber]struct{}), log: log}
}

// Publish hands ev to every subscriber of its table without waiting for them.
func (f *LocalFeed) Publish(_ context.Context, ev model.ChangeEvent) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs {
		if s.table != ev.Table {
			continue
		}
		select {
		case s.events <- ev:
		default:
			f.log.WithField("table", ev.Table).Warn("subscriber is behind, dropping change event")
		}
	}
	return nil
}

// Subscribe calls onChange for every event on table until ctx is done or the
// subscription is closed.
func (f *LocalFeed) Subscribe(ctx context.Context, table string, onChange func(model.ChangeEvent)) (board.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &localSubscriber{table: table, events: make(chan model.ChangeEvent, localBuffer)}

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer func() {
			f.mu.Lock()
			delete(f.subs, s)
			f.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-s.events:
				onChange(ev)
			}
		}
	}()
	return sub, nil
}
