package remote

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"workboard/internal/board"
	"workboard/internal/model"
)

const reconnectDelay = time.Second

// Feed is the change feed. Repositories publish to it after every write and
// board engines subscribe to it to learn when to reload.
type Feed struct {
	rc      *redis.Client
	channel string
	log     logrus.FieldLogger
}

func NewFeed(rc *redis.Client, channel string, log logrus.FieldLogger) *Feed {
	return &Feed{rc: rc, channel: channel, log: log}
}

func (f *Feed) Publish(ctx context.Context, ev model.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.rc.Publish(ctx, f.channel, data).Err()
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// Subscribe calls onChange for every event on table until ctx is done or the
// subscription is closed. The returned subscription is already listening.
func (f *Feed) Subscribe(ctx context.Context, table string, onChange func(model.ChangeEvent)) (board.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	ps := f.rc.Subscribe(ctx, f.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		cancel()
		return nil, err
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		f.listen(ctx, ps, table, onChange)
	}()
	return sub, nil
}

func (f *Feed) listen(ctx context.Context, ps *redis.PubSub, table string, onChange func(model.ChangeEvent)) {
	for {
		f.drain(ctx, ps, table, onChange)
		_ = ps.Close()
		if ctx.Err() != nil {
			return
		}
		f.log.WithField("channel", f.channel).Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
		ps = f.rc.Subscribe(ctx, f.channel)
	}
}

func (f *Feed) drain(ctx context.Context, ps *redis.PubSub, table string, onChange func(model.ChangeEvent)) {
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev model.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				f.log.WithError(err).Warn("unable to parse change event")
				continue
			}
			if ev.Table != table {
				continue
			}
			onChange(ev)
		}
	}
}
