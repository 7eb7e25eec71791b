package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"workboard/internal/model"
	"workboard/internal/repository"
)

// Cache keeps the statuses and tasks of each department in redis. Entries are
// dropped on every write and every change event, so a board reload after an
// event always reaches the database. Each department also has a generation
// counter bumped on eviction; a load only fills the cache if no eviction
// happened while it ran.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache returns a cache with the given TTL. A nil client or a zero TTL
// disables caching; reads then always go to the loader.
const generationTTL = 24 * time.Hour

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{redis: client, ttl: ttl}
}

func (c *Cache) Statuses(ctx context.Context, scopeID uuid.UUID, load func(context.Context, uuid.UUID) ([]model.Status, error)) ([]model.Status, error) {
	return readThrough(ctx, c, scopeID, statusesCacheKey(scopeID), func(ctx context.Context) ([]model.Status, error) {
		return load(ctx, scopeID)
	})
}

func (c *Cache) Tasks(ctx context.Context, scopeID uuid.UUID, load func(context.Context, uuid.UUID) ([]model.Task, error)) ([]model.Task, error) {
	return readThrough(ctx, c, scopeID, tasksCacheKey(scopeID), func(ctx context.Context) ([]model.Task, error) {
		return load(ctx, scopeID)
	})
}

// Evict drops everything cached for the given departments.
func (c *Cache) Evict(ctx context.Context, scopeIDs ...uuid.UUID) {
	if c.redis == nil || len(scopeIDs) == 0 {
		return
	}
	_, _ = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range scopeIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Expire(ctx, generationKey(id), generationTTL)
			pipe.Del(ctx, statusesCacheKey(id), tasksCacheKey(id))
		}
		return nil
	})
}

// Publisher wraps next so the event's department is evicted before the event
// goes out. Subscribers reloading on the event then never see the old entry.
func (c *Cache) Publisher(next repository.Publisher) repository.Publisher {
	return evictingPublisher{cache: c, next: next}
}

type evictingPublisher struct {
	cache *Cache
	next  repository.Publisher
}

func (p evictingPublisher) Publish(ctx context.Context, ev model.ChangeEvent) error {
	p.cache.Evict(ctx, ev.ScopeID)
	if p.next == nil {
		return nil
	}
	return p.next.Publish(ctx, ev)
}

func readThrough[T any](ctx context.Context, c *Cache, scopeID uuid.UUID, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if items, ok := loadFromCache[T](ctx, c, key); ok {
		return items, nil
	}
	gen, cacheable := c.generation(ctx, scopeID)
	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.store(ctx, scopeID, gen, key, items)
	}
	return items, nil
}

func loadFromCache[T any](ctx context.Context, c *Cache, key string) ([]T, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the database without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return items, true
}

// generation reads the eviction counter of scopeID. A missing counter is the
// empty generation.
func (c *Cache) generation(ctx context.Context, scopeID uuid.UUID) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	gen, err := c.redis.Get(ctx, generationKey(scopeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", true
	}
	if err != nil {
		return "", false
	}
	return gen, true
}

// store writes v under key only while the generation of scopeID is still gen.
// An eviction racing the write aborts the transaction.
func (c *Cache) store(ctx context.Context, scopeID uuid.UUID, gen, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	genKey := generationKey(scopeID)
	_ = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)
}

func statusesCacheKey(scopeID uuid.UUID) string {
	return "statuses:" + scopeID.String()
}

func tasksCacheKey(scopeID uuid.UUID) string {
	return "tasks:" + scopeID.String()
}

func generationKey(scopeID uuid.UUID) string {
	return "gen:" + scopeID.String()
}
