package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryGuard remembers webhook delivery ids so replays can be acknowledged
// without being applied twice.
type DeliveryGuard interface {
	// Claim records id and reports whether this is the first time it was seen.
	Claim(ctx context.Context, id string) (bool, error)
	// Release forgets id so a failed delivery can be retried.
	Release(ctx context.Context, id string) error
}

const deliveryKeyPrefix = "portal:webhook:delivery:"

type redisDeliveryGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeliveryGuard(client *redis.Client, ttl time.Duration) DeliveryGuard {
	return &redisDeliveryGuard{client: client, ttl: ttl}
}

func DeliveryKey(id string) string {
	return deliveryKeyPrefix + id
}

func (g *redisDeliveryGuard) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := g.client.SetNX(ctx, DeliveryKey(id), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim delivery %s: %w", id, err)
	}
	return ok, nil
}

func (g *redisDeliveryGuard) Release(ctx context.Context, id string) error {
	if err := g.client.Del(ctx, DeliveryKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to release delivery %s: %w", id, err)
	}
	return nil
}

// memoryDeliveryGuard is the in-process guard used when Redis is not configured.
type memoryDeliveryGuard struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryDeliveryGuard(ttl time.Duration) DeliveryGuard {
	return &memoryDeliveryGuard{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

func (g *memoryDeliveryGuard) Claim(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.seen {
		if now.After(exp) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[id]; ok {
		return false, nil
	}
	g.seen[id] = now.Add(g.ttl)
	return true, nil
}

func (g *memoryDeliveryGuard) Release(ctx context.Context, id string) error {
	g.mu.Lock()
	delete(g.seen, id)
	g.mu.Unlock()
	return nil
}
