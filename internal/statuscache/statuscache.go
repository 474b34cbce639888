// Package statuscache caches computed device-status snapshots. The cache is
// an explicit dependency injected into the API layer, with a fixed TTL and an
// invalidation hook called on every reservation or device write.
package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/availability"
)

// Cache stores device snapshots keyed by device id.
type Cache interface {
	Get(ctx context.Context, deviceID int64) (availability.Snapshot, bool)
	Set(ctx context.Context, deviceID int64, snap availability.Snapshot)
	// Invalidate drops a single device's entry. Zero drops everything.
	Invalidate(ctx context.Context, deviceID int64)
}

func key(deviceID int64) string {
	return fmt.Sprintf("device_status:%d", deviceID)
}

// memoryCache is the default in-process backend.
type memoryCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewMemory creates an in-process cache with the given TTL.
func NewMemory(ttl time.Duration) Cache {
	return &memoryCache{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *memoryCache) Get(_ context.Context, deviceID int64) (availability.Snapshot, bool) {
	v, found := c.store.Get(key(deviceID))
	if !found {
		return availability.Snapshot{}, false
	}
	return v.(availability.Snapshot), true
}

func (c *memoryCache) Set(_ context.Context, deviceID int64, snap availability.Snapshot) {
	c.store.Set(key(deviceID), snap, c.ttl)
}

func (c *memoryCache) Invalidate(_ context.Context, deviceID int64) {
	if deviceID == 0 {
		c.store.Flush()
		return
	}
	c.store.Delete(key(deviceID))
}

// redisCache shares snapshots between replicas.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache. The client is assumed to be
// connected; lookup failures degrade to cache misses.
func NewRedis(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, deviceID int64) (availability.Snapshot, bool) {
	raw, err := c.client.Get(ctx, key(deviceID)).Bytes()
	if err != nil {
		return availability.Snapshot{}, false
	}
	var snap availability.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return availability.Snapshot{}, false
	}
	return snap, true
}

func (c *redisCache) Set(ctx context.Context, deviceID int64, snap availability.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(deviceID), raw, c.ttl)
}

func (c *redisCache) Invalidate(ctx context.Context, deviceID int64) {
	if deviceID == 0 {
		iter := c.client.Scan(ctx, 0, "device_status:*", 0).Iterator()
		for iter.Next(ctx) {
			c.client.Del(ctx, iter.Val())
		}
		return
	}
	c.client.Del(ctx, key(deviceID))
}
