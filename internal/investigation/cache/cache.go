// Package cache keeps read-path snapshots of investigations in Redis, keyed
// by investigation id and validated by ETag so a hit is served only when it
// still matches the stored progress and version.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fraudlens/internal/investigation/models"
	"fraudlens/pkg/platform/sentinel"
)

const snapshotKeyPrefix = "inv:snapshot:"

// Snapshot is the cached read model: the record plus its ETag at write time.
type Snapshot struct {
	Investigation *models.Investigation `json:"investigation"`
	ETag          string                `json:"etag"`
}

// SnapshotCache caches investigation snapshots with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache constructs a Redis-backed snapshot cache.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot, or sentinel.ErrNotFound on a miss. An
// entry whose ETag no longer matches its own content is treated as a miss
// and evicted; a stale snapshot must never be served.
func (c *SnapshotCache) Get(ctx context.Context, id string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, snapshotKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.evict(ctx, id)
		return nil, sentinel.ErrNotFound
	}
	if snap.Investigation == nil || models.ComputeETag(snap.Investigation) != snap.ETag {
		c.evict(ctx, id)
		return nil, sentinel.ErrNotFound
	}
	return &snap, nil
}

// Put stores the snapshot, computing its ETag from the record itself.
func (c *SnapshotCache) Put(ctx context.Context, inv *models.Investigation) error {
	snap := Snapshot{
		Investigation: inv,
		ETag:          models.ComputeETag(inv),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKeyPrefix+inv.ID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot after a write.
func (c *SnapshotCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, snapshotKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}

func (c *SnapshotCache) evict(ctx context.Context, id string) {
	_ = c.client.Del(ctx, snapshotKeyPrefix+id).Err()
}
