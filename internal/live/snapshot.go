package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "workshop:"

// SnapshotCache persists the latest live snapshot per workshop in Redis so
// reconnecting clients and other instances rehydrate from the newest state
// instead of falling back to idle.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a snapshot cache with the given retention.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(workshopID uuid.UUID) string {
	return snapshotKeyPrefix + workshopID.String() + ":snapshot"
}

// Load returns the cached snapshot, or nil when none exists.
func (c *SnapshotCache) Load(ctx context.Context, workshopID uuid.UUID) (*WorkshopLiveState, error) {
	raw, err := c.client.Get(ctx, snapshotKey(workshopID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var state WorkshopLiveState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save stores the snapshot with the configured TTL.
func (c *SnapshotCache) Save(ctx context.Context, state *WorkshopLiveState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.client.Set(ctx, snapshotKey(state.WorkshopID), raw, c.ttl).Err()
}

// Delete drops the cached snapshot (workshop completed or removed).
func (c *SnapshotCache) Delete(ctx context.Context, workshopID uuid.UUID) error {
	return c.client.Del(ctx, snapshotKey(workshopID)).Err()
}
