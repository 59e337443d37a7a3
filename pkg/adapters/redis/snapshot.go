package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ErrSnapshotNotFound is returned by LoadSnapshot for an unknown or expired UID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// never is the index score of snapshots without expiry (2100-01-01).
const never = 4102444800

// SaveSnapshot stores snap under its UID and indexes it.
func (m *Mirror) SaveSnapshot(ctx context.Context, snap *domain.TreeSnapshot) error {
	if snap.UID == "" {
		return fmt.Errorf("snapshot UID cannot be empty")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	score := float64(time.Now().Add(m.ttl).Unix())
	if m.ttl == 0 {
		score = never
	}

	pipe := m.client.Pipeline()
	pipe.Set(ctx, m.snapshotKey(snap.UID), data, m.ttl)
	pipe.ZAdd(ctx, m.indexKey(), backend.Z{Score: score, Member: snap.UID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the snapshot of tree uid.
func (m *Mirror) LoadSnapshot(ctx context.Context, uid string) (*domain.TreeSnapshot, error) {
	val, err := m.client.Get(ctx, m.snapshotKey(uid)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.TreeSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the snapshot of tree uid.
func (m *Mirror) DeleteSnapshot(ctx context.Context, uid string) error {
	pipe := m.client.Pipeline()
	pipe.Del(ctx, m.snapshotKey(uid))
	pipe.ZRem(ctx, m.indexKey(), uid)
	_, err := pipe.Exec(ctx)
	return err
}

// ListSnapshots returns the UIDs of stored snapshots. Expired entries are
// pruned from the index on the way.
func (m *Mirror) ListSnapshots(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := m.client.ZRemRangeByScore(ctx, m.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired snapshots: %w", err)
	}

	uids, err := m.client.ZRange(ctx, m.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return uids, nil
}
