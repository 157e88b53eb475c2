package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	"PulseGate/pkg/cache"
)

const snapshotTTL = 24 * time.Hour

// KVSnapshotStore persists per-bucket snapshots in the KV store.
type KVSnapshotStore struct {
	kv cache.Service
}

// NewKVSnapshotStore creates a snapshot store.
func NewKVSnapshotStore(kv cache.Service) *KVSnapshotStore {
	return &KVSnapshotStore{kv: kv}
}

// WriteIfAbsent writes the snapshot only when the bucket cell is empty, so
// the first successful observation of a bucket is the one that sticks.
func (s *KVSnapshotStore) WriteIfAbsent(ctx context.Context, instID string, bucket int64, snap *models.Snapshot) (bool, error) {
	created, err := s.kv.SetNX(ctx, snapshotKey(instID, bucket), snap, snapshotTTL)
	if err != nil {
		return false, fmt.Errorf("snapshot write: %w", err)
	}
	return created, nil
}

// Read returns the snapshot for a bucket, or ErrSnapshotMissing.
func (s *KVSnapshotStore) Read(ctx context.Context, instID string, bucket int64) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.kv.Get(ctx, snapshotKey(instID, bucket), &snap)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, drepo.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("snapshot read: %w", err)
	}
	return &snap, nil
}
