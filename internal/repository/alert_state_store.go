package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	"PulseGate/pkg/cache"
)

// KVAlertStateStore holds the evaluator's alert metadata. State keys carry
// no TTL; the heartbeat does.
type KVAlertStateStore struct {
	kv           cache.Service
	heartbeatKey string
	heartbeatTTL time.Duration
}

// NewKVAlertStateStore creates an alert-state store.
func NewKVAlertStateStore(kv cache.Service, heartbeatKey string, heartbeatTTL time.Duration) *KVAlertStateStore {
	return &KVAlertStateStore{kv: kv, heartbeatKey: heartbeatKey, heartbeatTTL: heartbeatTTL}
}

func (s *KVAlertStateStore) LastState(ctx context.Context, mode models.Mode, instID string) (models.State, bool, error) {
	var raw string
	err := s.kv.Get(ctx, lastStateKey(mode, instID), &raw)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lastState read: %w", err)
	}
	return models.State(raw), true, nil
}

func (s *KVAlertStateStore) LastSentAt(ctx context.Context, instID string) (int64, bool, error) {
	var raw string
	err := s.kv.Get(ctx, lastSentAtKey(instID), &raw)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lastSentAt read: %w", err)
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return ts, true, nil
}

func (s *KVAlertStateStore) LastHeartbeat(ctx context.Context) (*models.Heartbeat, error) {
	var hb models.Heartbeat
	err := s.kv.Get(ctx, s.heartbeatKey, &hb)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("heartbeat read: %w", err)
	}
	return &hb, nil
}

// Writer returns the mutation handle. With dry=true every write is a no-op,
// which is how dry-run invocations stay side-effect free on all exit paths.
func (s *KVAlertStateStore) Writer(dry bool) drepo.AlertStateWriter {
	if dry {
		return dryWriter{}
	}
	return &kvAlertWriter{store: s}
}

type kvAlertWriter struct {
	store *KVAlertStateStore
}

func (w *kvAlertWriter) SetLastState(ctx context.Context, mode models.Mode, instID string, st models.State) error {
	return w.store.kv.Set(ctx, lastStateKey(mode, instID), string(st), 0)
}

func (w *kvAlertWriter) MirrorLastState15m(ctx context.Context, instID string, st models.State) error {
	return w.store.kv.Set(ctx, lastState15mKey(instID), string(st), 0)
}

func (w *kvAlertWriter) SetLastSentAt(ctx context.Context, instID string, tsMillis int64) error {
	// lastSentAt is monotonic; never move it backwards.
	prev, ok, err := w.store.LastSentAt(ctx, instID)
	if err != nil {
		return err
	}
	if ok && prev >= tsMillis {
		return nil
	}
	return w.store.kv.Set(ctx, lastSentAtKey(instID), strconv.FormatInt(tsMillis, 10), 0)
}

func (w *kvAlertWriter) WriteHeartbeat(ctx context.Context, hb *models.Heartbeat) error {
	return w.store.kv.Set(ctx, w.store.heartbeatKey, hb, w.store.heartbeatTTL)
}

// dryWriter drops every write.
type dryWriter struct{}

func (dryWriter) SetLastState(context.Context, models.Mode, string, models.State) error { return nil }
func (dryWriter) MirrorLastState15m(context.Context, string, models.State) error        { return nil }
func (dryWriter) SetLastSentAt(context.Context, string, int64) error                    { return nil }
func (dryWriter) WriteHeartbeat(context.Context, *models.Heartbeat) error               { return nil }
