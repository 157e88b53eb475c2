package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"PulseGate/internal/domain/models"
	"PulseGate/pkg/cache"
)

const seriesTTL = 48 * time.Hour

// KVSeriesStore maintains the rolling 24h series per instrument. The series
// is stored as one JSON array; at 288 points of five fields the blob stays
// well under 32 KiB.
type KVSeriesStore struct {
	kv cache.Service
}

// NewKVSeriesStore creates a series store.
func NewKVSeriesStore(kv cache.Service) *KVSeriesStore {
	return &KVSeriesStore{kv: kv}
}

// AppendOnce appends the point unless lastBucket already equals the point's
// bucket, trims to the retention cap from the front, and refreshes TTLs.
func (s *KVSeriesStore) AppendOnce(ctx context.Context, instID string, pt models.SeriesPoint) (bool, error) {
	last, ok, err := s.LastBucket(ctx, instID)
	if err != nil {
		return false, err
	}
	if ok && last == pt.B {
		// Already anchored this bucket; keep TTLs fresh anyway.
		_, _ = s.kv.Expire(ctx, seriesKey(instID), seriesTTL)
		_, _ = s.kv.Expire(ctx, lastBucketKey(instID), seriesTTL)
		return false, nil
	}

	series, err := s.read(ctx, instID)
	if err != nil {
		return false, err
	}

	series = append(series, pt)
	if len(series) > models.SeriesMaxPoints {
		series = series[len(series)-models.SeriesMaxPoints:]
	}

	if err := s.kv.Set(ctx, seriesKey(instID), series, seriesTTL); err != nil {
		return false, fmt.Errorf("series write: %w", err)
	}
	if err := s.kv.Set(ctx, lastBucketKey(instID), strconv.FormatInt(pt.B, 10), seriesTTL); err != nil {
		return false, fmt.Errorf("lastBucket write: %w", err)
	}
	return true, nil
}

// Tail returns up to the last n points, oldest first.
func (s *KVSeriesStore) Tail(ctx context.Context, instID string, n int) ([]models.SeriesPoint, error) {
	series, err := s.read(ctx, instID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(series) > n {
		series = series[len(series)-n:]
	}
	return series, nil
}

// LastBucket returns the bucket index of the most recent append.
func (s *KVSeriesStore) LastBucket(ctx context.Context, instID string) (int64, bool, error) {
	var raw string
	err := s.kv.Get(ctx, lastBucketKey(instID), &raw)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lastBucket read: %w", err)
	}
	b, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return b, true, nil
}

func (s *KVSeriesStore) read(ctx context.Context, instID string) ([]models.SeriesPoint, error) {
	var series []models.SeriesPoint
	err := s.kv.Get(ctx, seriesKey(instID), &series)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("series read: %w", err)
	}
	return series, nil
}
