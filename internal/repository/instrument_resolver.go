package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	"PulseGate/pkg/cache"
	xlogger "PulseGate/pkg/logger"
)

const (
	instMapTTL  = 24 * time.Hour
	instListTTL = 12 * time.Hour
)

// CachedInstrumentResolver maps {BASE}USDT symbols to canonical perpetual
// instrument ids, memoizing hits and misses in the KV store. A miss is
// memoized as the __NONE__ sentinel so unknown symbols do not refetch the
// listing every tick.
type CachedInstrumentResolver struct {
	kv     cache.Service
	source drepo.MarketSource
	logger *xlogger.Logger
}

// NewCachedInstrumentResolver creates a resolver over the KV store.
func NewCachedInstrumentResolver(kv cache.Service, source drepo.MarketSource, logger *xlogger.Logger) *CachedInstrumentResolver {
	return &CachedInstrumentResolver{kv: kv, source: source, logger: logger}
}

// Resolve returns the canonical instrument id for a symbol, or
// ErrNoPerpMarket when the exchange lists no perpetual for it.
func (r *CachedInstrumentResolver) Resolve(ctx context.Context, symbol string) (string, error) {
	base := models.BaseOf(symbol)
	if base == "" {
		return "", fmt.Errorf("symbol %q is not a USDT pair", symbol)
	}

	var memo string
	err := r.kv.Get(ctx, instMapKey(base), &memo)
	if err == nil {
		if memo == models.NoneInstrument {
			return "", drepo.ErrNoPerpMarket
		}
		return memo, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		return "", fmt.Errorf("instmap read: %w", err)
	}

	guess := models.CanonicalInstID(base)

	listing, err := r.listing(ctx)
	if err != nil {
		// Listing unavailable: fall back to the canonical guess without
		// memoizing, so the next tick retries the listing.
		r.logger.Warn("instrument listing unavailable, using canonical guess",
			xlogger.String("symbol", symbol), xlogger.Error(err))
		return guess, nil
	}

	for _, inst := range listing {
		if inst.InstID == guess {
			if err := r.kv.Set(ctx, instMapKey(base), guess, instMapTTL); err != nil {
				r.logger.Warn("instmap memo write failed", xlogger.Error(err))
			}
			return guess, nil
		}
	}

	if err := r.kv.Set(ctx, instMapKey(base), models.NoneInstrument, instMapTTL); err != nil {
		r.logger.Warn("instmap sentinel write failed", xlogger.Error(err))
	}
	return "", drepo.ErrNoPerpMarket
}

// listing returns the cached SWAP instrument listing, fetching on miss.
func (r *CachedInstrumentResolver) listing(ctx context.Context) ([]models.Instrument, error) {
	var cached []models.Instrument
	err := r.kv.Get(ctx, instrumentListKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("instrument list read: %w", err)
	}

	fetched, err := r.source.Instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("instrument list fetch: %w", err)
	}
	if err := r.kv.Set(ctx, instrumentListKey, fetched, instListTTL); err != nil {
		r.logger.Warn("instrument list cache write failed", xlogger.Error(err))
	}
	return fetched, nil
}
