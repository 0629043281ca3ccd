package store

import (
	"context"
	"time"

	"porg/internal/domain/entity"
	"porg/internal/infrastructure/cache"
)

// MetadataBackend adapts the metadata table to the layered cache.
func (s *Store) MetadataBackend() cache.Backend[entity.MetadataEntry] {
	return metadataBackend{s}
}

// PriceBackend adapts the price history table to the layered cache. Stores
// append an observation stamped at write time.
func (s *Store) PriceBackend() cache.Backend[float64] {
	return priceBackend{s}
}

// PortfolioBackend adapts portfolio snapshots to the layered cache.
func (s *Store) PortfolioBackend() cache.Backend[entity.Portfolio] {
	return portfolioBackend{s}
}

type metadataBackend struct{ s *Store }

func (b metadataBackend) Load(ctx context.Context, key string, _ time.Time) (entity.MetadataEntry, bool, error) {
	entry, err := b.s.GetMetadata(ctx, key)
	if err != nil || entry == nil {
		return entity.MetadataEntry{}, false, err
	}
	return *entry, true, nil
}

func (b metadataBackend) Store(ctx context.Context, _ string, value entity.MetadataEntry) error {
	return b.s.UpsertMetadata(ctx, value)
}

type priceBackend struct{ s *Store }

func (b priceBackend) Load(ctx context.Context, key string, notBefore time.Time) (float64, bool, error) {
	entry, err := b.s.LatestPrice(ctx, key, notBefore)
	if err != nil || entry == nil {
		return 0, false, err
	}
	return entry.PriceUSD, true, nil
}

func (b priceBackend) Store(ctx context.Context, key string, value float64) error {
	return b.s.InsertPrice(ctx, entity.PriceEntry{Mint: key, PriceUSD: value, ObservedAt: b.s.now()})
}

type portfolioBackend struct{ s *Store }

func (b portfolioBackend) Load(ctx context.Context, key string, notBefore time.Time) (entity.Portfolio, bool, error) {
	p, err := b.s.LatestPortfolio(ctx, key, notBefore)
	if err != nil || p == nil {
		return entity.Portfolio{}, false, err
	}
	return *p, true, nil
}

func (b portfolioBackend) Store(ctx context.Context, _ string, value entity.Portfolio) error {
	return b.s.SavePortfolio(ctx, value)
}
