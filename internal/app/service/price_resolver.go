package service

import (
	"context"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/infrastructure/cache"
)

// NeutralPriceUSD is the placeholder unit price substituted when no price
// signal exists at all. It keeps downstream value computation defined; the
// ProvenanceDefault tag makes the substitution visible to callers.
const NeutralPriceUSD = 1.0

// priceResolverImpl implements port.PriceResolver on top of the price cache.
type priceResolverImpl struct {
	cache  *cache.Layered[float64]
	logger port.Logger
}

// NewPriceResolver creates a new price resolver backed by the given layered
// cache.
func NewPriceResolver(c *cache.Layered[float64], l port.Logger) port.PriceResolver {
	return &priceResolverImpl{cache: c, logger: l}
}

// Resolve returns the unit price for mint with its provenance. A stale
// in-memory value beats failing; total signal loss yields the tagged
// neutral default, never an error.
func (r *priceResolverImpl) Resolve(ctx context.Context, mint string) entity.PriceQuote {
	res, err := r.cache.Get(ctx, mint)
	if err != nil {
		r.logger.Warn("No price signal available, substituting neutral default",
			"mint", mint, "default", NeutralPriceUSD, "error", err)
		return entity.PriceQuote{Mint: mint, PriceUSD: NeutralPriceUSD, State: entity.ProvenanceDefault}
	}
	return entity.PriceQuote{Mint: mint, PriceUSD: res.Value, State: res.State}
}
