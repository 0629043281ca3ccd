package port

import (
	"context"

	"porg/internal/domain/entity"
)

// RegistryClient looks up token display metadata from an external registry.
// Lookups may fail; callers are expected to substitute a sentinel.
type RegistryClient interface {
	LookupMetadata(ctx context.Context, mint string) (entity.MetadataEntry, error)
}

// PriceFeedClient looks up a unit price in USD from an external price feed.
type PriceFeedClient interface {
	LookupPrice(ctx context.Context, mint string) (float64, error)
}

// MetadataResolver resolves a mint to display metadata. It never fails:
// registry outages degrade to the UNKNOWN sentinel.
type MetadataResolver interface {
	Resolve(ctx context.Context, mint string) entity.MetadataEntry
}

// PriceResolver resolves a mint to a unit price with provenance. It never
// fails: total signal loss degrades to a tagged neutral default.
type PriceResolver interface {
	Resolve(ctx context.Context, mint string) entity.PriceQuote
}
