package service

import (
	"context"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/infrastructure/cache"
)

// metadataResolverImpl implements port.MetadataResolver on top of the
// metadata cache. Symbol and name are cosmetic, so a registry outage
// degrades to the UNKNOWN sentinel instead of failing the caller.
type metadataResolverImpl struct {
	cache  *cache.Layered[entity.MetadataEntry]
	logger port.Logger
}

// NewMetadataResolver creates a new metadata resolver backed by the given
// layered cache.
func NewMetadataResolver(c *cache.Layered[entity.MetadataEntry], l port.Logger) port.MetadataResolver {
	return &metadataResolverImpl{cache: c, logger: l}
}

// Resolve returns display metadata for mint, or the sentinel entry when the
// registry is unreachable and nothing is cached.
func (r *metadataResolverImpl) Resolve(ctx context.Context, mint string) entity.MetadataEntry {
	res, err := r.cache.Get(ctx, mint)
	if err != nil {
		r.logger.Warn("Metadata resolution failed, using sentinel", "mint", mint, "error", err)
		return entity.UnknownMetadata(mint)
	}
	return res.Value
}
