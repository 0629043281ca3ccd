package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/pkg/metrics"
)

// Backend is the persistent second layer of a Layered cache. Load must only
// return entries observed at or after notBefore; a zero notBefore disables
// the filter.
type Backend[V any] interface {
	Load(ctx context.Context, key string, notBefore time.Time) (V, bool, error)
	Store(ctx context.Context, key string, value V) error
}

// OriginFunc fetches a value from its origin (e.g. an HTTP API) on a full
// cache miss.
type OriginFunc[V any] func(ctx context.Context, key string) (V, error)

// Result is a cache lookup outcome: the value plus where it came from.
type Result[V any] struct {
	Value V
	State entity.Provenance
	Age   time.Duration
}

// Layered is a freshness-aware cache with three layers: a process-local
// in-memory slot, a persistent backend, and an origin fetch. When the origin
// fails and an in-memory value exists for the key, that value is served
// regardless of age.
//
// Entries are immutable value snapshots; a concurrent write race on the same
// key resolves as last-writer-wins. Callers always receive copies: plain
// value types copy on assignment, and types with reference fields must
// install a copy function via WithClone.
type Layered[V any] struct {
	name    string
	ttl     time.Duration
	mem     *gocache.Cache
	backend Backend[V]
	origin  OriginFunc[V]
	clone   func(V) V
	now     func() time.Time
	logger  port.Logger
}

type memEntry[V any] struct {
	value    V
	storedAt time.Time
}

// WithClone installs fn as the copy applied to values crossing the memory
// slot boundary. Value types with reference fields (slices, maps) need one,
// otherwise a caller holds aliases into the cached entry and can mutate it
// in place.
func (c *Layered[V]) WithClone(fn func(V) V) *Layered[V] {
	c.clone = fn
	return c
}

func (c *Layered[V]) copyOf(v V) V {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

// New creates a named Layered cache. A non-positive ttl means no freshness
// window: in-memory entries never expire (used for immutable metadata).
// backend and origin may be nil; now may be nil to use the wall clock.
func New[V any](name string, ttl time.Duration, backend Backend[V], origin OriginFunc[V], now func() time.Time, logger port.Logger) *Layered[V] {
	if now == nil {
		now = time.Now
	}
	// Expiry is handled against the injected clock, not by go-cache, so
	// expired entries stay resident and remain usable as stale fallbacks.
	return &Layered[V]{
		name:    name,
		ttl:     ttl,
		mem:     gocache.New(gocache.NoExpiration, 0),
		backend: backend,
		origin:  origin,
		now:     now,
		logger:  logger,
	}
}

// Get looks key up through the layers in order: memory, backend, origin.
// On a successful origin fetch the value is written to the backend and the
// memory slot before being returned. The returned error is non-nil only when
// every layer failed and no stale in-memory value exists.
func (c *Layered[V]) Get(ctx context.Context, key string) (Result[V], error) {
	now := c.now()

	if raw, found := c.mem.Get(key); found {
		e := raw.(memEntry[V])
		age := now.Sub(e.storedAt)
		if c.ttl <= 0 || age < c.ttl {
			metrics.CacheLookups.WithLabelValues(c.name, "memory").Inc()
			return Result[V]{Value: c.copyOf(e.value), State: entity.ProvenanceFresh, Age: age}, nil
		}
	}

	if c.backend != nil {
		value, ok, err := c.backend.Load(ctx, key, c.notBefore(now))
		if err != nil {
			c.logger.Warn("Cache backend load failed", "cache", c.name, "key", key, "error", err)
		} else if ok {
			c.mem.Set(key, memEntry[V]{value: c.copyOf(value), storedAt: now}, gocache.NoExpiration)
			metrics.CacheLookups.WithLabelValues(c.name, "store").Inc()
			return Result[V]{Value: value, State: entity.ProvenanceFresh}, nil
		}
	}

	if c.origin != nil {
		value, err := c.origin(ctx, key)
		if err == nil {
			if c.backend != nil {
				if serr := c.backend.Store(ctx, key, value); serr != nil {
					c.logger.Warn("Cache backend store failed", "cache", c.name, "key", key, "error", serr)
				}
			}
			c.mem.Set(key, memEntry[V]{value: c.copyOf(value), storedAt: now}, gocache.NoExpiration)
			metrics.CacheLookups.WithLabelValues(c.name, "origin").Inc()
			return Result[V]{Value: value, State: entity.ProvenanceFresh}, nil
		}

		if raw, found := c.mem.Get(key); found {
			e := raw.(memEntry[V])
			c.logger.Warn("Origin fetch failed, serving stale in-memory value",
				"cache", c.name, "key", key, "age", now.Sub(e.storedAt).String(), "error", err)
			metrics.CacheLookups.WithLabelValues(c.name, "stale").Inc()
			return Result[V]{Value: c.copyOf(e.value), State: entity.ProvenanceStale, Age: now.Sub(e.storedAt)}, nil
		}

		metrics.CacheLookups.WithLabelValues(c.name, "none").Inc()
		return Result[V]{}, err
	}

	metrics.CacheLookups.WithLabelValues(c.name, "none").Inc()
	return Result[V]{}, &entity.NotFoundError{What: c.name + " entry for " + key}
}

// Put writes a value to the memory slot and the backend, bypassing origin.
func (c *Layered[V]) Put(ctx context.Context, key string, value V) {
	c.mem.Set(key, memEntry[V]{value: c.copyOf(value), storedAt: c.now()}, gocache.NoExpiration)
	if c.backend != nil {
		if err := c.backend.Store(ctx, key, value); err != nil {
			c.logger.Warn("Cache backend store failed", "cache", c.name, "key", key, "error", err)
		}
	}
}

func (c *Layered[V]) notBefore(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(-c.ttl)
}
