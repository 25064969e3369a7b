package routing

import (
	"context"
	"fmt"
	"sync"

	"github.com/dinehop/dinehop/core/logger"
	"github.com/dinehop/dinehop/core/model"
)

// DefaultParallelism bounds concurrent calls to the wrapped resolver.
const DefaultParallelism = 8

// CachedResolver memoizes point-to-point durations and gates calls to the
// wrapped resolver with a fixed-size semaphore, so that candidate scoring can
// issue many lookups concurrently without serializing on network latency.
// When the wrapped resolver fails the fast-mode fallback answers instead; a
// lookup never aborts a run.
type CachedResolver struct {
	inner    Resolver
	fallback FastResolver
	sem      chan struct{}
	log      logger.Logger

	mu    sync.Mutex
	cache map[string]float64
}

// NewCachedResolver wraps inner. parallelism <= 0 selects the default bound.
func NewCachedResolver(inner Resolver, parallelism int, log logger.Logger) *CachedResolver {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &CachedResolver{
		inner: inner,
		sem:   make(chan struct{}, parallelism),
		log:   log,
		cache: make(map[string]float64),
	}
}

func pairKey(a, b model.Coord) string {
	// Round to ~1m so equivalent coordinates share a cache entry.
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", a.Lat, a.Lon, b.Lat, b.Lon)
}

// Duration implements Resolver. Multi-leg sequences are resolved leg by leg
// so each leg benefits from the cache.
func (r *CachedResolver) Duration(ctx context.Context, coords ...model.Coord) (float64, error) {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		d, err := r.leg(ctx, coords[i-1], coords[i])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

func (r *CachedResolver) leg(ctx context.Context, from, to model.Coord) (float64, error) {
	key := pairKey(from, to)
	r.mu.Lock()
	if d, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return d, nil
	}
	r.mu.Unlock()

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	d, err := r.inner.Duration(ctx, from, to)
	<-r.sem
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if r.log != nil {
			r.log.Warnf("routing lookup failed, using fast fallback: %v", err)
		}
		d, _ = r.fallback.Duration(ctx, from, to)
	}
	r.mu.Lock()
	r.cache[key] = d
	r.mu.Unlock()
	return d, nil
}

// Geometry implements Resolver, falling back to straight segments on failure.
func (r *CachedResolver) Geometry(ctx context.Context, coords ...model.Coord) ([]model.Coord, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	geo, err := r.inner.Geometry(ctx, coords...)
	<-r.sem
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.fallback.Geometry(ctx, coords...)
	}
	return geo, nil
}

// Prefetch resolves all (from, to) pairs concurrently up to the semaphore
// bound, warming the cache before a scoring pass.
func (r *CachedResolver) Prefetch(ctx context.Context, pairs [][2]model.Coord) {
	var wg sync.WaitGroup
	for _, p := range pairs {
		wg.Add(1)
		go func(from, to model.Coord) {
			defer wg.Done()
			_, _ = r.leg(ctx, from, to)
		}(p[0], p[1])
	}
	wg.Wait()
}

// Size returns the number of memoized legs. Used by tests and metrics.
func (r *CachedResolver) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
