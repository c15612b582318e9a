package acquire

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"docsense/internal/cache"
	"docsense/internal/domain"
	"docsense/internal/port"
)

// CachedResolver memoizes resolver output by content hash.
type CachedResolver struct {
	next     TextSource
	cache    port.DetectionCache
	strategy domain.FallbackStrategy
	log      zerolog.Logger
}

// NewCachedResolver wraps next with a detection cache.
func NewCachedResolver(next TextSource, store port.DetectionCache, strategy domain.FallbackStrategy, log zerolog.Logger) *CachedResolver {
	return &CachedResolver{next: next, cache: store, strategy: strategy, log: log}
}

// Resolve returns cached detections when present, otherwise resolves and stores
// the result. Empty and error results are not cached.
func (c *CachedResolver) Resolve(ctx context.Context, raw domain.RawFile, threshold float64) []domain.Detection {
	key := CacheKey(raw.Data, c.strategy, threshold)

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		c.log.Debug().Str("file", raw.Filename).Msg("resolver cache hit")
		return cached
	case !errors.Is(err, cache.ErrCacheMiss):
		c.log.Warn().Err(err).Msg("resolver cache read failed")
	}

	detections := c.next.Resolve(ctx, raw, threshold)
	if cacheable(detections) {
		if err := c.cache.Set(ctx, key, detections); err != nil {
			c.log.Warn().Err(err).Msg("resolver cache write failed")
		}
	}
	return detections
}

// CacheKey identifies a resolution by content, strategy and threshold.
func CacheKey(data []byte, strategy domain.FallbackStrategy, threshold float64) string {
	sum := sha256.Sum256(data)
	return "detections:" + string(strategy) + ":" + strconv.FormatFloat(threshold, 'f', 4, 64) + ":" + hex.EncodeToString(sum[:])
}

func cacheable(detections []domain.Detection) bool {
	if len(detections) == 0 {
		return false
	}
	for _, d := range detections {
		if d.Source == domain.SourceError {
			return false
		}
	}
	return true
}
