// Package cache stores resolver detections so repeated uploads of the same
// bytes skip OCR.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"docsense/internal/domain"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisCache implements port.DetectionCache using Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return newRedisCache(client, cfg), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, cfg RedisConfig) *RedisCache {
	return newRedisCache(client, cfg)
}

func newRedisCache(client *redis.Client, cfg RedisConfig) *RedisCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "docsense:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: cfg.TTL}
}

// Get retrieves detections for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.Detection, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var detections []domain.Detection
	if err := json.Unmarshal(val, &detections); err != nil {
		return nil, fmt.Errorf("decoding cached detections: %w", err)
	}
	return detections, nil
}

// Set stores detections under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, detections []domain.Detection) error {
	data, err := json.Marshal(detections)
	if err != nil {
		return fmt.Errorf("encoding detections: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is an in-process detection cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	detections []domain.Detection
	expiresAt  time.Time
}

// NewMemoryCache creates an in-memory cache. A zero ttl never expires entries.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

// Get retrieves detections for key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.Detection, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	out := make([]domain.Detection, len(entry.detections))
	copy(out, entry.detections)
	return out, nil
}

// Set stores a copy of detections under key.
func (c *MemoryCache) Set(_ context.Context, key string, detections []domain.Detection) error {
	stored := make([]domain.Detection, len(detections))
	copy(stored, detections)

	entry := memoryEntry{detections: stored}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}
