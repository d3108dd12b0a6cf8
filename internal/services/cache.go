package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned by Get when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// cachePrefix namespaces every key this service writes so Clear never touches
// other tenants of a shared redis database
const cachePrefix = "registry:"

// CacheService stores retrieval results in redis, falling back to memory
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	// In-memory fallback cache when Redis is not available
	memCache map[string]cacheItem
	memMutex sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// NewCacheService creates a new cache service; client may be nil
func NewCacheService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CacheService {
	return &CacheService{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		memCache: make(map[string]cacheItem),
	}
}

// Get retrieves a value from cache
func (c *CacheService) Get(ctx context.Context, key string) (string, error) {
	key = cachePrefix + key

	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err == nil {
			c.hits.Add(1)
			c.logger.WithField("key", key).Debug("Cache hit (Redis)")
			return val, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis get error, falling back to memory cache")
		}
	}

	c.memMutex.RLock()
	item, exists := c.memCache[key]
	c.memMutex.RUnlock()

	if !exists || time.Now().After(item.expiresAt) {
		if exists {
			c.memMutex.Lock()
			delete(c.memCache, key)
			c.memMutex.Unlock()
		}
		c.misses.Add(1)
		return "", ErrCacheMiss
	}

	c.hits.Add(1)
	c.logger.WithField("key", key).Debug("Cache hit (memory)")
	return item.value, nil
}

// Set stores a value in cache with TTL
func (c *CacheService) Set(ctx context.Context, key string, value string) error {
	key = cachePrefix + key

	if c.client != nil {
		err := c.client.Set(ctx, key, value, c.ttl).Err()
		if err == nil {
			c.logger.WithField("key", key).Debug("Cache set (Redis)")
			return nil
		}
		c.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Redis set error, falling back to memory cache")
	}

	c.memMutex.Lock()
	c.memCache[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.memMutex.Unlock()

	c.logger.WithField("key", key).Debug("Cache set (memory)")
	return nil
}

// Delete removes a value from cache
func (c *CacheService) Delete(ctx context.Context, key string) error {
	key = cachePrefix + key

	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis delete error")
		}
	}

	c.memMutex.Lock()
	delete(c.memCache, key)
	c.memMutex.Unlock()

	c.logger.WithField("key", key).Debug("Cache delete")
	return nil
}

// Clear removes every key written by this service
func (c *CacheService) Clear(ctx context.Context) error {
	if c.client != nil {
		iter := c.client.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.WithField("error", err.Error()).Warn("Redis scan error")
		} else if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.WithField("error", err.Error()).Warn("Redis clear error")
			}
		}
	}

	c.memMutex.Lock()
	c.memCache = make(map[string]cacheItem)
	c.memMutex.Unlock()

	c.logger.Info("Cache cleared")
	return nil
}

// Exists checks if a key exists in cache
func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	key = cachePrefix + key

	if c.client != nil {
		count, err := c.client.Exists(ctx, key).Result()
		if err == nil {
			return count > 0, nil
		}
		c.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Redis exists error, checking memory cache")
	}

	c.memMutex.RLock()
	item, exists := c.memCache[key]
	c.memMutex.RUnlock()

	return exists && time.Now().Before(item.expiresAt), nil
}

// HitStats returns cache hits and misses since start
func (c *CacheService) HitStats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// GetStats returns cache statistics
func (c *CacheService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	if c.client != nil {
		info, err := c.client.Info(ctx, "memory").Result()
		if err == nil {
			stats["redis"] = map[string]interface{}{
				"available": true,
				"info":      info,
			}
		} else {
			stats["redis"] = map[string]interface{}{
				"available": false,
				"error":     err.Error(),
			}
		}
	} else {
		stats["redis"] = map[string]interface{}{
			"available": false,
		}
	}

	c.memMutex.RLock()
	memSize := len(c.memCache)
	c.memMutex.RUnlock()

	hits, misses := c.HitStats()
	stats["memory"] = map[string]interface{}{
		"size": memSize,
		"ttl":  c.ttl.String(),
	}
	stats["hits"] = hits
	stats["misses"] = misses

	return stats, nil
}

// Health returns cache service health status
func (c *CacheService) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.client.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	// Memory cache is always available
	health["memory"] = map[string]interface{}{
		"status": "healthy",
	}

	return health
}

func (c *CacheService) cleanupExpired() {
	c.memMutex.Lock()
	defer c.memMutex.Unlock()

	now := time.Now()
	for key, item := range c.memCache {
		if now.After(item.expiresAt) {
			delete(c.memCache, key)
		}
	}
}

// StartCleanupRoutine periodically evicts expired in-memory items until ctx is done
func (c *CacheService) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanupExpired()
			}
		}
	}()
}
