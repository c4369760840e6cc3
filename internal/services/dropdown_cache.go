package services

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/techupgradenow/edumanage/internal/config"
	"github.com/techupgradenow/edumanage/pkg/logger"
)

// DropdownCache stores bulk dropdown results per institution type id.
type DropdownCache interface {
	Get(ctx context.Context, institutionTypeID uint) (*AllDropdowns, bool)
	Set(ctx context.Context, institutionTypeID uint, v *AllDropdowns)
	// Invalidate drops every entry.
	Invalidate(ctx context.Context) error
	Backend() string
}

// InitDropdownCache picks the cache backend from config. A Redis backend that
// cannot be reached falls back to memory.
func InitDropdownCache(cfg *config.Config) DropdownCache {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	if cfg.UseRedisCache() {
		cache, err := NewRedisDropdownCache(&cfg.Redis, ttl)
		if err != nil {
			logger.Warnf("[DropdownCache] Redis unavailable, falling back to memory: %v", err)
			return NewMemoryDropdownCache(ttl)
		}
		logger.Infof("[DropdownCache] Redis cache at %s, ttl=%s", cfg.Redis.Addr, ttl)
		return cache
	}
	logger.Infof("[DropdownCache] Memory cache, ttl=%s", ttl)
	return NewMemoryDropdownCache(ttl)
}

type NoopDropdownCache struct{}

func (NoopDropdownCache) Get(context.Context, uint) (*AllDropdowns, bool) { return nil, false }
func (NoopDropdownCache) Set(context.Context, uint, *AllDropdowns)        {}
func (NoopDropdownCache) Invalidate(context.Context) error                { return nil }
func (NoopDropdownCache) Backend() string                                 { return "none" }

type memoryEntry struct {
	value    *AllDropdowns
	storedAt time.Time
}

// MemoryDropdownCache is a process-local TTL cache.
type MemoryDropdownCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[uint]memoryEntry
	now     func() time.Time
}

func NewMemoryDropdownCache(ttl time.Duration) *MemoryDropdownCache {
	return &MemoryDropdownCache{
		ttl:     ttl,
		entries: make(map[uint]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryDropdownCache) Get(_ context.Context, institutionTypeID uint) (*AllDropdowns, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[institutionTypeID]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryDropdownCache) Set(_ context.Context, institutionTypeID uint, v *AllDropdowns) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[institutionTypeID] = memoryEntry{value: v, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *MemoryDropdownCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[uint]memoryEntry)
	c.mu.Unlock()
	return nil
}

func (c *MemoryDropdownCache) Backend() string { return "memory" }

const redisDropdownPrefix = "dropdowns:all:"

// RedisDropdownCache shares bulk results between server instances.
type RedisDropdownCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDropdownCache(cfg *config.RedisConfig, ttl time.Duration) (*RedisDropdownCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedisDropdownCacheWithClient(client, ttl), nil
}

func NewRedisDropdownCacheWithClient(client *redis.Client, ttl time.Duration) *RedisDropdownCache {
	return &RedisDropdownCache{client: client, ttl: ttl}
}

func redisDropdownKey(institutionTypeID uint) string {
	return redisDropdownPrefix + strconv.FormatUint(uint64(institutionTypeID), 10)
}

func (c *RedisDropdownCache) Get(ctx context.Context, institutionTypeID uint) (*AllDropdowns, bool) {
	data, err := c.client.Get(ctx, redisDropdownKey(institutionTypeID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn().Err(err).Msg("[DropdownCache] redis get failed")
		}
		return nil, false
	}

	var v AllDropdowns
	if err := json.Unmarshal(data, &v); err != nil {
		logger.Warn().Err(err).Msg("[DropdownCache] corrupt cache entry")
		return nil, false
	}
	return &v, true
}

func (c *RedisDropdownCache) Set(ctx context.Context, institutionTypeID uint, v *AllDropdowns) {
	if c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisDropdownKey(institutionTypeID), data, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Msg("[DropdownCache] redis set failed")
	}
}

func (c *RedisDropdownCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisDropdownPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisDropdownCache) Backend() string { return "redis" }

func (c *RedisDropdownCache) Close() error {
	return c.client.Close()
}
