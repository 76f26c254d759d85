package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache 生成结果缓存
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache 基于 Redis 的缓存
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// CachedGenerator 相同的服务、模型和提示词直接返回缓存结果；缓存故障不影响生成
type CachedGenerator struct {
	next     Generator
	cache    Cache
	ttl      time.Duration
	provider string
	model    string
}

// NewCachedGenerator 包装生成器
func NewCachedGenerator(next Generator, cache Cache, provider, model string, ttl time.Duration) *CachedGenerator {
	if ttl <= 0 {
		ttl = constants.DefaultGenerationCacheTTL
	}
	return &CachedGenerator{next: next, cache: cache, ttl: ttl, provider: provider, model: model}
}

// CacheKey 计算缓存键
func CacheKey(provider, model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return constants.GenerationCacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (g *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(g.provider, g.model, prompt)
	if val, ok, err := g.cache.Get(ctx, key); err != nil {
		zap.L().Warn("读取生成缓存失败", zap.Error(err))
	} else if ok {
		zap.L().Debug("生成缓存命中", zap.String("key", key))
		return val, nil
	}

	out, err := g.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := g.cache.Set(ctx, key, out, g.ttl); err != nil {
		zap.L().Warn("写入生成缓存失败", zap.Error(err))
	}
	return out, nil
}
