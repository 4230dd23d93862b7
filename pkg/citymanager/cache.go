package citymanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/citypark/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

// Cache holds configuration documents keyed by city.
type Cache interface {
	Get(ctx context.Context, city string) (models.CityConfig, bool, error)
	Set(ctx context.Context, cfg models.CityConfig) error
	Invalidate(ctx context.Context, city string) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(city string) string {
	return "city_config:" + city
}

func (c *RedisCache) Get(ctx context.Context, city string) (models.CityConfig, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(city)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CityConfig{}, false, nil
	}
	if err != nil {
		return models.CityConfig{}, false, err
	}
	var cfg models.CityConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.CityConfig{}, false, fmt.Errorf("decoding cached config for %s: %w", city, err)
	}
	return cfg, true, nil
}

func (c *RedisCache) Set(ctx context.Context, cfg models.CityConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(cfg.City), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, city string) error {
	return c.client.Del(ctx, cacheKey(city)).Err()
}
