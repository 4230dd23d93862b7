package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/citypark/platform/pkg/common/config"
	"github.com/citypark/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// RedisOptions maps the configuration onto client options.
func RedisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// GetRedis returns the shared client. A failed ping is logged but the client
// is still returned: the configuration cache degrades to store reads.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		opts := RedisOptions(config.Load())
		redisClient = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.WithError(err).WithField("addr", opts.Addr).Error("Failed to connect to Redis")
		} else {
			logger.Log.WithField("addr", opts.Addr).Info("Connected to Redis")
		}
	})

	return redisClient
}

func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
