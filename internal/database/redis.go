// Package database holds the Redis connection used by the history backend.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/tokenscope/internal/config"
)

type RedisClient struct {
	Client *redis.Client
}

// NewRedisConnection connects to the history Redis and pings it once.
func NewRedisConnection(ctx context.Context, cfg config.HistoryConfig, logger logrus.FieldLogger) (*RedisClient, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &RedisClient{Client: rdb}
	if err := client.HealthCheck(pingCtx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger != nil {
		logger.WithField("addr", cfg.RedisAddr).Debug("Successfully connected to Redis")
	}

	return client, nil
}

func (r *RedisClient) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return errors.New("redis client is nil")
	}
	return r.Client.Ping(ctx).Err()
}
