// Package testutil holds Redis fixtures shared by package tests.
package testutil

import (
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/irfndi/tokenscope/internal/config"
)

// RedisTestAddrEnv selects a real Redis for GetTestRedisOptions.
const RedisTestAddrEnv = "REDIS_TEST_ADDR"

// GetTestRedisOptions targets REDIS_TEST_ADDR, or localhost:6379, on database 1.
func GetTestRedisOptions() *redis.Options {
	addr := os.Getenv(RedisTestAddrEnv)
	if addr == "" {
		addr = "localhost:6379"
	}
	return &redis.Options{Addr: addr, DB: 1}
}

// GetTestRedisClient returns a client for GetTestRedisOptions.
func GetTestRedisClient() *redis.Client {
	return redis.NewClient(GetTestRedisOptions())
}

// NewMiniRedis starts an in-process Redis and a client for it. Both are
// released when t finishes.
func NewMiniRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

// RedisHistoryConfig is a redis history backend pointed at addr.
func RedisHistoryConfig(addr, key string) config.HistoryConfig {
	return config.HistoryConfig{
		Backend:   config.HistoryRedis,
		RedisAddr: addr,
		Key:       key,
	}
}
