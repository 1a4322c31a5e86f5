package history

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list key used when none is configured.
const DefaultRedisKey = "tokenscope:search_history"

// RedisStore keeps history in a Redis list, head first.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Read(ctx context.Context) ([]string, error) {
	entries, err := s.client.LRange(ctx, s.key, 0, MaxEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}
	return normalize(entries), nil
}

func (s *RedisStore) Write(ctx context.Context, entries []string) error {
	entries = normalize(entries)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(entries) > 0 {
			values := make([]interface{}, len(entries))
			for i, e := range entries {
				values[i] = e
			}
			pipe.RPush(ctx, s.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write history to redis: %w", err)
	}
	return nil
}

// Record removes any earlier occurrence, pushes token to the head and trims
// the list in one transaction.
func (s *RedisStore) Record(ctx context.Context, token string) ([]string, error) {
	var entries *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, s.key, 0, token)
		pipe.LPush(ctx, s.key, token)
		pipe.LTrim(ctx, s.key, 0, MaxEntries-1)
		entries = pipe.LRange(ctx, s.key, 0, MaxEntries-1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record history in redis: %w", err)
	}
	return entries.Val(), nil
}
