package store

import (
	"context"
	"errors"

	"vmflow/internal/config"
	"vmflow/pkg/logging"

	"github.com/redis/go-redis/v9"
)

const redisSubsystem = "Store"

// RedisStore implements Store on top of a Redis server. It is the only
// synchronization point between horizontally scaled vmflow processes.
//
// Every operation is tolerant of an unreachable server: reads log the
// failure and return zero values, writes log the failure and report
// success to the caller. This matches the engine's contract that a store
// outage degrades orchestration rather than aborting it.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the configured Redis server.
// The connection is not probed here; go-redis establishes it lazily and
// the degradation rules cover a server that never comes up.
func NewRedisStore(cfg config.StoreConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		logging.Warn(redisSubsystem, "GET %s failed, returning empty value: %v", key, err)
		return "", nil
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		logging.Warn(redisSubsystem, "SET %s failed, value dropped: %v", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		logging.Warn(redisSubsystem, "DEL %v failed: %v", keys, err)
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	if err := s.client.RPush(ctx, key, args...).Err(); err != nil {
		logging.Warn(redisSubsystem, "RPUSH %s failed, %d value(s) dropped: %v", key, len(values), err)
	}
	return nil
}

func (s *RedisStore) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logging.Warn(redisSubsystem, "LRANGE %s failed, returning empty list: %v", key, err)
		return nil, nil
	}
	return vals, nil
}

func (s *RedisStore) Length(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logging.Warn(redisSubsystem, "LLEN %s failed, returning 0: %v", key, err)
		return 0, nil
	}
	return n, nil
}

func (s *RedisStore) Publish(ctx context.Context, channel, payload string) error {
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		logging.Warn(redisSubsystem, "PUBLISH %s failed, message dropped: %v", channel, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
