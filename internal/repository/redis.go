package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/pkg/logger"
)

const scanBatch = 500

type RedisStore struct {
	logger *logger.Logger
	client *redis.Client
}

func NewRedisStore(redisURL string, logger *logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return connectRedis(redis.NewClient(opts), logger)
}

// connectRedis pings client and takes ownership of it, closing it on failure.
func connectRedis(client *redis.Client, logger *logger.Logger) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Info("Successfully connected to Redis")
	return NewRedisStoreFromClient(client, logger), nil
}

func NewRedisStoreFromClient(client *redis.Client, logger *logger.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewStorageError("get", key, err)
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return models.NewStorageError("set", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return models.NewStorageError("delete", key, err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, models.NewStorageError("list", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// CompareAndSwap uses WATCH/MULTI: the transaction aborts if key changes between
// the read and EXEC.
func (r *RedisStore) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	swapped := false
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists = false
		} else if err != nil {
			return err
		}

		if old == nil && exists {
			return nil
		}
		if old != nil && (!exists || !bytes.Equal(current, old)) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if new == nil {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, new, 0)
			}
			return nil
		})
		if err != nil {
			return err
		}
		swapped = true
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, models.NewStorageError("compare-and-swap", key, err)
	}
	return swapped, nil
}
