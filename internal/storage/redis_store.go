package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Store that keeps keys under "calassist:<origin>:".
func NewRedisStore(client *redis.Client, origin string) Store {
	return &redisStore{client: client, prefix: "calassist:" + origin + ":"}
}

// NewRedisStoreFromURL parses url (falling back to a bare address) and pings
// the server before returning.
func NewRedisStoreFromURL(ctx context.Context, url, origin string) (Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opt.Addr, err)
	}
	return NewRedisStore(client, origin), nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete failed: %s: %w", key, err)
	}
	return nil
}
