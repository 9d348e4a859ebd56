package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// RedisKV stores each key as a plain Redis string under a namespace.
type RedisKV struct {
	*Redis
	namespace string
}

// NewRedisKV builds a KV over an existing client. Keys are stored as
// "<namespace>:<key>".
func NewRedisKV(r *Redis, namespace string) *RedisKV {
	if namespace == "" {
		namespace = "eduscan"
	}
	return &RedisKV{Redis: r, namespace: namespace}
}

func (s *RedisKV) full(key string) string { return s.namespace + ":" + key }

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.Client.Get(ctx, s.full(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return s.Client.Set(ctx, s.full(key), value, 0).Err()
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.full(key)).Err()
}

// Keys walks the keyspace with SCAN.
func (s *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	cut := len(s.namespace) + 1
	iter := s.Client.Scan(ctx, 0, s.full(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[cut:])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisKV) Close() error {
	return s.Client.Close()
}
