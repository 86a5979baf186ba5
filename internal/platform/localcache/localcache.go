// Package localcache is the ephemeral key-value store behind quick notes
// and workspace patient lists. It is backed by redis; anything here may
// vanish and callers must treat a miss (or corrupt data) as an empty
// default, never as a failure.
package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("localcache: miss")

// KVStore is the minimal key-value surface the dashboard needs. The redis
// implementation is used in production; tests may substitute an in-memory
// fake.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore implements KVStore on a go-redis client.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewClient dials redis at addr and verifies connectivity.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// GetJSON loads key into dest. A miss, a read error, or corrupt JSON all
// leave dest untouched and report found=false; cached state is never
// allowed to break the caller.
func GetJSON(ctx context.Context, kv KVStore, key string, dest interface{}) (found bool) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, kv KVStore, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, string(raw), ttl)
}
