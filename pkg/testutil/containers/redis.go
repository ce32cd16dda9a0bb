//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer backs the shared document cache. Client is handed to
// cache.NewRedis as is.
type RedisContainer struct {
	Container testcontainers.Container
	Client    redis.UniversalClient
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		abort(t, nil, "start redis: %v", err)
	}
	uri, err := container.ConnectionString(ctx)
	if err != nil {
		abort(t, container, "redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		abort(t, container, "parse redis URL %s: %v", uri, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		abort(t, container, "ping redis: %v", err)
	}
	return &RedisContainer{Container: container, Client: client}
}

// Reset drops every key so each test starts with a cold cache.
func (r *RedisContainer) Reset(ctx context.Context) error {
	return r.Client.FlushDB(ctx).Err()
}

// Keys lists the keys under prefix, e.g. the cached documents.
func (r *RedisContainer) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.Client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
