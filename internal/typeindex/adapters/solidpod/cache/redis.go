package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "typeindex:doc:"

// Redis shares cached documents between server replicas.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, uri string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+uri).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return e, true, nil
}

func (r *Redis) Set(ctx context.Context, uri string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+uri, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, uri string) error {
	if err := r.client.Del(ctx, keyPrefix+uri).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
