//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"typeindex/internal/typeindex/adapters/solidpod/cache"
	"typeindex/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Redis
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = cache.NewRedis(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.Reset(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	uri := "https://alice.example/settings/publicTypeIndex.ttl"
	entry := cache.Entry{ETag: `W/"42"`, ContentType: "text/turtle", Body: []byte("<> a <x> .")}

	s.Require().NoError(s.cache.Set(ctx, uri, entry))
	got, found, err := s.cache.Get(ctx, uri)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(entry, got)

	ttl, err := s.redis.Client.TTL(ctx, "typeindex:doc:"+uri).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	keys, err := s.redis.Keys(ctx, "typeindex:doc:")
	s.Require().NoError(err)
	s.Equal([]string{"typeindex:doc:" + uri}, keys)

	s.Require().NoError(s.cache.Delete(ctx, uri))
	_, found, err = s.cache.Get(ctx, uri)
	s.Require().NoError(err)
	s.False(found)
}
