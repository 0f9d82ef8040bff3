package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	redisstorage "github.com/mcoot/tourneygate/internal/storage/redis"
)

type RedisLimiterSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	client  *redis.Client
	limiter *RedisLimiter
	ctx     context.Context
}

func TestRedisLimiterSuite(t *testing.T) {
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.limiter = NewRedis(s.client)
	s.ctx = context.Background()
}

func (s *RedisLimiterSuite) TearDownTest() {
	_ = s.client.Close()
	s.mini.Close()
}

func (s *RedisLimiterSuite) TestAllowsExactlyLimitCallsPerWindow() {
	for i := 1; i <= 5; i++ {
		ok, err := s.limiter.Allow(s.ctx, "u1", 5)
		s.Require().NoError(err)
		s.True(ok, "call %d", i)
	}
	ok, err := s.limiter.Allow(s.ctx, "u1", 5)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisLimiterSuite) TestWindowStartsOnFirstCall() {
	_, _ = s.limiter.Allow(s.ctx, "u1", 5)
	s.Equal(Window, s.mini.TTL(redisstorage.RateLimitKey("u1")))

	s.mini.FastForward(20 * time.Second)
	_, _ = s.limiter.Allow(s.ctx, "u1", 5)
	s.Equal(40*time.Second, s.mini.TTL(redisstorage.RateLimitKey("u1")))
}

func (s *RedisLimiterSuite) TestWindowExpiryResetsCount() {
	for i := 0; i < 6; i++ {
		_, _ = s.limiter.Allow(s.ctx, "u1", 5)
	}

	s.mini.FastForward(Window)

	ok, err := s.limiter.Allow(s.ctx, "u1", 5)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisLimiterSuite) TestUsersAreIndependent() {
	for i := 0; i < 5; i++ {
		_, _ = s.limiter.Allow(s.ctx, "u1", 5)
	}
	ok, err := s.limiter.Allow(s.ctx, "u2", 5)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisLimiterSuite) TestBackendErrorIsReturned() {
	s.mini.Close()
	_, err := s.limiter.Allow(s.ctx, "u1", 5)
	s.Error(err)
}
