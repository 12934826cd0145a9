package ratelimit

import (
	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// New creates the limiter of the given backend. The redis client is only required for BackendRedis.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func New(backend string, cfg Config, clock time2.Clock, client redis.Cmdable) (Limiter, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryLimiter(cfg, clock), nil
	case BackendRedis:
		if client == nil {
			return nil, errors.New("redis rate limiter requires a redis client")
		}
		return NewRedisLimiter(cfg, clock, client), nil
	default:
		return nil, errors.Errorf("unknown rate limit backend %q", backend)
	}
}
