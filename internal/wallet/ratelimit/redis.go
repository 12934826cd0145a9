package ratelimit

import (
	"context"
	"strconv"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jetton-signer:ratelimit:"

// KEYS[1] window key; ARGV: now ms, cutoff ms, limit, ttl ms, member
var admitScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisLimiter shares the windows of all instances through a sorted set per caller.
type RedisLimiter struct {
	cfg    Config
	clock  time2.Clock
	client redis.Cmdable
}

func NewRedisLimiter(cfg Config, clock time2.Clock, client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{
		cfg:    cfg.withDefaults(),
		clock:  clock,
		client: client,
	}
}

func (l *RedisLimiter) Admit(ctx context.Context, callerID string) (bool, error) {
	now := l.clock.Now()
	cutoff := now.Add(-l.cfg.Window)

	admitted, err := admitScript.Run(ctx, l.client,
		[]string{redisKeyPrefix + callerID},
		now.UnixMilli(),
		cutoff.UnixMilli(),
		l.cfg.Limit,
		l.cfg.Window.Milliseconds(),
		strconv.FormatInt(now.UnixNano(), 10)+":"+uuid.NewString(),
	).Int()
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate rate limit")
	}

	return admitted == 1, nil
}
