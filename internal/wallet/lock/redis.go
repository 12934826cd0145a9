package lock

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github/chapool/jetton-signer/internal/util"
)

const (
	redisLockPrefix = "jetton-signer:lock:"
	redisMarkPrefix = "jetton-signer:seqno:"

	DefaultLockTTL       = 2 * time.Minute
	DefaultRetryInterval = 50 * time.Millisecond
)

// deletes the lock only if it is still held by the given token
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// extends the lock only if it is still held by the given token
var refreshScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker coordinates submissions of all instances sharing a redis.
type RedisLocker struct {
	client        redis.Cmdable
	clock         time2.Clock
	ttl             time.Duration
	retryInterval   time.Duration
	refreshInterval time.Duration
}

func NewRedisLocker(client redis.Cmdable, clock time2.Clock, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	return &RedisLocker{
		client:          client,
		clock:           clock,
		ttl:             ttl,
		retryInterval:   DefaultRetryInterval,
		refreshInterval: ttl / 3,
	}
}

// WithRefreshInterval sets how often a held lock's TTL is extended.
func (l *RedisLocker) WithRefreshInterval(d time.Duration) *RedisLocker {
	if d > 0 && d < l.ttl {
		l.refreshInterval = d
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (context.Context, Unlock, error) {
	lockKey := redisLockPrefix + key
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to acquire submission lock")
		}
		if acquired {
			break
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, errors.Wrap(ctx.Err(), "failed to acquire submission lock")
		case <-timer.C:
		}
	}

	held, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.keepAlive(held, cancel, stop, key, lockKey, token)
	}()

	var once sync.Once
	return held, func() {
		once.Do(func() {
			close(stop)
			cancel(nil)
			<-stopped
			l.release(ctx, key, lockKey, token)
		})
	}, nil
}

// keepAlive extends the lock until stop is closed. It cancels held with ErrLockLost
// as soon as the lock cannot be extended.
func (l *RedisLocker) keepAlive(held context.Context, cancel context.CancelCauseFunc, stop <-chan struct{}, key string, lockKey string, token string) {
	ticker := time.NewTicker(l.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-held.Done():
			return
		case <-ticker.C:
		}

		extended, err := refreshScript.Run(held, l.client, []string{lockKey}, token, l.ttl.Milliseconds()).Int()
		if err == nil && extended == 1 {
			continue
		}
		if held.Err() != nil {
			return
		}

		log := util.LogFromContext(held).Error().Str("key", key)
		if err != nil {
			log = log.Err(err)
		}
		log.Msg("Submission lock lost")

		cancel(ErrLockLost)
		return
	}
}

func (l *RedisLocker) release(ctx context.Context, key string, lockKey string, token string) {
	// release even if the request context is already done
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil {
		util.LogFromContext(ctx).Error().Err(err).Str("key", key).Msg("Failed to release submission lock")
	}
}

func (l *RedisLocker) LastSubmitted(ctx context.Context, key string) (uint32, bool, error) {
	val, err := l.client.Get(ctx, redisMarkPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "failed to read last submitted seqno")
	}

	seqno, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, false, errors.Wrapf(err, "invalid last submitted seqno %q", val)
	}

	return uint32(seqno), true, nil
}

func (l *RedisLocker) MarkSubmitted(ctx context.Context, key string, seqno uint32, until time.Time) error {
	ttl := until.Sub(l.clock.Now())
	if ttl <= 0 {
		return nil
	}

	if err := l.client.Set(ctx, redisMarkPrefix+key, strconv.FormatUint(uint64(seqno), 10), ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store last submitted seqno")
	}

	return nil
}
