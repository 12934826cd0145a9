package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dropbox/godropbox/time2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/jetton-signer/internal/wallet/lock"
)

func newRedisLocker(t *testing.T, clock time2.Clock) (*lock.RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return lock.NewRedisLocker(client, clock, time.Second), mr
}

func lockers(t *testing.T, clock time2.Clock) map[string]lock.Locker {
	t.Helper()

	redisLocker, _ := newRedisLocker(t, clock)
	return map[string]lock.Locker{
		"local": lock.NewLocalLocker(clock),
		"redis": redisLocker,
	}
}

func TestLockIsExclusive(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1700000000, 0))

	for name, l := range lockers(t, clock) {
		t.Run(name, func(t *testing.T) {
			held, unlock, err := l.Lock(context.Background(), "wallet")
			require.NoError(t, err)
			require.NoError(t, held.Err())

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_, _, err = l.Lock(ctx, "wallet")
			require.Error(t, err)
			assert.ErrorIs(t, err, context.DeadlineExceeded)

			// other keys are independent
			_, unlockOther, err := l.Lock(context.Background(), "other-wallet")
			require.NoError(t, err)
			unlockOther()

			unlock()
			unlock()
			assert.Error(t, held.Err())
			assert.NotErrorIs(t, context.Cause(held), lock.ErrLockLost)

			_, unlock, err = l.Lock(context.Background(), "wallet")
			require.NoError(t, err)
			unlock()
		})
	}
}

func TestLockWaitsForRelease(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1700000000, 0))

	for name, l := range lockers(t, clock) {
		t.Run(name, func(t *testing.T) {
			_, unlock, err := l.Lock(context.Background(), "wallet")
			require.NoError(t, err)

			acquired := make(chan struct{})
			go func() {
				_, second, err := l.Lock(context.Background(), "wallet")
				if assert.NoError(t, err) {
					second()
				}
				close(acquired)
			}()

			select {
			case <-acquired:
				t.Fatal("lock acquired while held")
			case <-time.After(100 * time.Millisecond):
			}

			unlock()

			select {
			case <-acquired:
			case <-time.After(2 * time.Second):
				t.Fatal("lock not acquired after release")
			}
		})
	}
}

func TestLocalMarkExpires(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1700000000, 0))
	l := lock.NewLocalLocker(clock)
	ctx := context.Background()

	_, ok, err := l.LastSubmitted(ctx, "wallet")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.MarkSubmitted(ctx, "wallet", 41, clock.Now().Add(time.Minute)))

	seqno, ok, err := l.LastSubmitted(ctx, "wallet")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(41), seqno)

	clock.Advance(time.Minute)
	_, ok, err = l.LastSubmitted(ctx, "wallet")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisMarkExpires(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1700000000, 0))
	l, mr := newRedisLocker(t, clock)
	ctx := context.Background()

	require.NoError(t, l.MarkSubmitted(ctx, "wallet", 41, clock.Now().Add(time.Minute)))

	seqno, ok, err := l.LastSubmitted(ctx, "wallet")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(41), seqno)

	mr.FastForward(time.Minute)
	_, ok, err = l.LastSubmitted(ctx, "wallet")
	require.NoError(t, err)
	assert.False(t, ok)

	// already expired marks are not stored
	require.NoError(t, l.MarkSubmitted(ctx, "wallet", 42, clock.Now()))
	_, ok, err = l.LastSubmitted(ctx, "wallet")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLockExpiresWithTTL(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1700000000, 0))
	l, mr := newRedisLocker(t, clock)

	held, _, err := l.Lock(context.Background(), "wallet")
	require.NoError(t, err)

	// a crashed holder does not block forever
	mr.FastForward(time.Second)

	_, unlock, err := l.Lock(context.Background(), "wallet")
	require.NoError(t, err)
	defer unlock()

	// the previous holder learns that it lost the lock
	select {
	case <-held.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expired holder was not canceled")
	}
	assert.ErrorIs(t, context.Cause(held), lock.ErrLockLost)
}

func TestRedisLockIsExtendedWhileHeld(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1700000000, 0))
	l, mr := newRedisLocker(t, clock)
	l.WithRefreshInterval(10 * time.Millisecond)

	held, unlock, err := l.Lock(context.Background(), "wallet")
	require.NoError(t, err)

	key := "jetton-signer:lock:wallet"
	for i := 0; i < 3; i++ {
		mr.FastForward(800 * time.Millisecond)
		require.Eventually(t, func() bool {
			return mr.TTL(key) > 900*time.Millisecond
		}, 2*time.Second, 5*time.Millisecond)
	}

	assert.True(t, mr.Exists(key))
	assert.NoError(t, held.Err())

	unlock()
	assert.False(t, mr.Exists(key))
}

func TestRedisLockLostCancelsHolder(t *testing.T) {
	clock := time2.NewMockClock(time.Unix(1700000000, 0))
	l, mr := newRedisLocker(t, clock)
	l.WithRefreshInterval(10 * time.Millisecond)

	held, unlock, err := l.Lock(context.Background(), "wallet")
	require.NoError(t, err)
	defer unlock()

	key := "jetton-signer:lock:wallet"
	require.NoError(t, mr.Set(key, "other-instance"))

	select {
	case <-held.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("holder was not canceled after losing the lock")
	}
	assert.ErrorIs(t, context.Cause(held), lock.ErrLockLost)

	// the new owner's lock survives our release
	unlock()
	value, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", value)
}
