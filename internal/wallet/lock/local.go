package lock

import (
	"context"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
)

type mark struct {
	seqno uint32
	until time.Time
}

// LocalLocker coordinates submissions within a single process.
type LocalLocker struct {
	clock time2.Clock

	mu    sync.Mutex
	slots map[string]chan struct{}
	marks map[string]mark
}

func NewLocalLocker(clock time2.Clock) *LocalLocker {
	return &LocalLocker{
		clock: clock,
		slots: make(map[string]chan struct{}),
		marks: make(map[string]mark),
	}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (context.Context, Unlock, error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		held, cancel := context.WithCancel(ctx)
		var once sync.Once
		return held, func() {
			once.Do(func() {
				cancel()
				<-slot
			})
		}, nil
	case <-ctx.Done():
		return nil, nil, errors.Wrap(ctx.Err(), "failed to acquire submission lock")
	}
}

func (l *LocalLocker) LastSubmitted(_ context.Context, key string) (uint32, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.marks[key]
	if !ok {
		return 0, false, nil
	}
	if !l.clock.Now().Before(m.until) {
		delete(l.marks, key)
		return 0, false, nil
	}

	return m.seqno, true, nil
}

func (l *LocalLocker) MarkSubmitted(_ context.Context, key string, seqno uint32, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.marks[key] = mark{seqno: seqno, until: until}
	return nil
}
