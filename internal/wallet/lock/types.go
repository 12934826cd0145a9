package lock

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrLockLost is the cancellation cause of a held context whose lock expired or was taken over.
var ErrLockLost = errors.New("submission lock lost")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker serializes the sequence->submit section of a wallet and remembers the last
// sequence number submitted for it until the signed message expires.
type Locker interface {
	// Lock blocks until the key is held. The returned context is derived from ctx and is
	// canceled with ErrLockLost as cause once the lock can no longer be guaranteed;
	// everything done under the lock must use it.
	Lock(ctx context.Context, key string) (context.Context, Unlock, error)
	LastSubmitted(ctx context.Context, key string) (seqno uint32, ok bool, err error)
	MarkSubmitted(ctx context.Context, key string, seqno uint32, until time.Time) error
}
