package locker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
)

var ErrLocked = errors.New("locker: key is held")

type Unlock func()

// Locker gives mutual exclusion per key. TryLock fails fast with ErrLocked
// when somebody else holds the key.
type Locker interface {
	TryLock(ctx context.Context, key string) (Unlock, error)
	Lock(ctx context.Context, key string) (Unlock, error)
}

type RedsyncLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedsyncLocker(rs *redsync.Redsync, expiry time.Duration) *RedsyncLocker {
	if expiry <= 0 {
		expiry = 8 * time.Second
	}
	return &RedsyncLocker{rs, expiry}
}

func (l *RedsyncLocker) TryLock(ctx context.Context, key string) (Unlock, error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(l.expiry))
	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, ErrLocked
		}
		return nil, err
	}
	return func() {
		// nolint:errcheck
		mutex.UnlockContext(context.WithoutCancel(ctx))
	}, nil
}

func (l *RedsyncLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(l.expiry))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	return func() {
		// nolint:errcheck
		mutex.UnlockContext(context.WithoutCancel(ctx))
	}, nil
}

// LocalLocker serializes within one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{})}
}

func (l *LocalLocker) TryLock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	return l.acquire(key), nil
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	for {
		l.mu.Lock()
		wait, ok := l.held[key]
		if !ok {
			unlock := l.acquire(key)
			l.mu.Unlock()
			return unlock, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// acquire must be called with l.mu held.
func (l *LocalLocker) acquire(key string) Unlock {
	done := make(chan struct{})
	l.held[key] = done
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
			close(done)
		})
	}
}
