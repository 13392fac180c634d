package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockTimeout = errors.New("timed out waiting for attempt lock")

// AttemptLocker serialises Record and Finish on the same attempt.
type AttemptLocker interface {
	Lock(ctx context.Context, attemptID uint) (unlock func(), err error)
}

type LockConfig struct {
	TTL   time.Duration
	Wait  time.Duration
	Retry time.Duration
}

var DefaultLockConfig = LockConfig{
	TTL:   10 * time.Second,
	Wait:  5 * time.Second,
	Retry: 25 * time.Millisecond,
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

type redisLocker struct {
	client *redis.Client
	config LockConfig
}

// NewRedisLocker returns a lock shared by every instance using the same Redis.
func NewRedisLocker(client *redis.Client, config LockConfig) AttemptLocker {
	return &redisLocker{client: client, config: config}
}

func attemptLockKey(attemptID uint) string {
	return fmt.Sprintf("lock:attempt:%d", attemptID)
}

func (l *redisLocker) Lock(ctx context.Context, attemptID uint) (func(), error) {
	key := attemptLockKey(attemptID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.config.Wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire attempt lock: %w", err)
		}
		if ok {
			return func() {
				releaseScript.Run(context.Background(), l.client, []string{key}, token)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.config.Retry):
		}
	}
}

type localLock struct {
	sem  chan struct{}
	refs int
}

type localLocker struct {
	mu    sync.Mutex
	locks map[uint]*localLock
	wait  time.Duration
}

// NewLocalLocker returns an in-process keyed mutex.
func NewLocalLocker(wait time.Duration) AttemptLocker {
	return &localLocker{
		locks: make(map[uint]*localLock),
		wait:  wait,
	}
}

func (l *localLocker) acquireRef(id uint) *localLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &localLock{sem: make(chan struct{}, 1)}
		l.locks[id] = lk
	}
	lk.refs++
	return lk
}

func (l *localLocker) releaseRef(id uint, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *localLocker) Lock(ctx context.Context, attemptID uint) (func(), error) {
	lk := l.acquireRef(attemptID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case lk.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.sem
				l.releaseRef(attemptID, lk)
			})
		}, nil
	case <-ctx.Done():
		l.releaseRef(attemptID, lk)
		return nil, ctx.Err()
	case <-timer.C:
		l.releaseRef(attemptID, lk)
		return nil, ErrLockTimeout
	}
}
