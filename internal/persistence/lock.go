package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when another holder owns the lock.
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when releasing a lock that expired or was taken over.
	ErrLockNotHeld = errors.New("lock not held")
)

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker hands out named, expiring locks.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// NewLocker returns a Redis-backed locker when r is enabled and a
// process-local one otherwise.
func NewLocker(r *Redis, keyPrefix string) Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	if r.Enabled() {
		return &redisLocker{client: r.Client, keyPrefix: keyPrefix}
	}
	return &localLocker{held: map[string]time.Time{}}
}

type redisLocker struct {
	client    *redis.Client
	keyPrefix string
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lockKey := l.keyPrefix + key
	value := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, value, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return &redisLock{client: l.client, key: lockKey, value: value}, nil
}

type redisLock struct {
	client *redis.Client
	key    string
	value  string
}

func (lock *redisLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, lock.client, []string{lock.key}, lock.value).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// localLocker serializes holders inside one process. Entries expire like
// their Redis counterparts.
type localLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func (l *localLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.held[key]; ok && time.Now().Before(until) {
		return nil, ErrLockNotAcquired
	}
	until := time.Now().Add(ttl)
	l.held[key] = until
	return &localLock{locker: l, key: key, until: until}, nil
}

type localLock struct {
	locker *localLocker
	key    string
	until  time.Time
}

func (lock *localLock) Release(context.Context) error {
	lock.locker.mu.Lock()
	defer lock.locker.mu.Unlock()
	if current, ok := lock.locker.held[lock.key]; !ok || !current.Equal(lock.until) {
		return ErrLockNotHeld
	}
	delete(lock.locker.held, lock.key)
	return nil
}
