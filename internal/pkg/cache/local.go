package cache

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process stand-in for the Redis lock, used when the
// service runs on the memory storage driver.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]localLock
}

type localLock struct {
	value   string
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]localLock)}
}

func (l *LocalLocker) AcquireLock(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, ok := l.locks[key]; ok && now.Before(cur.expires) {
		return false, nil
	}
	l.locks[key] = localLock{value: value, expires: now.Add(ttl)}
	return true, nil
}

func (l *LocalLocker) ReleaseLock(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.locks[key]; ok && cur.value == value {
		delete(l.locks, key)
	}
	return nil
}
