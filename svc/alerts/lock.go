package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lock coordinates runs across replicas.
type Lock interface {
	// Acquire tries to take key for ttl and returns a release func when it
	// succeeds.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// KeyStore is the Redis subset RedisLock needs. Get returns "" for a missing key.
type KeyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements Lock with SET NX and an owner token.
type RedisLock struct {
	store KeyStore
}

func NewRedisLock(store KeyStore) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis store required for lock")
	}
	return &RedisLock{store: store}, nil
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if key == "" {
		return nil, false, errors.New("lock key is required")
	}
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, owner, ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		value, err := l.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read lock owner: %w", err)
		}
		// Expired and taken by someone else, or already gone.
		if value != owner {
			return nil
		}
		if err := l.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}

// localLock serialises runs within one process when Redis is not configured.
type localLock struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func newLocalLock() *localLock {
	return &localLock{held: map[string]time.Time{}, now: time.Now}
}

func (l *localLock) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, false, nil
	}
	l.held[key] = now.Add(ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, true, nil
}
