package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyStore narrows a go-redis client to plain string keys with TTLs.
// Missing keys are reported as ("", nil) from Get.
type KeyStore struct {
	client redis.UniversalClient
}

// NewKeyStore wraps client. It panics on a nil client.
func NewKeyStore(client redis.UniversalClient) *KeyStore {
	if client == nil {
		panic(ErrNilClient)
	}
	return &KeyStore{client: client}
}

// SetNX stores value under key only if the key does not exist yet.
// It reports whether the value was written.
func (s *KeyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

// Get returns the value stored under key.
func (s *KeyStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Del removes the given keys. Missing keys are not an error.
func (s *KeyStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
