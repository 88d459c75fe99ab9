package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultDedupeTTL = 24 * time.Hour

// KeyStore is the subset of Redis used for delivery deduplication.
type KeyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// IdempotencyGuard marks event ids as seen so redelivered events are skipped.
type IdempotencyGuard struct {
	store KeyStore
	ttl   time.Duration
	scope string
}

// NewIdempotencyGuard builds a guard whose keys live under "webhook:<scope>:".
// A non-positive ttl falls back to 24h.
func NewIdempotencyGuard(store KeyStore, scope string, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if scope == "" {
		return nil, errors.New("idempotency scope is required")
	}
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark reports whether eventID was already seen, marking it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.key(eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete forgets eventID so a failed delivery can be retried.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.key(eventID))
}

func (g *IdempotencyGuard) key(eventID string) string {
	return "webhook:" + g.scope + ":" + eventID
}
