package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/ndavault/svc/plan"
)

// MemoryStore is an in-process Store used by tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]*Subscription
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUser: make(map[string]*Subscription),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Seed stores copies of subs as-is, overwriting existing records.
func (m *MemoryStore) Seed(subs ...*Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range subs {
		c := clone(s)
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		m.byUser[c.UserID] = c
	}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(sub), nil
}

func (m *MemoryStore) EnsureDefault(_ context.Context, userID, email string) (*Subscription, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.byUser[userID]
	if !ok {
		sub = m.newDefault(userID)
		m.byUser[userID] = sub
	}
	if email != "" {
		sub.Email = email
	}
	return clone(sub), nil
}

func (m *MemoryStore) UpsertByUser(_ context.Context, userID string, f Fields) (*Subscription, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertByUser(userID, f)
}

// UpsertByExternalID looks the record up and writes it under a single lock, so
// concurrent events for a new provider subscription cannot interleave.
func (m *MemoryStore) UpsertByExternalID(_ context.Context, externalID string, f Fields) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub := m.findByExternalID(externalID); sub != nil {
		return m.write(sub, f, false)
	}
	if f.UserID == "" {
		return nil, ErrNotFound
	}
	f.ExternalID = &externalID
	return m.upsertByUser(f.UserID, f)
}

// upsertByUser must be called with the lock held.
func (m *MemoryStore) upsertByUser(userID string, f Fields) (*Subscription, error) {
	if f.ExternalID != nil {
		if owner := m.findByExternalID(*f.ExternalID); owner != nil && owner.UserID != userID {
			return nil, ErrExternalIDConflict
		}
	}

	sub, ok := m.byUser[userID]
	if !ok {
		sub = m.newDefault(userID)
	}
	return m.write(sub, f, !ok)
}

// write must be called with the lock held.
func (m *MemoryStore) write(sub *Subscription, f Fields, insert bool) (*Subscription, error) {
	if f.stale(sub) {
		return clone(sub), ErrStaleEvent
	}

	next := clone(sub)
	f.apply(next)
	if next.PlanType == plan.Free && next.HasExternalID() {
		return nil, ErrFreePlanExternalID
	}
	if !insert {
		next.UpdatedAt = m.now()
	}
	m.byUser[next.UserID] = next
	return clone(next), nil
}

func (m *MemoryStore) newDefault(userID string) *Subscription {
	now := m.now()
	sub := Default(userID)
	sub.ID = uuid.New()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	return sub
}

func (m *MemoryStore) findByExternalID(externalID string) *Subscription {
	for _, s := range m.byUser {
		if s.ExternalID != nil && *s.ExternalID == externalID {
			return s
		}
	}
	return nil
}

func clone(s *Subscription) *Subscription {
	c := *s
	if s.ExternalID != nil {
		c.ExternalID = ptr(*s.ExternalID)
	}
	if s.CustomerID != nil {
		c.CustomerID = ptr(*s.CustomerID)
	}
	if s.CurrentPeriodStart != nil {
		c.CurrentPeriodStart = ptr(*s.CurrentPeriodStart)
	}
	if s.CurrentPeriodEnd != nil {
		c.CurrentPeriodEnd = ptr(*s.CurrentPeriodEnd)
	}
	if s.LastEventAt != nil {
		c.LastEventAt = ptr(*s.LastEventAt)
	}
	return &c
}
