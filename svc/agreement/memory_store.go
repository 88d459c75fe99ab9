package agreement

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]Agreement
	seq  []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]Agreement)}
}

func (m *MemoryStore) Create(_ context.Context, a *Agreement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	m.rows[a.ID] = *a
	m.seq = append(m.seq, a.ID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID string, id uuid.UUID) (*Agreement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.rows[id]
	if !ok || a.UserID != userID {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]Agreement, error) {
	return m.filter(func(a Agreement) bool { return a.UserID == userID }, true), nil
}

func (m *MemoryStore) Count(_ context.Context, userID string) (int64, error) {
	return int64(len(m.filter(func(a Agreement) bool { return a.UserID == userID }, false))), nil
}

func (m *MemoryStore) Update(_ context.Context, a *Agreement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rows[a.ID]
	if !ok || cur.UserID != a.UserID {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	m.rows[a.ID] = *a
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rows[id]
	if !ok || cur.UserID != userID {
		return ErrNotFound
	}
	delete(m.rows, id)
	m.seq = slices.DeleteFunc(m.seq, func(v uuid.UUID) bool { return v == id })
	return nil
}

func (m *MemoryStore) DueForAlert(_ context.Context, date time.Time) ([]Agreement, error) {
	day := Date(date)
	return m.filter(func(a Agreement) bool {
		return a.AlertEnabled && a.Status == StatusActive && Date(a.ExpirationDate).Equal(day)
	}, false), nil
}

func (m *MemoryStore) ListUnexpired(_ context.Context) ([]Agreement, error) {
	return m.filter(func(a Agreement) bool { return a.Status != StatusExpired }, false), nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	m.rows[id] = a
	return nil
}

// filter returns matches in insertion order, or by expiration date when byExpiration is set.
func (m *MemoryStore) filter(keep func(Agreement) bool, byExpiration bool) []Agreement {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Agreement, 0)
	for _, id := range m.seq {
		if a := m.rows[id]; keep(a) {
			out = append(out, a)
		}
	}
	if byExpiration {
		slices.SortStableFunc(out, func(a, b Agreement) int {
			return cmp.Compare(a.ExpirationDate.Unix(), b.ExpirationDate.Unix())
		})
	}
	return out
}
