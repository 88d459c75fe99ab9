package agreement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists agreements. Lookups scoped by user return ErrNotFound for
// agreements owned by someone else.
type Store interface {
	Create(ctx context.Context, a *Agreement) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*Agreement, error)
	List(ctx context.Context, userID string) ([]Agreement, error)
	Count(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, a *Agreement) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	// DueForAlert returns alert-enabled agreements with stored status active
	// that expire exactly on date, across all users.
	DueForAlert(ctx context.Context, date time.Time) ([]Agreement, error)

	// ListUnexpired returns every agreement whose stored status is not expired.
	ListUnexpired(ctx context.Context) ([]Agreement, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
