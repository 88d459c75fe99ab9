package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/ndavault/pkg/pg"
	"github.com/dmitrymomot/ndavault/svc/plan"
)

const columns = `id, user_id, email, external_id, customer_id, plan_type, status,
	current_period_start, current_period_end, last_event_at, created_at, updated_at`

// PostgresStore keeps subscriptions in the subscriptions table.
type PostgresStore struct {
	db      pg.DBTX
	timeout time.Duration
}

// NewPostgresStore creates a store on top of a pool or transaction.
// A zero timeout leaves deadlines to the caller's context.
func NewPostgresStore(db pg.DBTX, timeout time.Duration) *PostgresStore {
	if db == nil {
		panic("subscription: db is required")
	}
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Subscription, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `SELECT `+columns+` FROM subscriptions WHERE user_id = $1`, userID)
	sub, err := scan(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) getByExternalID(ctx context.Context, externalID string) (*Subscription, error) {
	row := s.db.QueryRow(ctx, `SELECT `+columns+` FROM subscriptions WHERE external_id = $1`, externalID)
	sub, err := scan(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription by external id: %w", err)
	}
	return sub, nil
}

// EnsureDefault relies on the unique user_id: the losing side of a race
// turns into an update that only touches the email.
func (s *PostgresStore) EnsureDefault(ctx context.Context, userID, email string) (*Subscription, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		INSERT INTO subscriptions (user_id, email, plan_type, status)
		VALUES ($1, $2, 'free', 'active')
		ON CONFLICT (user_id) DO UPDATE
		SET email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE subscriptions.email END
		RETURNING `+columns, userID, email)

	sub, err := scan(row)
	if err != nil {
		return nil, fmt.Errorf("ensure default subscription: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) UpsertByUser(ctx context.Context, userID string, f Fields) (*Subscription, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		INSERT INTO subscriptions (
			user_id, email, external_id, customer_id, plan_type, status,
			current_period_start, current_period_end, last_event_at
		)
		VALUES (
			$1, COALESCE($2::text, ''), CASE WHEN $10::boolean THEN NULL ELSE $3::text END, $4::text,
			COALESCE($5::text, 'free'), COALESCE($6::text, 'active'),
			$7::timestamptz, $8::timestamptz, $9::timestamptz
		)
		ON CONFLICT (user_id) DO UPDATE SET
			email = COALESCE(NULLIF($2::text, ''), subscriptions.email),
			external_id = CASE WHEN $10::boolean THEN NULL ELSE COALESCE($3::text, subscriptions.external_id) END,
			customer_id = COALESCE($4::text, subscriptions.customer_id),
			plan_type = COALESCE($5::text, subscriptions.plan_type),
			status = COALESCE($6::text, subscriptions.status),
			current_period_start = COALESCE($7::timestamptz, subscriptions.current_period_start),
			current_period_end = COALESCE($8::timestamptz, subscriptions.current_period_end),
			last_event_at = GREATEST(subscriptions.last_event_at, $9::timestamptz),
			updated_at = now()
		WHERE $9::timestamptz IS NULL
			OR subscriptions.last_event_at IS NULL
			OR subscriptions.last_event_at <= $9::timestamptz
		RETURNING `+columns,
		userID, f.Email, f.ExternalID, f.CustomerID, planArg(f.PlanType), statusArg(f.Status),
		f.CurrentPeriodStart, f.CurrentPeriodEnd, f.EventAt, f.ClearExternalID,
	)

	sub, err := scan(row)
	switch {
	case err == nil:
		return sub, nil
	case pg.IsNotFoundError(err):
		// The conflict update was filtered out by the event-time guard.
		current, getErr := s.Get(ctx, userID)
		if getErr != nil {
			return nil, getErr
		}
		return current, ErrStaleEvent
	default:
		return nil, classify("upsert subscription by user", err)
	}
}

func (s *PostgresStore) UpsertByExternalID(ctx context.Context, externalID string, f Fields) (*Subscription, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		UPDATE subscriptions SET
			email = COALESCE(NULLIF($2::text, ''), email),
			external_id = CASE WHEN $9::boolean THEN NULL ELSE external_id END,
			customer_id = COALESCE($3::text, customer_id),
			plan_type = COALESCE($4::text, plan_type),
			status = COALESCE($5::text, status),
			current_period_start = COALESCE($6::timestamptz, current_period_start),
			current_period_end = COALESCE($7::timestamptz, current_period_end),
			last_event_at = GREATEST(last_event_at, $8::timestamptz),
			updated_at = now()
		WHERE external_id = $1
			AND ($8::timestamptz IS NULL OR last_event_at IS NULL OR last_event_at <= $8::timestamptz)
		RETURNING `+columns,
		externalID, f.Email, f.CustomerID, planArg(f.PlanType), statusArg(f.Status),
		f.CurrentPeriodStart, f.CurrentPeriodEnd, f.EventAt, f.ClearExternalID,
	)

	sub, err := scan(row)
	if err == nil {
		return sub, nil
	}
	if !pg.IsNotFoundError(err) {
		return nil, classify("upsert subscription by external id", err)
	}

	current, getErr := s.getByExternalID(ctx, externalID)
	switch {
	case getErr == nil:
		return current, ErrStaleEvent
	case !errors.Is(getErr, ErrNotFound):
		return nil, getErr
	case f.UserID == "":
		return nil, ErrNotFound
	}

	f.ExternalID = &externalID
	return s.UpsertByUser(ctx, f.UserID, f)
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func scan(row pgx.Row) (*Subscription, error) {
	var (
		sub      Subscription
		planType string
		status   string
	)
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Email, &sub.ExternalID, &sub.CustomerID, &planType, &status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.LastEventAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.PlanType = plan.ID(planType)
	sub.Status = Status(status)
	return &sub, nil
}

func classify(op string, err error) error {
	switch {
	case pg.IsDuplicateKeyError(err):
		return errors.Join(ErrExternalIDConflict, err)
	case pg.IsCheckViolationError(err):
		return errors.Join(ErrFreePlanExternalID, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func planArg(p *plan.ID) *string {
	if p == nil {
		return nil
	}
	return ptr(string(*p))
}

func statusArg(s *Status) *string {
	if s == nil {
		return nil
	}
	return ptr(string(*s))
}
