package agreement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/ndavault/pkg/pg"
)

const columns = `id, user_id, file_name, file_path, file_size, counterparty_name,
	effective_date, expiration_date, confidentiality_period, status, alert_enabled,
	created_at, updated_at`

// PostgresStore keeps agreements in the agreements table.
type PostgresStore struct {
	db pg.DBTX
}

func NewPostgresStore(db pg.DBTX) *PostgresStore {
	if db == nil {
		panic("agreement: db is required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *Agreement) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO agreements (
			user_id, file_name, file_path, file_size, counterparty_name,
			effective_date, expiration_date, confidentiality_period, status, alert_enabled
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		a.UserID, a.FileName, a.FilePath, a.FileSize, a.CounterpartyName,
		a.EffectiveDate, a.ExpirationDate, a.ConfidentialityPeriod, string(a.Status), a.AlertEnabled,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("create agreement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string, id uuid.UUID) (*Agreement, error) {
	row := s.db.QueryRow(ctx, `SELECT `+columns+` FROM agreements WHERE id = $1 AND user_id = $2`, id, userID)
	a, err := scan(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get agreement: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Agreement, error) {
	return s.query(ctx, "list agreements",
		`SELECT `+columns+` FROM agreements WHERE user_id = $1 ORDER BY expiration_date ASC, created_at ASC`, userID)
}

func (s *PostgresStore) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM agreements WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count agreements: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Update(ctx context.Context, a *Agreement) error {
	row := s.db.QueryRow(ctx, `
		UPDATE agreements SET
			counterparty_name = $3,
			effective_date = $4,
			expiration_date = $5,
			confidentiality_period = $6,
			status = $7,
			alert_enabled = $8,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`,
		a.ID, a.UserID, a.CounterpartyName, a.EffectiveDate, a.ExpirationDate,
		a.ConfidentialityPeriod, string(a.Status), a.AlertEnabled,
	)
	if err := row.Scan(&a.UpdatedAt); err != nil {
		if pg.IsNotFoundError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update agreement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM agreements WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete agreement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DueForAlert(ctx context.Context, date time.Time) ([]Agreement, error) {
	return s.query(ctx, "select agreements due for alert", `
		SELECT `+columns+` FROM agreements
		WHERE alert_enabled AND status = 'active' AND expiration_date = $1::date
		ORDER BY user_id, created_at`, Date(date))
}

func (s *PostgresStore) ListUnexpired(ctx context.Context) ([]Agreement, error) {
	return s.query(ctx, "list unexpired agreements",
		`SELECT `+columns+` FROM agreements WHERE status <> 'expired'`)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := s.db.Exec(ctx, `UPDATE agreements SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update agreement status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, op, sql string, args ...any) ([]Agreement, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]Agreement, 0)
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scan(row pgx.Row) (*Agreement, error) {
	var (
		a      Agreement
		status string
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.FileName, &a.FilePath, &a.FileSize, &a.CounterpartyName,
		&a.EffectiveDate, &a.ExpirationDate, &a.ConfidentialityPeriod, &status, &a.AlertEnabled,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}
