package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ndavault/pkg/pg"
)

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505"}
	check := &pgconn.PgError{Code: "23514"}

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(errors.New("other")))
	assert.False(t, pg.IsNotFoundError(nil))

	assert.True(t, pg.IsDuplicateKeyError(errors.Join(errors.New("insert"), dup)))
	assert.False(t, pg.IsDuplicateKeyError(check))

	assert.True(t, pg.IsCheckViolationError(check))
	assert.False(t, pg.IsCheckViolationError(nil))
}
