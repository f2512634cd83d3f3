package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

func setupAuthRepoTest(t *testing.T) (*PostgresAuthRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgresAuthRepo(pool, slog.New(slog.NewTextHandler(io.Discard, nil))), pool
}

func TestPostgresAuthRepo_CreateUser(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "email", "name", "password_hash", "type", "created_at", "updated_at"}

	t.Run("returns the inserted row", func(t *testing.T) {
		repo, pool := setupAuthRepoTest(t)
		id := uuid.New()
		now := time.Now()
		pool.ExpectQuery("INSERT INTO users").
			WithArgs("a@example.com", "A", "hash", types.PlanFree).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(id, "a@example.com", "A", "hash", types.PlanFree, now, now))

		user, err := repo.CreateUser(ctx, "a@example.com", "A", "hash", types.PlanFree)
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, types.PlanFree, user.Type)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		repo, pool := setupAuthRepoTest(t)
		pool.ExpectQuery("INSERT INTO users").
			WithArgs("a@example.com", "A", "hash", types.PlanFree).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation})

		_, err := repo.CreateUser(ctx, "a@example.com", "A", "hash", types.PlanFree)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestPostgresAuthRepo_GetUserByEmail_NotFound(t *testing.T) {
	repo, pool := setupAuthRepoTest(t)
	pool.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, pool.ExpectationsWereMet())
}
