package postgres_test

import (
	"context"
	"errors"
	"testing"

	"garage-backend/internal/domain"
	"garage-backend/internal/repository"
	"garage-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)
		m := &domain.Member{ID: uuid.New(), Points: 10, WalletBalance: decimal.Zero}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE members SET points").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return repos.Members.UpdateBalances(ctx, m)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, postgres.Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLevelRepository_Upsert(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewLevelRepository(db)
	existing := uuid.New()

	mock.ExpectQuery("INSERT INTO member_levels (.+) ON CONFLICT \\(level\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), domain.TierGold, int64(3000), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))

	rule := &domain.MemberLevelRule{
		Level:           domain.TierGold,
		MinPoints:       3000,
		PointsEarnRate:  decimal.RequireFromString("1.5"),
		DiscountPercent: decimal.NewFromInt(10),
	}
	require.NoError(t, repo.Upsert(context.Background(), rule))
	assert.Equal(t, existing, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLevelRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewLevelRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM member_levels ORDER BY min_points").
		WillReturnRows(sqlmock.NewRows([]string{"id", "level", "min_points", "points_earn_rate", "discount_percent"}).
			AddRow(uuid.NewString(), "bronze", int64(0), "1.00", "0.00").
			AddRow(uuid.NewString(), "silver", int64(1000), "1.25", "5.00"))

	rules, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.TierSilver, rules[1].Level)
	assert.True(t, decimal.NewFromInt(5).Equal(rules[1].DiscountPercent))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("owner").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}))

	_, err := repo.GetByUsername(context.Background(), "owner")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
