package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"garage-backend/internal/domain"
	"garage-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewCartRepository(db)
	ctx := context.Background()
	memberID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO carts").
			WithArgs(sqlmock.AnyArg(), memberID, domain.CartStatusActive, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		c := &domain.Cart{MemberID: memberID}
		require.NoError(t, repo.Create(ctx, c))
		assert.Equal(t, domain.CartStatusActive, c.Status)
	})

	t.Run("SecondActiveCart", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO carts").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "carts_one_active_per_member"})

		err := repo.Create(ctx, &domain.Cart{MemberID: memberID})
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_GetActiveByMember(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewCartRepository(db)
	ctx := context.Background()
	memberID := uuid.New()
	cartID := uuid.New()
	now := time.Now().UTC()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM carts WHERE member_id = \\$1 AND status = 'active'").
			WithArgs(memberID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "status", "created_at", "updated_at"}).
				AddRow(cartID.String(), memberID.String(), "active", now, now))

		c, err := repo.GetActiveByMember(ctx, memberID)
		require.NoError(t, err)
		assert.Equal(t, cartID, c.ID)
		assert.True(t, c.IsActive())
	})

	t.Run("None", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM carts WHERE member_id").
			WithArgs(memberID).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetActiveByMember(ctx, memberID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Items(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewCartRepository(db)
	ctx := context.Background()
	cartID := uuid.New()
	now := time.Now().UTC()

	item := &domain.CartItem{
		CartID:   cartID,
		ItemType: domain.CartItemPart,
		ItemID:   "P-100",
		Name:     "Brake pad",
		Price:    decimal.RequireFromString("19.99"),
	}
	item.SetQuantity(2)

	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(sqlmock.AnyArg(), cartID, domain.CartItemPart, "P-100", "Brake pad", item.Price, 2, item.Subtotal, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AddItem(ctx, item))

	cols := []string{"id", "cart_id", "item_type", "item_id", "name", "price", "quantity", "subtotal", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM cart_items WHERE cart_id = \\$1").
		WithArgs(cartID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(item.ID.String(), cartID.String(), "part", "P-100", "Brake pad", "19.99", 2, "39.98", now))

	items, err := repo.ListItems(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("39.98").Equal(items[0].Subtotal))

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(subtotal\\), 0\\) FROM cart_items").
		WithArgs(cartID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("39.98"))

	total, err := repo.Total(ctx, cartID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("39.98").Equal(total))

	mock.ExpectExec("DELETE FROM cart_items WHERE cart_id").
		WithArgs(cartID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.ClearItems(ctx, cartID))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ListActiveUpdatedBefore(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewCartRepository(db)
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	old := cutoff.Add(-time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM carts WHERE status = 'active' AND updated_at < \\$1").
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "status", "created_at", "updated_at"}).
			AddRow(uuid.NewString(), uuid.NewString(), "active", old, old))

	carts, err := repo.ListActiveUpdatedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Len(t, carts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
