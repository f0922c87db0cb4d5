package postgres_test

import (
	"context"
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

func TestLedgerRepository_CreatePointsTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewLedgerRepository(db)
	memberID := uuid.New()
	ref := "cart-1"

	tx := &domain.PointsTransaction{
		MemberID:    memberID,
		Type:        domain.PointsTransactionEarn,
		Amount:      100,
		Balance:     100,
		Description: "visit",
		ReferenceID: &ref,
	}
	mock.ExpectExec("INSERT INTO points_transactions").
		WithArgs(sqlmock.AnyArg(), memberID, domain.PointsTransactionEarn, int64(100), int64(100), "visit", ref, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreatePointsTransaction(context.Background(), tx)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_CreateWalletTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewLedgerRepository(db)
	memberID := uuid.New()

	tx := &domain.WalletTransaction{
		MemberID: memberID,
		Type:     domain.WalletTransactionTopUp,
		Amount:   decimal.RequireFromString("25.00"),
		Balance:  decimal.RequireFromString("25.00"),
	}
	mock.ExpectExec("INSERT INTO wallet_transactions").
		WithArgs(sqlmock.AnyArg(), memberID, domain.WalletTransactionTopUp, tx.Amount, tx.Balance, "", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.CreateWalletTransaction(context.Background(), tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_ListPointsTransactions(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewLedgerRepository(db)
	memberID := uuid.New()
	now := time.Now().UTC()

	cols := []string{"id", "member_id", "type", "amount", "balance", "description", "reference_id", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM points_transactions WHERE member_id = \\$1 ORDER BY created_at DESC, seq DESC LIMIT \\$2").
		WithArgs(memberID, 50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.NewString(), memberID.String(), "spend", int64(-30), int64(70), "", "order-9", now).
			AddRow(uuid.NewString(), memberID.String(), "earn", int64(100), int64(100), "", nil, now.Add(-time.Minute)))

	txs, err := repo.ListPointsTransactions(context.Background(), memberID, 50)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.PointsTransactionSpend, txs[0].Type)
	require.NotNil(t, txs[0].ReferenceID)
	assert.Equal(t, "order-9", *txs[0].ReferenceID)
	assert.Nil(t, txs[1].ReferenceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_ListWalletTransactions_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewLedgerRepository(db)
	memberID := uuid.New()

	cols := []string{"id", "member_id", "type", "amount", "balance", "description", "reference_id", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM wallet_transactions WHERE member_id = \\$1 ORDER BY created_at DESC, seq DESC LIMIT \\$2").
		WithArgs(memberID, 10).
		WillReturnRows(sqlmock.NewRows(cols))

	txs, err := repo.ListWalletTransactions(context.Background(), memberID, 10)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Sums(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()
	memberID := uuid.New()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM points_transactions").
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(70)))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM wallet_transactions").
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("12.34"))

	points, err := repo.SumPoints(ctx, memberID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), points)

	wallet, err := repo.SumWallet(ctx, memberID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.34").Equal(wallet))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_DataExceptionIsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
	}{
		{"value too long", "22001"},
		{"numeric overflow", "22003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := postgres.NewLedgerRepository(db)
			tx := &domain.WalletTransaction{
				MemberID: uuid.New(),
				Type:     domain.WalletTransactionRefund,
				Amount:   decimal.RequireFromString("10.00"),
				Balance:  decimal.RequireFromString("10.00"),
			}
			mock.ExpectExec("INSERT INTO wallet_transactions").
				WillReturnError(&pq.Error{Code: tt.code, Message: "out of range"})

			err := repo.CreateWalletTransaction(context.Background(), tx)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
