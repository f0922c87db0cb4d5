package postgres

import (
	"context"
	"database/sql"
	"time"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreatePointsTransaction(ctx context.Context, tx *domain.PointsTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = time.Now().UTC()

	query := `INSERT INTO points_transactions (id, member_id, type, amount, balance, description, reference_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "points_transactions", "memberID", tx.MemberID, "type", tx.Type, "amount", tx.Amount)
	_, err := r.db.ExecContext(ctx, query, tx.ID, tx.MemberID, tx.Type, tx.Amount, tx.Balance, tx.Description, nullString(tx.ReferenceID), tx.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", tx.ID)
	return mapError(err, "points transaction")
}

func (r *ledgerRepository) CreateWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = time.Now().UTC()

	query := `INSERT INTO wallet_transactions (id, member_id, type, amount, balance, description, reference_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "wallet_transactions", "memberID", tx.MemberID, "type", tx.Type, "amount", tx.Amount.String())
	_, err := r.db.ExecContext(ctx, query, tx.ID, tx.MemberID, tx.Type, tx.Amount, tx.Balance, tx.Description, nullString(tx.ReferenceID), tx.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", tx.ID)
	return mapError(err, "wallet transaction")
}

func (r *ledgerRepository) ListPointsTransactions(ctx context.Context, memberID uuid.UUID, limit int) ([]domain.PointsTransaction, error) {
	query := `SELECT id, member_id, type, amount, balance, COALESCE(description, ''), reference_id, created_at
	          FROM points_transactions WHERE member_id = $1 ORDER BY created_at DESC, seq DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []domain.PointsTransaction{}
	for rows.Next() {
		var tx domain.PointsTransaction
		var ref sql.NullString
		if err := rows.Scan(&tx.ID, &tx.MemberID, &tx.Type, &tx.Amount, &tx.Balance, &tx.Description, &ref, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.ReferenceID = stringPtr(ref)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *ledgerRepository) ListWalletTransactions(ctx context.Context, memberID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	query := `SELECT id, member_id, type, amount, balance, COALESCE(description, ''), reference_id, created_at
	          FROM wallet_transactions WHERE member_id = $1 ORDER BY created_at DESC, seq DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []domain.WalletTransaction{}
	for rows.Next() {
		var tx domain.WalletTransaction
		var ref sql.NullString
		if err := rows.Scan(&tx.ID, &tx.MemberID, &tx.Type, &tx.Amount, &tx.Balance, &tx.Description, &ref, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.ReferenceID = stringPtr(ref)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *ledgerRepository) SumPoints(ctx context.Context, memberID uuid.UUID) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM points_transactions WHERE member_id = $1`
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(&sum)
	return sum, err
}

func (r *ledgerRepository) SumWallet(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE member_id = $1`
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(&sum)
	return sum, err
}
