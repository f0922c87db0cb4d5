package memory

import (
	"context"
	"time"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	h *handle
}

func (r *ledgerRepository) CreatePointsTransaction(ctx context.Context, tx *domain.PointsTransaction) error {
	return r.h.write(func(st *state) error {
		if err := checkRef("points transaction", tx.ReferenceID); err != nil {
			return err
		}
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		tx.CreatedAt = time.Now().UTC()
		st.points = append(st.points, *tx)
		return nil
	})
}

func (r *ledgerRepository) CreateWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	return r.h.write(func(st *state) error {
		if err := checkRef("wallet transaction", tx.ReferenceID); err != nil {
			return err
		}
		if err := checkNumeric("wallet transaction", "amount", tx.Amount, domain.MaxMoney); err != nil {
			return err
		}
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		tx.CreatedAt = time.Now().UTC()
		st.wallet = append(st.wallet, *tx)
		return nil
	})
}

// ListPointsTransactions returns the newest rows first.
func (r *ledgerRepository) ListPointsTransactions(ctx context.Context, memberID uuid.UUID, limit int) ([]domain.PointsTransaction, error) {
	txs := []domain.PointsTransaction{}
	err := r.h.read(func(st *state) error {
		for i := len(st.points) - 1; i >= 0 && len(txs) < limit; i-- {
			if st.points[i].MemberID == memberID {
				txs = append(txs, st.points[i])
			}
		}
		return nil
	})
	return txs, err
}

func (r *ledgerRepository) ListWalletTransactions(ctx context.Context, memberID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	txs := []domain.WalletTransaction{}
	err := r.h.read(func(st *state) error {
		for i := len(st.wallet) - 1; i >= 0 && len(txs) < limit; i-- {
			if st.wallet[i].MemberID == memberID {
				txs = append(txs, st.wallet[i])
			}
		}
		return nil
	})
	return txs, err
}

func (r *ledgerRepository) SumPoints(ctx context.Context, memberID uuid.UUID) (int64, error) {
	var sum int64
	err := r.h.read(func(st *state) error {
		for _, tx := range st.points {
			if tx.MemberID == memberID {
				sum += tx.Amount
			}
		}
		return nil
	})
	return sum, err
}

func (r *ledgerRepository) SumWallet(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.h.read(func(st *state) error {
		for _, tx := range st.wallet {
			if tx.MemberID == memberID {
				sum = sum.Add(tx.Amount)
			}
		}
		return nil
	})
	return sum, err
}
