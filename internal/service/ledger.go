package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TransactionLimits bounds transaction history reads.
type TransactionLimits struct {
	Default int
	Max     int
}

func (l TransactionLimits) normalize(limit int) int {
	if limit <= 0 {
		limit = l.Default
	}
	if l.Max > 0 && limit > l.Max {
		limit = l.Max
	}
	return limit
}

type ledgerService struct {
	store    repository.Store
	notifier NotificationService
	limits   TransactionLimits
}

func NewLedgerService(store repository.Store, notifier NotificationService, limits TransactionLimits) LedgerService {
	if limits.Default <= 0 {
		limits.Default = 50
	}
	if limits.Max <= 0 {
		limits.Max = 500
	}
	return &ledgerService{
		store:    store,
		notifier: notifier,
		limits:   limits,
	}
}

// postPoints applies a signed delta to a member already locked by the
// surrounding transaction and appends the matching log row.
func postPoints(ctx context.Context, repos repository.Repositories, m *domain.Member, kind domain.PointsTransactionType, delta int64, lifetime bool, description string, referenceID *string) (*domain.PointsTransaction, error) {
	if delta > 0 && m.Points > math.MaxInt64-delta {
		return nil, domain.ErrInvalidAmount
	}
	if m.Points+delta < 0 {
		return nil, fmt.Errorf("%w: balance %d, requested %d", domain.ErrInsufficientPoints, m.Points, -delta)
	}
	if lifetime && delta > 0 {
		if m.LifetimePoints > math.MaxInt64-delta {
			return nil, domain.ErrInvalidAmount
		}
		m.LifetimePoints += delta
	}
	m.Points += delta
	if err := repos.Members.UpdateBalances(ctx, m); err != nil {
		return nil, err
	}

	tx := &domain.PointsTransaction{
		MemberID:    m.ID,
		Type:        kind,
		Amount:      delta,
		Balance:     m.Points,
		Description: description,
		ReferenceID: referenceID,
	}
	if err := repos.Ledger.CreatePointsTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// postWallet is the wallet counterpart of postPoints.
func postWallet(ctx context.Context, repos repository.Repositories, m *domain.Member, kind domain.WalletTransactionType, delta decimal.Decimal, description string, referenceID *string) (*domain.WalletTransaction, error) {
	next := m.WalletBalance.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, requested %s", domain.ErrInsufficientFunds, m.WalletBalance.StringFixed(domain.MoneyScale), delta.Neg().StringFixed(domain.MoneyScale))
	}
	if next.GreaterThan(domain.MaxMoney) {
		return nil, &domain.ValidationError{Field: "amount", Message: "wallet balance would exceed " + domain.MaxMoney.String()}
	}
	m.WalletBalance = next
	if err := repos.Members.UpdateBalances(ctx, m); err != nil {
		return nil, err
	}

	tx := &domain.WalletTransaction{
		MemberID:    m.ID,
		Type:        kind,
		Amount:      delta,
		Balance:     m.WalletBalance,
		Description: description,
		ReferenceID: referenceID,
	}
	if err := repos.Ledger.CreateWalletTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

type pointsPosting struct {
	op          string
	kind        domain.PointsTransactionType
	delta       int64
	lifetime    bool
	description string
	referenceID *string
}

func (s *ledgerService) applyPoints(ctx context.Context, memberID uuid.UUID, p pointsPosting) (*domain.PointsTransaction, error) {
	ctx, span := tracer.Start(ctx, "ledger."+p.op, trace.WithAttributes(
		attribute.String("member.id", memberID.String()),
		attribute.Int64("points.delta", p.delta),
	))
	defer span.End()
	logger.EnterMethod("ledgerService."+p.op, "memberID", memberID, "delta", p.delta)

	var created *domain.PointsTransaction
	var change *tierChange
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		m, err := repos.Members.GetByIDForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		created, err = postPoints(ctx, repos, m, p.kind, p.delta, p.lifetime, p.description, p.referenceID)
		if err != nil {
			return err
		}
		if p.lifetime {
			change, err = syncTier(ctx, repos, m)
		}
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ExitMethodWithError("ledgerService."+p.op, err, "memberID", memberID)
		return nil, err
	}

	notifyTierChange(ctx, s.notifier, change)
	logger.ExitMethod("ledgerService."+p.op, "memberID", memberID, "balance", created.Balance)
	return created, nil
}

type walletPosting struct {
	op          string
	kind        domain.WalletTransactionType
	delta       decimal.Decimal
	description string
	referenceID *string
}

func (s *ledgerService) applyWallet(ctx context.Context, memberID uuid.UUID, p walletPosting) (*domain.WalletTransaction, error) {
	ctx, span := tracer.Start(ctx, "ledger."+p.op, trace.WithAttributes(
		attribute.String("member.id", memberID.String()),
		attribute.String("wallet.delta", p.delta.String()),
	))
	defer span.End()
	logger.EnterMethod("ledgerService."+p.op, "memberID", memberID, "delta", p.delta.String())

	var created *domain.WalletTransaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		m, err := repos.Members.GetByIDForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		created, err = postWallet(ctx, repos, m, p.kind, p.delta, p.description, p.referenceID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ExitMethodWithError("ledgerService."+p.op, err, "memberID", memberID)
		return nil, err
	}

	logger.ExitMethod("ledgerService."+p.op, "memberID", memberID, "balance", created.Balance.String())
	return created, nil
}

func (s *ledgerService) AddPoints(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount int64, description string, referenceID *string) (*domain.PointsTransaction, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckReference(referenceID); err != nil {
		return nil, err
	}
	return s.applyPoints(ctx, memberID, pointsPosting{
		op: "AddPoints", kind: domain.PointsTransactionEarn, delta: amount, lifetime: true,
		description: description, referenceID: referenceID,
	})
}

// SpendPoints never touches lifetime points, so the tier is left alone.
func (s *ledgerService) SpendPoints(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount int64, description string, referenceID *string) (*domain.PointsTransaction, error) {
	if err := requireMemberAccess(actor, memberID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckReference(referenceID); err != nil {
		return nil, err
	}
	return s.applyPoints(ctx, memberID, pointsPosting{
		op: "SpendPoints", kind: domain.PointsTransactionSpend, delta: -amount,
		description: description, referenceID: referenceID,
	})
}

// AdjustPoints corrects the current balance. Lifetime points and tier stay as they are.
func (s *ledgerService) AdjustPoints(ctx context.Context, actor domain.Identity, memberID uuid.UUID, delta int64, description string) (*domain.PointsTransaction, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if delta == 0 || delta == math.MinInt64 {
		return nil, domain.ErrInvalidAmount
	}
	return s.applyPoints(ctx, memberID, pointsPosting{
		op: "AdjustPoints", kind: domain.PointsTransactionAdjust, delta: delta, description: description,
	})
}

func (s *ledgerService) TopUpWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount decimal.Decimal, description string) (*domain.WalletTransaction, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !domain.ValidMoney(amount) {
		return nil, domain.ErrInvalidAmount
	}
	return s.applyWallet(ctx, memberID, walletPosting{
		op: "TopUpWallet", kind: domain.WalletTransactionTopUp, delta: amount, description: description,
	})
}

func (s *ledgerService) DeductWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount decimal.Decimal, description string, referenceID *string) (*domain.WalletTransaction, error) {
	if err := requireMemberAccess(actor, memberID); err != nil {
		return nil, err
	}
	if !domain.ValidMoney(amount) {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckReference(referenceID); err != nil {
		return nil, err
	}
	return s.applyWallet(ctx, memberID, walletPosting{
		op: "DeductWallet", kind: domain.WalletTransactionPayment, delta: amount.Neg(),
		description: description, referenceID: referenceID,
	})
}

func (s *ledgerService) RefundWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount decimal.Decimal, description string, referenceID *string) (*domain.WalletTransaction, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !domain.ValidMoney(amount) {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckReference(referenceID); err != nil {
		return nil, err
	}
	return s.applyWallet(ctx, memberID, walletPosting{
		op: "RefundWallet", kind: domain.WalletTransactionRefund, delta: amount,
		description: description, referenceID: referenceID,
	})
}

func (s *ledgerService) AdjustWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, delta decimal.Decimal, description string) (*domain.WalletTransaction, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !domain.ValidMoney(delta.Abs()) {
		return nil, domain.ErrInvalidAmount
	}
	return s.applyWallet(ctx, memberID, walletPosting{
		op: "AdjustWallet", kind: domain.WalletTransactionAdjust, delta: delta, description: description,
	})
}

func (s *ledgerService) ListPointsTransactions(ctx context.Context, actor domain.Identity, memberID uuid.UUID, limit int) ([]domain.PointsTransaction, error) {
	if err := requireMemberAccess(actor, memberID); err != nil {
		return nil, err
	}
	return s.store.Repositories().Ledger.ListPointsTransactions(ctx, memberID, s.limits.normalize(limit))
}

func (s *ledgerService) ListWalletTransactions(ctx context.Context, actor domain.Identity, memberID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	if err := requireMemberAccess(actor, memberID); err != nil {
		return nil, err
	}
	return s.store.Repositories().Ledger.ListWalletTransactions(ctx, memberID, s.limits.normalize(limit))
}

func (s *ledgerService) AuditMember(ctx context.Context, actor domain.Identity, memberID uuid.UUID) (*domain.LedgerAudit, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.audit(ctx, memberID)
}

// audit reads the balances and log sums under the member lock so that no
// posting lands between the two reads.
func (s *ledgerService) audit(ctx context.Context, memberID uuid.UUID) (*domain.LedgerAudit, error) {
	var audit *domain.LedgerAudit
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		m, err := repos.Members.GetByIDForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		pointsSum, err := repos.Ledger.SumPoints(ctx, memberID)
		if err != nil {
			return err
		}
		walletSum, err := repos.Ledger.SumWallet(ctx, memberID)
		if err != nil {
			return err
		}
		audit = &domain.LedgerAudit{
			MemberID:         memberID,
			Points:           m.Points,
			PointsLogSum:     pointsSum,
			WalletBalance:    m.WalletBalance,
			WalletLogSum:     walletSum,
			PointsConsistent: m.Points == pointsSum,
			WalletConsistent: m.WalletBalance.Equal(walletSum),
		}
		return nil
	})
	return audit, err
}

func (s *ledgerService) AuditAll(ctx context.Context) ([]domain.LedgerAudit, error) {
	members, err := s.store.Repositories().Members.List(ctx)
	if err != nil {
		return nil, err
	}
	audits := make([]domain.LedgerAudit, 0, len(members))
	for _, m := range members {
		a, err := s.audit(ctx, m.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("audit member %s: %w", m.ID, err)
		}
		audits = append(audits, *a)
	}
	return audits, nil
}
