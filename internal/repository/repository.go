package repository

import (
	"context"
	"time"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lookups that find nothing return an error wrapping domain.ErrNotFound;
// unique-constraint violations wrap domain.ErrDuplicate.

type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	// GetByIDForUpdate reads the member and holds its row lock until the
	// surrounding transaction ends. Outside a transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
	Update(ctx context.Context, member *domain.Member) error
	UpdateBalances(ctx context.Context, member *domain.Member) error
	UpdateLevel(ctx context.Context, id uuid.UUID, level domain.Tier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type LevelRepository interface {
	List(ctx context.Context) ([]domain.MemberLevelRule, error)
	Upsert(ctx context.Context, rule *domain.MemberLevelRule) error
}

type LedgerRepository interface {
	CreatePointsTransaction(ctx context.Context, tx *domain.PointsTransaction) error
	CreateWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error
	ListPointsTransactions(ctx context.Context, memberID uuid.UUID, limit int) ([]domain.PointsTransaction, error)
	ListWalletTransactions(ctx context.Context, memberID uuid.UUID, limit int) ([]domain.WalletTransaction, error)
	SumPoints(ctx context.Context, memberID uuid.UUID) (int64, error)
	SumWallet(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error)
}

type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	GetActiveByMember(ctx context.Context, memberID uuid.UUID) (*domain.Cart, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CartStatus) error
	Touch(ctx context.Context, id uuid.UUID) error
	ListActiveUpdatedBefore(ctx context.Context, before time.Time) ([]domain.Cart, error)

	AddItem(ctx context.Context, item *domain.CartItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, item *domain.CartItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error)
	Total(ctx context.Context, cartID uuid.UUID) (decimal.Decimal, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context) ([]domain.Report, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]domain.Report, error)
	Update(ctx context.Context, report *domain.Report) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Repositories groups every repository bound to one connection or transaction.
type Repositories struct {
	Members MemberRepository
	Levels  LevelRepository
	Ledger  LedgerRepository
	Carts   CartRepository
	Reports ReportRepository
	Users   UserRepository
}

// TxRunner executes fn as one atomic unit: every write made through repos
// commits together or not at all. fn must not call WithinTx again.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is what the services are built from.
type Store interface {
	TxRunner
	Repositories() Repositories
}
