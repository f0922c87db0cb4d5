package service

import (
	"context"
	"time"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

// Every operation that acts on behalf of a caller takes the caller's
// Identity explicitly. Operations without an actor are for trusted
// in-process callers (bootstrap, scheduled jobs).

type LedgerService interface {
	AddPoints(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount int64, description string, referenceID *string) (*domain.PointsTransaction, error)
	SpendPoints(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount int64, description string, referenceID *string) (*domain.PointsTransaction, error)
	AdjustPoints(ctx context.Context, actor domain.Identity, memberID uuid.UUID, delta int64, description string) (*domain.PointsTransaction, error)
	TopUpWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount decimal.Decimal, description string) (*domain.WalletTransaction, error)
	DeductWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount decimal.Decimal, description string, referenceID *string) (*domain.WalletTransaction, error)
	RefundWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, amount decimal.Decimal, description string, referenceID *string) (*domain.WalletTransaction, error)
	AdjustWallet(ctx context.Context, actor domain.Identity, memberID uuid.UUID, delta decimal.Decimal, description string) (*domain.WalletTransaction, error)
	ListPointsTransactions(ctx context.Context, actor domain.Identity, memberID uuid.UUID, limit int) ([]domain.PointsTransaction, error)
	ListWalletTransactions(ctx context.Context, actor domain.Identity, memberID uuid.UUID, limit int) ([]domain.WalletTransaction, error)
	AuditMember(ctx context.Context, actor domain.Identity, memberID uuid.UUID) (*domain.LedgerAudit, error)
	AuditAll(ctx context.Context) ([]domain.LedgerAudit, error)
}

type LevelService interface {
	ListLevels(ctx context.Context) ([]domain.MemberLevelRule, error)
	UpsertLevel(ctx context.Context, actor domain.Identity, rule domain.MemberLevelRule) (*domain.MemberLevelRule, error)
	EnsureDefaults(ctx context.Context, rules []domain.MemberLevelRule) error
	Classify(ctx context.Context, lifetimePoints int64) (domain.Tier, error)
	SyncTier(ctx context.Context, memberID uuid.UUID) (domain.Tier, error)
}

type CartService interface {
	GetOrCreateActiveCart(ctx context.Context, actor domain.Identity, memberID uuid.UUID) (*domain.Cart, error)
	GetCartView(ctx context.Context, actor domain.Identity, memberID uuid.UUID) (*domain.CartView, error)
	AddItem(ctx context.Context, actor domain.Identity, cartID uuid.UUID, in domain.NewCartItem) (*domain.CartItem, error)
	SetItemQuantity(ctx context.Context, actor domain.Identity, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, actor domain.Identity, itemID uuid.UUID) error
	Clear(ctx context.Context, actor domain.Identity, cartID uuid.UUID) error
	Complete(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (*domain.Cart, error)
	Abandon(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (*domain.Cart, error)
	Checkout(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (*domain.CheckoutResult, error)
	Total(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (decimal.Decimal, error)
	AbandonStale(ctx context.Context, before time.Time) (int, error)
}

type ReportService interface {
	File(ctx context.Context, actor domain.Identity, in domain.NewReport) (*domain.Report, error)
	ListAll(ctx context.Context, actor domain.Identity) ([]domain.Report, error)
	ListMine(ctx context.Context, actor domain.Identity) ([]domain.Report, error)
	Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Report, error)
	UpdateStatus(ctx context.Context, actor domain.Identity, id uuid.UUID, patch domain.ReportPatch) (*domain.Report, error)
}

type MemberService interface {
	Create(ctx context.Context, actor domain.Identity, in domain.NewMember) (*domain.Member, error)
	Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Member, error)
	List(ctx context.Context, actor domain.Identity) ([]domain.Member, error)
	Update(ctx context.Context, actor domain.Identity, id uuid.UUID, patch domain.MemberPatch) (*domain.Member, error)
	Delete(ctx context.Context, actor domain.Identity, id uuid.UUID) error
}

type AuthService interface {
	RegisterMember(ctx context.Context, in domain.NewMember) (*domain.Member, error)
	LoginMember(ctx context.Context, email, password string) (*domain.Member, error)
	LoginStaff(ctx context.Context, username, password string) (*domain.User, error)
	CurrentMember(ctx context.Context, actor domain.Identity) (*domain.Member, error)
	CurrentStaff(ctx context.Context, actor domain.Identity) (*domain.User, error)
	CreateStaffUser(ctx context.Context, actor domain.Identity, username, password string, role domain.UserRole) (*domain.User, error)
	EnsureOwner(ctx context.Context, username, password string) (*domain.User, bool, error)
}

// NotificationService delivers best-effort messages. Callers log failures
// and never fail their own operation because of them.
type NotificationService interface {
	ReportFiled(ctx context.Context, report *domain.Report) error
	TierChanged(ctx context.Context, member *domain.Member, from, to domain.Tier) error
}

var tracer = otel.Tracer("garage-backend/service")
