package service_test

import (
	"context"
	"testing"

	"garage-backend/internal/domain"
	"garage-backend/internal/repository/memory"
	"garage-backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ReportFiled(ctx context.Context, report *domain.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockNotifier) TierChanged(ctx context.Context, member *domain.Member, from, to domain.Tier) error {
	args := m.Called(ctx, member, from, to)
	return args.Error(0)
}

// quietNotifier accepts every notification.
func quietNotifier() *MockNotifier {
	n := new(MockNotifier)
	n.On("ReportFiled", mock.Anything, mock.Anything).Return(nil).Maybe()
	n.On("TierChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return n
}

var (
	owner = domain.Identity{ActorID: uuid.New(), UserType: domain.UserTypeOwner}
	admin = domain.Identity{ActorID: uuid.New(), UserType: domain.UserTypeAdmin}
	staff = domain.Identity{ActorID: uuid.New(), UserType: domain.UserTypeRepairStaff}
)

type fixture struct {
	store   *memory.Store
	ledger  service.LedgerService
	levels  service.LevelService
	carts   service.CartService
	reports service.ReportService
	members service.MemberService
	auth    service.AuthService
}

func newFixture(t *testing.T, notifier service.NotificationService) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:   store,
		ledger:  service.NewLedgerService(store, notifier, service.TransactionLimits{Default: 50, Max: 500}),
		levels:  service.NewLevelService(store, notifier),
		carts:   service.NewCartService(store, notifier, decimal.NewFromInt(10)),
		reports: service.NewReportService(store, notifier),
		members: service.NewMemberService(store),
		auth:    service.NewAuthService(store),
	}
	require.NoError(t, f.levels.EnsureDefaults(context.Background(), domain.DefaultLevelRules()))
	return f
}

func (f *fixture) newMember(t *testing.T, email string) (*domain.Member, domain.Identity) {
	t.Helper()
	m, err := f.auth.RegisterMember(context.Background(), domain.NewMember{
		Name:     "Test Member",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return m, domain.MemberIdentity(m.ID)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
