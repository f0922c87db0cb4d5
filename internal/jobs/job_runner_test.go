package jobs

import (
	"bytes"
	"context"
	"testing"
	"time"

	"garage-backend/internal/config"
	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository/memory"
	"garage-backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopNotifier struct{}

func (noopNotifier) ReportFiled(context.Context, *domain.Report) error { return nil }
func (noopNotifier) TierChanged(context.Context, *domain.Member, domain.Tier, domain.Tier) error {
	return nil
}

type harness struct {
	store  *memory.Store
	auth   service.AuthService
	ledger service.LedgerService
	carts  service.CartService
	runner *JobRunner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	levels := service.NewLevelService(store, noopNotifier{})
	require.NoError(t, levels.EnsureDefaults(context.Background(), domain.DefaultLevelRules()))

	h := &harness{
		store:  store,
		auth:   service.NewAuthService(store),
		ledger: service.NewLedgerService(store, noopNotifier{}, service.TransactionLimits{Default: 50, Max: 500}),
		carts:  service.NewCartService(store, noopNotifier{}, decimal.Zero),
	}
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		AbandonStaleCarts:   "0 0 3 * * *",
		AuditLedgers:        "0 30 3 * * *",
		StaleCartAfterHours: 72,
	}}
	h.runner = NewJobRunner(&Services{Carts: h.carts, Ledger: h.ledger}, cfg)
	return h
}

func (h *harness) member(t *testing.T, email string) (uuid.UUID, domain.Identity) {
	t.Helper()
	m, err := h.auth.RegisterMember(context.Background(), domain.NewMember{
		Name:     "Job Member",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return m.ID, domain.MemberIdentity(m.ID)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.InitializeWithWriter("debug", "text", &buf)
	t.Cleanup(func() { logger.Initialize("info", "text") })
	return &buf
}

func TestAbandonStaleCarts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	h.runner.now = func() time.Time { return now }

	staleID, stale := h.member(t, "stale@example.com")
	freshID, fresh := h.member(t, "fresh@example.com")

	staleCart, err := h.carts.GetOrCreateActiveCart(ctx, stale, staleID)
	require.NoError(t, err)
	freshCart, err := h.carts.GetOrCreateActiveCart(ctx, fresh, freshID)
	require.NoError(t, err)

	h.store.SetUpdatedAt(staleCart.ID, now.Add(-73*time.Hour))
	h.store.SetUpdatedAt(freshCart.ID, now.Add(-71*time.Hour))

	n, err := h.runner.abandonStaleCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	next, err := h.carts.GetOrCreateActiveCart(ctx, stale, staleID)
	require.NoError(t, err)
	assert.NotEqual(t, staleCart.ID, next.ID)

	same, err := h.carts.GetOrCreateActiveCart(ctx, fresh, freshID)
	require.NoError(t, err)
	assert.Equal(t, freshCart.ID, same.ID)

	n, err = h.runner.abandonStaleCarts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuditLedgers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	staff := domain.Identity{ActorID: uuid.New(), UserType: domain.UserTypeOwner}

	goodID, _ := h.member(t, "good@example.com")
	badID, _ := h.member(t, "bad@example.com")
	_, err := h.ledger.AddPoints(ctx, staff, goodID, 120, "visit", nil)
	require.NoError(t, err)
	_, err = h.ledger.TopUpWallet(ctx, staff, badID, decimal.NewFromInt(20), "cash")
	require.NoError(t, err)

	t.Run("consistent ledgers", func(t *testing.T) {
		mismatched, err := h.runner.auditLedgers(ctx)
		require.NoError(t, err)
		assert.Empty(t, mismatched)
	})

	t.Run("mismatch is reported", func(t *testing.T) {
		logs := captureLogs(t)
		members := h.store.Repositories().Members
		m, err := members.GetByID(ctx, badID)
		require.NoError(t, err)
		m.WalletBalance = decimal.NewFromInt(25)
		require.NoError(t, members.UpdateBalances(ctx, m))

		mismatched, err := h.runner.auditLedgers(ctx)
		require.NoError(t, err)
		require.Len(t, mismatched, 1)
		assert.Equal(t, badID, mismatched[0].MemberID)
		assert.False(t, mismatched[0].WalletConsistent)
		assert.True(t, mismatched[0].PointsConsistent)
		assert.Contains(t, logs.String(), "Ledger mismatch")
	})
}

func TestRunWithRecovery(t *testing.T) {
	h := newHarness(t)
	logs := captureLogs(t)

	assert.NotPanics(t, func() {
		h.runner.runWithRecovery("Explode", func(ctx context.Context) {
			panic("boom")
		})
	})
	assert.Contains(t, logs.String(), "Job panicked")
	assert.NotContains(t, logs.String(), "Job completed")
}

func TestRunAll(t *testing.T) {
	h := newHarness(t)
	logs := captureLogs(t)

	h.runner.RunAll()

	out := logs.String()
	assert.Contains(t, out, "job=AbandonStaleCarts")
	assert.Contains(t, out, "job=AuditLedgers")
	assert.Contains(t, out, "Completed ledger audit")
}
