package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oilChange(qty int) domain.NewCartItem {
	return domain.NewCartItem{
		ItemType: domain.CartItemService,
		ItemID:   "svc-oil",
		Name:     "Oil change",
		Price:    money("49.99"),
		Quantity: qty,
	}
}

func TestCartService_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "cart@example.com")

	cart, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusActive, cart.Status)

	again, err := f.carts.GetOrCreateActiveCart(ctx, staff, m.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	item, err := f.carts.AddItem(ctx, self, cart.ID, oilChange(2))
	require.NoError(t, err)
	assert.True(t, item.Subtotal.Equal(money("99.98")))

	total, err := f.carts.Total(ctx, self, cart.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(money("99.98")))

	item, err = f.carts.SetItemQuantity(ctx, self, item.ID, 3)
	require.NoError(t, err)
	assert.True(t, item.Subtotal.Equal(money("149.97")))

	_, err = f.carts.SetItemQuantity(ctx, self, item.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.carts.RemoveItem(ctx, self, item.ID))
	require.NoError(t, f.carts.RemoveItem(ctx, self, item.ID))

	total, err = f.carts.Total(ctx, self, cart.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestCartService_AddItemValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "invalid@example.com")
	cart, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		item  domain.NewCartItem
		field string
	}{
		{"UnknownType", domain.NewCartItem{ItemType: "gift", ItemID: "x", Name: "x", Price: money("1"), Quantity: 1}, "item_type"},
		{"ZeroPrice", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: "x", Price: money("0"), Quantity: 1}, "price"},
		{"FractionalCents", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: "x", Price: money("1.005"), Quantity: 1}, "price"},
		{"ZeroQuantity", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: "x", Price: money("1"), Quantity: 0}, "quantity"},
		{"MissingName", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: " ", Price: money("1"), Quantity: 1}, "name"},
		{"LongItemID", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: strings.Repeat("x", domain.MaxItemIDLength+1), Name: "x", Price: money("1"), Quantity: 1}, "item_id"},
		{"LongName", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: strings.Repeat("n", domain.MaxNameLength+1), Price: money("1"), Quantity: 1}, "name"},
		{"PriceTooLarge", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: "x", Price: money("100000000000"), Quantity: 1}, "price"},
		{"QuantityTooLarge", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: "x", Price: money("1"), Quantity: domain.MaxQuantity + 1}, "quantity"},
		{"SubtotalTooLarge", domain.NewCartItem{ItemType: domain.CartItemPart, ItemID: "x", Name: "x", Price: domain.MaxMoney, Quantity: domain.MaxQuantity}, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.carts.AddItem(ctx, self, cart.ID, tt.item)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			fields := domain.Fields(err)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestCartService_SetItemQuantityBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "qty@example.com")
	cart, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)

	item, err := f.carts.AddItem(ctx, self, cart.ID, domain.NewCartItem{
		ItemType: domain.CartItemPart, ItemID: "brake-pads", Name: "Brake pads", Price: domain.MaxMoney, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = f.carts.SetItemQuantity(ctx, self, item.ID, domain.MaxQuantity+1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.carts.SetItemQuantity(ctx, self, item.ID, domain.MaxQuantity)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	total, err := f.carts.Total(ctx, self, cart.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(domain.MaxMoney))
}

func TestCartService_ConcurrentGetOrCreateKeepsOneActiveCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "cart-race@example.com")

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
			errs[i] = err
			if err == nil {
				ids[i] = cart.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	active, err := f.store.Repositories().Carts.ListActiveUpdatedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	mine := 0
	for _, c := range active {
		if c.MemberID == m.ID {
			mine++
		}
	}
	assert.Equal(t, 1, mine)
}

func TestCartService_CompletedCartIsClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "closed@example.com")
	cart, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, self, cart.ID, oilChange(1))
	require.NoError(t, err)

	done, err := f.carts.Complete(ctx, self, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusCompleted, done.Status)

	_, err = f.carts.AddItem(ctx, self, cart.ID, oilChange(1))
	assert.ErrorIs(t, err, domain.ErrCartNotActive)
	assert.ErrorIs(t, f.carts.Clear(ctx, self, cart.ID), domain.ErrCartNotActive)
	_, err = f.carts.Complete(ctx, self, cart.ID)
	assert.ErrorIs(t, err, domain.ErrCartNotActive)

	next, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, next.ID)
}

func TestCartService_OtherMembersCartIsForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, _ := f.newMember(t, "owner@example.com")
	_, intruder := f.newMember(t, "intruder@example.com")

	cart, err := f.carts.GetOrCreateActiveCart(ctx, staff, m.ID)
	require.NoError(t, err)

	_, err = f.carts.AddItem(ctx, intruder, cart.ID, oilChange(1))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.carts.GetCartView(ctx, intruder, m.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.carts.Abandon(ctx, domain.MemberIdentity(m.ID), cart.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCartService_CheckoutChargesWalletAndEarnsPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "checkout@example.com")

	_, err := f.ledger.TopUpWallet(ctx, staff, m.ID, money("200"), "")
	require.NoError(t, err)
	cart, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, self, cart.ID, oilChange(2))
	require.NoError(t, err)

	view, err := f.carts.GetCartView(ctx, self, m.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.True(t, view.GrandTotal.Equal(money("109.98")), view.GrandTotal.String())

	res, err := f.carts.Checkout(ctx, self, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusCompleted, res.Cart.Status)
	assert.True(t, res.Pricing.Total.Equal(money("99.98")))
	assert.True(t, res.Pricing.Tax.Equal(money("10.00")))
	assert.True(t, res.Payment.Amount.Equal(money("-109.98")))
	require.NotNil(t, res.PointsEarned)
	assert.Equal(t, int64(99), res.PointsEarned.Amount)

	got, err := f.members.Get(ctx, self, m.ID)
	require.NoError(t, err)
	assert.True(t, got.WalletBalance.Equal(money("90.02")))
	assert.Equal(t, int64(99), got.LifetimePoints)

	audit, err := f.ledger.AuditMember(ctx, staff, m.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent())
}

func TestCartService_CheckoutFailureLeavesCartActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "broke@example.com")
	cart, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)

	_, err = f.carts.Checkout(ctx, self, cart.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.carts.AddItem(ctx, self, cart.ID, oilChange(1))
	require.NoError(t, err)
	_, err = f.carts.Checkout(ctx, self, cart.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	again, err := f.carts.GetOrCreateActiveCart(ctx, self, m.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	got, err := f.members.Get(ctx, self, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.LifetimePoints)
	assert.True(t, got.WalletBalance.IsZero())
}

func TestCartService_AbandonStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	old, _ := f.newMember(t, "old@example.com")
	fresh, _ := f.newMember(t, "fresh@example.com")

	oldCart, err := f.carts.GetOrCreateActiveCart(ctx, staff, old.ID)
	require.NoError(t, err)
	_, err = f.carts.GetOrCreateActiveCart(ctx, staff, fresh.ID)
	require.NoError(t, err)
	f.store.SetUpdatedAt(oldCart.ID, time.Now().Add(-96*time.Hour))

	n, err := f.carts.AbandonStale(ctx, time.Now().Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.carts.AddItem(ctx, staff, oldCart.ID, oilChange(1))
	assert.ErrorIs(t, err, domain.ErrCartNotActive)
}

func TestCartService_UnknownCart(t *testing.T) {
	f := newFixture(t, quietNotifier())
	_, err := f.carts.Checkout(context.Background(), staff, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
