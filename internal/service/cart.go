package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type cartService struct {
	store      repository.Store
	notifier   NotificationService
	taxPercent decimal.Decimal
}

func NewCartService(store repository.Store, notifier NotificationService, taxPercent decimal.Decimal) CartService {
	return &cartService{
		store:      store,
		notifier:   notifier,
		taxPercent: taxPercent,
	}
}

// GetOrCreateActiveCart locks the member row before looking for an active
// cart, so concurrent callers for one member create at most one cart.
func (s *cartService) GetOrCreateActiveCart(ctx context.Context, actor domain.Identity, memberID uuid.UUID) (*domain.Cart, error) {
	if err := requireMemberAccess(actor, memberID); err != nil {
		return nil, err
	}
	var cart *domain.Cart
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		cart, err = activeCart(ctx, repos, memberID)
		return err
	})
	return cart, err
}

func activeCart(ctx context.Context, repos repository.Repositories, memberID uuid.UUID) (*domain.Cart, error) {
	if _, err := repos.Members.GetByIDForUpdate(ctx, memberID); err != nil {
		return nil, err
	}
	cart, err := repos.Carts.GetActiveByMember(ctx, memberID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	cart = &domain.Cart{MemberID: memberID, Status: domain.CartStatusActive}
	if err := repos.Carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	logger.Debug("Created active cart", "cartID", cart.ID, "memberID", memberID)
	return cart, nil
}

func (s *cartService) GetCartView(ctx context.Context, actor domain.Identity, memberID uuid.UUID) (*domain.CartView, error) {
	if err := requireMemberAccess(actor, memberID); err != nil {
		return nil, err
	}
	var view *domain.CartView
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cart, err := activeCart(ctx, repos, memberID)
		if err != nil {
			return err
		}
		items, err := repos.Carts.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		pricing, err := s.price(ctx, repos, memberID, sumSubtotals(items))
		if err != nil {
			return err
		}
		view = &domain.CartView{
			Cart:       *cart,
			Items:      items,
			Total:      pricing.Total,
			Discount:   pricing.Discount,
			Tax:        pricing.Tax,
			GrandTotal: pricing.GrandTotal,
		}
		return nil
	})
	return view, err
}

func sumSubtotals(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, i := range items {
		total = total.Add(i.Subtotal)
	}
	return total
}

// price applies the discount of the member's current tier and the
// configured tax.
func (s *cartService) price(ctx context.Context, repos repository.Repositories, memberID uuid.UUID, total decimal.Decimal) (domain.Pricing, error) {
	m, err := repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return domain.Pricing{}, err
	}
	rules, err := repos.Levels.List(ctx)
	if err != nil {
		return domain.Pricing{}, err
	}
	discount := decimal.Zero
	if rule, ok := domain.RuleFor(rules, m.Level); ok {
		discount = rule.DiscountPercent
	}
	return domain.PriceCart(total, discount, s.taxPercent), nil
}

// lockCart loads a cart for mutation and checks ownership. When active is
// set the cart must still be active.
func lockCart(ctx context.Context, repos repository.Repositories, actor domain.Identity, cartID uuid.UUID, active bool) (*domain.Cart, error) {
	cart, err := repos.Carts.GetByIDForUpdate(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := requireMemberAccess(actor, cart.MemberID); err != nil {
		return nil, err
	}
	if active && !cart.IsActive() {
		return nil, fmt.Errorf("cart %s is %s: %w", cart.ID, cart.Status, domain.ErrCartNotActive)
	}
	return cart, nil
}

func validateNewCartItem(in domain.NewCartItem) error {
	var errs domain.ValidationErrors
	if !in.ItemType.Valid() {
		errs = append(errs, domain.ValidationError{Field: "item_type", Message: "must be one of service, part, product"})
	}
	if itemID := strings.TrimSpace(in.ItemID); itemID == "" {
		errs = append(errs, domain.ValidationError{Field: "item_id", Message: "is required"})
	} else if verr := domain.CheckLength("item_id", itemID, domain.MaxItemIDLength); verr != nil {
		errs = append(errs, *verr)
	}
	if name := strings.TrimSpace(in.Name); name == "" {
		errs = append(errs, domain.ValidationError{Field: "name", Message: "is required"})
	} else if verr := domain.CheckLength("name", name, domain.MaxNameLength); verr != nil {
		errs = append(errs, *verr)
	}
	priceOK := domain.ValidMoney(in.Price)
	if !priceOK {
		errs = append(errs, domain.ValidationError{Field: "price", Message: "must be a positive amount with at most 2 decimal places"})
	}
	if verr := validateQuantity(in.Quantity); verr != nil {
		errs = append(errs, *verr)
	} else if priceOK {
		if verr := validateSubtotal(in.Price, in.Quantity); verr != nil {
			errs = append(errs, *verr)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateQuantity(q int) *domain.ValidationError {
	if q < 1 {
		return &domain.ValidationError{Field: "quantity", Message: "must be at least 1"}
	}
	if q > domain.MaxQuantity {
		return &domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("must be at most %d", domain.MaxQuantity)}
	}
	return nil
}

func validateSubtotal(price decimal.Decimal, q int) *domain.ValidationError {
	if price.Mul(decimal.NewFromInt(int64(q))).GreaterThan(domain.MaxSubtotal) {
		return &domain.ValidationError{Field: "quantity", Message: "line subtotal exceeds " + domain.MaxSubtotal.String()}
	}
	return nil
}

// AddItem appends a new line; identical items are not merged.
func (s *cartService) AddItem(ctx context.Context, actor domain.Identity, cartID uuid.UUID, in domain.NewCartItem) (*domain.CartItem, error) {
	logger.EnterMethod("cartService.AddItem", "cartID", cartID, "itemID", in.ItemID, "quantity", in.Quantity)
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if err := validateNewCartItem(in); err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		CartID:   cartID,
		ItemType: in.ItemType,
		ItemID:   strings.TrimSpace(in.ItemID),
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
	}
	item.SetQuantity(in.Quantity)

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := lockCart(ctx, repos, actor, cartID, true); err != nil {
			return err
		}
		if err := repos.Carts.AddItem(ctx, item); err != nil {
			return err
		}
		return repos.Carts.Touch(ctx, cartID)
	})
	if err != nil {
		logger.ExitMethodWithError("cartService.AddItem", err, "cartID", cartID)
		return nil, err
	}
	logger.ExitMethod("cartService.AddItem", "cartItemID", item.ID)
	return item, nil
}

// SetItemQuantity recomputes the subtotal from the stored unit price.
func (s *cartService) SetItemQuantity(ctx context.Context, actor domain.Identity, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	if verr := validateQuantity(quantity); verr != nil {
		return nil, verr
	}
	var item *domain.CartItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		item, err = repos.Carts.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if _, err := lockCart(ctx, repos, actor, item.CartID, true); err != nil {
			return err
		}
		if verr := validateSubtotal(item.Price, quantity); verr != nil {
			return verr
		}
		item.SetQuantity(quantity)
		if err := repos.Carts.UpdateItem(ctx, item); err != nil {
			return err
		}
		return repos.Carts.Touch(ctx, item.CartID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem succeeds when the item is already gone.
func (s *cartService) RemoveItem(ctx context.Context, actor domain.Identity, itemID uuid.UUID) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		item, err := repos.Carts.GetItem(ctx, itemID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := lockCart(ctx, repos, actor, item.CartID, true); err != nil {
			return err
		}
		if err := repos.Carts.DeleteItem(ctx, itemID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return repos.Carts.Touch(ctx, item.CartID)
	})
}

// Clear empties the cart and leaves it active.
func (s *cartService) Clear(ctx context.Context, actor domain.Identity, cartID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := lockCart(ctx, repos, actor, cartID, true); err != nil {
			return err
		}
		if err := repos.Carts.ClearItems(ctx, cartID); err != nil {
			return err
		}
		return repos.Carts.Touch(ctx, cartID)
	})
}

func (s *cartService) transition(ctx context.Context, actor domain.Identity, cartID uuid.UUID, status domain.CartStatus) (*domain.Cart, error) {
	var cart *domain.Cart
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		cart, err = lockCart(ctx, repos, actor, cartID, true)
		if err != nil {
			return err
		}
		if err := repos.Carts.UpdateStatus(ctx, cartID, status); err != nil {
			return err
		}
		cart, err = repos.Carts.GetByID(ctx, cartID)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Cart status changed", "cartID", cartID, "status", status)
	return cart, nil
}

// Complete closes the cart without taking payment. Completed carts are terminal.
func (s *cartService) Complete(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (*domain.Cart, error) {
	return s.transition(ctx, actor, cartID, domain.CartStatusCompleted)
}

func (s *cartService) Abandon(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (*domain.Cart, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, cartID, domain.CartStatusAbandoned)
}

// Checkout prices the cart, pays the grand total from the member's wallet,
// credits loyalty points on the discounted pre-tax amount and completes the
// cart as one unit of work. Any failure leaves the cart active and the
// balances untouched.
func (s *cartService) Checkout(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (*domain.CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "cart.Checkout", trace.WithAttributes(attribute.String("cart.id", cartID.String())))
	defer span.End()
	logger.EnterMethod("cartService.Checkout", "cartID", cartID)

	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	result := &domain.CheckoutResult{}
	var change *tierChange
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		peek, err := repos.Carts.GetByID(ctx, cartID)
		if err != nil {
			return err
		}
		// Member before cart, the same lock order as GetOrCreateActiveCart.
		member, err := repos.Members.GetByIDForUpdate(ctx, peek.MemberID)
		if err != nil {
			return err
		}
		cart, err := lockCart(ctx, repos, actor, cartID, true)
		if err != nil {
			return err
		}

		items, err := repos.Carts.ListItems(ctx, cartID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return &domain.ValidationError{Field: "cart", Message: "cart is empty"}
		}

		rules, err := repos.Levels.List(ctx)
		if err != nil {
			return err
		}
		rule, ok := domain.RuleFor(rules, member.Level)
		discount := decimal.Zero
		if ok {
			discount = rule.DiscountPercent
		}
		result.Pricing = domain.PriceCart(sumSubtotals(items), discount, s.taxPercent)

		ref := cartID.String()
		if result.Pricing.GrandTotal.IsPositive() {
			result.Payment, err = postWallet(ctx, repos, member, domain.WalletTransactionPayment,
				result.Pricing.GrandTotal.Neg(), "Checkout", &ref)
			if err != nil {
				return err
			}
		}

		if ok {
			net := result.Pricing.Total.Sub(result.Pricing.Discount)
			earned := net.Mul(rule.PointsEarnRate).Floor().IntPart()
			if earned > 0 {
				result.PointsEarned, err = postPoints(ctx, repos, member, domain.PointsTransactionEarn,
					earned, true, "Checkout reward", &ref)
				if err != nil {
					return err
				}
				if change, err = syncTier(ctx, repos, member); err != nil {
					return err
				}
			}
		}

		if err := repos.Carts.UpdateStatus(ctx, cartID, domain.CartStatusCompleted); err != nil {
			return err
		}
		cart.Status = domain.CartStatusCompleted
		result.Cart = cart
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ExitMethodWithError("cartService.Checkout", err, "cartID", cartID)
		return nil, err
	}

	notifyTierChange(ctx, s.notifier, change)
	logger.ExitMethod("cartService.Checkout", "cartID", cartID, "grandTotal", result.Pricing.GrandTotal.String())
	return result, nil
}

func (s *cartService) Total(ctx context.Context, actor domain.Identity, cartID uuid.UUID) (decimal.Decimal, error) {
	cart, err := s.store.Repositories().Carts.GetByID(ctx, cartID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := requireMemberAccess(actor, cart.MemberID); err != nil {
		return decimal.Zero, err
	}
	return s.store.Repositories().Carts.Total(ctx, cartID)
}

// AbandonStale marks active carts untouched since before as abandoned and
// returns how many were changed.
func (s *cartService) AbandonStale(ctx context.Context, before time.Time) (int, error) {
	stale, err := s.store.Repositories().Carts.ListActiveUpdatedBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	abandoned := 0
	for _, c := range stale {
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			cart, err := repos.Carts.GetByIDForUpdate(ctx, c.ID)
			if err != nil {
				return err
			}
			// Skip carts touched or closed since the listing.
			if !cart.IsActive() || !cart.UpdatedAt.Before(before) {
				return nil
			}
			if err := repos.Carts.UpdateStatus(ctx, cart.ID, domain.CartStatusAbandoned); err != nil {
				return err
			}
			abandoned++
			return nil
		})
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return abandoned, fmt.Errorf("abandon cart %s: %w", c.ID, err)
		}
	}
	return abandoned, nil
}
