package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartRepository struct {
	h *handle
}

func (r *cartRepository) Create(ctx context.Context, c *domain.Cart) error {
	return r.h.write(func(st *state) error {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.Status == "" {
			c.Status = domain.CartStatusActive
		}
		if c.Status == domain.CartStatusActive {
			for _, other := range st.carts {
				if other.MemberID == c.MemberID && other.IsActive() {
					return fmt.Errorf("cart %w: active cart exists", domain.ErrDuplicate)
				}
			}
		}
		now := time.Now().UTC()
		c.CreatedAt = now
		c.UpdatedAt = now
		st.carts[c.ID] = *c
		return nil
	})
}

func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.h.read(func(st *state) error {
		c, ok := st.carts[id]
		if !ok {
			return fmt.Errorf("cart %w", domain.ErrNotFound)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *cartRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	return r.GetByID(ctx, id)
}

func (r *cartRepository) GetActiveByMember(ctx context.Context, memberID uuid.UUID) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.h.read(func(st *state) error {
		for _, c := range st.carts {
			if c.MemberID == memberID && c.IsActive() {
				c := c
				out = &c
				return nil
			}
		}
		return fmt.Errorf("active cart %w", domain.ErrNotFound)
	})
	return out, err
}

func (r *cartRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CartStatus) error {
	return r.h.write(func(st *state) error {
		c, ok := st.carts[id]
		if !ok {
			return fmt.Errorf("cart %w", domain.ErrNotFound)
		}
		c.Status = status
		c.UpdatedAt = time.Now().UTC()
		st.carts[id] = c
		return nil
	})
}

func (r *cartRepository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.h.write(func(st *state) error {
		c, ok := st.carts[id]
		if !ok {
			return fmt.Errorf("cart %w", domain.ErrNotFound)
		}
		c.UpdatedAt = time.Now().UTC()
		st.carts[id] = c
		return nil
	})
}

func (r *cartRepository) ListActiveUpdatedBefore(ctx context.Context, before time.Time) ([]domain.Cart, error) {
	carts := []domain.Cart{}
	err := r.h.read(func(st *state) error {
		for _, c := range st.carts {
			if c.IsActive() && c.UpdatedAt.Before(before) {
				carts = append(carts, c)
			}
		}
		return nil
	})
	sort.Slice(carts, func(i, j int) bool { return carts[i].UpdatedAt.Before(carts[j].UpdatedAt) })
	return carts, err
}

// SetUpdatedAt backdates a cart. Tests use it to age carts past the stale cutoff.
func (s *Store) SetUpdatedAt(id uuid.UUID, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.state.carts[id]; ok {
		c.UpdatedAt = t
		s.state.carts[id] = c
	}
}

func (r *cartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.carts[item.CartID]; !ok {
			return fmt.Errorf("cart %w", domain.ErrNotFound)
		}
		if err := checkVarchar("cart item", "item_id", item.ItemID, domain.MaxItemIDLength); err != nil {
			return err
		}
		if err := checkVarchar("cart item", "name", item.Name, domain.MaxNameLength); err != nil {
			return err
		}
		if err := checkNumeric("cart item", "price", item.Price, domain.MaxMoney); err != nil {
			return err
		}
		if err := checkNumeric("cart item", "subtotal", item.Subtotal, domain.MaxSubtotal); err != nil {
			return err
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.CreatedAt = time.Now().UTC()
		st.items = append(st.items, *item)
		return nil
	})
}

func (r *cartRepository) GetItem(ctx context.Context, id uuid.UUID) (*domain.CartItem, error) {
	var out *domain.CartItem
	err := r.h.read(func(st *state) error {
		for _, i := range st.items {
			if i.ID == id {
				i := i
				out = &i
				return nil
			}
		}
		return fmt.Errorf("cart item %w", domain.ErrNotFound)
	})
	return out, err
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *domain.CartItem) error {
	return r.h.write(func(st *state) error {
		if err := checkNumeric("cart item", "subtotal", item.Subtotal, domain.MaxSubtotal); err != nil {
			return err
		}
		for idx := range st.items {
			if st.items[idx].ID == item.ID {
				st.items[idx].Quantity = item.Quantity
				st.items[idx].Subtotal = item.Subtotal
				return nil
			}
		}
		return fmt.Errorf("cart item %w", domain.ErrNotFound)
	})
}

func (r *cartRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.h.write(func(st *state) error {
		n := len(st.items)
		st.items = filter(st.items, func(i domain.CartItem) bool { return i.ID != id })
		if len(st.items) == n {
			return fmt.Errorf("cart item %w", domain.ErrNotFound)
		}
		return nil
	})
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.h.write(func(st *state) error {
		st.items = filter(st.items, func(i domain.CartItem) bool { return i.CartID != cartID })
		return nil
	})
}

func (r *cartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	items := []domain.CartItem{}
	err := r.h.read(func(st *state) error {
		for _, i := range st.items {
			if i.CartID == cartID {
				items = append(items, i)
			}
		}
		return nil
	})
	return items, err
}

func (r *cartRepository) Total(ctx context.Context, cartID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.h.read(func(st *state) error {
		for _, i := range st.items {
			if i.CartID == cartID {
				total = total.Add(i.Subtotal)
			}
		}
		return nil
	})
	return total, err
}
