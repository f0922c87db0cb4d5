package postgres

import (
	"context"
	"time"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartRepository struct {
	db DBTX
}

func NewCartRepository(db DBTX) repository.CartRepository {
	return &cartRepository{db: db}
}

const cartColumns = `id, member_id, status, created_at, updated_at`

func scanCart(row rowScanner) (*domain.Cart, error) {
	c := &domain.Cart{}
	if err := row.Scan(&c.ID, &c.MemberID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *cartRepository) Create(ctx context.Context, c *domain.Cart) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = domain.CartStatusActive
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO carts (id, member_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	logger.DatabaseCall("INSERT", "carts", "cartID", c.ID, "memberID", c.MemberID)
	_, err := r.db.ExecContext(ctx, query, c.ID, c.MemberID, c.Status, c.CreatedAt, c.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "cartID", c.ID)
	return mapError(err, "cart")
}

func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`
	c, err := scanCart(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "cart")
	}
	return c, nil
}

func (r *cartRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1 FOR UPDATE`
	c, err := scanCart(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "cart")
	}
	return c, nil
}

func (r *cartRepository) GetActiveByMember(ctx context.Context, memberID uuid.UUID) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE member_id = $1 AND status = 'active'`
	c, err := scanCart(r.db.QueryRowContext(ctx, query, memberID))
	if err != nil {
		return nil, mapError(err, "active cart")
	}
	return c, nil
}

func (r *cartRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CartStatus) error {
	query := `UPDATE carts SET status = $1, updated_at = $2 WHERE id = $3`
	logger.DatabaseCall("UPDATE", "carts", "cartID", id, "status", status)
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return mapError(err, "cart")
	}
	return expectOne(res, "cart")
}

func (r *cartRepository) Touch(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res, "cart")
}

func (r *cartRepository) ListActiveUpdatedBefore(ctx context.Context, before time.Time) ([]domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE status = 'active' AND updated_at < $1 ORDER BY updated_at`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	carts := []domain.Cart{}
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		carts = append(carts, *c)
	}
	return carts, rows.Err()
}

const cartItemColumns = `id, cart_id, item_type, item_id, name, price, quantity, subtotal, created_at`

func scanCartItem(row rowScanner) (*domain.CartItem, error) {
	i := &domain.CartItem{}
	err := row.Scan(&i.ID, &i.CartID, &i.ItemType, &i.ItemID, &i.Name, &i.Price, &i.Quantity, &i.Subtotal, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (r *cartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now().UTC()

	query := `INSERT INTO cart_items (id, cart_id, item_type, item_id, name, price, quantity, subtotal, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	logger.DatabaseCall("INSERT", "cart_items", "cartID", item.CartID, "itemID", item.ItemID)
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.CartID, item.ItemType, item.ItemID, item.Name, item.Price, item.Quantity, item.Subtotal, item.CreatedAt,
	)
	logger.DatabaseResult("INSERT", 1, err, "cartItemID", item.ID)
	return mapError(err, "cart item")
}

func (r *cartRepository) GetItem(ctx context.Context, id uuid.UUID) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE id = $1`
	i, err := scanCartItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "cart item")
	}
	return i, nil
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *domain.CartItem) error {
	query := `UPDATE cart_items SET quantity = $1, subtotal = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, item.Quantity, item.Subtotal, item.ID)
	if err != nil {
		return mapError(err, "cart item")
	}
	return expectOne(res, "cart item")
}

func (r *cartRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "cart item")
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	logger.DatabaseCall("DELETE", "cart_items", "cartID", cartID)
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err, "cartID", cartID)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("DELETE", n, nil, "cartID", cartID)
	return nil
}

func (r *cartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		i, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

func (r *cartRepository) Total(ctx context.Context, cartID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(subtotal), 0) FROM cart_items WHERE cart_id = $1`
	err := r.db.QueryRowContext(ctx, query, cartID).Scan(&total)
	return total, err
}
