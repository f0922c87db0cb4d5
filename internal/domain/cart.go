package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusCompleted CartStatus = "completed"
)

type CartItemType string

const (
	CartItemService CartItemType = "service"
	CartItemPart    CartItemType = "part"
	CartItemProduct CartItemType = "product"
)

func (t CartItemType) Valid() bool {
	switch t {
	case CartItemService, CartItemPart, CartItemProduct:
		return true
	}
	return false
}

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	MemberID  uuid.UUID  `json:"member_id"`
	Status    CartStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) IsActive() bool {
	return c.Status == CartStatusActive
}

// CartItem holds a price snapshot taken when the line was added; it is not
// linked to the live catalog price.
type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	CartID    uuid.UUID       `json:"cart_id"`
	ItemType  CartItemType    `json:"item_type"`
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

// SetQuantity updates the quantity and recomputes the subtotal from the
// stored unit price.
func (i *CartItem) SetQuantity(q int) {
	i.Quantity = q
	i.Subtotal = i.Price.Mul(decimal.NewFromInt(int64(q)))
}

type NewCartItem struct {
	ItemType CartItemType
	ItemID   string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// CartView is the priced presentation of the active cart.
type CartView struct {
	Cart
	Items      []CartItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Pricing derives discount, tax and grand total from an item total.
type Pricing struct {
	Total      decimal.Decimal `json:"total"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

var hundred = decimal.NewFromInt(100)

// PriceCart applies the member's discount percent and then the tax percent,
// rounding each step to MoneyScale.
func PriceCart(total, discountPercent, taxPercent decimal.Decimal) Pricing {
	discount := total.Mul(discountPercent).Div(hundred).Round(MoneyScale)
	net := total.Sub(discount)
	tax := net.Mul(taxPercent).Div(hundred).Round(MoneyScale)
	return Pricing{
		Total:      total,
		Discount:   discount,
		Tax:        tax,
		GrandTotal: net.Add(tax),
	}
}

type CheckoutResult struct {
	Cart         *Cart              `json:"cart"`
	Pricing      Pricing            `json:"pricing"`
	Payment      *WalletTransaction `json:"payment"`
	PointsEarned *PointsTransaction `json:"points_earned,omitempty"`
}
