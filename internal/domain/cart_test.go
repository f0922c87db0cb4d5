package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceCart(t *testing.T) {
	tests := []struct {
		name                       string
		total, discountPct, taxPct string
		discount, tax, grand       string
	}{
		{"no discount no tax", "99.98", "0", "0", "0", "0", "99.98"},
		{"tax only", "99.98", "0", "10", "0", "10", "109.98"},
		{"discount then tax", "100", "5", "10", "5", "9.5", "104.5"},
		{"rounds each step", "33.33", "15", "10", "5", "2.83", "31.16"},
		{"empty", "0", "15", "10", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PriceCart(dec(tt.total), dec(tt.discountPct), dec(tt.taxPct))
			assert.True(t, p.Total.Equal(dec(tt.total)))
			assert.True(t, p.Discount.Equal(dec(tt.discount)), "discount %s", p.Discount)
			assert.True(t, p.Tax.Equal(dec(tt.tax)), "tax %s", p.Tax)
			assert.True(t, p.GrandTotal.Equal(dec(tt.grand)), "grand total %s", p.GrandTotal)
		})
	}
}

func TestCartItem_SetQuantity(t *testing.T) {
	item := CartItem{Price: dec("49.99"), Quantity: 2, Subtotal: dec("99.98")}
	item.SetQuantity(3)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.Subtotal.Equal(dec("149.97")))
}

func TestCartItemType_Valid(t *testing.T) {
	for _, typ := range []CartItemType{CartItemService, CartItemPart, CartItemProduct} {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, CartItemType("voucher").Valid())
}
