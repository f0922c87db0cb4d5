package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PointsTransactionType string

const (
	PointsTransactionEarn   PointsTransactionType = "earn"
	PointsTransactionSpend  PointsTransactionType = "spend"
	PointsTransactionExpire PointsTransactionType = "expire"
	PointsTransactionAdjust PointsTransactionType = "adjust"
)

type WalletTransactionType string

const (
	WalletTransactionTopUp   WalletTransactionType = "topup"
	WalletTransactionPayment WalletTransactionType = "payment"
	WalletTransactionRefund  WalletTransactionType = "refund"
	WalletTransactionAdjust  WalletTransactionType = "adjust"
)

// PointsTransaction is an immutable ledger row. Amount is signed; Balance is
// the member's point balance right after the row was applied.
type PointsTransaction struct {
	ID          uuid.UUID             `json:"id"`
	MemberID    uuid.UUID             `json:"member_id"`
	Type        PointsTransactionType `json:"type"`
	Amount      int64                 `json:"amount"`
	Balance     int64                 `json:"balance"`
	Description string                `json:"description"`
	ReferenceID *string               `json:"reference_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type WalletTransaction struct {
	ID          uuid.UUID             `json:"id"`
	MemberID    uuid.UUID             `json:"member_id"`
	Type        WalletTransactionType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Balance     decimal.Decimal       `json:"balance"`
	Description string                `json:"description"`
	ReferenceID *string               `json:"reference_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// MoneyScale is the number of fractional digits stored for monetary values.
const MoneyScale = 2

// Storage bounds shared by every store implementation.
const (
	MaxReferenceLength = 64
	MaxItemIDLength    = 64
	MaxNameLength      = 255
	MaxPhoneLength     = 50
	MaxQuantity        = 9999
)

var (
	// MaxMoney is the largest amount or balance a NUMERIC(12,2) column holds.
	MaxMoney = decimal.RequireFromString("9999999999.99")
	// MaxSubtotal bounds a cart line, stored as NUMERIC(14,2).
	MaxSubtotal = decimal.RequireFromString("999999999999.99")
)

// ValidMoney reports whether d is strictly positive, at most MaxMoney and
// representable at MoneyScale without rounding.
func ValidMoney(d decimal.Decimal) bool {
	return d.IsPositive() && !d.GreaterThan(MaxMoney) && d.Equal(d.Round(MoneyScale))
}

// CheckLength rejects values longer than max characters.
func CheckLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// CheckReference validates an optional external reference id.
func CheckReference(ref *string) error {
	if ref == nil {
		return nil
	}
	if verr := CheckLength("reference_id", *ref, MaxReferenceLength); verr != nil {
		return verr
	}
	return nil
}
