package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Member struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	PasswordHash   string          `json:"-"`
	Level          Tier            `json:"level"`
	Points         int64           `json:"points"`
	LifetimePoints int64           `json:"lifetime_points"`
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewMember is the validated input for creating a member. Password is plain
// text here and is hashed before it reaches storage.
type NewMember struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Notes    string
}

// MemberPatch carries the profile fields an update may touch. Balances and
// level are owned by the ledger and are not patchable.
type MemberPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Notes   *string
}

func (p MemberPatch) Apply(m *Member) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.Address != nil {
		m.Address = *p.Address
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
}

// LedgerAudit compares stored balances with the sums of their transaction logs.
type LedgerAudit struct {
	MemberID         uuid.UUID       `json:"member_id"`
	Points           int64           `json:"points"`
	PointsLogSum     int64           `json:"points_log_sum"`
	WalletBalance    decimal.Decimal `json:"wallet_balance"`
	WalletLogSum     decimal.Decimal `json:"wallet_log_sum"`
	PointsConsistent bool            `json:"points_consistent"`
	WalletConsistent bool            `json:"wallet_consistent"`
}

func (a LedgerAudit) Consistent() bool {
	return a.PointsConsistent && a.WalletConsistent
}
