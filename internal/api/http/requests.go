package http

import (
	"strings"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
	Notes    string `json:"notes"`
}

func (r registerRequest) toDomain() domain.NewMember {
	return domain.NewMember{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Address:  r.Address,
		Password: r.Password,
		Notes:    r.Notes,
	}
}

type memberLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type staffLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

// credentialsMissing mirrors the required-field check done before any lookup.
func credentialsMissing(login, password string) bool {
	return strings.TrimSpace(login) == "" || password == ""
}

type memberPatchRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

func (r memberPatchRequest) toDomain() domain.MemberPatch {
	return domain.MemberPatch{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		Notes:   r.Notes,
	}
}

type pointsRequest struct {
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
	ReferenceID *string `json:"reference_id"`
}

type pointsAdjustRequest struct {
	Delta       int64  `json:"delta"`
	Description string `json:"description"`
}

type walletRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ReferenceID *string         `json:"reference_id"`
}

type walletAdjustRequest struct {
	Delta       decimal.Decimal `json:"delta"`
	Description string          `json:"description"`
}

type addItemRequest struct {
	ItemType domain.CartItemType `json:"item_type"`
	ItemID   string              `json:"item_id"`
	Name     string              `json:"name"`
	Price    decimal.Decimal     `json:"price"`
	Quantity int                 `json:"quantity"`
}

func (r addItemRequest) toDomain() domain.NewCartItem {
	return domain.NewCartItem{
		ItemType: r.ItemType,
		ItemID:   r.ItemID,
		Name:     r.Name,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type reportRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Metadata    *string `json:"metadata"`
}

type reportPatchRequest struct {
	Status     *domain.ReportStatus `json:"status"`
	AssignedTo *uuid.UUID           `json:"assigned_to"`
	Metadata   *string              `json:"metadata"`
}

func (r reportPatchRequest) toDomain() domain.ReportPatch {
	return domain.ReportPatch{Status: r.Status, AssignedTo: r.AssignedTo, Metadata: r.Metadata}
}

type levelRequest struct {
	Level           domain.Tier     `json:"level"`
	MinPoints       int64           `json:"min_points"`
	PointsEarnRate  decimal.Decimal `json:"points_earn_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func (r levelRequest) toDomain() domain.MemberLevelRule {
	return domain.MemberLevelRule{
		Level:           domain.Tier(strings.ToLower(string(r.Level))),
		MinPoints:       r.MinPoints,
		PointsEarnRate:  r.PointsEarnRate,
		DiscountPercent: r.DiscountPercent,
	}
}
