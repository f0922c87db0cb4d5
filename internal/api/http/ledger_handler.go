package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
)

// describe falls back to a fixed label when the caller sends no description.
func describe(description, fallback string) string {
	if d := strings.TrimSpace(description); d != "" {
		return d
	}
	return fallback
}

type pointsOp func(ctx context.Context, actor domain.Identity, memberID uuid.UUID, req pointsRequest) (*domain.PointsTransaction, error)

func postPoints(w http.ResponseWriter, r *http.Request, op pointsOp) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req pointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := op(r.Context(), IdentityFromContext(r.Context()), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

type walletOp func(ctx context.Context, actor domain.Identity, memberID uuid.UUID, req walletRequest) (*domain.WalletTransaction, error)

func postWallet(w http.ResponseWriter, r *http.Request, op walletOp) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req walletRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := op(r.Context(), IdentityFromContext(r.Context()), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

func (h *Handler) AddPoints(w http.ResponseWriter, r *http.Request) {
	postPoints(w, r, func(ctx context.Context, actor domain.Identity, id uuid.UUID, req pointsRequest) (*domain.PointsTransaction, error) {
		return h.svc.Ledger.AddPoints(ctx, actor, id, req.Amount, describe(req.Description, "Points added"), req.ReferenceID)
	})
}

func (h *Handler) SpendPoints(w http.ResponseWriter, r *http.Request) {
	postPoints(w, r, func(ctx context.Context, actor domain.Identity, id uuid.UUID, req pointsRequest) (*domain.PointsTransaction, error) {
		return h.svc.Ledger.SpendPoints(ctx, actor, id, req.Amount, describe(req.Description, "Points spent"), req.ReferenceID)
	})
}

func (h *Handler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req pointsAdjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := h.svc.Ledger.AdjustPoints(r.Context(), IdentityFromContext(r.Context()), id, req.Delta, describe(req.Description, "Points adjustment"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

func (h *Handler) TopUpWallet(w http.ResponseWriter, r *http.Request) {
	postWallet(w, r, func(ctx context.Context, actor domain.Identity, id uuid.UUID, req walletRequest) (*domain.WalletTransaction, error) {
		return h.svc.Ledger.TopUpWallet(ctx, actor, id, req.Amount, describe(req.Description, "Wallet top-up"))
	})
}

func (h *Handler) DeductWallet(w http.ResponseWriter, r *http.Request) {
	postWallet(w, r, func(ctx context.Context, actor domain.Identity, id uuid.UUID, req walletRequest) (*domain.WalletTransaction, error) {
		return h.svc.Ledger.DeductWallet(ctx, actor, id, req.Amount, describe(req.Description, "Payment"), req.ReferenceID)
	})
}

func (h *Handler) RefundWallet(w http.ResponseWriter, r *http.Request) {
	postWallet(w, r, func(ctx context.Context, actor domain.Identity, id uuid.UUID, req walletRequest) (*domain.WalletTransaction, error) {
		return h.svc.Ledger.RefundWallet(ctx, actor, id, req.Amount, describe(req.Description, "Refund"), req.ReferenceID)
	})
}

func (h *Handler) AdjustWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req walletAdjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := h.svc.Ledger.AdjustWallet(r.Context(), IdentityFromContext(r.Context()), id, req.Delta, describe(req.Description, "Wallet adjustment"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

// queryLimit returns 0 (service default) for a missing or unparsable limit.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) ListPointsTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	txs, err := h.svc.Ledger.ListPointsTransactions(r.Context(), IdentityFromContext(r.Context()), id, queryLimit(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

func (h *Handler) ListWalletTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	txs, err := h.svc.Ledger.ListWalletTransactions(r.Context(), IdentityFromContext(r.Context()), id, queryLimit(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

