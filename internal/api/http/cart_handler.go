package http

import (
	"net/http"
)

// GetCart returns the member's active cart, creating one when needed.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Carts.GetCartView(r.Context(), IdentityFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.Carts.AddItem(r.Context(), IdentityFromContext(r.Context()), cartID, req.toDomain())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.Carts.SetItemQuantity(r.Context(), IdentityFromContext(r.Context()), itemID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Carts.RemoveItem(r.Context(), IdentityFromContext(r.Context()), itemID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Carts.Clear(r.Context(), IdentityFromContext(r.Context()), cartID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CompleteCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cart, err := h.svc.Carts.Complete(r.Context(), IdentityFromContext(r.Context()), cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.Carts.Checkout(r.Context(), IdentityFromContext(r.Context()), cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) AbandonCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cart, err := h.svc.Carts.Abandon(r.Context(), IdentityFromContext(r.Context()), cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}
