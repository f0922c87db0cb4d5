package http

import (
	"net/http"
)

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Levels.ListLevels(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

// UpsertLevel replaces one tier's rule and reclassifies members against it.
func (h *Handler) UpsertLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rule, err := h.svc.Levels.UpsertLevel(r.Context(), IdentityFromContext(r.Context()), req.toDomain())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}
