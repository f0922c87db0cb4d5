package http

import (
	"net/http"

	"garage-backend/internal/domain"
)

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.svc.Reports.File(r.Context(), IdentityFromContext(r.Context()), domain.NewReport{
		Title:       req.Title,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// ListReports returns every report to owners and admins and only the
// caller's own reports to everyone else.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	actor := IdentityFromContext(r.Context())
	var (
		reports []domain.Report
		err     error
	)
	if actor.IsPrivileged() {
		reports, err = h.svc.Reports.ListAll(r.Context(), actor)
	} else {
		reports, err = h.svc.Reports.ListMine(r.Context(), actor)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (h *Handler) ListMyReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.Reports.ListMine(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	report, err := h.svc.Reports.Get(r.Context(), IdentityFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reportPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.svc.Reports.UpdateStatus(r.Context(), IdentityFromContext(r.Context()), id, req.toDomain())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
