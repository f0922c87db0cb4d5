package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Message string                   `json:"message"`
	Errors  []domain.ValidationError `json:"errors,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

// respondError maps service errors onto status codes. Unknown errors are
// logged and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondMessage(w, status, message)
		return
	}
	respondJSON(w, status, errorResponse{Message: message, Errors: domain.Fields(err)})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		if len(domain.Fields(err)) > 0 {
			return http.StatusBadRequest, "Validation error"
		}
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInsufficientPoints), errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrCartNotActive):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondMessage(w, http.StatusBadRequest, "request body is required")
			return false
		}
		respondMessage(w, http.StatusBadRequest, "invalid JSON in request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Validation error",
			Errors:  []domain.ValidationError{{Field: name, Message: "must be a UUID"}},
		})
		return uuid.Nil, false
	}
	return id, true
}
