package http

import (
	"net/http"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
)

type memberSessionResponse struct {
	Member  *domain.Member `json:"member"`
	Message string         `json:"message"`
}

type staffSessionResponse struct {
	User    *domain.User `json:"user"`
	Message string       `json:"message"`
}

type meResponse struct {
	UserType domain.UserType `json:"user_type"`
	User     any             `json:"user"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, id domain.Identity) bool {
	token, expiresAt, err := h.tokens.IssueSession(id)
	if err != nil {
		respondError(w, r, err)
		return false
	}
	setSessionCookie(w, h.session, token, expiresAt)
	return true
}

// RegisterMember creates the member and signs them in.
func (h *Handler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.Auth.RegisterMember(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !h.startSession(w, r, domain.MemberIdentity(m.ID)) {
		return
	}
	respondJSON(w, http.StatusCreated, memberSessionResponse{Member: m, Message: "Registration successful"})
}

func (h *Handler) LoginMember(w http.ResponseWriter, r *http.Request) {
	var req memberLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if credentialsMissing(req.Email, req.Password) {
		respondMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	m, err := h.svc.Auth.LoginMember(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !h.startSession(w, r, domain.MemberIdentity(m.ID)) {
		return
	}
	respondJSON(w, http.StatusOK, memberSessionResponse{Member: m, Message: "Login successful"})
}

func (h *Handler) LoginStaff(w http.ResponseWriter, r *http.Request) {
	var req staffLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if credentialsMissing(req.Username, req.Password) {
		respondMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	u, err := h.svc.Auth.LoginStaff(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !h.startSession(w, r, domain.StaffIdentity(u)) {
		return
	}
	respondJSON(w, http.StatusOK, staffSessionResponse{User: u, Message: "Login successful"})
}

// Logout clears the session cookie. Sessions are stateless tokens, so a
// copied token stays valid until it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.session)
	respondJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

func (h *Handler) CurrentMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Auth.CurrentMember(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) CurrentStaff(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Auth.CurrentStaff(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// Me resolves either kind of session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id.IsMember() {
		m, err := h.svc.Auth.CurrentMember(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, meResponse{UserType: domain.UserTypeMember, User: m})
		return
	}
	u, err := h.svc.Auth.CurrentStaff(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meResponse{UserType: id.UserType, User: u})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor := IdentityFromContext(r.Context())
	u, err := h.svc.Auth.CreateStaffUser(r.Context(), actor, req.Username, req.Password, req.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Staff user created", "userID", u.ID, "role", u.Role, "actorID", actor.ActorID)
	respondJSON(w, http.StatusCreated, u)
}
