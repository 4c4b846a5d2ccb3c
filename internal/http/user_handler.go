package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/service"
)

type AuthService interface {
	Authenticator
	Register(ctx context.Context, in service.RegisterInput) (*domain.Member, error)
	Login(ctx context.Context, email, password string) (string, *domain.Member, error)
	Logout(ctx context.Context, token string) error
}

type UserHandler struct {
	auth    AuthService
	timeout time.Duration
}

func NewUserHandler(auth AuthService, timeout time.Duration) *UserHandler {
	return &UserHandler{
		auth:    auth,
		timeout: timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponseDTO struct {
	Token  string         `json:"token"`
	Member *domain.Member `json:"member"`
}

// POST /api/v1/user/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	member, err := h.auth.Register(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrConstraintViolation) {
			respondError(w, http.StatusConflict, "already_registered",
				"This email has already been registered. Please use another email or log in.")
			return
		}
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, member)
}

// POST /api/v1/user/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	token, member, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponseDTO{Token: token, Member: member})
}

// POST /api/v1/user/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.auth.Logout(ctx, IdentityFromContext(r.Context()).Token); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
