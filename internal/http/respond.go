package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/service"
	"github.com/rs/zerolog/hlog"
)

const msgTryAgain = "Something went wrong. Please try again."

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the domain failure taxonomy onto a status, a code
// and an advisory message. Store detail is logged, never returned.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr.Fields))
		for f, rule := range verr.Fields {
			fields = append(fields, f+": "+rule)
		}
		sort.Strings(fields)
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Please check the highlighted fields.",
			Code:    "invalid_input",
			Details: strings.Join(fields, "; "),
		})
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", advisory(err, domain.ErrInvalidInput))
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
	case errors.Is(err, domain.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Please log in to continue.")
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "Your cart is empty, nothing to checkout.")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "The requested item was not found.")
	case domain.IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		if errors.Is(err, domain.ErrConstraintViolation) {
			hlog.FromRequest(r).Warn().Err(err).Msg("request conflicted")
			respondError(w, http.StatusConflict, "conflict", "Your request conflicted with another change. Please try again.")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("store unavailable")
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", msgTryAgain)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
		respondError(w, http.StatusInternalServerError, "internal_error", msgTryAgain)
	}
}

// advisory strips the sentinel suffix from a wrapped validation error,
// leaving the caller-facing part, e.g. "isbn is required".
func advisory(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
