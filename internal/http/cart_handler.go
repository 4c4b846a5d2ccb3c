package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/bookstore/internal/domain"
)

type CartService interface {
	GetCart(ctx context.Context, id domain.Identity) (*domain.Cart, error)
	AddToCart(ctx context.Context, id domain.Identity, isbn string, qty int) error
}

type CheckoutService interface {
	Checkout(ctx context.Context, id domain.Identity) (*domain.Confirmation, error)
}

type CartHandler struct {
	carts    CartService
	checkout CheckoutService
	timeout  time.Duration
}

func NewCartHandler(carts CartService, checkout CheckoutService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:    carts,
		checkout: checkout,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ISBN     string `json:"isbn"`
	Quantity int    `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id := IdentityFromContext(r.Context())
	if err := h.carts.AddToCart(ctx, id, req.ISBN, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(ctx, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

// POST /api/v1/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	confirmation, err := h.checkout.Checkout(ctx, IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, confirmation)
}
