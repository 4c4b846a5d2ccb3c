package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	GetOrder(ctx context.Context, id domain.Identity, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// OrderResponseDTO is an order with its total and delivery estimate.
type OrderResponseDTO struct {
	*domain.Order
	Total            decimal.Decimal `json:"total"`
	DeliveryEstimate time.Time       `json:"delivery_estimate"`
}

func toOrderDTO(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		Order:            o,
		Total:            o.Total(),
		DeliveryEstimate: o.DeliveryEstimate(),
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	order, err := h.orders.GetOrder(ctx, IdentityFromContext(r.Context()), orderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}
