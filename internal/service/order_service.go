package service

import (
	"context"
	"errors"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/rs/zerolog"
)

// OrderService is the read side of placed orders.
type OrderService struct {
	store   OrderStore
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewOrderService(store OrderStore, log zerolog.Logger, m *metrics.Metrics) *OrderService {
	return &OrderService{store: store, log: log, metrics: m}
}

// GetOrder returns the order only to its owner. Someone else's order is
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, id domain.Identity, orderID int64) (*domain.Order, error) {
	if !id.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "get_order", err)
		return nil, err
	}
	if order.UserID != id.UserID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// ListOrders returns the caller's orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	if !id.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	orders, err := s.store.ListOrders(ctx, id.UserID)
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "list_orders", err)
		return nil, err
	}
	return orders, nil
}
