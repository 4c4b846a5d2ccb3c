package service

import (
	"context"
	"testing"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrder_OwnerOnly(t *testing.T) {
	store := &MockOrderStore{Order: &domain.Order{ID: 5, UserID: 7}}
	svc := NewOrderService(store, zerolog.Nop(), nil)

	order, err := svc.GetOrder(context.Background(), member7, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), order.ID)

	_, err = svc.GetOrder(context.Background(), domain.Identity{UserID: 8}, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetOrder(context.Background(), domain.Identity{}, 5)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGetOrder_Missing(t *testing.T) {
	svc := NewOrderService(&MockOrderStore{Err: domain.ErrNotFound}, zerolog.Nop(), nil)

	_, err := svc.GetOrder(context.Background(), member7, 5)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	store := &MockOrderStore{Orders: []*domain.Order{{ID: 2, UserID: 7}, {ID: 1, UserID: 7}}}
	svc := NewOrderService(store, zerolog.Nop(), nil)

	orders, err := svc.ListOrders(context.Background(), member7)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	_, err = svc.ListOrders(context.Background(), domain.Identity{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
