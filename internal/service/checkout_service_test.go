package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ada = &domain.Member{
	UserID:  7,
	Address: "12 Analytical Way",
	City:    "London",
	Zip:     "10001",
}

func twoLineCart() *MockCartStore {
	return &MockCartStore{Lines: []domain.CartLine{
		{ISBN: "A", Title: "Alpha", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ISBN: "B", Title: "Beta", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}}
}

func newCheckoutService(carts *MockCartStore, orders *MockOrderStore, profiles *MockProfiles, m *metrics.Metrics) *CheckoutService {
	svc := NewCheckoutService(newCartService(carts), profiles, orders, zerolog.Nop(), m)
	svc.now = func() time.Time { return time.Date(2026, 3, 28, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCheckout_Success(t *testing.T) {
	orders := &MockOrderStore{}
	m := metrics.New()
	svc := newCheckoutService(twoLineCart(), orders, &MockProfiles{Member: ada}, m)

	conf, err := svc.Checkout(context.Background(), member7)

	require.NoError(t, err)
	assert.Equal(t, int64(1001), conf.OrderID)
	assert.True(t, decimal.RequireFromString("25.00").Equal(conf.Total))
	assert.Equal(t, time.Date(2026, 4, 4, 12, 0, 0, 0, time.UTC), conf.DeliveryEstimate)
	assert.Equal(t, "London", conf.ShipTo.City)

	require.NotNil(t, orders.Placed)
	require.Len(t, orders.Placed.Lines, 2)
	assert.Equal(t, int64(7), orders.Placed.UserID)
	assert.True(t, decimal.RequireFromString("20.00").Equal(orders.Placed.Lines[0].Amount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.CheckoutSucceeded)))
}

func TestCheckout_EmptyCart(t *testing.T) {
	orders := &MockOrderStore{}
	m := metrics.New()
	svc := newCheckoutService(&MockCartStore{Lines: []domain.CartLine{}}, orders, &MockProfiles{Member: ada}, m)

	conf, err := svc.Checkout(context.Background(), member7)

	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Nil(t, conf)
	assert.Nil(t, orders.Placed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.CheckoutEmpty)))
}

func TestCheckout_Anonymous(t *testing.T) {
	orders := &MockOrderStore{}
	svc := newCheckoutService(twoLineCart(), orders, &MockProfiles{Member: ada}, nil)

	_, err := svc.Checkout(context.Background(), domain.Identity{})

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Nil(t, orders.Placed)
}

func TestCheckout_ProfileMissing(t *testing.T) {
	orders := &MockOrderStore{}
	svc := newCheckoutService(twoLineCart(), orders, &MockProfiles{Err: domain.ErrUnauthenticated}, nil)

	_, err := svc.Checkout(context.Background(), member7)

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Nil(t, orders.Placed)
}

func TestCheckout_CartReadFails(t *testing.T) {
	svc := newCheckoutService(&MockCartStore{Err: domain.ErrStoreUnavailable}, &MockOrderStore{}, &MockProfiles{Member: ada}, nil)

	_, err := svc.Checkout(context.Background(), member7)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCheckout_CommitFails(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantResult string
	}{
		{"store unavailable", fmt.Errorf("insert order: %w", domain.ErrStoreUnavailable), metrics.CheckoutFailed},
		{"cart changed", fmt.Errorf("cart changed: %w", domain.ErrConstraintViolation), metrics.CheckoutConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			svc := newCheckoutService(twoLineCart(), &MockOrderStore{PlaceErr: tt.err}, &MockProfiles{Member: ada}, m)

			conf, err := svc.Checkout(context.Background(), member7)

			assert.ErrorIs(t, err, tt.err)
			assert.True(t, domain.IsRetryable(err))
			assert.Nil(t, conf)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(tt.wantResult)))
		})
	}
}
