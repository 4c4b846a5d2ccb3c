package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/fjod/bookstore/pkg/logger"
	"github.com/rs/zerolog"
)

// CartReader is the part of the cart aggregator checkout needs.
type CartReader interface {
	GetCart(ctx context.Context, id domain.Identity) (*domain.Cart, error)
}

// ProfileReader supplies the shipping snapshot for an order.
type ProfileReader interface {
	Profile(ctx context.Context, userID int64) (*domain.Member, error)
}

type CheckoutService struct {
	carts    CartReader
	profiles ProfileReader
	orders   OrderStore
	log      zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewCheckoutService(carts CartReader, profiles ProfileReader, orders OrderStore, log zerolog.Logger, m *metrics.Metrics) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		profiles: profiles,
		orders:   orders,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

type checkoutRun struct {
	state  domain.CheckoutState
	userID int64
	log    *zerolog.Logger
}

func (r *checkoutRun) moveTo(next domain.CheckoutState) {
	if !domain.CanTransitionTo(r.state, next) {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", r.state, next))
	}
	r.log.Debug().Int64("user_id", r.userID).Str("from", r.state.String()).Str("to", next.String()).Msg("checkout state")
	r.state = next
}

// Checkout converts the caller's cart into an order. Either the order, its
// lines, its outbox event and the emptied cart are all committed, or nothing
// is written.
func (s *CheckoutService) Checkout(ctx context.Context, id domain.Identity) (*domain.Confirmation, error) {
	run := &checkoutRun{state: domain.CheckoutIdle, userID: id.UserID, log: logger.WithTrace(ctx, s.log)}

	confirmation, err := s.checkout(ctx, run, id)
	if err != nil {
		run.moveTo(domain.CheckoutFailed)
		s.metrics.Checkout(checkoutResult(err))
		return nil, err
	}

	run.moveTo(domain.CheckoutDone)
	s.metrics.Checkout(metrics.CheckoutSucceeded)
	run.log.Info().Int64("user_id", id.UserID).Int64("order_id", confirmation.OrderID).Msg("order placed")
	return confirmation, nil
}

func (s *CheckoutService) checkout(ctx context.Context, run *checkoutRun, id domain.Identity) (*domain.Confirmation, error) {
	run.moveTo(domain.CheckoutValidating)

	if !id.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	member, err := s.profiles.Profile(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	order := &domain.Order{
		UserID:    id.UserID,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
		ShipTo:    member.ShippingAddress(),
		Lines:     domain.OrderLinesFromCart(cart.Lines),
	}

	run.moveTo(domain.CheckoutCommitting)

	if err := s.orders.PlaceOrder(ctx, order); err != nil {
		storeFailed(ctx, s.log, s.metrics, "place_order", err)
		return nil, err
	}

	return domain.NewConfirmation(order), nil
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return metrics.CheckoutEmpty
	case errors.Is(err, domain.ErrConstraintViolation):
		return metrics.CheckoutConflict
	default:
		return metrics.CheckoutFailed
	}
}
