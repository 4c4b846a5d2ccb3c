package service

import (
	"context"
	"errors"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/fjod/bookstore/pkg/logger"
	"github.com/rs/zerolog"
)

// The services depend on these narrow views of the record store.
// *repository.Repository satisfies all of them.

type CatalogStore interface {
	SearchBooks(ctx context.Context, f domain.Filter, p domain.PageRequest) ([]domain.Book, error)
	CountBooks(ctx context.Context, f domain.Filter) (int, error)
	Subjects(ctx context.Context) ([]string, error)
	GetBook(ctx context.Context, isbn string) (*domain.Book, error)
}

type CartStore interface {
	AddToCart(ctx context.Context, userID int64, isbn string, qty int) error
	CartLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
}

type OrderStore interface {
	PlaceOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error)
}

type MemberStore interface {
	CreateMember(ctx context.Context, m *domain.Member) error
	GetMember(ctx context.Context, userID int64) (*domain.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*domain.Member, error)
}

// storeFailed records a store-side failure with its detail. Callers return
// err unchanged; the detail never reaches the end user.
func storeFailed(ctx context.Context, log zerolog.Logger, m *metrics.Metrics, op string, err error) {
	if !errors.Is(err, domain.ErrStoreUnavailable) && !errors.Is(err, domain.ErrConstraintViolation) {
		return
	}
	m.StoreError(op)
	logger.WithTrace(ctx, log).Error().Err(err).Str("op", op).Msg("store operation failed")
}
