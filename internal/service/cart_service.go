package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/rs/zerolog"
)

// BookLookup resolves an ISBN to the catalog entry.
type BookLookup interface {
	GetBook(ctx context.Context, isbn string) (*domain.Book, error)
}

// CartService aggregates a member's cart lines into a priced cart.
type CartService struct {
	store   CartStore
	books   BookLookup
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewCartService(store CartStore, books BookLookup, log zerolog.Logger, m *metrics.Metrics) *CartService {
	return &CartService{
		store:   store,
		books:   books,
		log:     log,
		metrics: m,
	}
}

// GetCart prices every line at the book's current price. An empty cart is
// not an error.
func (s *CartService) GetCart(ctx context.Context, id domain.Identity) (*domain.Cart, error) {
	if !id.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	lines, err := s.store.CartLines(ctx, id.UserID)
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "cart_lines", err)
		return nil, err
	}
	return domain.NewCart(id.UserID, lines), nil
}

// AddToCart adds qty copies of the book. A qty of 0 means one copy. Repeated
// adds accumulate.
func (s *CartService) AddToCart(ctx context.Context, id domain.Identity, isbn string, qty int) error {
	if !id.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}

	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return fmt.Errorf("isbn is required: %w", domain.ErrInvalidInput)
	}
	if qty == 0 {
		qty = domain.DefaultQuantity
	}
	if qty < 1 || qty > domain.MaxQuantity {
		return fmt.Errorf("quantity must be between 1 and %d: %w", domain.MaxQuantity, domain.ErrInvalidInput)
	}

	if _, err := s.books.GetBook(ctx, isbn); err != nil {
		storeFailed(ctx, s.log, s.metrics, "get_book", err)
		return err
	}

	if err := s.store.AddToCart(ctx, id.UserID, isbn, qty); err != nil {
		storeFailed(ctx, s.log, s.metrics, "add_to_cart", err)
		return err
	}

	s.metrics.CartAdded()
	return nil
}
