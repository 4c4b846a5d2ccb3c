package http

import (
	"context"
	"fmt"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/service"
)

const validToken = "valid-token"

var member7 = domain.Identity{UserID: 7, Token: validToken}

type mockCatalog struct {
	page       *domain.CatalogPage
	subjects   []string
	book       *domain.Book
	err        error
	lastFilter domain.Filter
	lastPage   domain.PageRequest
}

func (m *mockCatalog) SearchCatalog(_ context.Context, f domain.Filter, p domain.PageRequest) (*domain.CatalogPage, error) {
	m.lastFilter = f
	m.lastPage = p
	return m.page, m.err
}

func (m *mockCatalog) Subjects(_ context.Context) ([]string, error) {
	return m.subjects, m.err
}

func (m *mockCatalog) GetBook(_ context.Context, isbn string) (*domain.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.book == nil || m.book.ISBN != isbn {
		return nil, domain.ErrNotFound
	}
	return m.book, nil
}

type mockCart struct {
	cart    *domain.Cart
	err     error
	addErr  error
	addedBy domain.Identity
	isbn    string
	qty     int
}

func (m *mockCart) GetCart(_ context.Context, id domain.Identity) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !id.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return m.cart, nil
}

func (m *mockCart) AddToCart(_ context.Context, id domain.Identity, isbn string, qty int) error {
	m.addedBy = id
	m.isbn = isbn
	m.qty = qty
	return m.addErr
}

type mockCheckout struct {
	confirmation *domain.Confirmation
	err          error
}

func (m *mockCheckout) Checkout(_ context.Context, _ domain.Identity) (*domain.Confirmation, error) {
	return m.confirmation, m.err
}

type mockOrders struct {
	orders []*domain.Order
	err    error
}

func (m *mockOrders) GetOrder(_ context.Context, id domain.Identity, orderID int64) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == id.UserID {
			return o, nil
		}
	}
	return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
}

func (m *mockOrders) ListOrders(_ context.Context, _ domain.Identity) ([]*domain.Order, error) {
	return m.orders, m.err
}

type mockAuth struct {
	member      *domain.Member
	registerErr error
	loginErr    error
	loggedOut   []string
}

func (m *mockAuth) Authenticate(_ context.Context, token string) (domain.Identity, error) {
	if token != validToken {
		return domain.Identity{}, fmt.Errorf("token rejected: %w", domain.ErrUnauthenticated)
	}
	return member7, nil
}

func (m *mockAuth) Register(_ context.Context, in service.RegisterInput) (*domain.Member, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &domain.Member{UserID: 7, FirstName: in.FirstName, Email: in.Email}, nil
}

func (m *mockAuth) Login(_ context.Context, _, _ string) (string, *domain.Member, error) {
	if m.loginErr != nil {
		return "", nil, m.loginErr
	}
	return validToken, m.member, nil
}

func (m *mockAuth) Logout(_ context.Context, token string) error {
	m.loggedOut = append(m.loggedOut, token)
	return nil
}
