package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/bookstore/internal/cache"
	"github.com/fjod/bookstore/internal/domain"
)

// MockCatalogStore implements CatalogStore for testing
type MockCatalogStore struct {
	Books        []domain.Book
	Total        int
	SubjectList  []string
	Book         *domain.Book
	Err          error
	CountErr     error
	SubjectCalls atomic.Int32
	LastFilter   domain.Filter
	LastPage     domain.PageRequest
	SubjectDelay time.Duration
}

func (m *MockCatalogStore) SearchBooks(_ context.Context, f domain.Filter, p domain.PageRequest) ([]domain.Book, error) {
	m.LastFilter = f
	m.LastPage = p
	return m.Books, m.Err
}

func (m *MockCatalogStore) CountBooks(_ context.Context, _ domain.Filter) (int, error) {
	return m.Total, m.CountErr
}

func (m *MockCatalogStore) Subjects(ctx context.Context) ([]string, error) {
	m.SubjectCalls.Add(1)
	if m.SubjectDelay > 0 {
		time.Sleep(m.SubjectDelay)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.SubjectList, m.Err
}

func (m *MockCatalogStore) GetBook(_ context.Context, isbn string) (*domain.Book, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Book == nil || m.Book.ISBN != isbn {
		return nil, domain.ErrNotFound
	}
	return m.Book, nil
}

// MockCartStore implements CartStore for testing
type MockCartStore struct {
	Lines   []domain.CartLine
	Err     error
	AddErr  error
	AddedQt int
	AddedTo string
	Adds    int
}

func (m *MockCartStore) AddToCart(_ context.Context, _ int64, isbn string, qty int) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Adds++
	m.AddedTo = isbn
	m.AddedQt = qty
	return nil
}

func (m *MockCartStore) CartLines(_ context.Context, _ int64) ([]domain.CartLine, error) {
	return m.Lines, m.Err
}

// MockOrderStore implements OrderStore for testing
type MockOrderStore struct {
	Placed   *domain.Order
	PlaceErr error
	Order    *domain.Order
	Orders   []*domain.Order
	Err      error
}

func (m *MockOrderStore) PlaceOrder(_ context.Context, order *domain.Order) error {
	if m.PlaceErr != nil {
		return m.PlaceErr
	}
	order.ID = 1001
	m.Placed = order
	return nil
}

func (m *MockOrderStore) GetOrder(_ context.Context, _ int64) (*domain.Order, error) {
	return m.Order, m.Err
}

func (m *MockOrderStore) ListOrders(_ context.Context, _ int64) ([]*domain.Order, error) {
	return m.Orders, m.Err
}

// MockMemberStore implements MemberStore for testing
type MockMemberStore struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Member
	nextID  int64
	Err     error
}

func NewMockMemberStore() *MockMemberStore {
	return &MockMemberStore{byEmail: map[string]*domain.Member{}, nextID: 1}
}

func (m *MockMemberStore) CreateMember(_ context.Context, member *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.byEmail[member.Email]; ok {
		return domain.ErrConstraintViolation
	}
	member.UserID = m.nextID
	m.nextID++
	stored := *member
	m.byEmail[member.Email] = &stored
	return nil
}

func (m *MockMemberStore) GetMember(_ context.Context, userID int64) (*domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, member := range m.byEmail {
		if member.UserID == userID {
			return member, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockMemberStore) GetMemberByEmail(_ context.Context, email string) (*domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	member, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

// MockSubjectsCache implements cache.SubjectsCache for testing
type MockSubjectsCache struct {
	mu       sync.Mutex
	subjects []string
	GetErr   error
	sets     int
}

func (m *MockSubjectsCache) Get(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.subjects == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.subjects, nil
}

func (m *MockSubjectsCache) Set(_ context.Context, subjects []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = subjects
	m.sets++
	return nil
}

func (m *MockSubjectsCache) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// MockDenylist implements cache.TokenDenylist for testing
type MockDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	Err     error
}

func (m *MockDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.revoked == nil {
		m.revoked = map[string]time.Duration{}
	}
	m.revoked[tokenID] = ttl
	return nil
}

func (m *MockDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// MockProfiles implements ProfileReader for testing
type MockProfiles struct {
	Member *domain.Member
	Err    error
}

func (m *MockProfiles) Profile(_ context.Context, _ int64) (*domain.Member, error) {
	return m.Member, m.Err
}
