package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/bookstore/internal/cache"
	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/fjod/bookstore/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type CatalogService struct {
	store           CatalogStore
	cache           cache.SubjectsCache
	sfg             singleflight.Group // Prevents cache stampede
	subjectsTimeout time.Duration
	log             zerolog.Logger
	metrics         *metrics.Metrics
}

// NewCatalogService builds the catalog reader. subjects may be nil, in which
// case every subject lookup goes to the store.
func NewCatalogService(store CatalogStore, subjects cache.SubjectsCache, log zerolog.Logger, m *metrics.Metrics) *CatalogService {
	return &CatalogService{
		store:           store,
		cache:           subjects,
		subjectsTimeout: 3 * time.Second,
		log:             log,
		metrics:         m,
	}
}

// SearchCatalog returns one page of books matching f. The page and the total
// come from two separate reads and are not a consistent snapshot.
func (s *CatalogService) SearchCatalog(ctx context.Context, f domain.Filter, p domain.PageRequest) (*domain.CatalogPage, error) {
	f = f.Normalize()
	p = domain.PageRequest{Page: p.Number()}

	books, err := s.store.SearchBooks(ctx, f, p)
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "search_books", err)
		return nil, err
	}

	total, err := s.store.CountBooks(ctx, f)
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "count_books", err)
		return nil, err
	}

	subjects, err := s.Subjects(ctx)
	if err != nil {
		return nil, err
	}

	s.metrics.SearchServed()
	return &domain.CatalogPage{
		Books:        books,
		Subjects:     subjects,
		Filter:       f,
		Page:         p.Number(),
		PageSize:     domain.PageSize,
		TotalMatches: total,
		TotalPages:   domain.DisplayPages(total),
	}, nil
}

// Subjects returns the distinct subjects, served from the cache when possible.
// The shared read ignores the first caller's cancellation and runs under its
// own timeout.
func (s *CatalogService) Subjects(ctx context.Context) ([]string, error) {
	v, err, _ := s.sfg.Do("subjects", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.subjectsTimeout)
		defer cancel()

		if s.cache != nil {
			subjects, err := s.cache.Get(ctx)
			if err == nil {
				return subjects, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				logger.WithTrace(ctx, s.log).Warn().Err(err).Msg("subjects cache get failed")
			}
		}

		subjects, err := s.store.Subjects(ctx)
		if err != nil {
			storeFailed(ctx, s.log, s.metrics, "subjects", err)
			return nil, err
		}
		if subjects == nil {
			subjects = []string{}
		}

		if s.cache != nil {
			go func() {
				setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if errSet := s.cache.Set(setCtx, subjects); errSet != nil {
					s.log.Warn().Err(errSet).Msg("subjects cache set failed")
				}
			}()
		}
		return subjects, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *CatalogService) GetBook(ctx context.Context, isbn string) (*domain.Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("isbn is required: %w", domain.ErrInvalidInput)
	}

	book, err := s.store.GetBook(ctx, isbn)
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "get_book", err)
		return nil, err
	}
	return book, nil
}
