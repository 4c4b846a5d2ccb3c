package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	SearchCatalog(ctx context.Context, f domain.Filter, p domain.PageRequest) (*domain.CatalogPage, error)
	Subjects(ctx context.Context) ([]string, error)
	GetBook(ctx context.Context, isbn string) (*domain.Book, error)
}

type CatalogHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

// GET /api/v1/books?subject=&author=&title=&page=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	f := domain.Filter{
		Subject: q.Get("subject"),
		Author:  q.Get("author"),
		Title:   q.Get("title"),
	}

	page, err := h.catalog.SearchCatalog(ctx, f, domain.ParsePage(q.Get("page")))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// GET /api/v1/books/subjects
func (h *CatalogHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	subjects, err := h.catalog.Subjects(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string][]string{"subjects": subjects})
}

// GET /api/v1/books/{isbn}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	book, err := h.catalog.GetBook(ctx, chi.URLParam(r, "isbn"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, book)
}
