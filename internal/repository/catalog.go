package repository

import (
	"context"

	"github.com/fjod/bookstore/internal/domain"
)

func (r *Repository) SearchBooks(ctx context.Context, f domain.Filter, p domain.PageRequest) ([]domain.Book, error) {
	data, _ := composeCatalogQuery(f, p)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, data.Text, data.Args...)
	if err != nil {
		return nil, classify("search books", err)
	}
	defer rows.Close()

	books := make([]domain.Book, 0, domain.PageSize)
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.Subject, &b.Price); err != nil {
			return nil, classify("scan book", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate books", err)
	}
	return books, nil
}

func (r *Repository) CountBooks(ctx context.Context, f domain.Filter) (int, error) {
	_, count := composeCatalogQuery(f, domain.PageRequest{})

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, count.Text, count.Args...).Scan(&total); err != nil {
		return 0, classify("count books", err)
	}
	return total, nil
}

// Subjects returns the distinct subjects in ascending order.
func (r *Repository) Subjects(ctx context.Context) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT subject FROM books ORDER BY subject")
	if err != nil {
		return nil, classify("list subjects", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, classify("scan subject", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate subjects", err)
	}
	return subjects, nil
}

func (r *Repository) GetBook(ctx context.Context, isbn string) (*domain.Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b domain.Book
	err := r.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE isbn = $1", isbn,
	).Scan(&b.ISBN, &b.Title, &b.Author, &b.Subject, &b.Price)
	if err != nil {
		return nil, classify("get book "+isbn, err)
	}
	return &b, nil
}
