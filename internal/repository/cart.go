package repository

import (
	"context"
	"database/sql"

	"github.com/fjod/bookstore/internal/domain"
)

// AddToCart inserts the line or adds qty to the existing one in a single
// statement, so concurrent adds for the same (user, isbn) never lose an
// increment.
func (r *Repository) AddToCart(ctx context.Context, userID int64, isbn string, qty int) error {
	query := `INSERT INTO cart_lines (user_id, isbn, qty) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, isbn) DO UPDATE SET qty = cart_lines.qty + excluded.qty`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, query, userID, isbn, qty); err != nil {
		return classify("add to cart", err)
	}
	return nil
}

// CartLines returns the user's lines joined with the books' current data,
// ordered by title. Amounts are left for the caller to compute.
func (r *Repository) CartLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	query := `SELECT c.isbn, b.title, b.author, c.qty, b.price
	          FROM cart_lines c JOIN books b ON b.isbn = c.isbn
	          WHERE c.user_id = $1
	          ORDER BY b.title, c.isbn`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify("query cart", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ISBN, &l.Title, &l.Author, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, classify("scan cart line", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate cart", err)
	}
	return lines, nil
}

// clearCart removes exactly the lines that were read for checkout. A line
// whose quantity moved, or a line that appeared since, fails with
// ErrCartChanged and leaves the transaction to be rolled back.
func clearCart(ctx context.Context, tx *sql.Tx, userID int64, lines []domain.OrderLine) error {
	for _, l := range lines {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM cart_lines WHERE user_id = $1 AND isbn = $2 AND qty = $3`,
			userID, l.ISBN, l.Quantity)
		if err != nil {
			return classify("clear cart line", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classify("clear cart line", err)
		}
		if n != 1 {
			return ErrCartChanged
		}
	}

	var remaining int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_lines WHERE user_id = $1`, userID,
	).Scan(&remaining)
	if err != nil {
		return classify("count cart lines", err)
	}
	if remaining != 0 {
		return ErrCartChanged
	}
	return nil
}
