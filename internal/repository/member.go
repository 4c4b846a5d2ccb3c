package repository

import (
	"context"

	"github.com/fjod/bookstore/internal/domain"
)

const memberColumns = "user_id, first_name, last_name, address, city, zip, phone, email, password_hash, created_at"

// CreateMember stores a new member and sets m.UserID. A taken email fails
// with domain.ErrConstraintViolation.
func (r *Repository) CreateMember(ctx context.Context, m *domain.Member) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO members (first_name, last_name, address, city, zip, phone, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING user_id`,
		m.FirstName,
		m.LastName,
		m.Address,
		m.City,
		m.Zip,
		m.Phone,
		m.Email,
		m.PasswordHash,
		m.CreatedAt,
	).Scan(&m.UserID)
	if err != nil {
		return classify("insert member", err)
	}
	return nil
}

func (r *Repository) GetMember(ctx context.Context, userID int64) (*domain.Member, error) {
	return r.getMember(ctx, "user_id", userID)
}

func (r *Repository) GetMemberByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.getMember(ctx, "email", email)
}

func (r *Repository) getMember(ctx context.Context, column string, value any) (*domain.Member, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var m domain.Member
	err := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE "+column+" = $1", value,
	).Scan(
		&m.UserID,
		&m.FirstName,
		&m.LastName,
		&m.Address,
		&m.City,
		&m.Zip,
		&m.Phone,
		&m.Email,
		&m.PasswordHash,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, classify("get member by "+column, err)
	}
	return &m, nil
}
