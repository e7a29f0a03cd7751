package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// BuyerRepository implements ports.BuyerRepository
type BuyerRepository struct {
	pool *pgxpool.Pool
}

// NewBuyerRepository creates a new buyer repository
func NewBuyerRepository(db ports.DBPort) *BuyerRepository {
	return &BuyerRepository{pool: db.GetDB()}
}

// UpsertByEmail returns the user owning email, creating it when absent.
// Emails compare case-insensitively; an existing user's name is left as is.
func (r *BuyerRepository) UpsertByEmail(ctx context.Context, email, name string) (*domain.BuyerIdentity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "buyer email is required")
	}

	id := domain.BuyerIdentity{Email: email}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		ON CONFLICT ((LOWER(email))) DO UPDATE SET updated_at = NOW()
		RETURNING id, (xmax = 0) AS created`,
		email, name,
	).Scan(&id.UserID, &id.Created)
	if err != nil {
		return nil, fmt.Errorf("upsert buyer: %w", err)
	}
	return &id, nil
}

// EnrollIfMapped enrolls userID in the course mapped to productID. Enrolling
// twice is a no-op that still reports true.
func (r *BuyerRepository) EnrollIfMapped(ctx context.Context, userID, productID, orderID string) (bool, error) {
	var courseID string
	err := r.pool.QueryRow(ctx,
		`SELECT course_id FROM product_courses WHERE product_id = $1`, productID,
	).Scan(&courseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get product course: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO enrollments (user_id, course_id, order_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	return true, nil
}
