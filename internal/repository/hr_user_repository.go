package repository

import (
	"context"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HRUserRepository handles HR reviewer account data access.
type HRUserRepository struct {
	pool *pgxpool.Pool
}

// NewHRUserRepository creates a new HRUserRepository.
func NewHRUserRepository(pool *pgxpool.Pool) *HRUserRepository {
	return &HRUserRepository{pool: pool}
}

// GetByEmail retrieves an HR user by email.
func (r *HRUserRepository) GetByEmail(ctx context.Context, email string) (*model.HRUser, error) {
	u := &model.HRUser{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM hr_users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new HR user (see cmd/create-hr).
func (r *HRUserRepository) Create(ctx context.Context, u *model.HRUser) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO hr_users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		u.Name, u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
}
