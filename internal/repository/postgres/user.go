package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"athena/internal/domain/user"
	pkgerrors "athena/pkg/errors"
)

// Compile-time check
var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository using sqlx
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT id, email, display_name, tier, is_active, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "user not found: %s", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user")
	}

	return &u, nil
}

// ListActiveIDs returns IDs of all active users
func (r *UserRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM users
		WHERE is_active = true
		ORDER BY created_at`

	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list active user ids")
	}

	return ids, nil
}
