package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"athena/internal/domain/content"
	pkgerrors "athena/pkg/errors"
)

// Compile-time check
var _ content.Repository = (*ContentRepository)(nil)

// ContentRepository implements content.Repository using sqlx
type ContentRepository struct {
	db DBTX
}

// NewContentRepository creates a new content repository
func NewContentRepository(db DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

// GetByID retrieves a content record by ID
func (r *ContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	query := `
		SELECT id, user_id, title, source_type, status, chunk_count, created_at, updated_at
		FROM contents
		WHERE id = $1`

	var c content.Content
	err := r.db.GetContext(ctx, &c, query, id)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "content not found: %s", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get content")
	}

	return &c, nil
}

// ListByUser returns up to limit content items for a user, newest first.
// Stable deterministic order: created_at descending with id as tie-break.
func (r *ContentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*content.Content, error) {
	query := `
		SELECT id, user_id, title, source_type, status, chunk_count, created_at, updated_at
		FROM contents
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	var items []*content.Content
	if err := r.db.SelectContext(ctx, &items, query, userID, limit); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list content by user")
	}

	return items, nil
}

// ExistsByID reports whether a content record exists
func (r *ContentRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM contents WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, pkgerrors.Wrap(err, "failed to check content existence")
	}

	return exists, nil
}
