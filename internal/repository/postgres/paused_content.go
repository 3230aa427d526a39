package postgres

import (
	"context"

	"github.com/google/uuid"

	"athena/internal/domain/content"
	pkgerrors "athena/pkg/errors"
)

// Compile-time check
var _ content.PauseRepository = (*PausedContentRepository)(nil)

// PausedContentRepository implements content.PauseRepository using sqlx
type PausedContentRepository struct {
	db DBTX
}

// NewPausedContentRepository creates a new paused content repository
func NewPausedContentRepository(db DBTX) *PausedContentRepository {
	return &PausedContentRepository{db: db}
}

// Mark records a pause marker. Marking already-paused content is a no-op.
func (r *PausedContentRepository) Mark(ctx context.Context, marker *content.PausedContent) error {
	query := `
		INSERT INTO paused_contents (id, user_id, content_id, reason, paused_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (content_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		marker.ID, marker.UserID, marker.ContentID, marker.Reason, marker.PausedAt,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to mark content as paused")
	}

	return nil
}

// Clear removes the pause marker for a content item.
// Clearing a marker that does not exist is a no-op.
func (r *PausedContentRepository) Clear(ctx context.Context, contentID uuid.UUID) error {
	query := `DELETE FROM paused_contents WHERE content_id = $1`

	if _, err := r.db.ExecContext(ctx, query, contentID); err != nil {
		return pkgerrors.Wrap(err, "failed to clear pause marker")
	}

	return nil
}

// CountByUser returns the number of paused content items for a user
func (r *PausedContentRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM paused_contents WHERE user_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, pkgerrors.Wrap(err, "failed to count paused content")
	}

	return count, nil
}

// ListByUser returns the pause markers for a user, oldest first
func (r *PausedContentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*content.PausedContent, error) {
	query := `
		SELECT id, user_id, content_id, reason, paused_at
		FROM paused_contents
		WHERE user_id = $1
		ORDER BY paused_at`

	var markers []*content.PausedContent
	if err := r.db.SelectContext(ctx, &markers, query, userID); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list paused content")
	}

	return markers, nil
}
