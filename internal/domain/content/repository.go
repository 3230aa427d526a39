package content

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines operations for content records
type Repository interface {
	// GetByID retrieves a content record; errors.ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*Content, error)

	// ListByUser returns up to limit content items for a user,
	// most recently created first
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Content, error)

	// ExistsByID reports whether a content record exists
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

// PauseRepository defines operations for paused-content markers
type PauseRepository interface {
	// Mark records a pause marker; marking already-paused content is a no-op
	Mark(ctx context.Context, marker *PausedContent) error

	// Clear removes the marker for a content item
	Clear(ctx context.Context, contentID uuid.UUID) error

	// CountByUser returns the number of paused content items for a user
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// ListByUser returns the pause markers for a user
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*PausedContent, error)
}
