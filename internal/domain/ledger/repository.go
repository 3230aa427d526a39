package ledger

import (
	"context"
	"time"
)

// Repository defines operations on the request ledger
type Repository interface {
	// Store appends a ledger entry
	Store(ctx context.Context, entry *Entry) error

	// CountByUserSince returns the number of entries for a user since a point in time
	CountByUserSince(ctx context.Context, userID string, since time.Time) (uint64, error)

	// CountByUserProviderSince narrows the count to one provider
	CountByUserProviderSince(ctx context.Context, userID string, provider string, since time.Time) (uint64, error)

	// CountByStatusSince returns the number of entries with a given status since a point in time
	CountByStatusSince(ctx context.Context, status Status, since time.Time) (uint64, error)

	// RecentByUser returns the most recent entries for a user, newest first
	RecentByUser(ctx context.Context, userID string, limit int) ([]*Entry, error)
}
