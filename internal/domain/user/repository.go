package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines operations for user records
type Repository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// ListActiveIDs returns IDs of active users, for batch jobs
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}
