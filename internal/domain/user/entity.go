package user

import (
	"time"

	"github.com/google/uuid"

	"athena/internal/domain/quota"
)

// User is a platform account
type User struct {
	ID          uuid.UUID  `db:"id"`
	Email       string     `db:"email"`
	DisplayName string     `db:"display_name"`
	Tier        quota.Tier `db:"tier"`
	IsActive    bool       `db:"is_active"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}
