package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WindowRepository persists usage windows and the weekly question counter.
//
// Peek methods are read-only: they compute the lazily-reset view of a window
// without writing anything back. Increment methods perform the lazy reset and
// the conditional increment as one atomic storage operation so that two
// concurrent callers can never both take the last slot under the limit.
type WindowRepository interface {
	// Peek returns the current window state for (userID, provider),
	// presenting a fresh zero-count window if the stored one has expired.
	Peek(ctx context.Context, userID uuid.UUID, provider string, windowLength time.Duration) (*UsageWindow, error)

	// IncrementIfUnder atomically resets an expired window and increments
	// the count if it is under limit. Returns the post-operation window
	// state and whether the increment was applied.
	IncrementIfUnder(ctx context.Context, userID uuid.UUID, provider string, limit int, windowLength time.Duration) (*UsageWindow, bool, error)

	// WeeklyPeek returns the weekly counter, presenting a zero count with
	// ResetAt one week from now if the stored boundary has passed.
	WeeklyPeek(ctx context.Context, userID uuid.UUID, weekLength time.Duration) (*WeeklyCounter, error)

	// WeeklyIncrementIfUnder is the weekly analogue of IncrementIfUnder.
	WeeklyIncrementIfUnder(ctx context.Context, userID uuid.UUID, limit int, weekLength time.Duration) (*WeeklyCounter, bool, error)
}
