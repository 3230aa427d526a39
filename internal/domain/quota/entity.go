package quota

import (
	"time"

	"github.com/google/uuid"
)

// AI providers tracked per usage window
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// UsageWindow is the rolling request counter for one (user, provider) pair.
// The window is half-open [WindowStart, WindowEnd); exactly one window is
// active per pair at any time and it is reset lazily, never by a timer.
type UsageWindow struct {
	UserID      uuid.UUID
	Provider    string
	Count       int
	WindowStart time.Time
	WindowEnd   time.Time
}

// Expired reports whether the window has passed at the given instant
func (w *UsageWindow) Expired(now time.Time) bool {
	return !now.Before(w.WindowEnd)
}

// WeeklyCounter is the coarse weekly question counter per user.
// ResetAt is advanced by exactly one week from now (not from the old
// boundary) when it rolls over; drift is accepted.
type WeeklyCounter struct {
	UserID  uuid.UUID
	Count   int
	ResetAt time.Time
}

// AdmissionDecision is the result of an admission check.
// A denial is a decision, not an error.
type AdmissionDecision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Reason    string    `json:"reason,omitempty"`
}

// Denial reasons
const (
	ReasonQuotaExceeded       = "quota_exceeded"
	ReasonWeeklyQuotaExceeded = "weekly_quota_exceeded"
)

// WindowUsage is the externally visible state of one provider window
type WindowUsage struct {
	Used    int       `json:"used"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at"`
}

// WeeklyUsage is the externally visible state of the weekly question counter
type WeeklyUsage struct {
	Used    int       `json:"used"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at"`
}

// Summary aggregates current usage across providers for one user
type Summary struct {
	UserID          uuid.UUID              `json:"user_id"`
	Tier            Tier                   `json:"tier"`
	Windows         map[string]WindowUsage `json:"windows"`
	WeeklyQuestions WeeklyUsage            `json:"weekly_questions"`
}
