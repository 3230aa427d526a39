package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies the outcome of an AI API call attempt
type Status string

const (
	StatusSuccess       Status = "success"
	StatusFailure       Status = "failure"
	StatusQuotaExceeded Status = "quota_exceeded"
)

// Consumed reports whether the attempt actually reached the provider and
// therefore consumed quota. Pre-emptively denied attempts never did.
func (s Status) Consumed() bool {
	return s != StatusQuotaExceeded
}

// Request types recorded in the ledger
const (
	TypeQuestion  = "question"
	TypeEmbedding = "embedding"
	TypeSummary   = "summary"
	TypeFlashcard = "flashcard"
)

// Entry is a single AI API call attempt.
// Entries are immutable once written: the ledger is an append-only audit
// trail, never updated or deleted.
type Entry struct {
	Timestamp time.Time `ch:"timestamp"`
	EventID   string    `ch:"event_id"`

	// User context
	UserID    string `ch:"user_id"`
	ContentID string `ch:"content_id"` // empty when the call is not content-bound

	// Call details
	Provider    string `ch:"provider"` // openai, anthropic, gemini
	Endpoint    string `ch:"endpoint"`
	RequestType string `ch:"request_type"` // question, embedding, summary, flashcard
	Status      Status `ch:"status"`

	// Usage & cost
	TokensUsed uint32          `ch:"tokens_used"`
	CostUSD    decimal.Decimal `ch:"cost_usd"`

	// Performance
	DurationMs uint32 `ch:"duration_ms"`

	// Failure details
	ErrorCode    string `ch:"error_code"`
	ErrorMessage string `ch:"error_message"`

	Metadata  map[string]string `ch:"metadata"`
	CreatedAt time.Time         `ch:"created_at"`
}
