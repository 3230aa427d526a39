package content

import (
	"time"

	"github.com/google/uuid"
)

// Processing status of a content item
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Content is a learning-content record (uploaded document, lecture, etc.).
// ChunkCount is the number of processed segments and therefore the expected
// number of embedding vectors in the vector store.
type Content struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	Title      string    `db:"title"`
	SourceType string    `db:"source_type"` // pdf, video, article, ...
	Status     string    `db:"status"`
	ChunkCount int       `db:"chunk_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// PausedContent marks content whose derived-data generation was halted,
// typically by quota exhaustion. Created by the processing pipeline when
// admission is denied; cleared when the content is reprocessed.
type PausedContent struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ContentID uuid.UUID `db:"content_id"`
	Reason    string    `db:"reason"`
	PausedAt  time.Time `db:"paused_at"`
}
