package embedding

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Chunk is one embedded segment of a content item in the vector store
type Chunk struct {
	ID         uuid.UUID       `db:"id"`
	ContentID  uuid.UUID       `db:"content_id"`
	UserID     uuid.UUID       `db:"user_id"`
	ChunkIndex int             `db:"chunk_index"`
	Text       string          `db:"text"`
	Embedding  pgvector.Vector `db:"embedding"`
	CreatedAt  time.Time       `db:"created_at"`
}
