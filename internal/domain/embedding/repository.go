package embedding

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Store is the vector index keyed by content ID
type Store interface {
	// Insert stores an embedded chunk
	Insert(ctx context.Context, chunk *Chunk) error

	// CountByContent returns the number of vectors held for a content item
	CountByContent(ctx context.Context, contentID uuid.UUID) (int, error)

	// DeleteByContent removes all vectors for a content item and returns
	// the number deleted. Deleting an already-deleted entry is a no-op.
	DeleteByContent(ctx context.Context, contentID uuid.UUID) (int64, error)

	// SearchSimilar performs semantic search over a user's chunks
	SearchSimilar(ctx context.Context, userID uuid.UUID, vector pgvector.Vector, limit int) ([]*Chunk, error)
}
