package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"athena/internal/domain/embedding"
	pkgerrors "athena/pkg/errors"
)

// Compile-time check
var _ embedding.Store = (*EmbeddingRepository)(nil)

// EmbeddingRepository implements embedding.Store using sqlx and pgvector
type EmbeddingRepository struct {
	db DBTX
}

// NewEmbeddingRepository creates a new embedding repository
func NewEmbeddingRepository(db DBTX) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Insert stores an embedded chunk
func (r *EmbeddingRepository) Insert(ctx context.Context, chunk *embedding.Chunk) error {
	query := `
		INSERT INTO content_chunks (
			id, content_id, user_id, chunk_index, text, embedding, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.db.ExecContext(ctx, query,
		chunk.ID, chunk.ContentID, chunk.UserID, chunk.ChunkIndex,
		chunk.Text, chunk.Embedding, chunk.CreatedAt,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to insert content chunk")
	}

	return nil
}

// CountByContent returns the number of vectors held for a content item
func (r *EmbeddingRepository) CountByContent(ctx context.Context, contentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM content_chunks WHERE content_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, contentID); err != nil {
		return 0, pkgerrors.Wrap(err, "failed to count content chunks")
	}

	return count, nil
}

// DeleteByContent removes all vectors for a content item.
// Idempotent: deleting entries that are already gone affects zero rows.
func (r *EmbeddingRepository) DeleteByContent(ctx context.Context, contentID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM content_chunks WHERE content_id = $1`, contentID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to delete content chunks")
	}

	return result.RowsAffected()
}

// SearchSimilar performs semantic search using pgvector cosine similarity
func (r *EmbeddingRepository) SearchSimilar(ctx context.Context, userID uuid.UUID, vector pgvector.Vector, limit int) ([]*embedding.Chunk, error) {
	query := `
		SELECT id, content_id, user_id, chunk_index, text, embedding, created_at
		FROM content_chunks
		WHERE user_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3`

	var chunks []*embedding.Chunk
	if err := r.db.SelectContext(ctx, &chunks, query, userID, vector, limit); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to search similar chunks")
	}

	return chunks, nil
}
