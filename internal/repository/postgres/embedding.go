package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"meridian/internal/adapters/embeddings"
	"meridian/pkg/errors"
)

// Compile-time check
var _ embeddings.VectorStore = (*EmbeddingRepository)(nil)

// EmbeddingRepository persists review embedding vectors using pgvector.
// Rows are keyed by (model, text_hash), so switching the embedding model
// never serves stale vectors.
type EmbeddingRepository struct {
	db DBTX
}

// NewEmbeddingRepository creates a new embedding repository
func NewEmbeddingRepository(db DBTX) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

type embeddingRow struct {
	TextHash  string          `db:"text_hash"`
	Model     string          `db:"model"`
	Embedding pgvector.Vector `db:"embedding"`
	CreatedAt time.Time       `db:"created_at"`
}

// GetVectors retrieves cached vectors for the given text hashes
func (r *EmbeddingRepository) GetVectors(ctx context.Context, model string, hashes []string) (map[string][]float32, error) {
	if len(hashes) == 0 {
		return map[string][]float32{}, nil
	}

	var rows []embeddingRow

	query := `
		SELECT text_hash, model, embedding, created_at
		FROM review_embeddings
		WHERE model = $1 AND text_hash = ANY($2)`

	err := r.db.SelectContext(ctx, &rows, query, model, pq.Array(hashes))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get embeddings: model=%s", model)
	}

	vectors := make(map[string][]float32, len(rows))
	for _, row := range rows {
		vectors[row.TextHash] = row.Embedding.Slice()
	}

	return vectors, nil
}

// PutVectors stores vectors, overwriting existing rows for the same hash
func (r *EmbeddingRepository) PutVectors(ctx context.Context, model string, vectors map[string][]float32) error {
	query := `
		INSERT INTO review_embeddings (text_hash, model, embedding, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (model, text_hash) DO UPDATE SET embedding = EXCLUDED.embedding`

	for hash, vec := range vectors {
		_, err := r.db.ExecContext(ctx, query, hash, model, pgvector.NewVector(vec))
		if err != nil {
			return errors.Wrapf(err, "failed to store embedding: model=%s hash=%s", model, hash)
		}
	}

	return nil
}

// DeleteOlderThan removes vectors older than the given age
func (r *EmbeddingRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	result, err := r.db.ExecContext(ctx, `DELETE FROM review_embeddings WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete old embeddings")
	}

	return result.RowsAffected()
}
