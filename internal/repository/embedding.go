package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var distanceOperators = map[string]string{
	"l2":            "<->",
	"cosine":        "<=>",
	"inner_product": "<#>",
}

// DistanceOperator returns the pgvector operator for a metric name.
func DistanceOperator(metric string) (string, error) {
	if metric == "" {
		metric = "l2"
	}
	op, ok := distanceOperators[metric]
	if !ok {
		return "", fmt.Errorf("unsupported distance metric %q", metric)
	}
	return op, nil
}

// EmbeddingRepository searches and maintains the embeddings table.
type EmbeddingRepository struct {
	db       dbtx
	operator string
}

// NewEmbeddingRepository returns a repository ranking by the given metric. The metric
// must match the one the stored vectors were indexed for.
func NewEmbeddingRepository(pool *pgxpool.Pool, metric string) (*EmbeddingRepository, error) {
	op, err := DistanceOperator(metric)
	if err != nil {
		return nil, err
	}
	return &EmbeddingRepository{db: pool, operator: op}, nil
}

func NewEmbeddingRepositoryWithTx(tx pgx.Tx) *EmbeddingRepository {
	return &EmbeddingRepository{db: tx, operator: distanceOperators["l2"]}
}

// NearestChunks returns up to topK stored chunks ordered nearest first.
func (r *EmbeddingRepository) NearestChunks(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidTopK
	}

	query := fmt.Sprintf(
		`SELECT content, document_id, chunk_index, embedding %[1]s $1 AS distance
		 FROM embeddings
		 ORDER BY embedding %[1]s $1
		 LIMIT $2`,
		r.operator,
	)

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, domain.ErrRetrieval.WithCause(err)
	}
	defer rows.Close()

	chunks := make([]domain.RetrievedChunk, 0, topK)
	for rows.Next() {
		var c domain.RetrievedChunk
		if err := rows.Scan(&c.Content, &c.DocumentID, &c.ChunkIndex, &c.Distance); err != nil {
			return nil, domain.ErrRetrieval.WithCause(err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrRetrieval.WithCause(err)
	}

	return chunks, nil
}

// DeleteByDocument removes every chunk of a document and reports how many were removed.
func (r *EmbeddingRepository) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM embeddings WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
