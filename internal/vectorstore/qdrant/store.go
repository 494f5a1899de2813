// Package qdrant serves nearest-chunk lookups from a Qdrant collection as an
// alternative to the pgvector table.
package qdrant

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/qdrant/go-client/qdrant"
)

// Payload keys written by the ingestion pipeline.
const (
	PayloadContent    = "content"
	PayloadDocumentID = "document_id"
	PayloadChunkIndex = "chunk_index"
)

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	// Metric must match the collection's distance: l2, cosine or inner_product.
	Metric string
}

// Store implements the vector index and point deletion over one collection.
type Store struct {
	client     *qdrant.Client
	collection string
	metric     string
}

// New dials Qdrant over gRPC.
func New(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return NewWithClient(client, cfg.Collection, cfg.Metric), nil
}

func NewWithClient(client *qdrant.Client, collection, metric string) *Store {
	if metric == "" {
		metric = "l2"
	}
	return &Store{client: client, collection: collection, metric: metric}
}

func (s *Store) Close() error {
	return s.client.Close()
}

// NearestChunks returns up to topK points ordered nearest first.
func (s *Store) NearestChunks(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidTopK
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, domain.ErrRetrieval.WithCause(err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(points))
	for _, p := range points {
		chunks = append(chunks, domain.RetrievedChunk{
			Content:    p.GetPayload()[PayloadContent].GetStringValue(),
			DocumentID: p.GetPayload()[PayloadDocumentID].GetStringValue(),
			ChunkIndex: int(p.GetPayload()[PayloadChunkIndex].GetIntegerValue()),
			Distance:   scoreToDistance(s.metric, p.GetScore()),
		})
	}
	return chunks, nil
}

// DeleteDocument removes every point whose payload belongs to documentID.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchKeyword(PayloadDocumentID, documentID)},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for document %s: %w", documentID, err)
	}
	return nil
}

// scoreToDistance maps a Qdrant score onto the pgvector convention where smaller is
// nearer. Euclid scores already are distances; similarity scores are flipped.
func scoreToDistance(metric string, score float32) float64 {
	switch metric {
	case "cosine":
		return 1 - float64(score)
	case "inner_product":
		return -float64(score)
	default:
		return float64(score)
	}
}
