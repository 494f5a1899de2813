package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/pagination"
	"github.com/cloo-solutions/docqa/internal/telemetry"
)

const (
	DefaultDocumentPageSize = 20
	MaxDocumentPageSize     = 100
)

type DocumentRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
	Delete(ctx context.Context, id string) error
}

// EmbeddingStoreInterface removes a document's chunks from the Postgres index.
type EmbeddingStoreInterface interface {
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}

// PointDeleter removes a document's vectors from an external vector store.
type PointDeleter interface {
	DeleteDocument(ctx context.Context, documentID string) error
}

type StorageClientInterface interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// DocumentView is a document plus a short-lived download link when storage is configured.
type DocumentView struct {
	*domain.Document
	DownloadURL string
}

type DocumentPage struct {
	Items      []DocumentView
	NextCursor string
	HasMore    bool
}

type DocumentService struct {
	documents DocumentRepositoryInterface
	txRunner  TxRunner
	storage   StorageClientInterface
	points    PointDeleter
	logger    *slog.Logger
}

// NewDocumentService wires document listing and deletion. storage and points may be nil.
func NewDocumentService(
	documents DocumentRepositoryInterface,
	txRunner TxRunner,
	storage StorageClientInterface,
	points PointDeleter,
	logger *slog.Logger,
) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		documents: documents,
		txRunner:  txRunner,
		storage:   storage,
		points:    points,
		logger:    logger,
	}
}

// List returns one page of documents, newest first.
func (s *DocumentService) List(ctx context.Context, cursor string, limit int) (*DocumentPage, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	if limit <= 0 {
		limit = DefaultDocumentPageSize
	}
	if limit > MaxDocumentPageSize {
		limit = MaxDocumentPageSize
	}

	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}

	result, err := s.documents.ListWithCursor(ctx, decoded, limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	page := &DocumentPage{
		Items:      make([]DocumentView, 0, len(result.Items)),
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}
	for _, d := range result.Items {
		view := DocumentView{Document: d}
		if s.storage != nil {
			url, err := s.storage.GenerateDownloadURL(ctx, d.S3Key)
			if err != nil {
				s.logger.WarnContext(ctx, "failed to presign download", "document_id", d.ID, "error", err)
			} else {
				view.DownloadURL = url
			}
		}
		page.Items = append(page.Items, view)
	}

	return page, nil
}

// Delete removes a document and its chunks in one transaction, then its vectors in the
// external store and its raw object. Failures after the commit are logged, not returned.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "delete",
	})
	defer span.End()

	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var removed int64
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		n, err := repos.Embeddings().DeleteByDocument(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return repos.Documents().Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			span.SetError(err)
		}
		return err
	}

	if s.points != nil {
		if err := s.points.DeleteDocument(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to delete vector points", "document_id", id, "error", err)
			telemetry.CaptureError(ctx, err)
		}
	}

	if s.storage != nil {
		if err := s.storage.DeleteObject(ctx, doc.S3Key); err != nil {
			s.logger.WarnContext(ctx, "failed to delete raw object", "document_id", id, "s3_key", doc.S3Key, "error", err)
			telemetry.CaptureError(ctx, err)
		}
	}

	s.logger.InfoContext(ctx, "document deleted", "document_id", id, "chunks_removed", removed)
	return nil
}
