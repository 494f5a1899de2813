package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/telemetry"
	"github.com/cloo-solutions/docqa/internal/tokenizer"
	"golang.org/x/sync/errgroup"
)

// EmbeddingGenerator turns text into a fixed-dimension vector.
type EmbeddingGenerator interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex returns the stored chunks nearest to a vector, nearest first.
type VectorIndex interface {
	NearestChunks(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error)
}

// Synthesizer answers a question from retrieved chunks.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, chunks []domain.RetrievedChunk) (string, error)
}

type QueryInput struct {
	Query string
	// TopK of zero means the configured default.
	TopK int
	// DocumentIDs is echoed in the result. Retrieval searches the whole index.
	DocumentIDs []string
}

type QueryConfig struct {
	Chunking             config.ChunkingConfig
	EmbeddingConcurrency int
	DefaultTopK          int
	MaxTopK              int
}

// QueryService runs the retrieval-augmented answer pipeline.
type QueryService struct {
	tok      tokenizer.Tokenizer
	embedder EmbeddingGenerator
	index    VectorIndex
	synth    Synthesizer
	cfg      QueryConfig
	logger   *slog.Logger
}

func NewQueryService(
	tok tokenizer.Tokenizer,
	embedder EmbeddingGenerator,
	index VectorIndex,
	synth Synthesizer,
	cfg QueryConfig,
	logger *slog.Logger,
) *QueryService {
	if cfg.EmbeddingConcurrency <= 0 {
		cfg.EmbeddingConcurrency = 1
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		tok:      tok,
		embedder: embedder,
		index:    index,
		synth:    synth,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *QueryService) resolveTopK(topK int) (int, error) {
	switch {
	case topK == 0:
		return s.cfg.DefaultTopK, nil
	case topK < 0:
		return 0, domain.ErrInvalidTopK
	case s.cfg.MaxTopK > 0 && topK > s.cfg.MaxTopK:
		return 0, domain.ErrTopKTooLarge
	}
	return topK, nil
}

// AnswerQuery chunks and embeds the question, averages the chunk vectors, retrieves the
// nearest stored chunks and asks the chat model for an answer. The first failing stage
// ends the run and its error is returned as is.
func (s *QueryService) AnswerQuery(ctx context.Context, input QueryInput) (*domain.QueryResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "QueryService.AnswerQuery", telemetry.SpanAttributes{
		Operation: "answer_query",
	})
	defer span.End()

	topK, err := s.resolveTopK(input.TopK)
	if err != nil {
		return nil, err
	}

	if len(input.DocumentIDs) > 0 {
		s.logger.DebugContext(ctx, "document filter requested but not applied",
			"document_ids", input.DocumentIDs,
		)
	}

	stage := domain.QueryStageChunking
	fail := func(err error) error {
		s.logger.ErrorContext(ctx, "query pipeline failed", "stage", string(stage), "error", err)
		return err
	}

	var chunks []domain.Chunk
	if strings.TrimSpace(input.Query) != "" {
		chunks, err = stageRun(ctx, stage, telemetry.SpanAttributes{}, func(ctx context.Context) ([]domain.Chunk, error) {
			return ChunkText(s.tok, input.Query, s.cfg.Chunking)
		})
		if err != nil {
			return nil, fail(err)
		}
	}
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	stage = stage.Next()
	vectors, err := stageRun(ctx, stage, telemetry.SpanAttributes{ChunkCount: len(chunks)}, func(ctx context.Context) ([][]float32, error) {
		return s.embedChunks(ctx, chunks)
	})
	if err != nil {
		return nil, fail(err)
	}

	stage = stage.Next()
	queryVector, err := stageRun(ctx, stage, telemetry.SpanAttributes{ChunkCount: len(vectors)}, func(context.Context) ([]float32, error) {
		return AverageEmbeddings(vectors)
	})
	if err != nil {
		return nil, fail(err)
	}

	stage = stage.Next()
	matched, err := stageRun(ctx, stage, telemetry.SpanAttributes{TopK: topK}, func(ctx context.Context) ([]domain.RetrievedChunk, error) {
		return s.index.NearestChunks(ctx, queryVector, topK)
	})
	if err != nil {
		return nil, fail(err)
	}

	stage = stage.Next()
	answer, err := stageRun(ctx, stage, telemetry.SpanAttributes{ChunkCount: len(matched)}, func(ctx context.Context) (string, error) {
		return s.synth.Synthesize(ctx, input.Query, matched)
	})
	if err != nil {
		return nil, fail(err)
	}

	s.logger.InfoContext(ctx, "query answered",
		"chunks", len(chunks),
		"top_k", topK,
		"matched", len(matched),
	)

	return &domain.QueryResult{
		Query:         input.Query,
		Answer:        answer,
		DocumentIDs:   input.DocumentIDs,
		MatchedChunks: matched,
	}, nil
}

// stageRun wraps one pipeline stage in its own span.
func stageRun[T any](ctx context.Context, stage domain.QueryStage, attrs telemetry.SpanAttributes, fn func(context.Context) (T, error)) (T, error) {
	attrs.Stage = string(stage)
	telemetry.AddBreadcrumb(ctx, "query", string(stage))
	ctx, span := telemetry.StartSpan(ctx, "query."+string(stage), attrs)
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		span.SetError(err)
	}
	return out, err
}

// embedChunks embeds every chunk with bounded parallelism. The result is indexed by
// chunk position. The first failure cancels the remaining calls.
func (s *QueryService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbeddingConcurrency)
	for i, c := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := s.embedder.GenerateEmbedding(gctx, c.Text)
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
