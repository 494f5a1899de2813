package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloo-solutions/docqa/internal/cli"
	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/database"
	"github.com/cloo-solutions/docqa/internal/openai"
	"github.com/cloo-solutions/docqa/internal/repository"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/storage"
	"github.com/cloo-solutions/docqa/internal/tokenizer"
	"github.com/cloo-solutions/docqa/internal/vectorstore/qdrant"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

var errOpenAINotConfigured = errors.New("DOCQA_OPENAI_API_KEY is required to answer queries")

// withServerEnv lists the DOCQA_* variables in cmd's --help-json output.
func withServerEnv(cmd *cobra.Command) *cobra.Command {
	if err := cli.AnnotateConfigEnv(cmd, config.EnvPrefix, &config.Config{}); err != nil {
		panic(err)
	}
	return cmd
}

// components holds the services shared by serve, ask and documents.
type components struct {
	queries   *service.QueryService
	documents *service.DocumentService
	closers   []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func getDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// buildComponents wires the document service and, when withQuery is set, the
// query pipeline against the configured vector store.
func buildComponents(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger, withQuery bool) (*components, error) {
	c := &components{}

	var index service.VectorIndex
	var points service.PointDeleter
	if cfg.UsesQdrant() {
		store, err := qdrant.New(qdrant.Config{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: cfg.QdrantCollection,
			Metric:     cfg.DistanceMetric,
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { _ = store.Close() })
		index = store
		points = store
		logger.Info("using qdrant vector store", "host", cfg.QdrantHost, "collection", cfg.QdrantCollection)
	} else {
		embeddings, err := repository.NewEmbeddingRepository(pool, cfg.DistanceMetric)
		if err != nil {
			return nil, err
		}
		index = embeddings
		logger.Info("using pgvector vector store", "metric", cfg.DistanceMetric)
	}

	var storageClient service.StorageClientInterface
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		storageClient = s3Client
	}

	c.documents = service.NewDocumentService(
		repository.NewDocumentRepository(pool),
		repository.NewTxRunner(pool),
		storageClient,
		points,
		logger,
	)

	if !withQuery {
		return c, nil
	}
	if !cfg.HasOpenAI() {
		c.Close()
		return nil, errOpenAINotConfigured
	}

	tok, err := tokenizer.ForModel(cfg.EmbeddingModel)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	adapter := openai.NewOpenAIAdapter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, goopenai.EmbeddingModel(cfg.EmbeddingModel), cfg.LLMModel)
	embedder := openai.NewClientWithAPI(adapter, openai.Config{
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		MaxRetries:          cfg.EmbeddingMaxRetries,
		BackoffFactor:       cfg.EmbeddingBackoff,
		Logger:              logger,
	})

	c.queries = service.NewQueryService(
		tok,
		embedder,
		index,
		service.NewAnswerSynthesizer(adapter),
		service.QueryConfig{
			Chunking:             cfg.ChunkingConfig,
			EmbeddingConcurrency: cfg.EmbeddingConcurrency,
			DefaultTopK:          cfg.TopK,
			MaxTopK:              cfg.MaxTopK,
		},
		logger,
	)

	return c, nil
}
