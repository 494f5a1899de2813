package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every variable Load reads.
const EnvPrefix = "DOCQA"

const (
	VectorStorePgvector = "pgvector"
	VectorStoreQdrant   = "qdrant"

	MetricL2           = "l2"
	MetricCosine       = "cosine"
	MetricInnerProduct = "inner_product"

	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// ChunkingConfig is shared with the ingestion pipeline through the same env vars.
// Query-time and ingest-time values must agree or retrieval quality degrades.
type ChunkingConfig struct {
	Size    int `envconfig:"CHUNK_SIZE" default:"200"`
	Overlap int `envconfig:"CHUNK_OVERLAP" default:"30"`
}

func (c ChunkingConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.Size, c.Overlap)
	}
	return nil
}

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docqa-raw"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	EmbeddingModel       string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	EmbeddingDimensions  int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbeddingMaxRetries  int           `envconfig:"EMBEDDING_MAX_RETRIES" default:"3"`
	EmbeddingBackoff     time.Duration `envconfig:"EMBEDDING_BACKOFF" default:"1s"`
	EmbeddingConcurrency int           `envconfig:"EMBEDDING_CONCURRENCY" default:"4"`
	LLMModel             string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`

	ChunkingConfig

	TopK         int           `envconfig:"TOP_K" default:"5"`
	MaxTopK      int           `envconfig:"MAX_TOP_K" default:"50"`
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" default:"60s"`

	// Zero checks ingest settings only at startup.
	IngestCheckInterval time.Duration `envconfig:"INGEST_CHECK_INTERVAL" default:"5m"`

	VectorStore    string `envconfig:"VECTOR_STORE" default:"pgvector"`
	DistanceMetric string `envconfig:"DISTANCE_METRIC" default:"l2"`

	QdrantHost       string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort       int    `envconfig:"QDRANT_PORT" default:"6334"`
	QdrantAPIKey     string `envconfig:"QDRANT_API_KEY"`
	QdrantCollection string `envconfig:"QDRANT_COLLECTION" default:"embeddings"`
	QdrantUseTLS     bool   `envconfig:"QDRANT_USE_TLS" default:"false"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if err := c.ChunkingConfig.Validate(); err != nil {
		return err
	}

	switch c.DistanceMetric {
	case MetricL2, MetricCosine, MetricInnerProduct:
	default:
		return fmt.Errorf("unknown distance metric %q", c.DistanceMetric)
	}

	switch c.VectorStore {
	case VectorStorePgvector, VectorStoreQdrant:
	default:
		return fmt.Errorf("unknown vector store %q", c.VectorStore)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON, LogFormatPretty:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if c.TopK <= 0 || c.TopK > c.MaxTopK {
		return fmt.Errorf("top k must be in [1, %d], got %d", c.MaxTopK, c.TopK)
	}
	if c.EmbeddingMaxRetries < 0 {
		return fmt.Errorf("embedding max retries must not be negative")
	}
	if c.EmbeddingConcurrency <= 0 {
		return fmt.Errorf("embedding concurrency must be positive")
	}
	if c.IngestCheckInterval < 0 {
		return fmt.Errorf("ingest check interval must not be negative")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive")
	}

	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) UsesQdrant() bool {
	return c.VectorStore == VectorStoreQdrant
}
