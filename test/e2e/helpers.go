//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloo-solutions/docqa/internal/api/handlers"
	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/logger"
	"github.com/cloo-solutions/docqa/internal/openai"
	"github.com/cloo-solutions/docqa/internal/repository"
	"github.com/cloo-solutions/docqa/internal/server"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/storage"
	"github.com/cloo-solutions/docqa/internal/testutil"
	"github.com/cloo-solutions/docqa/internal/tokenizer"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	testBucket    = "docqa-raw"
	testAccessKey = "rustfsadmin"
	testSecretKey = "rustfsadmin"
	dims          = 1536
)

// Topic words steer the fake embedding provider: text mentioning a topic embeds to
// that topic's unit vector, anything else to the last axis.
var topics = []string{"refund", "shipping", "warranty"}

func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	for i, topic := range topics {
		if strings.Contains(lower, topic) {
			return testutil.UnitVector(dims, i)
		}
	}
	return testutil.UnitVector(dims, dims-1)
}

// FakeOpenAI serves the embeddings and chat completions endpoints.
type FakeOpenAI struct {
	Server *httptest.Server

	mu             sync.Mutex
	prompts        []string
	embeddingCalls int
	failEmbeddings int
	answerFor      func(prompt string) string
}

func NewFakeOpenAI(t *testing.T) *FakeOpenAI {
	f := &FakeOpenAI{
		answerFor: func(prompt string) string {
			if strings.Contains(prompt, "30 days") {
				return "Refunds are accepted within 30 days."
			}
			return service.FallbackAnswer
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.embeddingCalls++
		fail := f.failEmbeddings > 0
		if fail {
			f.failEmbeddings--
		}
		f.mu.Unlock()

		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream overloaded","type":"server_error"}}`))
			return
		}

		data := make([]map[string]interface{}, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": topicVector(text),
			}
		}
		writeJSON(w, map[string]interface{}{
			"object": "list",
			"model":  "text-embedding-ada-002",
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var prompt strings.Builder
		for _, m := range req.Messages {
			prompt.WriteString(m.Content)
			prompt.WriteString("\n")
		}

		f.mu.Lock()
		f.prompts = append(f.prompts, prompt.String())
		answer := f.answerFor(prompt.String())
		f.mu.Unlock()

		writeJSON(w, map[string]interface{}{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": "  " + answer + "\n"},
			}},
		})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeOpenAI) BaseURL() string {
	return f.Server.URL + "/v1"
}

// FailNextEmbeddings makes the next n embedding calls return 503.
func (f *FakeOpenAI) FailNextEmbeddings(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failEmbeddings = n
}

func (f *FakeOpenAI) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *FakeOpenAI) EmbeddingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embeddingCalls
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T         *testing.T
	Ctx       context.Context
	PostgresC *testutil.PostgresContainer
	RustFSC   *testutil.RustFSContainer
	Pool      *pgxpool.Pool
	OpenAI    *FakeOpenAI
	Server    *httptest.Server
	S3        *s3.Client
	BinaryDir string

	HTTPClient *http.Client
}

// SetupE2EEnv starts Postgres with pgvector, RustFS and a fake OpenAI, then serves the
// full router in-process.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testAccessKey,
		SecretAccessKey: testSecretKey,
		Bucket:          testBucket,
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	fake := NewFakeOpenAI(t)

	env := &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		OpenAI:     fake,
		S3:         rawS3Client(ctx, t, s3C.Endpoint()),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	env.Server = httptest.NewServer(buildRouter(t, pool, s3Client, fake))

	return env
}

func rawS3Client(ctx context.Context, t *testing.T, endpoint string) *s3.Client {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(testAccessKey, testSecretKey, "")),
	)
	if err != nil {
		t.Fatalf("failed to load aws config: %v", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
}

func buildRouter(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, fake *FakeOpenAI) http.Handler {
	log := logger.Nop()

	tok, err := tokenizer.ForModel("text-embedding-ada-002")
	if err != nil {
		t.Fatalf("failed to load tokenizer: %v", err)
	}

	embeddings, err := repository.NewEmbeddingRepository(pool, config.MetricL2)
	if err != nil {
		t.Fatalf("failed to create embedding repository: %v", err)
	}

	adapter := openai.NewOpenAIAdapter("sk-test", fake.BaseURL(), goopenai.AdaEmbeddingV2, goopenai.GPT4oMini)
	embedder := openai.NewClientWithAPI(adapter, openai.Config{
		EmbeddingDimensions: dims,
		MaxRetries:          1,
		BackoffFactor:       10 * time.Millisecond,
		Logger:              log,
	})

	queries := service.NewQueryService(tok, embedder, embeddings, service.NewAnswerSynthesizer(adapter), service.QueryConfig{
		Chunking:             config.ChunkingConfig{Size: 200, Overlap: 30},
		EmbeddingConcurrency: 4,
		DefaultTopK:          5,
		MaxTopK:              50,
	}, log)

	documents := service.NewDocumentService(
		repository.NewDocumentRepository(pool),
		repository.NewTxRunner(pool),
		s3Client,
		nil,
		log,
	)

	return server.NewRouter(server.RouterConfig{
		Logger:          log,
		QueryHandler:    handlers.NewQueryHandler(queries, 30*time.Second),
		DocumentHandler: handlers.NewDocumentHandler(documents),
		HealthHandler:   handlers.NewHealthHandler(pool, log),
	})
}

func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// SeedDocument stores a document row, its raw object and one chunk per content string.
func (e *E2ETestEnv) SeedDocument(id, title string, createdAt time.Time, contents ...string) *domain.Document {
	doc := domain.NewDocument(id, "raw/"+id+".pdf", title, "e2e", createdAt, true)
	if err := repository.NewDocumentRepository(e.Pool).Create(e.Ctx, doc); err != nil {
		e.T.Fatalf("failed to create document: %v", err)
	}

	_, err := e.S3.PutObject(e.Ctx, &s3.PutObjectInput{
		Bucket:      aws.String(testBucket),
		Key:         aws.String(doc.S3Key),
		Body:        bytes.NewReader([]byte("%PDF-1.4 " + title)),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		e.T.Fatalf("failed to upload raw object: %v", err)
	}

	for i, content := range contents {
		if err := testutil.SeedChunk(e.Ctx, e.Pool, id, i, content, topicVector(content)); err != nil {
			e.T.Fatalf("failed to seed chunk: %v", err)
		}
	}
	return doc
}

func (e *E2ETestEnv) ChunkCount(documentID string) int {
	var n int
	if err := e.Pool.QueryRow(e.Ctx, "SELECT count(*) FROM embeddings WHERE document_id = $1", documentID).Scan(&n); err != nil {
		e.T.Fatalf("failed to count chunks: %v", err)
	}
	return n
}

func (e *E2ETestEnv) ObjectExists(key string) bool {
	_, err := e.S3.HeadObject(e.Ctx, &s3.HeadObjectInput{Bucket: aws.String(testBucket), Key: aws.String(key)})
	return err == nil
}

// Response is a raw HTTP response with its body read.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(r.Body), err)
	}
}

func (e *E2ETestEnv) Get(path string) *Response {
	return e.doRequest(http.MethodGet, path, nil)
}

func (e *E2ETestEnv) Post(path string, body interface{}) *Response {
	return e.doRequest(http.MethodPost, path, body)
}

func (e *E2ETestEnv) Delete(path string) *Response {
	return e.doRequest(http.MethodDelete, path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) *Response {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = strings.NewReader(b)
	default:
		jsonData, err := json.Marshal(b)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}
}

func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "docqa-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "docqa"), "./cmd/docqa")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build docqa: %v\n%s", err, out)
	}
}

func (e *E2ETestEnv) RunDocqa(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "docqa"), args...)
	cmd.Dir = e.BinaryDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("DOCQA_API_URL=%s", e.Server.URL),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", e.BinaryDir),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
