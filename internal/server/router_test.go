package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/docqa/internal/api/handlers"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/logger"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) AnswerQuery(ctx context.Context, input service.QueryInput) (*domain.QueryResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryResult), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, cursor string, limit int) (*service.DocumentPage, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentPage), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func setupRouter(queries *MockQueryService, docs *MockDocumentService, maxBody int64) http.Handler {
	return NewRouter(RouterConfig{
		Logger:          logger.Nop(),
		QueryHandler:    handlers.NewQueryHandler(queries, time.Minute),
		DocumentHandler: handlers.NewDocumentHandler(docs),
		HealthHandler:   handlers.NewHealthHandler(okPinger{}, logger.Nop()),
		MaxBodyBytes:    maxBody,
	})
}

func TestRouter_Health(t *testing.T) {
	router := setupRouter(new(MockQueryService), new(MockDocumentService), 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestRouter_Query(t *testing.T) {
	queries := new(MockQueryService)
	router := setupRouter(queries, new(MockDocumentService), 0)

	queries.On("AnswerQuery", mock.Anything, service.QueryInput{Query: "who?"}).
		Return(&domain.QueryResult{Query: "who?", Answer: "I don't know."}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(`{"query":"who?"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	queries.AssertExpectations(t)
}

func TestRouter_QueryRejectsGet(t *testing.T) {
	router := setupRouter(new(MockQueryService), new(MockDocumentService), 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/query", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_QueryBodyTooLarge(t *testing.T) {
	router := setupRouter(new(MockQueryService), new(MockDocumentService), 16)

	body := `{"query":"` + strings.Repeat("a", 64) + `"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_Documents(t *testing.T) {
	docs := new(MockDocumentService)
	router := setupRouter(new(MockQueryService), docs, 0)

	docs.On("List", mock.Anything, "", 0).Return(&service.DocumentPage{}, nil)
	docs.On("Delete", mock.Anything, "doc-9").Return(domain.ErrDocumentNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"documents":[],"hasMore":false}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/doc-9", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	docs.AssertExpectations(t)
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	queries := new(MockQueryService)
	router := setupRouter(queries, new(MockDocumentService), 0)

	queries.On("AnswerQuery", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("unexpected")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(`{"query":"x"}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
