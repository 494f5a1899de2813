package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
	args := m.Called(ctx, id)
	return args.Error(0)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestDocumentHandler_List_Success(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.On("List", mock.Anything, "abc", 2).Return(&service.DocumentPage{
		Items: []service.DocumentView{
			{
				Document:    domain.NewDocument("doc-1", "raw/doc-1.pdf", "Handbook", "alice", created, true),
				DownloadURL: "https://s3.local/raw/doc-1.pdf?sig=1",
			},
			{Document: domain.NewDocument("doc-2", "raw/doc-2.pdf", "Policy", "", created, false)},
		},
		NextCursor: "next",
		HasMore:    true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=2&cursor=abc", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp DocumentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "doc-1", resp.Documents[0].ID)
	assert.True(t, resp.Documents[0].Processed)
	assert.Equal(t, "2024-05-01T12:00:00Z", resp.Documents[0].CreatedAt)
	assert.Equal(t, "https://s3.local/raw/doc-1.pdf?sig=1", resp.Documents[0].DownloadURL)
	assert.Empty(t, resp.Documents[1].DownloadURL)
	assert.Equal(t, "next", resp.Cursor)
	assert.True(t, resp.HasMore)
}

func TestDocumentHandler_List_InvalidLimit(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentHandler_List_InvalidCursor(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("List", mock.Anything, "!!", 0).Return(nil, domain.ErrInvalidCursor)

	req := httptest.NewRequest(http.MethodGet, "/documents?cursor=!!", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_Delete_Success(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Delete", mock.Anything, "doc-1").Return(nil)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil), "id", "doc-1")
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Delete_NotFound(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Delete", mock.Anything, "missing").Return(domain.ErrDocumentNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/documents/missing", nil), "id", "missing")
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Delete_StorageFailure(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Delete", mock.Anything, "doc-1").
		Return(domain.ErrStorageOperationFail.WithCause(errors.New("connection reset")))

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil), "id", "doc-1")
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
