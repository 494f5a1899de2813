package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/docqa/internal/api"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentService interface {
	List(ctx context.Context, cursor string, limit int) (*service.DocumentPage, error)
	Delete(ctx context.Context, id string) error
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type DocumentResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	S3Key       string `json:"s3Key"`
	UploadedBy  string `json:"uploadedBy,omitempty"`
	Processed   bool   `json:"processed"`
	CreatedAt   string `json:"createdAt"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Cursor    string              `json:"cursor,omitempty"`
	HasMore   bool                `json:"hasMore"`
}

func documentToResponse(v service.DocumentView) *DocumentResponse {
	return &DocumentResponse{
		ID:          v.ID,
		Title:       v.Title,
		S3Key:       v.S3Key,
		UploadedBy:  v.UploadedBy,
		Processed:   v.Processed,
		CreatedAt:   v.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		DownloadURL: v.DownloadURL,
	}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	page, err := h.svc.List(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := &DocumentListResponse{
		Documents: make([]*DocumentResponse, 0, len(page.Items)),
		Cursor:    page.NextCursor,
		HasMore:   page.HasMore,
	}
	for _, v := range page.Items {
		resp.Documents = append(resp.Documents, documentToResponse(v))
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
