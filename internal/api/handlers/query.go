package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/docqa/internal/api"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/service"
)

type QueryService interface {
	AnswerQuery(ctx context.Context, input service.QueryInput) (*domain.QueryResult, error)
}

type QueryHandler struct {
	svc     QueryService
	timeout time.Duration
}

// NewQueryHandler creates a query handler. A zero timeout leaves the request context alone.
func NewQueryHandler(svc QueryService, timeout time.Duration) *QueryHandler {
	return &QueryHandler{svc: svc, timeout: timeout}
}

type QueryRequest struct {
	Query        string   `json:"query"`
	DocumentsIDs []string `json:"documentsIds"`
	TopK         *int     `json:"topK,omitempty"`
}

type MatchedChunkResponse struct {
	Content    string `json:"content"`
	DocumentID string `json:"documentId"`
	ChunkIndex int    `json:"chunkIndex"`
}

type QueryResponse struct {
	Query         string                 `json:"query"`
	Answer        string                 `json:"answer"`
	DocumentsIDs  []string               `json:"documentsIds"`
	MatchedChunks []MatchedChunkResponse `json:"matchedChunks"`
}

func queryResultToResponse(r *domain.QueryResult) *QueryResponse {
	resp := &QueryResponse{
		Query:         r.Query,
		Answer:        r.Answer,
		DocumentsIDs:  r.DocumentIDs,
		MatchedChunks: make([]MatchedChunkResponse, 0, len(r.MatchedChunks)),
	}
	if resp.DocumentsIDs == nil {
		resp.DocumentsIDs = []string{}
	}
	for _, c := range r.MatchedChunks {
		resp.MatchedChunks = append(resp.MatchedChunks, MatchedChunkResponse{
			Content:    c.Content,
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
		})
	}
	return resp
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	input := service.QueryInput{
		Query:       req.Query,
		DocumentIDs: req.DocumentsIDs,
	}
	if req.TopK != nil {
		if *req.TopK <= 0 {
			api.HandleError(w, domain.ErrInvalidTopK)
			return
		}
		input.TopK = *req.TopK
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.svc.AnswerQuery(ctx, input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, queryResultToResponse(result))
}
