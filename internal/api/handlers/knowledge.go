package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/clarivex-health/advera/internal/api"
	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/service"
)

// maxQueryChars caps free-text search queries, in runes, before embedding.
const maxQueryChars = 500

type KnowledgeService interface {
	Search(ctx context.Context, query string, docType domain.DocumentType, topK int) ([]domain.RetrievedChunk, error)
	ListNames(ctx context.Context, docType domain.DocumentType) ([]string, error)
	ListChunks(ctx context.Context, docType domain.DocumentType, cursor string, limit int) (*service.ChunkPageResult, error)
}

type KnowledgeHandler struct {
	svc KnowledgeService
}

func NewKnowledgeHandler(svc KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type SearchRequest struct {
	Query        string `json:"query"`
	DocumentType string `json:"document_type,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
}

type SearchResultResponse struct {
	DocumentType string  `json:"document_type"`
	Name         string  `json:"name"`
	Section      string  `json:"section"`
	Content      string  `json:"content"`
	Score        float32 `json:"score"`
}

type SearchResponse struct {
	Results []*SearchResultResponse `json:"results"`
}

// Search embeds a free-text query and returns the most similar chunks.
func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if utf8.RuneCountInString(req.Query) > maxQueryChars {
		req.Query = string([]rune(req.Query)[:maxQueryChars])
	}

	docType := domain.DocumentType(req.DocumentType)
	if req.DocumentType != "" && !domain.IsValidDocumentType(docType) {
		api.Error(w, http.StatusBadRequest, "invalid document type")
		return
	}

	results, err := h.svc.Search(r.Context(), req.Query, docType, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*SearchResultResponse, len(results))
	for i, c := range results {
		responses[i] = &SearchResultResponse{
			DocumentType: string(c.DocumentType),
			Name:         c.Name,
			Section:      c.Section,
			Content:      c.Content,
			Score:        c.Score,
		}
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: responses})
}

type NameListResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

// ListDrugs returns the distinct drug document names in the store.
func (h *KnowledgeHandler) ListDrugs(w http.ResponseWriter, r *http.Request) {
	h.listNames(w, r, domain.DocumentTypeDrug)
}

// ListSyndromes returns the distinct syndrome document names in the store.
func (h *KnowledgeHandler) ListSyndromes(w http.ResponseWriter, r *http.Request) {
	h.listNames(w, r, domain.DocumentTypeSyndrome)
}

func (h *KnowledgeHandler) listNames(w http.ResponseWriter, r *http.Request, docType domain.DocumentType) {
	names, err := h.svc.ListNames(r.Context(), docType)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, NameListResponse{
		Names: names,
		Count: len(names),
	})
}

type ChunkSummaryResponse struct {
	ID           string `json:"id"`
	DocumentType string `json:"document_type"`
	Name         string `json:"name"`
	Section      string `json:"section"`
	SourceFile   string `json:"source_file"`
	TokenCount   int    `json:"token_count"`
	CreatedAt    string `json:"created_at"`
}

type ChunkListResponse struct {
	Items   []*ChunkSummaryResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

// ListChunks returns a page of chunk metadata for browsing the store.
func (h *KnowledgeHandler) ListChunks(w http.ResponseWriter, r *http.Request) {
	docTypeStr := r.URL.Query().Get("document_type")
	docType := domain.DocumentType(docTypeStr)
	if docTypeStr != "" && !domain.IsValidDocumentType(docType) {
		api.Error(w, http.StatusBadRequest, "invalid document type")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.svc.ListChunks(r.Context(), docType, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ChunkSummaryResponse, len(page.Items))
	for i, c := range page.Items {
		items[i] = &ChunkSummaryResponse{
			ID:           c.ID,
			DocumentType: string(c.DocumentType),
			Name:         c.Name,
			Section:      c.Section,
			SourceFile:   c.SourceFile,
			TokenCount:   c.TokenCount,
			CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}

	api.Success(w, http.StatusOK, ChunkListResponse{
		Items:   items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	})
}
