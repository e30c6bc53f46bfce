package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/service"
)

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Search(ctx context.Context, query string, docType domain.DocumentType, topK int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query, docType, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

func (m *MockKnowledgeService) ListNames(ctx context.Context, docType domain.DocumentType) ([]string, error) {
	args := m.Called(ctx, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKnowledgeService) ListChunks(ctx context.Context, docType domain.DocumentType, cursor string, limit int) (*service.ChunkPageResult, error) {
	args := m.Called(ctx, docType, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChunkPageResult), args.Error(1)
}

func TestKnowledgeHandler_Search_Success(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	results := []domain.RetrievedChunk{
		{DocumentType: domain.DocumentTypeDrug, Name: "Atorvastatin", Section: "RISK FACTORS", Content: "text", Score: 0.91},
	}
	mockSvc.On("Search", mock.Anything, "statin myopathy", domain.DocumentTypeDrug, 3).Return(results, nil)

	body := `{"query":"statin myopathy","document_type":"drug","top_k":3}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	items := data["results"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Atorvastatin", first["name"])
	assert.Equal(t, "RISK FACTORS", first["section"])
	assert.InDelta(t, 0.91, first["score"], 0.001)
}

func TestKnowledgeHandler_Search_MissingQuery(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"top_k":3}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Search")
}

func TestKnowledgeHandler_Search_InvalidType(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"q","document_type":"protocol"}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Search")
}

func TestKnowledgeHandler_Search_TruncatesLongQueries(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	long := strings.Repeat("q", 600)
	mockSvc.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return len(q) == maxQueryChars
	}), domain.DocumentType(""), 0).Return([]domain.RetrievedChunk{}, nil)

	body, err := json.Marshal(map[string]string{"query": long})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(string(body)))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_Search_TruncatesOnRuneBoundary(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	long := strings.Repeat("é", 600)
	mockSvc.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return utf8.ValidString(q) && utf8.RuneCountInString(q) == maxQueryChars
	}), domain.DocumentType(""), 0).Return([]domain.RetrievedChunk{}, nil)

	body, err := json.Marshal(map[string]string{"query": long})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(string(body)))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_ListDrugs(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("ListNames", mock.Anything, domain.DocumentTypeDrug).Return([]string{"Amiodarone", "Atorvastatin"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/drugs", nil)
	w := httptest.NewRecorder()

	handler.ListDrugs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
	names := data["names"].([]interface{})
	assert.Equal(t, "Amiodarone", names[0])
}

func TestKnowledgeHandler_ListSyndromes(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("ListNames", mock.Anything, domain.DocumentTypeSyndrome).Return([]string{"Rhabdomyolysis"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/syndromes", nil)
	w := httptest.NewRecorder()

	handler.ListSyndromes(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Rhabdomyolysis")
}

func TestKnowledgeHandler_ListChunks(t *testing.T) {
	t.Run("returns a page with pagination metadata", func(t *testing.T) {
		mockSvc := new(MockKnowledgeService)
		handler := NewKnowledgeHandler(mockSvc)

		page := &service.ChunkPageResult{
			Items: []*service.ChunkSummary{{
				ID:           "chunk-1",
				DocumentType: domain.DocumentTypeDrug,
				Name:         "Atorvastatin",
				Section:      "MONITORING",
				SourceFile:   "atorvastatin.md",
				TokenCount:   120,
				CreatedAt:    time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
			}},
			NextCursor: "next-cursor",
			HasMore:    true,
		}
		mockSvc.On("ListChunks", mock.Anything, domain.DocumentTypeDrug, "abc", 10).Return(page, nil)

		req := httptest.NewRequest(http.MethodGet, "/chunks?document_type=drug&cursor=abc&limit=10", nil)
		w := httptest.NewRecorder()

		handler.ListChunks(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "next-cursor", data["cursor"])
		assert.Equal(t, true, data["has_more"])
		items := data["items"].([]interface{})
		require.Len(t, items, 1)
		first := items[0].(map[string]interface{})
		assert.Equal(t, "chunk-1", first["id"])
		assert.Equal(t, "MONITORING", first["section"])
	})

	t.Run("invalid document type", func(t *testing.T) {
		mockSvc := new(MockKnowledgeService)
		handler := NewKnowledgeHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/chunks?document_type=protocol", nil)
		w := httptest.NewRecorder()

		handler.ListChunks(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "ListChunks")
	})

	t.Run("default limit", func(t *testing.T) {
		mockSvc := new(MockKnowledgeService)
		handler := NewKnowledgeHandler(mockSvc)

		mockSvc.On("ListChunks", mock.Anything, domain.DocumentType(""), "", 20).
			Return(&service.ChunkPageResult{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/chunks", nil)
		w := httptest.NewRecorder()

		handler.ListChunks(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})
}
