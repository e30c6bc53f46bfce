package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clarivex-health/advera/internal/api/handlers"
	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/service"
)

type MockNarrativeService struct {
	mock.Mock
}

func (m *MockNarrativeService) GenerateForCase(ctx context.Context, c domain.Case) (*domain.ClinicalNarrative, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClinicalNarrative), args.Error(1)
}

func (m *MockNarrativeService) GetReport(ctx context.Context, patientID string) (string, error) {
	args := m.Called(ctx, patientID)
	return args.String(0), args.Error(1)
}

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

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupRouter() (http.Handler, *MockNarrativeService, *MockKnowledgeService) {
	narrativeSvc := new(MockNarrativeService)
	knowledgeSvc := new(MockKnowledgeService)
	db := new(MockPinger)
	db.On("Ping", mock.Anything).Return(nil)

	cfg := RouterConfig{
		NarrativeHandler: handlers.NewNarrativeHandler(narrativeSvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc),
		HealthHandler:    handlers.NewHealthHandler(db, true, true),
	}

	return NewRouter(cfg), narrativeSvc, knowledgeSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
}

func TestRouter_GenerateNarrative(t *testing.T) {
	router, narrativeSvc, _ := setupRouter()

	narrative := &domain.ClinicalNarrative{
		PatientID:         "PT-001",
		DrugName:          "Atorvastatin",
		DurationDays:      45,
		StopReason:        "severe muscle pain",
		Narrative:         "full narrative",
		ProbableSyndrome:  "statin myopathy",
		CausalityCategory: "Probable/Likely",
		GeneratedAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	narrativeSvc.On("GenerateForCase", mock.Anything, mock.Anything).Return(narrative, nil)

	body := `{"patient_id":"PT-001","age":72,"gender":"female","drug_name":"Atorvastatin","stop_reason":"severe muscle pain","duration_days":45}`
	req := httptest.NewRequest(http.MethodPost, "/narratives", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "statin myopathy")
	narrativeSvc.AssertExpectations(t)
}

func TestRouter_GetReport_URLParamIsPassed(t *testing.T) {
	router, narrativeSvc, _ := setupRouter()

	narrativeSvc.On("GetReport", mock.Anything, "PT-042").Return("report body", nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/PT-042", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "report body")
	narrativeSvc.AssertExpectations(t)
}

func TestRouter_KnowledgeRoutes(t *testing.T) {
	router, _, knowledgeSvc := setupRouter()

	knowledgeSvc.On("Search", mock.Anything, "myopathy", domain.DocumentType(""), 0).
		Return([]domain.RetrievedChunk{}, nil)
	knowledgeSvc.On("ListNames", mock.Anything, domain.DocumentTypeDrug).
		Return([]string{"Atorvastatin"}, nil)
	knowledgeSvc.On("ListNames", mock.Anything, domain.DocumentTypeSyndrome).
		Return([]string{"Rhabdomyolysis"}, nil)
	knowledgeSvc.On("ListChunks", mock.Anything, domain.DocumentType(""), "", 20).
		Return(&service.ChunkPageResult{}, nil)

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/search", `{"query":"myopathy"}`},
		{http.MethodGet, "/drugs", ""},
		{http.MethodGet, "/syndromes", ""},
		{http.MethodGet, "/chunks", ""},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			var req *http.Request
			if route.body != "" {
				req = httptest.NewRequest(route.method, route.path, strings.NewReader(route.body))
			} else {
				req = httptest.NewRequest(route.method, route.path, nil)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	knowledgeSvc.AssertExpectations(t)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_RejectsOversizedBody(t *testing.T) {
	router, narrativeSvc, _ := setupRouter()

	body := strings.Repeat("a", 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/narratives", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	narrativeSvc.AssertNotCalled(t, "GenerateForCase")
}
