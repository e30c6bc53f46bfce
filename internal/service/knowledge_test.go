package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKnowledgeReadRepository is a mock implementation of KnowledgeReadRepository
type MockKnowledgeReadRepository struct {
	mock.Mock
}

func (m *MockKnowledgeReadRepository) SearchByEmbedding(ctx context.Context, embedding []float32, docType domain.DocumentType, topK int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, embedding, docType, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

func (m *MockKnowledgeReadRepository) ListNames(ctx context.Context, docType domain.DocumentType) ([]string, error) {
	args := m.Called(ctx, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKnowledgeReadRepository) ListChunks(ctx context.Context, docType domain.DocumentType, cursor *pagination.Cursor, limit int) (*ChunkPageResult, error) {
	args := m.Called(ctx, docType, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChunkPageResult), args.Error(1)
}

func TestKnowledgeService_Search(t *testing.T) {
	results := []domain.RetrievedChunk{
		{DocumentType: domain.DocumentTypeDrug, Name: "Atorvastatin", Section: "RISK FACTORS", Content: "text", Score: 0.9},
	}

	t.Run("embeds the query and searches with the given filter", func(t *testing.T) {
		repo := new(MockKnowledgeReadRepository)
		embedding := new(MockEmbeddingClient)
		svc := NewKnowledgeService(repo, embedding)

		vec := []float32{0.1, 0.2}
		embedding.On("GenerateEmbedding", mock.Anything, "statin myopathy").Return(vec, nil)
		repo.On("SearchByEmbedding", mock.Anything, vec, domain.DocumentTypeDrug, 3).Return(results, nil)

		got, err := svc.Search(context.Background(), "statin myopathy", domain.DocumentTypeDrug, 3)

		require.NoError(t, err)
		assert.Equal(t, results, got)
	})

	t.Run("empty query short-circuits to empty results", func(t *testing.T) {
		repo := new(MockKnowledgeReadRepository)
		embedding := new(MockEmbeddingClient)
		svc := NewKnowledgeService(repo, embedding)

		got, err := svc.Search(context.Background(), "", "", 5)

		require.NoError(t, err)
		assert.Empty(t, got)
		embedding.AssertNotCalled(t, "GenerateEmbedding")
		repo.AssertNotCalled(t, "SearchByEmbedding")
	})

	t.Run("rejects invalid document type", func(t *testing.T) {
		svc := NewKnowledgeService(new(MockKnowledgeReadRepository), new(MockEmbeddingClient))

		_, err := svc.Search(context.Background(), "query", "protocol", 5)

		assert.ErrorIs(t, err, domain.ErrInvalidDocumentType)
	})

	t.Run("empty type searches both partitions with default topK", func(t *testing.T) {
		repo := new(MockKnowledgeReadRepository)
		embedding := new(MockEmbeddingClient)
		svc := NewKnowledgeService(repo, embedding)

		embedding.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
		repo.On("SearchByEmbedding", mock.Anything, mock.Anything, domain.DocumentType(""), 5).Return(results, nil)

		_, err := svc.Search(context.Background(), "query", "", 0)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("embedding failure is a connectivity error", func(t *testing.T) {
		repo := new(MockKnowledgeReadRepository)
		embedding := new(MockEmbeddingClient)
		svc := NewKnowledgeService(repo, embedding)

		embedding.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))

		_, err := svc.Search(context.Background(), "query", "", 5)

		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domain.ErrCodeConnectivity, de.Code)
	})
}

func TestKnowledgeService_ListNames(t *testing.T) {
	t.Run("returns names for a valid type", func(t *testing.T) {
		repo := new(MockKnowledgeReadRepository)
		svc := NewKnowledgeService(repo, new(MockEmbeddingClient))

		repo.On("ListNames", mock.Anything, domain.DocumentTypeSyndrome).Return([]string{"Rhabdomyolysis", "Serotonin Syndrome"}, nil)

		names, err := svc.ListNames(context.Background(), domain.DocumentTypeSyndrome)

		require.NoError(t, err)
		assert.Equal(t, []string{"Rhabdomyolysis", "Serotonin Syndrome"}, names)
	})

	t.Run("rejects empty type", func(t *testing.T) {
		svc := NewKnowledgeService(new(MockKnowledgeReadRepository), new(MockEmbeddingClient))

		_, err := svc.ListNames(context.Background(), "")

		assert.ErrorIs(t, err, domain.ErrInvalidDocumentType)
	})
}

func TestKnowledgeService_ListChunks(t *testing.T) {
	t.Run("decodes the cursor and returns the page", func(t *testing.T) {
		repo := new(MockKnowledgeReadRepository)
		svc := NewKnowledgeService(repo, new(MockEmbeddingClient))

		ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		cursorStr := pagination.EncodeCursor("chunk-9", ts)
		page := &ChunkPageResult{
			Items:   []*ChunkSummary{{ID: "chunk-8", DocumentType: domain.DocumentTypeDrug}},
			HasMore: false,
		}

		repo.On("ListChunks", mock.Anything, domain.DocumentTypeDrug, mock.MatchedBy(func(c *pagination.Cursor) bool {
			return c != nil && c.LastID == "chunk-9" && c.Timestamp.Equal(ts)
		}), 10).Return(page, nil)

		got, err := svc.ListChunks(context.Background(), domain.DocumentTypeDrug, cursorStr, 10)

		require.NoError(t, err)
		assert.Equal(t, page, got)
	})

	t.Run("invalid cursor is a validation error", func(t *testing.T) {
		svc := NewKnowledgeService(new(MockKnowledgeReadRepository), new(MockEmbeddingClient))

		_, err := svc.ListChunks(context.Background(), "", "not-a-cursor", 10)

		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domain.ErrCodeValidation, de.Code)
	})

	t.Run("empty type lists all chunks", func(t *testing.T) {
		repo := new(MockKnowledgeReadRepository)
		svc := NewKnowledgeService(repo, new(MockEmbeddingClient))

		page := &ChunkPageResult{HasMore: false}
		repo.On("ListChunks", mock.Anything, domain.DocumentType(""), (*pagination.Cursor)(nil), 20).Return(page, nil)

		got, err := svc.ListChunks(context.Background(), "", "", 20)

		require.NoError(t, err)
		assert.Equal(t, page, got)
	})
}
