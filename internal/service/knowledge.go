package service

import (
	"context"
	"time"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/pagination"
	"github.com/clarivex-health/advera/internal/telemetry"
)

// ChunkSummary is a chunk's metadata without its embedding, for browsing.
type ChunkSummary struct {
	ID           string
	DocumentType domain.DocumentType
	Name         string
	Section      string
	SourceFile   string
	TokenCount   int
	CreatedAt    time.Time
}

// ChunkPageResult is one page of the chunk listing.
type ChunkPageResult struct {
	Items      []*ChunkSummary
	NextCursor string
	HasMore    bool
}

// KnowledgeReadRepository defines the read interface for knowledge browsing
type KnowledgeReadRepository interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, docType domain.DocumentType, topK int) ([]domain.RetrievedChunk, error)
	ListNames(ctx context.Context, docType domain.DocumentType) ([]string, error)
	ListChunks(ctx context.Context, docType domain.DocumentType, cursor *pagination.Cursor, limit int) (*ChunkPageResult, error)
}

// KnowledgeService serves ad-hoc semantic search and knowledge base browsing.
type KnowledgeService struct {
	repo      KnowledgeReadRepository
	embedding EmbeddingClient
}

// NewKnowledgeService creates a new KnowledgeService instance
func NewKnowledgeService(repo KnowledgeReadRepository, embedding EmbeddingClient) *KnowledgeService {
	return &KnowledgeService{
		repo:      repo,
		embedding: embedding,
	}
}

// Search embeds a free-text query and returns the most similar chunks,
// optionally filtered by document type (empty type searches both).
func (s *KnowledgeService) Search(ctx context.Context, query string, docType domain.DocumentType, topK int) ([]domain.RetrievedChunk, error) {
	if query == "" {
		return []domain.RetrievedChunk{}, nil
	}
	if docType != "" && !domain.IsValidDocumentType(docType) {
		return nil, domain.ErrInvalidDocumentType
	}
	if topK <= 0 {
		topK = 5
	}

	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Search", telemetry.SpanAttributes{
		DocumentType: string(docType),
		Operation:    "search",
	})
	defer span.End()

	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, backendError("embedding backend", err)
	}

	results, err := s.repo.SearchByEmbedding(ctx, embedding, docType, topK)
	if err != nil {
		return nil, backendError("knowledge store", err)
	}
	return results, nil
}

// ListNames returns the distinct document names of the given type.
func (s *KnowledgeService) ListNames(ctx context.Context, docType domain.DocumentType) ([]string, error) {
	if !domain.IsValidDocumentType(docType) {
		return nil, domain.ErrInvalidDocumentType
	}
	names, err := s.repo.ListNames(ctx, docType)
	if err != nil {
		return nil, backendError("knowledge store", err)
	}
	return names, nil
}

// ListChunks returns a page of chunk metadata for browsing the store.
func (s *KnowledgeService) ListChunks(ctx context.Context, docType domain.DocumentType, cursorStr string, limit int) (*ChunkPageResult, error) {
	if docType != "" && !domain.IsValidDocumentType(docType) {
		return nil, domain.ErrInvalidDocumentType
	}

	cursor, err := pagination.DecodeCursor(cursorStr)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	page, err := s.repo.ListChunks(ctx, docType, cursor, limit)
	if err != nil {
		return nil, backendError("knowledge store", err)
	}
	return page, nil
}
