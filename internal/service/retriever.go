package service

import (
	"context"
	"errors"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/telemetry"
)

// backendError wraps a backend failure as a connectivity error, passing
// through domain errors (such as missing configuration) untouched.
func backendError(backend string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return domain.NewConnectivityError(backend, err)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearchRepository defines the knowledge store search interface
type ChunkSearchRepository interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, docType domain.DocumentType, topK int) ([]domain.RetrievedChunk, error)
}

// RetrieverService retrieves the knowledge context for one case: it composes
// the semantic query, embeds it once, and searches the store per document
// type with the same query vector.
type RetrieverService struct {
	repo           ChunkSearchRepository
	embedding      EmbeddingClient
	drugChunks     int
	syndromeChunks int
}

// NewRetrieverService creates a new RetrieverService instance
func NewRetrieverService(repo ChunkSearchRepository, embedding EmbeddingClient, drugChunks, syndromeChunks int) *RetrieverService {
	if drugChunks <= 0 {
		drugChunks = 5
	}
	if syndromeChunks <= 0 {
		syndromeChunks = 5
	}
	return &RetrieverService{
		repo:           repo,
		embedding:      embedding,
		drugChunks:     drugChunks,
		syndromeChunks: syndromeChunks,
	}
}

// Retrieve builds a ContextBundle for the given case. Empty search results
// are not an error; downstream formatting handles empty lists.
func (s *RetrieverService) Retrieve(ctx context.Context, c domain.Case) (*domain.ContextBundle, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrieverService.Retrieve", telemetry.SpanAttributes{
		PatientID: c.PatientID,
		DrugName:  c.DrugName,
		Operation: "retrieve",
	})
	defer span.End()

	query := BuildSemanticQuery(c.DrugName, c.StopReason, c.Age, c.DurationDays)

	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, backendError("embedding backend", err)
	}

	drugResults, err := s.repo.SearchByEmbedding(ctx, embedding, domain.DocumentTypeDrug, s.drugChunks)
	if err != nil {
		return nil, backendError("knowledge store", err)
	}

	syndromeResults, err := s.repo.SearchByEmbedding(ctx, embedding, domain.DocumentTypeSyndrome, s.syndromeChunks)
	if err != nil {
		return nil, backendError("knowledge store", err)
	}

	return &domain.ContextBundle{
		Case:           c,
		Query:          query,
		DrugChunks:     drugResults,
		SyndromeChunks: syndromeResults,
	}, nil
}
