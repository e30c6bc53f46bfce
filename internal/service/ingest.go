package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/telemetry"
	"github.com/google/uuid"
)

// ChunkWriterRepository defines the knowledge store write interface used by
// ingestion. Re-ingestion is reset-then-reinsert; there is no upsert.
type ChunkWriterRepository interface {
	InsertMany(ctx context.Context, chunks []domain.DocumentChunk) error
	DeleteAll(ctx context.Context) error
	CountByType(ctx context.Context, docType domain.DocumentType) (int64, error)
}

// StoreStats summarizes the chunk counts in the knowledge store.
type StoreStats struct {
	Total          int64
	DrugChunks     int64
	SyndromeChunks int64
}

// IngestService chunks and embeds knowledge source files and writes them to
// the store. Ingestion is an offline administrative operation that assumes
// no concurrent readers.
type IngestService struct {
	repo      ChunkWriterRepository
	embedding EmbeddingClient
}

// NewIngestService creates a new IngestService instance
func NewIngestService(repo ChunkWriterRepository, embedding EmbeddingClient) *IngestService {
	return &IngestService{
		repo:      repo,
		embedding: embedding,
	}
}

// IngestDirectory processes all .md and .txt files in a directory as
// documents of the given type. Returns the number of chunks inserted.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, docType domain.DocumentType) (int, error) {
	if !domain.IsValidDocumentType(docType) {
		return 0, domain.ErrInvalidDocumentType
	}

	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestDirectory", telemetry.SpanAttributes{
		DocumentType: string(docType),
		Operation:    "ingest",
	})
	defer span.End()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read knowledge directory %s: %w", dir, err)
	}

	var chunks []domain.DocumentChunk
	createdAt := time.Now().UTC()

	for _, entry := range entries {
		if entry.IsDir() || !isKnowledgeFile(entry.Name()) {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return 0, fmt.Errorf("failed to read knowledge file %s: %w", entry.Name(), err)
		}

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		for _, sc := range ChunkDocument(string(content), stem, docType) {
			embedding, err := s.embedding.GenerateEmbedding(ctx, sc.Text)
			if err != nil {
				return 0, backendError("embedding backend", err)
			}

			chunks = append(chunks, domain.DocumentChunk{
				ID:           uuid.NewString(),
				DocumentType: docType,
				Name:         sc.Name,
				Section:      sc.Section,
				Content:      sc.Text,
				Embedding:    embedding,
				SourceFile:   entry.Name(),
				TokenCount:   estimateTokens(sc.Text),
				CreatedAt:    createdAt,
			})
		}
	}

	if len(chunks) == 0 {
		return 0, nil
	}

	if err := s.repo.InsertMany(ctx, chunks); err != nil {
		return 0, backendError("knowledge store", err)
	}

	return len(chunks), nil
}

// Reset clears the knowledge store ahead of re-ingestion.
func (s *IngestService) Reset(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return backendError("knowledge store", err)
	}
	return nil
}

// Stats reports chunk counts by document type.
func (s *IngestService) Stats(ctx context.Context) (*StoreStats, error) {
	drugCount, err := s.repo.CountByType(ctx, domain.DocumentTypeDrug)
	if err != nil {
		return nil, backendError("knowledge store", err)
	}
	syndromeCount, err := s.repo.CountByType(ctx, domain.DocumentTypeSyndrome)
	if err != nil {
		return nil, backendError("knowledge store", err)
	}
	return &StoreStats{
		Total:          drugCount + syndromeCount,
		DrugChunks:     drugCount,
		SyndromeChunks: syndromeCount,
	}, nil
}

func isKnowledgeFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt":
		return true
	}
	return false
}
